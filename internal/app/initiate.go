package app

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	gcs "cloud.google.com/go/storage"
	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
	"github.com/nats-io/nats.go"
	"github.com/nsqio/go-nsq"
	"github.com/samber/lo"
	"github.com/segmentio/kafka-go"
	"github.com/shandysiswandi/queuesend/internal/pkg/clock"
	"github.com/shandysiswandi/queuesend/internal/pkg/config"
	"github.com/shandysiswandi/queuesend/internal/pkg/instrument"
	"github.com/shandysiswandi/queuesend/internal/pkg/messaging"
	"github.com/shandysiswandi/queuesend/internal/pkg/storage"
	"github.com/shandysiswandi/queuesend/internal/pkg/uid"
	"github.com/shandysiswandi/queuesend/internal/pkg/validator"
	"github.com/shandysiswandi/queuesend/internal/sender/inbound"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

const (
	appName = "queuesend"

	sourceDriverLocal = "local"

	scopePubSub = "https://www.googleapis.com/auth/pubsub"
)

var errSourceBucketRequired = errors.New("source.bucket is required for object storage")

func (a *App) initLogging() {
	ins, err := instrument.New(context.Background(), &instrument.Config{})
	if err != nil {
		slog.Error("failed to init logging", "error", err)
		os.Exit(1)
	}
	a.ins = ins
}

func (a *App) initLibraries() {
	a.clock = clock.New()
	a.uuid = uid.NewUUID()

	validator, err := validator.NewV10Validator()
	if err != nil {
		slog.Error("failed to init validation v10 validator", "error", err)
		os.Exit(1)
	}
	a.validator = validator
}

func (a *App) initConfig(opts inbound.Options) error {
	cfg, settings, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}

	a.config = cfg
	a.settings = settings

	return nil
}

func (a *App) initInstrument(ctx context.Context, opts inbound.Options) error {
	level := a.config.GetString("log.level")
	if opts.Verbose {
		level = "debug"
	}

	ins, err := instrument.New(ctx, &instrument.Config{
		Enabled:          a.config.GetBool("instrument.enabled"),
		ServiceName:      lo.CoalesceOrEmpty(a.config.GetString("instrument.service_name"), appName),
		ServiceVersion:   a.config.GetString("instrument.service_version"),
		Environment:      a.config.GetString("instrument.env"),
		OTLPEndpoint:     a.config.GetString("instrument.otlp_endpoint"),
		OTLPSecure:       a.config.GetBool("instrument.otlp_secure"),
		TraceSampleRatio: a.config.GetFloat64("instrument.trace_sample_ratio"),
		MetricsInterval:  a.config.GetSecond("instrument.metric_interval_seconds"),
		MaskFields:       a.config.GetArray("instrument.log_mask_fields"),
		LogLevel:         level,
	})
	if err != nil {
		return fmt.Errorf("instrument: %w", err)
	}
	a.ins = ins

	slog.DebugContext(ctx, "configuration loaded",
		"queue", a.settings.QueueName,
		"connection_string", a.settings.ConnectionString,
	)

	return nil
}

func (a *App) initStorage(ctx context.Context) error {
	driver := strings.ToLower(strings.TrimSpace(a.config.GetString("source.driver")))
	if driver == "" || driver == sourceDriverLocal {
		return nil
	}
	if strings.TrimSpace(a.config.GetString("source.bucket")) == "" {
		return errSourceBucketRequired
	}

	var gcsClient *gcs.Client
	if driver == storage.DriverGCS {
		client, err := a.newGCSClient(ctx)
		if err != nil {
			return err
		}
		gcsClient = client
	}

	stg, err := storage.NewFromDriver(ctx, driver, storage.FactoryOptions{
		S3: storage.S3Options{
			Region:       strings.TrimSpace(a.config.GetString("source.s3.region")),
			Endpoint:     strings.TrimSpace(a.config.GetString("source.s3.endpoint")),
			AccessKey:    strings.TrimSpace(a.config.GetString("source.s3.access_key")),
			SecretKey:    strings.TrimSpace(a.config.GetString("source.s3.secret_key")),
			SessionToken: strings.TrimSpace(a.config.GetString("source.s3.session_token")),
			UsePathStyle: a.config.GetBool("source.s3.use_path_style"),
		},
		GCS: storage.GCSOptions{
			Client: gcsClient,
		},
		MinIO: storage.MinIOOptions{
			Region:       strings.TrimSpace(a.config.GetString("source.minio.region")),
			Endpoint:     strings.TrimSpace(a.config.GetString("source.minio.endpoint")),
			AccessKey:    strings.TrimSpace(a.config.GetString("source.minio.access_key")),
			SecretKey:    strings.TrimSpace(a.config.GetString("source.minio.secret_key")),
			SessionToken: strings.TrimSpace(a.config.GetString("source.minio.session_token")),
			UseSSL:       a.config.GetBool("source.minio.use_ssl"),
		},
	})
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	a.storage = stg

	return nil
}

// newGCSClient returns nil when no option is configured so the adapter falls
// back to application default credentials.
func (a *App) newGCSClient(ctx context.Context) (*gcs.Client, error) {
	gcsOptions := []option.ClientOption{}
	if a.config.GetBool("source.gcs.without_auth") {
		gcsOptions = append(gcsOptions, option.WithoutAuthentication())
	}
	if v := strings.TrimSpace(a.config.GetString("source.gcs.credentials_file")); v != "" {
		// #nosec G304 -- path is from trusted config file.
		credsJSON, err := os.ReadFile(v)
		if err != nil {
			return nil, fmt.Errorf("read gcs credentials file: %w", err)
		}
		creds, err := google.CredentialsFromJSON(ctx, credsJSON, gcs.ScopeReadOnly)
		if err != nil {
			return nil, fmt.Errorf("parse gcs credentials file: %w", err)
		}
		gcsOptions = append(gcsOptions, option.WithCredentials(creds))
	}
	if v := a.config.GetBinary("source.gcs.credentials_json"); len(v) > 0 {
		creds, err := google.CredentialsFromJSON(ctx, v, gcs.ScopeReadOnly)
		if err != nil {
			return nil, fmt.Errorf("parse gcs credentials json: %w", err)
		}
		gcsOptions = append(gcsOptions, option.WithCredentials(creds))
	}
	if v := strings.TrimSpace(a.config.GetString("source.gcs.endpoint")); v != "" {
		gcsOptions = append(gcsOptions, option.WithEndpoint(v))
	}
	if len(gcsOptions) == 0 {
		return nil, nil
	}

	client, err := gcs.NewClient(ctx, gcsOptions...)
	if err != nil {
		return nil, fmt.Errorf("gcs client: %w", err)
	}

	return client, nil
}

func (a *App) initMessaging(ctx context.Context, opts inbound.Options) error {
	driver, err := messaging.ParseDriver(lo.CoalesceOrEmpty(opts.Driver, a.config.GetString("messaging.driver")))
	if err != nil {
		return err
	}

	pubSubOptions, err := a.pubSubClientOptions(ctx)
	if err != nil {
		return err
	}

	factoryOpts := messaging.FactoryOptions{
		ServiceBus: messaging.ServiceBusConfig{
			ConnectionString: a.settings.ConnectionString,
			ClientOptions:    &azservicebus.ClientOptions{ApplicationID: appName},
			CloseTimeout:     a.config.GetSecond("messaging.servicebus.close_timeout_seconds"),
		},
		NSQ: messaging.NSQConfig{
			ProducerAddr: strings.TrimSpace(a.config.GetString("messaging.nsq.producer_addr")),
			ProducerConfig: func() *nsq.Config {
				cfg := nsq.NewConfig()
				if v := a.config.GetSecond("messaging.nsq.dial_timeout_seconds"); v > 0 {
					cfg.DialTimeout = v
				}
				if v := a.config.GetSecond("messaging.nsq.write_timeout_seconds"); v > 0 {
					cfg.WriteTimeout = v
				}
				return cfg
			}(),
		},
		Kafka: messaging.KafkaConfig{
			Brokers:      a.config.GetArray("messaging.kafka.brokers"),
			RequiredAcks: kafka.RequiredAcks(a.config.GetInt("messaging.kafka.required_acks")),
			WriteTimeout: a.config.GetSecond("messaging.kafka.write_timeout_seconds"),
			Transport: func() *kafka.Transport {
				tr := &kafka.Transport{
					ClientID:    lo.CoalesceOrEmpty(a.config.GetString("messaging.kafka.client_id"), appName),
					DialTimeout: a.config.GetSecond("messaging.kafka.dial_timeout_seconds"),
				}
				if a.config.GetBool("messaging.kafka.tls") {
					tr.TLS = &tls.Config{MinVersion: tls.VersionTLS12}
				}
				return tr
			}(),
		},
		NATS: messaging.NATSConfig{
			URL: strings.TrimSpace(a.config.GetString("messaging.nats.url")),
			Options: func() []nats.Option {
				natsOpts := []nats.Option{
					nats.Name(lo.CoalesceOrEmpty(a.config.GetString("messaging.nats.name"), appName)),
				}
				if v := a.config.GetSecond("messaging.nats.timeout_seconds"); v > 0 {
					natsOpts = append(natsOpts, nats.Timeout(v))
				}
				if v := a.config.GetString("messaging.nats.token"); v != "" {
					natsOpts = append(natsOpts, nats.Token(v))
				}
				return natsOpts
			}(),
		},
		PubSub: messaging.PubSubConfig{
			ProjectID:     strings.TrimSpace(a.config.GetString("messaging.pubsub.project_id")),
			ClientOptions: pubSubOptions,
		},
		AMQP: messaging.AMQPConfig{
			URL:       strings.TrimSpace(a.config.GetString("messaging.amqp.url")),
			Exchange:  a.config.GetString("messaging.amqp.exchange"),
			Transient: a.config.GetBool("messaging.amqp.transient"),
		},
	}

	a.driver = driver
	a.opener = func(ctx context.Context) (messaging.Publisher, error) {
		return messaging.NewFromDriver(ctx, driver, factoryOpts)
	}

	return nil
}

func (a *App) pubSubClientOptions(ctx context.Context) ([]option.ClientOption, error) {
	pubSubOptions := []option.ClientOption{}
	if a.config.GetBool("messaging.pubsub.without_auth") {
		pubSubOptions = append(pubSubOptions, option.WithoutAuthentication())
	}
	if v := a.config.GetBinary("messaging.pubsub.credentials_json"); len(v) > 0 {
		creds, err := google.CredentialsFromJSON(ctx, v, scopePubSub)
		if err != nil {
			return nil, fmt.Errorf("parse pubsub credentials json: %w", err)
		}
		pubSubOptions = append(pubSubOptions, option.WithCredentials(creds))
	}
	if v := strings.TrimSpace(a.config.GetString("messaging.pubsub.endpoint")); v != "" {
		pubSubOptions = append(pubSubOptions, option.WithEndpoint(v))
	}

	return pubSubOptions, nil
}

func (a *App) initClosers() {
	a.closers = []struct {
		name string
		fn   func(context.Context) error
	}{
		{
			name: "Instrument",
			fn: func(ctx context.Context) error {
				return a.ins.Shutdown(ctx)
			},
		},
		{
			name: "Storage",
			fn: func(context.Context) error {
				if a.storage == nil {
					return nil
				}
				return a.storage.Close()
			},
		},
		{
			name: "Config",
			fn: func(context.Context) error {
				return a.config.Close()
			},
		},
	}
}

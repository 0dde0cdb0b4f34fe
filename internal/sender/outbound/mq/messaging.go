package mq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/samber/lo"
	"github.com/shandysiswandi/queuesend/internal/pkg/instrument"
	"github.com/shandysiswandi/queuesend/internal/pkg/messaging"
	"github.com/shandysiswandi/queuesend/internal/sender/entity"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const keyOfCorrelationID string = "cID"

// Opener connects to the broker. Each call returns a fresh connection owned
// by the caller.
type Opener func(ctx context.Context) (messaging.Publisher, error)

type Messaging struct {
	open   Opener
	driver string
	ins    instrument.Instrumentation

	sentCounter       metric.Int64Counter
	durationHistogram metric.Float64Histogram
}

func NewMessaging(open Opener, driver string, ins instrument.Instrumentation) *Messaging {
	meter := ins.Meter("sender.outbound.mq")

	sentCounter, err := meter.Int64Counter("queuesend.messages.sent",
		metric.WithDescription("Number of publish attempts by outcome"))
	if err != nil {
		slog.Error("failed to create messages sent counter", "error", err)
	}

	durationHistogram, err := meter.Float64Histogram("queuesend.publish.duration",
		metric.WithDescription("Connect, send and release duration in milliseconds"))
	if err != nil {
		slog.Error("failed to create publish duration histogram", "error", err)
	}

	return &Messaging{
		open:              open,
		driver:            driver,
		ins:               ins,
		sentCounter:       sentCounter,
		durationHistogram: durationHistogram,
	}
}

// Publish connects, sends msg to queue and releases the connection on every
// path. A release failure after a successful send is logged, not returned.
func (m *Messaging) Publish(ctx context.Context, queue string, msg entity.Message) (receipt *entity.Receipt, err error) {
	ctx, span := m.ins.Tracer("sender.outbound.mq").Start(ctx, "Publish",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("messaging.system", m.driver),
			attribute.String("messaging.destination.name", queue),
			attribute.String("messaging.message.id", msg.MessageID),
		),
	)
	defer span.End()

	start := time.Now()
	defer func() {
		m.record(ctx, queue, time.Since(start), err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	client, err := m.open(ctx)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	defer func() {
		cerr := client.Close()
		if cerr == nil {
			return
		}
		if err != nil {
			err = errors.Join(err, cerr)
			return
		}
		slog.WarnContext(ctx, "failed to close broker connection", "driver", m.driver, "error", cerr)
	}()

	headers := []messaging.Header{}
	if cID := instrument.GetCorrelationID(ctx); cID != "" {
		headers = append(headers, messaging.Header{Key: keyOfCorrelationID, Value: []byte(cID)})
	}

	res, err := client.Publish(ctx, queue, messaging.OutgoingMessage{
		Body:        msg.Body,
		MessageID:   msg.MessageID,
		SessionID:   msg.SessionID,
		ContentType: msg.ContentType,
		Headers:     headers,
	})
	if err != nil {
		return nil, err
	}

	return &entity.Receipt{
		Queue:     lo.CoalesceOrEmpty(res.Topic, queue),
		MessageID: lo.CoalesceOrEmpty(res.MessageID, msg.MessageID),
		SentAt:    res.Timestamp,
	}, nil
}

func (m *Messaging) record(ctx context.Context, queue string, elapsed time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}

	attrs := metric.WithAttributes(
		attribute.String("messaging.system", m.driver),
		attribute.String("messaging.destination.name", queue),
		attribute.String("outcome", outcome),
	)
	if m.sentCounter != nil {
		m.sentCounter.Add(ctx, 1, attrs)
	}
	if m.durationHistogram != nil {
		m.durationHistogram.Record(ctx, float64(elapsed.Milliseconds()), attrs)
	}
}

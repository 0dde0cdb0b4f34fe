package config

// DefaultPath is where the settings document is read from when no path is given.
const DefaultPath = "appsettings/appsettings.int.json"

// Keys of the settings document.
const (
	KeyConnectionString = "ServiceBusConnectionString"
	KeyQueueName        = "QueueName"
	KeySessionID        = "SessionId"
)

// DefaultSessionID tags messages when neither the document nor the command line sets one.
const DefaultSessionID = "42"

// Settings is the broker target read once at startup.
//
// Missing keys are empty strings; only an unreadable or unparsable document is an error.
type Settings struct {
	ConnectionString string
	QueueName        string
	SessionID        string
}

// Defaults returns the default values registered on every loaded document.
func Defaults() map[string]any {
	return map[string]any{
		KeySessionID:         DefaultSessionID,
		"messaging.driver":   "servicebus",
		"source.driver":      "local",
		"source.local.dir":   "messages",
		"log.level":          "warn",
		"instrument.enabled": false,
	}
}

// NewSettings extracts Settings from cfg.
func NewSettings(cfg Config) Settings {
	return Settings{
		ConnectionString: cfg.GetString(KeyConnectionString),
		QueueName:        cfg.GetString(KeyQueueName),
		SessionID:        cfg.GetString(KeySessionID),
	}
}

// Load reads the document at path and returns it together with its Settings.
// An empty path means DefaultPath.
func Load(path string) (*Viper, Settings, error) {
	if path == "" {
		path = DefaultPath
	}

	vc, err := NewViper(path, Defaults())
	if err != nil {
		return nil, Settings{}, err
	}

	return vc, NewSettings(vc), nil
}

package config

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/viper"
)

var (
	// ErrConfigRead is returned when the configuration file cannot be read.
	ErrConfigRead = errors.New("config: unable to read configuration file")
	// ErrConfigParse is returned when the configuration file is not a valid document.
	ErrConfigParse = errors.New("config: unable to parse configuration file")
	// ErrConfigNull is returned when the document is the literal null.
	ErrConfigNull = errors.New("config: configuration data is null")
)

// EnvPrefix prefixes environment variables that override file values.
const EnvPrefix = "QUEUESEND"

// Viper is a Config implementation backed by github.com/spf13/viper.
type Viper struct {
	v *viper.Viper
}

// NewViper loads configuration from the given file path and returns a Viper-backed Config.
//
// The config type is inferred from the filename extension and defaults to json.
// Environment variables named QUEUESEND_<KEY> (dots replaced by underscores)
// override values from the file.
func NewViper(pathFile string, defaults map[string]any) (*Viper, error) {
	// #nosec G304 -- path comes from a flag or the fixed default.
	data, err := os.ReadFile(pathFile)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrConfigRead, pathFile, err)
	}

	configType := strings.TrimPrefix(filepath.Ext(pathFile), ".")
	if configType == "" {
		configType = "json"
	}

	vc, err := NewViperFromBytes(configType, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", pathFile, err)
	}

	for k, val := range defaults {
		vc.v.SetDefault(k, val)
	}

	return vc, nil
}

// NewViperFromBytes loads configuration from memory and returns a Viper-backed Config.
// configType should be a format supported by Viper (e.g. "yaml", "json", "toml").
func NewViperFromBytes(configType string, data []byte) (*Viper, error) {
	if strings.TrimSpace(configType) == "" {
		return nil, errors.New("config type is required")
	}

	if string(bytes.TrimSpace(data)) == "null" {
		return nil, ErrConfigNull
	}

	v := viper.New()
	v.SetConfigType(configType)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfigParse, err)
	}

	return &Viper{v: v}, nil
}

// GetBool returns the value for key as bool.
func (vc *Viper) GetBool(key string) bool {
	return vc.v.GetBool(key)
}

// GetInt returns the value for key as int.
func (vc *Viper) GetInt(key string) int {
	return vc.v.GetInt(key)
}

// GetFloat64 returns the value for key as float64.
func (vc *Viper) GetFloat64(key string) float64 {
	return vc.v.GetFloat64(key)
}

// GetSecond returns the value for key as seconds.
func (vc *Viper) GetSecond(key string) time.Duration {
	return time.Duration(vc.v.GetInt64(key)) * time.Second
}

// GetString returns the value for key as string.
func (vc *Viper) GetString(key string) string {
	return vc.v.GetString(key)
}

// GetBinary returns the value for key decoded from base64.
func (vc *Viper) GetBinary(key string) []byte {
	data, err := base64.StdEncoding.DecodeString(vc.v.GetString(key))
	if err != nil {
		return nil
	}

	return data
}

// GetArray returns the value for key as a list, splitting strings by commas.
// Empty elements are dropped.
func (vc *Viper) GetArray(key string) []string {
	var items []string
	if raw, ok := vc.v.Get(key).(string); ok {
		items = strings.Split(raw, ",")
	} else {
		items = vc.v.GetStringSlice(key)
	}

	return lo.Compact(lo.Map(items, func(s string, _ int) string {
		return strings.TrimSpace(s)
	}))
}

// Close implements io.Closer for interface compatibility.
func (vc *Viper) Close() error {
	// No resources to close for ViperConfig; this is just for interface completeness.
	return nil
}

package config

import (
	"io"
	"time"
)

// Config defines a set of methods for retrieving configuration values of various types.
// Implementations return the zero value for keys that are absent or cannot be converted.
type Config interface {
	io.Closer

	// GetBool retrieves the configuration value associated with the given key as a bool.
	GetBool(key string) bool

	// GetInt retrieves the configuration value associated with the given key as an int.
	GetInt(key string) int

	// GetFloat64 retrieves the configuration value associated with the given key as a float64.
	GetFloat64(key string) float64

	// GetSecond retrieves the configuration value associated with the given key as seconds.
	GetSecond(key string) time.Duration

	// GetString retrieves the configuration value associated with the given key as a string.
	GetString(key string) string

	// GetBinary retrieves the configuration value associated with the given key as a byte slice.
	// Configuration value is stored as base64 encoded.
	GetBinary(key string) []byte

	// GetArray retrieves the configuration value associated with the given key as a slice of strings.
	// Configuration value is either a JSON array or a string with format <element1>,<element2>,...
	GetArray(key string) []string
}

// Package uid generates identifiers for outgoing messages and invocations.
package uid

// StringID generates string identifiers.
type StringID interface {
	Generate() string
}

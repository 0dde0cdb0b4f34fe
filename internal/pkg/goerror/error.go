package goerror

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/samber/lo"
)

var (
	// ErrNotFound indicates that the requested resource could not be found.
	ErrNotFound = errors.New("resource not found")
)

// Type classifies errors into the buckets the command reports differently.
type Type int

const (
	// TypeTransport represents broker connect/send failures.
	TypeTransport Type = iota
	// TypeConfig represents fatal configuration failures raised before any send.
	TypeConfig
	// TypeUsage represents a malformed command line.
	TypeUsage
	// TypeInput represents a missing or invalid message.
	TypeInput
)

// String returns the string representation of the error type.
func (t Type) String() string {
	switch t {
	case TypeConfig:
		return "ERROR_TYPE_CONFIG"
	case TypeUsage:
		return "ERROR_TYPE_USAGE"
	case TypeInput:
		return "ERROR_TYPE_INPUT"
	case TypeTransport:
		return "ERROR_TYPE_TRANSPORT"
	default:
		return "ERROR_TYPE_UNKNOWN"
	}
}

// Code identifies the failure within its Type. It is logged next to the console
// line; the exit code comes from the Type alone.
type Code int

const (
	// CodeInternal represents an internal or unspecified error.
	CodeInternal Code = iota
	// CodeInvalidInput indicates invalid command input.
	CodeInvalidInput
	// CodeNotFound indicates a missing message file.
	CodeNotFound
	// CodeMissingArgument indicates a required argument was not given.
	CodeMissingArgument
	// CodeUnavailable indicates the broker could not be reached or refused the message.
	CodeUnavailable
)

// String returns the string representation of the error code.
func (c Code) String() string {
	switch c {
	case CodeInvalidInput:
		return "ERROR_CODE_INVALID_INPUT"
	case CodeNotFound:
		return "ERROR_CODE_NOT_FOUND"
	case CodeMissingArgument:
		return "ERROR_CODE_MISSING_ARGUMENT"
	case CodeUnavailable:
		return "ERROR_CODE_UNAVAILABLE"
	default:
		return "ERROR_CODE_INTERNAL"
	}
}

// Error is a structured error used across the application.
//
// It can wrap an underlying error while also carrying a console message,
// a high-level type, and a stable error code.
type Error struct {
	err     error
	msg     string
	errType Type
	code    Code
	fields  map[string]string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.msg != "" {
		return e.msg
	}

	if e.err != nil {
		return e.err.Error()
	}

	switch e.errType {
	case TypeConfig:
		return "Invalid configuration"
	case TypeUsage:
		return "Invalid usage"
	case TypeInput:
		return "Invalid input"
	default:
		return "Transport error"
	}
}

// String returns a verbose representation of the error for debugging/logging.
func (e *Error) String() string {
	return fmt.Sprintf(
		"Error Type: %s, Code: %s, Message: %s, Underlying Error: %v",
		e.errType.String(),
		e.code.String(),
		e.msg,
		e.err,
	)
}

// Type returns the high-level error type.
func (e *Error) Type() Type {
	return e.errType
}

// Code returns the stable error code.
func (e *Error) Code() Code {
	return e.code
}

// Fields returns validation errors (field to message map), if any.
func (e *Error) Fields() map[string]string {
	return e.fields
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.err
}

// ExitCode maps the error type to a process exit code.
func (e *Error) ExitCode() int {
	switch e.errType {
	case TypeConfig:
		return ExitConfig
	case TypeUsage:
		return ExitUsage
	case TypeInput:
		return ExitInput
	case TypeTransport:
		return ExitTransport
	default:
		return ExitTransport
	}
}

func new(err error, msg string, et Type, code Code) error {
	return &Error{err: err, msg: msg, errType: et, code: code}
}

// NewConfig creates a fatal configuration error wrapping err.
func NewConfig(err error) error {
	return new(err, "", TypeConfig, CodeInternal)
}

// NewUsage creates a usage error carrying the usage text as its message.
func NewUsage(usage string) error {
	return new(nil, usage, TypeUsage, CodeMissingArgument)
}

// NewNotFound creates an input error for a missing message.
func NewNotFound(msg string) error {
	return new(ErrNotFound, msg, TypeInput, CodeNotFound)
}

// NewInput creates an input error for a message that exists but cannot be read.
func NewInput(err error) error {
	return new(err, "", TypeInput, CodeInternal)
}

// NewInvalidInput creates a validation error.
//
// A field map (anything exposing Values() map[string]string) is kept as the
// error fields and its messages, sorted, become the console message.
func NewInvalidInput(err error) error {
	e := &Error{err: err, errType: TypeInput, code: CodeInvalidInput}

	var fe interface{ Values() map[string]string }
	if errors.As(err, &fe) {
		e.fields = fe.Values()
		msgs := lo.Values(e.fields)
		slices.Sort(msgs)
		e.msg = "Invalid input: " + strings.Join(msgs, "; ")
	}

	return e
}

// NewTransport creates a transport error wrapping the broker failure.
func NewTransport(err error) error {
	return new(err, "", TypeTransport, CodeUnavailable)
}

// As returns the *Error in err's chain, if any.
func As(err error) (*Error, bool) {
	var ge *Error
	if errors.As(err, &ge) {
		return ge, true
	}
	return nil, false
}

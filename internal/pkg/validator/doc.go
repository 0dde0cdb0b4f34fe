// Package validator provides a small validation abstraction for command input
// and dependency structs.
//
// Business code depends on the Validator interface; the concrete
// implementation wraps go-playground/validator v10 with English messages and
// the custom rules used by the sender.
package validator

// Validator validates a struct using its `validate` tags.
type Validator interface {
	Validate(data any) error
}

// Package apperrors holds the error taxonomy shared by every module.
package apperrors

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrPersistence  = errors.New("persistence failure")
	ErrAlertChannel = errors.New("alert channel failure")
	ErrTransport    = errors.New("no receiver")
)

// ValidationError reports a rejected command parameter. State is left unchanged.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid input: %s", e.Message)
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

func Invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// ChannelError wraps a failure of a single alert channel.
type ChannelError struct {
	Channel string
	Err     error
}

func (e *ChannelError) Error() string {
	return fmt.Sprintf("alert channel %s: %v", e.Channel, e.Err)
}

func (e *ChannelError) Unwrap() []error { return []error{ErrAlertChannel, e.Err} }

// Persistence wraps a storage failure for the named operation.
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
}

func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

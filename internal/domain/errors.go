package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a slug, link or folder does not exist, is inactive or
	// belongs to another owner.
	ErrNotFound = errors.New("not found")
	// ErrSlugExists is returned by storage when a unique slug constraint is violated.
	ErrSlugExists = errors.New("slug already exists")
	// ErrSlugExhausted is returned when no free slug was found within the retry bound.
	ErrSlugExhausted = errors.New("no free slug found")
)

// ValidationError описывает некорректные входные данные
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError создает ошибку валидации
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// LimitExceededError is returned when the owner's plan does not allow the operation.
type LimitExceededError struct {
	Limit string
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("plan limit reached: %s", e.Limit)
}

// ConfigurationError reports a stored shield config that cannot be used.
type ConfigurationError struct {
	LinkID int64
	Err    error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid shield config for link %d: %v", e.LinkID, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsLimitExceeded reports whether err is (or wraps) a LimitExceededError.
func IsLimitExceeded(err error) bool {
	var le *LimitExceededError
	return errors.As(err, &le)
}

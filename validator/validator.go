// Package validator provides input validation for the application
package validator

import (
	"errors"
	"fmt"
	"unicode"

	playground "github.com/go-playground/validator/v10"
)

var (
	// ErrInvalidLetter is returned when the letter parameter is invalid
	ErrInvalidLetter = errors.New("invalid letter: must be one or more alphabetic characters")
	// ErrEmptyString is returned when a string parameter is empty
	ErrEmptyString = errors.New("string cannot be empty")
	// ErrInvalidID is returned when an ID parameter is not positive
	ErrInvalidID = errors.New("invalid id: must be positive")
)

var validate = playground.New(playground.WithRequiredStructEnabled())

// Struct validates a struct against its `validate` tags.
func Struct(v any) error {
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	return nil
}

// IsValidationError reports whether err originates from a failed
// struct-tag validation (as opposed to infrastructure failures).
func IsValidationError(err error) bool {
	var verr playground.ValidationErrors
	return errors.As(err, &verr)
}

// ValidateLetter validates that a letter or string of letters contains only alphabetic characters
func ValidateLetter(letters string) error {
	if letters == "" {
		return ErrEmptyString
	}

	for _, r := range letters {
		if !unicode.IsLetter(r) {
			return fmt.Errorf("%w: got '%c'", ErrInvalidLetter, r)
		}
	}

	return nil
}

// ValidateNonEmpty validates that a string is not empty
func ValidateNonEmpty(s string) error {
	if s == "" {
		return ErrEmptyString
	}
	return nil
}

// ValidateID validates that an ID is positive
func ValidateID(id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidID, id)
	}
	return nil
}

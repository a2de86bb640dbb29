package validator

import (
	"errors"
	"testing"

	"github.com/htol/libman/catalog"
)

func TestValidateLetter(t *testing.T) {
	if err := ValidateLetter("A"); err != nil {
		t.Errorf("expected single letter to be valid, got %v", err)
	}
	if err := ValidateLetter("Ab"); err != nil {
		t.Errorf("expected letter sequence to be valid, got %v", err)
	}
	if err := ValidateLetter(""); !errors.Is(err, ErrEmptyString) {
		t.Errorf("expected ErrEmptyString, got %v", err)
	}
	if err := ValidateLetter("A1"); !errors.Is(err, ErrInvalidLetter) {
		t.Errorf("expected ErrInvalidLetter for digit, got %v", err)
	}
}

func TestValidateID(t *testing.T) {
	if err := ValidateID(1); err != nil {
		t.Errorf("expected positive id to be valid, got %v", err)
	}
	if err := ValidateID(0); !errors.Is(err, ErrInvalidID) {
		t.Errorf("expected ErrInvalidID for zero, got %v", err)
	}
	if err := ValidateID(-7); !errors.Is(err, ErrInvalidID) {
		t.Errorf("expected ErrInvalidID for negative, got %v", err)
	}
}

func TestStruct(t *testing.T) {
	ok := catalog.Reader{Name: "Alice Johnson", Email: "alice.johnson@example.com"}
	if err := Struct(&ok); err != nil {
		t.Errorf("expected valid reader to pass, got %v", err)
	}

	noEmail := catalog.Reader{Name: "No Email"}
	err := Struct(&noEmail)
	if err == nil || !IsValidationError(err) {
		t.Errorf("expected validation error for missing email, got %v", err)
	}

	badEmail := catalog.Reader{Name: "Bad", Email: "not-an-email"}
	err = Struct(&badEmail)
	if err == nil || !IsValidationError(err) {
		t.Errorf("expected validation error for malformed email, got %v", err)
	}

	noPublisher := catalog.Book{Title: "No Publisher"}
	err = Struct(&noPublisher)
	if err == nil || !IsValidationError(err) {
		t.Errorf("expected validation error for missing publisher id, got %v", err)
	}
}

// Package validate provides input validation helpers for catalog data
// and configuration values.
package validate

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// String validation errors
var (
	ErrEmpty          = errors.New("string is empty")
	ErrStringTooShort = errors.New("string is too short")
	ErrStringTooLong  = errors.New("string is too long")
)

// MaxEventNameLength matches the column width of the events table.
const MaxEventNameLength = 255

// StringConstraints defines validation constraints for a string.
type StringConstraints struct {
	MinLength  int  // minimum rune count (0 = no minimum)
	MaxLength  int  // maximum rune count (0 = no maximum)
	AllowEmpty bool // whether empty strings pass
	TrimSpace  bool // whether to trim whitespace before validation
}

// String validates a string against the given constraints and returns
// the validated (and optionally trimmed) value.
func String(s string, constraints StringConstraints) (string, error) {
	if constraints.TrimSpace {
		s = strings.TrimSpace(s)
	}

	if s == "" {
		if !constraints.AllowEmpty {
			return "", ErrEmpty
		}
		return s, nil
	}

	length := utf8.RuneCountInString(s)
	if constraints.MinLength > 0 && length < constraints.MinLength {
		return "", fmt.Errorf("%w: got %d chars, need at least %d", ErrStringTooShort, length, constraints.MinLength)
	}
	if constraints.MaxLength > 0 && length > constraints.MaxLength {
		return "", fmt.Errorf("%w: got %d chars, maximum is %d", ErrStringTooLong, length, constraints.MaxLength)
	}

	return s, nil
}

// EventName validates an event name: non-empty after trimming and
// within the storage column width.
func EventName(s string) (string, error) {
	return String(s, StringConstraints{
		MinLength: 1,
		MaxLength: MaxEventNameLength,
		TrimSpace: true,
	})
}

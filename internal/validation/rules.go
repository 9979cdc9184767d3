// Package validation holds input rules and the field messages shown to API clients.
package validation

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"
)

// Errors collects one message per field. The first failure for a field wins.
type Errors map[string]string

// Add records msg for field unless the field already failed.
func (e Errors) Add(field, msg string) {
	if _, ok := e[field]; !ok {
		e[field] = msg
	}
}

// Has reports whether field already failed.
func (e Errors) Has(field string) bool {
	_, ok := e[field]
	return ok
}

func label(field string) string {
	return strings.ReplaceAll(field, "_", " ")
}

// Required is the message for a missing or blank field.
func Required(field string) string {
	return fmt.Sprintf("The %s field is required.", label(field))
}

// MaxChars is the message for a string longer than max characters.
func MaxChars(field string, max int) string {
	return fmt.Sprintf("The %s field must not be greater than %d characters.", label(field), max)
}

// MinChars is the message for a string shorter than min characters.
func MinChars(field string, min int) string {
	return fmt.Sprintf("The %s field must be at least %d characters.", label(field), min)
}

// Boolean is the message for a field that must be true or false.
func Boolean(field string) string {
	return fmt.Sprintf("The %s field must be true or false.", label(field))
}

// Date is the message for an unparseable date.
func Date(field string) string {
	return fmt.Sprintf("The %s field must be a valid date.", label(field))
}

// String is the message for a value of the wrong JSON type.
func String(field string) string {
	return fmt.Sprintf("The %s field must be a string.", label(field))
}

// TooLong reports whether s has more than max characters (not bytes).
func TooLong(s string, max int) bool {
	return utf8.RuneCountInString(s) > max
}

const (
	maxEmailLen    = 254
	MinPasswordLen = 8
	// bcrypt ignores everything past 72 bytes.
	MaxPasswordBytes = 72
)

// ValidateEmail checks that email is a single bare address.
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email is required")
	}
	if len(email) > maxEmailLen {
		return fmt.Errorf("email must be at most %d characters", maxEmailLen)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndex(email, "@")+1:], ".") {
		return fmt.Errorf("email must be a valid email address")
	}
	return nil
}

// ValidatePassword enforces the length bounds bcrypt can honour.
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLen {
		return fmt.Errorf("password must be at least %d characters", MinPasswordLen)
	}
	if len(password) > MaxPasswordBytes {
		return fmt.Errorf("password must be at most %d bytes", MaxPasswordBytes)
	}
	return nil
}

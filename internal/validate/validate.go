// Package validate provides functions to validate login and callback input.
package validate

import (
	"errors"
	"strings"
)

// UsernameOK checks that the username is 1..50 visible characters.
func UsernameOK(u string) error {
	u = strings.TrimSpace(u)
	if u == "" || len(u) > 50 {
		return errors.New("username must be 1..50 characters")
	}
	return nil
}

// PasswordOK checks that a password was supplied.
func PasswordOK(p string) error {
	if p == "" {
		return errors.New("password required")
	}
	return nil
}

// MimeTypeImage checks that the declared type is an image subtype.
func MimeTypeImage(mt string) error {
	if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(mt)), "image/") {
		return errors.New("mimeType must be image/*")
	}
	return nil
}

// LimitOK clamps a caller-supplied page size into [1, max].
func LimitOK(limit, max int32) int32 {
	if limit < 1 {
		return 10
	}
	if limit > max {
		return max
	}
	return limit
}

// Package domain contains entity without logic, just meta-data
package domain

import (
	"errors"
)

const (
	MaxParticipantIDLen = 36
	MaxNameLen          = 36
)

var (
	ErrNameTooLong = errors.New("name too long")
	ErrNameEmpty   = errors.New("name empty")
)

// ValidateName checks a display name before it reaches any view.
func ValidateName(name string) error {
	if len(name) == 0 {
		return ErrNameEmpty
	}
	if len(name) > MaxNameLen {
		return ErrNameTooLong
	}
	return nil
}

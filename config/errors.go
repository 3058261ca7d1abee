package config

import (
	"errors"
	"strings"
)

// Errors for profile operations.
var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrInvalidAPIKey   = errors.New("invalid API key format")
	ErrInvalidConfig   = errors.New("invalid config file")
)

// ConfigError is returned for any problem with the config file. Path is always set.
type ConfigError struct {
	Path    string
	Message string
	Hint    string
	Err     error
}

func (e *ConfigError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if e.Hint != "" {
		b.WriteString("\n\n")
		b.WriteString(e.Hint)
	}
	b.WriteString("\n\nConfig file location: ")
	b.WriteString(e.Path)
	return b.String()
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

const resetHint = `Try deleting the file and running "telnyx auth setup" again.`

func newConfigError(path string, err error, msg, hint string) *ConfigError {
	return &ConfigError{
		Path:    path,
		Message: msg,
		Hint:    hint,
		Err:     err,
	}
}

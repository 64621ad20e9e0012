package services

import (
	"errors"
	"fmt"
)

// Fehlerklassen, auf die die HTTP-Schicht per errors.Is abbildet.
var (
	ErrValidation         = errors.New("validation failed")
	ErrNotFound           = errors.New("not found")
	ErrAlreadyPopulated   = errors.New("tools already populated for this trend")
	ErrNoDetailedTools    = errors.New("no detailed tools found in this trend")
	ErrInvalidModelOutput = errors.New("model output could not be parsed")
	ErrMissingCredentials = errors.New("Missing required environment variables")
)

// Error trägt eine für den Aufrufer lesbare Meldung und ihre Fehlerklasse.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// ConfigError meldet fehlende Credentials samt Presence-Map.
type ConfigError struct {
	Details map[string]bool
}

func (e *ConfigError) Error() string { return ErrMissingCredentials.Error() }

func (e *ConfigError) Unwrap() error { return ErrMissingCredentials }

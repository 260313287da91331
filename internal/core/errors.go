package core

import (
	"errors"

	"gtasync/pkg/domain"
)

// DecodeError reports a command payload that could not be decoded into the
// command's typed input.
type DecodeError struct {
	Command string
	Err     error
}

func (e *DecodeError) Error() string {
	return "command " + e.Command + ": decode payload: " + e.Err.Error()
}

// Unwrap returns the underlying decoding error.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// ErrorKind maps errors returned by the service to a stable logging label.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	var decodeErr *DecodeError
	switch {
	case errors.Is(err, domain.ErrInvalidAction):
		return "invalid_action"
	case errors.Is(err, domain.ErrUnknownCommand):
		return "unknown_command"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.As(err, &decodeErr):
		return "decode"
	}
	return "unexpected"
}

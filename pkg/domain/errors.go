package domain

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	// ErrInvalidAction is matched by every InvalidActionError.
	ErrInvalidAction = errors.New("domain: invalid action")
	// ErrUnknownCommand is returned when a command name is outside the vocabulary.
	ErrUnknownCommand = errors.New("domain: unknown command")
	// ErrNotFound is matched by every NotFoundError.
	ErrNotFound = errors.New("domain: not found")
)

// InvalidActionError reports an action tag the named command does not accept.
type InvalidActionError struct {
	Command string
	Action  string
}

func (e *InvalidActionError) Error() string {
	return fmt.Sprintf("command %s: action %q does not exist", e.Command, e.Action)
}

// Is reports whether target is ErrInvalidAction.
func (e *InvalidActionError) Is(target error) bool {
	return target == ErrInvalidAction
}

// NotFoundError is returned when a record lookup misses.
type NotFoundError struct {
	Entity EntityType
	ID     int64
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, strconv.FormatInt(e.ID, 10))
}

// Is reports whether target is ErrNotFound.
func (e NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

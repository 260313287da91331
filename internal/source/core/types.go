// Package core defines the contract of the element sources the store falls
// back to when a requested element is not held.
package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gtasync/pkg/domain"
)

// Driver identifies a concrete element source implementation.
type Driver string

const (
	// DriverMemory keeps elements in process; used by tests and demos.
	DriverMemory Driver = "memory"
	// DriverSQLite reads JSON payloads from a SQLite table.
	DriverSQLite Driver = "sqlite"
	// DriverPostgres reads JSONB payloads from a Postgres table.
	DriverPostgres Driver = "postgres"
	// DriverS3 reads one JSON object per element from an S3 bucket.
	DriverS3 Driver = "s3"
)

// Fetcher retrieves elements from their system of record.
type Fetcher interface {
	// FetchElement returns the element carrying id. A miss is reported as
	// domain.NotFoundError.
	FetchElement(ctx context.Context, id int64) (domain.Element, error)
	// Driver returns the backend identifier.
	Driver() Driver
	// Close releases the underlying connections.
	Close() error
}

// NotFound builds the error every driver returns for a missing element.
func NotFound(id int64) error {
	return domain.NotFoundError{Entity: domain.EntityElement, ID: id}
}

// ErrMalformed is wrapped around payloads that do not decode as an element.
var ErrMalformed = errors.New("source: malformed element payload")

// Malformed wraps a decoding failure for the element id.
func Malformed(id int64, err error) error {
	return fmt.Errorf("%w: element %d: %w", ErrMalformed, id, err)
}

// Decode parses a stored payload. A payload without an id takes the id it
// was stored under; a payload carrying another id is malformed.
func Decode(id int64, payload []byte) (domain.Element, error) {
	var e domain.Element
	if err := json.Unmarshal(payload, &e); err != nil {
		return domain.Element{}, Malformed(id, err)
	}
	if e.ID == 0 {
		e.ID = id
	}
	if e.ID != id {
		return domain.Element{}, Malformed(id, fmt.Errorf("payload carries id %d", e.ID))
	}
	return e, nil
}

// Package storage provides the key/value slots that hold per-visitor state.
//
// A Backend hands out one Storage per visitor, which mirrors how a browser gives
// every origin its own local storage area. Values are opaque strings; callers own
// serialization.
package storage

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Driver names accepted by Open.
const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverSQLite = "sqlite"
)

var (
	// ErrUnknownDriver is returned by Open for unsupported driver names.
	ErrUnknownDriver = errors.New("storage: unknown driver")
	// ErrInvalidVisitor is returned for visitor ids that cannot name a slot.
	ErrInvalidVisitor = errors.New("storage: invalid visitor id")
	// ErrInvalidKey is returned for empty keys.
	ErrInvalidKey = errors.New("storage: invalid key")
)

var visitorPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// Storage is a single visitor's key/value slot.
type Storage interface {
	// GetItem returns the value stored under key. ok is false when nothing is stored.
	GetItem(ctx context.Context, key string) (value string, ok bool, err error)
	// SetItem overwrites the value stored under key.
	SetItem(ctx context.Context, key, value string) error
	// RemoveItem deletes key. Removing a missing key is not an error.
	RemoveItem(ctx context.Context, key string) error
}

// Backend owns the slots of every visitor.
type Backend interface {
	Slot(visitorID string) (Storage, error)
	Close() error
}

// Open constructs a backend for driver. dsn is a directory for the file driver and a
// database path or DSN for the sqlite driver; the memory driver ignores it.
func Open(ctx context.Context, driver, dsn string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", DriverMemory:
		return NewMemory(), nil
	case DriverFile:
		return NewFile(dsn)
	case DriverSQLite:
		return NewSQLite(ctx, dsn)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}

func validateVisitor(visitorID string) error {
	if !visitorPattern.MatchString(visitorID) {
		return fmt.Errorf("%w: %q", ErrInvalidVisitor, visitorID)
	}
	return nil
}

func validateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	return nil
}

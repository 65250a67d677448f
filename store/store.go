// Package store persists account snapshots keyed by symbol. A failed save
// never leaves a partially written snapshot behind.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rustyeddy/papertrader/sim"
)

var (
	ErrNotFound    = errors.New("account snapshot not found")
	ErrPersistence = errors.New("persistence failure")
)

type Store interface {
	Load(ctx context.Context, symbol string) (sim.AccountState, error)
	Save(ctx context.Context, s sim.AccountState) error
	Delete(ctx context.Context, symbol string) error
	Close() error
}

// Open returns the store named by kind: "file" (a directory of JSON
// snapshots) or "sqlite".
func Open(kind, path string) (Store, error) {
	switch strings.ToLower(kind) {
	case "", "file", "json":
		s, err := NewFileStore(path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "sqlite", "sqlite3":
		s, err := NewSQLiteStore(path)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, fmt.Errorf("unknown store type %q", kind)
}

// LoadOrCreate loads the snapshot for symbol or returns a fresh account
// funded with initial when none exists yet.
func LoadOrCreate(ctx context.Context, st Store, symbol string, initial sim.AccountState) (sim.AccountState, bool, error) {
	s, err := st.Load(ctx, symbol)
	if errors.Is(err, ErrNotFound) {
		return initial, true, nil
	}
	if err != nil {
		return sim.AccountState{}, false, err
	}
	return s, false, nil
}

func persistErr(op, symbol string, err error) error {
	return fmt.Errorf("%w: %s %s: %w", ErrPersistence, op, symbol, err)
}

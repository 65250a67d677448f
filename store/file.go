package store

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rustyeddy/papertrader/sim"
)

// FileStore keeps one JSON file per symbol in a directory.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, persistErr("mkdir", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

// Path is the snapshot file for symbol.
func (f *FileStore) Path(symbol string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', ' ':
			return '_'
		}
		return r
	}, symbol)
	return filepath.Join(f.dir, name+".json")
}

func (f *FileStore) Load(ctx context.Context, symbol string) (sim.AccountState, error) {
	if err := ctx.Err(); err != nil {
		return sim.AccountState{}, err
	}
	b, err := os.ReadFile(f.Path(symbol))
	if errors.Is(err, fs.ErrNotExist) {
		return sim.AccountState{}, ErrNotFound
	}
	if err != nil {
		return sim.AccountState{}, persistErr("load", symbol, err)
	}

	var s sim.AccountState
	if err := json.Unmarshal(b, &s); err != nil {
		return sim.AccountState{}, persistErr("decode", symbol, err)
	}
	if s.History == nil {
		s.History = []sim.Trade{}
	}
	return s, nil
}

// Save writes to a temp file in the same directory, syncs it and renames
// it over the previous snapshot.
func (f *FileStore) Save(ctx context.Context, s sim.AccountState) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return persistErr("encode", s.Symbol, err)
	}

	path := f.Path(s.Symbol)
	tmp, err := os.CreateTemp(f.dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return persistErr("save", s.Symbol, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return persistErr("save", s.Symbol, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return persistErr("sync", s.Symbol, err)
	}
	if err := tmp.Close(); err != nil {
		return persistErr("save", s.Symbol, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return persistErr("rename", s.Symbol, err)
	}
	return nil
}

func (f *FileStore) Delete(ctx context.Context, symbol string) error {
	err := os.Remove(f.Path(symbol))
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return persistErr("delete", symbol, err)
}

func (f *FileStore) Close() error { return nil }

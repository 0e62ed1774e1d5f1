package datastore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

const (
	journalFile = "commit.journal"
	tmpSuffix   = ".tmp"
)

// FileStore keeps each collection in <dir>/<collection>.json.
//
// Put writes every document to a temp file first, then records the set of
// collections in a commit journal, then renames the temp files over the live
// ones. Once the journal exists the write is committed. If a rename fails,
// Get serves the journaled collections from their temp files until the roll
// forward completes, which the next Put or OpenFileStore retries. A
// multi-collection Put is never observed half applied.
type FileStore struct {
	mu  sync.RWMutex
	dir string
	// collections of a committed journal whose renames have not all landed
	pending map[string]bool
}

func OpenFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	store := &FileStore{dir: dir}
	if err := store.recover(); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) path(collection string) string {
	return filepath.Join(s.dir, collection+".json")
}

func (s *FileStore) Get(ctx context.Context, collection string, target any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := s.read(collection)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("reading %s: %w", collection, err)
	}

	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("decoding %s: %w", collection, err)
	}
	return nil
}

// read returns the committed bytes of a collection. Callers hold s.mu.
func (s *FileStore) read(collection string) ([]byte, error) {
	if s.pending[collection] {
		data, err := os.ReadFile(s.path(collection) + tmpSuffix)
		if !errors.Is(err, os.ErrNotExist) {
			return data, err
		}
	}
	return os.ReadFile(s.path(collection))
}

func (s *FileStore) Put(ctx context.Context, docs ...Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(docs) == 0 {
		return nil
	}

	encoded, err := encodeDocuments(docs, true)
	if err != nil {
		return err
	}

	collections := make([]string, 0, len(encoded))
	for collection := range encoded {
		collections = append(collections, collection)
	}
	sort.Strings(collections)

	s.mu.Lock()
	defer s.mu.Unlock()

	// finish an earlier commit whose renames failed before starting a new one
	if err := s.recover(); err != nil {
		return err
	}

	for _, collection := range collections {
		if err := writeFileSync(s.path(collection)+tmpSuffix, encoded[collection]); err != nil {
			s.removeTemps(collections)
			return fmt.Errorf("writing %s: %w", collection, err)
		}
	}

	journal, err := json.Marshal(collections)
	if err != nil {
		s.removeTemps(collections)
		return err
	}
	journalPath := filepath.Join(s.dir, journalFile)
	if err := writeFileSync(journalPath+tmpSuffix, journal); err != nil {
		s.removeTemps(collections)
		return fmt.Errorf("writing commit journal: %w", err)
	}
	if err := os.Rename(journalPath+tmpSuffix, journalPath); err != nil {
		_ = os.Remove(journalPath + tmpSuffix)
		s.removeTemps(collections)
		return fmt.Errorf("committing journal: %w", err)
	}

	// committed: a failed rename is retried by the next Put or open
	if err := s.apply(collections); err != nil {
		s.markPending(collections)
		return nil
	}

	syncDir(s.dir)
	if err := os.Remove(journalPath); err != nil {
		s.markPending(collections)
	}
	return nil
}

func (s *FileStore) markPending(collections []string) {
	s.pending = make(map[string]bool, len(collections))
	for _, collection := range collections {
		s.pending[collection] = true
	}
}

func (s *FileStore) apply(collections []string) error {
	for _, collection := range collections {
		tmp := s.path(collection) + tmpSuffix
		if err := os.Rename(tmp, s.path(collection)); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("replacing %s: %w", collection, err)
		}
	}
	return nil
}

func (s *FileStore) recover() error {
	journalPath := filepath.Join(s.dir, journalFile)

	data, err := os.ReadFile(journalPath)
	if err == nil {
		var collections []string
		if err := json.Unmarshal(data, &collections); err != nil {
			return fmt.Errorf("decoding commit journal: %w", err)
		}
		s.markPending(collections)
		if err := s.apply(collections); err != nil {
			return err
		}
		syncDir(s.dir)
		if err := os.Remove(journalPath); err != nil {
			return err
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("reading commit journal: %w", err)
	}

	s.pending = nil

	// temp files without a journal belong to a Put that never committed
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), tmpSuffix) {
			_ = os.Remove(filepath.Join(s.dir, entry.Name()))
		}
	}
	return nil
}

func (s *FileStore) removeTemps(collections []string) {
	for _, collection := range collections {
		_ = os.Remove(s.path(collection) + tmpSuffix)
	}
}

func writeFileSync(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}

package datastore

import (
	"context"
	"encoding/json"
	"sync"
)

// MemoryStore keeps encoded documents in memory. Values are copied through
// JSON on the way in and out, so callers never share state with the store.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string][]byte

	// FailPut, when set, is returned by Put before anything is written.
	FailPut error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: map[string][]byte{}}
}

func (s *MemoryStore) Get(ctx context.Context, collection string, target any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	data, ok := s.docs[collection]
	s.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}

	return json.Unmarshal(data, target)
}

func (s *MemoryStore) Put(ctx context.Context, docs ...Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	encoded, err := encodeDocuments(docs, false)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailPut != nil {
		return s.FailPut
	}

	for collection, data := range encoded {
		s.docs[collection] = data
	}
	return nil
}

func encodeDocuments(docs []Document, indent bool) (map[string][]byte, error) {
	encoded := make(map[string][]byte, len(docs))
	for _, doc := range docs {
		var (
			data []byte
			err  error
		)
		if indent {
			data, err = json.MarshalIndent(doc.Value, "", "  ")
		} else {
			data, err = json.Marshal(doc.Value)
		}
		if err != nil {
			return nil, err
		}
		encoded[doc.Collection] = data
	}
	return encoded, nil
}

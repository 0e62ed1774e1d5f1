package datastore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

func dbKeyDocument(collection string) string {
	return fmt.Sprintf("document:%s", collection)
}

// RedisStore keeps one string key per collection and writes them in a MULTI/EXEC block.
type RedisStore struct {
	client redis.UniversalClient
}

func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client}
}

func (s *RedisStore) Get(ctx context.Context, collection string, target any) error {
	data, err := s.client.Get(ctx, dbKeyDocument(collection)).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	return json.Unmarshal(data, target)
}

func (s *RedisStore) Put(ctx context.Context, docs ...Document) error {
	encoded, err := encodeDocuments(docs, false)
	if err != nil {
		return err
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for collection, data := range encoded {
			pipe.Set(ctx, dbKeyDocument(collection), data, 0)
		}
		return nil
	})
	return err
}

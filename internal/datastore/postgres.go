package datastore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"ecoverse/internal/models"

	"github.com/uptrace/bun"
)

func CreateTableDocument(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.Document)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.Document)(nil)).Index("index_document_updated_at").IfNotExists().Column("updated_at").Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

// PostgresStore keeps one jsonb row per collection.
type PostgresStore struct {
	db *bun.DB
}

func NewPostgresStore(db *bun.DB) *PostgresStore {
	return &PostgresStore{db}
}

func (s *PostgresStore) Get(ctx context.Context, collection string, target any) error {
	var doc models.Document
	err := s.db.NewSelect().Model(&doc).Where("collection = ?", collection).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	return json.Unmarshal([]byte(doc.Body), target)
}

func (s *PostgresStore) Put(ctx context.Context, docs ...Document) error {
	encoded, err := encodeDocuments(docs, false)
	if err != nil {
		return err
	}

	now := time.Now()
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for collection, data := range encoded {
			doc := &models.Document{
				Collection: collection,
				Body:       string(data),
				UpdatedAt:  now,
			}
			_, err := tx.NewInsert().Model(doc).
				On("CONFLICT (collection) DO UPDATE").
				Set("body = EXCLUDED.body").
				Set("updated_at = EXCLUDED.updated_at").
				Exec(ctx)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

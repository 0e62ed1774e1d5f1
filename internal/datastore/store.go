package datastore

import (
	"context"
	"errors"
)

const (
	CollectionUsers         = "users"
	CollectionTransactions  = "transactions"
	CollectionCarbonRecords = "carbon_records"
	CollectionRewards       = "rewards"
	CollectionBadges        = "badges"
)

var Collections = []string{
	CollectionUsers,
	CollectionTransactions,
	CollectionCarbonRecords,
	CollectionRewards,
	CollectionBadges,
}

var ErrNotFound = errors.New("document not found")

// Document is a whole collection to be written by Store.Put.
type Document struct {
	Collection string
	Value      any
}

// Store persists whole collections as JSON documents.
//
// Get decodes the named collection into target and returns ErrNotFound when
// the collection has never been written. Put replaces every given collection
// in one all-or-nothing step: a reader observes either all of the new
// documents or none of them.
type Store interface {
	Get(ctx context.Context, collection string, target any) error
	Put(ctx context.Context, docs ...Document) error
}

package datastore

import (
	"context"
	"errors"

	"ecoverse/internal/models"
)

func GetUsers(ctx context.Context, store Store) (map[string]*models.User, error) {
	users := map[string]*models.User{}
	if err := get(ctx, store, CollectionUsers, &users); err != nil {
		return nil, err
	}
	if users == nil {
		users = map[string]*models.User{}
	}
	// ids live both as map keys and in the record; the key wins
	for id, user := range users {
		if user == nil {
			delete(users, id)
			continue
		}
		user.ID = id
	}
	return users, nil
}

func GetTransactions(ctx context.Context, store Store) ([]*models.Transaction, error) {
	var transactions []*models.Transaction
	if err := get(ctx, store, CollectionTransactions, &transactions); err != nil {
		return nil, err
	}
	return transactions, nil
}

func GetCarbonRecords(ctx context.Context, store Store) ([]*models.CarbonRecord, error) {
	var records []*models.CarbonRecord
	if err := get(ctx, store, CollectionCarbonRecords, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func GetRewards(ctx context.Context, store Store) ([]*models.Reward, error) {
	var rewards []*models.Reward
	if err := get(ctx, store, CollectionRewards, &rewards); err != nil {
		return nil, err
	}
	return rewards, nil
}

func GetBadges(ctx context.Context, store Store) (models.Badges, error) {
	badges := models.Badges{}
	if err := get(ctx, store, CollectionBadges, &badges); err != nil {
		return nil, err
	}
	if badges == nil {
		badges = models.Badges{}
	}
	return badges, nil
}

func get(ctx context.Context, store Store, collection string, target any) error {
	err := store.Get(ctx, collection, target)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}

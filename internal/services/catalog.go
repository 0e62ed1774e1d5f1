package services

import (
	"context"
	"fmt"
	"strings"

	"ecoverse/internal/datastore"
	"ecoverse/internal/models"
	"ecoverse/internal/pkg/caching"

	"github.com/samber/do"
)

var DefaultRewards = []*models.Reward{
	{ID: "water-bottle", Name: "Reusable Water Bottle", Type: "merchandise", PointsRequired: 100, Approved: true, Description: "Steel bottle from the campus store"},
	{ID: "tote-bag", Name: "Eco Tote Bag", Type: "merchandise", PointsRequired: 150, Approved: true},
	{ID: "meal-voucher", Name: "Cafeteria Meal Voucher", Type: "voucher", PointsRequired: 200, Approved: false},
	{ID: "tree-certificate", Name: "Plant a Tree Certificate", Type: "donation", PointsRequired: 300, Approved: false, Description: "A tree planted in your name"},
}

type ServiceCatalog struct {
	container *do.Injector
	store     datastore.Store
	ledger    *ServiceLedger
	cache     caching.Cache
}

func NewServiceCatalog(container *do.Injector) (*ServiceCatalog, error) {
	store, err := do.Invoke[datastore.Store](container)
	if err != nil {
		return nil, err
	}

	ledger, err := do.Invoke[*ServiceLedger](container)
	if err != nil {
		return nil, err
	}

	cache, err := do.Invoke[caching.Cache](container)
	if err != nil {
		return nil, err
	}

	return &ServiceCatalog{container, store, ledger, cache}, nil
}

func (service *ServiceCatalog) List(ctx context.Context) ([]*models.Reward, error) {
	callback := func() ([]*models.Reward, error) {
		rewards, err := datastore.GetRewards(ctx, service.store)
		if err != nil {
			return nil, persistenceError(err)
		}
		if rewards == nil {
			rewards = []*models.Reward{}
		}
		return rewards, nil
	}

	return caching.UseCache(ctx, service.cache, DBKeyRewards(), CACHE_TTL_5_MINS, callback)
}

func (service *ServiceCatalog) Get(ctx context.Context, id string) (*models.Reward, error) {
	rewards, err := service.List(ctx)
	if err != nil {
		return nil, err
	}

	for _, reward := range rewards {
		if reward.ID == id {
			return reward, nil
		}
	}
	return nil, fmt.Errorf("%w: reward %s", ErrRecordNotFound, id)
}

// Upsert adds the reward or replaces the entry with the same id. Redemptions
// already requested keep the price they captured.
func (service *ServiceCatalog) Upsert(ctx context.Context, admin models.Identity, reward models.Reward) (*models.Reward, error) {
	if !admin.IsAdmin() {
		return nil, ErrForbidden
	}

	reward.ID = strings.TrimSpace(reward.ID)
	reward.Name = strings.TrimSpace(reward.Name)
	if reward.ID == "" || reward.Name == "" {
		return nil, fmt.Errorf("%w: reward id and name are required", ErrInvalidInput)
	}
	if reward.PointsRequired <= 0 {
		return nil, fmt.Errorf("%w: points_required must be positive", ErrInvalidInput)
	}

	err := service.ledger.Update(ctx, func(tx *LedgerTx) error {
		rewards, err := tx.Rewards()
		if err != nil {
			return err
		}

		next := make([]*models.Reward, 0, len(rewards)+1)
		replaced := false
		for _, existing := range rewards {
			if existing.ID == reward.ID {
				next = append(next, &reward)
				replaced = true
				continue
			}
			next = append(next, existing)
		}
		if !replaced {
			next = append(next, &reward)
		}

		tx.SetRewards(next)
		return nil
	})
	if err != nil {
		return nil, err
	}

	service.Invalidate(ctx)
	return &reward, nil
}

func (service *ServiceCatalog) Delete(ctx context.Context, admin models.Identity, id string) error {
	if !admin.IsAdmin() {
		return ErrForbidden
	}

	err := service.ledger.Update(ctx, func(tx *LedgerTx) error {
		rewards, err := tx.Rewards()
		if err != nil {
			return err
		}

		next := make([]*models.Reward, 0, len(rewards))
		for _, existing := range rewards {
			if existing.ID != id {
				next = append(next, existing)
			}
		}
		if len(next) == len(rewards) {
			return fmt.Errorf("%w: reward %s", ErrRecordNotFound, id)
		}

		tx.SetRewards(next)
		return nil
	})
	if err != nil {
		return err
	}

	service.Invalidate(ctx)
	return nil
}

// Seed writes DefaultRewards when the catalog is empty and reports how many it wrote.
func (service *ServiceCatalog) Seed(ctx context.Context) (int, error) {
	written := 0
	err := service.ledger.Update(ctx, func(tx *LedgerTx) error {
		rewards, err := tx.Rewards()
		if err != nil {
			return err
		}
		if len(rewards) > 0 {
			return nil
		}

		seeded := make([]*models.Reward, 0, len(DefaultRewards))
		for _, reward := range DefaultRewards {
			r := *reward
			seeded = append(seeded, &r)
		}
		tx.SetRewards(seeded)
		written = len(seeded)
		return nil
	})
	if err != nil {
		return 0, err
	}

	service.Invalidate(ctx)
	return written, nil
}

// Invalidate drops the cached catalog.
func (service *ServiceCatalog) Invalidate(ctx context.Context) {
	//nolint:errcheck
	service.cache.Delete(ctx, DBKeyRewards())
}

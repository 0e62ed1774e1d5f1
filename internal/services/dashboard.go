package services

import (
	"context"

	"ecoverse/internal/datastore"
	"ecoverse/internal/models"

	"github.com/samber/do"
	"golang.org/x/sync/errgroup"
)

type ServiceDashboard struct {
	container *do.Injector
	store     datastore.Store
	ledger    *ServiceLedger
	badge     *ServiceBadge
}

func NewServiceDashboard(container *do.Injector) (*ServiceDashboard, error) {
	store, err := do.Invoke[datastore.Store](container)
	if err != nil {
		return nil, err
	}

	ledger, err := do.Invoke[*ServiceLedger](container)
	if err != nil {
		return nil, err
	}

	badge, err := do.Invoke[*ServiceBadge](container)
	if err != nil {
		return nil, err
	}

	return &ServiceDashboard{container, store, ledger, badge}, nil
}

func (service *ServiceDashboard) Metrics(ctx context.Context, admin models.Identity) (*models.Metrics, error) {
	if !admin.IsAdmin() {
		return nil, ErrForbidden
	}

	var (
		users        map[string]*models.User
		transactions []*models.Transaction
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		users, err = datastore.GetUsers(gctx, service.store)
		return err
	})
	g.Go(func() error {
		var err error
		transactions, err = datastore.GetTransactions(gctx, service.store)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, persistenceError(err)
	}

	metrics := &models.Metrics{
		TotalUsers:        len(users),
		TotalTransactions: len(transactions),
	}
	for _, user := range users {
		metrics.TotalPoints += user.Points
	}
	for _, t := range transactions {
		if t.IsPendingRedemption() {
			metrics.PendingRedemptions++
		}
	}
	return metrics, nil
}

// Summary is the signed-in user's view: balance, streak and badges. It
// creates the user on first visit.
func (service *ServiceDashboard) Summary(ctx context.Context, identity models.Identity, name string) (*models.UserSummary, error) {
	user, err := service.ledger.EnsureUser(ctx, identity.UserID, name)
	if err != nil {
		return nil, err
	}

	badges, err := service.badge.GetBadges(ctx, identity.UserID)
	if err != nil {
		return nil, err
	}

	streak, err := service.badge.GetStreak(ctx, identity.UserID)
	if err != nil {
		return nil, err
	}

	if badges == nil {
		badges = []string{}
	}
	return &models.UserSummary{User: *user, Balance: user.Points, Streak: streak, Badges: badges}, nil
}

package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"ecoverse/internal/datastore"
	"ecoverse/internal/interfaces"
	"ecoverse/internal/models"
	"ecoverse/internal/pkg/logging"

	"github.com/rs/zerolog"
	"github.com/samber/do"
)

// Clock is the time source for timestamps and calendar days.
type Clock func() time.Time

func invokeClock(container *do.Injector) Clock {
	clock, err := do.Invoke[Clock](container)
	if err != nil || clock == nil {
		return time.Now
	}
	return clock
}

// ServiceLedger is the only component that changes point balances. Every
// mutation runs under the ledger lock as load, mutate in memory, persist.
type ServiceLedger struct {
	container *do.Injector
	store     datastore.Store
	locker    interfaces.Locker
	clock     Clock
	log       zerolog.Logger
}

func NewServiceLedger(container *do.Injector) (*ServiceLedger, error) {
	store, err := do.Invoke[datastore.Store](container)
	if err != nil {
		return nil, err
	}

	locker, err := do.Invoke[interfaces.Locker](container)
	if err != nil {
		return nil, err
	}

	return &ServiceLedger{container, store, locker, invokeClock(container), logging.Component("ledger")}, nil
}

// Update runs fn against a fresh working copy of the ledger and persists every
// collection fn touched in one Store.Put. If fn or the refresh of derived
// badge state fails, nothing is written.
func (service *ServiceLedger) Update(ctx context.Context, fn func(tx *LedgerTx) error) error {
	unlock, err := service.locker.Lock(ctx, LockKeyLedger())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLedgerLock, err)
	}
	defer unlock()

	tx, err := newLedgerTx(ctx, service.store, service.clock())
	if err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		return err
	}

	for _, userID := range tx.touchedUsers() {
		if err := refreshBadges(tx, userID); err != nil {
			return err
		}
	}

	docs := tx.documents()
	if len(docs) == 0 {
		return nil
	}

	if err := service.store.Put(ctx, docs...); err != nil {
		service.log.Error().Err(err).Int("documents", len(docs)).Msg("ledger commit failed")
		return persistenceError(err)
	}

	for _, t := range tx.appended {
		service.log.Info().
			Str("user", t.User).
			Str("kind", string(t.Kind)).
			Int("delta", t.PointsDelta).
			Str("status", string(t.Status)).
			Str("transaction", t.ID).
			Msg("ledger entry committed")
	}

	return nil
}

func (service *ServiceLedger) Credit(ctx context.Context, userID string, amount int, entry models.Transaction) (*models.Transaction, error) {
	var result *models.Transaction
	err := service.Update(ctx, func(tx *LedgerTx) error {
		t, err := tx.Credit(userID, amount, entry)
		result = t
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (service *ServiceLedger) Debit(ctx context.Context, userID string, amount int, entry models.Transaction) (*models.Transaction, error) {
	var result *models.Transaction
	err := service.Update(ctx, func(tx *LedgerTx) error {
		t, err := tx.Debit(userID, amount, entry)
		result = t
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Refund credits amount back to the user as a reversal of the transaction ofID.
func (service *ServiceLedger) Refund(ctx context.Context, userID string, amount int, ofID string) (*models.Transaction, error) {
	var result *models.Transaction
	err := service.Update(ctx, func(tx *LedgerTx) error {
		of, err := tx.Transaction(ofID)
		if err != nil {
			return err
		}
		t, err := tx.Refund(userID, amount, of)
		result = t
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// EnsureUser creates the user on first reference, or updates its display name.
func (service *ServiceLedger) EnsureUser(ctx context.Context, userID string, name string) (*models.User, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: empty user id", ErrInvalidInput)
	}

	var result models.User
	err := service.Update(ctx, func(tx *LedgerTx) error {
		_, existed := tx.LookupUser(userID)
		user := tx.User(userID)
		if name != "" && (user.Name != name || !existed) {
			user.Name = name
			tx.dirty[datastore.CollectionUsers] = true
		}
		result = *user
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (service *ServiceLedger) GetUser(ctx context.Context, userID string) (*models.User, error) {
	users, err := datastore.GetUsers(ctx, service.store)
	if err != nil {
		return nil, persistenceError(err)
	}

	user, ok := users[userID]
	if !ok {
		return nil, fmt.Errorf("%w: user %s", ErrRecordNotFound, userID)
	}
	return user, nil
}

// GetBalance returns the user's points. Users that were never referenced have 0.
func (service *ServiceLedger) GetBalance(ctx context.Context, userID string) (int, error) {
	users, err := datastore.GetUsers(ctx, service.store)
	if err != nil {
		return 0, persistenceError(err)
	}

	if user, ok := users[userID]; ok {
		return user.Points, nil
	}
	return 0, nil
}

func (service *ServiceLedger) Users(ctx context.Context) ([]*models.User, error) {
	users, err := datastore.GetUsers(ctx, service.store)
	if err != nil {
		return nil, persistenceError(err)
	}

	list := make([]*models.User, 0, len(users))
	for _, user := range users {
		list = append(list, user)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Points != list[j].Points {
			return list[i].Points > list[j].Points
		}
		return list[i].ID < list[j].ID
	})
	return list, nil
}

// Transactions returns the user's transactions in append order.
func (service *ServiceLedger) Transactions(ctx context.Context, userID string) ([]*models.Transaction, error) {
	transactions, err := datastore.GetTransactions(ctx, service.store)
	if err != nil {
		return nil, persistenceError(err)
	}

	var result []*models.Transaction
	for _, t := range transactions {
		if t.User == userID {
			result = append(result, t)
		}
	}
	return result, nil
}

// AuditLog returns up to limit transactions, newest first.
func (service *ServiceLedger) AuditLog(ctx context.Context, limit int) ([]*models.Transaction, error) {
	transactions, err := datastore.GetTransactions(ctx, service.store)
	if err != nil {
		return nil, persistenceError(err)
	}

	if limit <= 0 {
		limit = AUDIT_LOG_DEFAULT_LIMIT
	}

	result := make([]*models.Transaction, 0, min(limit, len(transactions)))
	for i := len(transactions) - 1; i >= 0 && len(result) < limit; i-- {
		result = append(result, transactions[i])
	}
	return result, nil
}

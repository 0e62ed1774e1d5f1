package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"ecoverse/internal/datastore"
	"ecoverse/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerCreditDebit(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	ledger := invoke[*ServiceLedger](t, env)

	credited, err := ledger.Credit(ctx, "alice", 40, models.Transaction{Kind: models.KindWasteClassification})
	require.NoError(t, err)
	assert.Equal(t, 40, credited.PointsDelta)
	assert.Equal(t, models.StatusApproved, credited.Status)
	assert.NotEmpty(t, credited.ID)
	assert.Equal(t, "alice", credited.User)

	debited, err := ledger.Debit(ctx, "alice", 15, models.Transaction{Kind: models.KindRewardRedemption})
	require.NoError(t, err)
	assert.Equal(t, -15, debited.PointsDelta)

	balance, err := ledger.GetBalance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 25, balance)

	transactions, err := ledger.Transactions(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, transactions, 2)
	assert.Equal(t, credited.ID, transactions[0].ID)
	assert.Equal(t, debited.ID, transactions[1].ID)

	env.requireConserved(t)
}

func TestLedgerRejectsOverdraft(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	ledger := invoke[*ServiceLedger](t, env)

	env.credit(t, "alice", 10)

	_, err := ledger.Debit(ctx, "alice", 11, models.Transaction{Kind: models.KindRewardRedemption})
	assert.ErrorIs(t, err, ErrInsufficientPoints)

	balance, err := ledger.GetBalance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 10, balance)

	transactions, err := ledger.Transactions(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, transactions, 1)
}

func TestLedgerRejectsNegativeAmounts(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	ledger := invoke[*ServiceLedger](t, env)

	_, err := ledger.Credit(ctx, "alice", -1, models.Transaction{})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = ledger.Debit(ctx, "alice", -1, models.Transaction{})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestLedgerUnknownUser(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	ledger := invoke[*ServiceLedger](t, env)

	balance, err := ledger.GetBalance(ctx, "nobody")
	require.NoError(t, err)
	assert.Equal(t, 0, balance)

	_, err = ledger.GetUser(ctx, "nobody")
	assert.ErrorIs(t, err, ErrRecordNotFound)

	users, err := ledger.Users(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)

	// a failed debit leaves no user behind
	_, err = ledger.Debit(ctx, "nobody", 10, models.Transaction{Kind: models.KindRewardRedemption})
	assert.ErrorIs(t, err, ErrInsufficientPoints)
	_, err = ledger.GetUser(ctx, "nobody")
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestLedgerEnsureUser(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	ledger := invoke[*ServiceLedger](t, env)

	user, err := ledger.EnsureUser(ctx, "alice", "Alice Nguyen")
	require.NoError(t, err)
	assert.Equal(t, "Alice Nguyen", user.Name)
	assert.Equal(t, 0, user.Points)

	env.credit(t, "alice", 5)

	user, err = ledger.EnsureUser(ctx, "alice", "")
	require.NoError(t, err)
	assert.Equal(t, "Alice Nguyen", user.Name)
	assert.Equal(t, 5, user.Points)

	_, err = ledger.EnsureUser(ctx, "", "x")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestLedgerTimestampsNeverGoBackwards(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	ledger := invoke[*ServiceLedger](t, env)

	first := env.clock.Now()
	env.credit(t, "alice", 1)

	env.clock.Set(first.Add(-time.Hour))
	env.credit(t, "alice", 1)
	env.credit(t, "bob", 1)

	transactions, err := ledger.Transactions(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, transactions, 2)
	assert.False(t, transactions[1].Timestamp.Before(transactions[0].Timestamp))

	// other users keep the clock's time
	bobs, err := ledger.Transactions(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, bobs, 1)
	assert.True(t, bobs[0].Timestamp.Equal(first.Add(-time.Hour)))
}

func TestLedgerUpdateIsAllOrNothing(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	ledger := invoke[*ServiceLedger](t, env)

	env.credit(t, "alice", 30)

	boom := errors.New("boom")
	err := ledger.Update(ctx, func(tx *LedgerTx) error {
		if _, err := tx.Credit("alice", 100, models.Transaction{Kind: models.KindWasteClassification}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	env.store.FailPut = errors.New("disk full")
	_, err = ledger.Credit(ctx, "alice", 100, models.Transaction{Kind: models.KindWasteClassification})
	assert.ErrorIs(t, err, ErrPersistenceFailure)
	env.store.FailPut = nil

	balance, err := ledger.GetBalance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 30, balance)

	transactions, err := ledger.Transactions(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, transactions, 1)
	env.requireConserved(t)
}

func TestLedgerConcurrentCredits(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	ledger := invoke[*ServiceLedger](t, env)

	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ledger.Credit(ctx, "alice", 2, models.Transaction{Kind: models.KindWasteClassification})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	balance, err := ledger.GetBalance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 50, balance)
	env.requireConserved(t)
}

func TestLedgerAuditLog(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	ledger := invoke[*ServiceLedger](t, env)

	for i := 1; i <= 5; i++ {
		env.credit(t, "alice", i)
	}

	latest, err := ledger.AuditLog(ctx, 2)
	require.NoError(t, err)
	require.Len(t, latest, 2)
	assert.Equal(t, 5, latest[0].PointsDelta)
	assert.Equal(t, 4, latest[1].PointsDelta)

	all, err := ledger.AuditLog(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestLedgerUsersSortedByPoints(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	env.credit(t, "carol", 10)
	env.credit(t, "alice", 30)
	env.credit(t, "bob", 10)

	users, err := invoke[*ServiceLedger](t, env).Users(ctx)
	require.NoError(t, err)
	require.Len(t, users, 3)
	assert.Equal(t, "alice", users[0].ID)
	assert.Equal(t, "bob", users[1].ID)
	assert.Equal(t, "carol", users[2].ID)
}

func TestLedgerPersistsOnlyTouchedCollections(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	env.credit(t, "alice", 1)

	var rewards []*models.Reward
	err := env.store.Get(ctx, datastore.CollectionRewards, &rewards)
	assert.ErrorIs(t, err, datastore.ErrNotFound)
}

package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"ecoverse/internal/interfaces"
	"ecoverse/internal/models"

	"github.com/samber/do"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedeemAutoApprovedReward(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	env.seedRewards(t)
	env.credit(t, "alice", 120)

	serviceRedemption := invoke[*ServiceRedemption](t, env)
	transaction, err := serviceRedemption.RequestRedemption(ctx, alice, "water-bottle")
	require.NoError(t, err)

	assert.Equal(t, models.KindRewardRedemption, transaction.Kind)
	assert.Equal(t, models.StatusApproved, transaction.Status)
	assert.Equal(t, -100, transaction.PointsDelta)
	assert.Equal(t, "water-bottle", transaction.Metadata.RewardID)
	assert.Equal(t, 100, transaction.Metadata.PointsSpent)

	pending, err := serviceRedemption.ListPending(ctx, admin)
	require.NoError(t, err)
	assert.Empty(t, pending)

	balance, err := invoke[*ServiceLedger](t, env).GetBalance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 20, balance)
	env.requireConserved(t)
}

func TestRedeemInsufficientPoints(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	env.seedRewards(t)
	env.credit(t, "alice", 99)

	_, err := invoke[*ServiceRedemption](t, env).RequestRedemption(ctx, alice, "water-bottle")
	assert.ErrorIs(t, err, ErrInsufficientPoints)

	transactions, err := invoke[*ServiceLedger](t, env).Transactions(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, transactions, 1)
}

func TestRedeemUnknownReward(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seedRewards(t)
	env.credit(t, "alice", 500)

	_, err := invoke[*ServiceRedemption](t, env).RequestRedemption(context.Background(), alice, "spaceship")
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestRedeemPendingThenReject(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	env.seedRewards(t)
	env.credit(t, "alice", 250)

	serviceRedemption := invoke[*ServiceRedemption](t, env)
	ledger := invoke[*ServiceLedger](t, env)

	transaction, err := serviceRedemption.RequestRedemption(ctx, alice, "meal-voucher")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, transaction.Status)

	balance, err := ledger.GetBalance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 50, balance)

	pending, err := serviceRedemption.ListPending(ctx, admin)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, transaction.ID, pending[0].ID)

	rejected, err := serviceRedemption.RejectRedemption(ctx, admin, transaction.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, rejected.Status)

	balance, err = ledger.GetBalance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 250, balance)

	transactions, err := ledger.Transactions(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, transactions, 3)
	refund := transactions[2]
	assert.True(t, refund.IsRefund())
	assert.Equal(t, transaction.ID, refund.Metadata.RefundOf)
	assert.Equal(t, 200, refund.PointsDelta)

	// a replayed reject must not refund twice
	_, err = serviceRedemption.RejectRedemption(ctx, admin, transaction.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = serviceRedemption.ApproveRedemption(ctx, admin, transaction.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	balance, err = ledger.GetBalance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 250, balance)
	env.requireConserved(t)
}

func TestApproveRedemption(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	env.seedRewards(t)
	env.credit(t, "alice", 300)

	serviceRedemption := invoke[*ServiceRedemption](t, env)
	transaction, err := serviceRedemption.RequestRedemption(ctx, alice, "tree-certificate")
	require.NoError(t, err)

	approved, err := serviceRedemption.ApproveRedemption(ctx, admin, transaction.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, approved.Status)
	assert.Equal(t, -300, approved.PointsDelta)

	_, err = serviceRedemption.RejectRedemption(ctx, admin, transaction.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	balance, err := invoke[*ServiceLedger](t, env).GetBalance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 0, balance)
	env.requireConserved(t)
}

func TestTransitionRequiresAdmin(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	env.seedRewards(t)
	env.credit(t, "alice", 300)

	serviceRedemption := invoke[*ServiceRedemption](t, env)
	transaction, err := serviceRedemption.RequestRedemption(ctx, alice, "meal-voucher")
	require.NoError(t, err)

	_, err = serviceRedemption.ApproveRedemption(ctx, alice, transaction.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = serviceRedemption.RejectRedemption(ctx, bob, transaction.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = serviceRedemption.ListPending(ctx, alice)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = serviceRedemption.ApproveRedemption(ctx, admin, "missing")
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestTransitionOnlyAppliesToRedemptions(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	credited, err := invoke[*ServiceLedger](t, env).Credit(ctx, "alice", 10, models.Transaction{Kind: models.KindWasteClassification})
	require.NoError(t, err)

	_, err = invoke[*ServiceRedemption](t, env).RejectRedemption(ctx, admin, credited.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestRejectRefundsCapturedPrice(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	env.seedRewards(t)
	env.credit(t, "alice", 200)

	serviceRedemption := invoke[*ServiceRedemption](t, env)
	serviceCatalog := invoke[*ServiceCatalog](t, env)

	transaction, err := serviceRedemption.RequestRedemption(ctx, alice, "meal-voucher")
	require.NoError(t, err)

	reward, err := serviceCatalog.Get(ctx, "meal-voucher")
	require.NoError(t, err)
	repriced := *reward
	repriced.PointsRequired = 999
	_, err = serviceCatalog.Upsert(ctx, admin, repriced)
	require.NoError(t, err)

	_, err = serviceRedemption.RejectRedemption(ctx, admin, transaction.ID)
	require.NoError(t, err)

	balance, err := invoke[*ServiceLedger](t, env).GetBalance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 200, balance)
	env.requireConserved(t)
}

func TestConcurrentRedemptionsNeverOverdraw(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	env.seedRewards(t)
	env.credit(t, "alice", 250)

	serviceRedemption := invoke[*ServiceRedemption](t, env)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := serviceRedemption.RequestRedemption(ctx, alice, "water-bottle")
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, ErrInsufficientPoints)
		}()
	}
	wg.Wait()

	assert.Equal(t, 2, succeeded)
	balance, err := invoke[*ServiceLedger](t, env).GetBalance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 50, balance)
	env.requireConserved(t)
}

func TestPendingRedemptionNotifiesAdmins(t *testing.T) {
	env := newTestEnv(t, nil)
	notifier := newRecordingNotifier()
	do.ProvideValue[interfaces.Notifier](env.injector, notifier)

	ctx := context.Background()
	env.seedRewards(t)
	env.credit(t, "alice", 400)

	serviceRedemption := invoke[*ServiceRedemption](t, env)

	_, err := serviceRedemption.RequestRedemption(ctx, alice, "water-bottle")
	require.NoError(t, err)
	transaction, err := serviceRedemption.RequestRedemption(ctx, alice, "meal-voucher")
	require.NoError(t, err)

	select {
	case <-notifier.sent:
	case <-time.After(2 * time.Second):
		t.Fatal("admin notification not sent")
	}

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	require.Len(t, notifier.texts, 1)
	assert.Contains(t, notifier.texts[0], transaction.ID)
	assert.Contains(t, notifier.texts[0], "Cafeteria Meal Voucher")
}

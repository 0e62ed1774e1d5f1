package services

import (
	"context"
	"fmt"

	"ecoverse/internal/datastore"
	"ecoverse/internal/interfaces"
	"ecoverse/internal/models"
	"ecoverse/internal/pkg/logging"

	"github.com/rs/zerolog"
	"github.com/samber/do"
)

type ServiceRedemption struct {
	container *do.Injector
	store     datastore.Store
	ledger    *ServiceLedger
	notifier  interfaces.Notifier
	log       zerolog.Logger
}

func NewServiceRedemption(container *do.Injector) (*ServiceRedemption, error) {
	store, err := do.Invoke[datastore.Store](container)
	if err != nil {
		return nil, err
	}

	ledger, err := do.Invoke[*ServiceLedger](container)
	if err != nil {
		return nil, err
	}

	// admin notices are optional
	notifier, _ := do.Invoke[interfaces.Notifier](container)

	return &ServiceRedemption{container, store, ledger, notifier, logging.Component("redemption")}, nil
}

// RequestRedemption spends the reward's points immediately. The redemption is
// approved at once for auto-approve rewards and pending otherwise.
func (service *ServiceRedemption) RequestRedemption(ctx context.Context, identity models.Identity, rewardID string) (*models.Transaction, error) {
	if identity.UserID == "" {
		return nil, fmt.Errorf("%w: missing user", ErrInvalidInput)
	}

	var result *models.Transaction
	err := service.ledger.Update(ctx, func(tx *LedgerTx) error {
		reward, err := tx.Reward(rewardID)
		if err != nil {
			return err
		}

		status := models.StatusPending
		if reward.Approved {
			status = models.StatusApproved
		}

		t, err := tx.Debit(identity.UserID, reward.PointsRequired, models.Transaction{
			Kind:   models.KindRewardRedemption,
			Status: status,
			Metadata: models.TransactionMetadata{
				RewardID:    reward.ID,
				RewardName:  reward.Name,
				PointsSpent: reward.PointsRequired,
			},
		})
		result = t
		return err
	})
	if err != nil {
		return nil, err
	}

	if result.Status == models.StatusPending {
		service.notifyPending(*result)
	}
	return result, nil
}

func (service *ServiceRedemption) ApproveRedemption(ctx context.Context, admin models.Identity, transactionID string) (*models.Transaction, error) {
	return service.transition(ctx, admin, transactionID, func(tx *LedgerTx, t *models.Transaction) error {
		tx.SetStatus(t, models.StatusApproved)
		return nil
	})
}

// RejectRedemption refunds the points captured on the transaction, not the
// reward's current price. Only a pending redemption can be rejected, so a
// replay never refunds twice.
func (service *ServiceRedemption) RejectRedemption(ctx context.Context, admin models.Identity, transactionID string) (*models.Transaction, error) {
	return service.transition(ctx, admin, transactionID, func(tx *LedgerTx, t *models.Transaction) error {
		spent := t.Metadata.PointsSpent
		if spent == 0 {
			spent = -t.PointsDelta
		}

		tx.SetStatus(t, models.StatusRejected)
		_, err := tx.Refund(t.User, spent, t)
		return err
	})
}

func (service *ServiceRedemption) transition(ctx context.Context, admin models.Identity, transactionID string, apply func(tx *LedgerTx, t *models.Transaction) error) (*models.Transaction, error) {
	if !admin.IsAdmin() {
		return nil, ErrForbidden
	}

	var result models.Transaction
	err := service.ledger.Update(ctx, func(tx *LedgerTx) error {
		t, err := tx.Transaction(transactionID)
		if err != nil {
			return err
		}

		if !t.IsPendingRedemption() {
			return fmt.Errorf("%w: transaction %s is %s %s", ErrInvalidTransition, t.ID, t.Status, t.Kind)
		}

		if err := apply(tx, t); err != nil {
			return err
		}

		result = *t
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// ListPending returns pending redemptions, oldest first.
func (service *ServiceRedemption) ListPending(ctx context.Context, admin models.Identity) ([]*models.Transaction, error) {
	if !admin.IsAdmin() {
		return nil, ErrForbidden
	}

	transactions, err := datastore.GetTransactions(ctx, service.store)
	if err != nil {
		return nil, persistenceError(err)
	}

	pending := []*models.Transaction{}
	for _, t := range transactions {
		if t.IsPendingRedemption() {
			pending = append(pending, t)
		}
	}
	return pending, nil
}

func (service *ServiceRedemption) notifyPending(t models.Transaction) {
	if service.notifier == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), NOTIFY_TIMEOUT)
		defer cancel()

		text := fmt.Sprintf(MESSAGE_PENDING_REDEMPTION_FOR_ADMIN, t.User, t.Metadata.RewardName, t.Metadata.PointsSpent, t.ID)
		if err := service.notifier.NotifyAdmins(ctx, text); err != nil {
			service.log.Warn().Err(err).Str("transaction", t.ID).Msg("admin notification failed")
		}
	}()
}

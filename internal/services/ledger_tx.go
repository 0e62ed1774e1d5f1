package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"ecoverse/internal/datastore"
	"ecoverse/internal/models"

	"github.com/google/uuid"
)

// LedgerTx is the in-memory working copy of the ledger collections inside one
// ServiceLedger.Update call. Nothing it does is visible to readers until
// Update persists every collection it touched in a single Store.Put.
type LedgerTx struct {
	ctx   context.Context
	store datastore.Store
	now   time.Time

	users         map[string]*models.User
	transactions  []*models.Transaction
	carbonRecords []*models.CarbonRecord
	rewards       []*models.Reward
	badges        models.Badges

	loaded   map[string]bool
	dirty    map[string]bool
	touched  map[string]bool
	appended []*models.Transaction
}

func newLedgerTx(ctx context.Context, store datastore.Store, now time.Time) (*LedgerTx, error) {
	users, err := datastore.GetUsers(ctx, store)
	if err != nil {
		return nil, persistenceError(err)
	}

	transactions, err := datastore.GetTransactions(ctx, store)
	if err != nil {
		return nil, persistenceError(err)
	}

	return &LedgerTx{
		ctx:          ctx,
		store:        store,
		now:          now,
		users:        users,
		transactions: transactions,
		loaded: map[string]bool{
			datastore.CollectionUsers:        true,
			datastore.CollectionTransactions: true,
		},
		dirty:   map[string]bool{},
		touched: map[string]bool{},
	}, nil
}

func (tx *LedgerTx) Now() time.Time {
	return tx.now
}

// User returns the user, creating it with zero points on first reference.
func (tx *LedgerTx) User(userID string) *models.User {
	user, ok := tx.users[userID]
	if !ok {
		user = &models.User{ID: userID, Name: userID}
		tx.users[userID] = user
		tx.dirty[datastore.CollectionUsers] = true
	}
	return user
}

func (tx *LedgerTx) LookupUser(userID string) (*models.User, bool) {
	user, ok := tx.users[userID]
	return user, ok
}

func (tx *LedgerTx) Credit(userID string, amount int, entry models.Transaction) (*models.Transaction, error) {
	if amount < 0 {
		return nil, fmt.Errorf("%w: credit amount %d is negative", ErrInvalidInput, amount)
	}

	user := tx.User(userID)
	user.Points += amount
	entry.PointsDelta = amount
	return tx.append(user, entry), nil
}

func (tx *LedgerTx) Debit(userID string, amount int, entry models.Transaction) (*models.Transaction, error) {
	if amount < 0 {
		return nil, fmt.Errorf("%w: debit amount %d is negative", ErrInvalidInput, amount)
	}

	user := tx.User(userID)
	if user.Points < amount {
		return nil, fmt.Errorf("%w: balance %d, required %d", ErrInsufficientPoints, user.Points, amount)
	}

	user.Points -= amount
	entry.PointsDelta = -amount
	return tx.append(user, entry), nil
}

// Refund credits back amount as a reversal of the transaction of.
func (tx *LedgerTx) Refund(userID string, amount int, of *models.Transaction) (*models.Transaction, error) {
	entry := models.Transaction{
		Kind: of.Kind,
		Metadata: models.TransactionMetadata{
			RewardID:   of.Metadata.RewardID,
			RewardName: of.Metadata.RewardName,
			Reason:     models.ReasonReversal,
			RefundOf:   of.ID,
		},
	}
	return tx.Credit(userID, amount, entry)
}

func (tx *LedgerTx) Transaction(id string) (*models.Transaction, error) {
	for _, t := range tx.transactions {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, fmt.Errorf("%w: transaction %s", ErrRecordNotFound, id)
}

func (tx *LedgerTx) Transactions() []*models.Transaction {
	return tx.transactions
}

func (tx *LedgerTx) SetStatus(t *models.Transaction, status models.TransactionStatus) {
	t.Status = status
	tx.dirty[datastore.CollectionTransactions] = true
	tx.touched[t.User] = true
}

func (tx *LedgerTx) CarbonRecords() ([]*models.CarbonRecord, error) {
	if !tx.loaded[datastore.CollectionCarbonRecords] {
		records, err := datastore.GetCarbonRecords(tx.ctx, tx.store)
		if err != nil {
			return nil, persistenceError(err)
		}
		tx.carbonRecords = records
		tx.loaded[datastore.CollectionCarbonRecords] = true
	}
	return tx.carbonRecords, nil
}

func (tx *LedgerTx) AppendCarbonRecord(record *models.CarbonRecord) error {
	if _, err := tx.CarbonRecords(); err != nil {
		return err
	}
	tx.carbonRecords = append(tx.carbonRecords, record)
	tx.dirty[datastore.CollectionCarbonRecords] = true
	tx.touched[record.User] = true
	return nil
}

func (tx *LedgerTx) Rewards() ([]*models.Reward, error) {
	if !tx.loaded[datastore.CollectionRewards] {
		rewards, err := datastore.GetRewards(tx.ctx, tx.store)
		if err != nil {
			return nil, persistenceError(err)
		}
		tx.rewards = rewards
		tx.loaded[datastore.CollectionRewards] = true
	}
	return tx.rewards, nil
}

func (tx *LedgerTx) Reward(id string) (*models.Reward, error) {
	rewards, err := tx.Rewards()
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

func (tx *LedgerTx) SetRewards(rewards []*models.Reward) {
	tx.rewards = rewards
	tx.loaded[datastore.CollectionRewards] = true
	tx.dirty[datastore.CollectionRewards] = true
}

func (tx *LedgerTx) Badges() (models.Badges, error) {
	if !tx.loaded[datastore.CollectionBadges] {
		badges, err := datastore.GetBadges(tx.ctx, tx.store)
		if err != nil {
			return nil, persistenceError(err)
		}
		tx.badges = badges
		tx.loaded[datastore.CollectionBadges] = true
	}
	return tx.badges, nil
}

func (tx *LedgerTx) SetBadges(userID string, names []string) error {
	badges, err := tx.Badges()
	if err != nil {
		return err
	}
	badges[userID] = names
	tx.dirty[datastore.CollectionBadges] = true
	return nil
}

// Touch marks a user whose derived state must be refreshed before commit.
func (tx *LedgerTx) Touch(userID string) {
	tx.touched[userID] = true
}

func (tx *LedgerTx) append(user *models.User, entry models.Transaction) *models.Transaction {
	entry.ID = uuid.New().String()
	entry.User = user.ID
	if entry.Status == "" {
		entry.Status = models.StatusApproved
	}

	// timestamps never go backwards for a user, even if the clock does
	entry.Timestamp = tx.now
	if last, ok := tx.lastTimestamp(user.ID); ok && last.After(entry.Timestamp) {
		entry.Timestamp = last
	}

	t := &entry
	tx.transactions = append(tx.transactions, t)
	tx.appended = append(tx.appended, t)
	tx.dirty[datastore.CollectionUsers] = true
	tx.dirty[datastore.CollectionTransactions] = true
	tx.touched[user.ID] = true
	return t
}

func (tx *LedgerTx) lastTimestamp(userID string) (time.Time, bool) {
	for i := len(tx.transactions) - 1; i >= 0; i-- {
		if tx.transactions[i].User == userID {
			return tx.transactions[i].Timestamp, true
		}
	}
	return time.Time{}, false
}

func (tx *LedgerTx) touchedUsers() []string {
	ids := make([]string, 0, len(tx.touched))
	for id := range tx.touched {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (tx *LedgerTx) documents() []datastore.Document {
	var docs []datastore.Document
	for _, collection := range datastore.Collections {
		if !tx.dirty[collection] {
			continue
		}

		var value any
		switch collection {
		case datastore.CollectionUsers:
			value = tx.users
		case datastore.CollectionTransactions:
			value = tx.transactions
		case datastore.CollectionCarbonRecords:
			value = tx.carbonRecords
		case datastore.CollectionRewards:
			value = tx.rewards
		case datastore.CollectionBadges:
			value = tx.badges
		}
		docs = append(docs, datastore.Document{Collection: collection, Value: value})
	}
	return docs
}

func persistenceError(err error) error {
	return fmt.Errorf("%w: %w", ErrPersistenceFailure, err)
}

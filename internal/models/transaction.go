package models

import "time"

type TransactionKind string

const (
	KindWasteClassification TransactionKind = "waste_classification"
	KindCarbonEntry         TransactionKind = "carbon_entry"
	KindRewardRedemption    TransactionKind = "reward_redemption"
)

type TransactionStatus string

const (
	StatusApproved TransactionStatus = "approved"
	StatusPending  TransactionStatus = "pending"
	StatusRejected TransactionStatus = "rejected"
)

const ReasonReversal = "reversal"

// Transaction is append-only. Only Status may change after it is written,
// and only for pending redemptions.
type Transaction struct {
	ID          string              `json:"id"`
	User        string              `json:"user"`
	Kind        TransactionKind     `json:"kind"`
	PointsDelta int                 `json:"points_delta"`
	Metadata    TransactionMetadata `json:"metadata"`
	Status      TransactionStatus   `json:"status"`
	Timestamp   time.Time           `json:"timestamp"`
}

type TransactionMetadata struct {
	Category    string   `json:"category,omitempty"`
	Confidence  *float64 `json:"confidence,omitempty"`
	CO2         *float64 `json:"co2,omitempty"`
	RewardID    string   `json:"reward_id,omitempty"`
	RewardName  string   `json:"reward_name,omitempty"`
	PointsSpent int      `json:"points_spent,omitempty"`
	Reason      string   `json:"reason,omitempty"`
	RefundOf    string   `json:"refund_of,omitempty"`
}

func (tx *Transaction) IsPendingRedemption() bool {
	return tx.Kind == KindRewardRedemption && tx.Status == StatusPending
}

func (tx *Transaction) IsRefund() bool {
	return tx.Metadata.Reason == ReasonReversal
}

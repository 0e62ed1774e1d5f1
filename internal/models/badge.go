package models

type BadgeKind string

const (
	BadgeKindPoints BadgeKind = "points"
	BadgeKindStreak BadgeKind = "streak"
)

type Badge struct {
	Name      string    `json:"name"`
	Kind      BadgeKind `json:"kind"`
	Threshold int       `json:"threshold"`
}

// Badges maps a user id to the badge names unlocked so far, in unlock order.
type Badges map[string][]string

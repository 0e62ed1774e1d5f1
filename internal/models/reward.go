package models

type Reward struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Type           string `json:"type"`
	PointsRequired int    `json:"points_required"`
	Approved       bool   `json:"approved"`
	Description    string `json:"description,omitempty"`
}

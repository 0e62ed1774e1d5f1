package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Document is one persisted collection in the Postgres backend.
type Document struct {
	bun.BaseModel `bun:"table:document"`
	Collection    string    `bun:"collection,pk" json:"collection"`
	Body          string    `bun:"body,type:jsonb" json:"body"`
	UpdatedAt     time.Time `bun:"updated_at,default:current_timestamp" json:"updated_at"`
}

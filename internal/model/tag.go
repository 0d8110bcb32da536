package model

import (
	"time"
)

// Tag represents a reusable label applied to people. Names are unique
// (case-sensitive) after whitespace trimming.
type Tag struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

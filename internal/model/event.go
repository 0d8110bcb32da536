package model

import (
	"time"
)

// Event represents a place or occasion where people were met.
// Date is an optional YYYY-MM-DD string; the pair (name, date) is unique,
// with a missing date forming its own identity class.
type Event struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Date      *string   `db:"date" json:"date,omitempty"`
	Location  *string   `db:"location" json:"location,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

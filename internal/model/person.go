package model

import (
	"time"
)

// Person represents a contact record: someone the user has met.
// All optional fields are nil when absent and stored as NULL.
type Person struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Handle      *string   `db:"handle" json:"handle,omitempty"`
	Company     *string   `db:"company" json:"company,omitempty"`
	Position    *string   `db:"position" json:"position,omitempty"`
	Description *string   `db:"description" json:"description,omitempty"`
	ProductName *string   `db:"product_name" json:"productName,omitempty"`
	Memo        *string   `db:"memo" json:"memo,omitempty"`
	GithubID    *string   `db:"github_id" json:"githubId,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`

	// Relationships
	Tags      []Tag      `db:"-" json:"tags"`
	Events    []Event    `db:"-" json:"events"`
	Relations []Relation `db:"-" json:"relations"`
}

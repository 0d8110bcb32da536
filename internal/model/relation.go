package model

import (
	"time"
)

// Relation represents a typed person-to-person link (e.g. "colleague").
// The triple (source, target, type) is unique.
type Relation struct {
	ID             string    `db:"id" json:"id"`
	SourcePersonID string    `db:"source_person_id" json:"sourcePersonId"`
	TargetPersonID string    `db:"target_person_id" json:"targetPersonId"`
	RelationType   string    `db:"relation_type" json:"relationType"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
}

package types

import "time"

// Entity carries the audit timestamps and the optimistic-concurrency
// version shared by every persisted document.
type Entity struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	CreatedBy string    `json:"created_by,omitempty"`

	// Version is incremented by the store on every successful update.
	// Updates carrying a stale version fail with a conflict.
	Version int64 `json:"version"`
}

// NewEntity creates an Entity stamped with now and version 1.
func NewEntity(now time.Time, createdBy string) Entity {
	now = now.UTC()
	return Entity{
		CreatedAt: now,
		UpdatedAt: now,
		CreatedBy: createdBy,
		Version:   1,
	}
}

// Touch sets UpdatedAt to now.
func (e *Entity) Touch(now time.Time) {
	e.UpdatedAt = now.UTC()
}

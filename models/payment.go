package models

import "time"

// Payment records one participation: who paid, for which contest, and
// the gateway transaction that settled it. Rows are immutable once
// written.
type Payment struct {
	ID            int       `json:"id" db:"id"`
	UserID        int       `json:"user_id" db:"user_id"`
	ContestID     int       `json:"contest_id" db:"contest_id"`
	Price         float64   `json:"price" db:"price"`
	TransactionID string    `json:"transaction_id" db:"transaction_id"`
	Status        string    `json:"status" db:"status"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`

	// Denormalized via joins for list responses.
	UserName        string         `json:"user_name,omitempty" db:"-"`
	UserEmail       string         `json:"user_email,omitempty" db:"-"`
	ContestName     string         `json:"contest_name,omitempty" db:"-"`
	ContestDeadline *time.Time     `json:"contest_deadline,omitempty" db:"-"`
	ContestStatus   *ContestStatus `json:"contest_status,omitempty" db:"-"`
}

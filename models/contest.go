package models

import "time"

// ContestStatus represents the contest lifecycle states, matching the
// contest_status ENUM in the database.
type ContestStatus string

const (
	StatusPending  ContestStatus = "pending"
	StatusApproved ContestStatus = "approved"
	StatusRejected ContestStatus = "rejected"
	StatusEnded    ContestStatus = "ended"
)

// ValidStatus reports whether s is one of the known contest states.
func ValidStatus(s ContestStatus) bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusEnded:
		return true
	}
	return false
}

// Contest is a creator-authored challenge with an entry fee and prize.
// A contest becomes publicly listed only after an admin approved it,
// and ends when a winner is declared.
type Contest struct {
	ID                int           `json:"id" db:"id"`
	Name              string        `json:"name" db:"name"`
	Description       string        `json:"description" db:"description"`
	Instruction       string        `json:"instruction" db:"instruction"`
	Price             float64       `json:"price" db:"price"`
	Prize             string        `json:"prize" db:"prize"`
	Type              string        `json:"type" db:"type"`
	Deadline          time.Time     `json:"deadline" db:"deadline"`
	CreatorID         int           `json:"creator_id" db:"creator_id"`
	Status            ContestStatus `json:"status" db:"status"`
	ParticipantsCount int           `json:"participants_count" db:"participants_count"`
	WinnerID          *int          `json:"winner_id,omitempty" db:"winner_id"`
	CreatedAt         time.Time     `json:"created_at" db:"created_at"`
	ImageKey          *string       `json:"-" db:"image_key"`
	ImageURL          *string       `json:"image,omitempty" db:"-"`

	// Joined entities, populated by the service layer.
	Creator *User `json:"creator,omitempty" db:"-"`
	Winner  *User `json:"winner,omitempty" db:"-"`
}

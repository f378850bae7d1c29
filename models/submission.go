package models

import "time"

// Submission is a participant's task entry for a contest. Submissions
// are write-once; winner declaration references them only by email.
type Submission struct {
	ID          int       `json:"id" db:"id"`
	ContestID   int       `json:"contest_id" db:"contest_id"`
	UserID      int       `json:"user_id" db:"user_id"`
	TaskURL     string    `json:"task_url" db:"task_url"`
	SubmittedAt time.Time `json:"submitted_at" db:"submitted_at"`

	// Joined participant info for creator/admin review pages.
	UserName    string  `json:"user_name,omitempty" db:"-"`
	UserEmail   string  `json:"user_email,omitempty" db:"-"`
	UserPhoto   *string `json:"user_photo,omitempty" db:"-"`
	ContestName string  `json:"contest_name,omitempty" db:"-"`
}

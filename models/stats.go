package models

// PlatformStats is the admin dashboard summary.
type PlatformStats struct {
	UsersTotal       int     `json:"users_total"`
	ContestsTotal    int     `json:"contests_total"`
	PendingContests  int     `json:"pending_contests"`
	ApprovedContests int     `json:"approved_contests"`
	EndedContests    int     `json:"ended_contests"`
	PaymentsTotal    int     `json:"payments_total"`
	Revenue          float64 `json:"revenue"`
	SubmissionsTotal int     `json:"submissions_total"`
}

// LeaderboardEntry ranks a user by contests won.
type LeaderboardEntry struct {
	User *User `json:"user"`
	Wins int   `json:"wins"`
}

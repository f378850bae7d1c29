package models

import "time"

// UserRole matches the user_role ENUM in the database.
type UserRole string

const (
	RoleUser    UserRole = "user"
	RoleCreator UserRole = "creator"
	RoleAdmin   UserRole = "admin"
)

// ValidRole reports whether r is one of the known roles.
func ValidRole(r UserRole) bool {
	switch r {
	case RoleUser, RoleCreator, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Photo     *string   `json:"photo,omitempty"`
	Address   *string   `json:"address,omitempty"`
	Role      UserRole  `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

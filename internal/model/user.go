package model

import "time"

// User is an account that owns expense entries.
// This is a pure domain model with no database-specific dependencies or tags.
// The password hash never leaves the service layer, so it carries no JSON tag value.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

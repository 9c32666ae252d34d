package models

import "time"

// User is the read-only view of an account owned by the identity service.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Nickname  string    `json:"nickname"`
	CreatedAt time.Time `json:"created_at"`
}

// Identity is the caller resolved at the request boundary.
type Identity struct {
	UserID string
}

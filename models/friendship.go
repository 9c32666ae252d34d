package models

import "time"

type FriendshipStatus string

const (
	FriendshipPending  FriendshipStatus = "pending"
	FriendshipAccepted FriendshipStatus = "accepted"
	FriendshipBlocked  FriendshipStatus = "blocked"
)

// Friendship is the single relationship row kept for an unordered user pair.
// RequesterID is whichever of the two users sent the original request.
type Friendship struct {
	ID          string           `json:"id"`
	UserLow     string           `json:"user_low"`
	UserHigh    string           `json:"user_high"`
	RequesterID string           `json:"requester_id"`
	Status      FriendshipStatus `json:"status"` // pending, accepted, blocked
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

func (f *Friendship) Pair() Pair {
	return Pair{Low: f.UserLow, High: f.UserHigh}
}

// AddresseeID returns the user the request was sent to.
func (f *Friendship) AddresseeID() string {
	if f.RequesterID == f.UserLow {
		return f.UserHigh
	}
	return f.UserLow
}

type Friend struct {
	UserID   string    `json:"user_id"`
	Username string    `json:"username"`
	Nickname string    `json:"nickname"`
	Since    time.Time `json:"since"`
}

type FriendRequest struct {
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Nickname  string    `json:"nickname"`
	CreatedAt time.Time `json:"created_at"`
}

type RequestDirection int

const (
	Incoming RequestDirection = iota
	Outgoing
)

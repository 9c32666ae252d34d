package services

import (
	"context"

	"duochat/models"
)

// FriendshipStore persists one Friendship row per canonical pair. The pair key
// must be unique at the storage level.
type FriendshipStore interface {
	// InsertFriendship inserts f, or reports the row already holding f's pair.
	// It returns models.ErrNotFound if the conflicting row disappeared before
	// it could be read back.
	InsertFriendship(ctx context.Context, f models.Friendship) (models.InsertResult[models.Friendship], error)
	FindFriendship(ctx context.Context, pair models.Pair) (models.Friendship, error)
	// UpdateFriendshipStatus moves the row from one status to another only if
	// it currently has status from and the given requester.
	UpdateFriendshipStatus(ctx context.Context, pair models.Pair, requesterID string, from, to models.FriendshipStatus) (bool, error)
	// DeleteFriendship removes the row if it has the given status and, when
	// requesterID is non-empty, the given requester.
	DeleteFriendship(ctx context.Context, pair models.Pair, requesterID string, status models.FriendshipStatus) (bool, error)
	ListFriends(ctx context.Context, userID string) ([]models.Friend, error)
	ListFriendRequests(ctx context.Context, userID string, dir models.RequestDirection) ([]models.FriendRequest, error)
}

// DialogStore maps a canonical pair to exactly one dialog.
type DialogStore interface {
	FindDialog(ctx context.Context, pair models.Pair) (models.Dialog, error)
	InsertDialog(ctx context.Context, d models.Dialog) (models.InsertResult[models.Dialog], error)
}

// MessageStore is the append-only per-dialog log.
type MessageStore interface {
	// AppendMessage assigns the next per-dialog sequence and commits m. The
	// stored SentAt is m.SentAt truncated to microseconds, raised if needed so
	// it is never earlier than the dialog's previous message.
	AppendMessage(ctx context.Context, m models.Message) (models.Message, error)
	// ListMessages returns a page ordered by (SentAt, Sequence) ascending.
	ListMessages(ctx context.Context, dialogID string, skip, take int) ([]models.Message, error)
}

// UserDirectory answers whether an account exists.
type UserDirectory interface {
	UserExists(ctx context.Context, userID string) (bool, error)
}

// Notifier pushes a committed message to the participants' live connections.
// Delivery is best-effort; implementations never report failure.
type Notifier interface {
	Notify(ctx context.Context, participants []string, msg models.Message)
}

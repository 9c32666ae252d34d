package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"duochat/models"
)

// maxRaceRetries bounds how often SendRequest re-derives its answer after the
// row it observed changed underneath it.
const maxRaceRetries = 5

type RequestOutcome string

const (
	RequestCreated      RequestOutcome = "created"
	RequestAutoAccepted RequestOutcome = "auto_accepted"
)

// FriendService runs the Pending/Accepted friendship lifecycle. It keeps no
// state of its own and is safe for concurrent use.
type FriendService struct {
	store FriendshipStore
	users UserDirectory
	now   func() time.Time
}

// NewFriendService builds a FriendService. users may be nil, in which case
// request targets are not checked for existence.
func NewFriendService(store FriendshipStore, users UserDirectory) (*FriendService, error) {
	if store == nil {
		return nil, errors.New("services: friendship store must not be nil")
	}
	return &FriendService{store: store, users: users, now: time.Now}, nil
}

// SendRequest records a friend request from me to target. If target already
// asked me, the existing request is accepted instead.
func (s *FriendService) SendRequest(ctx context.Context, me models.Identity, target string) (RequestOutcome, error) {
	target = strings.TrimSpace(target)
	if target == "" || target == me.UserID {
		return "", newError(ErrorInvalidOperand, "self_or_empty_target", nil)
	}
	if s.users != nil {
		exists, err := s.users.UserExists(ctx, target)
		if err != nil {
			return "", internalError("user_lookup_error", err)
		}
		if !exists {
			return "", newError(ErrorNotFound, "user_not_found", nil)
		}
	}

	pair := models.CanonicalPair(me.UserID, target)
	for attempt := 0; attempt < maxRaceRetries; attempt++ {
		now := s.now().UTC()
		res, err := s.store.InsertFriendship(ctx, models.Friendship{
			ID:          uuid.NewString(),
			UserLow:     pair.Low,
			UserHigh:    pair.High,
			RequesterID: me.UserID,
			Status:      models.FriendshipPending,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
		if errors.Is(err, models.ErrNotFound) {
			continue
		}
		if err != nil {
			return "", internalError("friendship_insert_error", err)
		}
		if res.Created {
			return RequestCreated, nil
		}

		existing := res.Row
		switch {
		case existing.Status == models.FriendshipAccepted:
			return "", newError(ErrorConflict, "already_friends", nil)
		case existing.Status == models.FriendshipBlocked:
			return "", newError(ErrorConflict, "relationship_blocked", nil)
		case existing.RequesterID == me.UserID:
			return "", newError(ErrorConflict, "request_already_sent", nil)
		}

		accepted, err := s.store.UpdateFriendshipStatus(ctx, pair, target, models.FriendshipPending, models.FriendshipAccepted)
		if err != nil {
			return "", internalError("friendship_update_error", err)
		}
		if accepted {
			slog.Info("reciprocal friend request accepted", "requester", target, "addressee", me.UserID)
			return RequestAutoAccepted, nil
		}
	}
	return "", internalError("friendship_contention", nil)
}

// Accept turns the pending request fromUser sent to me into a friendship.
func (s *FriendService) Accept(ctx context.Context, me models.Identity, fromUser string) error {
	if fromUser == "" || fromUser == me.UserID {
		return newError(ErrorInvalidOperand, "self_or_empty_target", nil)
	}
	ok, err := s.store.UpdateFriendshipStatus(ctx, models.CanonicalPair(me.UserID, fromUser), fromUser, models.FriendshipPending, models.FriendshipAccepted)
	if err != nil {
		return internalError("friendship_update_error", err)
	}
	if !ok {
		return newError(ErrorNotFound, "request_not_found", nil)
	}
	return nil
}

// Decline drops the pending request fromUser sent to me.
func (s *FriendService) Decline(ctx context.Context, me models.Identity, fromUser string) error {
	return s.remove(ctx, me, fromUser, fromUser, models.FriendshipPending, "request_not_found")
}

// Cancel withdraws the pending request me sent to toUser.
func (s *FriendService) Cancel(ctx context.Context, me models.Identity, toUser string) error {
	return s.remove(ctx, me, toUser, me.UserID, models.FriendshipPending, "request_not_found")
}

// Unfriend ends an accepted friendship. Either side may do it.
func (s *FriendService) Unfriend(ctx context.Context, me models.Identity, other string) error {
	return s.remove(ctx, me, other, "", models.FriendshipAccepted, "friendship_not_found")
}

func (s *FriendService) remove(ctx context.Context, me models.Identity, other, requesterID string, status models.FriendshipStatus, notFound string) error {
	if other == "" || other == me.UserID {
		return newError(ErrorInvalidOperand, "self_or_empty_target", nil)
	}
	ok, err := s.store.DeleteFriendship(ctx, models.CanonicalPair(me.UserID, other), requesterID, status)
	if err != nil {
		return internalError("friendship_delete_error", err)
	}
	if !ok {
		return newError(ErrorNotFound, notFound, nil)
	}
	return nil
}

func (s *FriendService) ListAccepted(ctx context.Context, me models.Identity) ([]models.Friend, error) {
	friends, err := s.store.ListFriends(ctx, me.UserID)
	if err != nil {
		return nil, internalError("friend_list_error", err)
	}
	if friends == nil {
		friends = []models.Friend{}
	}
	return friends, nil
}

func (s *FriendService) ListIncoming(ctx context.Context, me models.Identity) ([]models.FriendRequest, error) {
	return s.listRequests(ctx, me, models.Incoming)
}

func (s *FriendService) ListOutgoing(ctx context.Context, me models.Identity) ([]models.FriendRequest, error) {
	return s.listRequests(ctx, me, models.Outgoing)
}

func (s *FriendService) listRequests(ctx context.Context, me models.Identity, dir models.RequestDirection) ([]models.FriendRequest, error) {
	requests, err := s.store.ListFriendRequests(ctx, me.UserID, dir)
	if err != nil {
		return nil, internalError("request_list_error", err)
	}
	if requests == nil {
		requests = []models.FriendRequest{}
	}
	return requests, nil
}

// AreFriends reports whether a and b have an accepted friendship.
func (s *FriendService) AreFriends(ctx context.Context, a, b string) (bool, error) {
	if a == b {
		return false, nil
	}
	f, err := s.store.FindFriendship(ctx, models.CanonicalPair(a, b))
	if errors.Is(err, models.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, internalError("friendship_lookup_error", err)
	}
	return f.Status == models.FriendshipAccepted, nil
}

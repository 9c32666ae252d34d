package services

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"duochat/models"
)

const (
	defaultMaxMessageLength = 4000
	defaultHistoryMaxTake   = 200
	defaultHistoryTake      = 50
)

// FriendChecker is the read-only policy gate consulted before messaging.
type FriendChecker interface {
	AreFriends(ctx context.Context, a, b string) (bool, error)
}

type MessageService struct {
	friends   FriendChecker
	dialogs   DialogStore
	messages  MessageStore
	notifier  Notifier
	maxLength int
	maxTake   int
	now       func() time.Time
}

func NewMessageService(friends FriendChecker, dialogs DialogStore, messages MessageStore, notifier Notifier, maxLength, maxTake int) (*MessageService, error) {
	if friends == nil {
		return nil, errors.New("services: friend checker must not be nil")
	}
	if dialogs == nil {
		return nil, errors.New("services: dialog store must not be nil")
	}
	if messages == nil {
		return nil, errors.New("services: message store must not be nil")
	}
	if notifier == nil {
		return nil, errors.New("services: notifier must not be nil")
	}
	if maxLength <= 0 {
		maxLength = defaultMaxMessageLength
	}
	if maxTake <= 0 {
		maxTake = defaultHistoryMaxTake
	}
	return &MessageService{
		friends:   friends,
		dialogs:   dialogs,
		messages:  messages,
		notifier:  notifier,
		maxLength: maxLength,
		maxTake:   maxTake,
		now:       time.Now,
	}, nil
}

// GetOrCreateDialog returns the one dialog for the pair {u1, u2}, creating it
// if needed. Concurrent callers for the same pair all get the same dialog.
func (s *MessageService) GetOrCreateDialog(ctx context.Context, u1, u2 string) (models.Dialog, error) {
	if u1 == "" || u2 == "" || u1 == u2 {
		return models.Dialog{}, newError(ErrorInvalidOperand, "invalid_dialog_pair", nil)
	}
	pair := models.CanonicalPair(u1, u2)

	for attempt := 0; attempt < maxRaceRetries; attempt++ {
		d, err := s.dialogs.FindDialog(ctx, pair)
		if err == nil {
			return d, nil
		}
		if !errors.Is(err, models.ErrNotFound) {
			return models.Dialog{}, internalError("dialog_lookup_error", err)
		}

		res, err := s.dialogs.InsertDialog(ctx, models.Dialog{
			ID:        uuid.NewString(),
			UserLow:   pair.Low,
			UserHigh:  pair.High,
			CreatedAt: s.now().UTC(),
		})
		if errors.Is(err, models.ErrNotFound) {
			continue
		}
		if err != nil {
			return models.Dialog{}, internalError("dialog_insert_error", err)
		}
		return res.Row, nil
	}
	return models.Dialog{}, internalError("dialog_contention", nil)
}

// SendMessage appends text to the dialog between me and recipient and pushes
// it to both of them once it is committed.
func (s *MessageService) SendMessage(ctx context.Context, me models.Identity, recipient, text string) (models.Message, error) {
	if recipient == "" || recipient == me.UserID {
		return models.Message{}, newError(ErrorInvalidOperand, "self_or_empty_recipient", nil)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return models.Message{}, newError(ErrorValidation, "empty_text", nil)
	}
	if utf8.RuneCountInString(text) > s.maxLength {
		return models.Message{}, newError(ErrorValidation, "text_too_long", nil)
	}

	ok, err := s.friends.AreFriends(ctx, me.UserID, recipient)
	if err != nil {
		return models.Message{}, err
	}
	if !ok {
		return models.Message{}, newError(ErrorForbidden, "not_friends", nil)
	}

	dialog, err := s.GetOrCreateDialog(ctx, me.UserID, recipient)
	if err != nil {
		return models.Message{}, err
	}

	msg, err := s.messages.AppendMessage(ctx, models.Message{
		ID:       uuid.NewString(),
		DialogID: dialog.ID,
		SenderID: me.UserID,
		Text:     text,
		SentAt:   s.now().UTC().Truncate(time.Microsecond),
	})
	if err != nil {
		return models.Message{}, internalError("message_append_error", err)
	}

	s.notifier.Notify(context.WithoutCancel(ctx), dialog.Pair().Users(), msg)
	return msg, nil
}

// GetHistory returns one page of the dialog between me and other, oldest
// first. It never creates a dialog, and callers who are not friends with
// other get an empty page.
func (s *MessageService) GetHistory(ctx context.Context, me models.Identity, other string, skip, take int) ([]models.Message, error) {
	if other == "" || other == me.UserID {
		return nil, newError(ErrorInvalidOperand, "self_or_empty_peer", nil)
	}
	skip, take = s.clampPage(skip, take)

	ok, err := s.friends.AreFriends(ctx, me.UserID, other)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []models.Message{}, nil
	}

	dialog, err := s.dialogs.FindDialog(ctx, models.CanonicalPair(me.UserID, other))
	if errors.Is(err, models.ErrNotFound) {
		return []models.Message{}, nil
	}
	if err != nil {
		return nil, internalError("dialog_lookup_error", err)
	}

	msgs, err := s.messages.ListMessages(ctx, dialog.ID, skip, take)
	if err != nil {
		return nil, internalError("message_list_error", err)
	}
	if msgs == nil {
		msgs = []models.Message{}
	}
	return msgs, nil
}

func (s *MessageService) clampPage(skip, take int) (int, int) {
	if skip < 0 {
		skip = 0
	}
	if take <= 0 {
		take = defaultHistoryTake
	}
	if take > s.maxTake {
		take = s.maxTake
	}
	return skip, take
}

package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"duochat/models"
)

// Store keeps friendships, dialogs and messages in process memory. It gives
// the same atomicity guarantees as the MySQL store: one row per canonical
// pair and a gap-free sequence per dialog.
type Store struct {
	mu          sync.RWMutex
	users       map[string]models.User
	friendships map[models.Pair]models.Friendship
	dialogs     map[models.Pair]models.Dialog
	dialogByID  map[string]models.Pair
	messages    map[string][]models.Message // dialogID -> messages in sequence order
}

func NewStore() *Store {
	return &Store{
		users:       make(map[string]models.User),
		friendships: make(map[models.Pair]models.Friendship),
		dialogs:     make(map[models.Pair]models.Dialog),
		dialogByID:  make(map[string]models.Pair),
		messages:    make(map[string][]models.Message),
	}
}

// PutUser registers an account so it shows up in lookups and listings.
func (s *Store) PutUser(u models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

func (s *Store) UserExists(_ context.Context, userID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.users[userID]
	return ok, nil
}

func (s *Store) InsertFriendship(_ context.Context, f models.Friendship) (models.InsertResult[models.Friendship], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.friendships[f.Pair()]; ok {
		return models.InsertResult[models.Friendship]{Row: existing}, nil
	}
	s.friendships[f.Pair()] = f
	return models.InsertResult[models.Friendship]{Row: f, Created: true}, nil
}

func (s *Store) FindFriendship(_ context.Context, pair models.Pair) (models.Friendship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.friendships[pair]
	if !ok {
		return models.Friendship{}, models.ErrNotFound
	}
	return f, nil
}

func (s *Store) UpdateFriendshipStatus(_ context.Context, pair models.Pair, requesterID string, from, to models.FriendshipStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.friendships[pair]
	if !ok || f.RequesterID != requesterID || f.Status != from {
		return false, nil
	}
	f.Status = to
	f.UpdatedAt = time.Now().UTC()
	s.friendships[pair] = f
	return true, nil
}

func (s *Store) DeleteFriendship(_ context.Context, pair models.Pair, requesterID string, status models.FriendshipStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.friendships[pair]
	if !ok || f.Status != status {
		return false, nil
	}
	if requesterID != "" && f.RequesterID != requesterID {
		return false, nil
	}
	delete(s.friendships, pair)
	return true, nil
}

func (s *Store) ListFriends(_ context.Context, userID string) ([]models.Friend, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var friends []models.Friend
	for pair, f := range s.friendships {
		if f.Status != models.FriendshipAccepted || !pair.Contains(userID) {
			continue
		}
		other := s.users[pair.Other(userID)]
		friends = append(friends, models.Friend{
			UserID:   pair.Other(userID),
			Username: other.Username,
			Nickname: other.Nickname,
			Since:    f.UpdatedAt,
		})
	}
	sort.Slice(friends, func(i, j int) bool {
		a, b := displayName(friends[i]), displayName(friends[j])
		if a != b {
			return a < b
		}
		return friends[i].UserID < friends[j].UserID
	})
	return friends, nil
}

func (s *Store) ListFriendRequests(_ context.Context, userID string, dir models.RequestDirection) ([]models.FriendRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type entry struct {
		id  string
		req models.FriendRequest
	}
	var entries []entry
	for pair, f := range s.friendships {
		if f.Status != models.FriendshipPending || !pair.Contains(userID) {
			continue
		}
		sentByMe := f.RequesterID == userID
		if sentByMe != (dir == models.Outgoing) {
			continue
		}
		other := s.users[pair.Other(userID)]
		entries = append(entries, entry{id: f.ID, req: models.FriendRequest{
			UserID:    pair.Other(userID),
			Username:  other.Username,
			Nickname:  other.Nickname,
			CreatedAt: f.CreatedAt,
		}})
	}
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].req.CreatedAt.Equal(entries[j].req.CreatedAt) {
			return entries[i].req.CreatedAt.After(entries[j].req.CreatedAt)
		}
		return entries[i].id < entries[j].id
	})

	var requests []models.FriendRequest
	for _, e := range entries {
		requests = append(requests, e.req)
	}
	return requests, nil
}

func (s *Store) FindDialog(_ context.Context, pair models.Pair) (models.Dialog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.dialogs[pair]
	if !ok {
		return models.Dialog{}, models.ErrNotFound
	}
	return d, nil
}

func (s *Store) InsertDialog(_ context.Context, d models.Dialog) (models.InsertResult[models.Dialog], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.dialogs[d.Pair()]; ok {
		return models.InsertResult[models.Dialog]{Row: existing}, nil
	}
	s.dialogs[d.Pair()] = d
	s.dialogByID[d.ID] = d.Pair()
	return models.InsertResult[models.Dialog]{Row: d, Created: true}, nil
}

// AppendMessage commits m at the tail of its dialog. SentAt never moves
// backwards within a dialog, so the log stays in (SentAt, Sequence) order and
// offset paging is stable while sends are in flight.
func (s *Store) AppendMessage(_ context.Context, m models.Message) (models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.dialogByID[m.DialogID]; !ok {
		return models.Message{}, models.ErrNotFound
	}
	log := s.messages[m.DialogID]
	m.SentAt = m.SentAt.UTC().Truncate(time.Microsecond)
	if n := len(log); n > 0 && m.SentAt.Before(log[n-1].SentAt) {
		m.SentAt = log[n-1].SentAt
	}
	m.Sequence = int64(len(log)) + 1
	s.messages[m.DialogID] = append(log, m)
	return m, nil
}

func (s *Store) ListMessages(_ context.Context, dialogID string, skip, take int) ([]models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	log := s.messages[dialogID]
	if skip >= len(log) {
		return []models.Message{}, nil
	}
	end := skip + take
	if end > len(log) {
		end = len(log)
	}
	page := make([]models.Message, end-skip)
	copy(page, log[skip:end])
	return page, nil
}

// DialogCount and MessageCount expose row counts for tests and diagnostics.
func (s *Store) DialogCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.dialogs)
}

func (s *Store) MessageCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, log := range s.messages {
		n += len(log)
	}
	return n
}

func (s *Store) FriendshipCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.friendships)
}

func displayName(f models.Friend) string {
	switch {
	case f.Nickname != "":
		return strings.ToLower(f.Nickname)
	case f.Username != "":
		return strings.ToLower(f.Username)
	}
	return f.UserID
}

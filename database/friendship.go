package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"duochat/models"
)

// Store is the MySQL implementation of the friendship, dialog, message and
// user directory ports.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) (*Store, error) {
	if db == nil {
		return nil, errors.New("database: db must not be nil")
	}
	return &Store{db: db}, nil
}

func (s *Store) InsertFriendship(ctx context.Context, f models.Friendship) (models.InsertResult[models.Friendship], error) {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO friendships (id, user_low, user_high, requester_id, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		f.ID, f.UserLow, f.UserHigh, f.RequesterID, f.Status, f.CreatedAt, f.UpdatedAt,
	)
	if err == nil {
		return models.InsertResult[models.Friendship]{Row: f, Created: true}, nil
	}
	if !isDuplicateEntry(err) {
		return models.InsertResult[models.Friendship]{}, fmt.Errorf("database: InsertFriendship: %w", err)
	}

	existing, err := s.FindFriendship(ctx, f.Pair())
	if err != nil {
		return models.InsertResult[models.Friendship]{}, err
	}
	return models.InsertResult[models.Friendship]{Row: existing}, nil
}

func (s *Store) FindFriendship(ctx context.Context, pair models.Pair) (models.Friendship, error) {
	var f models.Friendship
	err := s.db.QueryRowContext(ctx,
		"SELECT id, user_low, user_high, requester_id, status, created_at, updated_at FROM friendships WHERE user_low = ? AND user_high = ?",
		pair.Low, pair.High,
	).Scan(&f.ID, &f.UserLow, &f.UserHigh, &f.RequesterID, &f.Status, &f.CreatedAt, &f.UpdatedAt)

	if err == sql.ErrNoRows {
		return models.Friendship{}, models.ErrNotFound
	}
	if err != nil {
		return models.Friendship{}, fmt.Errorf("database: FindFriendship: %w", err)
	}
	return f, nil
}

func (s *Store) UpdateFriendshipStatus(ctx context.Context, pair models.Pair, requesterID string, from, to models.FriendshipStatus) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		"UPDATE friendships SET status = ?, updated_at = UTC_TIMESTAMP(6) WHERE user_low = ? AND user_high = ? AND requester_id = ? AND status = ?",
		to, pair.Low, pair.High, requesterID, from,
	)
	if err != nil {
		return false, fmt.Errorf("database: UpdateFriendshipStatus: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("database: UpdateFriendshipStatus rows: %w", err)
	}
	return rowsAffected > 0, nil
}

func (s *Store) DeleteFriendship(ctx context.Context, pair models.Pair, requesterID string, status models.FriendshipStatus) (bool, error) {
	query := "DELETE FROM friendships WHERE user_low = ? AND user_high = ? AND status = ?"
	args := []interface{}{pair.Low, pair.High, status}
	if requesterID != "" {
		query += " AND requester_id = ?"
		args = append(args, requesterID)
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("database: DeleteFriendship: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("database: DeleteFriendship rows: %w", err)
	}
	return rowsAffected > 0, nil
}

func (s *Store) ListFriends(ctx context.Context, userID string) ([]models.Friend, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT x.other_id, COALESCE(u.username, ''), COALESCE(u.nickname, ''), x.updated_at
		FROM (
			SELECT IF(f.user_low = ?, f.user_high, f.user_low) AS other_id, f.updated_at
			FROM friendships f
			WHERE (f.user_low = ? OR f.user_high = ?) AND f.status = 'accepted'
		) x
		LEFT JOIN users u ON u.id = x.other_id
		ORDER BY COALESCE(NULLIF(u.nickname, ''), NULLIF(u.username, ''), x.other_id), x.other_id
	`, userID, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("database: ListFriends: %w", err)
	}
	defer rows.Close()

	var friends []models.Friend
	for rows.Next() {
		var f models.Friend
		if err := rows.Scan(&f.UserID, &f.Username, &f.Nickname, &f.Since); err != nil {
			return nil, fmt.Errorf("database: ListFriends scan: %w", err)
		}
		friends = append(friends, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("database: ListFriends rows: %w", err)
	}
	return friends, nil
}

func (s *Store) ListFriendRequests(ctx context.Context, userID string, dir models.RequestDirection) ([]models.FriendRequest, error) {
	// For incoming requests the other side is the requester; for outgoing it
	// is whichever pair member is not the caller.
	where := "(f.user_low = ? OR f.user_high = ?) AND f.requester_id <> ?"
	if dir == models.Outgoing {
		where = "(f.user_low = ? OR f.user_high = ?) AND f.requester_id = ?"
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT x.other_id, COALESCE(u.username, ''), COALESCE(u.nickname, ''), x.created_at
		FROM (
			SELECT f.id, IF(f.user_low = ?, f.user_high, f.user_low) AS other_id, f.created_at
			FROM friendships f
			WHERE `+where+` AND f.status = 'pending'
		) x
		LEFT JOIN users u ON u.id = x.other_id
		ORDER BY x.created_at DESC, x.id
	`, userID, userID, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("database: ListFriendRequests: %w", err)
	}
	defer rows.Close()

	var requests []models.FriendRequest
	for rows.Next() {
		var r models.FriendRequest
		if err := rows.Scan(&r.UserID, &r.Username, &r.Nickname, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("database: ListFriendRequests scan: %w", err)
		}
		requests = append(requests, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("database: ListFriendRequests rows: %w", err)
	}
	return requests, nil
}

func (s *Store) UserExists(ctx context.Context, userID string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM users WHERE id = ?)", userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("database: UserExists: %w", err)
	}
	return exists, nil
}

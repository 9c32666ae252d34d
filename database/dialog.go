package database

import (
	"context"
	"database/sql"
	"fmt"

	"duochat/models"
)

func (s *Store) FindDialog(ctx context.Context, pair models.Pair) (models.Dialog, error) {
	var d models.Dialog
	err := s.db.QueryRowContext(ctx,
		"SELECT id, user_low, user_high, created_at FROM dialogs WHERE user_low = ? AND user_high = ?",
		pair.Low, pair.High,
	).Scan(&d.ID, &d.UserLow, &d.UserHigh, &d.CreatedAt)

	if err == sql.ErrNoRows {
		return models.Dialog{}, models.ErrNotFound
	}
	if err != nil {
		return models.Dialog{}, fmt.Errorf("database: FindDialog: %w", err)
	}
	return d, nil
}

func (s *Store) InsertDialog(ctx context.Context, d models.Dialog) (models.InsertResult[models.Dialog], error) {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO dialogs (id, user_low, user_high, last_seq, created_at) VALUES (?, ?, ?, 0, ?)",
		d.ID, d.UserLow, d.UserHigh, d.CreatedAt,
	)
	if err == nil {
		return models.InsertResult[models.Dialog]{Row: d, Created: true}, nil
	}
	if !isDuplicateEntry(err) {
		return models.InsertResult[models.Dialog]{}, fmt.Errorf("database: InsertDialog: %w", err)
	}

	existing, err := s.FindDialog(ctx, d.Pair())
	if err != nil {
		return models.InsertResult[models.Dialog]{}, err
	}
	return models.InsertResult[models.Dialog]{Row: existing}, nil
}

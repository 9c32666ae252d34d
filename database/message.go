package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"duochat/models"
)

// AppendMessage assigns the next sequence and a non-decreasing sent_at under
// the dialog row lock, then inserts the message in the same transaction.
func (s *Store) AppendMessage(ctx context.Context, m models.Message) (models.Message, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Message{}, fmt.Errorf("database: AppendMessage begin: %w", err)
	}
	defer tx.Rollback()

	var lastSeq int64
	var lastSentAt sql.NullTime
	err = tx.QueryRowContext(ctx,
		"SELECT last_seq, last_sent_at FROM dialogs WHERE id = ? FOR UPDATE",
		m.DialogID,
	).Scan(&lastSeq, &lastSentAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, models.ErrNotFound
	}
	if err != nil {
		return models.Message{}, fmt.Errorf("database: AppendMessage lock dialog: %w", err)
	}

	m.Sequence = lastSeq + 1
	m.SentAt = m.SentAt.UTC().Truncate(time.Microsecond)
	if lastSentAt.Valid && m.SentAt.Before(lastSentAt.Time) {
		m.SentAt = lastSentAt.Time.UTC()
	}

	if _, err = tx.ExecContext(ctx,
		"UPDATE dialogs SET last_seq = ?, last_sent_at = ? WHERE id = ?",
		m.Sequence, m.SentAt, m.DialogID,
	); err != nil {
		return models.Message{}, fmt.Errorf("database: AppendMessage bump dialog: %w", err)
	}

	if _, err = tx.ExecContext(ctx,
		"INSERT INTO messages (id, dialog_id, sender_id, text, sent_at, seq) VALUES (?, ?, ?, ?, ?, ?)",
		m.ID, m.DialogID, m.SenderID, m.Text, m.SentAt, m.Sequence,
	); err != nil {
		return models.Message{}, fmt.Errorf("database: AppendMessage insert: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return models.Message{}, fmt.Errorf("database: AppendMessage commit: %w", err)
	}
	return m, nil
}

// ListMessages pages by seq. AppendMessage keeps sent_at non-decreasing in seq
// order, so this is also (sent_at, seq) order.
func (s *Store) ListMessages(ctx context.Context, dialogID string, skip, take int) ([]models.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, dialog_id, sender_id, text, sent_at, seq
		FROM messages
		WHERE dialog_id = ?
		ORDER BY seq ASC
		LIMIT ? OFFSET ?
	`, dialogID, take, skip)
	if err != nil {
		return nil, fmt.Errorf("database: ListMessages: %w", err)
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.DialogID, &m.SenderID, &m.Text, &m.SentAt, &m.Sequence); err != nil {
			return nil, fmt.Errorf("database: ListMessages scan: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("database: ListMessages rows: %w", err)
	}
	return messages, nil
}

package models

import "time"

// Message is one entry of a dialog's append-only log. Messages are ordered by
// (SentAt, Sequence); Sequence is assigned by the store and grows by one per
// dialog.
type Message struct {
	ID       string    `json:"id"`
	DialogID string    `json:"dialog_id"`
	SenderID string    `json:"sender_id"`
	Text     string    `json:"text"`
	SentAt   time.Time `json:"sent_at"`
	Sequence int64     `json:"sequence"`
}

// Before reports whether m sorts ahead of o in history order.
func (m *Message) Before(o *Message) bool {
	if !m.SentAt.Equal(o.SentAt) {
		return m.SentAt.Before(o.SentAt)
	}
	return m.Sequence < o.Sequence
}

type MessageResponse struct {
	SenderID string    `json:"sender_id"`
	Text     string    `json:"text"`
	SentAt   time.Time `json:"sent_at"`
}

func (m *Message) ToResponse() *MessageResponse {
	return &MessageResponse{
		SenderID: m.SenderID,
		Text:     m.Text,
		SentAt:   m.SentAt,
	}
}

package models

import "time"

type Dialog struct {
	ID        string    `json:"id"`
	UserLow   string    `json:"user_low"`
	UserHigh  string    `json:"user_high"`
	CreatedAt time.Time `json:"created_at"`
}

func (d *Dialog) Pair() Pair {
	return Pair{Low: d.UserLow, High: d.UserHigh}
}

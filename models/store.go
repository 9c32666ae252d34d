package models

import "errors"

// ErrNotFound is returned by stores when no row matches.
var ErrNotFound = errors.New("not found")

// InsertResult reports the outcome of an insert against a unique key: either
// the row was created, or a row with the same key already existed and Row
// holds that existing row.
type InsertResult[T any] struct {
	Row     T
	Created bool
}

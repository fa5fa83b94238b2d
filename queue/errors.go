package queue

import "errors"

var (
	// ErrDuplicateItem rejects a candidate whose name, size and modification time
	// match an item already in the queue.
	ErrDuplicateItem = errors.New("duplicate item")
	// ErrValidation rejects a candidate refused by the intake policy.
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("item not found")
	ErrItemBusy   = errors.New("item has a request in flight")
	ErrClosed     = errors.New("queue closed")
)

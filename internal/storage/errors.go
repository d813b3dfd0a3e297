package storage

import "errors"

// ErrNotFound is returned when a trade id does not exist in the store.
var ErrNotFound = errors.New("trade not found")

// ErrConflict is returned when a write carries a stale revision token.
// Callers should re-fetch, recompute and retry rather than overwrite.
var ErrConflict = errors.New("revision conflict")

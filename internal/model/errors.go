package model

import "errors"

// ErrNotFound is returned when an operation targets an origin, commit, or
// project id that does not exist. Releasing a lock on an unlocked origin is
// NOT a not-found condition; only a missing row is.
var ErrNotFound = errors.New("record not found")

// ErrLockHeld is returned when a lock acquisition targets an origin already
// locked by a different user.
var ErrLockHeld = errors.New("origin is locked by another user")

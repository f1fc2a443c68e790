package commit

import "github.com/google/uuid"

// IDGenerator produces ids for commits and versions.
//
// UUIDv7 is used in production for time-ordered ids. Tests substitute a
// deterministic generator.
type IDGenerator interface {
	NewID() string
}

// UUIDv7Generator generates time-ordered UUIDv7 ids.
type UUIDv7Generator struct{}

func (UUIDv7Generator) NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

package commit

import (
	"errors"
	"fmt"

	"github.com/roach88/slipway/internal/billing"
)

// ErrAccessOrNotFound is returned when a project/user pair resolves to zero
// accessible resources: the project does not exist, is deleted, or the user
// is not a member of its workspace. No mutation has happened when this is
// returned.
var ErrAccessOrNotFound = errors.New("invalid user or project")

// ErrNoPendingChanges is returned by discard when the user has no changed
// origins in the project. Distinct from ErrAccessOrNotFound: access was
// fine, there was just nothing to discard.
var ErrNoPendingChanges = errors.New("no pending changes")

// LimitExceededError is returned when commit-time plan validation finds a
// violated limit. Returned before any mutation.
type LimitExceededError struct {
	Feature billing.Feature
	Limit   int
	Actual  int
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("plan limit exceeded: allowed %s: %d (have %d)", e.Feature, e.Limit, e.Actual)
}

// IsLimitExceeded reports whether err is a LimitExceededError.
// Uses errors.As to handle wrapped errors.
func IsLimitExceeded(err error) bool {
	var le *LimitExceededError
	return errors.As(err, &le)
}

// PartialCommitError is returned when the commit row was persisted but the
// per-origin fan-out (version creation, lock release) did not fully
// complete. The commit and any versions already written remain valid; the
// remaining origins keep their locks.
type PartialCommitError struct {
	CommitID string
	Err      error
}

func (e *PartialCommitError) Error() string {
	return fmt.Sprintf("commit %s persisted but not fully applied: %v", e.CommitID, e.Err)
}

func (e *PartialCommitError) Unwrap() error {
	return e.Err
}

// IsPartialCommit reports whether err is a PartialCommitError.
func IsPartialCommit(err error) bool {
	var pe *PartialCommitError
	return errors.As(err, &pe)
}

// Package tracker discovers pending changes: the set of origins (entities
// and blocks) holding uncommitted edits attributable to one user in one
// project. Discovery is read-only; the commit and discard coordinators act
// on its results.
package tracker

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/slipway/internal/model"
)

// ChangeSource reads changed origins from persistent state.
// *store.Store satisfies this.
type ChangeSource interface {
	ChangedEntities(ctx context.Context, projectID, userID string) ([]model.ChangedOrigin, error)
	ChangedBlocks(ctx context.Context, projectID, userID string) ([]model.ChangedOrigin, error)
}

// Tracker aggregates changed entities and blocks for a project/user pair.
type Tracker struct {
	source ChangeSource
}

// New creates a Tracker over the given change source.
func New(source ChangeSource) *Tracker {
	return &Tracker{source: source}
}

// GetChangedEntities returns the entities with uncommitted edits held by
// the user in the project. The caller is responsible for access filtering;
// the tracker trusts its inputs.
func (t *Tracker) GetChangedEntities(ctx context.Context, projectID, userID string) ([]model.ChangedOrigin, error) {
	return t.source.ChangedEntities(ctx, projectID, userID)
}

// GetChangedBlocks returns the blocks with uncommitted edits held by the
// user in the project.
func (t *Tracker) GetChangedBlocks(ctx context.Context, projectID, userID string) ([]model.ChangedOrigin, error) {
	return t.source.ChangedBlocks(ctx, projectID, userID)
}

// PendingChanges runs entity and block discovery concurrently and returns
// the two disjoint lists. Either list may be empty; both empty means the
// user has nothing pending.
func (t *Tracker) PendingChanges(ctx context.Context, projectID, userID string) (entities, blocks []model.ChangedOrigin, err error) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		entities, err = t.source.ChangedEntities(gctx, projectID, userID)
		return err
	})
	g.Go(func() error {
		var err error
		blocks, err = t.source.ChangedBlocks(gctx, projectID, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return entities, blocks, nil
}

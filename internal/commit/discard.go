package commit

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/slipway/internal/model"
)

// DiscardArgs identifies whose pending changes to discard.
type DiscardArgs struct {
	ProjectID string
	UserID    string
}

// DiscardPendingChanges reverts every origin changed by the user in the
// project to its last committed state and releases its lock.
//
// Blocks are reverted fully before entities begin, so an entity revert
// never observes half-reverted block state. Within each group the reverts
// run concurrently and fail fast: the first failing origin aborts the
// group, already-reverted origins stay reverted, and no compensation is
// attempted.
//
// Fails with ErrAccessOrNotFound when the user has no accessible resources
// in the project and ErrNoPendingChanges when there is nothing to discard.
func (c *Coordinator) DiscardPendingChanges(ctx context.Context, args DiscardArgs) error {
	resources, err := c.store.ListAccessibleResources(ctx, args.ProjectID, args.UserID)
	if err != nil {
		return fmt.Errorf("resolve resources: %w", err)
	}
	if len(resources) == 0 {
		return ErrAccessOrNotFound
	}

	changedEntities, changedBlocks, err := c.tracker.PendingChanges(ctx, args.ProjectID, args.UserID)
	if err != nil {
		return fmt.Errorf("aggregate pending changes: %w", err)
	}
	if len(changedEntities) == 0 && len(changedBlocks) == 0 {
		return ErrNoPendingChanges
	}

	if err := c.revertGroup(ctx, changedBlocks, args.UserID); err != nil {
		return fmt.Errorf("discard blocks: %w", err)
	}
	if err := c.revertGroup(ctx, changedEntities, args.UserID); err != nil {
		return fmt.Errorf("discard entities: %w", err)
	}

	c.log.Info("pending changes discarded",
		"project_id", args.ProjectID,
		"user_id", args.UserID,
		"entities", len(changedEntities),
		"blocks", len(changedBlocks))
	return nil
}

// revertGroup reverts one group of changed origins concurrently. Each
// origin's revert is atomic (restore + lock release in one transaction);
// the group as a whole is not.
func (c *Coordinator) revertGroup(ctx context.Context, changes []model.ChangedOrigin, userID string) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, change := range changes {
		g.Go(func() error {
			switch change.OriginType {
			case model.OriginTypeBlock:
				return c.store.DiscardBlockChanges(gctx, change.OriginID, userID)
			default:
				return c.store.DiscardEntityChanges(gctx, change.OriginID, userID)
			}
		})
	}
	return g.Wait()
}

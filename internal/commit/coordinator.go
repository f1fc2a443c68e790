// Package commit orchestrates the two terminal operations on a user's
// pending changes: committing them into an immutable snapshot and
// discarding them back to the last committed state.
//
// A commit runs as a single request-scoped workflow:
//
//  1. Resolve the resources accessible to the user (access gate)
//  2. Validate plan limits when billing is enabled (before any mutation)
//  3. Aggregate changed entities and blocks concurrently
//  4. Persist the commit row
//  5. Report build usage (best-effort)
//  6. Per changed origin, concurrently: materialize a version and release
//     the lock
//  7. Dispatch one build per non-configuration resource (best-effort)
//
// Steps 1-3 fail without side effects. Failures in step 6 surface as
// *PartialCommitError: the commit row exists but some versions or locks were
// not processed; there is no surrounding transaction across origins. Step 7
// failures are logged and never fail the commit.
package commit

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/slipway/internal/billing"
	"github.com/roach88/slipway/internal/build"
	"github.com/roach88/slipway/internal/model"
	"github.com/roach88/slipway/internal/store"
	"github.com/roach88/slipway/internal/tracker"
)

// Coordinator runs commit and discard workflows over a store.
type Coordinator struct {
	store          *store.Store
	tracker        *tracker.Tracker
	gate           billing.Gate
	dispatcher     build.Dispatcher
	ids            IDGenerator
	log            *slog.Logger
	billingEnabled bool
}

// Config wires a Coordinator. Store, Tracker and Dispatcher are required;
// Gate defaults to billing.Disabled, IDs to UUIDv7Generator and Logger to
// slog.Default.
type Config struct {
	Store          *store.Store
	Tracker        *tracker.Tracker
	Gate           billing.Gate
	Dispatcher     build.Dispatcher
	IDs            IDGenerator
	Logger         *slog.Logger
	BillingEnabled bool
}

// New creates a Coordinator from the config.
func New(cfg Config) *Coordinator {
	c := &Coordinator{
		store:          cfg.Store,
		tracker:        cfg.Tracker,
		gate:           cfg.Gate,
		dispatcher:     cfg.Dispatcher,
		ids:            cfg.IDs,
		log:            cfg.Logger,
		billingEnabled: cfg.BillingEnabled,
	}
	if c.gate == nil {
		c.gate = billing.Disabled{}
	}
	if c.ids == nil {
		c.ids = UUIDv7Generator{}
	}
	if c.log == nil {
		c.log = slog.Default()
	}
	return c
}

// CommitArgs identifies whose pending changes to commit and the commit
// message.
type CommitArgs struct {
	ProjectID string
	UserID    string
	Message   string
}

// Commit freezes the user's pending changes in the project into an
// immutable commit: one version per changed origin, all locks released,
// one build dispatched per non-configuration resource.
//
// skipPublish is forwarded unchanged to every build request.
//
// An empty changeset is not an error: the commit row is still created with
// zero versions, and builds are still dispatched.
func (c *Coordinator) Commit(ctx context.Context, args CommitArgs, skipPublish bool) (*model.Commit, error) {
	resources, err := c.store.ListAccessibleResources(ctx, args.ProjectID, args.UserID)
	if err != nil {
		return nil, fmt.Errorf("resolve resources: %w", err)
	}
	if len(resources) == 0 {
		return nil, ErrAccessOrNotFound
	}

	project, err := c.store.GetProject(ctx, args.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("load project: %w", err)
	}

	if c.billingEnabled {
		ignore, err := c.gate.GetBooleanEntitlement(ctx, project.WorkspaceID, billing.FeatureIgnoreValidation)
		if err != nil {
			return nil, fmt.Errorf("check validation entitlement: %w", err)
		}
		if !ignore.HasAccess {
			if err := c.validatePlanLimits(ctx, project); err != nil {
				return nil, err
			}
		}
	}

	changedEntities, changedBlocks, err := c.tracker.PendingChanges(ctx, args.ProjectID, args.UserID)
	if err != nil {
		return nil, fmt.Errorf("aggregate pending changes: %w", err)
	}

	message := norm.NFC.String(strings.TrimSpace(args.Message))
	cm, err := c.store.CreateCommit(ctx, c.ids.NewID(), args.ProjectID, args.UserID, message)
	if err != nil {
		return nil, fmt.Errorf("persist commit: %w", err)
	}
	c.log.Info("commit created",
		"commit_id", cm.ID,
		"project_id", args.ProjectID,
		"user_id", args.UserID,
		"entities", len(changedEntities),
		"blocks", len(changedBlocks))

	if c.billingEnabled {
		if err := c.gate.ReportUsage(ctx, project.WorkspaceID, billing.FeatureCodeGenerationBuilds); err != nil {
			c.log.Warn("usage reporting failed", "workspace_id", project.WorkspaceID, "error", err)
		}
	}

	if err := c.materializeEntities(ctx, cm.ID, changedEntities); err != nil {
		return cm, &PartialCommitError{CommitID: cm.ID, Err: err}
	}
	if err := c.materializeBlocks(ctx, cm.ID, changedBlocks); err != nil {
		return cm, &PartialCommitError{CommitID: cm.ID, Err: err}
	}

	var reqs []build.Request
	for _, res := range resources {
		if res.ResourceType == model.ResourceTypeProjectConfiguration {
			continue
		}
		reqs = append(reqs, build.Request{
			ResourceID:  res.ID,
			CommitID:    cm.ID,
			UserID:      args.UserID,
			Message:     message,
			SkipPublish: skipPublish,
		})
	}
	if err := build.SubmitAll(ctx, c.dispatcher, reqs); err != nil {
		c.log.Error("build dispatch incomplete", "commit_id", cm.ID, "error", err)
	}

	return cm, nil
}

// materializeEntities creates one version per changed entity and releases
// each entity's lock. Version creation and lock release for one entity run
// in parallel with each other and with every other entity's pair; the whole
// group is joined before returning.
func (c *Coordinator) materializeEntities(ctx context.Context, commitID string, changes []model.ChangedOrigin) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, change := range changes {
		originID := change.OriginID
		versionID := c.ids.NewID()
		g.Go(func() error {
			_, err := c.store.CreateEntityVersion(gctx, versionID, commitID, originID)
			return err
		})
		g.Go(func() error {
			return c.store.ReleaseEntityLock(gctx, originID)
		})
	}
	return g.Wait()
}

// materializeBlocks is the block counterpart of materializeEntities.
func (c *Coordinator) materializeBlocks(ctx context.Context, commitID string, changes []model.ChangedOrigin) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, change := range changes {
		originID := change.OriginID
		versionID := c.ids.NewID()
		g.Go(func() error {
			_, err := c.store.CreateBlockVersion(gctx, versionID, commitID, originID)
			return err
		})
		g.Go(func() error {
			return c.store.ReleaseBlockLock(gctx, originID)
		})
	}
	return g.Wait()
}

// validatePlanLimits enforces the workspace's plan before a commit mutates
// anything. The service count is checked workspace-wide; the entity count
// is checked per service of this project only.
func (c *Coordinator) validatePlanLimits(ctx context.Context, project *model.Project) error {
	services, err := c.gate.GetMeteredEntitlement(ctx, project.WorkspaceID, billing.FeatureServices)
	if err != nil {
		return fmt.Errorf("services entitlement: %w", err)
	}
	if !services.HasAccess {
		return &LimitExceededError{
			Feature: billing.FeatureServices,
			Limit:   services.UsageLimit,
			Actual:  services.Usage,
		}
	}

	entitiesPerService, err := c.gate.GetNumericEntitlement(ctx, project.WorkspaceID, billing.FeatureEntitiesPerService)
	if err != nil {
		return fmt.Errorf("entities-per-service entitlement: %w", err)
	}
	if entitiesPerService.Value < 0 {
		return nil
	}

	counts, err := c.store.ServiceEntityCounts(ctx, project.ID)
	if err != nil {
		return fmt.Errorf("service entity counts: %w", err)
	}
	for _, sc := range counts {
		if sc.EntityCount > entitiesPerService.Value {
			return &LimitExceededError{
				Feature: billing.FeatureEntitiesPerService,
				Limit:   entitiesPerService.Value,
				Actual:  sc.EntityCount,
			}
		}
	}
	return nil
}

// PendingChanges returns every origin changed by the user in the project,
// entities first, together with the accessible resources the access check
// already resolved so callers need no second read. Read-only; fails with
// ErrAccessOrNotFound when the user has no accessible resources in the
// project.
func (c *Coordinator) PendingChanges(ctx context.Context, projectID, userID string) ([]model.ChangedOrigin, []model.Resource, error) {
	resources, err := c.store.ListAccessibleResources(ctx, projectID, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve resources: %w", err)
	}
	if len(resources) == 0 {
		return nil, nil, ErrAccessOrNotFound
	}

	entities, blocks, err := c.tracker.PendingChanges(ctx, projectID, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("aggregate pending changes: %w", err)
	}
	return append(entities, blocks...), resources, nil
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/slipway/internal/model"
)

// SetSubscription records the workspace's plan, replacing any existing one.
func (s *Store) SetSubscription(ctx context.Context, workspaceID, plan string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO subscriptions (workspace_id, plan, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(workspace_id) DO UPDATE SET plan = excluded.plan
	`, workspaceID, plan, now())
	if err != nil {
		return fmt.Errorf("set subscription: %w", err)
	}
	return nil
}

// SubscriptionPlan returns the workspace's plan name. Returns
// model.ErrNotFound if the workspace has no subscription row.
func (s *Store) SubscriptionPlan(ctx context.Context, workspaceID string) (string, error) {
	var plan string
	err := s.db.QueryRowContext(ctx, `
		SELECT plan FROM subscriptions WHERE workspace_id = ?
	`, workspaceID).Scan(&plan)
	if errors.Is(err, sql.ErrNoRows) {
		return "", model.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("subscription plan: %w", err)
	}
	return plan, nil
}

// WorkspaceServiceCount counts non-deleted service-type resources across all
// non-deleted projects of the workspace. Used for the services-per-workspace
// entitlement check.
func (s *Store) WorkspaceServiceCount(ctx context.Context, workspaceID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM resources r
		JOIN projects p ON p.id = r.project_id
		WHERE p.workspace_id = ?
		  AND p.deleted_at IS NULL
		  AND r.deleted_at IS NULL
		  AND r.resource_type = ?
	`, workspaceID, model.ResourceTypeService).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("workspace service count: %w", err)
	}
	return count, nil
}

// ServiceEntityCount is the number of non-deleted entities in one
// service-type resource of the project under validation.
type ServiceEntityCount struct {
	ResourceID   string
	ResourceName string
	EntityCount  int
}

// ServiceEntityCounts returns, for every non-deleted service-type resource
// in the project, the count of its non-deleted entities. Used for the
// entities-per-service entitlement check; only the current project's
// services are inspected.
func (s *Store) ServiceEntityCounts(ctx context.Context, projectID string) ([]ServiceEntityCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.name, COUNT(e.id)
		FROM resources r
		LEFT JOIN entities e ON e.resource_id = r.id AND e.deleted = 0
		WHERE r.project_id = ?
		  AND r.deleted_at IS NULL
		  AND r.resource_type = ?
		GROUP BY r.id, r.name
		ORDER BY r.name ASC, r.id ASC
	`, projectID, model.ResourceTypeService)
	if err != nil {
		return nil, fmt.Errorf("service entity counts: %w", err)
	}
	defer rows.Close()

	var out []ServiceEntityCount
	for rows.Next() {
		var c ServiceEntityCount
		if err := rows.Scan(&c.ResourceID, &c.ResourceName, &c.EntityCount); err != nil {
			return nil, fmt.Errorf("scan service entity count: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate service entity counts: %w", err)
	}
	return out, nil
}

// AddUsageEvent appends one usage unit for a feature to the workspace's
// usage ledger.
func (s *Store) AddUsageEvent(ctx context.Context, id, workspaceID, feature string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO usage_events (id, workspace_id, feature, created_at)
		VALUES (?, ?, ?, ?)
	`, id, workspaceID, feature, now())
	if err != nil {
		return fmt.Errorf("add usage event: %w", err)
	}
	return nil
}

// UsageCount returns the number of usage events recorded for a workspace
// and feature.
func (s *Store) UsageCount(ctx context.Context, workspaceID, feature string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM usage_events WHERE workspace_id = ? AND feature = ?
	`, workspaceID, feature).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("usage count: %w", err)
	}
	return count, nil
}

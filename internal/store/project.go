package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/slipway/internal/model"
)

// CreateWorkspace inserts a workspace row.
func (s *Store) CreateWorkspace(ctx context.Context, id, name string) (*model.Workspace, error) {
	ws := &model.Workspace{ID: id, Name: name, CreatedAt: now()}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO workspaces (id, name, created_at) VALUES (?, ?, ?)
	`, ws.ID, ws.Name, ws.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	return ws, nil
}

// AddWorkspaceUser records workspace membership for a user.
// Adding an existing member is a no-op.
func (s *Store) AddWorkspaceUser(ctx context.Context, workspaceID, userID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO workspace_users (workspace_id, user_id) VALUES (?, ?)
		ON CONFLICT DO NOTHING
	`, workspaceID, userID)
	if err != nil {
		return fmt.Errorf("add workspace user: %w", err)
	}
	return nil
}

// CreateProject inserts a project row.
func (s *Store) CreateProject(ctx context.Context, id, workspaceID, name string) (*model.Project, error) {
	p := &model.Project{ID: id, WorkspaceID: workspaceID, Name: name, CreatedAt: now()}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO projects (id, workspace_id, name, created_at) VALUES (?, ?, ?, ?)
	`, p.ID, p.WorkspaceID, p.Name, p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	return p, nil
}

// GetProject returns a project by id, including soft-deleted projects.
// Returns model.ErrNotFound if no row exists.
func (s *Store) GetProject(ctx context.Context, id string) (*model.Project, error) {
	var p model.Project
	var deletedAt sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		SELECT id, workspace_id, name, created_at, deleted_at
		FROM projects WHERE id = ?
	`, id).Scan(&p.ID, &p.WorkspaceID, &p.Name, &p.CreatedAt, &deletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	if deletedAt.Valid {
		t := deletedAt.Time
		p.DeletedAt = &t
	}
	return &p, nil
}

// CreateResource inserts a resource row.
func (s *Store) CreateResource(ctx context.Context, id, projectID, name string, resourceType model.ResourceType) (*model.Resource, error) {
	r := &model.Resource{
		ID:           id,
		ProjectID:    projectID,
		Name:         name,
		ResourceType: resourceType,
		CreatedAt:    now(),
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO resources (id, project_id, name, resource_type, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, r.ID, r.ProjectID, r.Name, r.ResourceType, r.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}
	return r, nil
}

// ListAccessibleResources returns the non-deleted resources of a non-deleted
// project whose workspace the user is a member of. An empty result means the
// user/project combination grants access to nothing; callers treat that as
// an access failure.
//
// Results are ordered by name, id for deterministic output.
func (s *Store) ListAccessibleResources(ctx context.Context, projectID, userID string) ([]model.Resource, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.project_id, r.name, r.resource_type, r.created_at
		FROM resources r
		JOIN projects p ON p.id = r.project_id
		JOIN workspace_users wu ON wu.workspace_id = p.workspace_id
		WHERE r.project_id = ?
		  AND r.deleted_at IS NULL
		  AND p.deleted_at IS NULL
		  AND wu.user_id = ?
		ORDER BY r.name ASC, r.id ASC
	`, projectID, userID)
	if err != nil {
		return nil, fmt.Errorf("list accessible resources: %w", err)
	}
	defer rows.Close()

	return scanResources(rows)
}

// ListProjectResources returns all non-deleted resources in a project,
// without an access filter. Used by seeding and diagnostics.
func (s *Store) ListProjectResources(ctx context.Context, projectID string) ([]model.Resource, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, project_id, name, resource_type, created_at
		FROM resources
		WHERE project_id = ? AND deleted_at IS NULL
		ORDER BY name ASC, id ASC
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list project resources: %w", err)
	}
	defer rows.Close()

	return scanResources(rows)
}

func scanResources(rows *sql.Rows) ([]model.Resource, error) {
	var out []model.Resource
	for rows.Next() {
		var r model.Resource
		if err := rows.Scan(&r.ID, &r.ProjectID, &r.Name, &r.ResourceType, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan resource: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate resources: %w", err)
	}
	return out, nil
}

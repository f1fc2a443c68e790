package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/slipway/internal/model"
)

// CreateCommit inserts an immutable commit row and returns it.
func (s *Store) CreateCommit(ctx context.Context, id, projectID, userID, message string) (*model.Commit, error) {
	c := &model.Commit{
		ID:        id,
		ProjectID: projectID,
		UserID:    userID,
		Message:   message,
		CreatedAt: now(),
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO commits (id, project_id, user_id, message, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, c.ID, c.ProjectID, c.UserID, c.Message, c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create commit: %w", err)
	}
	return c, nil
}

// FindCommit returns a commit by id. Returns model.ErrNotFound if missing.
func (s *Store) FindCommit(ctx context.Context, id string) (*model.Commit, error) {
	var c model.Commit
	err := s.db.QueryRowContext(ctx, `
		SELECT id, project_id, user_id, message, created_at
		FROM commits WHERE id = ?
	`, id).Scan(&c.ID, &c.ProjectID, &c.UserID, &c.Message, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find commit: %w", err)
	}
	return &c, nil
}

// ListCommits returns a project's commits, newest first.
func (s *Store) ListCommits(ctx context.Context, projectID string) ([]model.Commit, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, project_id, user_id, message, created_at
		FROM commits
		WHERE project_id = ?
		ORDER BY created_at DESC, id DESC
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list commits: %w", err)
	}
	defer rows.Close()

	var out []model.Commit
	for rows.Next() {
		var c model.Commit
		if err := rows.Scan(&c.ID, &c.ProjectID, &c.UserID, &c.Message, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan commit: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate commits: %w", err)
	}
	return out, nil
}

// ListVersionsForCommit returns every version (entity and block) bound to
// the commit, block versions first, each group ordered by origin id.
func (s *Store) ListVersionsForCommit(ctx context.Context, commitID string) ([]model.Version, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, entity_id, 'entity', commit_id, version_number, name, fields, deleted, created_at
		FROM entity_versions WHERE commit_id = ?
		UNION ALL
		SELECT id, block_id, 'block', commit_id, version_number, name, settings, deleted, created_at
		FROM block_versions WHERE commit_id = ?
		ORDER BY 3 ASC, 2 ASC
	`, commitID, commitID)
	if err != nil {
		return nil, fmt.Errorf("list versions for commit: %w", err)
	}
	defer rows.Close()

	var out []model.Version
	for rows.Next() {
		var v model.Version
		if err := rows.Scan(&v.ID, &v.OriginID, &v.OriginType, &v.CommitID,
			&v.VersionNumber, &v.Name, &v.Data, &v.Deleted, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan version: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate versions: %w", err)
	}
	return out, nil
}

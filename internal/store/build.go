package store

import (
	"context"
	"fmt"

	"github.com/roach88/slipway/internal/model"
)

// CreateBuild appends a pending build-job row for one resource and commit.
// The build pipeline consumes these rows; this module only produces them.
func (s *Store) CreateBuild(ctx context.Context, b model.Build) (*model.Build, error) {
	b.Status = model.BuildStatusPending
	b.CreatedAt = now()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO builds (id, resource_id, commit_id, user_id, message, skip_publish, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, b.ID, b.ResourceID, b.CommitID, b.UserID, b.Message, b.SkipPublish, b.Status, b.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create build: %w", err)
	}
	return &b, nil
}

// ListBuildsForCommit returns the build jobs dispatched for a commit,
// ordered by resource id.
func (s *Store) ListBuildsForCommit(ctx context.Context, commitID string) ([]model.Build, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, resource_id, commit_id, user_id, message, skip_publish, status, created_at
		FROM builds
		WHERE commit_id = ?
		ORDER BY resource_id ASC, id ASC
	`, commitID)
	if err != nil {
		return nil, fmt.Errorf("list builds for commit: %w", err)
	}
	defer rows.Close()

	var out []model.Build
	for rows.Next() {
		var b model.Build
		if err := rows.Scan(&b.ID, &b.ResourceID, &b.CommitID, &b.UserID,
			&b.Message, &b.SkipPublish, &b.Status, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan build: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate builds: %w", err)
	}
	return out, nil
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/slipway/internal/model"
)

// CreateBlock inserts a new block locked by the creating user. Creation is
// an edit: the lock is held until the block is committed or discarded.
func (s *Store) CreateBlock(ctx context.Context, id, resourceID, blockType, name, settings, userID string) (*model.Block, error) {
	ts := now()
	b := &model.Block{
		ID:             id,
		ResourceID:     resourceID,
		BlockType:      blockType,
		Name:           name,
		Settings:       settings,
		LockedByUserID: &userID,
		LockedAt:       &ts,
		CreatedAt:      ts,
		UpdatedAt:      ts,
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO blocks
		(id, resource_id, block_type, name, settings, locked_by_user_id, locked_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, b.ID, b.ResourceID, b.BlockType, b.Name, b.Settings, userID, ts, ts, ts)
	if err != nil {
		return nil, fmt.Errorf("create block: %w", err)
	}
	return b, nil
}

// GetBlock returns a block by id. Returns model.ErrNotFound if missing.
func (s *Store) GetBlock(ctx context.Context, id string) (*model.Block, error) {
	var b model.Block
	var lockedBy sql.NullString
	var lockedAt sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		SELECT id, resource_id, block_type, name, settings, locked_by_user_id,
		       locked_at, deleted, created_at, updated_at
		FROM blocks WHERE id = ?
	`, id).Scan(&b.ID, &b.ResourceID, &b.BlockType, &b.Name, &b.Settings,
		&lockedBy, &lockedAt, &b.Deleted, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get block: %w", err)
	}
	if lockedBy.Valid {
		v := lockedBy.String
		b.LockedByUserID = &v
	}
	if lockedAt.Valid {
		t := lockedAt.Time
		b.LockedAt = &t
	}
	return &b, nil
}

// UpdateBlock updates the working copy of a block, acquiring its lock for
// the editing user first. Returns model.ErrLockHeld if another user holds
// the lock.
func (s *Store) UpdateBlock(ctx context.Context, id, userID, name, settings string) error {
	if err := s.AcquireBlockLock(ctx, id, userID); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		UPDATE blocks SET name = ?, settings = ?, updated_at = ? WHERE id = ?
	`, name, settings, now(), id)
	if err != nil {
		return fmt.Errorf("update block: %w", err)
	}
	return nil
}

// DeleteBlock marks a block deleted, acquiring its lock for the editing
// user first.
func (s *Store) DeleteBlock(ctx context.Context, id, userID string) error {
	if err := s.AcquireBlockLock(ctx, id, userID); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		UPDATE blocks SET deleted = 1, updated_at = ? WHERE id = ?
	`, now(), id)
	if err != nil {
		return fmt.Errorf("delete block: %w", err)
	}
	return nil
}

// AcquireBlockLock sets the lock holder if the block is unlocked or already
// held by the same user. Returns model.ErrLockHeld if another user holds
// the lock, model.ErrNotFound if the block does not exist.
func (s *Store) AcquireBlockLock(ctx context.Context, id, userID string) error {
	return s.acquireLock(ctx, "blocks", id, userID)
}

// ReleaseBlockLock clears the lock holder unconditionally. Idempotent:
// releasing an unlocked block is a no-op. Returns model.ErrNotFound if the
// block does not exist.
func (s *Store) ReleaseBlockLock(ctx context.Context, id string) error {
	return s.releaseLock(ctx, "blocks", id)
}

// ChangedBlocks returns one ChangedOrigin per block in the project whose
// lock is held by the user, classified the same way as ChangedEntities.
func (s *Store) ChangedBlocks(ctx context.Context, projectID, userID string) ([]model.ChangedOrigin, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT b.id, b.resource_id,
		       CASE
		           WHEN b.deleted = 1 THEN 'delete'
		           WHEN NOT EXISTS (SELECT 1 FROM block_versions v WHERE v.block_id = b.id) THEN 'create'
		           ELSE 'update'
		       END AS change_type
		FROM blocks b
		JOIN resources r ON r.id = b.resource_id
		WHERE r.project_id = ?
		  AND r.deleted_at IS NULL
		  AND b.locked_by_user_id = ?
		ORDER BY b.created_at ASC, b.id ASC
	`, projectID, userID)
	if err != nil {
		return nil, fmt.Errorf("changed blocks: %w", err)
	}
	defer rows.Close()

	var out []model.ChangedOrigin
	for rows.Next() {
		c := model.ChangedOrigin{OriginType: model.OriginTypeBlock}
		if err := rows.Scan(&c.OriginID, &c.ResourceID, &c.ChangeType); err != nil {
			return nil, fmt.Errorf("scan changed block: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate changed blocks: %w", err)
	}
	return out, nil
}

// CreateBlockVersion snapshots the block's current settings into an
// immutable version row bound to the commit. Called exactly once per
// changed block per commit by the coordinator.
func (s *Store) CreateBlockVersion(ctx context.Context, versionID, commitID, blockID string) (*model.Version, error) {
	var v *model.Version
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var name, settings string
		var deleted bool
		err := tx.QueryRowContext(ctx, `
			SELECT name, settings, deleted FROM blocks WHERE id = ?
		`, blockID).Scan(&name, &settings, &deleted)
		if errors.Is(err, sql.ErrNoRows) {
			return model.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("read block: %w", err)
		}

		var next int
		if err := tx.QueryRowContext(ctx, `
			SELECT COALESCE(MAX(version_number), 0) + 1 FROM block_versions WHERE block_id = ?
		`, blockID).Scan(&next); err != nil {
			return fmt.Errorf("next version number: %w", err)
		}

		ts := now()
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO block_versions
			(id, block_id, commit_id, version_number, name, settings, deleted, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, versionID, blockID, commitID, next, name, settings, deleted, ts); err != nil {
			return fmt.Errorf("insert block version: %w", err)
		}

		v = &model.Version{
			ID:            versionID,
			OriginID:      blockID,
			OriginType:    model.OriginTypeBlock,
			CommitID:      commitID,
			VersionNumber: next,
			Name:          name,
			Data:          settings,
			Deleted:       deleted,
			CreatedAt:     ts,
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create block version: %w", err)
	}
	return v, nil
}

// DiscardBlockChanges reverts a block to its last committed state and
// releases its lock, atomically. A block with no committed version is
// removed entirely.
func (s *Store) DiscardBlockChanges(ctx context.Context, id, userID string) error {
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var lockedBy sql.NullString
		err := tx.QueryRowContext(ctx, `
			SELECT locked_by_user_id FROM blocks WHERE id = ?
		`, id).Scan(&lockedBy)
		if errors.Is(err, sql.ErrNoRows) {
			return model.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("read block lock: %w", err)
		}
		if lockedBy.Valid && lockedBy.String != userID {
			return model.ErrLockHeld
		}

		var name, settings string
		var deleted bool
		err = tx.QueryRowContext(ctx, `
			SELECT name, settings, deleted FROM block_versions
			WHERE block_id = ?
			ORDER BY version_number DESC LIMIT 1
		`, id).Scan(&name, &settings, &deleted)
		if errors.Is(err, sql.ErrNoRows) {
			if _, err := tx.ExecContext(ctx, `DELETE FROM blocks WHERE id = ?`, id); err != nil {
				return fmt.Errorf("remove uncommitted block: %w", err)
			}
			return nil
		}
		if err != nil {
			return fmt.Errorf("read last committed block version: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE blocks
			SET name = ?, settings = ?, deleted = ?,
			    locked_by_user_id = NULL, locked_at = NULL, updated_at = ?
			WHERE id = ?
		`, name, settings, deleted, now(), id); err != nil {
			return fmt.Errorf("restore block: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, model.ErrNotFound) || errors.Is(err, model.ErrLockHeld) {
			return err
		}
		return fmt.Errorf("discard block changes: %w", err)
	}
	return nil
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/slipway/internal/model"
)

// CreateEntity inserts a new entity locked by the creating user. Creation is
// an edit: the lock is held until the entity is committed or discarded.
func (s *Store) CreateEntity(ctx context.Context, id, resourceID, name, fields, userID string) (*model.Entity, error) {
	ts := now()
	e := &model.Entity{
		ID:             id,
		ResourceID:     resourceID,
		Name:           name,
		Fields:         fields,
		LockedByUserID: &userID,
		LockedAt:       &ts,
		CreatedAt:      ts,
		UpdatedAt:      ts,
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO entities
		(id, resource_id, name, fields, locked_by_user_id, locked_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.ResourceID, e.Name, e.Fields, userID, ts, ts, ts)
	if err != nil {
		return nil, fmt.Errorf("create entity: %w", err)
	}
	return e, nil
}

// GetEntity returns an entity by id. Returns model.ErrNotFound if missing.
func (s *Store) GetEntity(ctx context.Context, id string) (*model.Entity, error) {
	var e model.Entity
	var lockedBy sql.NullString
	var lockedAt sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		SELECT id, resource_id, name, fields, locked_by_user_id, locked_at,
		       deleted, created_at, updated_at
		FROM entities WHERE id = ?
	`, id).Scan(&e.ID, &e.ResourceID, &e.Name, &e.Fields, &lockedBy, &lockedAt,
		&e.Deleted, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get entity: %w", err)
	}
	if lockedBy.Valid {
		v := lockedBy.String
		e.LockedByUserID = &v
	}
	if lockedAt.Valid {
		t := lockedAt.Time
		e.LockedAt = &t
	}
	return &e, nil
}

// UpdateEntity updates the working copy of an entity, acquiring its lock for
// the editing user first. Returns model.ErrLockHeld if another user holds
// the lock.
func (s *Store) UpdateEntity(ctx context.Context, id, userID, name, fields string) error {
	if err := s.AcquireEntityLock(ctx, id, userID); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		UPDATE entities SET name = ?, fields = ?, updated_at = ? WHERE id = ?
	`, name, fields, now(), id)
	if err != nil {
		return fmt.Errorf("update entity: %w", err)
	}
	return nil
}

// DeleteEntity marks an entity deleted, acquiring its lock for the editing
// user first. The row survives so the deletion can be committed as a
// delete-type change or discarded.
func (s *Store) DeleteEntity(ctx context.Context, id, userID string) error {
	if err := s.AcquireEntityLock(ctx, id, userID); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		UPDATE entities SET deleted = 1, updated_at = ? WHERE id = ?
	`, now(), id)
	if err != nil {
		return fmt.Errorf("delete entity: %w", err)
	}
	return nil
}

// AcquireEntityLock sets the lock holder if the entity is unlocked or
// already held by the same user. Returns model.ErrLockHeld if another user
// holds the lock, model.ErrNotFound if the entity does not exist.
func (s *Store) AcquireEntityLock(ctx context.Context, id, userID string) error {
	return s.acquireLock(ctx, "entities", id, userID)
}

// ReleaseEntityLock clears the lock holder unconditionally. Idempotent:
// releasing an unlocked entity is a no-op. Returns model.ErrNotFound if the
// entity does not exist.
func (s *Store) ReleaseEntityLock(ctx context.Context, id string) error {
	return s.releaseLock(ctx, "entities", id)
}

// ChangedEntities returns one ChangedOrigin per entity in the project whose
// lock is held by the user. Change type is derived from row state: delete if
// the deleted flag is set, create if no committed version exists, otherwise
// update.
func (s *Store) ChangedEntities(ctx context.Context, projectID, userID string) ([]model.ChangedOrigin, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT e.id, e.resource_id,
		       CASE
		           WHEN e.deleted = 1 THEN 'delete'
		           WHEN NOT EXISTS (SELECT 1 FROM entity_versions v WHERE v.entity_id = e.id) THEN 'create'
		           ELSE 'update'
		       END AS change_type
		FROM entities e
		JOIN resources r ON r.id = e.resource_id
		WHERE r.project_id = ?
		  AND r.deleted_at IS NULL
		  AND e.locked_by_user_id = ?
		ORDER BY e.created_at ASC, e.id ASC
	`, projectID, userID)
	if err != nil {
		return nil, fmt.Errorf("changed entities: %w", err)
	}
	defer rows.Close()

	var out []model.ChangedOrigin
	for rows.Next() {
		c := model.ChangedOrigin{OriginType: model.OriginTypeEntity}
		if err := rows.Scan(&c.OriginID, &c.ResourceID, &c.ChangeType); err != nil {
			return nil, fmt.Errorf("scan changed entity: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate changed entities: %w", err)
	}
	return out, nil
}

// CreateEntityVersion snapshots the entity's current field state into an
// immutable version row bound to the commit. Version numbers start at 1 and
// increase by one per commit of the entity.
//
// No duplicate guard exists for a (commit, entity) pair at this layer; the
// commit coordinator calls this exactly once per changed entity.
func (s *Store) CreateEntityVersion(ctx context.Context, versionID, commitID, entityID string) (*model.Version, error) {
	var v *model.Version
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var name, fields string
		var deleted bool
		err := tx.QueryRowContext(ctx, `
			SELECT name, fields, deleted FROM entities WHERE id = ?
		`, entityID).Scan(&name, &fields, &deleted)
		if errors.Is(err, sql.ErrNoRows) {
			return model.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("read entity: %w", err)
		}

		var next int
		if err := tx.QueryRowContext(ctx, `
			SELECT COALESCE(MAX(version_number), 0) + 1 FROM entity_versions WHERE entity_id = ?
		`, entityID).Scan(&next); err != nil {
			return fmt.Errorf("next version number: %w", err)
		}

		ts := now()
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO entity_versions
			(id, entity_id, commit_id, version_number, name, fields, deleted, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, versionID, entityID, commitID, next, name, fields, deleted, ts); err != nil {
			return fmt.Errorf("insert entity version: %w", err)
		}

		v = &model.Version{
			ID:            versionID,
			OriginID:      entityID,
			OriginType:    model.OriginTypeEntity,
			CommitID:      commitID,
			VersionNumber: next,
			Name:          name,
			Data:          fields,
			Deleted:       deleted,
			CreatedAt:     ts,
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create entity version: %w", err)
	}
	return v, nil
}

// DiscardEntityChanges reverts an entity to its last committed state and
// releases its lock, atomically. An entity with no committed version is
// removed entirely (its creation was never committed).
//
// Returns model.ErrNotFound for a missing entity and model.ErrLockHeld if
// the lock is held by a different user than the one discarding.
func (s *Store) DiscardEntityChanges(ctx context.Context, id, userID string) error {
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var lockedBy sql.NullString
		err := tx.QueryRowContext(ctx, `
			SELECT locked_by_user_id FROM entities WHERE id = ?
		`, id).Scan(&lockedBy)
		if errors.Is(err, sql.ErrNoRows) {
			return model.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("read entity lock: %w", err)
		}
		if lockedBy.Valid && lockedBy.String != userID {
			return model.ErrLockHeld
		}

		var name, fields string
		var deleted bool
		err = tx.QueryRowContext(ctx, `
			SELECT name, fields, deleted FROM entity_versions
			WHERE entity_id = ?
			ORDER BY version_number DESC LIMIT 1
		`, id).Scan(&name, &fields, &deleted)
		if errors.Is(err, sql.ErrNoRows) {
			// Never committed: the create itself is the pending change.
			if _, err := tx.ExecContext(ctx, `DELETE FROM entities WHERE id = ?`, id); err != nil {
				return fmt.Errorf("remove uncommitted entity: %w", err)
			}
			return nil
		}
		if err != nil {
			return fmt.Errorf("read last committed entity version: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE entities
			SET name = ?, fields = ?, deleted = ?,
			    locked_by_user_id = NULL, locked_at = NULL, updated_at = ?
			WHERE id = ?
		`, name, fields, deleted, now(), id); err != nil {
			return fmt.Errorf("restore entity: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, model.ErrNotFound) || errors.Is(err, model.ErrLockHeld) {
			return err
		}
		return fmt.Errorf("discard entity changes: %w", err)
	}
	return nil
}

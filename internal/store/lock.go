package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/slipway/internal/model"
)

// Entities and blocks share the same lock discipline and column layout, so
// the lock primitives are table-parameterized. The table name is always a
// compile-time constant ("entities" or "blocks"), never caller input.

// acquireLock sets locked_by_user_id if the origin is unlocked or already
// held by the same user.
func (s *Store) acquireLock(ctx context.Context, table, id, userID string) error {
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var lockedBy sql.NullString
		q := fmt.Sprintf(`SELECT locked_by_user_id FROM %s WHERE id = ?`, table)
		err := tx.QueryRowContext(ctx, q, id).Scan(&lockedBy)
		if errors.Is(err, sql.ErrNoRows) {
			return model.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("read lock holder: %w", err)
		}

		if lockedBy.Valid {
			if lockedBy.String == userID {
				return nil // already held by this user
			}
			return model.ErrLockHeld
		}

		u := fmt.Sprintf(`UPDATE %s SET locked_by_user_id = ?, locked_at = ? WHERE id = ?`, table)
		if _, err := tx.ExecContext(ctx, u, userID, now(), id); err != nil {
			return fmt.Errorf("set lock holder: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, model.ErrNotFound) || errors.Is(err, model.ErrLockHeld) {
			return err
		}
		return fmt.Errorf("acquire %s lock: %w", table, err)
	}
	return nil
}

// releaseLock clears the lock holder unconditionally. Releasing an already
// unlocked origin succeeds with no effect; a missing origin is
// model.ErrNotFound.
func (s *Store) releaseLock(ctx context.Context, table, id string) error {
	q := fmt.Sprintf(`UPDATE %s SET locked_by_user_id = NULL, locked_at = NULL WHERE id = ?`, table)
	res, err := s.db.ExecContext(ctx, q, id)
	if err != nil {
		return fmt.Errorf("release %s lock: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("release %s lock: rows affected: %w", table, err)
	}
	if n == 0 {
		return model.ErrNotFound
	}
	return nil
}

// Package store provides SQLite-backed persistence for slipway.
//
// The store holds two kinds of state:
//   - Mutable working copies: entity and block rows, including the
//     single-holder lock columns (locked_by_user_id, locked_at)
//   - Append-only records: commits, entity/block versions, builds, and
//     usage events. These rows are never updated or deleted once written.
//
// Lock discipline: an origin is "changed by user U" exactly when U holds its
// lock. Locks are acquired on edit (AcquireEntityLock / AcquireBlockLock,
// also implicitly by the Update* methods) and released only by the commit
// and discard paths. ReleaseEntityLock / ReleaseBlockLock are unconditional
// and idempotent: releasing an unlocked origin is a no-op, releasing a
// missing origin is model.ErrNotFound.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: enforce referential integrity
package store

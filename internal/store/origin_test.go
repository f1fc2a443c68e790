package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/slipway/internal/model"
	"github.com/roach88/slipway/internal/testutil"
)

func TestCreateEntity_LockedByCreator(t *testing.T) {
	f := testutil.NewFixture(t)
	ctx := context.Background()

	f.NewEntity(t, "ent-1", "order")

	e, err := f.Store.GetEntity(ctx, "ent-1")
	require.NoError(t, err)
	require.NotNil(t, e.LockedByUserID)
	assert.Equal(t, f.UserID, *e.LockedByUserID)
	assert.NotNil(t, e.LockedAt)
}

func TestAcquireEntityLock_HeldByOtherUser(t *testing.T) {
	f := testutil.NewFixture(t)
	ctx := context.Background()

	f.NewEntity(t, "ent-1", "order")

	err := f.Store.AcquireEntityLock(ctx, "ent-1", "user-2")
	assert.ErrorIs(t, err, model.ErrLockHeld)

	// Re-acquiring by the holder is a no-op.
	err = f.Store.AcquireEntityLock(ctx, "ent-1", f.UserID)
	assert.NoError(t, err)
}

func TestReleaseEntityLock_Idempotent(t *testing.T) {
	f := testutil.NewFixture(t)
	ctx := context.Background()

	f.NewEntity(t, "ent-1", "order")

	require.NoError(t, f.Store.ReleaseEntityLock(ctx, "ent-1"))
	// Releasing an already-unlocked entity succeeds with no effect.
	require.NoError(t, f.Store.ReleaseEntityLock(ctx, "ent-1"))

	e, err := f.Store.GetEntity(ctx, "ent-1")
	require.NoError(t, err)
	assert.Nil(t, e.LockedByUserID)
}

func TestReleaseEntityLock_NotFound(t *testing.T) {
	f := testutil.NewFixture(t)

	err := f.Store.ReleaseEntityLock(context.Background(), "missing")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestChangedEntities_Classification(t *testing.T) {
	f := testutil.NewFixture(t)
	ctx := context.Background()

	// Never committed: create.
	f.NewEntity(t, "ent-new", "order")

	// Committed once, then edited again: update.
	f.NewEntity(t, "ent-edited", "customer")
	cm, err := f.Store.CreateCommit(ctx, "commit-1", f.ProjectID, f.UserID, "first")
	require.NoError(t, err)
	_, err = f.Store.CreateEntityVersion(ctx, "ver-1", cm.ID, "ent-edited")
	require.NoError(t, err)
	require.NoError(t, f.Store.ReleaseEntityLock(ctx, "ent-edited"))
	require.NoError(t, f.Store.UpdateEntity(ctx, "ent-edited", f.UserID, "customer", `{"email":"string"}`))

	// Committed once, then deleted: delete.
	f.NewEntity(t, "ent-gone", "invoice")
	_, err = f.Store.CreateEntityVersion(ctx, "ver-2", cm.ID, "ent-gone")
	require.NoError(t, err)
	require.NoError(t, f.Store.ReleaseEntityLock(ctx, "ent-gone"))
	require.NoError(t, f.Store.DeleteEntity(ctx, "ent-gone", f.UserID))

	changes, err := f.Store.ChangedEntities(ctx, f.ProjectID, f.UserID)
	require.NoError(t, err)
	require.Len(t, changes, 3)

	byID := map[string]model.ChangedOrigin{}
	for _, c := range changes {
		byID[c.OriginID] = c
	}
	assert.Equal(t, model.ChangeTypeCreate, byID["ent-new"].ChangeType)
	assert.Equal(t, model.ChangeTypeUpdate, byID["ent-edited"].ChangeType)
	assert.Equal(t, model.ChangeTypeDelete, byID["ent-gone"].ChangeType)
	for _, c := range changes {
		assert.Equal(t, model.OriginTypeEntity, c.OriginType)
		assert.Equal(t, f.ServiceID, c.ResourceID)
	}
}

func TestChangedEntities_OtherUserInvisible(t *testing.T) {
	f := testutil.NewFixture(t)
	ctx := context.Background()

	f.NewEntity(t, "ent-1", "order")

	changes, err := f.Store.ChangedEntities(ctx, f.ProjectID, "user-2")
	require.NoError(t, err)
	assert.Empty(t, changes)
}

func TestCreateEntityVersion_NumbersIncrement(t *testing.T) {
	f := testutil.NewFixture(t)
	ctx := context.Background()

	f.NewEntity(t, "ent-1", "order")

	_, err := f.Store.CreateCommit(ctx, "commit-1", f.ProjectID, f.UserID, "first")
	require.NoError(t, err)
	v1, err := f.Store.CreateEntityVersion(ctx, "ver-1", "commit-1", "ent-1")
	require.NoError(t, err)
	assert.Equal(t, 1, v1.VersionNumber)

	_, err = f.Store.CreateCommit(ctx, "commit-2", f.ProjectID, f.UserID, "second")
	require.NoError(t, err)
	v2, err := f.Store.CreateEntityVersion(ctx, "ver-2", "commit-2", "ent-1")
	require.NoError(t, err)
	assert.Equal(t, 2, v2.VersionNumber)
}

func TestCreateEntityVersion_MissingEntity(t *testing.T) {
	f := testutil.NewFixture(t)
	ctx := context.Background()

	_, err := f.Store.CreateCommit(ctx, "commit-1", f.ProjectID, f.UserID, "first")
	require.NoError(t, err)

	_, err = f.Store.CreateEntityVersion(ctx, "ver-1", "commit-1", "missing")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestDiscardEntityChanges_RevertsToLastCommitted(t *testing.T) {
	f := testutil.NewFixture(t)
	ctx := context.Background()

	f.NewEntity(t, "ent-1", "order")
	_, err := f.Store.CreateCommit(ctx, "commit-1", f.ProjectID, f.UserID, "first")
	require.NoError(t, err)
	_, err = f.Store.CreateEntityVersion(ctx, "ver-1", "commit-1", "ent-1")
	require.NoError(t, err)
	require.NoError(t, f.Store.ReleaseEntityLock(ctx, "ent-1"))

	require.NoError(t, f.Store.UpdateEntity(ctx, "ent-1", f.UserID, "renamed", `{"total":"int"}`))

	require.NoError(t, f.Store.DiscardEntityChanges(ctx, "ent-1", f.UserID))

	e, err := f.Store.GetEntity(ctx, "ent-1")
	require.NoError(t, err)
	assert.Equal(t, "order", e.Name)
	assert.Equal(t, `{}`, e.Fields)
	assert.Nil(t, e.LockedByUserID)
}

func TestDiscardEntityChanges_NeverCommittedRemovesRow(t *testing.T) {
	f := testutil.NewFixture(t)
	ctx := context.Background()

	f.NewEntity(t, "ent-1", "order")
	require.NoError(t, f.Store.DiscardEntityChanges(ctx, "ent-1", f.UserID))

	_, err := f.Store.GetEntity(ctx, "ent-1")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestDiscardEntityChanges_WrongHolder(t *testing.T) {
	f := testutil.NewFixture(t)
	ctx := context.Background()

	f.NewEntity(t, "ent-1", "order")
	err := f.Store.DiscardEntityChanges(ctx, "ent-1", "user-2")
	assert.ErrorIs(t, err, model.ErrLockHeld)
}

func TestBlockLifecycle(t *testing.T) {
	f := testutil.NewFixture(t)
	ctx := context.Background()

	f.NewBlock(t, "blk-1", "settings")

	b, err := f.Store.GetBlock(ctx, "blk-1")
	require.NoError(t, err)
	require.NotNil(t, b.LockedByUserID)
	assert.Equal(t, f.UserID, *b.LockedByUserID)
	assert.Equal(t, "ServiceSettings", b.BlockType)

	changes, err := f.Store.ChangedBlocks(ctx, f.ProjectID, f.UserID)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, model.ChangeTypeCreate, changes[0].ChangeType)
	assert.Equal(t, model.OriginTypeBlock, changes[0].OriginType)

	_, err = f.Store.CreateCommit(ctx, "commit-1", f.ProjectID, f.UserID, "first")
	require.NoError(t, err)
	v, err := f.Store.CreateBlockVersion(ctx, "ver-1", "commit-1", "blk-1")
	require.NoError(t, err)
	assert.Equal(t, 1, v.VersionNumber)
	require.NoError(t, f.Store.ReleaseBlockLock(ctx, "blk-1"))

	require.NoError(t, f.Store.UpdateBlock(ctx, "blk-1", f.UserID, "settings", `{"replicas":3}`))
	require.NoError(t, f.Store.DiscardBlockChanges(ctx, "blk-1", f.UserID))

	b, err = f.Store.GetBlock(ctx, "blk-1")
	require.NoError(t, err)
	assert.Equal(t, `{}`, b.Settings)
	assert.Nil(t, b.LockedByUserID)
}

func TestDeleteBlock_ClassifiedAsDelete(t *testing.T) {
	f := testutil.NewFixture(t)
	ctx := context.Background()

	f.NewBlock(t, "blk-1", "settings")
	_, err := f.Store.CreateCommit(ctx, "commit-1", f.ProjectID, f.UserID, "first")
	require.NoError(t, err)
	_, err = f.Store.CreateBlockVersion(ctx, "ver-1", "commit-1", "blk-1")
	require.NoError(t, err)
	require.NoError(t, f.Store.ReleaseBlockLock(ctx, "blk-1"))

	require.NoError(t, f.Store.DeleteBlock(ctx, "blk-1", f.UserID))

	changes, err := f.Store.ChangedBlocks(ctx, f.ProjectID, f.UserID)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, model.ChangeTypeDelete, changes[0].ChangeType)
}

func TestListVersionsForCommit_BothKinds(t *testing.T) {
	f := testutil.NewFixture(t)
	ctx := context.Background()

	f.NewEntity(t, "ent-1", "order")
	f.NewBlock(t, "blk-1", "settings")

	_, err := f.Store.CreateCommit(ctx, "commit-1", f.ProjectID, f.UserID, "first")
	require.NoError(t, err)
	_, err = f.Store.CreateEntityVersion(ctx, "ver-e", "commit-1", "ent-1")
	require.NoError(t, err)
	_, err = f.Store.CreateBlockVersion(ctx, "ver-b", "commit-1", "blk-1")
	require.NoError(t, err)

	versions, err := f.Store.ListVersionsForCommit(ctx, "commit-1")
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, model.OriginTypeBlock, versions[0].OriginType)
	assert.Equal(t, model.OriginTypeEntity, versions[1].OriginType)
	for _, v := range versions {
		assert.Equal(t, "commit-1", v.CommitID)
	}
}

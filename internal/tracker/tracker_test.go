package tracker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/slipway/internal/model"
)

type stubSource struct {
	entities []model.ChangedOrigin
	blocks   []model.ChangedOrigin
	entErr   error
	blkErr   error
}

func (s *stubSource) ChangedEntities(ctx context.Context, projectID, userID string) ([]model.ChangedOrigin, error) {
	return s.entities, s.entErr
}

func (s *stubSource) ChangedBlocks(ctx context.Context, projectID, userID string) ([]model.ChangedOrigin, error) {
	return s.blocks, s.blkErr
}

func TestPendingChanges_BothKinds(t *testing.T) {
	src := &stubSource{
		entities: []model.ChangedOrigin{
			{OriginID: "ent-1", OriginType: model.OriginTypeEntity, ResourceID: "res-1", ChangeType: model.ChangeTypeCreate},
		},
		blocks: []model.ChangedOrigin{
			{OriginID: "blk-1", OriginType: model.OriginTypeBlock, ResourceID: "res-1", ChangeType: model.ChangeTypeUpdate},
		},
	}
	tr := New(src)

	entities, blocks, err := tr.PendingChanges(context.Background(), "proj-1", "user-1")
	require.NoError(t, err)
	require.Len(t, entities, 1)
	require.Len(t, blocks, 1)
	assert.Equal(t, "ent-1", entities[0].OriginID)
	assert.Equal(t, "blk-1", blocks[0].OriginID)
}

func TestPendingChanges_Empty(t *testing.T) {
	tr := New(&stubSource{})

	entities, blocks, err := tr.PendingChanges(context.Background(), "proj-1", "user-1")
	require.NoError(t, err)
	assert.Empty(t, entities)
	assert.Empty(t, blocks)
}

func TestGetChanged_PerKind(t *testing.T) {
	src := &stubSource{
		entities: []model.ChangedOrigin{{OriginID: "ent-1", OriginType: model.OriginTypeEntity}},
		blocks:   []model.ChangedOrigin{{OriginID: "blk-1", OriginType: model.OriginTypeBlock}},
	}
	tr := New(src)

	entities, err := tr.GetChangedEntities(context.Background(), "proj-1", "user-1")
	require.NoError(t, err)
	require.Len(t, entities, 1)
	assert.Equal(t, "ent-1", entities[0].OriginID)

	blocks, err := tr.GetChangedBlocks(context.Background(), "proj-1", "user-1")
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, "blk-1", blocks[0].OriginID)
}

func TestPendingChanges_SourceError(t *testing.T) {
	boom := errors.New("disk gone")
	tr := New(&stubSource{blkErr: boom})

	_, _, err := tr.PendingChanges(context.Background(), "proj-1", "user-1")
	assert.ErrorIs(t, err, boom)
}

func TestGroupByResource_FirstSeenOrder(t *testing.T) {
	changes := []model.ChangedOrigin{
		{OriginID: "ent-1", ResourceID: "res-b"},
		{OriginID: "ent-2", ResourceID: "res-a"},
		{OriginID: "ent-3", ResourceID: "res-b"},
		{OriginID: "blk-1", ResourceID: "res-c"},
	}

	groups := GroupByResource(changes)
	require.Len(t, groups, 3)
	assert.Equal(t, "res-b", groups[0].ResourceID)
	assert.Equal(t, "res-a", groups[1].ResourceID)
	assert.Equal(t, "res-c", groups[2].ResourceID)

	require.Len(t, groups[0].Changes, 2)
	assert.Equal(t, "ent-1", groups[0].Changes[0].OriginID)
	assert.Equal(t, "ent-3", groups[0].Changes[1].OriginID)
}

func TestGroupByResource_Empty(t *testing.T) {
	assert.Empty(t, GroupByResource(nil))
	assert.Empty(t, GroupByResource([]model.ChangedOrigin{}))
}

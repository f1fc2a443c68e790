package build_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/slipway/internal/build"
	"github.com/roach88/slipway/internal/model"
	"github.com/roach88/slipway/internal/testutil"
)

func TestStoreDispatcher_Submit(t *testing.T) {
	f := testutil.NewFixture(t)
	ctx := context.Background()

	_, err := f.Store.CreateCommit(ctx, "commit-1", f.ProjectID, f.UserID, "first")
	require.NoError(t, err)

	d := build.NewStoreDispatcher(f.Store)
	err = d.Submit(ctx, build.Request{
		ResourceID:  f.ServiceID,
		CommitID:    "commit-1",
		UserID:      f.UserID,
		Message:     "first",
		SkipPublish: true,
	})
	require.NoError(t, err)

	builds, err := f.Store.ListBuildsForCommit(ctx, "commit-1")
	require.NoError(t, err)
	require.Len(t, builds, 1)
	assert.Equal(t, f.ServiceID, builds[0].ResourceID)
	assert.Equal(t, model.BuildStatusPending, builds[0].Status)
	assert.True(t, builds[0].SkipPublish)
	assert.NotEmpty(t, builds[0].ID)
}

func TestStoreDispatcher_UnknownCommit(t *testing.T) {
	f := testutil.NewFixture(t)

	d := build.NewStoreDispatcher(f.Store)
	err := d.Submit(context.Background(), build.Request{
		ResourceID: f.ServiceID,
		CommitID:   "missing",
		UserID:     f.UserID,
	})
	assert.Error(t, err)
}

// flakyDispatcher records every request and fails the configured resources.
type flakyDispatcher struct {
	mu     sync.Mutex
	failOn map[string]error
	seen   []string
}

func (d *flakyDispatcher) Submit(ctx context.Context, req build.Request) error {
	d.mu.Lock()
	d.seen = append(d.seen, req.ResourceID)
	d.mu.Unlock()
	if err, ok := d.failOn[req.ResourceID]; ok {
		return err
	}
	return nil
}

func TestSubmitAll_CollectsFailures(t *testing.T) {
	boom := errors.New("queue full")
	d := &flakyDispatcher{failOn: map[string]error{"res-b": boom}}

	reqs := []build.Request{
		{ResourceID: "res-a", CommitID: "commit-1"},
		{ResourceID: "res-b", CommitID: "commit-1"},
		{ResourceID: "res-c", CommitID: "commit-1"},
	}
	err := build.SubmitAll(context.Background(), d, reqs)

	var de *build.DispatchError
	require.ErrorAs(t, err, &de)
	require.Len(t, de.Failures, 1)
	assert.ErrorIs(t, de.Failures["res-b"], boom)
	assert.Contains(t, de.Error(), "res-b")

	// All three were attempted despite the failure.
	assert.Len(t, d.seen, 3)
}

func TestSubmitAll_AllSucceed(t *testing.T) {
	d := &flakyDispatcher{}
	reqs := []build.Request{
		{ResourceID: "res-a"},
		{ResourceID: "res-b"},
	}
	err := build.SubmitAll(context.Background(), d, reqs)
	assert.NoError(t, err)
	assert.Len(t, d.seen, 2)
}

func TestSubmitAll_Empty(t *testing.T) {
	d := &flakyDispatcher{}
	assert.NoError(t, build.SubmitAll(context.Background(), d, nil))
	assert.Empty(t, d.seen)
}

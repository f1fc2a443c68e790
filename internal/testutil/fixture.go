// Package testutil provides shared fixtures for store-backed tests.
package testutil

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/slipway/internal/model"
	"github.com/roach88/slipway/internal/store"
)

// Fixture is a seeded workspace with one project, one project-configuration
// resource and one service resource, plus a single member user.
type Fixture struct {
	Store *store.Store

	WorkspaceID      string
	UserID           string
	ProjectID        string
	ConfigResourceID string
	ServiceID        string
}

// NewFixture opens a store in a temp directory and seeds the standard
// layout. The store is closed via t.Cleanup.
func NewFixture(t *testing.T) *Fixture {
	t.Helper()
	ctx := context.Background()

	s, err := store.Open(filepath.Join(t.TempDir(), "slipway.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	f := &Fixture{
		Store:            s,
		WorkspaceID:      "ws-1",
		UserID:           "user-1",
		ProjectID:        "proj-1",
		ConfigResourceID: "res-config",
		ServiceID:        "res-orders",
	}

	_, err = s.CreateWorkspace(ctx, f.WorkspaceID, "Acme")
	require.NoError(t, err)
	require.NoError(t, s.AddWorkspaceUser(ctx, f.WorkspaceID, f.UserID))

	_, err = s.CreateProject(ctx, f.ProjectID, f.WorkspaceID, "storefront")
	require.NoError(t, err)

	_, err = s.CreateResource(ctx, f.ConfigResourceID, f.ProjectID, "project configuration", model.ResourceTypeProjectConfiguration)
	require.NoError(t, err)
	_, err = s.CreateResource(ctx, f.ServiceID, f.ProjectID, "orders", model.ResourceTypeService)
	require.NoError(t, err)

	return f
}

// AddService creates another service resource in the fixture project.
func (f *Fixture) AddService(t *testing.T, id, name string) {
	t.Helper()
	_, err := f.Store.CreateResource(context.Background(), id, f.ProjectID, name, model.ResourceTypeService)
	require.NoError(t, err)
}

// NewEntity creates an entity in the fixture service, locked by the fixture
// user.
func (f *Fixture) NewEntity(t *testing.T, id, name string) *model.Entity {
	t.Helper()
	e, err := f.Store.CreateEntity(context.Background(), id, f.ServiceID, name, `{}`, f.UserID)
	require.NoError(t, err)
	return e
}

// NewBlock creates a block in the fixture service, locked by the fixture
// user.
func (f *Fixture) NewBlock(t *testing.T, id, name string) *model.Block {
	t.Helper()
	b, err := f.Store.CreateBlock(context.Background(), id, f.ServiceID, "ServiceSettings", name, `{}`, f.UserID)
	require.NoError(t, err)
	return b
}

// SeqIDs is a deterministic IDGenerator substitute producing
// prefix-1, prefix-2, ...
type SeqIDs struct {
	Prefix string
	n      int
}

func (g *SeqIDs) NewID() string {
	g.n++
	return fmt.Sprintf("%s-%d", g.Prefix, g.n)
}

package billing_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/slipway/internal/billing"
	"github.com/roach88/slipway/internal/testutil"
)

func newGate(t *testing.T) (*testutil.Fixture, *billing.PlanGate) {
	t.Helper()
	f := testutil.NewFixture(t)
	catalog, err := billing.DefaultCatalog()
	require.NoError(t, err)
	return f, billing.NewPlanGate(f.Store, catalog)
}

func TestPlanGate_DefaultPlanFallback(t *testing.T) {
	f, gate := newGate(t)
	ctx := context.Background()

	// No subscription row: the workspace runs on the free plan.
	ent, err := gate.GetNumericEntitlement(ctx, f.WorkspaceID, billing.FeatureEntitiesPerService)
	require.NoError(t, err)
	assert.Equal(t, 7, ent.Value)
}

func TestPlanGate_SubscribedPlan(t *testing.T) {
	f, gate := newGate(t)
	ctx := context.Background()

	require.NoError(t, f.Store.SetSubscription(ctx, f.WorkspaceID, "pro"))

	ent, err := gate.GetNumericEntitlement(ctx, f.WorkspaceID, billing.FeatureEntitiesPerService)
	require.NoError(t, err)
	assert.Equal(t, -1, ent.Value)

	b, err := gate.GetBooleanEntitlement(ctx, f.WorkspaceID, billing.FeatureIgnoreValidation)
	require.NoError(t, err)
	assert.True(t, b.HasAccess)
}

func TestPlanGate_MeteredServices(t *testing.T) {
	f, gate := newGate(t)
	ctx := context.Background()

	// The fixture has one service: at the free limit, still allowed.
	ent, err := gate.GetMeteredEntitlement(ctx, f.WorkspaceID, billing.FeatureServices)
	require.NoError(t, err)
	assert.True(t, ent.HasAccess)
	assert.Equal(t, 1, ent.Usage)
	assert.Equal(t, 1, ent.UsageLimit)

	f.AddService(t, "res-2", "billing")
	ent, err = gate.GetMeteredEntitlement(ctx, f.WorkspaceID, billing.FeatureServices)
	require.NoError(t, err)
	assert.False(t, ent.HasAccess)
	assert.Equal(t, 2, ent.Usage)
}

func TestPlanGate_MeteredBuilds(t *testing.T) {
	f, gate := newGate(t)
	ctx := context.Background()

	ent, err := gate.GetMeteredEntitlement(ctx, f.WorkspaceID, billing.FeatureCodeGenerationBuilds)
	require.NoError(t, err)
	assert.True(t, ent.HasAccess)
	assert.Equal(t, 0, ent.Usage)
	assert.Equal(t, 100, ent.UsageLimit)
}

func TestPlanGate_ReportUsage(t *testing.T) {
	f, gate := newGate(t)
	ctx := context.Background()

	require.NoError(t, gate.ReportUsage(ctx, f.WorkspaceID, billing.FeatureCodeGenerationBuilds))
	require.NoError(t, gate.ReportUsage(ctx, f.WorkspaceID, billing.FeatureCodeGenerationBuilds))

	ent, err := gate.GetMeteredEntitlement(ctx, f.WorkspaceID, billing.FeatureCodeGenerationBuilds)
	require.NoError(t, err)
	assert.Equal(t, 2, ent.Usage)
}

func TestPlanGate_UnknownFeatureShapes(t *testing.T) {
	f, gate := newGate(t)
	ctx := context.Background()

	_, err := gate.GetMeteredEntitlement(ctx, f.WorkspaceID, billing.FeatureIgnoreValidation)
	assert.Error(t, err)
	_, err = gate.GetNumericEntitlement(ctx, f.WorkspaceID, billing.FeatureServices)
	assert.Error(t, err)
	_, err = gate.GetBooleanEntitlement(ctx, f.WorkspaceID, billing.FeatureServices)
	assert.Error(t, err)
}

func TestDisabledGate(t *testing.T) {
	gate := billing.Disabled{}
	ctx := context.Background()

	m, err := gate.GetMeteredEntitlement(ctx, "ws", billing.FeatureServices)
	require.NoError(t, err)
	assert.True(t, m.HasAccess)

	b, err := gate.GetBooleanEntitlement(ctx, "ws", billing.FeatureIgnoreValidation)
	require.NoError(t, err)
	assert.True(t, b.HasAccess)

	assert.NoError(t, gate.ReportUsage(ctx, "ws", billing.FeatureServices))
}

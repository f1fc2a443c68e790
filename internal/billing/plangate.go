package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/roach88/slipway/internal/model"
)

// Ledger is the persistent state PlanGate reads usage from and writes usage
// to. *store.Store satisfies this.
type Ledger interface {
	SubscriptionPlan(ctx context.Context, workspaceID string) (string, error)
	WorkspaceServiceCount(ctx context.Context, workspaceID string) (int, error)
	AddUsageEvent(ctx context.Context, id, workspaceID, feature string) error
	UsageCount(ctx context.Context, workspaceID, feature string) (int, error)
}

// PlanGate enforces entitlements from a plan catalog against live workspace
// state. Workspaces without a subscription are treated as being on the
// catalog's default plan.
type PlanGate struct {
	ledger  Ledger
	catalog Catalog
}

// NewPlanGate creates a PlanGate over the given ledger and catalog.
func NewPlanGate(ledger Ledger, catalog Catalog) *PlanGate {
	return &PlanGate{ledger: ledger, catalog: catalog}
}

func (g *PlanGate) limitsFor(ctx context.Context, workspaceID string) (PlanLimits, error) {
	plan, err := g.ledger.SubscriptionPlan(ctx, workspaceID)
	if errors.Is(err, model.ErrNotFound) {
		plan = g.catalog.DefaultPlan
	} else if err != nil {
		return PlanLimits{}, err
	}

	limits, ok := g.catalog.Limits(plan)
	if !ok {
		return PlanLimits{}, fmt.Errorf("plan %q not present in catalog", plan)
	}
	return limits, nil
}

// GetMeteredEntitlement reports usage against the plan limit for a metered
// feature. Services are counted live from workspace state; build usage
// comes from the usage ledger.
func (g *PlanGate) GetMeteredEntitlement(ctx context.Context, workspaceID string, feature Feature) (MeteredEntitlement, error) {
	limits, err := g.limitsFor(ctx, workspaceID)
	if err != nil {
		return MeteredEntitlement{}, err
	}

	var usage, limit int
	switch feature {
	case FeatureServices:
		usage, err = g.ledger.WorkspaceServiceCount(ctx, workspaceID)
		limit = limits.Services
	case FeatureCodeGenerationBuilds:
		usage, err = g.ledger.UsageCount(ctx, workspaceID, string(feature))
		limit = limits.CodeGenerationBuilds
	default:
		return MeteredEntitlement{}, fmt.Errorf("feature %q is not metered", feature)
	}
	if err != nil {
		return MeteredEntitlement{}, err
	}

	return MeteredEntitlement{
		HasAccess:  limit < 0 || usage <= limit,
		Usage:      usage,
		UsageLimit: limit,
	}, nil
}

// GetNumericEntitlement returns the plain numeric limit for a feature.
func (g *PlanGate) GetNumericEntitlement(ctx context.Context, workspaceID string, feature Feature) (NumericEntitlement, error) {
	limits, err := g.limitsFor(ctx, workspaceID)
	if err != nil {
		return NumericEntitlement{}, err
	}

	switch feature {
	case FeatureEntitiesPerService:
		return NumericEntitlement{Value: limits.EntitiesPerService}, nil
	default:
		return NumericEntitlement{}, fmt.Errorf("feature %q is not numeric", feature)
	}
}

// GetBooleanEntitlement returns an on/off capability for a feature.
func (g *PlanGate) GetBooleanEntitlement(ctx context.Context, workspaceID string, feature Feature) (BooleanEntitlement, error) {
	limits, err := g.limitsFor(ctx, workspaceID)
	if err != nil {
		return BooleanEntitlement{}, err
	}

	switch feature {
	case FeatureIgnoreValidation:
		return BooleanEntitlement{HasAccess: limits.IgnoreValidationCodeGeneration}, nil
	default:
		return BooleanEntitlement{}, fmt.Errorf("feature %q is not boolean", feature)
	}
}

// ReportUsage appends one usage unit for the feature to the workspace's
// ledger.
func (g *PlanGate) ReportUsage(ctx context.Context, workspaceID string, feature Feature) error {
	id := uuid.Must(uuid.NewV7()).String()
	return g.ledger.AddUsageEvent(ctx, id, workspaceID, string(feature))
}

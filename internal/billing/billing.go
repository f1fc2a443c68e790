// Package billing provides the entitlement gate consulted before a commit
// and the usage ledger written after one.
//
// The gate is keyed by workspace id and a named feature. Three entitlement
// shapes exist, mirroring the plan model:
//   - metered: usage counted against a limit (services per workspace)
//   - numeric: a plain limit value (entities per service)
//   - boolean: a capability switch (skip commit validation)
package billing

import "context"

// Feature names the plan capabilities checked or metered by slipway.
type Feature string

const (
	// FeatureServices meters service-type resources per workspace.
	FeatureServices Feature = "services"

	// FeatureEntitiesPerService limits entities in a single service.
	FeatureEntitiesPerService Feature = "entities-per-service"

	// FeatureIgnoreValidation exempts a workspace from commit-time plan
	// validation.
	FeatureIgnoreValidation Feature = "ignore-validation-code-generation"

	// FeatureCodeGenerationBuilds meters committed builds.
	FeatureCodeGenerationBuilds Feature = "code-generation-builds"
)

// MeteredEntitlement reports current usage against a plan limit.
// HasAccess is false when usage exceeds the limit.
type MeteredEntitlement struct {
	HasAccess  bool
	Usage      int
	UsageLimit int
}

// NumericEntitlement carries a plain numeric plan limit.
// A negative Value means unlimited.
type NumericEntitlement struct {
	Value int
}

// BooleanEntitlement carries an on/off plan capability.
type BooleanEntitlement struct {
	HasAccess bool
}

// Gate is the entitlement capability consulted by the commit coordinator.
type Gate interface {
	GetMeteredEntitlement(ctx context.Context, workspaceID string, feature Feature) (MeteredEntitlement, error)
	GetNumericEntitlement(ctx context.Context, workspaceID string, feature Feature) (NumericEntitlement, error)
	GetBooleanEntitlement(ctx context.Context, workspaceID string, feature Feature) (BooleanEntitlement, error)
	ReportUsage(ctx context.Context, workspaceID string, feature Feature) error
}

// Disabled is a Gate that grants everything and records nothing. Used when
// billing enforcement is turned off.
type Disabled struct{}

func (Disabled) GetMeteredEntitlement(ctx context.Context, workspaceID string, feature Feature) (MeteredEntitlement, error) {
	return MeteredEntitlement{HasAccess: true, UsageLimit: -1}, nil
}

func (Disabled) GetNumericEntitlement(ctx context.Context, workspaceID string, feature Feature) (NumericEntitlement, error) {
	return NumericEntitlement{Value: -1}, nil
}

func (Disabled) GetBooleanEntitlement(ctx context.Context, workspaceID string, feature Feature) (BooleanEntitlement, error) {
	return BooleanEntitlement{HasAccess: true}, nil
}

func (Disabled) ReportUsage(ctx context.Context, workspaceID string, feature Feature) error {
	return nil
}

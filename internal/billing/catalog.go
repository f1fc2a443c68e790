package billing

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

//go:embed plans.cue
var defaultPlansCUE []byte

// PlanLimits holds the limits one plan grants. Negative limits mean
// unlimited.
type PlanLimits struct {
	Services                       int  `json:"services"`
	EntitiesPerService             int  `json:"entities_per_service"`
	IgnoreValidationCodeGeneration bool `json:"ignore_validation_code_generation"`
	CodeGenerationBuilds           int  `json:"code_generation_builds"`
}

// Catalog maps plan names to their limits.
type Catalog struct {
	DefaultPlan string                `json:"default_plan"`
	Plans       map[string]PlanLimits `json:"plans"`
}

// Limits returns the limits for a plan name.
func (c Catalog) Limits(plan string) (PlanLimits, bool) {
	l, ok := c.Plans[plan]
	return l, ok
}

// LoadCatalog reads and evaluates a CUE plan catalog file.
func LoadCatalog(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("read plan catalog: %w", err)
	}
	c, err := parseCatalog(data, path)
	if err != nil {
		return Catalog{}, fmt.Errorf("plan catalog %s: %w", path, err)
	}
	return c, nil
}

// DefaultCatalog evaluates the embedded plan catalog.
func DefaultCatalog() (Catalog, error) {
	return parseCatalog(defaultPlansCUE, "plans.cue")
}

func parseCatalog(data []byte, filename string) (Catalog, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return Catalog{}, fmt.Errorf("compile: %w", err)
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return Catalog{}, fmt.Errorf("validate: %w", err)
	}

	var c Catalog
	if err := v.Decode(&c); err != nil {
		return Catalog{}, fmt.Errorf("decode: %w", err)
	}
	if c.DefaultPlan == "" {
		return Catalog{}, fmt.Errorf("default_plan is required")
	}
	if _, ok := c.Plans[c.DefaultPlan]; !ok {
		return Catalog{}, fmt.Errorf("default_plan %q is not defined in plans", c.DefaultPlan)
	}
	return c, nil
}

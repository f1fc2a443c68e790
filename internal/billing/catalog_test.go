package billing

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c, err := DefaultCatalog()
	require.NoError(t, err)

	assert.Equal(t, "free", c.DefaultPlan)

	free, ok := c.Limits("free")
	require.True(t, ok)
	assert.Equal(t, 1, free.Services)
	assert.Equal(t, 7, free.EntitiesPerService)
	assert.False(t, free.IgnoreValidationCodeGeneration)
	assert.Equal(t, 100, free.CodeGenerationBuilds)

	pro, ok := c.Limits("pro")
	require.True(t, ok)
	assert.Equal(t, -1, pro.Services)
	assert.Equal(t, -1, pro.EntitiesPerService)
	assert.True(t, pro.IgnoreValidationCodeGeneration)

	_, ok = c.Limits("enterprise")
	assert.False(t, ok)
}

func TestLoadCatalog_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plans.cue")
	src := `
default_plan: "starter"
plans: starter: {
	services:                          2
	entities_per_service:              10
	ignore_validation_code_generation: false
	code_generation_builds:            50
}
`
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))

	c, err := LoadCatalog(path)
	require.NoError(t, err)
	assert.Equal(t, "starter", c.DefaultPlan)
	starter, ok := c.Limits("starter")
	require.True(t, ok)
	assert.Equal(t, 10, starter.EntitiesPerService)
}

func TestLoadCatalog_MissingFile(t *testing.T) {
	_, err := LoadCatalog(filepath.Join(t.TempDir(), "absent.cue"))
	assert.Error(t, err)
}

func TestParseCatalog_MissingDefaultPlan(t *testing.T) {
	_, err := parseCatalog([]byte(`plans: free: {services: 1, entities_per_service: 1, ignore_validation_code_generation: false, code_generation_builds: 1}`), "test.cue")
	assert.ErrorContains(t, err, "default_plan")
}

func TestParseCatalog_DefaultPlanUndefined(t *testing.T) {
	src := `
default_plan: "gold"
plans: free: {
	services:                          1
	entities_per_service:              1
	ignore_validation_code_generation: false
	code_generation_builds:            1
}
`
	_, err := parseCatalog([]byte(src), "test.cue")
	assert.ErrorContains(t, err, `"gold"`)
}

func TestParseCatalog_NonConcrete(t *testing.T) {
	_, err := parseCatalog([]byte(`default_plan: string`), "test.cue")
	assert.Error(t, err)
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matdoctor/internal/integrity"
)

func TestDefaultMatchesEngineTables(t *testing.T) {
	cfg := Default()
	require.NoError(t, validate(cfg))

	tables := cfg.Tables()
	builtin := integrity.DefaultTables()

	assert.Equal(t, builtin.Rules, tables.Rules)
	assert.Equal(t, builtin.Policies, tables.Policies)
	assert.Equal(t, builtin.Matcher, tables.Matcher)
	assert.Equal(t, builtin.TextureProperties, tables.TextureProperties)
}

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Matcher.TopN)
	assert.Equal(t, 80, cfg.Matcher.UnambiguousScore)
	assert.NotEmpty(t, cfg.Classifier)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "matdoctor.yaml")
	yaml := `
matcher:
  top_n: 3
  unambiguous_score: 85
policies:
  - category: hair
    blend: Cutout
    z_write: true
    min_draw_order: 2460
    cutout_alpha: 0.5
    requires_texture: true
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Matcher.TopN)
	assert.Equal(t, 85, cfg.Matcher.UnambiguousScore)

	tables := cfg.Tables()
	hair, ok := tables.PolicyFor(integrity.CategoryHair)
	require.True(t, ok)
	assert.Equal(t, 2460, hair.MinDrawOrder)
	assert.Equal(t, 0.5, hair.CutoutAlpha)

	// Sections absent from the file keep their defaults.
	assert.NotEmpty(t, cfg.Classifier)
	assert.NotEmpty(t, cfg.TextureProperties)
}

func TestLoad_EnvOverridesWithoutFile(t *testing.T) {
	t.Setenv("MATDOCTOR_MATCHER_TOP_N", "3")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Matcher.TopN)
	assert.Equal(t, 80, cfg.Matcher.UnambiguousScore)
	assert.NotEmpty(t, cfg.Classifier)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "matdoctor.yaml")
	yaml := `
matcher:
  top_n: 7
  unambiguous_score: 80
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
	t.Setenv("MATDOCTOR_MATCHER_UNAMBIGUOUS_SCORE", "85")

	cfg, err := Load(path)
	require.NoError(t, err)
	// Environment beats the file; file beats the defaults.
	assert.Equal(t, 85, cfg.Matcher.UnambiguousScore)
	assert.Equal(t, 7, cfg.Matcher.TopN)
}

func TestLoad_RejectsUnknownCategory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "matdoctor.yaml")
	yaml := `
classifier:
  - category: nostril
    keywords: [nose]
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown category")
}

func TestLoad_RejectsUnknownBlend(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "matdoctor.yaml")
	yaml := `
policies:
  - category: hair
    blend: Additive
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown blend mode")
}

func TestLoad_MissingFileErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTeamMap(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "frontend", cfg.TeamFor("XSS"))
	assert.Equal(t, "backend", cfg.TeamFor("SQL Injection"))
	assert.Equal(t, "infrastructure", cfg.TeamFor("RCE"))
	assert.Equal(t, "security", cfg.TeamFor("Authentication Bypass"))

	// Unknown bug types resolve to the default team, never an error.
	assert.Equal(t, "security", cfg.TeamFor("Unknown"))
	assert.Equal(t, "security", cfg.TeamFor(""))
}

func TestDefaultWeights(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 100, cfg.Weights.Base)
	assert.Equal(t, 10, cfg.Weights.ActivePenalty)
	assert.Equal(t, 20, cfg.Weights.CriticalPenalty)
	assert.Equal(t, 30, cfg.Weights.TeamBonus)
	assert.Equal(t, 30, cfg.Weights.CriticalStackPenalty)
	assert.Equal(t, 0.85, cfg.SimilarityThreshold)
	assert.Equal(t, 10, cfg.MaxMatches)
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().SystemActor, cfg.SystemActor)
}

func TestLoadOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "triage.yaml")
	content := `
system_actor: triage-bot
similarity_threshold: 0.9
team_map:
  XSS: web
  Prototype Pollution: frontend
weights:
  base: 50
  active_penalty: 5
  critical_penalty: 10
  team_bonus: 15
  critical_stack_penalty: 15
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "triage-bot", cfg.SystemActor)
	assert.Equal(t, 0.9, cfg.SimilarityThreshold)
	assert.Equal(t, 50, cfg.Weights.Base)

	// Overlay entries replace or extend, untouched entries survive.
	assert.Equal(t, "web", cfg.TeamFor("XSS"))
	assert.Equal(t, "frontend", cfg.TeamFor("Prototype Pollution"))
	assert.Equal(t, "backend", cfg.TeamFor("SQL Injection"))

	// Unset scalar fields keep defaults.
	assert.Equal(t, 10, cfg.MaxMatches)
	assert.Equal(t, "text-embedding-3-small", cfg.EmbeddingModel)
}

func TestLoadExplicitZeroThreshold(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "triage.yaml")
	require.NoError(t, os.WriteFile(path, []byte("similarity_threshold: 0\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	// An explicit zero is a deliberate setting, not an absent key.
	assert.Equal(t, 0.0, cfg.SimilarityThreshold)
	assert.Equal(t, 10, cfg.MaxMatches, "absent keys still keep defaults")
}

func TestLoadRejectsBadThreshold(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "triage.yaml")
	require.NoError(t, os.WriteFile(path, []byte("similarity_threshold: 3.0\n"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "similarity_threshold")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/triage.yaml")
	require.Error(t, err)
}

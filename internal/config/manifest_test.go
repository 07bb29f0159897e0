package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veridict/veridict/internal/policy"
)

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "eval.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadManifest(t *testing.T) {
	path := writeManifest(t, `
docs: data/docs.csv
dialogs: data/dialogs.jsonl
outdir: results/runs
policies: [rag_only, rule, cons]
params:
  recency_discount: 0.25
`)

	m, err := LoadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, "data/docs.csv", m.Docs)
	assert.Equal(t, []string{"rag_only", "rule", "cons"}, m.Policies)

	params := m.EngineParams()
	assert.Equal(t, 0.25, params.RecencyDiscount)
	assert.Equal(t, 0.5, params.DecisionThreshold)
	assert.Equal(t, 0.4, params.AbstainLow)
	assert.Equal(t, 0.6, params.AbstainHigh)
}

func TestLoadManifest_UnknownPolicy(t *testing.T) {
	path := writeManifest(t, "policies: [rule, latest_wins]\n")

	_, err := LoadManifest(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown policy")
}

func TestLoadManifest_InvalidBand(t *testing.T) {
	path := writeManifest(t, `
params:
  abstain_low: 0.7
  abstain_high: 0.3
`)

	_, err := LoadManifest(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "abstain_low")
}

func TestLoadManifest_OutOfRangeParam(t *testing.T) {
	path := writeManifest(t, "params:\n  decision_threshold: 1.5\n")

	_, err := LoadManifest(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decision_threshold")
}

func TestManifest_EngineParams_NilManifest(t *testing.T) {
	var m *Manifest
	assert.Equal(t, policy.DefaultParams(), m.EngineParams())
}

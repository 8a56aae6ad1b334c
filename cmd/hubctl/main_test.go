package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hub-backend/internal/shared/config"
	"hub-backend/internal/usage"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestExtractComparisonFromStdin(t *testing.T) {
	raw := "Viabilidade: 6/10 para a ideia A e 8/10 para a ideia B\nA ideia vencedora é a ideia B. Ela é mais simples."
	out, err := execute(t, raw, "extract", "--agent", "comparison")
	require.NoError(t, err)

	var result struct {
		Kind   string `json:"kind"`
		Winner string `json:"winner"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "comparison", result.Kind)
	assert.Equal(t, "optionB", result.Winner)
}

func TestExtractHeuristicsChecksImageCount(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resp.json")
	body := `{"overallScore":70,"heuristics":[{"id":"help","score":5,"issues":[{"description":"x","imageIndex":2,"coordinates":{"x":1,"y":1},"recommendation":"y"}]}]}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	_, err := execute(t, "", "extract", "--agent", "heuristics", "--file", path, "--images", "2")
	require.Error(t, err)

	_, err = execute(t, "", "extract", "--agent", "heuristics", "--file", path, "--images", "3", "-o", "yaml")
	require.NoError(t, err)
}

func TestExtractUnknownAgentIsUsageError(t *testing.T) {
	_, err := execute(t, "x", "extract", "--agent", "nope")
	require.Error(t, err)
	assert.True(t, isUsageError(err))
}

func TestTiersTable(t *testing.T) {
	loadConfig = func() config.Config { return config.Config{} }
	t.Cleanup(func() { loadConfig = config.Load })

	out, err := execute(t, "", "tiers")
	require.NoError(t, err)
	assert.Contains(t, out, "TIER")
	assert.Contains(t, out, "free")
	assert.Contains(t, out, "unlimited")
}

func TestUsageCommandsShareStore(t *testing.T) {
	tiers, err := usage.LoadTiers("")
	require.NoError(t, err)
	meter, err := usage.NewMeter(usage.NewMemoryStore(), tiers, usage.MeterConfig{})
	require.NoError(t, err)

	loadConfig = func() config.Config { return config.Config{} }
	openMeter = func(context.Context, config.Config) (*usage.Meter, func(), error) {
		return meter, func() {}, nil
	}
	t.Cleanup(func() {
		loadConfig = config.Load
		openMeter = openConfiguredMeter
	})

	_, err = execute(t, "", "usage", "consume", "ideation", "--user", "u1")
	require.NoError(t, err)

	out, err := execute(t, "", "usage", "check", "ideation", "--user", "u1")
	require.NoError(t, err)
	var decision usage.Decision
	require.NoError(t, json.Unmarshal([]byte(out), &decision))
	assert.Equal(t, 1, decision.Used)

	_, err = execute(t, "", "usage", "set-tier", "gold", "--user", "u1")
	require.ErrorIs(t, err, usage.ErrUnknownTier)

	_, err = execute(t, "", "usage", "status")
	require.Error(t, err)
}

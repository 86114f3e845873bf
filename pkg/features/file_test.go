package features

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coachly/guardrail/pkg/authz"
	"github.com/coachly/guardrail/pkg/observability"
)

func writeDefinitions(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestFileRegistryLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "features.json")
	writeDefinitions(t, path, `[
		{"key": "basic_scheduling", "required_tier": "trial"},
		{"key": "advanced_analytics", "required_tier": "level_2"}
	]`)

	logger := observability.NewLogger(observability.ErrorLevel, os.Stderr)
	reg, err := NewFileRegistry(path, logger)
	require.NoError(t, err)
	defer reg.Close()

	ctx := context.Background()
	tier, err := reg.RequiredTier(ctx, "advanced_analytics")
	require.NoError(t, err)
	assert.Equal(t, authz.TierLevel2, tier)

	_, err = reg.RequiredTier(ctx, "missing")
	assert.ErrorIs(t, err, ErrUnknownFeature)
}

func TestFileRegistryRejectsBadDefinitions(t *testing.T) {
	logger := observability.NewLogger(observability.ErrorLevel, os.Stderr)

	t.Run("missing file", func(t *testing.T) {
		_, err := NewFileRegistry(filepath.Join(t.TempDir(), "absent.json"), logger)
		assert.Error(t, err)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "features.json")
		writeDefinitions(t, path, `not json`)
		_, err := NewFileRegistry(path, logger)
		assert.Error(t, err)
	})

	t.Run("unknown tier", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "features.json")
		writeDefinitions(t, path, `[{"key": "x", "required_tier": "platinum"}]`)
		_, err := NewFileRegistry(path, logger)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown tier")
	})
}

func TestFileRegistryHotReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "features.json")
	writeDefinitions(t, path, `[{"key": "client_programs", "required_tier": "level_1"}]`)

	logger := observability.NewLogger(observability.ErrorLevel, os.Stderr)
	reg, err := NewFileRegistry(path, logger)
	require.NoError(t, err)
	defer reg.Close()

	ctx := context.Background()
	writeDefinitions(t, path, `[{"key": "client_programs", "required_tier": "level_2"}]`)

	require.Eventually(t, func() bool {
		tier, err := reg.RequiredTier(ctx, "client_programs")
		return err == nil && tier == authz.TierLevel2
	}, 5*time.Second, 20*time.Millisecond, "definition change never became visible")
}

func TestFileRegistryKeepsLastGoodOnBadReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "features.json")
	writeDefinitions(t, path, `[{"key": "client_programs", "required_tier": "level_1"}]`)

	logger := observability.NewLogger(observability.ErrorLevel, os.Stderr)
	reg, err := NewFileRegistry(path, logger)
	require.NoError(t, err)
	defer reg.Close()

	writeDefinitions(t, path, `broken`)
	time.Sleep(200 * time.Millisecond)

	tier, err := reg.RequiredTier(context.Background(), "client_programs")
	require.NoError(t, err)
	assert.Equal(t, authz.TierLevel1, tier)
}

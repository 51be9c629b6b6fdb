package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPricingConfigDefaultsWhenFileMissing(t *testing.T) {
	holder, err := NewPricingConfigHolderFromPaths(t.TempDir())
	require.NoError(t, err)

	cfg := holder.Get()
	assert.Equal(t, int32(2), cfg.Pricing.RoundingPlaces)
	assert.Equal(t, DemandSourceConstant, cfg.Demand.Source)
	assert.Equal(t, time.Hour, cfg.Demand.Window)
	assert.True(t, cfg.RateLimit.Enabled)
}

func TestPricingConfigReadsFile(t *testing.T) {
	dir := t.TempDir()
	body := []byte(`pricing:
  roundingPlaces: 0
demand:
  source: Redis
  window: 30m
rateLimit:
  enabled: false
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pricing.yml"), body, 0o600))

	holder, err := NewPricingConfigHolderFromPaths(dir)
	require.NoError(t, err)

	cfg := holder.Get()
	assert.Equal(t, int32(0), cfg.Pricing.RoundingPlaces)
	assert.Equal(t, DemandSourceRedis, cfg.Demand.Source)
	assert.Equal(t, 30*time.Minute, cfg.Demand.Window)
	assert.False(t, cfg.RateLimit.Enabled)
}

func TestPricingConfigRejectsUnknownDemandSource(t *testing.T) {
	dir := t.TempDir()
	body := []byte("demand:\n  source: analytics\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pricing.yml"), body, 0o600))

	_, err := NewPricingConfigHolderFromPaths(dir)
	require.Error(t, err)
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	c := Default()
	assert.Equal(t, 252, c.Analysis.TradingDays)
	assert.InDelta(t, 0.04, c.Analysis.RiskFreeRate, 1e-12)
	assert.InDelta(t, 100.0, c.Analysis.PortfolioBase, 1e-12)
	assert.Equal(t, 20, c.Analysis.MomentumFast)
	assert.Equal(t, 50, c.Analysis.MomentumSlow)
	assert.Equal(t, 200, c.Analysis.RegimeTrend)
	assert.Equal(t, 5*time.Minute, c.MarketData.CacheTTL)
	assert.Equal(t, "memory", c.Cache.Type)
	assert.Equal(t, "AAPL", c.Reports.DefaultTicker)
	assert.True(t, c.Server.CORS)
	assert.Equal(t, time.Minute, c.Cache.MemoryCleanup)
	assert.Equal(t, 10, c.Cache.Redis.PoolSize)
	assert.Equal(t, 50*time.Millisecond, c.Kafka.BatchTimeout)
	require.NoError(t, c.Validate())
}

func TestParseOverridesDefaults(t *testing.T) {
	c, err := Parse([]byte(`
environment: production
analysis:
  trading_days: 260
  risk_free_rate: 0.025
reports:
  sinks: [file, sqlite]
`))
	require.NoError(t, err)
	assert.Equal(t, "production", c.Environment)
	assert.Equal(t, 260, c.Analysis.TradingDays)
	assert.InDelta(t, 0.025, c.Analysis.RiskFreeRate, 1e-12)
	// untouched keys keep their defaults
	assert.Equal(t, 50, c.Analysis.MomentumSlow)
	assert.True(t, c.HasSink("sqlite"))
	assert.False(t, c.HasSink("kafka"))
}

func TestParseRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"unknown sink":      "reports:\n  sinks: [s3]\n",
		"kafka no brokers":  "reports:\n  sinks: [kafka]\n",
		"fast above slow":   "analysis:\n  momentum_fast: 60\n  momentum_slow: 50\n",
		"bad cache type":    "cache:\n  type: disk\n",
		"zero trading days": "analysis:\n  trading_days: 0\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadWithEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("environment: test\n"), 0o644))

	t.Setenv("RISK_FREE_RATE", "0.031")
	t.Setenv("DEFAULT_TICKER", "msft")
	t.Setenv("KAFKA_BROKERS", "a:9092,b:9092")

	c, err := LoadWithEnv(path)
	require.NoError(t, err)
	assert.Equal(t, "test", c.Environment)
	assert.InDelta(t, 0.031, c.Analysis.RiskFreeRate, 1e-12)
	assert.Equal(t, "MSFT", c.Reports.DefaultTicker)
	assert.Equal(t, []string{"a:9092", "b:9092"}, c.Kafka.Brokers)
}

func TestLoadWithEnvMissingFileUsesDefaults(t *testing.T) {
	c, err := LoadWithEnv(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "development", c.Environment)
}

func TestLoadWithEnvBadRate(t *testing.T) {
	t.Setenv("RISK_FREE_RATE", "four percent")
	_, err := LoadWithEnv(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CoinSense/pkg/cache"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "development", c.Environment)
	assert.Equal(t, 8080, c.Server.Port)
	assert.Equal(t, RecorderNone, c.Recorder.Backend)
	assert.Equal(t, cache.DriverMemory, c.Cache.Driver)
	assert.Equal(t, []int{1, 42161, 8453}, c.Codex.Networks)
	assert.Equal(t, "single", c.Decision.Policy)
	assert.Equal(t, 500.0, c.Decision.RankCeiling)
	assert.Equal(t, 50.0, c.Decision.Thresholds.Buy)
	assert.Equal(t, time.Hour, c.CoinGecko.ListTTL)
	assert.False(t, c.Decision.HasWeights())
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
environment: production
server:
  port: 9090
recorder:
  backend: kafka
kafka:
  brokers: ["k1:9092", "k2:9092"]
decision:
  policy: dual
  weights: {trending: 0.4, market_cap: 0.2, liquidity: 0.2, stability: 0.2}
  personas:
    murad: 700
`)
	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, c.Server.Port)
	assert.Equal(t, RecorderKafka, c.Recorder.Backend)
	assert.Equal(t, "coinsense.decisions", c.Recorder.Topic)
	assert.Equal(t, "dual", c.Decision.Policy)
	assert.True(t, c.Decision.HasWeights())
	assert.Equal(t, 700.0, c.Decision.Personas["murad"])
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]string{
		"unknown backend":   "recorder: {backend: postgres}",
		"kafka w/o brokers": "recorder: {backend: kafka}",
		"bad weights":       "decision: {weights: {trending: 0.9, market_cap: 0.9}}",
		"bad persona":       "decision: {personas: {murad: -1}}",
		"bad policy":        "decision: {policy: triple}",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestApplyEnv(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	env := map[string]string{
		"COINGECKO_API_KEY": "cg",
		"COINGECKO_PRO":     "true",
		"RAPID_API_KEY":     "rapid",
		"CODEX_API_KEY":     "codex",
		"KAFKA_BROKERS":     "a:9092, b:9092,",
		"RECORDER_BACKEND":  "kafka",
		"REDIS_ADDR":        "redis:6380",
	}
	require.NoError(t, c.applyEnv(func(k string) string { return env[k] }))

	assert.Equal(t, "cg", c.CoinGecko.APIKey)
	assert.True(t, c.CoinGecko.Pro)
	assert.Equal(t, "rapid", c.RapidTwitter.APIKey)
	assert.Equal(t, "codex", c.Codex.APIKey)
	assert.Equal(t, []string{"a:9092", "b:9092"}, c.Kafka.Brokers)
	assert.Equal(t, RecorderKafka, c.Recorder.Backend)
	assert.Equal(t, "redis", c.Cache.Host)
	assert.Equal(t, 6380, c.Cache.Port)
	assert.Equal(t, cache.DriverLayered, c.Cache.Driver)
	assert.NoError(t, c.Validate())

	assert.Error(t, c.applyEnv(func(k string) string {
		if k == "REDIS_ADDR" {
			return "no-port"
		}
		return ""
	}))
}

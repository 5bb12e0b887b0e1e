package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("GIVECYCLE_TEST_DEFAULTS")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 100, cfg.Matching.PoolSize)
	assert.Equal(t, 24*time.Hour, cfg.Matching.ExpiryWindow)
	assert.Equal(t, 6*time.Hour, cfg.Sweeper.Interval)
	assert.True(t, cfg.Matching.ModelScoring)
	assert.InDelta(t, 0.40, cfg.Matching.Weights.TrustScore, 1e-9)
	assert.InDelta(t, 0.20, cfg.Matching.Weights.LocationProximity, 1e-9)
	assert.InDelta(t, 0.20, cfg.Matching.Weights.TimeWaiting, 1e-9)
	assert.InDelta(t, 0.15, cfg.Matching.Weights.CompletedCycles, 1e-9)
	assert.InDelta(t, 0.05, cfg.Matching.Weights.Randomization, 1e-9)
	assert.Equal(t, "givecycle.notifications", cfg.Kafka.NotificationsTopic)
	assert.Empty(t, cfg.Redis.URL)
	assert.Equal(t, 120, cfg.Limits.AllocationRequests)
	assert.Equal(t, time.Minute, cfg.Limits.Window)
	assert.False(t, cfg.Tracing.Enabled)
	assert.Equal(t, 10000, cfg.Notify.BufferSize)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("GIVECYCLE_T_DATABASE_URL", "postgres://localhost/givecycle")
	t.Setenv("GIVECYCLE_T_MATCHING_POOL_SIZE", "25")
	t.Setenv("GIVECYCLE_T_MATCHING_WEIGHT_TRUST_SCORE", "0.5")
	t.Setenv("GIVECYCLE_T_SWEEPER_INTERVAL", "15m")
	t.Setenv("GIVECYCLE_T_KAFKA_BROKERS", "a:9092,b:9092")

	cfg, err := Load("GIVECYCLE_T")
	require.NoError(t, err)

	assert.Equal(t, 25, cfg.Matching.PoolSize)
	assert.InDelta(t, 0.5, cfg.Matching.Weights.TrustScore, 1e-9)
	assert.Equal(t, 15*time.Minute, cfg.Sweeper.Interval)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "postgres://localhost/givecycle", cfg.Database.CandidateURL, "candidate URL falls back to primary")
	assert.NoError(t, cfg.RequireDatabase())
}

func TestLoad_Rejects(t *testing.T) {
	t.Run("non-positive pool size", func(t *testing.T) {
		t.Setenv("GIVECYCLE_R1_MATCHING_POOL_SIZE", "0")
		_, err := Load("GIVECYCLE_R1")
		assert.Error(t, err)
	})

	t.Run("negative weight", func(t *testing.T) {
		t.Setenv("GIVECYCLE_R2_MATCHING_WEIGHT_RANDOMIZATION", "-0.1")
		_, err := Load("GIVECYCLE_R2")
		assert.ErrorContains(t, err, "RANDOMIZATION")
	})

	t.Run("missing database url", func(t *testing.T) {
		cfg, err := Load("GIVECYCLE_R3")
		require.NoError(t, err)
		assert.Error(t, cfg.RequireDatabase())
	})
}

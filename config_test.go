package prioritization

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/no0law1/kafka-prioritization/internal/logger"
	"github.com/no0law1/kafka-prioritization/types"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	require.Equal(t, "communications", cfg.Topic)
	require.Equal(t, 18, cfg.TotalPartitions)
	require.Equal(t, WeightsConfig{High: 0.5, Medium: 0.3, Low: 0.2}, cfg.Weights)
	require.Equal(t, "consumer", cfg.ConsumerGroup)
	require.Equal(t, 100*time.Millisecond, cfg.Worker.RetryBase)
	require.Equal(t, 5*time.Second, cfg.Worker.RetryMax)
	require.Equal(t, 2.0, cfg.Worker.RetryMultiplier)
	require.Equal(t, 30*time.Second, cfg.StartupTimeout)
	require.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	require.NoError(t, cfg.Validate())

	require.Equal(t, types.DefaultWeights(), cfg.Weights.TierWeights())
}

func TestSetDefaults(t *testing.T) {
	t.Run("applies defaults to empty config", func(t *testing.T) {
		cfg := Config{}
		SetDefaults(&cfg)

		require.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("preserves custom values", func(t *testing.T) {
		cfg := Config{
			Topic:           "notifications",
			TotalPartitions: 30,
			Weights:         WeightsConfig{High: 0.6, Medium: 0.2, Low: 0.2},
			ConsumerGroup:   "mailer",
			Worker: WorkerConfig{
				RetryBase:       time.Second,
				RetryMax:        time.Minute,
				RetryMultiplier: 3,
			},
			StartupTimeout:  time.Minute,
			ShutdownTimeout: 20 * time.Second,
		}
		want := cfg
		SetDefaults(&cfg)

		require.Equal(t, want, cfg)
	})

	t.Run("keeps partial weights", func(t *testing.T) {
		cfg := Config{Weights: WeightsConfig{High: 0.7}}
		SetDefaults(&cfg)

		require.Equal(t, WeightsConfig{High: 0.7}, cfg.Weights)
		require.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
	})
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"empty topic", func(c *Config) { c.Topic = "" }},
		{"empty group", func(c *Config) { c.ConsumerGroup = "" }},
		{"zero partitions", func(c *Config) { c.TotalPartitions = 0 }},
		{"negative partitions", func(c *Config) { c.TotalPartitions = -3 }},
		{"zero high", func(c *Config) { c.Weights.High = 0 }},
		{"fraction above one", func(c *Config) { c.Weights.Medium = 1.5 }},
		{"sum above one", func(c *Config) { c.Weights = WeightsConfig{High: 0.5, Medium: 0.4, Low: 0.2} }},
		{"retry max below base", func(c *Config) { c.Worker.RetryMax = c.Worker.RetryBase / 2 }},
		{"multiplier below one", func(c *Config) { c.Worker.RetryMultiplier = 0.5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)

			err := cfg.Validate()
			require.ErrorIs(t, err, ErrInvalidConfig)
			require.ErrorIs(t, err, ErrConfiguration)
		})
	}

	t.Run("sum below one is valid", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Weights = WeightsConfig{High: 0.4, Medium: 0.3, Low: 0.1}
		require.NoError(t, cfg.Validate())
	})
}

func TestConfig_ValidateWithWarnings(t *testing.T) {
	t.Run("defaults are quiet", func(t *testing.T) {
		rec := logger.NewRecorder()
		cfg := DefaultConfig()
		cfg.ValidateWithWarnings(rec)

		require.Empty(t, rec.Entries())
	})

	t.Run("sum below one", func(t *testing.T) {
		rec := logger.NewRecorder()
		cfg := DefaultConfig()
		cfg.Weights = WeightsConfig{High: 0.4, Medium: 0.3, Low: 0.1}
		cfg.ValidateWithWarnings(rec)

		require.Equal(t, 1, rec.Count("WARN", "tier weights sum to less than 1, Low absorbs the remainder"))
	})

	t.Run("small totals", func(t *testing.T) {
		rec := logger.NewRecorder()
		cfg := DefaultConfig()
		cfg.TotalPartitions = 2 // High [0,1), Medium empty, Low [1,2)
		cfg.ValidateWithWarnings(rec)

		require.Equal(t, 1, rec.Count("WARN", "tier owns no partitions, Start will fail"))
		require.Equal(t, 2, rec.Count("WARN", "tier owns a single partition, its throughput is capped by one consumer"))
	})
}

func TestTestConfig(t *testing.T) {
	cfg := TestConfig()

	require.NoError(t, cfg.Validate())
	require.Less(t, cfg.Worker.RetryMax, DefaultConfig().Worker.RetryMax)
	require.Less(t, cfg.ShutdownTimeout, DefaultConfig().ShutdownTimeout)
}

// TestConfig_YAML demonstrates that time.Duration works directly with YAML unmarshaling
func TestConfig_YAML(t *testing.T) {
	yamlConfig := `
topic: "notifications"
totalPartitions: 24
weights:
  high: 0.25
  medium: 0.25
  low: 0.5
consumerGroup: "mailer"
worker:
  retryBase: 250ms
  retryMax: 10s
  retryMultiplier: 1.5
startupTimeout: 45s
shutdownTimeout: 15s
`

	var cfg Config
	err := yaml.Unmarshal([]byte(yamlConfig), &cfg)
	require.NoError(t, err)

	require.Equal(t, "notifications", cfg.Topic)
	require.Equal(t, 24, cfg.TotalPartitions)
	require.Equal(t, WeightsConfig{High: 0.25, Medium: 0.25, Low: 0.5}, cfg.Weights)
	require.Equal(t, "mailer", cfg.ConsumerGroup)
	require.Equal(t, 250*time.Millisecond, cfg.Worker.RetryBase)
	require.Equal(t, 10*time.Second, cfg.Worker.RetryMax)
	require.Equal(t, 1.5, cfg.Worker.RetryMultiplier)
	require.Equal(t, 45*time.Second, cfg.StartupTimeout)
	require.Equal(t, 15*time.Second, cfg.ShutdownTimeout)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()

	t.Run("partial file gets defaults", func(t *testing.T) {
		path := filepath.Join(dir, "partial.yaml")
		require.NoError(t, os.WriteFile(path, []byte("topic: orders\ntotalPartitions: 36\n"), 0o600))

		cfg, err := LoadConfig(path)
		require.NoError(t, err)
		require.Equal(t, "orders", cfg.Topic)
		require.Equal(t, 36, cfg.TotalPartitions)
		require.Equal(t, DefaultConfig().Weights, cfg.Weights)
		require.Equal(t, "consumer", cfg.ConsumerGroup)
		require.Equal(t, 30*time.Second, cfg.StartupTimeout)
	})

	t.Run("malformed file", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("totalPartitions: [1, 2\n"), 0o600))

		_, err := LoadConfig(path)
		require.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(dir, "missing.yaml"))
		require.ErrorIs(t, err, os.ErrNotExist)
	})
}

package prioritization

import (
	"fmt"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/no0law1/kafka-prioritization/tiering"
	"github.com/no0law1/kafka-prioritization/types"
)

// sumEpsilon tolerates float error when fractions like 0.5+0.3+0.2 are summed.
const sumEpsilon = 1e-9

// WeightsConfig holds the share of the topic's partitions given to each tier.
//
// Tiers are laid out High, Medium, Low from partition 0. High and Medium get
// floor(total*fraction) partitions; Low takes the remainder, so a sum below 1
// grows the Low tier.
type WeightsConfig struct {
	High   float64 `yaml:"high"`
	Medium float64 `yaml:"medium"`
	Low    float64 `yaml:"low"`
}

// TierWeights converts the configuration into the ordered weight sequence
// used by the tiering package.
func (w WeightsConfig) TierWeights() types.Weights {
	return types.Weights{
		{Priority: types.PriorityHigh, Fraction: w.High},
		{Priority: types.PriorityMedium, Fraction: w.Medium},
		{Priority: types.PriorityLow, Fraction: w.Low},
	}
}

// WorkerConfig tunes the retry behavior of the tier worker loops.
type WorkerConfig struct {
	// RetryBase is the backoff after the first failed poll.
	// Default: 100ms
	RetryBase time.Duration `yaml:"retryBase"`

	// RetryMax caps the backoff between failed polls. Polls are retried
	// forever; only the delay is capped.
	// Default: 5s
	RetryMax time.Duration `yaml:"retryMax"`

	// RetryMultiplier grows the backoff after each consecutive failure.
	// Default: 2.0
	RetryMultiplier float64 `yaml:"retryMultiplier"`
}

// Config is the configuration for the Router.
//
// All duration fields accept standard Go duration strings like "30s", "5m", "1h".
type Config struct {
	// Topic is the single topic carrying every priority class.
	Topic string `yaml:"topic"`

	// TotalPartitions is the partition count the tier table is built for.
	// Start fails if the substrate reports a different count.
	TotalPartitions int `yaml:"totalPartitions"`

	// Weights is the per-tier share of TotalPartitions.
	Weights WeightsConfig `yaml:"weights"`

	// ConsumerGroup is the group identifier shared by the three tier bindings.
	ConsumerGroup string `yaml:"consumerGroup"`

	// Worker tunes the tier worker loops.
	Worker WorkerConfig `yaml:"worker"`

	// StartupTimeout bounds Start: topic inspection, table reconciliation and
	// binding creation.
	// Recommended: 30 seconds.
	StartupTimeout time.Duration `yaml:"startupTimeout"`

	// ShutdownTimeout bounds how long Stop waits for the tier loops when the
	// caller's context has no deadline.
	// Recommended: 10 seconds.
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// DefaultConfig returns a Config with sensible defaults.
//
// Returns:
//   - Config: 18 partitions of "communications" split High 0.5, Medium 0.3,
//     Low 0.2 for the "consumer" group
func DefaultConfig() Config {
	return Config{
		Topic:           "communications",
		TotalPartitions: 18,
		Weights: WeightsConfig{
			High:   0.5,
			Medium: 0.3,
			Low:    0.2,
		},
		ConsumerGroup: "consumer",
		Worker: WorkerConfig{
			RetryBase:       100 * time.Millisecond,
			RetryMax:        5 * time.Second,
			RetryMultiplier: 2.0,
		},
		StartupTimeout:  30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

// SetDefaults fills in missing configuration values with production defaults.
//
// Weights are defaulted as a whole: a config that sets any fraction keeps
// its own values, including zeros.
//
// Parameters:
//   - cfg: Config to apply defaults to (modified in place)
func SetDefaults(cfg *Config) {
	defaults := DefaultConfig()

	if cfg.Topic == "" {
		cfg.Topic = defaults.Topic
	}
	if cfg.TotalPartitions == 0 {
		cfg.TotalPartitions = defaults.TotalPartitions
	}
	if cfg.Weights == (WeightsConfig{}) {
		cfg.Weights = defaults.Weights
	}
	if cfg.ConsumerGroup == "" {
		cfg.ConsumerGroup = defaults.ConsumerGroup
	}
	if cfg.Worker.RetryBase == 0 {
		cfg.Worker.RetryBase = defaults.Worker.RetryBase
	}
	if cfg.Worker.RetryMax == 0 {
		cfg.Worker.RetryMax = defaults.Worker.RetryMax
	}
	if cfg.Worker.RetryMultiplier == 0 {
		cfg.Worker.RetryMultiplier = defaults.Worker.RetryMultiplier
	}
	if cfg.StartupTimeout == 0 {
		cfg.StartupTimeout = defaults.StartupTimeout
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = defaults.ShutdownTimeout
	}
}

// Validate checks configuration constraints and returns error for invalid values.
//
// Hard Validation Rules:
//   - Topic and ConsumerGroup are non-empty
//   - TotalPartitions > 0
//   - Each tier fraction is in (0, 1]
//   - Fractions sum to at most 1
//   - RetryMax >= RetryBase, RetryMultiplier >= 1
//
// Returns:
//   - error: ErrInvalidConfig (wrapped) with a clear explanation, nil if valid
func (cfg *Config) Validate() error {
	// Rule 1: Topic and group
	if cfg.Topic == "" {
		return fmt.Errorf("%w: topic must not be empty", ErrInvalidConfig)
	}
	if cfg.ConsumerGroup == "" {
		return fmt.Errorf("%w: consumerGroup must not be empty", ErrInvalidConfig)
	}

	// Rule 2: Partition count
	if cfg.TotalPartitions <= 0 {
		return fmt.Errorf("%w: totalPartitions must be > 0, got %d", ErrInvalidConfig, cfg.TotalPartitions)
	}

	// Rule 3: Fractions
	var sum float64
	for _, tw := range cfg.Weights.TierWeights() {
		if math.IsNaN(tw.Fraction) || tw.Fraction <= 0 || tw.Fraction > 1 {
			return fmt.Errorf("%w: %s weight must be in (0,1], got %v", ErrInvalidConfig, tw.Priority, tw.Fraction)
		}
		sum += tw.Fraction
	}
	if sum > 1+sumEpsilon {
		return fmt.Errorf("%w: weights sum to %v, must not exceed 1", ErrInvalidConfig, sum)
	}

	// Rule 4: Worker retry tuning
	if cfg.Worker.RetryBase < 0 || cfg.Worker.RetryMax < cfg.Worker.RetryBase {
		return fmt.Errorf(
			"%w: worker.retryMax (%v) must be >= worker.retryBase (%v)",
			ErrInvalidConfig, cfg.Worker.RetryMax, cfg.Worker.RetryBase,
		)
	}
	if cfg.Worker.RetryMultiplier < 1 {
		return fmt.Errorf("%w: worker.retryMultiplier must be >= 1, got %v", ErrInvalidConfig, cfg.Worker.RetryMultiplier)
	}

	return nil
}

// ValidateWithWarnings logs warnings for values that are valid but probably
// not what the operator meant.
//
// This is called after Validate() in NewRouter() to provide operator guidance.
//
// Parameters:
//   - logger: Logger instance for warning output
func (cfg *Config) ValidateWithWarnings(logger Logger) {
	sum := cfg.Weights.High + cfg.Weights.Medium + cfg.Weights.Low
	if sum < 1-sumEpsilon {
		logger.Warn(
			"tier weights sum to less than 1, Low absorbs the remainder",
			"sum", sum,
			"low", cfg.Weights.Low,
		)
	}

	table, err := tiering.New(cfg.TotalPartitions, cfg.Weights.TierWeights())
	if err != nil {
		return
	}
	for _, p := range table.EmptyTiers() {
		logger.Warn(
			"tier owns no partitions, Start will fail",
			"priority", p.String(),
			"totalPartitions", cfg.TotalPartitions,
			"table", table.String(),
		)
	}
	for _, tr := range table.Ranges() {
		if tr.Range.Len() == 1 {
			logger.Warn(
				"tier owns a single partition, its throughput is capped by one consumer",
				"priority", tr.Priority.String(),
				"partition", tr.Range.Start,
			)
		}
	}
}

// TestConfig returns a configuration optimized for fast test execution.
//
// Retry and timeout values are 10-100x shorter than production defaults.
// Use DefaultConfig() for production deployments.
//
// Returns:
//   - Config: Configuration with fast timings for tests
//
// Example:
//
//	cfg := prioritization.TestConfig()
//	cfg.Topic = "notifications"
//	router, err := prioritization.NewRouter(cfg, broker, handler)
func TestConfig() Config {
	cfg := DefaultConfig()

	cfg.Worker.RetryBase = 5 * time.Millisecond // 20x faster
	cfg.Worker.RetryMax = 50 * time.Millisecond // 100x faster
	cfg.StartupTimeout = 5 * time.Second        // 6x faster
	cfg.ShutdownTimeout = 2 * time.Second       // 5x faster

	return cfg
}

// LoadConfig reads a YAML configuration file and applies defaults to the
// fields it leaves unset.
//
// Parameters:
//   - path: Path to the YAML file
//
// Returns:
//   - Config: Parsed configuration with defaults applied (not validated)
//   - error: Read or parse error
//
// Example:
//
//	cfg, err := prioritization.LoadConfig("prioritization.yaml")
//	if err != nil { /* handle */ }
//	if err := cfg.Validate(); err != nil { /* handle */ }
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: failed to parse %s: %w", ErrInvalidConfig, path, err)
	}
	SetDefaults(&cfg)

	return cfg, nil
}

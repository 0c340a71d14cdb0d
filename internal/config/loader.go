// Package config provides configuration management for the Wincast pipeline.
package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Load reads and parses the configuration from file and environment variables.
// It expands environment variable placeholders in the YAML file (${VAR_NAME})
// and fills every tuning constant with its default value.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath == "" {
		configPath = "config/config.yaml"
	}

	v.SetConfigType("yaml")
	v.SetEnvPrefix("WINCAST")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	// Read and expand the configuration file if it exists
	if data, err := os.ReadFile(configPath); err == nil {
		expanded := os.ExpandEnv(string(data))
		if err := v.ReadConfig(bytes.NewBuffer([]byte(expanded))); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	// If the file doesn't exist, continue with defaults and environment variables

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return cfg, nil
}

// setDefaults registers the tuned constants of the pipeline. Each value is
// a documented default, adjustable per deployment.
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "wincast")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("data.data_dir", "data")
	v.SetDefault("data.output_dir", "output")
	v.SetDefault("data.venues", []string{"ISTANBUL"})
	v.SetDefault("data.fetch_timeout_seconds", 60)
	v.SetDefault("data.fetch_retry_attempts", 3)
	v.SetDefault("data.rate_limit_per_sec", 2.0)

	v.SetDefault("features.no_experience_default", 0.2)
	v.SetDefault("features.ideal_rest_days", 15)
	v.SetDefault("features.distance_band_meters", 200)
	v.SetDefault("features.recency_half_life_days", 90)
	v.SetDefault("features.form_decay_last3", 0.7)
	v.SetDefault("features.form_decay_last6", 0.5)
	v.SetDefault("features.form_weight_class_rank", 0.55)
	v.SetDefault("features.form_weight_last3", 0.20)
	v.SetDefault("features.form_weight_last5", 0.08)
	v.SetDefault("features.form_weight_last_result", 0.12)
	v.SetDefault("features.form_weight_same_cond", 0.05)
	v.SetDefault("features.scale_last3_form", 3.0)
	v.SetDefault("features.scale_last5_form", 2.0)
	v.SetDefault("features.scale_last2_wins", 5.0)
	v.SetDefault("features.scale_last_result", 5.0)
	v.SetDefault("features.scale_same_cond", 2.0)
	v.SetDefault("features.scale_form_score", 10.0)
	v.SetDefault("features.winsorize_low", 0.01)
	v.SetDefault("features.winsorize_high", 0.99)
	v.SetDefault("features.correlation_prune", 0.98)
	v.SetDefault("features.aggregate_cache_ttl", 30*time.Minute)

	v.SetDefault("training.seed", 42)
	v.SetDefault("training.tree_count", 5)
	v.SetDefault("training.grid_folds", 3)
	v.SetDefault("training.stacking_folds", 5)
	v.SetDefault("training.boosting_rounds", 300)
	v.SetDefault("training.ranker_rounds", 300)
	v.SetDefault("training.meta_iterations", 1000)
	v.SetDefault("training.evaluation_folds", 5)

	v.SetDefault("inference.blend_mode", "context")
	v.SetDefault("inference.softmax_calibration", false)
	v.SetDefault("inference.softmax_temperature", 0.6)
	v.SetDefault("inference.h2h_boost_alpha", 1.5)
	v.SetDefault("inference.rescale_floor", 0.1)
	v.SetDefault("inference.rescale_ceil", 0.9)
	v.SetDefault("inference.rerank_bonus", true)
	v.SetDefault("inference.top_k", 3)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("schedule.cron", "0 9 * * *")
	v.SetDefault("schedule.venue_timeout_minutes", 10)
}

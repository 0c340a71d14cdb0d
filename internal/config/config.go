// Package config provides configuration management for the Wincast pipeline.
package config

import (
	"fmt"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	App       AppConfig       `mapstructure:"app" validate:"required"`
	Data      DataConfig      `mapstructure:"data" validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Features  FeaturesConfig  `mapstructure:"features" validate:"required"`
	Training  TrainingConfig  `mapstructure:"training" validate:"required"`
	Inference InferenceConfig `mapstructure:"inference" validate:"required"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Schedule  ScheduleConfig  `mapstructure:"schedule"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// DataConfig represents race-card data access configuration
type DataConfig struct {
	APIURL             string   `mapstructure:"api_url" validate:"omitempty,url"`
	DataDir            string   `mapstructure:"data_dir" validate:"required"`
	OutputDir          string   `mapstructure:"output_dir" validate:"required"`
	Venues             []string `mapstructure:"venues" validate:"required,min=1"`
	FetchTimeoutSecs   int      `mapstructure:"fetch_timeout_seconds" validate:"required,gt=0"`
	FetchRetryAttempts int      `mapstructure:"fetch_retry_attempts" validate:"gte=0"`
	RateLimitPerSec    float64  `mapstructure:"rate_limit_per_sec" validate:"gt=0"`
}

// DatabaseConfig represents optional prediction-store configuration.
// When Host is empty, predictions are written to files only.
type DatabaseConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	Name           string `mapstructure:"name"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	SSLMode        string `mapstructure:"ssl_mode" validate:"omitempty,oneof=disable require verify-full"`
	MaxConnections int    `mapstructure:"max_connections" validate:"omitempty,gt=0"`
}

// FeaturesConfig carries the tunable constants of the feature engine. The
// weighted feature multipliers are deliberate scale corrections inherited
// from tuning, kept configurable rather than hard-coded.
type FeaturesConfig struct {
	NoExperienceDefault float64 `mapstructure:"no_experience_default" validate:"gte=0,lte=1"`
	IdealRestDays       float64 `mapstructure:"ideal_rest_days" validate:"gt=0"`
	DistanceBandMeters  int     `mapstructure:"distance_band_meters" validate:"gt=0"`
	RecencyHalfLifeDays float64 `mapstructure:"recency_half_life_days" validate:"gt=0"`

	FormDecayLast3 float64 `mapstructure:"form_decay_last3" validate:"gt=0"`
	FormDecayLast6 float64 `mapstructure:"form_decay_last6" validate:"gt=0"`

	// Convex weights of the composite form score.
	FormWeightClassRank  float64 `mapstructure:"form_weight_class_rank" validate:"gte=0"`
	FormWeightLast3      float64 `mapstructure:"form_weight_last3" validate:"gte=0"`
	FormWeightLast5      float64 `mapstructure:"form_weight_last5" validate:"gte=0"`
	FormWeightLastResult float64 `mapstructure:"form_weight_last_result" validate:"gte=0"`
	FormWeightSameCond   float64 `mapstructure:"form_weight_same_cond" validate:"gte=0"`

	// Scale multipliers for the "weighted" feature variants.
	ScaleLast3Form    float64       `mapstructure:"scale_last3_form" validate:"gt=0"`
	ScaleLast5Form    float64       `mapstructure:"scale_last5_form" validate:"gt=0"`
	ScaleLast2Wins    float64       `mapstructure:"scale_last2_wins" validate:"gt=0"`
	ScaleLastResult   float64       `mapstructure:"scale_last_result" validate:"gt=0"`
	ScaleSameCond     float64       `mapstructure:"scale_same_cond" validate:"gt=0"`
	ScaleFormScore    float64       `mapstructure:"scale_form_score" validate:"gt=0"`
	WinsorizeLow      float64       `mapstructure:"winsorize_low" validate:"gte=0,lt=1"`
	WinsorizeHigh     float64       `mapstructure:"winsorize_high" validate:"gt=0,lte=1"`
	CorrelationPrune  float64       `mapstructure:"correlation_prune" validate:"gt=0,lte=1"`
	AggregateCacheTTL time.Duration `mapstructure:"aggregate_cache_ttl"`
}

// TrainingConfig represents ensemble-trainer configuration
type TrainingConfig struct {
	Seed            int64 `mapstructure:"seed"`
	TreeCount       int   `mapstructure:"tree_count" validate:"required,gt=0"`
	GridFolds       int   `mapstructure:"grid_folds" validate:"required,gte=2"`
	StackingFolds   int   `mapstructure:"stacking_folds" validate:"required,gte=2"`
	BoostingRounds  int   `mapstructure:"boosting_rounds" validate:"required,gt=0"`
	RankerRounds    int   `mapstructure:"ranker_rounds" validate:"required,gt=0"`
	MetaIterations  int   `mapstructure:"meta_iterations" validate:"required,gt=0"`
	EvaluationFolds int   `mapstructure:"evaluation_folds" validate:"required,gte=2"`
}

// InferenceConfig represents blending and calibration configuration
type InferenceConfig struct {
	// BlendMode selects how the seven base-model outputs are combined:
	// "context" uses fixed per-race-class weight vectors, "meta" uses the
	// stacked logistic combiner, "average" is the plain mean.
	BlendMode          string  `mapstructure:"blend_mode" validate:"required,oneof=context meta average"`
	SoftmaxCalibration bool    `mapstructure:"softmax_calibration"`
	SoftmaxTemperature float64 `mapstructure:"softmax_temperature" validate:"gt=0"`
	H2HBoostAlpha      float64 `mapstructure:"h2h_boost_alpha" validate:"gte=0"`
	RescaleFloor       float64 `mapstructure:"rescale_floor" validate:"gte=0,lt=1"`
	RescaleCeil        float64 `mapstructure:"rescale_ceil" validate:"gt=0,lte=1"`
	RerankBonus        bool    `mapstructure:"rerank_bonus"`
	TopK               int     `mapstructure:"top_k" validate:"gt=0"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	Path    string `mapstructure:"path"`
}

// ScheduleConfig represents daily automation configuration
type ScheduleConfig struct {
	Cron            string `mapstructure:"cron"`
	VenueTimeoutMin int    `mapstructure:"venue_timeout_minutes" validate:"omitempty,gt=0"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// HasDatabase reports whether a prediction store is configured.
func (c *Config) HasDatabase() bool {
	return c.Database.Host != ""
}

// GetDatabaseDSN returns a PostgreSQL DSN string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

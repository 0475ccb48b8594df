// Package config loads checker configuration from file, environment and
// defaults via viper, validated with struct tags.
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config holds all configuration for the checker.
type Config struct {
	// Log configuration
	Log LogConfig `mapstructure:"log"`

	// Input configuration
	Input InputConfig `mapstructure:"input"`

	// Output configuration
	Output OutputConfig `mapstructure:"output"`

	// Check configuration
	Check CheckConfig `mapstructure:"check"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	// File, when set, receives a copy of every log line.
	File string `mapstructure:"file"`
}

// InputConfig describes the relation file and its row layout.
type InputConfig struct {
	// Path to the pipe-delimited relation file.
	Path      string `mapstructure:"path"`
	Delimiter string `mapstructure:"delimiter" validate:"len=1"`
	// Zero-based column positions of the three consumed fields.
	SourceCol   int `mapstructure:"source_col" validate:"gte=0"`
	TargetCol   int `mapstructure:"target_col" validate:"gte=0"`
	RelationCol int `mapstructure:"relation_col" validate:"gte=0"`
	// Progress toggles the byte-progress bar during the read phase.
	Progress bool `mapstructure:"progress"`
}

// OutputConfig selects where and how findings are written.
type OutputConfig struct {
	Dir string `mapstructure:"dir" validate:"required"`
	// Format is csv, duckdb or both.
	Format string `mapstructure:"format" validate:"oneof=csv duckdb both"`
}

// CheckConfig tunes the detectors.
type CheckConfig struct {
	// Mode is parent-child, broader-than or both.
	Mode string `mapstructure:"mode" validate:"oneof=parent-child broader-than both"`
	// CycleBudget caps per-component cycle enumeration effort; 0 keeps the
	// built-in default.
	CycleBudget int64 `mapstructure:"cycle_budget" validate:"gte=0"`
	// Workers bounds the parallel component fan-out; 0 keeps the built-in
	// default.
	Workers int `mapstructure:"workers" validate:"gte=0"`
}

// Load loads configuration from file and environment variables.
func Load() (*Config, error) {
	setDefaults()

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	overrideWithEnv(config)

	return config, nil
}

// Validate checks the configuration against its struct tags.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// setDefaults sets default configuration values.
func setDefaults() {
	// Log defaults
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.file", "")

	// Input defaults match the compact relation export layout.
	viper.SetDefault("input.delimiter", "|")
	viper.SetDefault("input.source_col", 0)
	viper.SetDefault("input.target_col", 1)
	viper.SetDefault("input.relation_col", 3)
	viper.SetDefault("input.progress", true)

	// Output defaults
	viper.SetDefault("output.dir", "relcheck_output")
	viper.SetDefault("output.format", "csv")

	// Check defaults
	viper.SetDefault("check.mode", "both")
	viper.SetDefault("check.cycle_budget", 0)
	viper.SetDefault("check.workers", 0)
}

// overrideWithEnv overrides config with environment variables.
func overrideWithEnv(config *Config) {
	if path := os.Getenv("RELCHECK_INPUT"); path != "" {
		config.Input.Path = path
	}
	if dir := os.Getenv("RELCHECK_OUTPUT_DIR"); dir != "" {
		config.Output.Dir = dir
	}
	if level := os.Getenv("RELCHECK_LOG_LEVEL"); level != "" {
		config.Log.Level = level
	}
	if mode := os.Getenv("RELCHECK_MODE"); mode != "" {
		config.Check.Mode = mode
	}
}

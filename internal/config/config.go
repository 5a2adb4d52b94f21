// Package config loads the service configuration from a JSON file,
// filling defaults for anything the file leaves out.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config is the full service configuration.
type Config struct {
	Server    ServerConfig    `json:"server"`
	Database  DatabaseConfig  `json:"database"`
	Optimizer OptimizerConfig `json:"optimizer"`
	Decision  DecisionConfig  `json:"decision"`
	Scheduler SchedulerConfig `json:"scheduler"`
	LogLevel  string          `json:"log_level" validate:"oneof=debug info warn error"`
}

// ServerConfig tunes the HTTP API.
type ServerConfig struct {
	Port         string   `json:"port" validate:"required"`
	AllowOrigins []string `json:"allow_origins"`
}

// DatabaseConfig locates the fleet store.
type DatabaseConfig struct {
	Path string `json:"path" validate:"required"`
}

// OptimizerConfig bounds the assignment optimizer.
type OptimizerConfig struct {
	MaxConcurrent  int `json:"max_concurrent" validate:"min=1"`
	QueueSize      int `json:"queue_size" validate:"min=1"`
	MaxPositions   int `json:"max_positions" validate:"min=1"`
	TimeoutSeconds int `json:"timeout_seconds" validate:"min=5,max=300"`
}

// DecisionConfig tunes the autonomous decision engine.
type DecisionConfig struct {
	ConfidenceThreshold     float64 `json:"confidence_threshold" validate:"gt=0,lte=1"`
	MaxAutonomousTrainsets  int     `json:"max_autonomous_trainsets" validate:"min=1"`
	EvaluateIntervalSeconds int     `json:"evaluate_interval_seconds" validate:"min=1"`
	ExecuteIntervalSeconds  int     `json:"execute_interval_seconds" validate:"min=1"`
}

// EvaluateInterval returns the rule evaluation period.
func (c DecisionConfig) EvaluateInterval() time.Duration {
	return time.Duration(c.EvaluateIntervalSeconds) * time.Second
}

// ExecuteInterval returns the execution sweep period.
func (c DecisionConfig) ExecuteInterval() time.Duration {
	return time.Duration(c.ExecuteIntervalSeconds) * time.Second
}

// SchedulerConfig tunes the intelligent scheduler.
type SchedulerConfig struct {
	ConfidenceThreshold        float64 `json:"confidence_threshold" validate:"gt=0,lte=1"`
	AutoExecutionThreshold     float64 `json:"auto_execution_threshold" validate:"gt=0,lte=1"`
	ScheduleIntervalMinutes    int     `json:"schedule_interval_minutes" validate:"min=1"`
	PerformanceIntervalMinutes int     `json:"performance_interval_minutes" validate:"min=1"`
	AdaptiveIntervalMinutes    int     `json:"adaptive_interval_minutes" validate:"min=1"`
}

// ScheduleInterval returns the scheduling loop period.
func (c SchedulerConfig) ScheduleInterval() time.Duration {
	return time.Duration(c.ScheduleIntervalMinutes) * time.Minute
}

// PerformanceInterval returns the performance analysis period.
func (c SchedulerConfig) PerformanceInterval() time.Duration {
	return time.Duration(c.PerformanceIntervalMinutes) * time.Minute
}

// AdaptiveInterval returns the threshold adaptation period.
func (c SchedulerConfig) AdaptiveInterval() time.Duration {
	return time.Duration(c.AdaptiveIntervalMinutes) * time.Minute
}

// Default returns the production configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:         "8090",
			AllowOrigins: []string{"http://localhost:3000", "http://localhost:8080"},
		},
		Database: DatabaseConfig{Path: "navyatra.db"},
		Optimizer: OptimizerConfig{
			MaxConcurrent:  5,
			QueueSize:      20,
			MaxPositions:   30,
			TimeoutSeconds: 30,
		},
		Decision: DecisionConfig{
			ConfidenceThreshold:     0.75,
			MaxAutonomousTrainsets:  15,
			EvaluateIntervalSeconds: 30,
			ExecuteIntervalSeconds:  10,
		},
		Scheduler: SchedulerConfig{
			ConfidenceThreshold:        0.75,
			AutoExecutionThreshold:     0.85,
			ScheduleIntervalMinutes:    5,
			PerformanceIntervalMinutes: 15,
			AdaptiveIntervalMinutes:    60,
		},
		LogLevel: "info",
	}
}

// Load reads the file at path over the defaults. An empty path returns
// the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("reading config file: %w", err)
		}
		if err := json.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config file: %w", err)
		}
	}
	if err := validator.New().Struct(cfg); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

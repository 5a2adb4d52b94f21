package optimizer

import (
	"errors"
	"time"

	"github.com/itzzomkar/NavYatra/pkg/models"
)

// Algorithm identifies one of the three assignment drivers.
type Algorithm string

const (
	AlgorithmConstraint Algorithm = "constraint_programming"
	AlgorithmGenetic    Algorithm = "genetic_algorithm"
	AlgorithmAnnealing  Algorithm = "simulated_annealing"
)

// Algorithms returns the drivers in preference order.
func Algorithms() []Algorithm {
	return []Algorithm{AlgorithmConstraint, AlgorithmGenetic, AlgorithmAnnealing}
}

// IsValid checks if an Algorithm names a known driver
func (a Algorithm) IsValid() bool {
	switch a {
	case AlgorithmConstraint, AlgorithmGenetic, AlgorithmAnnealing:
		return true
	}
	return false
}

// Status reports how an optimization run ended.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// ErrQueueFull is returned when the pending-request bound is exceeded.
var ErrQueueFull = errors.New("optimizer: request queue full")

// Constraints bound an optimization run. The scheduler fills these from
// the active schedule template; direct callers may leave them zero.
type Constraints struct {
	MinTrainsets     int     `json:"min_trainsets"`
	MaxTrainsets     int     `json:"max_trainsets"`
	EnergyCapKWh     float64 `json:"energy_cap_kwh"`
	CostCap          float64 `json:"cost_cap"`
	FrequencyMinutes int     `json:"frequency_minutes"`
}

// OptimizationRequest describes one optimization run.
type OptimizationRequest struct {
	Algorithm      Algorithm          `json:"algorithm" validate:"required"`
	MaxPositions   int                `json:"max_positions" validate:"required,min=1"`
	TimeoutSeconds int                `json:"timeout_seconds" validate:"min=5,max=300"`
	Parameters     map[string]float64 `json:"parameters,omitempty"`
	Constraints    Constraints        `json:"constraints"`

	// FromScheduler enables the health-based feasibility tightening.
	FromScheduler bool `json:"from_scheduler"`

	// Health carries the latest health view per trainset id. May be nil.
	Health map[string]models.HealthView `json:"-"`
}

// Param returns a named parameter or the given default.
func (r OptimizationRequest) Param(name string, def float64) float64 {
	if v, ok := r.Parameters[name]; ok {
		return v
	}
	return def
}

// OptimizationResult is the outcome of one driver run.
type OptimizationResult struct {
	Assignment    models.Assignment `json:"assignment"`
	Score         float64           `json:"score"`
	Algorithm     Algorithm         `json:"algorithm"`
	ExecutionTime time.Duration     `json:"execution_time"`
	Reasoning     map[string]string `json:"reasoning"`
	Violations    map[string]int    `json:"constraint_violations,omitempty"`
	Status        Status            `json:"status"`
	FailureReason string            `json:"failure_reason,omitempty"`
}

// Completed reports whether the run produced a usable assignment.
func (r OptimizationResult) Completed() bool {
	return r.Status == StatusCompleted
}

func failedResult(algorithm Algorithm, started time.Time, reason string) OptimizationResult {
	return OptimizationResult{
		Assignment:    models.Assignment{},
		Algorithm:     algorithm,
		ExecutionTime: time.Since(started),
		Status:        StatusFailed,
		FailureReason: reason,
	}
}

package optimizer

import (
	"context"
	"fmt"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/itzzomkar/NavYatra/pkg/models"
)

// Config bounds the optimizer's resources.
type Config struct {
	MaxConcurrent int     // concurrent runs, semaphore-capped
	QueueSize     int     // pending requests beyond which Optimize rejects
	MaxPositions  int     // global ceiling P on stabling positions
	Weights       Weights // scoring weights
}

// DefaultConfig returns the production resource bounds.
func DefaultConfig() Config {
	return Config{
		MaxConcurrent: 5,
		QueueSize:     20,
		MaxPositions:  30,
		Weights:       DefaultWeights(),
	}
}

// Optimizer runs assignment optimizations under bounded concurrency.
// Safe for use from multiple goroutines.
type Optimizer struct {
	cfg      Config
	sem      *semaphore.Weighted
	pending  atomic.Int64
	validate *validator.Validate
	logger   *zap.Logger
}

// New creates an optimizer with the given bounds.
func New(cfg Config, logger *zap.Logger) *Optimizer {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 5
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 20
	}
	if cfg.MaxPositions <= 0 {
		cfg.MaxPositions = 30
	}
	if cfg.Weights == (Weights{}) {
		cfg.Weights = DefaultWeights()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Optimizer{
		cfg:      cfg,
		sem:      semaphore.NewWeighted(int64(cfg.MaxConcurrent)),
		validate: validator.New(),
		logger:   logger,
	}
}

// Optimize runs one request against a fleet snapshot. Validation
// problems return an error; solver failures return a failed result with
// a nil error so callers can fall back to another algorithm.
func (o *Optimizer) Optimize(ctx context.Context, req OptimizationRequest, fleet []models.Trainset) (OptimizationResult, error) {
	if err := o.validateRequest(req, fleet); err != nil {
		return OptimizationResult{}, err
	}

	if o.pending.Add(1) > int64(o.cfg.QueueSize) {
		o.pending.Add(-1)
		return OptimizationResult{}, ErrQueueFull
	}
	defer o.pending.Add(-1)

	if err := o.sem.Acquire(ctx, 1); err != nil {
		return OptimizationResult{}, fmt.Errorf("acquiring optimization slot: %w", err)
	}
	defer o.sem.Release(1)

	runCtx, cancel := context.WithTimeout(ctx, time.Duration(req.TimeoutSeconds)*time.Second)
	defer cancel()

	eligible := eligibleFleet(fleet, req)
	fleetMean := FleetMeanMileage(fleet)
	rng := o.newRand(req)

	var result OptimizationResult
	switch req.Algorithm {
	case AlgorithmConstraint:
		result = runExact(runCtx, req, eligible, fleetMean, o.cfg.Weights)
	case AlgorithmGenetic:
		result = runGenetic(runCtx, req, eligible, fleetMean, o.cfg.Weights, rng)
	case AlgorithmAnnealing:
		result = runAnnealing(runCtx, req, eligible, fleetMean, o.cfg.Weights, rng)
	}

	if result.Completed() {
		result.Reasoning = buildReasoning(result.Assignment, fleetIndex(eligible), fleetMean)
		o.logger.Info("optimization completed",
			zap.String("algorithm", string(result.Algorithm)),
			zap.Int("assigned", len(result.Assignment)),
			zap.Float64("score", result.Score),
			zap.Duration("took", result.ExecutionTime))
	} else {
		o.logger.Warn("optimization failed",
			zap.String("algorithm", string(result.Algorithm)),
			zap.String("reason", result.FailureReason))
	}

	return result, nil
}

// Pending returns the number of requests currently admitted.
func (o *Optimizer) Pending() int {
	return int(o.pending.Load())
}

func (o *Optimizer) validateRequest(req OptimizationRequest, fleet []models.Trainset) error {
	var errors models.ValidationErrors

	errors.AddIf(len(fleet) == 0, "Fleet", len(fleet), "fleet snapshot is empty")
	errors.AddIf(!req.Algorithm.IsValid(), "Algorithm", req.Algorithm, "unknown algorithm")
	errors.AddIf(req.MaxPositions <= 0, "MaxPositions", req.MaxPositions,
		"MaxPositions must be positive")
	errors.AddIf(req.MaxPositions > o.cfg.MaxPositions, "MaxPositions", req.MaxPositions,
		fmt.Sprintf("MaxPositions exceeds ceiling %d", o.cfg.MaxPositions))

	if err := o.validate.Struct(req); err != nil {
		errors.Add("Request", nil, err.Error())
	}

	if errors.HasErrors() {
		return errors
	}
	return nil
}

// newRand builds the driver RNG. A "seed" parameter pins the stream so
// metaheuristic runs are reproducible.
func (o *Optimizer) newRand(req OptimizationRequest) *rand.Rand {
	if seed, ok := req.Parameters["seed"]; ok {
		return rand.New(rand.NewSource(int64(seed)))
	}
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

package feedback

import (
	"math"
	"sync"

	"go.uber.org/zap"

	"github.com/itzzomkar/NavYatra/pkg/stats"
)

const (
	historyCap      = 1000
	minTrainingRuns = 10
	learningRate    = 0.01
)

// Loop accumulates outcome records and trains a small linear model
// online so the decision engine can ask how likely a schedule
// regeneration is to succeed. Before enough outcomes have been seen,
// Predict returns neutral defaults.
type Loop struct {
	mu      sync.RWMutex
	history []OutcomeRecord

	success *regressor // logistic head: success probability
	hours   *regressor // linear head: maintenance hours
	energy  *regressor // linear head: energy consumption

	logger *zap.Logger
}

// NewLoop creates an untrained feedback loop.
func NewLoop(logger *zap.Logger) *Loop {
	if logger == nil {
		logger = zap.NewNop()
	}
	n := len(featureOrder)
	return &Loop{
		success: newRegressor(n, learningRate),
		hours:   newRegressor(n, learningRate),
		energy:  newRegressor(n, learningRate),
		logger:  logger,
	}
}

// Record appends one outcome and takes one gradient step per head.
// Implements Sink.
func (l *Loop) Record(record OutcomeRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.history = append(l.history, record)
	if len(l.history) > historyCap {
		l.history = l.history[len(l.history)-historyCap:]
	}

	x := featureVector(record.PlannedMetrics)
	l.success.stepLogistic(x, record.SuccessScore)
	if v, ok := record.ActualMetrics[PredictMaintenanceHours]; ok {
		l.hours.stepLinear(x, v)
	}
	if v, ok := record.ActualMetrics[PredictEnergyConsumption]; ok {
		l.energy.stepLinear(x, v)
	}

	l.logger.Debug("outcome recorded",
		zap.String("schedule", record.ScheduleID),
		zap.Float64("success", record.SuccessScore),
		zap.Int("history", len(l.history)))
	return nil
}

// Predict serves the tabular prediction interface. Missing feature keys
// take their documented defaults. Until the model has seen enough
// outcomes it answers with neutral values.
func (l *Loop) Predict(features map[string]float64) map[string]float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if len(l.history) < minTrainingRuns {
		return map[string]float64{
			PredictSuccessProbability: 0.5,
			PredictMaintenanceHours:   0,
			PredictEnergyConsumption:  0,
		}
	}

	x := featureVector(features)
	return map[string]float64{
		PredictSuccessProbability: sigmoid(l.success.raw(x)),
		PredictMaintenanceHours:   math.Max(0, l.hours.raw(x)),
		PredictEnergyConsumption:  math.Max(0, l.energy.raw(x)),
	}
}

// RecentSuccessRate returns the mean success score over the last n
// outcomes, and false when no outcome exists.
func (l *Loop) RecentSuccessRate(n int) (float64, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if len(l.history) == 0 {
		return 0, false
	}
	window := l.history
	if len(window) > n {
		window = window[len(window)-n:]
	}
	scores := make([]float64, len(window))
	for i, r := range window {
		scores[i] = r.SuccessScore
	}
	return stats.Mean(scores), true
}

// History returns a snapshot of the retained outcomes, newest last.
func (l *Loop) History() []OutcomeRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]OutcomeRecord, len(l.history))
	copy(out, l.history)
	return out
}

// featureVector lays out a feature map in model order, applying the
// documented defaults for missing keys.
func featureVector(features map[string]float64) []float64 {
	x := make([]float64, len(featureOrder))
	for i, key := range featureOrder {
		if v, ok := features[key]; ok {
			x[i] = v
		} else {
			x[i] = featureDefault[key]
		}
	}
	return x
}

// regressor is one linear head trained by stochastic gradient descent.
type regressor struct {
	weights []float64
	bias    float64
	lr      float64
	steps   int
}

func newRegressor(n int, lr float64) *regressor {
	return &regressor{weights: make([]float64, n), lr: lr}
}

func (r *regressor) raw(x []float64) float64 {
	sum := r.bias
	for i, w := range r.weights {
		sum += w * x[i]
	}
	return sum
}

// stepLogistic takes one SGD step on the log-loss for target y in {0,1}.
func (r *regressor) stepLogistic(x []float64, y float64) {
	grad := sigmoid(r.raw(x)) - y
	r.apply(x, grad)
}

// stepLinear takes one SGD step on the squared error.
func (r *regressor) stepLinear(x []float64, y float64) {
	grad := r.raw(x) - y
	r.apply(x, grad)
}

func (r *regressor) apply(x []float64, grad float64) {
	for i := range r.weights {
		r.weights[i] -= r.lr * grad * x[i]
	}
	r.bias -= r.lr * grad
	r.steps++
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

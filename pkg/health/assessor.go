package health

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/itzzomkar/NavYatra/pkg/models"
	"github.com/itzzomkar/NavYatra/pkg/stats"
)

const (
	telemetryRetention = 30 * 24 * time.Hour
	maxSamplesPerRun   = 100
	minSamplesPerRun   = 5
	ruleConfidence     = 0.6
)

// Assessor estimates per-component health from recent telemetry. The
// ingestor is the single writer of the telemetry rings; assessments
// read snapshots under the same lock.
type Assessor struct {
	mu     sync.RWMutex
	rings  map[string][]TelemetrySample
	latest map[string][]Prediction

	models    map[Component]ComponentModel
	detectors map[Component]AnomalyDetector
	extract   FeatureExtractor

	now    func() time.Time
	logger *zap.Logger
}

// FeatureExtractor turns the latest sample into the trained back-end's
// feature vector for one component.
type FeatureExtractor func(component Component, sample TelemetrySample) []float64

// NewAssessor creates an assessor with the rule back-end only. Trained
// models are attached per component with SetModel.
func NewAssessor(logger *zap.Logger) *Assessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assessor{
		rings:     make(map[string][]TelemetrySample),
		latest:    make(map[string][]Prediction),
		models:    make(map[Component]ComponentModel),
		detectors: make(map[Component]AnomalyDetector),
		extract:   defaultFeatures,
		now:       time.Now,
		logger:    logger,
	}
}

// SetModel attaches a trained regressor and anomaly detector for one
// component. The trained path is only taken when both are fitted.
func (a *Assessor) SetModel(c Component, m ComponentModel, d AnomalyDetector) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.models[c] = m
	a.detectors[c] = d
}

// Ingest appends one telemetry sample and evicts anything older than
// the retention window.
func (a *Assessor) Ingest(sample TelemetrySample) {
	a.mu.Lock()
	defer a.mu.Unlock()

	ring := append(a.rings[sample.TrainsetID], sample)
	cutoff := a.now().Add(-telemetryRetention)
	keep := ring[:0]
	for _, s := range ring {
		if s.Timestamp.After(cutoff) {
			keep = append(keep, s)
		}
	}
	a.rings[sample.TrainsetID] = keep
}

// Assess produces component predictions for one trainset, sorted by
// urgency descending. With fewer than the minimum sample count it
// returns nothing rather than fabricating an estimate.
func (a *Assessor) Assess(trainsetID string) []Prediction {
	a.mu.Lock()
	defer a.mu.Unlock()

	ring := a.rings[trainsetID]
	if len(ring) < minSamplesPerRun {
		a.logger.Debug("insufficient telemetry for assessment",
			zap.String("trainset", trainsetID),
			zap.Int("samples", len(ring)))
		return nil
	}
	if len(ring) > maxSamplesPerRun {
		ring = ring[len(ring)-maxSamplesPerRun:]
	}
	latest := ring[len(ring)-1]

	predictions := make([]Prediction, 0, len(Components()))
	for _, c := range Components() {
		p := a.assessComponent(trainsetID, c, latest)
		predictions = append(predictions, p)
	}

	sort.SliceStable(predictions, func(i, j int) bool {
		return predictions[i].Urgency > predictions[j].Urgency
	})

	a.latest[trainsetID] = predictions
	return predictions
}

func (a *Assessor) assessComponent(trainsetID string, c Component, sample TelemetrySample) Prediction {
	model, detector := a.models[c], a.detectors[c]
	if model != nil && detector != nil && model.Fitted() && detector.Fitted() {
		return a.trainedPrediction(trainsetID, c, sample, model, detector)
	}
	return a.rulePrediction(trainsetID, c, sample)
}

// rulePrediction applies the fixed threshold table to the latest sample.
func (a *Assessor) rulePrediction(trainsetID string, c Component, sample TelemetrySample) Prediction {
	status := models.HealthGood
	urgency := 0.1
	rul := 30

	if code, ok := sample.FailureCodes[c]; ok && code != "" {
		status, urgency, rul = models.HealthCritical, 1.0, 1
	} else {
		switch c {
		case ComponentEngine:
			if sample.EngineTempC > 90 {
				status, urgency, rul = models.HealthPoor, 0.8, 7
			} else if sample.EngineTempC > 80 {
				status, urgency, rul = models.HealthFair, 0.5, 14
			}
		case ComponentBrakes:
			if sample.BrakePressure < 0.7 {
				status, urgency, rul = models.HealthPoor, 0.9, 3
			}
		case ComponentBattery:
			if sample.BatteryVoltage < 11.5 {
				status, urgency, rul = models.HealthCritical, 1.0, 1
			} else if sample.BatteryVoltage < 12.0 {
				status, urgency, rul = models.HealthPoor, 0.7, 5
			}
		}
	}

	return a.finishPrediction(trainsetID, c, status, urgency, rul, ruleConfidence, nil)
}

// trainedPrediction derives the grade from (probability, RUL, outlier).
func (a *Assessor) trainedPrediction(trainsetID string, c Component, sample TelemetrySample, model ComponentModel, detector AnomalyDetector) Prediction {
	features := a.extract(c, sample)
	prob, rulDays := model.Predict(features)
	anomalyScore, outlier := detector.Score(features)

	rul := int(rulDays)
	if rul < 0 {
		rul = 0
	}

	var status models.HealthStatus
	switch {
	case outlier || prob > 0.8 || rul <= 2:
		status = models.HealthCritical
	case prob > 0.6 || rul <= 7:
		status = models.HealthPoor
	case prob > 0.4 || rul <= 14:
		status = models.HealthFair
	case prob > 0.2 || rul <= 30:
		status = models.HealthGood
	default:
		status = models.HealthExcellent
	}

	anomalyMag := anomalyScore
	if anomalyMag < 0 {
		anomalyMag = -anomalyMag
	}
	urgency := stats.Clamp(
		0.5*prob+0.3*maxf(0, 1-float64(rul)/30)+0.2*(1-anomalyMag/2), 0, 1)

	risk := map[string]float64{
		"failure_probability": prob,
		"anomaly_score":       anomalyScore,
	}
	confidence := stats.Clamp(1-anomalyMag/4, 0.5, 0.95)
	return a.finishPrediction(trainsetID, c, status, urgency, rul, confidence, risk)
}

func (a *Assessor) finishPrediction(trainsetID string, c Component, status models.HealthStatus, urgency float64, rul int, confidence float64, risk map[string]float64) Prediction {
	failure := a.now().Add(time.Duration(rul) * 24 * time.Hour)
	return Prediction{
		TrainsetID:        trainsetID,
		Component:         c,
		PredictedFailure:  &failure,
		RULDays:           rul,
		Status:            status,
		Urgency:           urgency,
		Confidence:        confidence,
		RecommendedAction: recommendation(c, status, rul),
		CostEstimate:      baseCost[c] * costMultiplier[status],
		RiskScores:        risk,
	}
}

// View condenses the latest assessment into the decorated health view
// carried through the optimizer path. Returns false when no assessment
// exists yet.
func (a *Assessor) View(trainsetID string) (models.HealthView, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	predictions, ok := a.latest[trainsetID]
	if !ok || len(predictions) == 0 {
		return models.HealthView{}, false
	}

	worst := models.HealthExcellent
	urgencies := make([]float64, len(predictions))
	scores := make([]float64, len(predictions))
	for i, p := range predictions {
		if p.Status.WorseThan(worst) {
			worst = p.Status
		}
		urgencies[i] = p.Urgency
		scores[i] = gradeScore(p.Status)
	}

	maxUrgency := 0.0
	for _, u := range urgencies {
		if u > maxUrgency {
			maxUrgency = u
		}
	}

	return models.HealthView{
		HealthScore:          stats.Mean(scores),
		MaintenanceUrgency:   maxUrgency,
		PredictedReliability: stats.Clamp(1-stats.Mean(urgencies), 0, 1),
		WorstStatus:          worst,
	}, true
}

// Views returns the decorated health view for every assessed trainset.
func (a *Assessor) Views() map[string]models.HealthView {
	a.mu.RLock()
	ids := make([]string, 0, len(a.latest))
	for id := range a.latest {
		ids = append(ids, id)
	}
	a.mu.RUnlock()

	out := make(map[string]models.HealthView, len(ids))
	for _, id := range ids {
		if v, ok := a.View(id); ok {
			out[id] = v
		}
	}
	return out
}

// Summary aggregates the latest assessments across the fleet.
func (a *Assessor) Summary() FleetSummary {
	a.mu.RLock()
	defer a.mu.RUnlock()

	summary := FleetSummary{
		StatusDistribution: make(map[models.HealthStatus]int),
		ComponentUrgency:   make(map[Component]float64),
		GeneratedAt:        a.now(),
	}

	componentSums := make(map[Component]float64)
	componentCounts := make(map[Component]int)
	unavailable := 0

	for _, predictions := range a.latest {
		summary.Trainsets++
		worst := models.HealthExcellent
		for _, p := range predictions {
			if p.Status.WorseThan(worst) {
				worst = p.Status
			}
			componentSums[p.Component] += p.Urgency
			componentCounts[p.Component]++
		}
		summary.StatusDistribution[worst]++
		if worst.NeedsExclusion() {
			unavailable++
		}
	}

	for c, sum := range componentSums {
		summary.ComponentUrgency[c] = sum / float64(componentCounts[c])
	}
	if summary.Trainsets > 0 {
		summary.AvailabilityEstimate = 1 - float64(unavailable)/float64(summary.Trainsets)
	}
	return summary
}

// Schedule buckets the latest predictions into maintenance windows.
func (a *Assessor) Schedule() MaintenanceSchedule {
	a.mu.RLock()
	defer a.mu.RUnlock()

	schedule := MaintenanceSchedule{
		Buckets: map[MaintenanceBucket][]Prediction{},
	}

	for _, predictions := range a.latest {
		for _, p := range predictions {
			if p.Status == models.HealthExcellent || p.Status == models.HealthGood {
				continue
			}
			bucket := BucketPlanned
			switch {
			case p.Status == models.HealthCritical || p.RULDays <= 1:
				bucket = BucketImmediate
			case p.RULDays <= 7:
				bucket = BucketThisWeek
			case p.RULDays <= 30:
				bucket = BucketThisMonth
			}
			schedule.Buckets[bucket] = append(schedule.Buckets[bucket], p)
			schedule.TotalCost += p.CostEstimate
		}
	}

	for _, bucket := range schedule.Buckets {
		sort.SliceStable(bucket, func(i, j int) bool {
			return bucket[i].Urgency > bucket[j].Urgency
		})
	}
	return schedule
}

func recommendation(c Component, status models.HealthStatus, rul int) string {
	switch status {
	case models.HealthCritical:
		return "withdraw from service and repair " + string(c) + " immediately"
	case models.HealthPoor:
		if rul <= 3 {
			return "schedule " + string(c) + " maintenance within 3 days"
		}
		return "schedule " + string(c) + " maintenance this week"
	case models.HealthFair:
		return "inspect " + string(c) + " at next maintenance window"
	default:
		return "no action required for " + string(c)
	}
}

func gradeScore(s models.HealthStatus) float64 {
	switch s {
	case models.HealthExcellent:
		return 1.0
	case models.HealthGood:
		return 0.8
	case models.HealthFair:
		return 0.6
	case models.HealthPoor:
		return 0.3
	default:
		return 0.1
	}
}

// defaultFeatures extracts the per-component feature vector from the
// latest sample for the trained back-end.
func defaultFeatures(c Component, s TelemetrySample) []float64 {
	base := []float64{s.EngineTempC, s.BrakePressure, s.BatteryVoltage, s.VibrationLevel}
	if extra, ok := s.Metrics[string(c)]; ok {
		base = append(base, extra)
	}
	return base
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

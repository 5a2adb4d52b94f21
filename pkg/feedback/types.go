package feedback

import (
	"time"
)

// Kind tags what produced an outcome record.
type Kind string

const (
	KindScheduleOutcome Kind = "schedule_outcome"
	KindDecisionOutcome Kind = "decision_outcome"
)

// OutcomeRecord captures planned-versus-actual results of one executed
// schedule or decision. SuccessScore is binary: 1.0 or 0.0.
type OutcomeRecord struct {
	ScheduleID       string             `json:"schedule_id"`
	Timestamp        time.Time          `json:"timestamp"`
	TrainsetIDs      []string           `json:"trainset_ids"`
	PlannedMetrics   map[string]float64 `json:"planned_metrics"`
	ActualMetrics    map[string]float64 `json:"actual_metrics"`
	Kind             Kind               `json:"kind"`
	SuccessScore     float64            `json:"success_score"`
	OperatorFeedback string             `json:"operator_feedback,omitempty"`
}

// Succeeded reports whether the outcome was the planned one.
func (r OutcomeRecord) Succeeded() bool {
	return r.SuccessScore >= 1.0
}

// Sink receives outcome records. Implementations must not block the
// caller's control loop on slow back-ends.
type Sink interface {
	Record(record OutcomeRecord) error
}

// Feature keys accepted by Predict, in model order.
const (
	FeatureHour             = "hour"
	FeatureWeekday          = "weekday"
	FeatureDay              = "day"
	FeatureMonth            = "month"
	FeatureTrainsetCount    = "trainset_count"
	FeatureMileageBalance   = "mileage_balance"
	FeatureEnergyEfficiency = "energy_efficiency"
	FeatureMaintenanceScore = "maintenance_score"
	FeaturePerformanceMean  = "recent_performance_mean"
	FeaturePerformanceStd   = "recent_performance_std"
)

// featureOrder fixes the weight vector layout.
var featureOrder = []string{
	FeatureHour, FeatureWeekday, FeatureDay, FeatureMonth,
	FeatureTrainsetCount, FeatureMileageBalance, FeatureEnergyEfficiency,
	FeatureMaintenanceScore, FeaturePerformanceMean, FeaturePerformanceStd,
}

// featureDefault supplies the documented fallback for a missing key.
// Anything not listed defaults to zero.
var featureDefault = map[string]float64{
	FeatureMileageBalance: 0.5,
	FeaturePerformanceStd: 0.1,
}

// Prediction output keys.
const (
	PredictSuccessProbability = "success_probability"
	PredictMaintenanceHours   = "maintenance_hours"
	PredictEnergyConsumption  = "energy_consumption"
)

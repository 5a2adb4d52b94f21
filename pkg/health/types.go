package health

import (
	"time"

	"github.com/itzzomkar/NavYatra/pkg/models"
)

// Component names one monitored subsystem of a trainset.
type Component string

const (
	ComponentEngine        Component = "engine"
	ComponentBrakes        Component = "brakes"
	ComponentDoors         Component = "doors"
	ComponentHVAC          Component = "hvac"
	ComponentBattery       Component = "battery"
	ComponentSuspension    Component = "suspension"
	ComponentElectrical    Component = "electrical"
	ComponentCommunication Component = "communication"
)

// Components returns the fixed component set every assessment covers.
func Components() []Component {
	return []Component{
		ComponentEngine, ComponentBrakes, ComponentDoors, ComponentHVAC,
		ComponentBattery, ComponentSuspension, ComponentElectrical,
		ComponentCommunication,
	}
}

// baseCost is the repair cost estimate per component before the
// status multiplier.
var baseCost = map[Component]float64{
	ComponentEngine:        5000,
	ComponentBrakes:        2000,
	ComponentDoors:         1500,
	ComponentHVAC:          3000,
	ComponentBattery:       800,
	ComponentSuspension:    2500,
	ComponentElectrical:    1200,
	ComponentCommunication: 800,
}

// costMultiplier scales the base cost by severity.
var costMultiplier = map[models.HealthStatus]float64{
	models.HealthExcellent: 0.5,
	models.HealthGood:      0.7,
	models.HealthFair:      1.0,
	models.HealthPoor:      1.5,
	models.HealthCritical:  2.5,
}

// TelemetrySample is one observation of a trainset's sensors.
type TelemetrySample struct {
	TrainsetID     string    `json:"trainset_id"`
	Timestamp      time.Time `json:"timestamp"`
	EngineTempC    float64   `json:"engine_temp_c"`
	BrakePressure  float64   `json:"brake_pressure"`
	BatteryVoltage float64   `json:"battery_voltage"`
	VibrationLevel float64   `json:"vibration_level"`

	// FailureCodes maps a component to an active fault code, if any.
	FailureCodes map[Component]string `json:"failure_codes,omitempty"`

	// Metrics carries additional named sensor readings consumed by the
	// trained back-end's feature extraction.
	Metrics map[string]float64 `json:"metrics,omitempty"`
}

// Prediction is the component-level health estimate.
type Prediction struct {
	TrainsetID       string              `json:"trainset_id"`
	Component        Component           `json:"component"`
	PredictedFailure *time.Time          `json:"predicted_failure,omitempty"`
	RULDays          int                 `json:"remaining_useful_life_days"`
	Status           models.HealthStatus `json:"health_status"`
	Urgency          float64             `json:"urgency"`    // [0,1]
	Confidence       float64             `json:"confidence"` // [0,1]
	RecommendedAction string             `json:"recommended_action"`
	CostEstimate     float64             `json:"cost_estimate"`
	RiskScores       map[string]float64  `json:"risk_scores,omitempty"`
}

// ComponentModel is a fitted regressor for one component. Predict takes
// the extracted feature vector and returns failure probability and
// remaining useful life in days.
type ComponentModel interface {
	Fitted() bool
	Predict(features []float64) (probability float64, rulDays float64)
}

// AnomalyDetector flags feature vectors that fall outside the trained
// distribution.
type AnomalyDetector interface {
	Fitted() bool
	Score(features []float64) (score float64, outlier bool)
}

// FleetSummary aggregates the latest assessments across a fleet.
type FleetSummary struct {
	Trainsets            int                         `json:"trainsets"`
	StatusDistribution   map[models.HealthStatus]int `json:"status_distribution"`
	ComponentUrgency     map[Component]float64       `json:"component_urgency"`
	AvailabilityEstimate float64                     `json:"availability_estimate"`
	GeneratedAt          time.Time                   `json:"generated_at"`
}

// MaintenanceBucket groups predictions by how soon they need action.
type MaintenanceBucket string

const (
	BucketImmediate MaintenanceBucket = "immediate"
	BucketThisWeek  MaintenanceBucket = "this_week"
	BucketThisMonth MaintenanceBucket = "this_month"
	BucketPlanned   MaintenanceBucket = "planned"
)

// MaintenanceSchedule is the bucketed work plan with its total cost.
type MaintenanceSchedule struct {
	Buckets   map[MaintenanceBucket][]Prediction `json:"buckets"`
	TotalCost float64                            `json:"total_cost"`
}

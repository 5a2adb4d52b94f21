package database

import (
	"time"

	"github.com/itzzomkar/NavYatra/pkg/models"
)

// TrainsetRecord is the persisted fleet row. Conversions keep the core
// working on pkg/models values; gorm never leaks past this package.
type TrainsetRecord struct {
	ID     string `json:"id" gorm:"primaryKey"`
	Number string `json:"trainset_number" gorm:"uniqueIndex"`
	Status string `json:"status" gorm:"index"`

	TotalMileage   float64 `json:"total_mileage"`
	CurrentMileage float64 `json:"current_mileage"`

	FitnessValid  bool       `json:"fitness_valid"`
	FitnessExpiry *time.Time `json:"fitness_expiry"`

	PendingWorkOrders   int  `json:"pending_work_orders"`
	HasHighPriorityWork bool `json:"has_high_priority_work"`

	BrandingPriority int     `json:"branding_priority"`
	RevenuePotential float64 `json:"revenue_potential"`

	LastCleaningDate    *time.Time `json:"last_cleaning_date"`
	NextMaintenanceDate *time.Time `json:"next_maintenance_date"`

	StablingPreference int `json:"stabling_preference"`

	ReliabilityScore float64 `json:"reliability_score"`
	EnergyEfficiency float64 `json:"energy_efficiency"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (TrainsetRecord) TableName() string { return "trainsets" }

// ToModel converts the row into the core's trainset value.
func (r TrainsetRecord) ToModel() models.Trainset {
	return models.Trainset{
		ID:                  r.ID,
		Number:              r.Number,
		Status:              models.TrainsetStatus(r.Status),
		TotalMileage:        r.TotalMileage,
		CurrentMileage:      r.CurrentMileage,
		FitnessValid:        r.FitnessValid,
		FitnessExpiry:       r.FitnessExpiry,
		PendingWorkOrders:   r.PendingWorkOrders,
		HasHighPriorityWork: r.HasHighPriorityWork,
		BrandingPriority:    r.BrandingPriority,
		RevenuePotential:    r.RevenuePotential,
		LastCleaningDate:    r.LastCleaningDate,
		NextMaintenanceDate: r.NextMaintenanceDate,
		StablingPreference:  r.StablingPreference,
		ReliabilityScore:    r.ReliabilityScore,
		EnergyEfficiency:    r.EnergyEfficiency,
	}
}

// FromModel builds a row from the core's trainset value.
func FromModel(t models.Trainset) TrainsetRecord {
	return TrainsetRecord{
		ID:                  t.ID,
		Number:              t.Number,
		Status:              string(t.Status),
		TotalMileage:        t.TotalMileage,
		CurrentMileage:      t.CurrentMileage,
		FitnessValid:        t.FitnessValid,
		FitnessExpiry:       t.FitnessExpiry,
		PendingWorkOrders:   t.PendingWorkOrders,
		HasHighPriorityWork: t.HasHighPriorityWork,
		BrandingPriority:    t.BrandingPriority,
		RevenuePotential:    t.RevenuePotential,
		LastCleaningDate:    t.LastCleaningDate,
		NextMaintenanceDate: t.NextMaintenanceDate,
		StablingPreference:  t.StablingPreference,
		ReliabilityScore:    t.ReliabilityScore,
		EnergyEfficiency:    t.EnergyEfficiency,
	}
}

// StatusChange is the audit trail of every status write.
type StatusChange struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	TrainsetID string    `json:"trainset_id" gorm:"index"`
	FromStatus string    `json:"from_status"`
	ToStatus   string    `json:"to_status"`
	Actor      string    `json:"actor"`
	Reason     string    `json:"reason"`
	Timestamp  time.Time `json:"timestamp" gorm:"index"`

	WindowStart *time.Time `json:"window_start"`
	WindowEnd   *time.Time `json:"window_end"`

	CreatedAt time.Time `json:"created_at"`
}

// DecisionRecord is one autonomous decision and, once executed, its
// outcome. Payload carries the action plan as JSON.
type DecisionRecord struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	Type      string    `json:"type" gorm:"index"`
	Urgency   string    `json:"urgency"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`

	Confidence float64 `json:"confidence"`
	Rationale  string  `json:"rationale"`
	Payload    string  `json:"payload"`

	RequiresApproval bool       `json:"requires_approval"`
	Approved         bool       `json:"approved"`
	ApprovedBy       string     `json:"approved_by"`
	Deadline         *time.Time `json:"deadline"`

	Executed   bool       `json:"executed"`
	Success    bool       `json:"success"`
	Details    string     `json:"details"`
	ExecutedAt *time.Time `json:"executed_at"`
}

// ScheduleRecord is one generated schedule. Assignment, performance,
// risk, and the execution plan live in the JSON payload column.
type ScheduleRecord struct {
	ID          string    `json:"id" gorm:"primaryKey"`
	GeneratedAt time.Time `json:"generated_at" gorm:"index"`
	Type        string    `json:"type" gorm:"index"`
	Algorithm   string    `json:"algorithm"`
	Score       float64   `json:"score"`
	Confidence  float64   `json:"confidence"`
	Status      string    `json:"status"` // auto_executed, awaiting_approval, discarded
	Trainsets   int       `json:"trainsets"`
	Payload     string    `json:"payload"`

	CreatedAt time.Time `json:"created_at"`
}

// OutcomeRecord is one planned-versus-actual feedback row.
type OutcomeRecord struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	ScheduleID string    `json:"schedule_id" gorm:"index"`
	Kind       string    `json:"kind" gorm:"index"` // schedule_outcome, decision_outcome
	Timestamp  time.Time `json:"timestamp" gorm:"index"`

	SuccessScore     float64 `json:"success_score"`
	TrainsetIDs      string  `json:"trainset_ids"`     // JSON array
	PlannedMetrics   string  `json:"planned_metrics"`  // JSON object
	ActualMetrics    string  `json:"actual_metrics"`   // JSON object
	OperatorFeedback string  `json:"operator_feedback"`

	CreatedAt time.Time `json:"created_at"`
}

// TelemetryRecord is one raw telemetry sample, kept for the health
// assessor's retention window.
type TelemetryRecord struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	TrainsetID string    `json:"trainset_id" gorm:"index"`
	Timestamp  time.Time `json:"timestamp" gorm:"index"`

	EngineTempC    float64 `json:"engine_temp_c"`
	BrakePressure  float64 `json:"brake_pressure"`
	BatteryVoltage float64 `json:"battery_voltage"`
	VibrationLevel float64 `json:"vibration_level"`
	FailureCodes   string  `json:"failure_codes"` // JSON object
	Metrics        string  `json:"metrics"`       // JSON object

	CreatedAt time.Time `json:"created_at"`
}

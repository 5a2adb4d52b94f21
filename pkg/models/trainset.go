package models

import (
	"time"
)

// Trainset represents one self-contained train unit as observed from the
// fleet store. The core never mutates these records directly; status
// changes go through the status writer.
type Trainset struct {
	// Identity
	ID     string `json:"id"`
	Number string `json:"trainset_number"`

	// Operational state
	Status TrainsetStatus `json:"status"`

	// Mileage (kilometers, monotonically non-decreasing per identity)
	TotalMileage   float64 `json:"total_mileage"`
	CurrentMileage float64 `json:"current_mileage"`

	// Fitness certificate
	FitnessValid  bool       `json:"fitness_valid"`
	FitnessExpiry *time.Time `json:"fitness_expiry,omitempty"`

	// Work orders (job cards)
	PendingWorkOrders   int  `json:"pending_work_orders"`
	HasHighPriorityWork bool `json:"has_high_priority_work"`

	// Branding campaign
	BrandingPriority int     `json:"branding_priority"` // 1..5
	RevenuePotential float64 `json:"revenue_potential"` // per day

	// Maintenance and cleaning
	LastCleaningDate    *time.Time `json:"last_cleaning_date,omitempty"`
	NextMaintenanceDate *time.Time `json:"next_maintenance_date,omitempty"`

	// Stabling
	StablingPreference int `json:"stabling_preference"`

	// Scores
	ReliabilityScore float64 `json:"reliability_score"` // [0,1]
	EnergyEfficiency float64 `json:"energy_efficiency"` // [0,1]
}

// Validate validates the trainset record
func (t Trainset) Validate() error {
	var errors ValidationErrors

	errors.AddIf(t.ID == "", "ID", t.ID, "ID cannot be empty")
	errors.AddIf(!t.Status.IsValid(), "Status", t.Status, "unknown trainset status")

	errors.AddIf(t.TotalMileage < 0, "TotalMileage", t.TotalMileage,
		"TotalMileage must be non-negative")
	errors.AddIf(t.CurrentMileage < 0, "CurrentMileage", t.CurrentMileage,
		"CurrentMileage must be non-negative")

	errors.AddIf(t.BrandingPriority < 1 || t.BrandingPriority > 5,
		"BrandingPriority", t.BrandingPriority, "BrandingPriority must be in range [1,5]")
	errors.AddIf(t.RevenuePotential < 0, "RevenuePotential", t.RevenuePotential,
		"RevenuePotential must be non-negative")

	errors.AddIf(t.ReliabilityScore < 0 || t.ReliabilityScore > 1,
		"ReliabilityScore", t.ReliabilityScore, "ReliabilityScore must be in range [0,1]")
	errors.AddIf(t.EnergyEfficiency < 0 || t.EnergyEfficiency > 1,
		"EnergyEfficiency", t.EnergyEfficiency, "EnergyEfficiency must be in range [0,1]")

	// Fitness-valid implies a future expiry when one is present.
	if t.FitnessValid && t.FitnessExpiry != nil && !t.FitnessExpiry.After(time.Now()) {
		errors.Add("FitnessExpiry", t.FitnessExpiry,
			"fitness marked valid but expiry date is not in the future")
	}

	if errors.HasErrors() {
		return errors
	}
	return nil
}

// IsEligible reports whether the trainset may be considered for induction.
// Out-of-order trainsets are never eligible.
func (t Trainset) IsEligible() bool {
	return t.Status == StatusAvailable && t.FitnessValid && !t.HasHighPriorityWork
}

// FitnessExpired reports whether the fitness certificate has lapsed
// relative to the given instant (date granularity).
func (t Trainset) FitnessExpired(now time.Time) bool {
	if t.FitnessExpiry == nil {
		return !t.FitnessValid
	}
	expiry := t.FitnessExpiry.Truncate(24 * time.Hour)
	today := now.Truncate(24 * time.Hour)
	return !expiry.After(today)
}

// DaysUntilMaintenance returns the number of whole days until the next
// maintenance due date, and false when no date is known.
func (t Trainset) DaysUntilMaintenance(now time.Time) (int, bool) {
	if t.NextMaintenanceDate == nil {
		return 0, false
	}
	days := int(t.NextMaintenanceDate.Sub(now).Hours() / 24)
	return days, true
}

// HealthView carries health-assessor output alongside a trainset without
// mutating the core record. The optimizer's scoring path receives this
// decorated value.
type HealthView struct {
	HealthScore          float64      `json:"health_score"`          // [0,1], 1 = excellent
	MaintenanceUrgency   float64      `json:"maintenance_urgency"`   // [0,1]
	PredictedReliability float64      `json:"predicted_reliability"` // [0,1]
	WorstStatus          HealthStatus `json:"worst_status"`          // worst component grade
}

// DecoratedTrainset pairs a trainset with its health view.
type DecoratedTrainset struct {
	Trainset
	Health HealthView `json:"health"`
}

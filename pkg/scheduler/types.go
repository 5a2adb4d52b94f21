package scheduler

import (
	"time"

	"github.com/itzzomkar/NavYatra/pkg/fleet"
	"github.com/itzzomkar/NavYatra/pkg/models"
	"github.com/itzzomkar/NavYatra/pkg/optimizer"
)

// ScheduleType names the service window a schedule is generated for.
type ScheduleType string

const (
	TypePeakHour          ScheduleType = "peak_hour"
	TypeOffPeak           ScheduleType = "off_peak"
	TypeNightService      ScheduleType = "night_service"
	TypeMaintenanceWindow ScheduleType = "maintenance_window"
	TypeEmergencyResponse ScheduleType = "emergency_response"
	TypeWeekend           ScheduleType = "weekend"
	TypeHoliday           ScheduleType = "holiday"
)

// Priority is the optimization emphasis derived from the schedule type.
type Priority string

const (
	PriorityPassengerComfort Priority = "passenger_comfort"
	PriorityEnergySavings    Priority = "energy_savings"
	PriorityMaintenance      Priority = "maintenance_optimization"
	PriorityEfficiency       Priority = "efficiency"
	PriorityCostReduction    Priority = "cost_reduction"
)

// Template bounds one service window.
type Template struct {
	Name             string   `json:"name"`
	MinTrainsets     int      `json:"min_trainsets"`
	MaxTrainsets     int      `json:"max_trainsets"`
	FrequencyMinutes int      `json:"frequency_minutes"`
	Priority         Priority `json:"priority"`
}

// Templates returns the built-in schedule templates.
func Templates() map[string]Template {
	return map[string]Template{
		"peak_morning":       {"peak_morning", 18, 25, 3, PriorityPassengerComfort},
		"peak_evening":       {"peak_evening", 18, 25, 3, PriorityPassengerComfort},
		"off_peak":           {"off_peak", 10, 15, 8, PriorityEfficiency},
		"night_service":      {"night_service", 5, 8, 15, PriorityEnergySavings},
		"weekend":            {"weekend", 8, 15, 10, PriorityCostReduction},
		"maintenance_window": {"maintenance_window", 3, 8, 30, PriorityMaintenance},
	}
}

// energyCapKWh is the per-trainset-per-hour energy limit by type.
var energyCapKWh = map[ScheduleType]float64{
	TypePeakHour:          150,
	TypeOffPeak:           120,
	TypeNightService:      80,
	TypeWeekend:           100,
	TypeMaintenanceWindow: 60,
}

// costCap is the hourly operational cost limit by type.
var costCap = map[ScheduleType]float64{
	TypePeakHour:          5000,
	TypeOffPeak:           3000,
	TypeNightService:      2000,
	TypeWeekend:           3500,
	TypeMaintenanceWindow: 1500,
}

// ScheduleRequest is the composed input to one generation run.
type ScheduleRequest struct {
	ID             string                `json:"id"`
	Type           ScheduleType          `json:"type"`
	Priority       Priority              `json:"priority"`
	WindowStart    time.Time             `json:"window_start"`
	WindowEnd      time.Time             `json:"window_end"`
	ExpectedDemand int                   `json:"expected_demand"`
	Weather        fleet.Weather         `json:"weather"`
	Constraints    optimizer.Constraints `json:"constraints"`
	EligibleIDs    []string              `json:"eligible_ids"`
	Exclusions     []string              `json:"exclusions"`
}

// ExecutionStep is one ordered step of a schedule's rollout.
type ExecutionStep struct {
	Step            int       `json:"step"`
	Action          string    `json:"action"`
	ScheduledAt     time.Time `json:"scheduled_at"`
	DurationMinutes int       `json:"duration_minutes"`
	Description     string    `json:"description"`
}

// Alternative summarizes a secondary optimization result.
type Alternative struct {
	Kind        string  `json:"kind"` // conservative or aggressive
	Trainsets   int     `json:"trainsets"`
	Score       float64 `json:"score"`
	Description string  `json:"description"`
}

// ScheduleStatus records how the confidence router dealt with a
// generated schedule.
type ScheduleStatus string

const (
	ScheduleAutoExecuted     ScheduleStatus = "auto_executed"
	ScheduleAwaitingApproval ScheduleStatus = "awaiting_approval"
	ScheduleDiscarded        ScheduleStatus = "discarded"
)

// GeneratedSchedule is the fully enriched output of one generation run.
type GeneratedSchedule struct {
	ID            string             `json:"id"`
	GeneratedAt   time.Time          `json:"generated_at"`
	Type          ScheduleType       `json:"type"`
	Assignment    models.Assignment  `json:"assignment"`
	Algorithm     optimizer.Algorithm `json:"algorithm"`
	Score         float64            `json:"score"`
	Performance   map[string]float64 `json:"performance"`
	Risk          map[string]float64 `json:"risk"`
	Confidence    float64            `json:"confidence"`
	Alternatives  []Alternative      `json:"alternatives,omitempty"`
	ExecutionPlan []ExecutionStep    `json:"execution_plan"`
	Alerts        []string           `json:"alerts,omitempty"`
	Status        ScheduleStatus     `json:"status"`
}

// PerformanceEntry is one line of the scheduler's rolling history.
type PerformanceEntry struct {
	ScheduleID   string    `json:"schedule_id"`
	ExecutedAt   time.Time `json:"executed_at"`
	Confidence   float64   `json:"confidence"`
	AutoExecuted bool      `json:"auto_executed"`
	Success      float64   `json:"success"` // 1.0 or 0.0
}

// Status is the scheduler's read-model snapshot.
type Status struct {
	ConfidenceThreshold    float64    `json:"confidence_threshold"`
	AutoExecutionThreshold float64    `json:"auto_execution_threshold"`
	GeneratedCount         int        `json:"generated_count"`
	AverageConfidence      float64    `json:"average_confidence"`
	AutoExecutionRate      float64    `json:"auto_execution_rate"`
	LastGeneratedAt        *time.Time `json:"last_generated_at,omitempty"`
}

package decision

import (
	"time"

	"github.com/itzzomkar/NavYatra/pkg/optimizer"
)

// Type classifies a decision.
type Type string

const (
	TypeScheduleOptimization Type = "schedule_optimization"
	TypeMaintenance          Type = "maintenance_scheduling"
	TypeEmergencyResponse    Type = "emergency_response"
	TypeResourceAllocation   Type = "resource_allocation"
	TypeRouteAdjustment      Type = "route_adjustment"
	TypeCleaningSchedule     Type = "cleaning_schedule"
)

// Urgency grades how fast a decision must act.
type Urgency string

const (
	UrgencyLow      Urgency = "low"
	UrgencyMedium   Urgency = "medium"
	UrgencyHigh     Urgency = "high"
	UrgencyCritical Urgency = "critical"
)

// Decision is one autonomous action the engine wants to take.
type Decision struct {
	ID               string             `json:"id"`
	Type             Type               `json:"type"`
	Urgency          Urgency            `json:"urgency"`
	CreatedAt        time.Time          `json:"created_at"`
	Confidence       float64            `json:"confidence"`
	Rationale        string             `json:"rationale"`
	Action           ActionPlan         `json:"-"`
	TrainsetIDs      []string           `json:"trainset_ids"`
	EstimatedImpact  map[string]float64 `json:"estimated_impact,omitempty"`
	RequiresApproval bool               `json:"requires_approval"`
	Approved         bool               `json:"approved"`
	ApprovedBy       string             `json:"approved_by,omitempty"`
	Deadline         *time.Time         `json:"deadline,omitempty"`
}

// Expired reports whether the execution deadline has passed.
func (d Decision) Expired(now time.Time) bool {
	return d.Deadline != nil && now.After(*d.Deadline)
}

// Ready reports whether the decision may execute now.
func (d Decision) Ready(now time.Time) bool {
	if d.Expired(now) {
		return false
	}
	return !d.RequiresApproval || d.Approved
}

// ActionPlan is the closed union of executable actions. The tag
// selects the execution handler; there is exactly one variant per
// executable decision type.
type ActionPlan interface {
	Tag() string
	isActionPlan()
}

// OptimizeScheduleAction triggers a schedule regeneration.
type OptimizeScheduleAction struct {
	Algorithm optimizer.Algorithm `json:"algorithm"`
	Features  map[string]float64  `json:"features"`
}

func (OptimizeScheduleAction) Tag() string   { return "optimize_schedule" }
func (OptimizeScheduleAction) isActionPlan() {}

// ScheduleMaintenanceAction books one trainset into maintenance.
type ScheduleMaintenanceAction struct {
	TrainsetID  string    `json:"trainset_id"`
	DueDate     time.Time `json:"due_date"`
	WindowStart time.Time `json:"window_start"`
	WindowEnd   time.Time `json:"window_end"`
}

func (ScheduleMaintenanceAction) Tag() string   { return "schedule_maintenance" }
func (ScheduleMaintenanceAction) isActionPlan() {}

// EmergencyDeactivateAction withdraws one trainset immediately.
type EmergencyDeactivateAction struct {
	TrainsetID string `json:"trainset_id"`
	Reason     string `json:"reason"`
}

func (EmergencyDeactivateAction) Tag() string   { return "emergency_deactivate" }
func (EmergencyDeactivateAction) isActionPlan() {}

// ScheduleCleaningAction sends a batch of trainsets for cleaning.
type ScheduleCleaningAction struct {
	TrainsetIDs []string `json:"trainset_ids"`
}

func (ScheduleCleaningAction) Tag() string   { return "schedule_cleaning" }
func (ScheduleCleaningAction) isActionPlan() {}

// Outcome is the immutable record of how a decision ended.
type Outcome struct {
	DecisionID string    `json:"decision_id"`
	Type       Type      `json:"type"`
	Success    bool      `json:"success"`
	Details    string    `json:"details"`
	ExecutedAt time.Time `json:"executed_at"`
}

// Summary aggregates engine state for the read model.
type Summary struct {
	Active           int             `json:"active"`
	AwaitingApproval int             `json:"awaiting_approval"`
	ByType           map[Type]int    `json:"by_type"`
	ByUrgency        map[Urgency]int `json:"by_urgency"`
	HistorySize      int             `json:"history_size"`
	RecentSuccess    float64         `json:"recent_success_rate"`
}

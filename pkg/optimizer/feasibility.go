package optimizer

import (
	"github.com/itzzomkar/NavYatra/pkg/models"
)

// Feasible reports whether a trainset may take part in an assignment.
// The health check only applies when the run was started by the
// scheduler; direct requests trust the caller's shortlist.
func Feasible(t models.Trainset, health *models.HealthView, fromScheduler bool) bool {
	if !t.FitnessValid {
		return false
	}
	if t.HasHighPriorityWork {
		return false
	}
	if t.Status != models.StatusAvailable {
		return false
	}
	if fromScheduler && health != nil && health.WorstStatus.NeedsExclusion() {
		return false
	}
	return true
}

// eligibleFleet filters the fleet through the feasibility predicate.
func eligibleFleet(fleet []models.Trainset, req OptimizationRequest) []models.Trainset {
	out := make([]models.Trainset, 0, len(fleet))
	for _, t := range fleet {
		var hv *models.HealthView
		if h, ok := req.Health[t.ID]; ok {
			hv = &h
		}
		if Feasible(t, hv, req.FromScheduler) {
			out = append(out, t)
		}
	}
	return out
}

// fleetIndex builds an id lookup for scoring.
func fleetIndex(fleet []models.Trainset) map[string]models.Trainset {
	byID := make(map[string]models.Trainset, len(fleet))
	for _, t := range fleet {
		byID[t.ID] = t
	}
	return byID
}

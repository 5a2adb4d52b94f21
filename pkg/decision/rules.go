package decision

import (
	"fmt"
	"sort"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/itzzomkar/NavYatra/pkg/feedback"
	"github.com/itzzomkar/NavYatra/pkg/models"
	"github.com/itzzomkar/NavYatra/pkg/stats"
)

// scheduleRegenHours are the local hours at which the schedule
// optimization rule fires (within the first five minutes).
var scheduleRegenHours = map[int]bool{6: true, 10: true, 14: true, 18: true, 22: true}

// scheduleOptimizationRule asks the success model whether regenerating
// the schedule now is worthwhile and, if confident enough, emits one
// auto-executable high-urgency decision.
func (e *Engine) scheduleOptimizationRule(now time.Time, snapshot []models.Trainset) []Decision {
	if !scheduleRegenHours[now.Hour()] || now.Minute() >= 5 {
		return nil
	}
	if e.predictor == nil || e.hasActive(TypeScheduleOptimization, "") {
		return nil
	}

	features := e.scheduleFeatures(now, snapshot)
	predicted := e.predictor.Predict(features)
	prob := predicted[feedback.PredictSuccessProbability]
	if prob < e.cfg.ConfidenceThreshold {
		e.logger.Debug("schedule regeneration skipped",
			zap.Float64("predicted_success", prob))
		return nil
	}

	available := availableTrainsets(snapshot)
	return []Decision{e.finalize(Decision{
		Type:       TypeScheduleOptimization,
		Urgency:    UrgencyHigh,
		Confidence: prob,
		Rationale: fmt.Sprintf(
			"scheduled regeneration window at %02d:00, predicted success %.2f", now.Hour(), prob),
		Action:      OptimizeScheduleAction{Features: features},
		TrainsetIDs: lo.Map(available, func(t models.Trainset, _ int) string { return t.ID }),
		EstimatedImpact: map[string]float64{
			"predicted_success":  prob,
			"maintenance_hours":  predicted[feedback.PredictMaintenanceHours],
			"energy_consumption": predicted[feedback.PredictEnergyConsumption],
		},
		RequiresApproval: false,
		Deadline:         e.deadline(15 * time.Minute),
	})}
}

// maintenanceRule books available trainsets whose next maintenance is
// due within three days. Due within one day escalates urgency and
// requires approval.
func (e *Engine) maintenanceRule(now time.Time, snapshot []models.Trainset) []Decision {
	var out []Decision
	for _, t := range snapshot {
		if t.Status != models.StatusAvailable {
			continue
		}
		days, known := t.DaysUntilMaintenance(now)
		if !known || days > 3 {
			continue
		}
		if e.hasActive(TypeMaintenance, t.ID) {
			continue
		}

		urgency := UrgencyMedium
		if days <= 1 {
			urgency = UrgencyHigh
		}
		out = append(out, e.finalize(Decision{
			Type:       TypeMaintenance,
			Urgency:    urgency,
			Confidence: 0.85,
			Rationale: fmt.Sprintf(
				"trainset %s maintenance due in %d day(s)", t.Number, days),
			Action: ScheduleMaintenanceAction{
				TrainsetID:  t.ID,
				DueDate:     *t.NextMaintenanceDate,
				WindowStart: now,
				WindowEnd:   now.Add(24 * time.Hour),
			},
			TrainsetIDs:      []string{t.ID},
			RequiresApproval: days <= 1,
			Deadline:         e.deadline(24 * time.Hour),
		}))
	}
	return out
}

// emergencyRule withdraws any trainset whose fitness certificate has
// expired and that is not already out of order. Never requires
// approval; confidence is always 1.0.
func (e *Engine) emergencyRule(now time.Time, snapshot []models.Trainset) []Decision {
	var out []Decision
	for _, t := range snapshot {
		if t.Status == models.StatusOutOfOrder {
			continue
		}
		if !t.FitnessExpired(now) {
			continue
		}
		if e.hasActive(TypeEmergencyResponse, t.ID) {
			continue
		}

		out = append(out, e.finalize(Decision{
			Type:       TypeEmergencyResponse,
			Urgency:    UrgencyCritical,
			Confidence: 1.0,
			Rationale: fmt.Sprintf(
				"trainset %s fitness certificate expired, mandatory withdrawal", t.Number),
			Action: EmergencyDeactivateAction{
				TrainsetID: t.ID,
				Reason:     "fitness certificate expired",
			},
			TrainsetIDs:      []string{t.ID},
			RequiresApproval: false,
			Deadline:         e.deadline(5 * time.Minute),
		}))
	}
	return out
}

// cleaningRule rotates the least recently cleaned quarter of the
// available fleet into cleaning at the 22:00 window.
func (e *Engine) cleaningRule(now time.Time, snapshot []models.Trainset) []Decision {
	if now.Hour() != 22 || now.Minute() >= 10 {
		return nil
	}
	available := availableTrainsets(snapshot)
	if len(available) < 6 {
		return nil
	}
	if e.hasActive(TypeCleaningSchedule, "") {
		return nil
	}

	count := (len(available) + 3) / 4
	if count < 2 {
		count = 2
	}

	// Least recently cleaned first; never-cleaned sorts before all.
	sort.SliceStable(available, func(i, j int) bool {
		a, b := available[i].LastCleaningDate, available[j].LastCleaningDate
		switch {
		case a == nil:
			return b != nil
		case b == nil:
			return false
		default:
			return a.Before(*b)
		}
	})
	chosen := available[:count]

	return []Decision{e.finalize(Decision{
		Type:       TypeCleaningSchedule,
		Urgency:    UrgencyMedium,
		Confidence: 0.8,
		Rationale: fmt.Sprintf(
			"nightly cleaning rotation: %d of %d available trainsets", count, len(available)),
		Action: ScheduleCleaningAction{
			TrainsetIDs: lo.Map(chosen, func(t models.Trainset, _ int) string { return t.ID }),
		},
		TrainsetIDs:      lo.Map(chosen, func(t models.Trainset, _ int) string { return t.ID }),
		RequiresApproval: false,
		Deadline:         e.deadline(30 * time.Minute),
	})}
}

// scheduleFeatures composes the feature map for the success model.
func (e *Engine) scheduleFeatures(now time.Time, snapshot []models.Trainset) map[string]float64 {
	mileages := lo.Map(snapshot, func(t models.Trainset, _ int) float64 { return t.TotalMileage })
	mean := stats.Mean(mileages)

	balance := 0.5
	if mean > 0 {
		balance = stats.Clamp(1-stats.StdDev(mileages)/mean, 0, 1)
	}

	efficiency := stats.Mean(lo.Map(snapshot,
		func(t models.Trainset, _ int) float64 { return t.EnergyEfficiency }))
	if efficiency == 0 {
		efficiency = 0.85
	}

	available := availableTrainsets(snapshot)
	maintenance := 0.0
	if len(available) > 0 {
		clear := lo.CountBy(available, func(t models.Trainset) bool {
			return t.PendingWorkOrders == 0
		})
		maintenance = float64(clear) / float64(len(available))
	}

	return map[string]float64{
		feedback.FeatureHour:             float64(now.Hour()),
		feedback.FeatureWeekday:          float64(int(now.Weekday())),
		feedback.FeatureDay:              float64(now.Day()),
		feedback.FeatureMonth:            float64(int(now.Month())),
		feedback.FeatureTrainsetCount:    float64(len(snapshot)),
		feedback.FeatureMileageBalance:   balance,
		feedback.FeatureEnergyEfficiency: efficiency,
		feedback.FeatureMaintenanceScore: maintenance,
	}
}

func availableTrainsets(snapshot []models.Trainset) []models.Trainset {
	return lo.Filter(snapshot, func(t models.Trainset, _ int) bool {
		return t.Status == models.StatusAvailable
	})
}

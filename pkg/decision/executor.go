package decision

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/itzzomkar/NavYatra/pkg/feedback"
	"github.com/itzzomkar/NavYatra/pkg/fleet"
	"github.com/itzzomkar/NavYatra/pkg/models"
)

// ExecuteReady advances every active decision: expired ones are
// dropped (logged, the only silent discard path), ready ones run their
// action handler. On every handler return an outcome is recorded and
// the decision leaves the active set.
func (e *Engine) ExecuteReady(ctx context.Context) {
	now := e.now()

	e.mu.RLock()
	pending := make([]Decision, 0, len(e.active))
	for _, d := range e.active {
		pending = append(pending, *d)
	}
	e.mu.RUnlock()

	for _, d := range pending {
		if ctx.Err() != nil {
			return // finish current step only, no new work after shutdown
		}
		if d.Expired(now) {
			e.logger.Warn("decision dropped past deadline",
				zap.String("id", d.ID),
				zap.String("type", string(d.Type)),
				zap.Time("deadline", *d.Deadline))
			e.remove(d.ID)
			continue
		}
		if !d.Ready(now) {
			continue
		}
		e.execute(ctx, d)
	}
}

// execute dispatches on the action tag, records the outcome, and
// retires the decision.
func (e *Engine) execute(ctx context.Context, d Decision) {
	var success bool
	var details string

	switch action := d.Action.(type) {
	case OptimizeScheduleAction:
		success, details = e.runOptimizeSchedule(ctx)
	case ScheduleMaintenanceAction:
		success, details = e.runScheduleMaintenance(ctx, action)
	case EmergencyDeactivateAction:
		success, details = e.runEmergencyDeactivate(ctx, action)
	case ScheduleCleaningAction:
		success, details = e.runScheduleCleaning(ctx, action)
	default:
		success, details = false, fmt.Sprintf("no handler for action %T", d.Action)
	}

	executedAt := e.now()
	e.recordOutcome(d, success, details, executedAt)
	e.remove(d.ID)

	e.logger.Info("decision executed",
		zap.String("id", d.ID),
		zap.String("type", string(d.Type)),
		zap.Bool("success", success),
		zap.String("details", details))
}

func (e *Engine) runOptimizeSchedule(ctx context.Context) (bool, string) {
	if e.trigger == nil {
		return false, "no scheduler attached"
	}
	if err := e.trigger.GenerateNow(ctx); err != nil {
		return false, fmt.Sprintf("schedule regeneration failed: %v", err)
	}
	return true, "schedule regeneration triggered"
}

func (e *Engine) runScheduleMaintenance(ctx context.Context, action ScheduleMaintenanceAction) (bool, string) {
	meta := fleet.StatusMeta{
		Actor:       "decision-engine",
		Reason:      "scheduled maintenance due",
		Timestamp:   e.now(),
		WindowStart: &action.WindowStart,
		WindowEnd:   &action.WindowEnd,
	}
	if err := e.writer.SetStatus(ctx, action.TrainsetID, models.StatusMaintenance, meta); err != nil {
		return false, fmt.Sprintf("status write failed: %v", err)
	}
	return true, fmt.Sprintf("trainset %s sent to maintenance", action.TrainsetID)
}

func (e *Engine) runEmergencyDeactivate(ctx context.Context, action EmergencyDeactivateAction) (bool, string) {
	meta := fleet.StatusMeta{
		Actor:     "decision-engine",
		Reason:    action.Reason,
		Timestamp: e.now(),
	}
	if err := e.writer.SetStatus(ctx, action.TrainsetID, models.StatusOutOfOrder, meta); err != nil {
		return false, fmt.Sprintf("status write failed: %v", err)
	}

	// Alert failure never blocks the withdrawal itself.
	if e.notifier != nil {
		if err := e.notifier.EmergencyAlert(ctx,
			"emergency withdrawal",
			fmt.Sprintf("trainset %s withdrawn: %s", action.TrainsetID, action.Reason)); err != nil {
			e.logger.Warn("emergency alert delivery failed",
				zap.String("trainset", action.TrainsetID), zap.Error(err))
		}
	}
	return true, fmt.Sprintf("trainset %s withdrawn from service", action.TrainsetID)
}

func (e *Engine) runScheduleCleaning(ctx context.Context, action ScheduleCleaningAction) (bool, string) {
	failed := 0
	for _, id := range action.TrainsetIDs {
		meta := fleet.StatusMeta{
			Actor:     "decision-engine",
			Reason:    "nightly cleaning rotation",
			Timestamp: e.now(),
		}
		if err := e.writer.SetStatus(ctx, id, models.StatusCleaning, meta); err != nil {
			e.logger.Warn("cleaning status write failed",
				zap.String("trainset", id), zap.Error(err))
			failed++
		}
	}
	if failed == len(action.TrainsetIDs) {
		return false, "all cleaning status writes failed"
	}
	return true, fmt.Sprintf("%d trainset(s) sent for cleaning", len(action.TrainsetIDs)-failed)
}

// recordOutcome appends to the bounded history ring and forwards a
// feedback record to the sink.
func (e *Engine) recordOutcome(d Decision, success bool, details string, executedAt time.Time) {
	outcome := Outcome{
		DecisionID: d.ID,
		Type:       d.Type,
		Success:    success,
		Details:    details,
		ExecutedAt: executedAt,
	}

	e.mu.Lock()
	e.history = append(e.history, outcome)
	if len(e.history) > historyCap {
		e.history = e.history[len(e.history)-historyCap:]
	}
	e.mu.Unlock()

	if e.sink == nil {
		return
	}
	score := 0.0
	if success {
		score = 1.0
	}
	record := feedback.OutcomeRecord{
		ScheduleID:     d.ID,
		Timestamp:      executedAt,
		TrainsetIDs:    d.TrainsetIDs,
		PlannedMetrics: d.EstimatedImpact,
		ActualMetrics:  map[string]float64{"success": score},
		Kind:           feedback.KindDecisionOutcome,
		SuccessScore:   score,
	}
	if err := e.sink.Record(record); err != nil {
		e.logger.Warn("feedback record failed", zap.String("decision", d.ID), zap.Error(err))
	}
}

func (e *Engine) remove(id string) {
	e.mu.Lock()
	delete(e.active, id)
	e.mu.Unlock()
}

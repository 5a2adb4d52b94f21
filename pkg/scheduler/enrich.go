package scheduler

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/itzzomkar/NavYatra/pkg/fleet"
	"github.com/itzzomkar/NavYatra/pkg/models"
	"github.com/itzzomkar/NavYatra/pkg/optimizer"
	"github.com/itzzomkar/NavYatra/pkg/stats"
)

// weatherRisk scores conditions for the risk assessment. Distinct from
// the demand multipliers: cloudy weather costs nothing operationally
// but still carries more risk than clear skies.
var weatherRisk = map[fleet.Weather]float64{
	fleet.WeatherSunny:     0.1,
	fleet.WeatherCloudy:    0.2,
	fleet.WeatherRainy:     0.5,
	fleet.WeatherHeavyRain: 0.8,
	fleet.WeatherStormy:    1.0,
}

// enrich turns a raw optimization result into a fully scored schedule:
// performance metrics, risk assessment, up to two alternatives, the
// execution plan, monitoring alerts, and the composite confidence.
func (s *Scheduler) enrich(ctx context.Context, request ScheduleRequest, result optimizer.OptimizationResult, snapshot []models.Trainset, views map[string]models.HealthView) *GeneratedSchedule {
	now := s.now()

	performance := s.performanceMetrics(request, result, views)
	risk := s.riskAssessment(request, result, views)
	confidence := s.composeConfidence(request, result, performance, risk)

	schedule := &GeneratedSchedule{
		ID:            request.ID,
		GeneratedAt:   now,
		Type:          request.Type,
		Assignment:    result.Assignment,
		Algorithm:     result.Algorithm,
		Score:         result.Score,
		Performance:   performance,
		Risk:          risk,
		Confidence:    confidence,
		Alternatives:  s.alternatives(ctx, request, result, snapshot, views),
		ExecutionPlan: executionPlan(now),
		Alerts:        monitoringAlerts(request, performance, risk),
	}
	return schedule
}

// performanceMetrics estimates how the schedule will perform, each
// metric in [0,1].
func (s *Scheduler) performanceMetrics(request ScheduleRequest, result optimizer.OptimizationResult, views map[string]models.HealthView) map[string]float64 {
	assigned := result.Assignment.TrainsetIDs()

	reliability := make([]float64, 0, len(assigned))
	maintenance := make([]float64, 0, len(assigned))
	for _, id := range assigned {
		if v, ok := views[id]; ok {
			reliability = append(reliability, v.PredictedReliability)
			maintenance = append(maintenance, v.HealthScore)
		} else {
			reliability = append(reliability, 0.8)
			maintenance = append(maintenance, 0.8)
		}
	}
	reliabilityAvg, maintenanceAvg := 0.8, 0.8
	if len(reliability) > 0 {
		reliabilityAvg = stats.Mean(reliability)
		maintenanceAvg = stats.Mean(maintenance)
	}

	return map[string]float64{
		"efficiency_score":       stats.Clamp(result.Score/1000, 0, 1),
		"predicted_reliability":  reliabilityAvg,
		"energy_efficiency":      s.energyEfficiency(request),
		"passenger_satisfaction": passengerSatisfaction(request, len(assigned)),
		"maintenance_optimality": maintenanceAvg,
		"cost_effectiveness":     costEffectiveness(request, len(assigned)),
	}
}

func (s *Scheduler) energyEfficiency(request ScheduleRequest) float64 {
	base := 0.8
	switch request.Type {
	case TypeNightService:
		base = 0.9
	case TypePeakHour:
		base = 0.7
	}
	factor, ok := s.cfg.WeatherImpact[request.Weather]
	if !ok {
		factor = 1.0
	}
	return stats.Clamp(base/factor, 0, 1)
}

func passengerSatisfaction(request ScheduleRequest, assigned int) float64 {
	capacity := float64(assigned * perTrainsetCapacity)
	utilization := 0.0
	if capacity > 0 {
		utilization = stats.Clamp(float64(request.ExpectedDemand)/capacity, 0, 1)
	}
	satisfaction := 1.0 - utilization*0.5
	if satisfaction < 0.5 {
		satisfaction = 0.5
	}
	if request.Type == TypePeakHour {
		satisfaction *= 1.1
	}
	return stats.Clamp(satisfaction, 0, 1)
}

func costEffectiveness(request ScheduleRequest, assigned int) float64 {
	const hourlyCostPerTrainset = 200.0
	duration := request.WindowEnd.Sub(request.WindowStart).Hours()
	total := float64(assigned) * hourlyCostPerTrainset * duration

	limit := request.Constraints.CostCap
	if limit <= 0 {
		return 1.0
	}
	ratio := total / limit
	if ratio <= 1.0 {
		return 1.0
	}
	score := 1.0 - (ratio-1.0)*0.5
	if score < 0.2 {
		score = 0.2
	}
	return score
}

// riskAssessment scores the four risk dimensions; overall is their
// mean.
func (s *Scheduler) riskAssessment(request ScheduleRequest, result optimizer.OptimizationResult, views map[string]models.HealthView) map[string]float64 {
	assigned := result.Assignment.TrainsetIDs()

	urgencies := make([]float64, 0, len(assigned))
	highUrgency := 0
	for _, id := range assigned {
		urgency := 0.0
		if v, ok := views[id]; ok {
			urgency = v.MaintenanceUrgency
		}
		urgencies = append(urgencies, urgency)
		if urgency > 0.7 {
			highUrgency++
		}
	}

	operational := 0.2
	if len(urgencies) > 0 {
		operational = stats.Mean(urgencies)
	}

	maintenanceRisk := 0.0
	if len(assigned) > 0 {
		maintenanceRisk = stats.Clamp(2*float64(highUrgency)/float64(len(assigned)), 0, 1)
	}

	wr, ok := weatherRisk[request.Weather]
	if !ok {
		wr = 0.3
	}

	risk := map[string]float64{
		"operational_risk":     operational,
		"maintenance_risk":     maintenanceRisk,
		"weather_risk":         wr,
		"demand_mismatch_risk": demandRisk(request, len(assigned)),
	}
	risk["overall_risk"] = (risk["operational_risk"] + risk["maintenance_risk"] +
		risk["weather_risk"] + risk["demand_mismatch_risk"]) / 4
	return risk
}

// demandRisk penalizes both crowding and running near-empty trains.
func demandRisk(request ScheduleRequest, assigned int) float64 {
	capacity := float64(assigned * perTrainsetCapacity)
	if capacity == 0 {
		return 1.0
	}
	utilization := float64(request.ExpectedDemand) / capacity
	switch {
	case utilization > 0.9:
		return stats.Clamp((utilization-0.9)*10, 0, 1)
	case utilization < 0.3:
		return stats.Clamp((0.3-utilization)*2, 0, 1)
	default:
		return 0.1
	}
}

// composeConfidence weighs optimization quality, data completeness,
// algorithm reliability, mean performance, and inverse risk.
func (s *Scheduler) composeConfidence(request ScheduleRequest, result optimizer.OptimizationResult, performance, risk map[string]float64) float64 {
	quality := stats.Clamp(result.Score/1000, 0, 1)

	completeness := 1.0
	if n := len(request.EligibleIDs); n < 10 {
		completeness = float64(n) / 10
	}

	reliability := 0.8
	if result.Algorithm == optimizer.AlgorithmConstraint {
		reliability = 0.9
	}

	values := make([]float64, 0, len(performance))
	for _, v := range performance {
		values = append(values, v)
	}
	performanceMean := stats.Mean(values)

	confidence := 0.25*quality +
		0.15*completeness +
		0.10*reliability +
		0.30*performanceMean +
		0.20*(1-risk["overall_risk"])
	return stats.Clamp(confidence, 0, 1)
}

// alternatives re-runs the optimizer with a conservative (-3) and an
// aggressive (+3) position cap, keeping at most two completed results.
func (s *Scheduler) alternatives(ctx context.Context, request ScheduleRequest, primary optimizer.OptimizationResult, snapshot []models.Trainset, views map[string]models.HealthView) []Alternative {
	var out []Alternative
	assigned := len(primary.Assignment)

	if assigned > request.Constraints.MinTrainsets {
		limit := assigned - 3
		if limit < request.Constraints.MinTrainsets {
			limit = request.Constraints.MinTrainsets
		}
		if result, err := s.opt.Optimize(ctx, s.optimizationRequest(request, optimizer.AlgorithmConstraint, limit, views), snapshot); err == nil && result.Completed() {
			out = append(out, Alternative{
				Kind:        "conservative",
				Trainsets:   len(result.Assignment),
				Score:       result.Score,
				Description: "lower cost, reduced capacity",
			})
		} else if err != nil {
			s.logger.Debug("conservative alternative failed", zap.Error(err))
		}
	}

	if assigned < request.Constraints.MaxTrainsets {
		limit := assigned + 3
		if limit > request.Constraints.MaxTrainsets {
			limit = request.Constraints.MaxTrainsets
		}
		if result, err := s.opt.Optimize(ctx, s.optimizationRequest(request, optimizer.AlgorithmGenetic, limit, views), snapshot); err == nil && result.Completed() {
			out = append(out, Alternative{
				Kind:        "aggressive",
				Trainsets:   len(result.Assignment),
				Score:       result.Score,
				Description: "higher capacity, increased cost",
			})
		} else if err != nil {
			s.logger.Debug("aggressive alternative failed", zap.Error(err))
		}
	}

	if len(out) > 2 {
		out = out[:2]
	}
	return out
}

// executionPlan is the fixed five-step rollout with scheduled offsets.
func executionPlan(now time.Time) []ExecutionStep {
	return []ExecutionStep{
		{1, "validate_availability", now.Add(2 * time.Minute), 3,
			"confirm all assigned trainsets are available and ready"},
		{2, "apply_assignments", now.Add(5 * time.Minute), 2,
			"apply the new stabling assignments"},
		{3, "notify_operations", now.Add(7 * time.Minute), 1,
			"send schedule update notifications to operators"},
		{4, "monitor_rollout", now.Add(15 * time.Minute), 30,
			"monitor schedule performance for the first 30 minutes"},
		{5, "evaluate_performance", now.Add(time.Hour), 10,
			"compare actual against predicted performance"},
	}
}

// monitoringAlerts derives operator-facing warnings from the risk and
// performance scores.
func monitoringAlerts(request ScheduleRequest, performance, risk map[string]float64) []string {
	var alerts []string

	if risk["overall_risk"] > 0.7 {
		alerts = append(alerts, "HIGH RISK: monitor schedule closely for potential issues")
	}
	if risk["maintenance_risk"] > 0.6 {
		alerts = append(alerts, "MAINTENANCE ALERT: assigned trainsets carry high maintenance urgency")
	}
	if risk["weather_risk"] > 0.5 {
		alerts = append(alerts, fmt.Sprintf("WEATHER ALERT: %s conditions may impact operations", request.Weather))
	}
	if performance["predicted_reliability"] < 0.7 {
		alerts = append(alerts, "RELIABILITY CONCERN: lower than optimal predicted reliability")
	}
	if performance["energy_efficiency"] < 0.6 {
		alerts = append(alerts, "ENERGY ALERT: schedule may consume more energy than optimal")
	}

	switch request.Type {
	case TypePeakHour:
		alerts = append(alerts, "PEAK HOUR: monitor passenger satisfaction and capacity utilization")
	case TypeNightService:
		alerts = append(alerts, "NIGHT SERVICE: focus on energy efficiency and minimal disruption")
	}
	return alerts
}

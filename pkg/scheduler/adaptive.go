package scheduler

import (
	"go.uber.org/zap"

	"github.com/itzzomkar/NavYatra/pkg/stats"
)

const (
	adaptiveWindow   = 20
	adaptiveStep     = 0.01
	raiseBelowRate   = 0.7
	lowerAboveRate   = 0.9
	performanceWindow = 10
)

// AdaptThresholds adjusts both confidence thresholds from the recent
// success rate: sustained success loosens them one step, sustained
// failure tightens them. Both stay inside their configured bounds.
func (s *Scheduler) AdaptThresholds() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.performance) == 0 {
		return
	}
	window := s.performance
	if len(window) > adaptiveWindow {
		window = window[len(window)-adaptiveWindow:]
	}
	scores := make([]float64, len(window))
	for i, entry := range window {
		scores[i] = entry.Success
	}
	rate := stats.Mean(scores)

	before, beforeAuto := s.confidence, s.autoExec
	switch {
	case rate > lowerAboveRate:
		s.confidence = stats.Clamp(s.confidence-adaptiveStep, s.cfg.ConfidenceFloor, s.cfg.ConfidenceCeiling)
		s.autoExec = stats.Clamp(s.autoExec-adaptiveStep, s.cfg.AutoExecFloor, s.cfg.AutoExecCeiling)
	case rate < raiseBelowRate:
		s.confidence = stats.Clamp(s.confidence+adaptiveStep, s.cfg.ConfidenceFloor, s.cfg.ConfidenceCeiling)
		s.autoExec = stats.Clamp(s.autoExec+adaptiveStep, s.cfg.AutoExecFloor, s.cfg.AutoExecCeiling)
	default:
		return
	}

	s.logger.Info("adaptive thresholds updated",
		zap.Float64("success_rate", rate),
		zap.Float64("confidence_threshold", s.confidence),
		zap.Float64("auto_execution_threshold", s.autoExec),
		zap.Float64("confidence_before", before),
		zap.Float64("auto_execution_before", beforeAuto))
}

// SeedPerformance pre-loads performance entries, bounded by the ring
// cap. Used when restoring state from the persistence layer.
func (s *Scheduler) SeedPerformance(entries []PerformanceEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.performance = append(s.performance, entries...)
	if len(s.performance) > performanceRingCap {
		s.performance = s.performance[len(s.performance)-performanceRingCap:]
	}
}

// analyzePerformance logs rolling statistics over the last ten
// schedules.
func (s *Scheduler) analyzePerformance() {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.performance) == 0 {
		return
	}
	window := s.performance
	if len(window) > performanceWindow {
		window = window[len(window)-performanceWindow:]
	}

	confidences := make([]float64, len(window))
	autoExecuted := 0
	for i, entry := range window {
		confidences[i] = entry.Confidence
		if entry.AutoExecuted {
			autoExecuted++
		}
	}

	s.logger.Info("schedule performance",
		zap.Float64("avg_confidence", stats.Mean(confidences)),
		zap.Float64("auto_execution_rate", float64(autoExecuted)/float64(len(window))),
		zap.Int("window", len(window)))
}

// CurrentStatus summarizes the scheduler for the read model.
func (s *Scheduler) CurrentStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status := Status{
		ConfidenceThreshold:    s.confidence,
		AutoExecutionThreshold: s.autoExec,
		GeneratedCount:         len(s.schedules),
	}
	if len(s.schedules) > 0 {
		last := s.schedules[len(s.schedules)-1].GeneratedAt
		status.LastGeneratedAt = &last
	}

	if len(s.performance) > 0 {
		window := s.performance
		if len(window) > performanceWindow {
			window = window[len(window)-performanceWindow:]
		}
		confidences := make([]float64, len(window))
		autoExecuted := 0
		for i, entry := range window {
			confidences[i] = entry.Confidence
			if entry.AutoExecuted {
				autoExecuted++
			}
		}
		status.AverageConfidence = stats.Mean(confidences)
		status.AutoExecutionRate = float64(autoExecuted) / float64(len(window))
	}
	return status
}

// Package service assembles the induction core: storage, health
// assessment, learning, the decision engine, and the scheduler.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/itzzomkar/NavYatra/internal/config"
	"github.com/itzzomkar/NavYatra/internal/database"
	internalfleet "github.com/itzzomkar/NavYatra/internal/fleet"
	"github.com/itzzomkar/NavYatra/internal/metrics"
	"github.com/itzzomkar/NavYatra/pkg/decision"
	"github.com/itzzomkar/NavYatra/pkg/feedback"
	"github.com/itzzomkar/NavYatra/pkg/health"
	"github.com/itzzomkar/NavYatra/pkg/optimizer"
	"github.com/itzzomkar/NavYatra/pkg/scheduler"
)

const (
	persistInterval    = time.Minute
	telemetryRetention = 30 * 24 * time.Hour
)

// Service owns the wired component graph and its background loops.
type Service struct {
	cfg    config.Config
	logger *zap.Logger

	DB        *database.DB
	Repo      *database.Repository
	Store     *internalfleet.Store
	Assessor  *health.Assessor
	Loop      *feedback.Loop
	Optimizer *optimizer.Optimizer
	Engine    *decision.Engine
	Scheduler *scheduler.Scheduler
	Metrics   *metrics.Metrics

	mu            sync.Mutex
	seenDecisions map[string]bool
	seenSchedules map[string]bool
	outcomesSeen  int

	wg sync.WaitGroup
}

// New builds the full component graph from configuration.
func New(cfg config.Config, logger *zap.Logger) (*Service, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("opening fleet store: %w", err)
	}
	repo := database.NewRepository(db)

	m := metrics.New()
	store := internalfleet.NewStore(repo, logger.Named("fleet"))
	writer := instrumentedWriter{inner: store, metrics: m}
	notifier := internalfleet.NewLogNotifier(logger.Named("notify"))

	loop := feedback.NewLoop(logger.Named("feedback"))
	sink := internalfleet.NewPersistentSink(repo, loop, logger.Named("feedback"))

	assessor := health.NewAssessor(logger.Named("health"))

	opt := optimizer.New(optimizer.Config{
		MaxConcurrent: cfg.Optimizer.MaxConcurrent,
		QueueSize:     cfg.Optimizer.QueueSize,
		MaxPositions:  cfg.Optimizer.MaxPositions,
	}, logger.Named("optimizer"))
	runner := instrumentedRunner{inner: opt, metrics: m}

	engine := decision.NewEngine(decision.Config{
		ConfidenceThreshold:    cfg.Decision.ConfidenceThreshold,
		MaxAutonomousTrainsets: cfg.Decision.MaxAutonomousTrainsets,
		EvaluateInterval:       cfg.Decision.EvaluateInterval(),
		ExecuteInterval:        cfg.Decision.ExecuteInterval(),
	}, store, writer, notifier, sink, loop, logger.Named("decision"))

	schedulerCfg := scheduler.DefaultConfig()
	schedulerCfg.ConfidenceThreshold = cfg.Scheduler.ConfidenceThreshold
	schedulerCfg.AutoExecutionThreshold = cfg.Scheduler.AutoExecutionThreshold
	schedulerCfg.ScheduleInterval = cfg.Scheduler.ScheduleInterval()
	schedulerCfg.PerformanceInterval = cfg.Scheduler.PerformanceInterval()
	schedulerCfg.AdaptiveInterval = cfg.Scheduler.AdaptiveInterval()
	schedulerCfg.TimeoutSeconds = cfg.Optimizer.TimeoutSeconds

	sched := scheduler.New(schedulerCfg, runner, store, writer, notifier, sink,
		assessor, nil, logger.Named("scheduler"))

	// The engine's optimize-schedule action regenerates through the
	// scheduler; attach after both exist.
	engine.SetScheduleTrigger(sched)

	return &Service{
		cfg:           cfg,
		logger:        logger,
		DB:            db,
		Repo:          repo,
		Store:         store,
		Assessor:      assessor,
		Loop:          loop,
		Optimizer:     opt,
		Engine:        engine,
		Scheduler:     sched,
		Metrics:       m,
		seenDecisions: make(map[string]bool),
		seenSchedules: make(map[string]bool),
	}, nil
}

// Start launches every background loop. Components start bottom-up:
// the engine and scheduler only act once the store is reachable, which
// New already guaranteed.
func (s *Service) Start(ctx context.Context) {
	s.Engine.Start(ctx)
	s.Scheduler.Start(ctx)

	s.wg.Add(2)
	go s.persistLoop(ctx)
	go s.retentionLoop(ctx)

	s.logger.Info("service started",
		zap.String("database", s.cfg.Database.Path),
		zap.Float64("decision_confidence", s.cfg.Decision.ConfidenceThreshold),
		zap.Float64("scheduler_confidence", s.cfg.Scheduler.ConfidenceThreshold))
}

// Wait blocks until every loop has exited, then closes the store.
func (s *Service) Wait() error {
	s.Engine.Wait()
	s.Scheduler.Wait()
	s.wg.Wait()
	return s.DB.Close()
}

// persistLoop mirrors in-memory decision and schedule state into the
// store once a minute.
func (s *Service) persistLoop(ctx context.Context) {
	defer s.wg.Done()
	ticker := time.NewTicker(persistInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.persistSweep()
			return
		case <-ticker.C:
			s.persistSweep()
		}
	}
}

func (s *Service) persistSweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, d := range s.Engine.Active() {
		record := decisionRecord(d)
		if err := s.Repo.SaveDecision(&record); err != nil {
			s.logger.Warn("decision persistence failed",
				zap.String("decision", d.ID), zap.Error(err))
			continue
		}
		if !s.seenDecisions[d.ID] {
			s.seenDecisions[d.ID] = true
			s.Metrics.DecisionsCreated.
				WithLabelValues(string(d.Type), string(d.Urgency)).Inc()
		}
	}

	history := s.Engine.History()
	if s.outcomesSeen > len(history) {
		// The engine trims its outcome ring; realign on the snapshot.
		s.outcomesSeen = len(history)
	}
	for _, outcome := range history[s.outcomesSeen:] {
		result := "failure"
		if outcome.Success {
			result = "success"
		}
		s.Metrics.DecisionsExecuted.
			WithLabelValues(string(outcome.Type), result).Inc()
		if err := s.Repo.MarkDecisionExecuted(outcome.DecisionID,
			outcome.Success, outcome.Details, outcome.ExecutedAt); err != nil {
			s.logger.Warn("outcome persistence failed",
				zap.String("decision", outcome.DecisionID), zap.Error(err))
		}
	}
	s.outcomesSeen = len(history)

	for _, schedule := range s.Scheduler.Schedules() {
		if s.seenSchedules[schedule.ID] {
			continue
		}
		record := scheduleRecord(schedule)
		if err := s.Repo.SaveSchedule(&record); err != nil {
			s.logger.Warn("schedule persistence failed",
				zap.String("schedule", schedule.ID), zap.Error(err))
			continue
		}
		s.seenSchedules[schedule.ID] = true
		s.Metrics.SchedulesGenerated.
			WithLabelValues(string(schedule.Type), string(schedule.Status)).Inc()
	}
}

// retentionLoop prunes telemetry beyond the retention window hourly.
func (s *Service) retentionLoop(ctx context.Context) {
	defer s.wg.Done()
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-telemetryRetention)
			removed, err := s.Repo.PruneTelemetry(cutoff)
			if err != nil {
				s.logger.Warn("telemetry pruning failed", zap.Error(err))
				continue
			}
			if removed > 0 {
				s.logger.Info("telemetry pruned", zap.Int64("removed", removed))
			}
		}
	}
}

func decisionRecord(d decision.Decision) database.DecisionRecord {
	payload, _ := json.Marshal(d)
	return database.DecisionRecord{
		ID:               d.ID,
		Type:             string(d.Type),
		Urgency:          string(d.Urgency),
		CreatedAt:        d.CreatedAt,
		Confidence:       d.Confidence,
		Rationale:        d.Rationale,
		Payload:          string(payload),
		RequiresApproval: d.RequiresApproval,
		Approved:         d.Approved,
		ApprovedBy:       d.ApprovedBy,
		Deadline:         d.Deadline,
	}
}

func scheduleRecord(s scheduler.GeneratedSchedule) database.ScheduleRecord {
	payload, _ := json.Marshal(s)
	return database.ScheduleRecord{
		ID:          s.ID,
		GeneratedAt: s.GeneratedAt,
		Type:        string(s.Type),
		Algorithm:   string(s.Algorithm),
		Score:       s.Score,
		Confidence:  s.Confidence,
		Status:      string(s.Status),
		Trainsets:   len(s.Assignment),
		Payload:     string(payload),
	}
}

package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/itzzomkar/NavYatra/pkg/feedback"
	"github.com/itzzomkar/NavYatra/pkg/fleet"
	"github.com/itzzomkar/NavYatra/pkg/models"
	"github.com/itzzomkar/NavYatra/pkg/optimizer"
)

const (
	scheduleRingCap    = 1000
	performanceRingCap = 1000
)

// Demand patterns: per-hour indices in [0,1], multiplied by the
// capacity factors to produce a passenger forecast.
var (
	weekdayPattern = [24]float64{0.2, 0.3, 0.6, 0.8, 0.9, 1.0, 0.8, 0.6, 0.4, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0, 0.8, 0.6, 0.4, 0.3, 0.2, 0.1, 0.1}
	weekendPattern = [24]float64{0.1, 0.1, 0.1, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0, 0.9, 0.8, 0.7, 0.6, 0.5, 0.4, 0.3, 0.2, 0.2, 0.1, 0.1}
	holidayPattern = [24]float64{0.1, 0.1, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0, 1.0, 1.0, 0.9, 0.8, 0.7, 0.6, 0.5, 0.4, 0.3, 0.2, 0.1, 0.1}
)

const (
	capacityFactor       = 15   // trainset capacity factor
	perTrainsetCapacity  = 1000 // passengers per trainset
	sundayDemandDiscount = 0.8
)

// Config tunes the scheduler's thresholds and loop periods. Threshold
// floors and ceilings bound the adaptive loop.
type Config struct {
	ConfidenceThreshold    float64
	AutoExecutionThreshold float64

	ConfidenceFloor   float64
	ConfidenceCeiling float64
	AutoExecFloor     float64
	AutoExecCeiling   float64

	ScheduleInterval    time.Duration
	PerformanceInterval time.Duration
	AdaptiveInterval    time.Duration

	CriticalHours   []int
	RegenEveryHours int

	MaxPositions   int
	TimeoutSeconds int

	WeatherImpact map[fleet.Weather]float64
}

// DefaultConfig returns the production scheduler settings.
func DefaultConfig() Config {
	return Config{
		ConfidenceThreshold:    0.75,
		AutoExecutionThreshold: 0.85,
		ConfidenceFloor:        0.70,
		ConfidenceCeiling:      0.85,
		AutoExecFloor:          0.80,
		AutoExecCeiling:        0.95,
		ScheduleInterval:       5 * time.Minute,
		PerformanceInterval:    15 * time.Minute,
		AdaptiveInterval:       60 * time.Minute,
		CriticalHours:          []int{5, 6, 9, 12, 16, 17, 20, 22},
		RegenEveryHours:        4,
		MaxPositions:           30,
		TimeoutSeconds:         30,
		WeatherImpact: map[fleet.Weather]float64{
			fleet.WeatherSunny:     1.0,
			fleet.WeatherCloudy:    1.0,
			fleet.WeatherRainy:     1.15,
			fleet.WeatherHeavyRain: 1.3,
			fleet.WeatherStormy:    1.4,
		},
	}
}

// HealthViews serves the latest decorated health view per trainset.
type HealthViews interface {
	Views() map[string]models.HealthView
}

// Runner is the optimizer surface the scheduler drives. Satisfied by
// *optimizer.Optimizer.
type Runner interface {
	Optimize(ctx context.Context, req optimizer.OptimizationRequest, fleet []models.Trainset) (optimizer.OptimizationResult, error)
}

// Scheduler periodically decides whether a new schedule is needed,
// generates one across all optimizer algorithms, enriches it, and
// routes it by confidence. It is the single writer of the schedule and
// performance rings.
type Scheduler struct {
	cfg      Config
	opt      Runner
	reader   fleet.Reader
	writer   fleet.StatusWriter
	notifier fleet.Notifier
	sink     feedback.Sink
	health   HealthViews
	weather  fleet.WeatherProvider

	mu          sync.RWMutex
	confidence  float64 // adaptive confidence threshold
	autoExec    float64 // adaptive auto-execution threshold
	schedules   []GeneratedSchedule
	performance []PerformanceEntry

	now    func() time.Time
	newID  func() string
	logger *zap.Logger
	wg     sync.WaitGroup
}

// New wires the scheduler to its collaborators.
func New(cfg Config, opt Runner, reader fleet.Reader, writer fleet.StatusWriter, notifier fleet.Notifier, sink feedback.Sink, health HealthViews, weather fleet.WeatherProvider, logger *zap.Logger) *Scheduler {
	def := DefaultConfig()
	if cfg.ConfidenceThreshold == 0 {
		cfg.ConfidenceThreshold = def.ConfidenceThreshold
	}
	if cfg.AutoExecutionThreshold == 0 {
		cfg.AutoExecutionThreshold = def.AutoExecutionThreshold
	}
	if cfg.ConfidenceFloor == 0 {
		cfg.ConfidenceFloor = def.ConfidenceFloor
	}
	if cfg.ConfidenceCeiling == 0 {
		cfg.ConfidenceCeiling = def.ConfidenceCeiling
	}
	if cfg.AutoExecFloor == 0 {
		cfg.AutoExecFloor = def.AutoExecFloor
	}
	if cfg.AutoExecCeiling == 0 {
		cfg.AutoExecCeiling = def.AutoExecCeiling
	}
	if cfg.ScheduleInterval <= 0 {
		cfg.ScheduleInterval = def.ScheduleInterval
	}
	if cfg.PerformanceInterval <= 0 {
		cfg.PerformanceInterval = def.PerformanceInterval
	}
	if cfg.AdaptiveInterval <= 0 {
		cfg.AdaptiveInterval = def.AdaptiveInterval
	}
	if len(cfg.CriticalHours) == 0 {
		cfg.CriticalHours = def.CriticalHours
	}
	if cfg.RegenEveryHours <= 0 {
		cfg.RegenEveryHours = def.RegenEveryHours
	}
	if cfg.MaxPositions <= 0 {
		cfg.MaxPositions = def.MaxPositions
	}
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = def.TimeoutSeconds
	}
	if cfg.WeatherImpact == nil {
		cfg.WeatherImpact = def.WeatherImpact
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if weather == nil {
		weather = fleet.StaticWeather{}
	}
	return &Scheduler{
		cfg:        cfg,
		opt:        opt,
		reader:     reader,
		writer:     writer,
		notifier:   notifier,
		sink:       sink,
		health:     health,
		weather:    weather,
		confidence: cfg.ConfidenceThreshold,
		autoExec:   cfg.AutoExecutionThreshold,
		now:        time.Now,
		newID:      uuid.NewString,
		logger:     logger,
	}
}

// Start launches the scheduling, performance, and adaptive loops.
func (s *Scheduler) Start(ctx context.Context) {
	s.wg.Add(3)
	go s.loop(ctx, s.cfg.ScheduleInterval, func(c context.Context) {
		if err := s.ScheduleTick(c); err != nil {
			s.logger.Warn("scheduling tick failed", zap.Error(err))
		}
	})
	go s.loop(ctx, s.cfg.PerformanceInterval, func(context.Context) {
		s.analyzePerformance()
	})
	go s.loop(ctx, s.cfg.AdaptiveInterval, func(context.Context) {
		s.AdaptThresholds()
	})
}

// Wait blocks until all loops have exited.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context, interval time.Duration, tick func(context.Context)) {
	defer s.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tick(ctx)
		}
	}
}

// ScheduleTick generates a schedule when the need predicate holds.
func (s *Scheduler) ScheduleTick(ctx context.Context) error {
	snapshot, err := s.reader.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("reading fleet snapshot: %w", err)
	}
	views := s.views()
	if !s.NeedsSchedule(s.now(), snapshot, views) {
		return nil
	}
	_, err = s.generateAndRoute(ctx, snapshot, views)
	return err
}

// GenerateNow forces a generation run regardless of the need
// predicate. Implements the decision engine's schedule trigger.
func (s *Scheduler) GenerateNow(ctx context.Context) error {
	snapshot, err := s.reader.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("reading fleet snapshot: %w", err)
	}
	_, err = s.generateAndRoute(ctx, snapshot, s.views())
	return err
}

// NeedsSchedule is the scheduling-need predicate: critical hours and
// the regular regeneration cadence fire in their first ten minutes;
// emergencies fire any time.
func (s *Scheduler) NeedsSchedule(now time.Time, snapshot []models.Trainset, views map[string]models.HealthView) bool {
	hour, minute := now.Hour(), now.Minute()

	if minute < 10 {
		if lo.Contains(s.cfg.CriticalHours, hour) {
			return true
		}
		if hour%s.cfg.RegenEveryHours == 0 {
			return true
		}
	}
	return s.emergencyNeed(now, snapshot, views)
}

// emergencyNeed holds when over 20% of the available fleet is in poor
// or critical health, or any available trainset has expired fitness.
func (s *Scheduler) emergencyNeed(now time.Time, snapshot []models.Trainset, views map[string]models.HealthView) bool {
	available := lo.Filter(snapshot, func(t models.Trainset, _ int) bool {
		return t.Status == models.StatusAvailable
	})
	if len(available) == 0 {
		return false
	}

	unhealthy := lo.CountBy(available, func(t models.Trainset) bool {
		v, ok := views[t.ID]
		return ok && v.WorstStatus.NeedsExclusion()
	})
	if float64(unhealthy) > float64(len(available))*0.2 {
		return true
	}

	return lo.SomeBy(available, func(t models.Trainset) bool {
		return t.FitnessExpired(now)
	})
}

// ComposeRequest builds the schedule request for the current moment.
func (s *Scheduler) ComposeRequest(ctx context.Context, now time.Time, snapshot []models.Trainset, views map[string]models.HealthView) ScheduleRequest {
	scheduleType := deriveScheduleType(now)
	priority := derivePriority(scheduleType)

	weather, err := s.weather.Current(ctx)
	if err != nil {
		s.logger.Warn("weather lookup failed, assuming sunny", zap.Error(err))
		weather = fleet.WeatherSunny
	}

	eligible, excluded := s.partitionEligible(snapshot, views)
	template := templateFor(scheduleType, now)

	minTrainsets := template.MinTrainsets
	if floor := len(eligible) / 3; floor > minTrainsets {
		minTrainsets = floor
	}
	maxTrainsets := template.MaxTrainsets
	if len(eligible) < maxTrainsets {
		maxTrainsets = len(eligible)
	}

	return ScheduleRequest{
		ID:             s.newID(),
		Type:           scheduleType,
		Priority:       priority,
		WindowStart:    now,
		WindowEnd:      now.Add(windowDuration(scheduleType)),
		ExpectedDemand: predictDemand(now),
		Weather:        weather,
		Constraints: optimizer.Constraints{
			MinTrainsets:     minTrainsets,
			MaxTrainsets:     maxTrainsets,
			EnergyCapKWh:     energyCapKWh[scheduleType],
			CostCap:          costCap[scheduleType],
			FrequencyMinutes: template.FrequencyMinutes,
		},
		EligibleIDs: lo.Map(eligible, func(t models.Trainset, _ int) string { return t.ID }),
		Exclusions:  excluded,
	}
}

// generateAndRoute runs the full pipeline: compose, generate across
// algorithms, enrich, and route by confidence.
func (s *Scheduler) generateAndRoute(ctx context.Context, snapshot []models.Trainset, views map[string]models.HealthView) (*GeneratedSchedule, error) {
	now := s.now()
	request := s.ComposeRequest(ctx, now, snapshot, views)
	if len(request.EligibleIDs) == 0 {
		return nil, fmt.Errorf("no eligible trainsets for %s schedule", request.Type)
	}

	best, err := s.runAlgorithms(ctx, request, snapshot, views)
	if err != nil {
		return nil, err
	}

	schedule := s.enrich(ctx, request, *best, snapshot, views)
	s.route(ctx, schedule)
	s.store(*schedule)
	return schedule, nil
}

// runAlgorithms tries every driver and keeps the best completed
// result. A failed driver is a warning, not an error; only all three
// failing aborts the generation.
func (s *Scheduler) runAlgorithms(ctx context.Context, request ScheduleRequest, snapshot []models.Trainset, views map[string]models.HealthView) (*optimizer.OptimizationResult, error) {
	var best *optimizer.OptimizationResult

	for _, algorithm := range optimizer.Algorithms() {
		result, err := s.opt.Optimize(ctx, s.optimizationRequest(request, algorithm, request.Constraints.MaxTrainsets, views), snapshot)
		if err != nil {
			s.logger.Warn("optimization rejected",
				zap.String("algorithm", string(algorithm)), zap.Error(err))
			continue
		}
		if !result.Completed() {
			s.logger.Warn("optimization failed",
				zap.String("algorithm", string(algorithm)),
				zap.String("reason", result.FailureReason))
			continue
		}
		if best == nil || result.Score > best.Score {
			r := result
			best = &r
		}
	}

	if best == nil {
		return nil, fmt.Errorf("all optimization algorithms failed for %s schedule", request.Type)
	}
	return best, nil
}

func (s *Scheduler) optimizationRequest(request ScheduleRequest, algorithm optimizer.Algorithm, maxPositions int, views map[string]models.HealthView) optimizer.OptimizationRequest {
	if maxPositions < 1 {
		maxPositions = 1
	}
	if maxPositions > s.cfg.MaxPositions {
		maxPositions = s.cfg.MaxPositions
	}
	return optimizer.OptimizationRequest{
		Algorithm:      algorithm,
		MaxPositions:   maxPositions,
		TimeoutSeconds: s.cfg.TimeoutSeconds,
		Constraints:    request.Constraints,
		FromScheduler:  true,
		Health:         views,
	}
}

// route applies the confidence policy: auto-execute, ask for approval,
// or discard.
func (s *Scheduler) route(ctx context.Context, schedule *GeneratedSchedule) {
	confidence, autoExec := s.Thresholds()

	switch {
	case schedule.Confidence >= autoExec:
		schedule.Status = ScheduleAutoExecuted
		s.executeSchedule(ctx, schedule)
	case schedule.Confidence >= confidence:
		schedule.Status = ScheduleAwaitingApproval
		s.requestApproval(ctx, schedule)
	default:
		schedule.Status = ScheduleDiscarded
		s.logger.Info("schedule discarded below confidence threshold",
			zap.String("id", schedule.ID),
			zap.Float64("confidence", schedule.Confidence),
			zap.Float64("threshold", confidence))
	}
}

// executeSchedule runs the execution plan: every assigned trainset is
// put in service, operations is notified, and the outcome is recorded.
func (s *Scheduler) executeSchedule(ctx context.Context, schedule *GeneratedSchedule) {
	failures := 0
	for _, id := range schedule.Assignment.TrainsetIDs() {
		meta := fleet.StatusMeta{
			Actor:     "intelligent-scheduler",
			Reason:    fmt.Sprintf("%s schedule %s", schedule.Type, schedule.ID),
			Timestamp: s.now(),
		}
		if err := s.writer.SetStatus(ctx, id, models.StatusInService, meta); err != nil {
			s.logger.Warn("status write failed during execution",
				zap.String("trainset", id), zap.Error(err))
			failures++
		}
	}

	if s.notifier != nil {
		if err := s.notifier.NotifyOperational(ctx,
			fmt.Sprintf("schedule %s executed", schedule.ID),
			fmt.Sprintf("%d trainsets inducted for %s service", len(schedule.Assignment), schedule.Type)); err != nil {
			s.logger.Warn("operational notification failed", zap.Error(err))
		}
	}

	success := 1.0
	if failures > 0 && failures == len(schedule.Assignment) {
		success = 0.0
	}
	s.recordExecution(*schedule, true, success)

	s.logger.Info("schedule auto-executed",
		zap.String("id", schedule.ID),
		zap.Int("trainsets", len(schedule.Assignment)),
		zap.Float64("confidence", schedule.Confidence))
}

func (s *Scheduler) requestApproval(ctx context.Context, schedule *GeneratedSchedule) {
	if s.notifier != nil {
		if err := s.notifier.RequestApproval(ctx,
			fmt.Sprintf("schedule %s requires approval", schedule.ID),
			fmt.Sprintf("%s schedule, %d trainsets, confidence %.2f, overall risk %.2f",
				schedule.Type, len(schedule.Assignment), schedule.Confidence,
				schedule.Risk["overall_risk"])); err != nil {
			s.logger.Warn("approval request failed", zap.Error(err))
		}
	}
	s.recordExecution(*schedule, false, 1.0)
	s.logger.Info("schedule awaiting approval",
		zap.String("id", schedule.ID),
		zap.Float64("confidence", schedule.Confidence))
}

// recordExecution appends to the performance ring and the feedback
// sink.
func (s *Scheduler) recordExecution(schedule GeneratedSchedule, autoExecuted bool, success float64) {
	entry := PerformanceEntry{
		ScheduleID:   schedule.ID,
		ExecutedAt:   s.now(),
		Confidence:   schedule.Confidence,
		AutoExecuted: autoExecuted,
		Success:      success,
	}

	s.mu.Lock()
	s.performance = append(s.performance, entry)
	if len(s.performance) > performanceRingCap {
		s.performance = s.performance[len(s.performance)-performanceRingCap:]
	}
	s.mu.Unlock()

	if s.sink == nil {
		return
	}
	record := feedback.OutcomeRecord{
		ScheduleID:     schedule.ID,
		Timestamp:      entry.ExecutedAt,
		TrainsetIDs:    schedule.Assignment.TrainsetIDs(),
		PlannedMetrics: schedule.Performance,
		ActualMetrics:  map[string]float64{"success": success},
		Kind:           feedback.KindScheduleOutcome,
		SuccessScore:   success,
	}
	if err := s.sink.Record(record); err != nil {
		s.logger.Warn("feedback record failed", zap.String("schedule", schedule.ID), zap.Error(err))
	}
}

func (s *Scheduler) store(schedule GeneratedSchedule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schedules = append(s.schedules, schedule)
	if len(s.schedules) > scheduleRingCap {
		s.schedules = s.schedules[len(s.schedules)-scheduleRingCap:]
	}
}

// Schedules returns a snapshot of the generated-schedule ring, newest
// last.
func (s *Scheduler) Schedules() []GeneratedSchedule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]GeneratedSchedule, len(s.schedules))
	copy(out, s.schedules)
	return out
}

// Thresholds returns the current adaptive thresholds.
func (s *Scheduler) Thresholds() (confidence, autoExec float64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.confidence, s.autoExec
}

func (s *Scheduler) views() map[string]models.HealthView {
	if s.health == nil {
		return nil
	}
	return s.health.Views()
}

// partitionEligible splits the available fleet into service-eligible
// trainsets and health exclusions.
func (s *Scheduler) partitionEligible(snapshot []models.Trainset, views map[string]models.HealthView) (eligible []models.Trainset, excluded []string) {
	for _, t := range snapshot {
		if t.Status != models.StatusAvailable {
			continue
		}
		if v, ok := views[t.ID]; ok && v.WorstStatus.NeedsExclusion() {
			excluded = append(excluded, t.ID)
			continue
		}
		eligible = append(eligible, t)
	}
	return eligible, excluded
}

// deriveScheduleType maps the calendar onto a service window. The
// night window covers early morning hours, so the maintenance window
// is only reachable through explicit requests.
func deriveScheduleType(now time.Time) ScheduleType {
	if isHoliday(now) {
		return TypeHoliday
	}
	wd := now.Weekday()
	if wd == time.Saturday || wd == time.Sunday {
		return TypeWeekend
	}

	hour := now.Hour()
	switch {
	case (hour >= 6 && hour < 10) || (hour >= 17 && hour < 21):
		return TypePeakHour
	case hour >= 22 || hour < 6:
		return TypeNightService
	case hour >= 1 && hour < 5:
		return TypeMaintenanceWindow
	default:
		return TypeOffPeak
	}
}

func derivePriority(t ScheduleType) Priority {
	switch t {
	case TypePeakHour:
		return PriorityPassengerComfort
	case TypeNightService:
		return PriorityEnergySavings
	case TypeMaintenanceWindow:
		return PriorityMaintenance
	case TypeOffPeak:
		return PriorityEfficiency
	default:
		return PriorityCostReduction
	}
}

func templateFor(t ScheduleType, now time.Time) Template {
	templates := Templates()
	switch t {
	case TypePeakHour:
		if now.Hour() < 12 {
			return templates["peak_morning"]
		}
		return templates["peak_evening"]
	case TypeNightService:
		return templates["night_service"]
	case TypeWeekend:
		return templates["weekend"]
	case TypeMaintenanceWindow:
		return templates["maintenance_window"]
	default:
		return templates["off_peak"]
	}
}

func windowDuration(t ScheduleType) time.Duration {
	switch t {
	case TypePeakHour:
		return 4 * time.Hour
	case TypeOffPeak:
		return 6 * time.Hour
	case TypeNightService:
		return 8 * time.Hour
	default:
		return 4 * time.Hour
	}
}

// predictDemand forecasts passengers for the hour from the calendar
// patterns. Sundays run below Saturdays.
func predictDemand(now time.Time) int {
	hour := now.Hour()

	var base float64
	switch {
	case isHoliday(now):
		base = holidayPattern[hour]
	case now.Weekday() == time.Saturday:
		base = weekendPattern[hour]
	case now.Weekday() == time.Sunday:
		base = weekendPattern[hour] * sundayDemandDiscount
	default:
		base = weekdayPattern[hour]
	}

	return int(base * capacityFactor * perTrainsetCapacity)
}

func isHoliday(now time.Time) bool {
	return (now.Month() == time.December && now.Day() == 25) ||
		(now.Month() == time.January && now.Day() == 1)
}

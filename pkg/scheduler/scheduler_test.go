package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/itzzomkar/NavYatra/pkg/feedback"
	"github.com/itzzomkar/NavYatra/pkg/fleet"
	"github.com/itzzomkar/NavYatra/pkg/models"
	"github.com/itzzomkar/NavYatra/pkg/optimizer"
)

type fakeReader struct {
	snapshot []models.Trainset
}

func (r *fakeReader) Snapshot(context.Context) ([]models.Trainset, error) {
	return r.snapshot, nil
}

type statusCall struct {
	trainsetID string
	status     models.TrainsetStatus
}

type fakeWriter struct {
	calls []statusCall
}

func (w *fakeWriter) SetStatus(_ context.Context, id string, status models.TrainsetStatus, _ fleet.StatusMeta) error {
	w.calls = append(w.calls, statusCall{id, status})
	return nil
}

type fakeNotifier struct {
	approvals   []string
	operational []string
}

func (n *fakeNotifier) RequestApproval(_ context.Context, subject, _ string) error {
	n.approvals = append(n.approvals, subject)
	return nil
}
func (n *fakeNotifier) NotifyOperational(_ context.Context, subject, _ string) error {
	n.operational = append(n.operational, subject)
	return nil
}
func (n *fakeNotifier) EmergencyAlert(context.Context, string, string) error { return nil }

type fakeSink struct {
	records []feedback.OutcomeRecord
}

func (s *fakeSink) Record(r feedback.OutcomeRecord) error {
	s.records = append(s.records, r)
	return nil
}

type fakeViews struct {
	views map[string]models.HealthView
}

func (v fakeViews) Views() map[string]models.HealthView { return v.views }

// failingExact delegates to a real optimizer but forces the exact
// driver to report failure.
type failingExact struct {
	inner Runner
}

func (f failingExact) Optimize(ctx context.Context, req optimizer.OptimizationRequest, snapshot []models.Trainset) (optimizer.OptimizationResult, error) {
	if req.Algorithm == optimizer.AlgorithmConstraint {
		return optimizer.OptimizationResult{
			Algorithm:     optimizer.AlgorithmConstraint,
			Status:        optimizer.StatusFailed,
			FailureReason: "injected solver fault",
		}, nil
	}
	return f.inner.Optimize(ctx, req, snapshot)
}

func availableTrainset(id string) models.Trainset {
	expiry := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)
	return models.Trainset{
		ID:               id,
		Number:           "KM-" + id,
		Status:           models.StatusAvailable,
		TotalMileage:     50000,
		FitnessValid:     true,
		FitnessExpiry:    &expiry,
		BrandingPriority: 2,
		ReliabilityScore: 0.9,
		EnergyEfficiency: 0.8,
	}
}

// mondayAt is 2026-08-24, a Monday.
func mondayAt(hour, minute int) time.Time {
	return time.Date(2026, 8, 24, hour, minute, 0, 0, time.UTC)
}

func newTestScheduler(snapshot []models.Trainset, views map[string]models.HealthView, now time.Time) (*Scheduler, *fakeWriter, *fakeNotifier, *fakeSink) {
	opt := optimizer.New(optimizer.DefaultConfig(), zap.NewNop())
	writer := &fakeWriter{}
	notifier := &fakeNotifier{}
	sink := &fakeSink{}
	s := New(DefaultConfig(), opt, &fakeReader{snapshot}, writer, notifier, sink,
		fakeViews{views}, fleet.StaticWeather{Condition: fleet.WeatherSunny}, zap.NewNop())
	s.now = func() time.Time { return now }
	return s, writer, notifier, sink
}

func TestDeriveScheduleType(t *testing.T) {
	cases := []struct {
		name string
		when time.Time
		want ScheduleType
	}{
		{"weekday morning peak", mondayAt(7, 0), TypePeakHour},
		{"weekday evening peak", mondayAt(18, 0), TypePeakHour},
		{"weekday midday", mondayAt(12, 0), TypeOffPeak},
		{"late night", mondayAt(23, 0), TypeNightService},
		{"early morning", mondayAt(3, 0), TypeNightService},
		{"saturday", time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC), TypeWeekend},
		{"sunday", time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC), TypeWeekend},
		{"christmas", time.Date(2026, 12, 25, 12, 0, 0, 0, time.UTC), TypeHoliday},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, deriveScheduleType(tc.when))
		})
	}
}

func TestPredictDemand(t *testing.T) {
	// Weekday 08:00 index 0.4 at 15 trainsets of 1000 passengers.
	assert.Equal(t, 6000, predictDemand(mondayAt(8, 0)))
	// Saturday noon full index.
	assert.Equal(t, 15000, predictDemand(time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)))
	// Sunday runs at 80% of Saturday.
	assert.Equal(t, 12000, predictDemand(time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)))
}

func TestNeedsSchedulePredicate(t *testing.T) {
	s, _, _, _ := newTestScheduler(nil, nil, mondayAt(7, 0))

	healthy := []models.Trainset{availableTrainset("A"), availableTrainset("B")}

	cases := []struct {
		name string
		when time.Time
		want bool
	}{
		{"critical hour start", mondayAt(5, 5), true},
		{"critical hour late", mondayAt(5, 15), false},
		{"four hour cadence", mondayAt(8, 0), true},
		{"plain hour", mondayAt(7, 30), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, s.NeedsSchedule(tc.when, healthy, nil))
		})
	}
}

func TestNeedsScheduleEmergency(t *testing.T) {
	s, _, _, _ := newTestScheduler(nil, nil, mondayAt(7, 30))
	now := mondayAt(7, 30)

	// Expired fitness on an available trainset always triggers.
	expired := availableTrainset("X")
	past := now.Add(-48 * time.Hour)
	expired.FitnessExpiry = &past
	assert.True(t, s.NeedsSchedule(now, []models.Trainset{expired, availableTrainset("Y")}, nil))

	// Over 20% of the available fleet in poor or critical health.
	snapshot := []models.Trainset{
		availableTrainset("A"), availableTrainset("B"),
		availableTrainset("C"), availableTrainset("D"),
	}
	views := map[string]models.HealthView{
		"A": {WorstStatus: models.HealthCritical},
		"B": {WorstStatus: models.HealthPoor},
	}
	assert.True(t, s.NeedsSchedule(now, snapshot, views))

	// Exactly 20% does not trigger.
	fifth := []models.Trainset{
		availableTrainset("A"), availableTrainset("B"), availableTrainset("C"),
		availableTrainset("D"), availableTrainset("E"),
	}
	oneCritical := map[string]models.HealthView{"A": {WorstStatus: models.HealthCritical}}
	assert.False(t, s.NeedsSchedule(now, fifth, oneCritical))
}

func TestPeakHourGenerationAutoExecutes(t *testing.T) {
	now := mondayAt(7, 2)

	snapshot := make([]models.Trainset, 0, 20)
	views := map[string]models.HealthView{}
	for i := 0; i < 15; i++ {
		id := string(rune('A' + i))
		snapshot = append(snapshot, availableTrainset(id))
		if i < 2 {
			views[id] = models.HealthView{
				WorstStatus:          models.HealthCritical,
				MaintenanceUrgency:   0.9,
				HealthScore:          0.2,
				PredictedReliability: 0.3,
			}
		}
	}
	for i := 0; i < 5; i++ {
		t1 := availableTrainset(string(rune('a' + i)))
		t1.Status = models.StatusMaintenance
		snapshot = append(snapshot, t1)
	}

	s, writer, _, sink := newTestScheduler(snapshot, views, now)

	request := s.ComposeRequest(context.Background(), now, snapshot, views)
	assert.Equal(t, TypePeakHour, request.Type)
	assert.Len(t, request.Exclusions, 2)
	assert.Len(t, request.EligibleIDs, 13)
	assert.Equal(t, 18, request.Constraints.MinTrainsets) // peak_morning floor
	assert.Equal(t, 13, request.Constraints.MaxTrainsets)

	require.NoError(t, s.GenerateNow(context.Background()))

	schedules := s.Schedules()
	require.Len(t, schedules, 1)
	schedule := schedules[0]

	confidence, _ := s.Thresholds()
	assert.GreaterOrEqual(t, schedule.Confidence, confidence)
	assert.Equal(t, ScheduleAutoExecuted, schedule.Status)
	assert.Len(t, schedule.Assignment, 13)

	// Every assigned trainset is put in service exactly once.
	assert.Len(t, writer.calls, 13)
	for _, call := range writer.calls {
		assert.Equal(t, models.StatusInService, call.status)
		assert.NotContains(t, request.Exclusions, call.trainsetID)
	}

	require.Len(t, sink.records, 1)
	assert.InDelta(t, 1.0, sink.records[0].SuccessScore, 1e-9)
	assert.Len(t, schedule.ExecutionPlan, 5)
}

func TestFallbackWhenExactDriverFails(t *testing.T) {
	now := mondayAt(7, 2)
	snapshot := make([]models.Trainset, 10)
	for i := range snapshot {
		snapshot[i] = availableTrainset(string(rune('A' + i)))
	}

	s, _, _, _ := newTestScheduler(snapshot, nil, now)
	s.opt = failingExact{inner: s.opt}

	require.NoError(t, s.GenerateNow(context.Background()))

	schedules := s.Schedules()
	require.Len(t, schedules, 1)
	assert.Contains(t,
		[]optimizer.Algorithm{optimizer.AlgorithmGenetic, optimizer.AlgorithmAnnealing},
		schedules[0].Algorithm)
}

func TestLowConfidenceScheduleDiscarded(t *testing.T) {
	now := mondayAt(3, 0) // night window, tiny fleet, stormy weather
	snapshot := []models.Trainset{availableTrainset("A"), availableTrainset("B")}

	s, writer, notifier, _ := newTestScheduler(snapshot, nil, now)
	s.weather = fleet.StaticWeather{Condition: fleet.WeatherStormy}

	require.NoError(t, s.GenerateNow(context.Background()))

	schedules := s.Schedules()
	require.Len(t, schedules, 1)
	assert.Equal(t, ScheduleDiscarded, schedules[0].Status)
	assert.Empty(t, writer.calls)
	assert.Empty(t, notifier.approvals)
	assert.Empty(t, notifier.operational)
}

func TestAdaptiveThresholdsLoosenOnSuccess(t *testing.T) {
	s, _, _, _ := newTestScheduler(nil, nil, mondayAt(7, 0))

	entries := make([]PerformanceEntry, 20)
	for i := range entries {
		entries[i] = PerformanceEntry{ScheduleID: "s", Success: 1.0, Confidence: 0.9}
	}
	s.SeedPerformance(entries)

	s.AdaptThresholds()
	confidence, autoExec := s.Thresholds()
	assert.InDelta(t, 0.74, confidence, 1e-9)
	assert.InDelta(t, 0.84, autoExec, 1e-9)
}

func TestAdaptiveThresholdsTightenOnFailure(t *testing.T) {
	s, _, _, _ := newTestScheduler(nil, nil, mondayAt(7, 0))

	entries := make([]PerformanceEntry, 20)
	for i := range entries {
		entries[i] = PerformanceEntry{ScheduleID: "s", Success: 0.0, Confidence: 0.7}
	}
	s.SeedPerformance(entries)

	s.AdaptThresholds()
	confidence, autoExec := s.Thresholds()
	assert.InDelta(t, 0.76, confidence, 1e-9)
	assert.InDelta(t, 0.86, autoExec, 1e-9)
}

func TestAdaptiveThresholdsStayBounded(t *testing.T) {
	s, _, _, _ := newTestScheduler(nil, nil, mondayAt(7, 0))

	entries := make([]PerformanceEntry, 20)
	for i := range entries {
		entries[i] = PerformanceEntry{ScheduleID: "s", Success: 1.0}
	}
	s.SeedPerformance(entries)

	for i := 0; i < 50; i++ {
		s.AdaptThresholds()
	}
	confidence, autoExec := s.Thresholds()
	assert.GreaterOrEqual(t, confidence, 0.70)
	assert.GreaterOrEqual(t, autoExec, 0.80)

	for i := range entries {
		entries[i].Success = 0.0
	}
	s.SeedPerformance(entries)
	for i := 0; i < 50; i++ {
		s.AdaptThresholds()
	}
	confidence, autoExec = s.Thresholds()
	assert.LessOrEqual(t, confidence, 0.85)
	assert.LessOrEqual(t, autoExec, 0.95)
}

func TestScheduleRingBounded(t *testing.T) {
	s, _, _, _ := newTestScheduler(nil, nil, mondayAt(7, 0))
	for i := 0; i < scheduleRingCap+25; i++ {
		s.store(GeneratedSchedule{ID: "s"})
	}
	assert.Len(t, s.Schedules(), scheduleRingCap)
}

func TestCurrentStatusReflectsHistory(t *testing.T) {
	s, _, _, _ := newTestScheduler(nil, nil, mondayAt(7, 0))

	status := s.CurrentStatus()
	assert.InDelta(t, 0.75, status.ConfidenceThreshold, 1e-9)
	assert.Zero(t, status.GeneratedCount)
	assert.Nil(t, status.LastGeneratedAt)

	s.SeedPerformance([]PerformanceEntry{
		{ScheduleID: "a", Confidence: 0.8, AutoExecuted: true, Success: 1.0},
		{ScheduleID: "b", Confidence: 0.9, AutoExecuted: false, Success: 1.0},
	})
	s.store(GeneratedSchedule{ID: "a", GeneratedAt: mondayAt(7, 0)})

	status = s.CurrentStatus()
	assert.Equal(t, 1, status.GeneratedCount)
	assert.InDelta(t, 0.85, status.AverageConfidence, 1e-9)
	assert.InDelta(t, 0.5, status.AutoExecutionRate, 1e-9)
	require.NotNil(t, status.LastGeneratedAt)
}

package decision

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
	meta       fleet.StatusMeta
}

type fakeWriter struct {
	calls []statusCall
	err   error
}

func (w *fakeWriter) SetStatus(_ context.Context, id string, status models.TrainsetStatus, meta fleet.StatusMeta) error {
	if w.err != nil {
		return w.err
	}
	w.calls = append(w.calls, statusCall{id, status, meta})
	return nil
}

type fakeNotifier struct {
	alerts []string
}

func (n *fakeNotifier) RequestApproval(context.Context, string, string) error { return nil }
func (n *fakeNotifier) NotifyOperational(context.Context, string, string) error {
	return nil
}
func (n *fakeNotifier) EmergencyAlert(_ context.Context, subject, _ string) error {
	n.alerts = append(n.alerts, subject)
	return nil
}

type fakeSink struct {
	records []feedback.OutcomeRecord
}

func (s *fakeSink) Record(r feedback.OutcomeRecord) error {
	s.records = append(s.records, r)
	return nil
}

type fakePredictor struct {
	probability float64
}

func (p fakePredictor) Predict(map[string]float64) map[string]float64 {
	return map[string]float64{feedback.PredictSuccessProbability: p.probability}
}

func testEngine(snapshot []models.Trainset, now time.Time) (*Engine, *fakeWriter, *fakeNotifier, *fakeSink) {
	writer := &fakeWriter{}
	notifier := &fakeNotifier{}
	sink := &fakeSink{}
	e := NewEngine(DefaultConfig(), &fakeReader{snapshot}, writer, notifier, sink,
		fakePredictor{0.9}, zap.NewNop())
	e.now = func() time.Time { return now }
	return e, writer, notifier, sink
}

func at(hour, minute int) time.Time {
	return time.Date(2026, 8, 24, hour, minute, 0, 0, time.UTC) // a Monday
}

func fitTrainset(id string) models.Trainset {
	expiry := at(12, 0).Add(90 * 24 * time.Hour)
	return models.Trainset{
		ID:           id,
		Number:       "KM-" + id,
		Status:       models.StatusAvailable,
		TotalMileage: 50000,
		FitnessValid: true,
		FitnessExpiry: &expiry,
		BrandingPriority: 2,
		EnergyEfficiency: 0.8,
	}
}

func TestEmergencyRuleWithdrawsExpiredFitness(t *testing.T) {
	now := at(12, 0)
	expired := fitTrainset("TS001")
	yesterday := now.Add(-24 * time.Hour)
	expired.FitnessExpiry = &yesterday

	e, writer, notifier, sink := testEngine([]models.Trainset{expired, fitTrainset("TS002")}, now)

	require.NoError(t, e.EvaluateOnce(context.Background()))
	active := e.Active()
	require.Len(t, active, 1)

	d := active[0]
	assert.Equal(t, TypeEmergencyResponse, d.Type)
	assert.Equal(t, UrgencyCritical, d.Urgency)
	assert.InDelta(t, 1.0, d.Confidence, 1e-9)
	assert.Equal(t, []string{"TS001"}, d.TrainsetIDs)
	assert.False(t, d.RequiresApproval)
	require.NotNil(t, d.Deadline)
	assert.Equal(t, at(12, 5), *d.Deadline)

	e.ExecuteReady(context.Background())
	require.Len(t, writer.calls, 1)
	assert.Equal(t, "TS001", writer.calls[0].trainsetID)
	assert.Equal(t, models.StatusOutOfOrder, writer.calls[0].status)
	assert.Len(t, notifier.alerts, 1)

	assert.Empty(t, e.Active())
	history := e.History()
	require.Len(t, history, 1)
	assert.True(t, history[0].Success)
	require.Len(t, sink.records, 1)
	assert.InDelta(t, 1.0, sink.records[0].SuccessScore, 1e-9)
}

func TestEmergencyRuleSkipsAlreadyWithdrawn(t *testing.T) {
	now := at(12, 0)
	down := fitTrainset("TS001")
	yesterday := now.Add(-24 * time.Hour)
	down.FitnessExpiry = &yesterday
	down.Status = models.StatusOutOfOrder

	e, _, _, _ := testEngine([]models.Trainset{down}, now)
	require.NoError(t, e.EvaluateOnce(context.Background()))
	assert.Empty(t, e.Active())
}

func TestEvaluateDoesNotDuplicateActiveDecisions(t *testing.T) {
	now := at(12, 0)
	expired := fitTrainset("TS001")
	yesterday := now.Add(-24 * time.Hour)
	expired.FitnessExpiry = &yesterday

	e, _, _, _ := testEngine([]models.Trainset{expired}, now)
	require.NoError(t, e.EvaluateOnce(context.Background()))
	require.NoError(t, e.EvaluateOnce(context.Background()))
	assert.Len(t, e.Active(), 1)
}

func TestCleaningRotationAtNightWindow(t *testing.T) {
	now := at(22, 5)
	fleet := make([]models.Trainset, 8)
	for i := range fleet {
		ts := fitTrainset(string(rune('A' + i)))
		if i > 1 {
			cleaned := now.Add(-time.Duration(i) * time.Hour)
			ts.LastCleaningDate = &cleaned
		}
		fleet[i] = ts
	}

	e, writer, _, _ := testEngine(fleet, now)
	require.NoError(t, e.EvaluateOnce(context.Background()))

	active := e.Active()
	require.Len(t, active, 1)
	d := active[0]
	assert.Equal(t, TypeCleaningSchedule, d.Type)
	assert.Equal(t, UrgencyMedium, d.Urgency)
	// ceil(8/4) = 2, and the never-cleaned pair goes first.
	require.Len(t, d.TrainsetIDs, 2)
	assert.ElementsMatch(t, []string{"A", "B"}, d.TrainsetIDs)
	assert.False(t, d.RequiresApproval)
	require.NotNil(t, d.Deadline)
	assert.Equal(t, at(22, 35), *d.Deadline)

	e.ExecuteReady(context.Background())
	require.Len(t, writer.calls, 2)
	for _, call := range writer.calls {
		assert.Equal(t, models.StatusCleaning, call.status)
	}
}

func TestCleaningRuleNeedsSixAvailable(t *testing.T) {
	now := at(22, 5)
	fleet := []models.Trainset{
		fitTrainset("A"), fitTrainset("B"), fitTrainset("C"),
		fitTrainset("D"), fitTrainset("E"),
	}
	e, _, _, _ := testEngine(fleet, now)
	require.NoError(t, e.EvaluateOnce(context.Background()))
	assert.Empty(t, e.Active())
}

func TestMaintenanceRuleUrgencyAndApproval(t *testing.T) {
	now := at(9, 0)

	soon := fitTrainset("SOON")
	dueSoon := now.Add(18 * time.Hour)
	soon.NextMaintenanceDate = &dueSoon

	later := fitTrainset("LATER")
	dueLater := now.Add(60 * time.Hour)
	later.NextMaintenanceDate = &dueLater

	unknown := fitTrainset("NONE")

	far := fitTrainset("FAR")
	dueFar := now.Add(10 * 24 * time.Hour)
	far.NextMaintenanceDate = &dueFar

	e, _, _, _ := testEngine([]models.Trainset{soon, later, unknown, far}, now)
	require.NoError(t, e.EvaluateOnce(context.Background()))

	active := e.Active()
	require.Len(t, active, 2)

	byID := map[string]Decision{}
	for _, d := range active {
		byID[d.TrainsetIDs[0]] = d
	}

	require.Contains(t, byID, "SOON")
	assert.Equal(t, UrgencyHigh, byID["SOON"].Urgency)
	assert.True(t, byID["SOON"].RequiresApproval)

	require.Contains(t, byID, "LATER")
	assert.Equal(t, UrgencyMedium, byID["LATER"].Urgency)
	assert.False(t, byID["LATER"].RequiresApproval)
}

func TestApprovalGatesExecution(t *testing.T) {
	now := at(9, 0)
	ts := fitTrainset("TS010")
	due := now.Add(12 * time.Hour)
	ts.NextMaintenanceDate = &due

	e, writer, _, _ := testEngine([]models.Trainset{ts}, now)
	require.NoError(t, e.EvaluateOnce(context.Background()))
	active := e.Active()
	require.Len(t, active, 1)
	require.True(t, active[0].RequiresApproval)

	e.ExecuteReady(context.Background())
	assert.Empty(t, writer.calls)
	assert.Len(t, e.Active(), 1)

	require.True(t, e.Approve(active[0].ID, "supervisor"))
	e.ExecuteReady(context.Background())
	require.Len(t, writer.calls, 1)
	assert.Equal(t, models.StatusMaintenance, writer.calls[0].status)
	assert.Empty(t, e.Active())
}

func TestExpiredDecisionsDroppedWithoutExecution(t *testing.T) {
	now := at(12, 0)
	e, writer, _, sink := testEngine(nil, now)

	past := now.Add(-time.Minute)
	e.active["stale"] = &Decision{
		ID:       "stale",
		Type:     TypeMaintenance,
		Action:   ScheduleMaintenanceAction{TrainsetID: "TS01"},
		Deadline: &past,
	}

	e.ExecuteReady(context.Background())
	assert.Empty(t, writer.calls)
	assert.Empty(t, e.Active())
	assert.Empty(t, sink.records)
	assert.Empty(t, e.History())
}

func TestScheduleOptimizationRule(t *testing.T) {
	cases := []struct {
		name        string
		now         time.Time
		probability float64
		want        int
	}{
		{"fires in window with confident model", at(6, 2), 0.9, 1},
		{"skipped below threshold", at(6, 2), 0.5, 0},
		{"skipped outside window hour", at(7, 2), 0.9, 0},
		{"skipped past five minutes", at(6, 7), 0.9, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e, _, _, _ := testEngine([]models.Trainset{fitTrainset("A"), fitTrainset("B")}, tc.now)
			e.predictor = fakePredictor{tc.probability}

			require.NoError(t, e.EvaluateOnce(context.Background()))
			active := e.Active()
			require.Len(t, active, tc.want)

			if tc.want == 1 {
				d := active[0]
				assert.Equal(t, TypeScheduleOptimization, d.Type)
				assert.Equal(t, UrgencyHigh, d.Urgency)
				assert.False(t, d.RequiresApproval)
				assert.InDelta(t, tc.probability, d.Confidence, 1e-9)
				require.NotNil(t, d.Deadline)
				assert.Equal(t, tc.now.Add(15*time.Minute), *d.Deadline)
			}
		})
	}
}

func TestAutonomyCeilingForcesApproval(t *testing.T) {
	now := at(22, 5)
	cfg := DefaultConfig()
	cfg.MaxAutonomousTrainsets = 1

	fleetList := make([]models.Trainset, 8)
	for i := range fleetList {
		fleetList[i] = fitTrainset(string(rune('A' + i)))
	}

	e := NewEngine(cfg, &fakeReader{fleetList}, &fakeWriter{}, &fakeNotifier{}, &fakeSink{},
		fakePredictor{0.9}, zap.NewNop())
	e.now = func() time.Time { return now }

	require.NoError(t, e.EvaluateOnce(context.Background()))
	active := e.Active()
	require.Len(t, active, 1)
	assert.Equal(t, TypeCleaningSchedule, active[0].Type)
	assert.True(t, active[0].RequiresApproval)
}

func TestSummarize(t *testing.T) {
	now := at(12, 0)
	expired := fitTrainset("TS001")
	yesterday := now.Add(-24 * time.Hour)
	expired.FitnessExpiry = &yesterday

	e, _, _, _ := testEngine([]models.Trainset{expired}, now)
	require.NoError(t, e.EvaluateOnce(context.Background()))

	s := e.Summarize()
	assert.Equal(t, 1, s.Active)
	assert.Equal(t, 1, s.ByType[TypeEmergencyResponse])
	assert.Equal(t, 1, s.ByUrgency[UrgencyCritical])
	assert.Zero(t, s.AwaitingApproval)

	e.ExecuteReady(context.Background())
	s = e.Summarize()
	assert.Zero(t, s.Active)
	assert.Equal(t, 1, s.HistorySize)
	assert.InDelta(t, 1.0, s.RecentSuccess, 1e-9)
}

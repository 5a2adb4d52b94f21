package health

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/itzzomkar/NavYatra/pkg/models"
)

type stubModel struct {
	fitted bool
	prob   float64
	rul    float64
}

func (m stubModel) Fitted() bool { return m.fitted }
func (m stubModel) Predict([]float64) (float64, float64) {
	return m.prob, m.rul
}

type stubDetector struct {
	fitted  bool
	score   float64
	outlier bool
}

func (d stubDetector) Fitted() bool { return d.fitted }
func (d stubDetector) Score([]float64) (float64, bool) {
	return d.score, d.outlier
}

func feedSamples(a *Assessor, id string, n int, mutate func(*TelemetrySample)) {
	for i := 0; i < n; i++ {
		s := TelemetrySample{
			TrainsetID:     id,
			Timestamp:      time.Now().Add(-time.Duration(n-i) * time.Minute),
			EngineTempC:    70,
			BrakePressure:  0.9,
			BatteryVoltage: 12.8,
		}
		if mutate != nil {
			mutate(&s)
		}
		a.Ingest(s)
	}
}

func findComponent(t *testing.T, predictions []Prediction, c Component) Prediction {
	t.Helper()
	for _, p := range predictions {
		if p.Component == c {
			return p
		}
	}
	t.Fatalf("component %s missing from predictions", c)
	return Prediction{}
}

func TestAssessNeedsMinimumSamples(t *testing.T) {
	a := NewAssessor(zap.NewNop())
	feedSamples(a, "TS01", 4, nil)
	assert.Nil(t, a.Assess("TS01"))

	feedSamples(a, "TS01", 1, nil)
	assert.Len(t, a.Assess("TS01"), len(Components()))
}

func TestRuleThresholds(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*TelemetrySample)
		component Component
		status  models.HealthStatus
		urgency float64
		rul     int
	}{
		{"hot engine poor", func(s *TelemetrySample) { s.EngineTempC = 95 },
			ComponentEngine, models.HealthPoor, 0.8, 7},
		{"warm engine fair", func(s *TelemetrySample) { s.EngineTempC = 85 },
			ComponentEngine, models.HealthFair, 0.5, 14},
		{"low brake pressure", func(s *TelemetrySample) { s.BrakePressure = 0.6 },
			ComponentBrakes, models.HealthPoor, 0.9, 3},
		{"battery critical", func(s *TelemetrySample) { s.BatteryVoltage = 11.2 },
			ComponentBattery, models.HealthCritical, 1.0, 1},
		{"battery poor", func(s *TelemetrySample) { s.BatteryVoltage = 11.8 },
			ComponentBattery, models.HealthPoor, 0.7, 5},
		{"failure code critical", func(s *TelemetrySample) {
			s.FailureCodes = map[Component]string{ComponentDoors: "D-114"}
		}, ComponentDoors, models.HealthCritical, 1.0, 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := NewAssessor(zap.NewNop())
			feedSamples(a, "TS02", 6, tc.mutate)
			predictions := a.Assess("TS02")
			require.Len(t, predictions, len(Components()))

			p := findComponent(t, predictions, tc.component)
			assert.Equal(t, tc.status, p.Status)
			assert.InDelta(t, tc.urgency, p.Urgency, 1e-9)
			assert.Equal(t, tc.rul, p.RULDays)
			assert.InDelta(t, 0.6, p.Confidence, 1e-9)
		})
	}
}

func TestPredictionsSortedByUrgency(t *testing.T) {
	a := NewAssessor(zap.NewNop())
	feedSamples(a, "TS03", 6, func(s *TelemetrySample) {
		s.BrakePressure = 0.5
		s.EngineTempC = 85
	})

	predictions := a.Assess("TS03")
	require.NotEmpty(t, predictions)
	assert.Equal(t, ComponentBrakes, predictions[0].Component)
	for i := 1; i < len(predictions); i++ {
		assert.GreaterOrEqual(t, predictions[i-1].Urgency, predictions[i].Urgency)
	}
}

func TestTrainedBackendCuts(t *testing.T) {
	cases := []struct {
		name    string
		model   stubModel
		detector stubDetector
		status  models.HealthStatus
	}{
		{"outlier is critical", stubModel{true, 0.1, 60}, stubDetector{true, -1.5, true}, models.HealthCritical},
		{"high probability critical", stubModel{true, 0.85, 60}, stubDetector{true, 0, false}, models.HealthCritical},
		{"short rul critical", stubModel{true, 0.1, 2}, stubDetector{true, 0, false}, models.HealthCritical},
		{"poor", stubModel{true, 0.65, 60}, stubDetector{true, 0, false}, models.HealthPoor},
		{"fair", stubModel{true, 0.45, 60}, stubDetector{true, 0, false}, models.HealthFair},
		{"good", stubModel{true, 0.25, 60}, stubDetector{true, 0, false}, models.HealthGood},
		{"excellent", stubModel{true, 0.05, 60}, stubDetector{true, 0, false}, models.HealthExcellent},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := NewAssessor(zap.NewNop())
			a.SetModel(ComponentEngine, tc.model, tc.detector)
			feedSamples(a, "TS04", 6, nil)

			p := findComponent(t, a.Assess("TS04"), ComponentEngine)
			assert.Equal(t, tc.status, p.Status)
			assert.GreaterOrEqual(t, p.Urgency, 0.0)
			assert.LessOrEqual(t, p.Urgency, 1.0)
		})
	}
}

func TestUnfittedModelFallsBackToRules(t *testing.T) {
	a := NewAssessor(zap.NewNop())
	a.SetModel(ComponentEngine, stubModel{fitted: false}, stubDetector{fitted: true})
	feedSamples(a, "TS05", 6, func(s *TelemetrySample) { s.EngineTempC = 95 })

	p := findComponent(t, a.Assess("TS05"), ComponentEngine)
	assert.Equal(t, models.HealthPoor, p.Status)
	assert.InDelta(t, 0.6, p.Confidence, 1e-9)
}

func TestRetentionEvictsOldSamples(t *testing.T) {
	a := NewAssessor(zap.NewNop())
	for i := 0; i < 10; i++ {
		a.Ingest(TelemetrySample{
			TrainsetID: "TS06",
			Timestamp:  time.Now().Add(-40 * 24 * time.Hour),
		})
	}
	// Only stale samples: everything evicted on the next ingest.
	a.Ingest(TelemetrySample{TrainsetID: "TS06", Timestamp: time.Now()})
	assert.Nil(t, a.Assess("TS06"))
}

func TestViewAggregatesWorstStatus(t *testing.T) {
	a := NewAssessor(zap.NewNop())
	feedSamples(a, "TS07", 6, func(s *TelemetrySample) { s.BatteryVoltage = 11.0 })
	a.Assess("TS07")

	view, ok := a.View("TS07")
	require.True(t, ok)
	assert.Equal(t, models.HealthCritical, view.WorstStatus)
	assert.InDelta(t, 1.0, view.MaintenanceUrgency, 1e-9)
	assert.Less(t, view.HealthScore, 1.0)

	_, ok = a.View("unknown")
	assert.False(t, ok)
}

func TestSummaryAndScheduleBuckets(t *testing.T) {
	a := NewAssessor(zap.NewNop())
	feedSamples(a, "healthy", 6, nil)
	feedSamples(a, "failing", 6, func(s *TelemetrySample) { s.BatteryVoltage = 11.0 })
	a.Assess("healthy")
	a.Assess("failing")

	summary := a.Summary()
	assert.Equal(t, 2, summary.Trainsets)
	assert.Equal(t, 1, summary.StatusDistribution[models.HealthCritical])
	assert.InDelta(t, 0.5, summary.AvailabilityEstimate, 1e-9)

	schedule := a.Schedule()
	require.NotEmpty(t, schedule.Buckets[BucketImmediate])
	immediate := schedule.Buckets[BucketImmediate][0]
	assert.Equal(t, ComponentBattery, immediate.Component)
	// Battery base cost 800 at the critical multiplier.
	assert.InDelta(t, 800*2.5, immediate.CostEstimate, 1e-9)
	assert.Greater(t, schedule.TotalCost, 0.0)
}

package feedback

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func outcome(id string, success float64, planned map[string]float64) OutcomeRecord {
	return OutcomeRecord{
		ScheduleID:     id,
		Timestamp:      time.Now(),
		TrainsetIDs:    []string{"TS01"},
		PlannedMetrics: planned,
		ActualMetrics:  map[string]float64{},
		Kind:           KindScheduleOutcome,
		SuccessScore:   success,
	}
}

func TestPredictDefaultsBeforeTraining(t *testing.T) {
	l := NewLoop(zap.NewNop())

	got := l.Predict(map[string]float64{FeatureHour: 6})
	assert.InDelta(t, 0.5, got[PredictSuccessProbability], 1e-9)
	assert.Zero(t, got[PredictMaintenanceHours])
	assert.Zero(t, got[PredictEnergyConsumption])
}

func TestMissingFeatureDefaults(t *testing.T) {
	x := featureVector(map[string]float64{FeatureHour: 10})
	assert.InDelta(t, 10, x[0], 1e-9)
	assert.InDelta(t, 0.5, x[5], 1e-9) // mileage balance default
	assert.InDelta(t, 0.1, x[9], 1e-9) // performance std default
	assert.Zero(t, x[1])
}

func TestModelLearnsSeparableOutcomes(t *testing.T) {
	l := NewLoop(zap.NewNop())

	// High maintenance score correlates with success, low with failure.
	for i := 0; i < 200; i++ {
		require.NoError(t, l.Record(outcome(fmt.Sprintf("good-%d", i), 1.0,
			map[string]float64{FeatureMaintenanceScore: 1.0})))
		require.NoError(t, l.Record(outcome(fmt.Sprintf("bad-%d", i), 0.0,
			map[string]float64{FeatureMaintenanceScore: -1.0})))
	}

	high := l.Predict(map[string]float64{FeatureMaintenanceScore: 1.0})
	low := l.Predict(map[string]float64{FeatureMaintenanceScore: -1.0})
	assert.Greater(t,
		high[PredictSuccessProbability],
		low[PredictSuccessProbability])
}

func TestHistoryRingBounded(t *testing.T) {
	l := NewLoop(zap.NewNop())
	for i := 0; i < historyCap+50; i++ {
		require.NoError(t, l.Record(outcome(fmt.Sprintf("s-%d", i), 1.0, nil)))
	}
	history := l.History()
	assert.Len(t, history, historyCap)
	assert.Equal(t, fmt.Sprintf("s-%d", historyCap+49), history[len(history)-1].ScheduleID)
}

func TestRecentSuccessRate(t *testing.T) {
	l := NewLoop(zap.NewNop())
	_, ok := l.RecentSuccessRate(20)
	assert.False(t, ok)

	for i := 0; i < 15; i++ {
		require.NoError(t, l.Record(outcome(fmt.Sprintf("f-%d", i), 0.0, nil)))
	}
	for i := 0; i < 5; i++ {
		require.NoError(t, l.Record(outcome(fmt.Sprintf("s-%d", i), 1.0, nil)))
	}

	rate, ok := l.RecentSuccessRate(5)
	require.True(t, ok)
	assert.InDelta(t, 1.0, rate, 1e-9)

	rate, ok = l.RecentSuccessRate(20)
	require.True(t, ok)
	assert.InDelta(t, 0.25, rate, 1e-9)
}

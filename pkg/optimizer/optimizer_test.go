package optimizer_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/itzzomkar/NavYatra/pkg/models"
	"github.com/itzzomkar/NavYatra/pkg/optimizer"
)

func availableTrainset(id string, mileage float64, branding int) models.Trainset {
	expiry := time.Now().Add(90 * 24 * time.Hour)
	return models.Trainset{
		ID:               id,
		Number:           "KM-" + id,
		Status:           models.StatusAvailable,
		TotalMileage:     mileage,
		CurrentMileage:   mileage,
		FitnessValid:     true,
		FitnessExpiry:    &expiry,
		BrandingPriority: branding,
		ReliabilityScore: 0.9,
		EnergyEfficiency: 0.8,
	}
}

func identicalFleet(n int) []models.Trainset {
	fleet := make([]models.Trainset, n)
	for i := range fleet {
		fleet[i] = availableTrainset(string(rune('A'+i)), 50000, 1)
	}
	return fleet
}

func TestExactAssignsLowestPositions(t *testing.T) {
	o := optimizer.New(optimizer.DefaultConfig(), zap.NewNop())
	fleet := identicalFleet(3)

	result, err := o.Optimize(context.Background(), optimizer.OptimizationRequest{
		Algorithm:      optimizer.AlgorithmConstraint,
		MaxPositions:   3,
		TimeoutSeconds: 5,
	}, fleet)

	require.NoError(t, err)
	require.Equal(t, optimizer.StatusCompleted, result.Status)
	require.Len(t, result.Assignment, 3)
	assert.Equal(t, []int{0, 1, 2}, result.Assignment.Positions())

	// Expected total derived from the scoring function itself: the three
	// trainsets are identical, so the optimum occupies positions 0..2.
	w := optimizer.DefaultWeights()
	mean := optimizer.FleetMeanMileage(fleet)
	expected := 0.0
	for pos := 0; pos < 3; pos++ {
		expected += optimizer.PairScore(fleet[0], pos, mean, w)
	}
	assert.InDelta(t, expected, result.Score, 1e-9)
}

func TestExactPrefersHighBrandingForLowPositions(t *testing.T) {
	o := optimizer.New(optimizer.DefaultConfig(), zap.NewNop())
	fleet := []models.Trainset{
		availableTrainset("low", 50000, 1),
		availableTrainset("high", 50000, 5),
	}

	// One position only: the high-branding trainset must win it.
	result, err := o.Optimize(context.Background(), optimizer.OptimizationRequest{
		Algorithm:      optimizer.AlgorithmConstraint,
		MaxPositions:   1,
		TimeoutSeconds: 5,
	}, fleet)

	require.NoError(t, err)
	require.Equal(t, optimizer.StatusCompleted, result.Status)
	require.Len(t, result.Assignment, 1)
	assert.Equal(t, 0, result.Assignment["high"])
}

func TestInfeasibleTrainsetsNeverAssigned(t *testing.T) {
	o := optimizer.New(optimizer.DefaultConfig(), zap.NewNop())

	unfit := availableTrainset("unfit", 50000, 3)
	unfit.FitnessValid = false
	busy := availableTrainset("busy", 50000, 3)
	busy.HasHighPriorityWork = true
	down := availableTrainset("down", 50000, 3)
	down.Status = models.StatusMaintenance
	ok := availableTrainset("ok", 50000, 3)

	fleet := []models.Trainset{unfit, busy, down, ok}

	for _, alg := range optimizer.Algorithms() {
		result, err := o.Optimize(context.Background(), optimizer.OptimizationRequest{
			Algorithm:      alg,
			MaxPositions:   4,
			TimeoutSeconds: 5,
			Parameters:     map[string]float64{"seed": 7, "generations": 50},
		}, fleet)

		require.NoError(t, err, alg)
		require.Equal(t, optimizer.StatusCompleted, result.Status, alg)
		assert.False(t, result.Assignment.Contains("unfit"), alg)
		assert.False(t, result.Assignment.Contains("busy"), alg)
		assert.False(t, result.Assignment.Contains("down"), alg)
		assert.NoError(t, result.Assignment.Validate(4), alg)
	}
}

func TestSchedulerHealthExclusion(t *testing.T) {
	o := optimizer.New(optimizer.DefaultConfig(), zap.NewNop())
	fleet := identicalFleet(3)

	health := map[string]models.HealthView{
		fleet[0].ID: {WorstStatus: models.HealthCritical},
		fleet[1].ID: {WorstStatus: models.HealthPoor},
		fleet[2].ID: {WorstStatus: models.HealthGood},
	}

	result, err := o.Optimize(context.Background(), optimizer.OptimizationRequest{
		Algorithm:      optimizer.AlgorithmConstraint,
		MaxPositions:   3,
		TimeoutSeconds: 5,
		FromScheduler:  true,
		Health:         health,
	}, fleet)

	require.NoError(t, err)
	require.Len(t, result.Assignment, 1)
	assert.True(t, result.Assignment.Contains(fleet[2].ID))

	// Without the scheduler flag the same health map is ignored.
	direct, err := o.Optimize(context.Background(), optimizer.OptimizationRequest{
		Algorithm:      optimizer.AlgorithmConstraint,
		MaxPositions:   3,
		TimeoutSeconds: 5,
		Health:         health,
	}, fleet)
	require.NoError(t, err)
	assert.Len(t, direct.Assignment, 3)
}

func TestMetaheuristicsDeterministicForFixedSeed(t *testing.T) {
	o := optimizer.New(optimizer.DefaultConfig(), zap.NewNop())
	fleet := []models.Trainset{
		availableTrainset("a", 42000, 2),
		availableTrainset("b", 55000, 4),
		availableTrainset("c", 61000, 1),
		availableTrainset("d", 48000, 5),
		availableTrainset("e", 50000, 3),
	}

	for _, alg := range []optimizer.Algorithm{optimizer.AlgorithmGenetic, optimizer.AlgorithmAnnealing} {
		req := optimizer.OptimizationRequest{
			Algorithm:      alg,
			MaxPositions:   5,
			TimeoutSeconds: 30,
			Parameters:     map[string]float64{"seed": 1234, "generations": 100, "max_iterations": 2000},
		}

		first, err := o.Optimize(context.Background(), req, fleet)
		require.NoError(t, err, alg)
		second, err := o.Optimize(context.Background(), req, fleet)
		require.NoError(t, err, alg)

		assert.Equal(t, first.Assignment, second.Assignment, alg)
		assert.Equal(t, first.Score, second.Score, alg)
	}
}

func TestScoringMonotonicity(t *testing.T) {
	w := optimizer.DefaultWeights()
	fleet := identicalFleet(3)
	mean := optimizer.FleetMeanMileage(fleet)
	byID := map[string]models.Trainset{
		fleet[0].ID: fleet[0],
		fleet[1].ID: fleet[1],
	}

	small := models.Assignment{fleet[0].ID: 0}
	larger := models.Assignment{fleet[0].ID: 0, fleet[1].ID: 1}

	require.Greater(t, optimizer.PairScore(fleet[1], 1, mean, w), 0.0)
	assert.Greater(t,
		optimizer.TotalScore(larger, byID, mean, w),
		optimizer.TotalScore(small, byID, mean, w))
}

func TestRequestValidation(t *testing.T) {
	o := optimizer.New(optimizer.DefaultConfig(), zap.NewNop())
	fleet := identicalFleet(2)

	cases := []struct {
		name  string
		req   optimizer.OptimizationRequest
		fleet []models.Trainset
	}{
		{"empty fleet", optimizer.OptimizationRequest{
			Algorithm: optimizer.AlgorithmConstraint, MaxPositions: 3, TimeoutSeconds: 5,
		}, nil},
		{"zero positions", optimizer.OptimizationRequest{
			Algorithm: optimizer.AlgorithmConstraint, MaxPositions: 0, TimeoutSeconds: 5,
		}, fleet},
		{"positions above ceiling", optimizer.OptimizationRequest{
			Algorithm: optimizer.AlgorithmConstraint, MaxPositions: 31, TimeoutSeconds: 5,
		}, fleet},
		{"unknown algorithm", optimizer.OptimizationRequest{
			Algorithm: "branch_and_bound", MaxPositions: 3, TimeoutSeconds: 5,
		}, fleet},
		{"timeout below floor", optimizer.OptimizationRequest{
			Algorithm: optimizer.AlgorithmConstraint, MaxPositions: 3, TimeoutSeconds: 1,
		}, fleet},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := o.Optimize(context.Background(), tc.req, tc.fleet)
			require.Error(t, err)
		})
	}
}

func TestReasoningMentionsMileageAndPosition(t *testing.T) {
	o := optimizer.New(optimizer.DefaultConfig(), zap.NewNop())
	fleet := []models.Trainset{
		availableTrainset("fresh", 10000, 4),
		availableTrainset("worn", 90000, 1),
	}

	result, err := o.Optimize(context.Background(), optimizer.OptimizationRequest{
		Algorithm:      optimizer.AlgorithmConstraint,
		MaxPositions:   2,
		TimeoutSeconds: 5,
	}, fleet)
	require.NoError(t, err)
	require.Len(t, result.Reasoning, 2)

	assert.Contains(t, result.Reasoning["fresh"], "low mileage, good for service")
	assert.Contains(t, result.Reasoning["worn"], "high mileage, consider maintenance")
	assert.Contains(t, result.Reasoning["fresh"], "assigned position")
	assert.Contains(t, result.Reasoning["fresh"], "high branding priority (4)")
}

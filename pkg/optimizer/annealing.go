package optimizer

import (
	"context"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/itzzomkar/NavYatra/pkg/models"
)

// Annealing driver defaults. Overridable through request parameters.
const (
	defaultInitialTemp   = 100.0
	defaultCoolingRate   = 0.95
	defaultMinTemp       = 0.01
	defaultMaxIterations = 10000
)

// runAnnealing performs simulated annealing over the neighborhood
// {swap two trainsets' positions, move one trainset to a free slot}.
// Candidates are built only from eligible trainsets.
func runAnnealing(ctx context.Context, req OptimizationRequest, eligible []models.Trainset, fleetMean float64, w Weights, rng *rand.Rand) OptimizationResult {
	started := time.Now()

	if len(eligible) == 0 {
		return failedResult(AlgorithmAnnealing, started, "no eligible trainsets")
	}

	temp := req.Param("initial_temperature", defaultInitialTemp)
	cooling := req.Param("cooling_rate", defaultCoolingRate)
	minTemp := req.Param("min_temperature", defaultMinTemp)
	maxIter := int(req.Param("max_iterations", defaultMaxIterations))

	byID := fleetIndex(eligible)
	positions := req.MaxPositions

	current := randomAssignment(eligible, positions, defaultAssignProb, rng)
	currentScore := TotalScore(current, byID, fleetMean, w)

	best := current.Clone()
	bestScore := currentScore

	for iter := 0; iter < maxIter && temp > minTemp; iter++ {
		if iter%256 == 0 && ctx.Err() != nil {
			break // deadline hit, keep best-so-far
		}

		neighbor := neighborOf(current, positions, rng)
		neighborScore := TotalScore(neighbor, byID, fleetMean, w)

		delta := neighborScore - currentScore
		if delta > 0 || rng.Float64() < math.Exp(delta/temp) {
			current = neighbor
			currentScore = neighborScore
		}
		if currentScore > bestScore {
			best = current.Clone()
			bestScore = currentScore
		}

		temp *= cooling
	}

	return OptimizationResult{
		Assignment:    best,
		Score:         bestScore,
		Algorithm:     AlgorithmAnnealing,
		ExecutionTime: time.Since(started),
		Status:        StatusCompleted,
	}
}

// neighborOf returns a mutated copy of the assignment using one of the
// two neighborhood operators with equal probability.
func neighborOf(a models.Assignment, positions int, rng *rand.Rand) models.Assignment {
	out := a.Clone()
	if len(out) == 0 {
		return out
	}

	ids := make([]string, 0, len(out))
	taken := make(map[int]bool, len(out))
	for id, pos := range out {
		ids = append(ids, id)
		taken[pos] = true
	}
	sort.Strings(ids)

	if rng.Intn(2) == 0 && len(ids) >= 2 {
		// Swap two trainsets' positions.
		i := rng.Intn(len(ids))
		j := rng.Intn(len(ids))
		out[ids[i]], out[ids[j]] = out[ids[j]], out[ids[i]]
		return out
	}

	// Move one trainset to a free position.
	free := make([]int, 0, positions-len(out))
	for j := 0; j < positions; j++ {
		if !taken[j] {
			free = append(free, j)
		}
	}
	if len(free) == 0 {
		return out
	}
	out[ids[rng.Intn(len(ids))]] = free[rng.Intn(len(free))]
	return out
}

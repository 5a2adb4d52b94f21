package optimizer

import (
	"context"
	"math/rand"
	"sort"
	"time"

	"github.com/itzzomkar/NavYatra/pkg/models"
)

// Genetic driver defaults. Overridable through request parameters.
const (
	defaultPopulationSize = 100
	defaultGenerations    = 1000
	defaultMutationRate   = 0.1
	defaultAssignProb     = 0.7
	eliteDivisor          = 10
	parentPoolFraction    = 0.2
)

// runGenetic evolves a population of partial injective assignments.
// Individuals only ever contain eligible trainsets, so no candidate is
// infeasible at any point of the search.
func runGenetic(ctx context.Context, req OptimizationRequest, eligible []models.Trainset, fleetMean float64, w Weights, rng *rand.Rand) OptimizationResult {
	started := time.Now()

	if len(eligible) == 0 {
		return failedResult(AlgorithmGenetic, started, "no eligible trainsets")
	}

	popSize := int(req.Param("population_size", defaultPopulationSize))
	generations := int(req.Param("generations", defaultGenerations))
	mutationRate := req.Param("mutation_rate", defaultMutationRate)
	if popSize < 2 {
		popSize = 2
	}

	byID := fleetIndex(eligible)
	positions := req.MaxPositions

	population := make([]models.Assignment, popSize)
	for i := range population {
		population[i] = randomAssignment(eligible, positions, defaultAssignProb, rng)
	}

	var best models.Assignment
	bestScore := 0.0

	type scored struct {
		individual models.Assignment
		score      float64
	}

	for gen := 0; gen < generations; gen++ {
		if ctx.Err() != nil {
			break // deadline hit, keep best-so-far
		}

		ranked := make([]scored, popSize)
		for i, ind := range population {
			ranked[i] = scored{ind, TotalScore(ind, byID, fleetMean, w)}
		}
		sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

		if ranked[0].score > bestScore || best == nil {
			best = ranked[0].individual.Clone()
			bestScore = ranked[0].score
		}

		eliteCount := popSize / eliteDivisor
		if eliteCount < 1 {
			eliteCount = 1
		}
		parentPool := int(float64(popSize) * parentPoolFraction)
		if parentPool < 2 {
			parentPool = 2
		}

		next := make([]models.Assignment, 0, popSize)
		for i := 0; i < eliteCount; i++ {
			next = append(next, ranked[i].individual)
		}
		for len(next) < popSize {
			p1 := ranked[rng.Intn(parentPool)].individual
			p2 := ranked[rng.Intn(parentPool)].individual
			child := crossover(eligible, p1, p2, rng)
			if rng.Float64() < mutationRate {
				mutate(child, positions, rng)
			}
			next = append(next, child)
		}
		population = next
	}

	return OptimizationResult{
		Assignment:    best,
		Score:         bestScore,
		Algorithm:     AlgorithmGenetic,
		ExecutionTime: time.Since(started),
		Status:        StatusCompleted,
	}
}

// randomAssignment builds one individual: each eligible trainset takes
// a uniformly random still-free position with the given probability.
func randomAssignment(eligible []models.Trainset, positions int, assignProb float64, rng *rand.Rand) models.Assignment {
	free := make([]int, positions)
	for j := range free {
		free[j] = j
	}
	out := make(models.Assignment, len(eligible))
	for _, t := range eligible {
		if len(free) == 0 {
			break
		}
		if rng.Float64() >= assignProb {
			continue
		}
		k := rng.Intn(len(free))
		out[t.ID] = free[k]
		free[k] = free[len(free)-1]
		free = free[:len(free)-1]
	}
	return out
}

// crossover inherits each trainset's position from either parent with
// equal probability, skipping positions already taken in the child.
func crossover(eligible []models.Trainset, p1, p2 models.Assignment, rng *rand.Rand) models.Assignment {
	child := make(models.Assignment, len(p1))
	taken := make(map[int]bool, len(p1))
	for _, t := range eligible {
		src := p1
		if rng.Float64() < 0.5 {
			src = p2
		}
		pos, ok := src[t.ID]
		if !ok || taken[pos] {
			continue
		}
		child[t.ID] = pos
		taken[pos] = true
	}
	return child
}

// mutate repositions one assigned trainset onto a random free slot.
func mutate(a models.Assignment, positions int, rng *rand.Rand) {
	if len(a) == 0 {
		return
	}
	ids := make([]string, 0, len(a))
	taken := make(map[int]bool, len(a))
	for id, pos := range a {
		ids = append(ids, id)
		taken[pos] = true
	}
	sort.Strings(ids) // stable order for reproducible runs
	free := make([]int, 0, positions-len(a))
	for j := 0; j < positions; j++ {
		if !taken[j] {
			free = append(free, j)
		}
	}
	if len(free) == 0 {
		return
	}
	a[ids[rng.Intn(len(ids))]] = free[rng.Intn(len(free))]
}

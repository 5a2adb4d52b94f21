package optimizer

import (
	"math"
	"sort"

	"github.com/itzzomkar/NavYatra/pkg/models"
	"github.com/itzzomkar/NavYatra/pkg/stats"
)

// Weights configures the tunable scoring terms. The base, fitness, and
// position terms are fixed.
type Weights struct {
	MileageBalance float64 `json:"mileage_balance"`
	Branding       float64 `json:"branding"`
}

// DefaultWeights returns the production weighting.
func DefaultWeights() Weights {
	return Weights{MileageBalance: 0.6, Branding: 0.3}
}

// FleetMeanMileage returns the mean cumulative mileage of the fleet.
func FleetMeanMileage(fleet []models.Trainset) float64 {
	mileages := make([]float64, len(fleet))
	for i, t := range fleet {
		mileages[i] = t.TotalMileage
	}
	return stats.Mean(mileages)
}

// PairScore computes the contribution of assigning one trainset to one
// position. Pure: identical inputs always give identical output, which
// is what lets three different drivers share the objective.
func PairScore(t models.Trainset, position int, fleetMean float64, w Weights) float64 {
	score := 100.0

	if t.FitnessValid {
		score += 50
	} else {
		// Redundant with feasibility, but keeps the total ordering
		// robust if constraint relaxation is ever enabled.
		score -= 1000
	}

	balance := math.Max(0, 100-math.Abs(t.TotalMileage-fleetMean)/1000)
	score += w.MileageBalance * balance

	score += w.Branding * float64(t.BrandingPriority) * 20

	score += math.Max(0, 50-2*float64(position))

	return score
}

// TotalScore sums pair contributions over an assignment. Summation is
// in key order so repeated evaluations of one assignment agree to the
// last bit, which the fixed-seed reproducibility guarantee relies on.
func TotalScore(assignment models.Assignment, byID map[string]models.Trainset, fleetMean float64, w Weights) float64 {
	ids := make([]string, 0, len(assignment))
	for id := range assignment {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	total := 0.0
	for _, id := range ids {
		t, ok := byID[id]
		if !ok {
			continue
		}
		total += PairScore(t, assignment[id], fleetMean, w)
	}
	return total
}

package optimizer

import (
	"context"
	"math"
	"time"

	"github.com/itzzomkar/NavYatra/pkg/models"
)

// runExact solves the assignment exactly as a max-weight bipartite
// matching between eligible trainsets and positions. Infeasible pairs
// never enter the matrix, so the result satisfies the feasibility
// predicate by construction. Every feasible pair scores positive, so
// the optimum always assigns min(|eligible|, positions) trainsets.
func runExact(ctx context.Context, req OptimizationRequest, eligible []models.Trainset, fleetMean float64, w Weights) OptimizationResult {
	started := time.Now()

	positions := req.MaxPositions
	if len(eligible) == 0 {
		return failedResult(AlgorithmConstraint, started, "no eligible trainsets")
	}

	score := make([][]float64, len(eligible))
	for i, t := range eligible {
		score[i] = make([]float64, positions)
		for j := 0; j < positions; j++ {
			score[i][j] = PairScore(t, j, fleetMean, w)
		}
	}

	if err := ctx.Err(); err != nil {
		return failedResult(AlgorithmConstraint, started, "solver cancelled: "+err.Error())
	}

	var assignment models.Assignment
	if len(eligible) <= positions {
		rowToCol := hungarian(score)
		assignment = make(models.Assignment, len(eligible))
		for i, j := range rowToCol {
			if j >= 0 {
				assignment[eligible[i].ID] = j
			}
		}
	} else {
		// More trainsets than positions: match from the position side so
		// the smaller set is fully assigned.
		transposed := make([][]float64, positions)
		for j := 0; j < positions; j++ {
			transposed[j] = make([]float64, len(eligible))
			for i := range eligible {
				transposed[j][i] = score[i][j]
			}
		}
		colToRow := hungarian(transposed)
		assignment = make(models.Assignment, positions)
		for j, i := range colToRow {
			if i >= 0 {
				assignment[eligible[i].ID] = j
			}
		}
	}

	if err := ctx.Err(); err != nil {
		return failedResult(AlgorithmConstraint, started, "solver timed out: "+err.Error())
	}

	byID := fleetIndex(eligible)
	return OptimizationResult{
		Assignment:    assignment,
		Score:         TotalScore(assignment, byID, fleetMean, w),
		Algorithm:     AlgorithmConstraint,
		ExecutionTime: time.Since(started),
		Status:        StatusCompleted,
	}
}

// hungarian computes a max-weight assignment of every row to a distinct
// column via the potential-based shortest-augmenting-path method.
// Requires len(rows) <= len(cols). Returns the matched column per row.
// Ties resolve toward the lowest column index.
func hungarian(score [][]float64) []int {
	n := len(score)
	if n == 0 {
		return nil
	}
	m := len(score[0])

	const inf = math.MaxFloat64

	// Minimize negated scores. 1-indexed with a virtual 0 row/column.
	u := make([]float64, n+1)
	v := make([]float64, m+1)
	matchCol := make([]int, m+1) // matchCol[j] = row matched to column j
	way := make([]int, m+1)

	for i := 1; i <= n; i++ {
		matchCol[0] = i
		j0 := 0
		minv := make([]float64, m+1)
		used := make([]bool, m+1)
		for j := range minv {
			minv[j] = inf
		}

		for {
			used[j0] = true
			i0 := matchCol[j0]
			delta := inf
			j1 := 0
			for j := 1; j <= m; j++ {
				if used[j] {
					continue
				}
				cur := -score[i0-1][j-1] - u[i0] - v[j]
				if cur < minv[j] {
					minv[j] = cur
					way[j] = j0
				}
				if minv[j] < delta {
					delta = minv[j]
					j1 = j
				}
			}
			for j := 0; j <= m; j++ {
				if used[j] {
					u[matchCol[j]] += delta
					v[j] -= delta
				} else {
					minv[j] -= delta
				}
			}
			j0 = j1
			if matchCol[j0] == 0 {
				break
			}
		}

		for j0 != 0 {
			j1 := way[j0]
			matchCol[j0] = matchCol[j1]
			j0 = j1
		}
	}

	rowToCol := make([]int, n)
	for i := range rowToCol {
		rowToCol[i] = -1
	}
	for j := 1; j <= m; j++ {
		if matchCol[j] > 0 {
			rowToCol[matchCol[j]-1] = j - 1
		}
	}
	return rowToCol
}

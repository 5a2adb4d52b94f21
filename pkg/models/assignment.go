package models

import (
	"fmt"
	"sort"
)

// Assignment maps trainset IDs to stabling positions. Positions are
// zero-based and injective: two trainsets never share a position.
type Assignment map[string]int

// Validate checks position bounds and injectivity.
func (a Assignment) Validate(maxPositions int) error {
	var errors ValidationErrors

	seen := make(map[int]string, len(a))
	for id, pos := range a {
		errors.AddIf(pos < 0 || pos >= maxPositions, "Position", pos,
			fmt.Sprintf("position for %s out of range [0,%d)", id, maxPositions))
		if prev, dup := seen[pos]; dup {
			errors.Add("Position", pos,
				fmt.Sprintf("position assigned to both %s and %s", prev, id))
		}
		seen[pos] = id
	}

	if errors.HasErrors() {
		return errors
	}
	return nil
}

// Contains reports whether the trainset is assigned.
func (a Assignment) Contains(trainsetID string) bool {
	_, ok := a[trainsetID]
	return ok
}

// Positions returns the assigned positions in ascending order.
func (a Assignment) Positions() []int {
	out := make([]int, 0, len(a))
	for _, pos := range a {
		out = append(out, pos)
	}
	sort.Ints(out)
	return out
}

// TrainsetIDs returns the assigned trainset IDs ordered by position.
func (a Assignment) TrainsetIDs() []string {
	type pair struct {
		id  string
		pos int
	}
	pairs := make([]pair, 0, len(a))
	for id, pos := range a {
		pairs = append(pairs, pair{id, pos})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].pos < pairs[j].pos })
	ids := make([]string, len(pairs))
	for i, p := range pairs {
		ids[i] = p.id
	}
	return ids
}

// Clone returns an independent copy.
func (a Assignment) Clone() Assignment {
	out := make(Assignment, len(a))
	for id, pos := range a {
		out[id] = pos
	}
	return out
}

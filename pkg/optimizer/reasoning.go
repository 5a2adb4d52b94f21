package optimizer

import (
	"fmt"
	"strings"

	"github.com/itzzomkar/NavYatra/pkg/models"
)

// buildReasoning produces one human-readable line per assigned trainset
// explaining the main scoring factors behind its placement.
func buildReasoning(assignment models.Assignment, byID map[string]models.Trainset, fleetMean float64) map[string]string {
	out := make(map[string]string, len(assignment))
	for id, pos := range assignment {
		t, ok := byID[id]
		if !ok {
			continue
		}
		out[id] = reasonFor(t, pos, fleetMean)
	}
	return out
}

func reasonFor(t models.Trainset, position int, fleetMean float64) string {
	var parts []string

	if t.FitnessValid {
		parts = append(parts, "valid fitness certificate")
	} else {
		parts = append(parts, "fitness certificate invalid")
	}

	if t.PendingWorkOrders == 0 {
		parts = append(parts, "no pending work orders")
	} else {
		parts = append(parts, fmt.Sprintf("%d pending work orders", t.PendingWorkOrders))
	}

	if t.BrandingPriority > 3 {
		parts = append(parts, fmt.Sprintf("high branding priority (%d)", t.BrandingPriority))
	}

	if fleetMean > 0 {
		switch {
		case t.TotalMileage < 0.9*fleetMean:
			parts = append(parts, "low mileage, good for service")
		case t.TotalMileage > 1.1*fleetMean:
			parts = append(parts, "high mileage, consider maintenance")
		}
	}

	parts = append(parts, fmt.Sprintf("assigned position %d", position))
	return strings.Join(parts, "; ")
}

package models

// HealthStatus grades a component or a whole trainset.
type HealthStatus string

const (
	HealthExcellent HealthStatus = "excellent"
	HealthGood      HealthStatus = "good"
	HealthFair      HealthStatus = "fair"
	HealthPoor      HealthStatus = "poor"
	HealthCritical  HealthStatus = "critical"
)

// healthRank orders statuses from best to worst.
var healthRank = map[HealthStatus]int{
	HealthExcellent: 0,
	HealthGood:      1,
	HealthFair:      2,
	HealthPoor:      3,
	HealthCritical:  4,
}

// IsValid checks if a HealthStatus is one of the five grades
func (hs HealthStatus) IsValid() bool {
	_, ok := healthRank[hs]
	return ok
}

// WorseThan reports whether hs is a strictly worse grade than other.
func (hs HealthStatus) WorseThan(other HealthStatus) bool {
	return healthRank[hs] > healthRank[other]
}

// NeedsExclusion reports whether a trainset in this state must be kept
// out of service assignments.
func (hs HealthStatus) NeedsExclusion() bool {
	return hs == HealthPoor || hs == HealthCritical
}

// String returns the string representation of HealthStatus
func (hs HealthStatus) String() string {
	return string(hs)
}

package models_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itzzomkar/NavYatra/pkg/models"
)

func validTrainset() models.Trainset {
	expiry := time.Now().Add(90 * 24 * time.Hour)
	return models.Trainset{
		ID:               "ts-001",
		Number:           "KM-001",
		Status:           models.StatusAvailable,
		TotalMileage:     45000,
		CurrentMileage:   1200,
		FitnessValid:     true,
		FitnessExpiry:    &expiry,
		BrandingPriority: 3,
		ReliabilityScore: 0.9,
		EnergyEfficiency: 0.85,
	}
}

func TestTrainsetValidate(t *testing.T) {
	assert.NoError(t, validTrainset().Validate())

	bad := validTrainset()
	bad.ID = ""
	bad.TotalMileage = -1
	bad.BrandingPriority = 0
	err := bad.Validate()
	require.Error(t, err)

	var verrs models.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Len(t, verrs, 3)
}

func TestTrainsetValidateExpiredButMarkedValid(t *testing.T) {
	ts := validTrainset()
	past := time.Now().Add(-time.Hour)
	ts.FitnessExpiry = &past
	assert.Error(t, ts.Validate())
}

func TestIsEligible(t *testing.T) {
	assert.True(t, validTrainset().IsEligible())

	inService := validTrainset()
	inService.Status = models.StatusInService
	assert.False(t, inService.IsEligible())

	highPriority := validTrainset()
	highPriority.HasHighPriorityWork = true
	assert.False(t, highPriority.IsEligible())

	noFitness := validTrainset()
	noFitness.FitnessValid = false
	assert.False(t, noFitness.IsEligible())
}

func TestFitnessExpiredDateGranularity(t *testing.T) {
	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)

	// Expiry earlier the same day still counts as expired today.
	ts := validTrainset()
	sameDay := time.Date(2026, 8, 24, 6, 0, 0, 0, time.UTC)
	ts.FitnessExpiry = &sameDay
	assert.True(t, ts.FitnessExpired(now))

	tomorrow := time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)
	ts.FitnessExpiry = &tomorrow
	assert.False(t, ts.FitnessExpired(now))

	// No expiry date: fall back to the validity flag.
	ts.FitnessExpiry = nil
	ts.FitnessValid = false
	assert.True(t, ts.FitnessExpired(now))
}

func TestStatusTransitions(t *testing.T) {
	assert.True(t, models.StatusAvailable.CanTransitionTo(models.StatusInService))
	assert.True(t, models.StatusMaintenance.CanTransitionTo(models.StatusAvailable))
	assert.False(t, models.StatusDecommissioned.CanTransitionTo(models.StatusAvailable))
	assert.False(t, models.StatusAvailable.CanTransitionTo("scrapyard"))
	assert.True(t, models.StatusDecommissioned.IsTerminal())
}

func TestAssignmentValidate(t *testing.T) {
	good := models.Assignment{"a": 0, "b": 1, "c": 2}
	assert.NoError(t, good.Validate(5))

	outOfRange := models.Assignment{"a": 5}
	assert.Error(t, outOfRange.Validate(5))

	duplicate := models.Assignment{"a": 1, "b": 1}
	assert.Error(t, duplicate.Validate(5))
}

func TestAssignmentOrdering(t *testing.T) {
	a := models.Assignment{"c": 2, "a": 0, "b": 1}
	assert.Equal(t, []int{0, 1, 2}, a.Positions())
	assert.Equal(t, []string{"a", "b", "c"}, a.TrainsetIDs())
	assert.True(t, a.Contains("b"))
	assert.False(t, a.Contains("z"))

	clone := a.Clone()
	clone["a"] = 4
	assert.Equal(t, 0, a["a"])
}

func TestHealthStatusOrdering(t *testing.T) {
	assert.True(t, models.HealthCritical.WorseThan(models.HealthPoor))
	assert.True(t, models.HealthPoor.WorseThan(models.HealthFair))
	assert.False(t, models.HealthGood.WorseThan(models.HealthFair))

	assert.True(t, models.HealthPoor.NeedsExclusion())
	assert.True(t, models.HealthCritical.NeedsExclusion())
	assert.False(t, models.HealthFair.NeedsExclusion())
}

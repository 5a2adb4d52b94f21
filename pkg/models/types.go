package models

import (
	"fmt"
)

// TrainsetStatus represents the operational state of a trainset
type TrainsetStatus string

const (
	StatusAvailable      TrainsetStatus = "available"
	StatusInService      TrainsetStatus = "in_service"
	StatusMaintenance    TrainsetStatus = "maintenance"
	StatusOutOfOrder     TrainsetStatus = "out_of_order"
	StatusCleaning       TrainsetStatus = "cleaning"
	StatusDecommissioned TrainsetStatus = "decommissioned"
)

// ValidTrainsetStatuses returns all valid trainset statuses
func ValidTrainsetStatuses() []TrainsetStatus {
	return []TrainsetStatus{
		StatusAvailable, StatusInService, StatusMaintenance,
		StatusOutOfOrder, StatusCleaning, StatusDecommissioned,
	}
}

// IsValid checks if a TrainsetStatus is valid
func (ts TrainsetStatus) IsValid() bool {
	for _, valid := range ValidTrainsetStatuses() {
		if ts == valid {
			return true
		}
	}
	return false
}

// String returns the string representation of TrainsetStatus
func (ts TrainsetStatus) String() string {
	return string(ts)
}

// IsTerminal reports whether the status can never be left again.
// Decommissioned trainsets are never re-entered by the core.
func (ts TrainsetStatus) IsTerminal() bool {
	return ts == StatusDecommissioned
}

// CanTransitionTo checks if a trainset can move from the current status
// to the target status. Transitions are observed externally; the core
// only refuses to leave terminal states.
func (ts TrainsetStatus) CanTransitionTo(target TrainsetStatus) bool {
	if !target.IsValid() {
		return false
	}
	if ts.IsTerminal() {
		return false
	}
	return true
}

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string      `json:"field"`
	Value   interface{} `json:"value"`
	Message string      `json:"message"`
}

func (ve ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field %s: %s (value: %v)", ve.Field, ve.Message, ve.Value)
}

// ValidationErrors represents multiple validation errors
type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}
	if len(ve) == 1 {
		return ve[0].Error()
	}
	return fmt.Sprintf("%s (and %d more errors)", ve[0].Error(), len(ve)-1)
}

// HasErrors returns true if there are validation errors
func (ve ValidationErrors) HasErrors() bool {
	return len(ve) > 0
}

// Add adds a validation error
func (ve *ValidationErrors) Add(field string, value interface{}, message string) {
	*ve = append(*ve, ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	})
}

// AddIf adds a validation error if the condition is true
func (ve *ValidationErrors) AddIf(condition bool, field string, value interface{}, message string) {
	if condition {
		ve.Add(field, value, message)
	}
}

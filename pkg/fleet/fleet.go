// Package fleet defines the collaborator interfaces through which the
// decision and scheduling core observes and acts on the physical fleet.
// Implementations live in internal/fleet; the core only depends on
// these contracts.
package fleet

import (
	"context"
	"time"

	"github.com/itzzomkar/NavYatra/pkg/models"
)

// Reader returns the current fleet snapshot.
type Reader interface {
	Snapshot(ctx context.Context) ([]models.Trainset, error)
}

// StatusMeta records who changed a status and why.
type StatusMeta struct {
	Actor       string     `json:"actor"`
	Reason      string     `json:"reason"`
	Timestamp   time.Time  `json:"timestamp"`
	WindowStart *time.Time `json:"window_start,omitempty"`
	WindowEnd   *time.Time `json:"window_end,omitempty"`
}

// StatusWriter sets a trainset's operational status. Implementations
// are idempotent for a (trainset, status) pair within a 60 second
// window.
type StatusWriter interface {
	SetStatus(ctx context.Context, trainsetID string, status models.TrainsetStatus, meta StatusMeta) error
}

// Notifier fans out to the three notification channels. Emergency
// alerts are synchronous; delivery failure never blocks execution.
type Notifier interface {
	RequestApproval(ctx context.Context, subject, body string) error
	NotifyOperational(ctx context.Context, subject, body string) error
	EmergencyAlert(ctx context.Context, subject, body string) error
}

// Weather is the current condition bucket used for risk scoring.
type Weather string

const (
	WeatherSunny     Weather = "sunny"
	WeatherCloudy    Weather = "cloudy"
	WeatherRainy     Weather = "rainy"
	WeatherHeavyRain Weather = "heavy_rain"
	WeatherStormy    Weather = "stormy"
)

// WeatherProvider reports the current weather condition.
type WeatherProvider interface {
	Current(ctx context.Context) (Weather, error)
}

// StaticWeather is a WeatherProvider that always reports one condition.
type StaticWeather struct {
	Condition Weather
}

func (s StaticWeather) Current(context.Context) (Weather, error) {
	if s.Condition == "" {
		return WeatherSunny, nil
	}
	return s.Condition, nil
}

package service

import (
	"context"
	"time"

	"github.com/itzzomkar/NavYatra/internal/metrics"
	"github.com/itzzomkar/NavYatra/pkg/fleet"
	"github.com/itzzomkar/NavYatra/pkg/models"
	"github.com/itzzomkar/NavYatra/pkg/optimizer"
	"github.com/itzzomkar/NavYatra/pkg/scheduler"
)

// instrumentedRunner counts and times optimizer runs.
type instrumentedRunner struct {
	inner   scheduler.Runner
	metrics *metrics.Metrics
}

func (r instrumentedRunner) Optimize(ctx context.Context, req optimizer.OptimizationRequest, snapshot []models.Trainset) (optimizer.OptimizationResult, error) {
	start := time.Now()
	result, err := r.inner.Optimize(ctx, req, snapshot)

	status := "rejected"
	switch {
	case err == nil && result.Completed():
		status = "completed"
	case err == nil:
		status = "failed"
	}
	r.metrics.ObserveOptimization(string(req.Algorithm), status, time.Since(start))
	return result, err
}

// instrumentedWriter counts status writes by target status.
type instrumentedWriter struct {
	inner   fleet.StatusWriter
	metrics *metrics.Metrics
}

func (w instrumentedWriter) SetStatus(ctx context.Context, trainsetID string, status models.TrainsetStatus, meta fleet.StatusMeta) error {
	err := w.inner.SetStatus(ctx, trainsetID, status, meta)
	if err == nil {
		w.metrics.StatusWrites.WithLabelValues(status.String()).Inc()
	}
	return err
}

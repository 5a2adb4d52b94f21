// Package fleet provides the database-backed implementations of the
// core's collaborator interfaces.
package fleet

import (
	"context"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/itzzomkar/NavYatra/internal/database"
	"github.com/itzzomkar/NavYatra/pkg/fleet"
	"github.com/itzzomkar/NavYatra/pkg/models"
)

// idempotencyWindow suppresses repeated writes of the same
// (trainset, status) pair. Retrying control loops double-fire within
// seconds; the second write is a no-op.
const idempotencyWindow = 60 * time.Second

// Store reads and writes the fleet through the repository. Implements
// fleet.Reader and fleet.StatusWriter.
type Store struct {
	repo   *database.Repository
	recent *gocache.Cache
	logger *zap.Logger
}

// NewStore wires the store to the repository.
func NewStore(repo *database.Repository, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		repo:   repo,
		recent: gocache.New(idempotencyWindow, 2*idempotencyWindow),
		logger: logger,
	}
}

// Snapshot returns the whole fleet as core model values.
func (s *Store) Snapshot(ctx context.Context) ([]models.Trainset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	records, err := s.repo.ListTrainsets()
	if err != nil {
		return nil, fmt.Errorf("listing trainsets: %w", err)
	}
	out := make([]models.Trainset, len(records))
	for i, record := range records {
		out[i] = record.ToModel()
	}
	return out, nil
}

// SetStatus writes the new status and its audit row. Duplicate writes
// of the same pair inside the idempotency window succeed without
// touching the store.
func (s *Store) SetStatus(ctx context.Context, trainsetID string, status models.TrainsetStatus, meta fleet.StatusMeta) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !status.IsValid() {
		return fmt.Errorf("invalid trainset status %q", status)
	}

	key := trainsetID + "|" + string(status)
	if _, seen := s.recent.Get(key); seen {
		s.logger.Debug("status write suppressed by idempotency window",
			zap.String("trainset", trainsetID),
			zap.String("status", status.String()))
		return nil
	}

	change := &database.StatusChange{
		TrainsetID:  trainsetID,
		ToStatus:    string(status),
		Actor:       meta.Actor,
		Reason:      meta.Reason,
		Timestamp:   meta.Timestamp,
		WindowStart: meta.WindowStart,
		WindowEnd:   meta.WindowEnd,
	}
	if change.Timestamp.IsZero() {
		change.Timestamp = time.Now()
	}
	if err := s.repo.UpdateTrainsetStatus(change); err != nil {
		return fmt.Errorf("updating status of %s: %w", trainsetID, err)
	}
	s.recent.SetDefault(key, struct{}{})

	s.logger.Info("trainset status changed",
		zap.String("trainset", trainsetID),
		zap.String("from", change.FromStatus),
		zap.String("to", change.ToStatus),
		zap.String("actor", meta.Actor),
		zap.String("reason", meta.Reason))
	return nil
}

package fleet

import (
	"encoding/json"

	"go.uber.org/zap"

	"github.com/itzzomkar/NavYatra/internal/database"
	"github.com/itzzomkar/NavYatra/pkg/feedback"
)

// PersistentSink stores every outcome record and forwards it to the
// learning loop. A write failure is logged but never stops learning.
type PersistentSink struct {
	repo   *database.Repository
	loop   *feedback.Loop
	logger *zap.Logger
}

// NewPersistentSink wires the sink to the repository and the loop.
func NewPersistentSink(repo *database.Repository, loop *feedback.Loop, logger *zap.Logger) *PersistentSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PersistentSink{repo: repo, loop: loop, logger: logger}
}

// Record implements feedback.Sink.
func (s *PersistentSink) Record(record feedback.OutcomeRecord) error {
	if s.repo != nil {
		row := &database.OutcomeRecord{
			ScheduleID:       record.ScheduleID,
			Kind:             string(record.Kind),
			Timestamp:        record.Timestamp,
			SuccessScore:     record.SuccessScore,
			TrainsetIDs:      mustJSON(record.TrainsetIDs),
			PlannedMetrics:   mustJSON(record.PlannedMetrics),
			ActualMetrics:    mustJSON(record.ActualMetrics),
			OperatorFeedback: record.OperatorFeedback,
		}
		if err := s.repo.SaveOutcome(row); err != nil {
			s.logger.Warn("outcome persistence failed",
				zap.String("schedule", record.ScheduleID), zap.Error(err))
		}
	}

	if s.loop != nil {
		return s.loop.Record(record)
	}
	return nil
}

func mustJSON(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}

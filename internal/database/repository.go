package database

import (
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository provides data access methods
type Repository struct {
	db *DB
}

// NewRepository creates a new repository
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// UpsertTrainset inserts or fully replaces a fleet row.
func (r *Repository) UpsertTrainset(record *TrainsetRecord) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(record).Error
}

// GetTrainset retrieves one fleet row by ID.
func (r *Repository) GetTrainset(id string) (*TrainsetRecord, error) {
	var record TrainsetRecord
	if err := r.db.First(&record, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// ListTrainsets lists the whole fleet, stable order by number.
func (r *Repository) ListTrainsets() ([]TrainsetRecord, error) {
	var records []TrainsetRecord
	err := r.db.Order("number ASC").Find(&records).Error
	return records, err
}

// UpdateTrainsetStatus writes the new status and appends the audit row
// in one transaction. Returns the previous status.
func (r *Repository) UpdateTrainsetStatus(change *StatusChange) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var record TrainsetRecord
		if err := tx.First(&record, "id = ?", change.TrainsetID).Error; err != nil {
			return fmt.Errorf("trainset %s not found: %w", change.TrainsetID, err)
		}
		change.FromStatus = record.Status

		if err := tx.Model(&TrainsetRecord{}).
			Where("id = ?", change.TrainsetID).
			Update("status", change.ToStatus).Error; err != nil {
			return err
		}
		return tx.Create(change).Error
	})
}

// CountByStatus returns the fleet distribution across statuses.
func (r *Repository) CountByStatus() (map[string]int64, error) {
	var rows []struct {
		Status string
		N      int64
	}
	err := r.db.Model(&TrainsetRecord{}).
		Select("status, COUNT(*) as n").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.N
	}
	return counts, nil
}

// GetStatusChanges retrieves the audit trail for one trainset.
func (r *Repository) GetStatusChanges(trainsetID string, limit int) ([]StatusChange, error) {
	var changes []StatusChange
	query := r.db.Where("trainset_id = ?", trainsetID).Order("timestamp DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&changes).Error
	return changes, err
}

// SaveDecision persists a new decision record.
func (r *Repository) SaveDecision(record *DecisionRecord) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(record).Error
}

// MarkDecisionExecuted records a decision's final outcome.
func (r *Repository) MarkDecisionExecuted(id string, success bool, details string, executedAt time.Time) error {
	return r.db.Model(&DecisionRecord{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"executed":    true,
			"success":     success,
			"details":     details,
			"executed_at": executedAt,
		}).Error
}

// ListDecisions lists decisions newest first.
func (r *Repository) ListDecisions(limit int) ([]DecisionRecord, error) {
	var records []DecisionRecord
	query := r.db.Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&records).Error
	return records, err
}

// SaveSchedule persists a generated schedule.
func (r *Repository) SaveSchedule(record *ScheduleRecord) error {
	return r.db.Create(record).Error
}

// GetSchedule retrieves one schedule by ID.
func (r *Repository) GetSchedule(id string) (*ScheduleRecord, error) {
	var record ScheduleRecord
	if err := r.db.First(&record, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// ListSchedules lists generated schedules newest first.
func (r *Repository) ListSchedules(limit int) ([]ScheduleRecord, error) {
	var records []ScheduleRecord
	query := r.db.Order("generated_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&records).Error
	return records, err
}

// SaveOutcome persists a feedback outcome row.
func (r *Repository) SaveOutcome(record *OutcomeRecord) error {
	return r.db.Create(record).Error
}

// ListOutcomes lists outcomes newest first.
func (r *Repository) ListOutcomes(limit int) ([]OutcomeRecord, error) {
	var records []OutcomeRecord
	query := r.db.Order("timestamp DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&records).Error
	return records, err
}

// SaveTelemetry persists one raw telemetry sample.
func (r *Repository) SaveTelemetry(record *TelemetryRecord) error {
	return r.db.Create(record).Error
}

// BatchSaveTelemetry saves many samples efficiently.
func (r *Repository) BatchSaveTelemetry(records []TelemetryRecord) error {
	if len(records) == 0 {
		return nil
	}
	return r.db.CreateInBatches(records, 100).Error
}

// GetTelemetry retrieves recent samples for one trainset.
func (r *Repository) GetTelemetry(trainsetID string, limit int) ([]TelemetryRecord, error) {
	var records []TelemetryRecord
	query := r.db.Where("trainset_id = ?", trainsetID).Order("timestamp DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&records).Error
	return records, err
}

// PruneTelemetry drops samples older than the cutoff and returns the
// number removed.
func (r *Repository) PruneTelemetry(cutoff time.Time) (int64, error) {
	result := r.db.Where("timestamp < ?", cutoff).Delete(&TelemetryRecord{})
	return result.RowsAffected, result.Error
}

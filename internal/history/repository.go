package history

import (
	"time"

	"github.com/display-toggle/display-toggle/internal/models"
	"github.com/display-toggle/display-toggle/internal/toggle"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"gorm.io/gorm"
)

// Repository handles all history database operations
type Repository struct {
	db *DB
}

// NewRepository creates a new repository instance
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// NewRunID returns a fresh identifier grouping the rows of one run
func NewRunID() string {
	return uuid.NewString()
}

// EventsFromResult converts the switches of a run into history rows
func EventsFromResult(runID string, at time.Time, result *toggle.Result) []*models.SwitchEvent {
	if result == nil {
		return nil
	}
	events := make([]*models.SwitchEvent, 0, len(result.Switches))
	for _, s := range result.Switches {
		events = append(events, &models.SwitchEvent{
			RunID:     runID,
			Timestamp: at,
			Position:  s.Position,
			Model:     s.Model,
			Target:    int(s.Target),
			Direction: s.Direction.String(),
			DryRun:    s.DryRun,
		})
	}
	return events
}

// CreateSwitches inserts the switches of one run in a single transaction
func (r *Repository) CreateSwitches(events []*models.SwitchEvent) error {
	if len(events) == 0 {
		return nil
	}
	err := r.db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(events).Error
	})
	if err != nil {
		return errors.Wrap(err, "failed to insert switch events")
	}
	return nil
}

// CreateErrorLog inserts a new error log into the database
func (r *Repository) CreateErrorLog(errorLog *models.ErrorLog) error {
	result := r.db.Create(errorLog)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to insert error log")
	}
	return nil
}

// Recent returns the switches of the most recent runs, newest first.
// limit bounds the number of runs, not rows.
func (r *Repository) Recent(limit int) ([]*models.SwitchEvent, error) {
	var runIDs []string
	result := r.db.Model(&models.SwitchEvent{}).
		Select("run_id").
		Group("run_id").
		Order("MAX(timestamp) DESC").
		Limit(limit).
		Pluck("run_id", &runIDs)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to query recent runs")
	}
	if len(runIDs) == 0 {
		return nil, nil
	}

	var events []*models.SwitchEvent
	result = r.db.Where("run_id IN ?", runIDs).
		Order("timestamp DESC").
		Order("position ASC").
		Find(&events)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to query switch events")
	}
	return events, nil
}

// RecentErrors returns the latest error logs, newest first
func (r *Repository) RecentErrors(limit int) ([]*models.ErrorLog, error) {
	var logs []*models.ErrorLog
	result := r.db.Order("timestamp DESC").Limit(limit).Find(&logs)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to query error logs")
	}
	return logs, nil
}

// DeleteBefore removes switches older than before (soft delete)
func (r *Repository) DeleteBefore(before time.Time) (int64, error) {
	result := r.db.Where("timestamp < ?", before).Delete(&models.SwitchEvent{})
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, "failed to delete old switches")
	}
	return result.RowsAffected, nil
}

// Clear removes all history
func (r *Repository) Clear() error {
	if result := r.db.Exec("DELETE FROM switch_events"); result.Error != nil {
		return errors.Wrap(result.Error, "failed to clear switch events")
	}
	if result := r.db.Exec("DELETE FROM error_logs"); result.Error != nil {
		return errors.Wrap(result.Error, "failed to clear error logs")
	}
	return nil
}

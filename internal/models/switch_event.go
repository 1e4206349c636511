package models

import (
	"time"

	"gorm.io/gorm"
)

// SwitchEvent is one input switch decided during a run. Target is the raw
// MCCS input source value; Direction is "primary" or "alternate".
type SwitchEvent struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	RunID     string         `gorm:"not null;index" json:"run_id"`
	Timestamp time.Time      `gorm:"not null;index" json:"timestamp"`
	Position  int            `gorm:"not null" json:"position"`
	Model     string         `gorm:"not null;index" json:"model"`
	Target    int            `gorm:"not null" json:"target"`
	Direction string         `gorm:"not null" json:"direction"`
	DryRun    bool           `gorm:"not null;default:false" json:"dry_run"`
	CreatedAt time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// RunSummary groups the switches of one run
type RunSummary struct {
	RunID     string        `json:"run_id"`
	Timestamp time.Time     `json:"timestamp"`
	Direction string        `json:"direction"`
	DryRun    bool          `json:"dry_run"`
	Switches  []SwitchEvent `json:"switches"`
}

// Report is the rendered view of recent history
type Report struct {
	Runs        []RunSummary `json:"runs"`
	Errors      []ErrorLog   `json:"errors"`
	GeneratedAt time.Time    `json:"generated_at"`
}

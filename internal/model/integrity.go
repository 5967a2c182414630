package model

import "time"

type FlagType string

const (
	FlagTabSwitch      FlagType = "TAB_SWITCH"
	FlagFullscreenExit FlagType = "FULLSCREEN_EXIT"
	FlagCopyPaste      FlagType = "COPY_PASTE"
)

func (f FlagType) Valid() bool {
	switch f {
	case FlagTabSwitch, FlagFullscreenExit, FlagCopyPaste:
		return true
	}
	return false
}

// IntegrityFlag is an append-only anti-cheat event. OccurrenceCount lets the browser batch repeats.
type IntegrityFlag struct {
	ID              uint      `gorm:"primarykey" json:"id"`
	AttemptID       string    `gorm:"type:varchar(36);not null;index" json:"attempt_id"`
	Type            FlagType  `gorm:"type:varchar(32);not null" json:"type"`
	OccurrenceCount int       `gorm:"not null;default:1" json:"occurrence_count"`
	Timestamp       time.Time `gorm:"not null" json:"timestamp"`
	CreatedAt       time.Time `json:"created_at"`
}

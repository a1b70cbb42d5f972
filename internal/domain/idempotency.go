package domain

import "time"

// GenerationReplay records the outcome of a generation request sent with an
// Idempotency-Key, keyed by (username, key). A retry with the same key
// returns the stored image instead of calling the providers again.
type GenerationReplay struct {
	ID         string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	Username   string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_replay_user_key,priority:1"`
	Key        string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_replay_user_key,priority:2"`
	ImageURL   string    `gorm:"type:TEXT NOT NULL"`
	Prompt     string    `gorm:"type:TEXT NOT NULL"`
	SourceText string    `gorm:"type:TEXT NOT NULL"`
	Summary    string    `gorm:"type:TEXT NOT NULL"`
	CreatedAt  time.Time `gorm:"type:DATETIME NOT NULL;autoCreateTime"`
	ExpiresAt  time.Time `gorm:"type:DATETIME NOT NULL;index"`
}

// TableName implements the GORM tabler interface.
func (GenerationReplay) TableName() string { return "generation_replays" }

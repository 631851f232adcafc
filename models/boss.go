// models/boss.go
package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	DifficultyEasy      = "easy"
	DifficultyMedium    = "medium"
	DifficultyHard      = "hard"
	DifficultyExtreme   = "extreme"
	DifficultyLegendary = "legendary"
)

// ValidDifficulties is the closed set accepted on create/update.
var ValidDifficulties = map[string]bool{
	DifficultyEasy:      true,
	DifficultyMedium:    true,
	DifficultyHard:      true,
	DifficultyExtreme:   true,
	DifficultyLegendary: true,
}

const (
	MinRespawnIntervalMinutes = 1
	MaxRespawnIntervalMinutes = 10080 // one week
)

type Boss struct {
	ID       string `json:"id" gorm:"primaryKey"`
	Name     string `json:"name" gorm:"not null"`
	Slug     string `json:"slug" gorm:"uniqueIndex"`
	Level    int    `json:"level" gorm:"default:1"`
	Location string `json:"location"`
	Server   string `json:"server" gorm:"index"`

	Difficulty string `json:"difficulty" gorm:"default:'medium'"`

	// ⏱️ Timer state — mutated only by the respawn estimator on accepted
	// spawn reports (and on delete of the most recent report).
	RespawnIntervalMinutes int        `json:"respawn_interval_minutes" gorm:"not null"`
	LastSpawn              *time.Time `json:"last_spawn,omitempty"`
	NextSpawn              *time.Time `json:"next_spawn,omitempty" gorm:"index"`

	// 🖼️ Media
	ImageURL string `json:"image_url"` // R2-hosted artwork

	Notes     string `json:"notes" gorm:"type:text"`
	CreatedBy string `json:"created_by" gorm:"index"` // external user ID of the owner

	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`

	// Relationships
	SpawnEvents []SpawnEvent `json:"spawn_events,omitempty" gorm:"foreignKey:BossID"`

	// Calculated fields (not stored in DB)
	TimeRemainingSeconds int64 `json:"time_remaining_seconds" gorm:"-"`
	IsActive             bool  `json:"is_active" gorm:"-"`
	SpawnCount           int64 `json:"spawn_count,omitempty" gorm:"-"`
}

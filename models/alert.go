// models/alert.go
package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	LeadUnitMinutes = "minutes"
	LeadUnitSeconds = "seconds"
)

const (
	AlertChannelPush    = "push"
	AlertChannelEmail   = "email"
	AlertChannelWebhook = "webhook"
)

// AlertPreference is one lead-time a user wants to be notified at before a
// boss's predicted spawn. A user may hold several per boss (e.g. 10m and 1m).
type AlertPreference struct {
	ID     string `json:"id" gorm:"primaryKey"`
	UserID string `json:"user_id" gorm:"not null;uniqueIndex:idx_user_boss_lead,priority:1"`
	BossID string `json:"boss_id" gorm:"not null;uniqueIndex:idx_user_boss_lead,priority:2"`

	LeadValue int    `json:"lead_value" gorm:"not null;uniqueIndex:idx_user_boss_lead,priority:3"`
	LeadUnit  string `json:"lead_unit" gorm:"not null;uniqueIndex:idx_user_boss_lead,priority:4"` // minutes | seconds

	Channel   string `json:"channel" gorm:"default:'push'"` // push | email | webhook
	Recipient string `json:"recipient"`                     // device token, email address or webhook URL
	Enabled   bool   `json:"enabled" gorm:"default:true"`

	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`

	// Relationships
	Boss Boss `json:"boss,omitempty" gorm:"foreignKey:BossID"`
}

// LeadDuration converts the configured lead-time into a duration.
// Unknown units fall back to minutes.
func (p *AlertPreference) LeadDuration() time.Duration {
	if p.LeadUnit == LeadUnitSeconds {
		return time.Duration(p.LeadValue) * time.Second
	}
	return time.Duration(p.LeadValue) * time.Minute
}

// SentAlert records that a specific lead-time fired for a specific spawn
// cycle. SpawnCycle is the boss's next_spawn at send time: when the timer
// advances the key changes, so each cycle fires each lead-time at most once.
type SentAlert struct {
	ID     string `json:"id" gorm:"primaryKey"`
	UserID string `json:"user_id" gorm:"not null;uniqueIndex:idx_sent_cycle,priority:1"`
	BossID string `json:"boss_id" gorm:"not null;uniqueIndex:idx_sent_cycle,priority:2"`

	LeadValue  int       `json:"lead_value" gorm:"not null;uniqueIndex:idx_sent_cycle,priority:3"`
	LeadUnit   string    `json:"lead_unit" gorm:"not null;uniqueIndex:idx_sent_cycle,priority:4"`
	SpawnCycle time.Time `json:"spawn_cycle" gorm:"not null;uniqueIndex:idx_sent_cycle,priority:5"`

	Channel string    `json:"channel"`
	SentAt  time.Time `json:"sent_at" gorm:"autoCreateTime"`
}

// models/spawn_event.go
package models

import (
	"time"
)

// MaxSpawnReportAge is how far in the past a reported spawn_time may lie.
const MaxSpawnReportAge = 30 * 24 * time.Hour

// SpawnEvent is one reported boss appearance. spawn_time history is
// append-mostly: edits are limited to verification state, notes, coordinates,
// kill time and the participant list, and only by the reporter or an admin.
type SpawnEvent struct {
	ID     string `json:"id" gorm:"primaryKey"`
	BossID string `json:"boss_id" gorm:"not null;index"`

	SpawnTime time.Time  `json:"spawn_time" gorm:"not null;index"`
	KillTime  *time.Time `json:"kill_time,omitempty"`

	Verified   bool   `json:"verified" gorm:"default:false"`
	ReportedBy string `json:"reported_by" gorm:"index"` // external user ID

	Notes string `json:"notes"`

	// Optional geographic coordinates of the sighting
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`

	// 🖼️ Optional screenshot evidence (R2-hosted)
	ScreenshotURL string `json:"screenshot_url,omitempty"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	// Relationships
	Boss         Boss               `json:"boss,omitempty" gorm:"foreignKey:BossID"`
	Participants []SpawnParticipant `json:"participants,omitempty" gorm:"foreignKey:SpawnEventID"`
}

// SpawnParticipant is one entry of the ordered participant list of an event.
// Name is free text; MemberID is set when the name resolved to an account.
type SpawnParticipant struct {
	ID           string  `json:"id" gorm:"primaryKey"`
	SpawnEventID string  `json:"spawn_event_id" gorm:"not null;index"`
	Name         string  `json:"name" gorm:"not null"`
	MemberID     *string `json:"member_id,omitempty"`
	SortOrder    int     `json:"sort_order" gorm:"column:sort_order;default:0"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

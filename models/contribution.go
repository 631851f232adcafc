// models/contribution.go
package models

import (
	"time"

	"gorm.io/gorm"
)

// Contribution is the ledger row for one guild member: how many spawn events
// they are recorded as having participated in. MemberName is the system of
// record even when no account exists. MemberKey is the folded form of
// MemberName used for lookups (see services.FoldMemberName), never rendered
// back to users; at most one row per (guild, member_key), so different
// spellings of a name share a row.
type Contribution struct {
	ID      string `json:"id" gorm:"primaryKey"`
	GuildID string `json:"guild_id" gorm:"not null;uniqueIndex:idx_guild_member,priority:1"`

	MemberName string  `json:"member_name" gorm:"not null"`
	MemberKey  string  `json:"-" gorm:"not null;uniqueIndex:idx_guild_member,priority:2"`
	MemberID   *string `json:"member_id,omitempty" gorm:"index"` // external account link, when known

	// Monotonically incremented; only a full recompute may lower it.
	ContributionScore int64      `json:"contribution_score" gorm:"default:0"`
	LastEventDate     *time.Time `json:"last_event_date,omitempty"`

	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// models/guild.go
package models

import (
	"time"

	"gorm.io/gorm"
)

type Guild struct {
	ID         string `json:"id" gorm:"primaryKey"`
	Name       string `json:"name" gorm:"not null"`
	Slug       string `json:"slug" gorm:"uniqueIndex"`
	Server     string `json:"server"`
	OwnerID    string `json:"owner_id" gorm:"not null;index"` // external user ID
	InviteCode string `json:"invite_code" gorm:"uniqueIndex"`

	Description string `json:"description"`

	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`

	// Relationships
	Members       []GuildMember  `json:"members,omitempty" gorm:"foreignKey:GuildID"`
	Contributions []Contribution `json:"contributions,omitempty" gorm:"foreignKey:GuildID"`

	// Calculated fields (not stored in DB)
	MemberCount int64 `json:"member_count,omitempty" gorm:"-"`
}

// GuildMember links an account (via its external user ID) to a guild.
// MemberName is the in-game name used on spawn participant lists.
type GuildMember struct {
	ID         string `json:"id" gorm:"primaryKey"`
	GuildID    string `json:"guild_id" gorm:"not null;uniqueIndex:idx_guild_account,priority:1"`
	AccountID  string `json:"account_id" gorm:"not null;uniqueIndex:idx_guild_account,priority:2"`
	MemberName string `json:"member_name" gorm:"index"`
	Role       string `json:"role" gorm:"default:'member'"` // member | officer | leader

	JoinedAt  time.Time `json:"joined_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

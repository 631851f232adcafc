// models/account.go
package models

import (
	"time"

	"gorm.io/gorm"
)

// GuildAccount is a local snapshot of user data needed for identity
// resolution (participant name → account → guild). Owned solely by the
// tracker service; populated via sync worker from the Profile Service.
type GuildAccount struct {
	ID             string  `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	ExternalUserID string  `gorm:"uniqueIndex;not null" json:"external_user_id"` // the profile service's UUID
	Username       string  `gorm:"index;not null" json:"username"`
	UsernameKey    string  `gorm:"index;not null" json:"-"` // folded username, lookup only
	Email          string  `json:"email,omitempty"`
	CharacterName    *string `json:"character_name,omitempty"` // in-game name, may differ from username
	CharacterNameKey string  `gorm:"index" json:"-"`           // folded character name, lookup only
	AvatarURL        *string `json:"avatar_url,omitempty"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	LastSeen *time.Time `json:"last_seen,omitempty"`
	IsBanned bool       `json:"is_banned" gorm:"default:false"` // local tracker ban

	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

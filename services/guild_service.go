package services

import (
	"errors"
	"log"
	"strings"
	"time"

	"boss-tracker-system/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

type GuildService struct {
	DB  *gorm.DB
	Now func() time.Time
}

func NewGuildService(db *gorm.DB) *GuildService {
	return &GuildService{DB: db, Now: time.Now}
}

// CreateGuild registers a guild with the caller as owner and first member.
func (s *GuildService) CreateGuild(c *fiber.Ctx) error {
	type Req struct {
		Name        string `json:"name" validate:"required"`
		Server      string `json:"server,omitempty"`
		Description string `json:"description,omitempty"`
		MemberName  string `json:"member_name,omitempty"` // owner's in-game name
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}
	if strings.TrimSpace(req.Name) == "" {
		return c.Status(400).JSON(fiber.Map{"error": "name is required"})
	}
	ownerID, _ := c.Locals("user_id").(string)
	if ownerID == "" {
		return c.Status(401).JSON(fiber.Map{"error": "user context required"})
	}

	guild := models.Guild{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(req.Name),
		Slug:        slug.Make(req.Name),
		Server:      req.Server,
		OwnerID:     ownerID,
		InviteCode:  strings.ToUpper(uuid.NewString()[:8]),
		Description: req.Description,
	}
	memberName := TitleMemberName(req.MemberName)
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&guild).Error; err != nil {
			return err
		}
		owner := models.GuildMember{
			ID:         uuid.NewString(),
			GuildID:    guild.ID,
			AccountID:  ownerID,
			MemberName: memberName,
			Role:       "leader",
		}
		return tx.Create(&owner).Error
	})
	if err != nil {
		log.Printf("ERROR creating guild %q: %v", req.Name, err)
		return c.Status(500).JSON(fiber.Map{"error": "DB insert failed"})
	}
	return c.Status(201).JSON(guild)
}

// GetGuildByID returns a guild with its roster and member count.
func (s *GuildService) GetGuildByID(c *fiber.Ctx) error {
	id := c.Params("id")
	var guild models.Guild
	err := s.DB.Preload("Members", func(db *gorm.DB) *gorm.DB {
		return db.Order("joined_at ASC")
	}).Where("id = ? OR slug = ?", id, id).First(&guild).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "guild not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}
	guild.MemberCount = int64(len(guild.Members))
	return c.JSON(guild)
}

// JoinGuild adds the caller to a guild via invite code.
func (s *GuildService) JoinGuild(c *fiber.Ctx) error {
	type Req struct {
		InviteCode string `json:"invite_code" validate:"required"`
		MemberName string `json:"member_name,omitempty"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}
	accountID, _ := c.Locals("user_id").(string)
	if accountID == "" {
		return c.Status(401).JSON(fiber.Map{"error": "user context required"})
	}

	var guild models.Guild
	if err := s.DB.Where("invite_code = ?", strings.ToUpper(strings.TrimSpace(req.InviteCode))).
		First(&guild).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "invite code not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}

	var existing models.GuildMember
	if err := s.DB.Where("guild_id = ? AND account_id = ?", guild.ID, accountID).
		First(&existing).Error; err == nil {
		return c.Status(409).JSON(fiber.Map{"error": "already a member", "member": existing})
	}

	memberName := TitleMemberName(req.MemberName)
	if memberName == "" {
		var account models.GuildAccount
		if err := s.DB.Where("external_user_id = ?", accountID).First(&account).Error; err == nil {
			memberName = account.Username
		}
	}

	member := models.GuildMember{
		ID:         uuid.NewString(),
		GuildID:    guild.ID,
		AccountID:  accountID,
		MemberName: memberName,
		Role:       "member",
	}
	if err := s.DB.Create(&member).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to join guild"})
	}
	return c.Status(201).JSON(member)
}

// LeaveGuild removes the caller from the roster. Ledger rows stay; history
// does not disappear with membership.
func (s *GuildService) LeaveGuild(c *fiber.Ctx) error {
	guildID := c.Params("id")
	accountID, _ := c.Locals("user_id").(string)
	result := s.DB.Where("guild_id = ? AND account_id = ?", guildID, accountID).
		Delete(&models.GuildMember{})
	if result.Error != nil {
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}
	if result.RowsAffected == 0 {
		return c.Status(404).JSON(fiber.Map{"error": "membership not found"})
	}
	return c.JSON(fiber.Map{"message": "left guild"})
}

package services

import (
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strconv"
	"time"

	"boss-tracker-system/models"
	"boss-tracker-system/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

type BossService struct {
	DB  *gorm.DB
	Now func() time.Time
}

func NewBossService(db *gorm.DB) *BossService {
	return &BossService{DB: db, Now: time.Now}
}

// formInt parses an integer form value, falling back on absence or garbage.
func formInt(c *fiber.Ctx, key string, fallback int) int {
	v := c.FormValue(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func validateBossInput(name string, intervalMinutes int, difficulty string) error {
	if name == "" {
		return errors.New("name is required")
	}
	if intervalMinutes < models.MinRespawnIntervalMinutes || intervalMinutes > models.MaxRespawnIntervalMinutes {
		return fmt.Errorf("respawn_interval_minutes must be between %d and %d",
			models.MinRespawnIntervalMinutes, models.MaxRespawnIntervalMinutes)
	}
	if difficulty != "" && !models.ValidDifficulties[difficulty] {
		return errors.New("difficulty must be one of: easy, medium, hard, extreme, legendary")
	}
	return nil
}

// CreateBoss registers a new boss as a multipart form (artwork optional).
func (s *BossService) CreateBoss(c *fiber.Ctx) error {
	name := c.FormValue("name")
	location := c.FormValue("location")
	server := c.FormValue("server")
	difficulty := c.FormValue("difficulty")
	notes := c.FormValue("notes")

	intervalMinutes := formInt(c, "respawn_interval_minutes", 0)
	bossLevel := formInt(c, "level", 1)

	if err := validateBossInput(name, intervalMinutes, difficulty); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	if difficulty == "" {
		difficulty = models.DifficultyMedium
	}

	// Artwork → R2
	var imageURL string
	if artwork, err := c.FormFile("artwork"); err == nil && artwork.Size > 0 {
		ext := filepath.Ext(artwork.Filename)
		if ext == "" {
			ext = ".jpg"
		}
		key := "bosses/artwork/" + uuid.NewString() + ext
		url, err := utils.UploadFileToR2(artwork, key)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": "failed to upload artwork"})
		}
		imageURL = url
	}

	createdBy, _ := c.Locals("user_id").(string)
	boss := models.Boss{
		ID:                     uuid.NewString(),
		Name:                   name,
		Slug:                   s.uniqueSlug(name),
		Level:                  bossLevel,
		Location:               location,
		Server:                 server,
		Difficulty:             difficulty,
		RespawnIntervalMinutes: intervalMinutes,
		ImageURL:               imageURL,
		Notes:                  notes,
		CreatedBy:              createdBy,
	}
	if err := s.DB.Create(&boss).Error; err != nil {
		log.Printf("ERROR creating boss %q: %v", name, err)
		return c.Status(500).JSON(fiber.Map{"error": "DB insert failed"})
	}
	return c.Status(201).JSON(boss)
}

// uniqueSlug appends a short suffix when the natural slug is taken.
func (s *BossService) uniqueSlug(name string) string {
	base := slug.Make(name)
	candidate := base
	for i := 0; i < 5; i++ {
		var count int64
		s.DB.Model(&models.Boss{}).Where("slug = ?", candidate).Count(&count)
		if count == 0 {
			return candidate
		}
		candidate = fmt.Sprintf("%s-%s", base, uuid.NewString()[:8])
	}
	return candidate
}

// GetAllBosses lists bosses with computed timer state, optionally filtered by
// server and active-only.
func (s *BossService) GetAllBosses(c *fiber.Ctx) error {
	query := s.DB.Model(&models.Boss{})
	if server := c.Query("server"); server != "" {
		query = query.Where("server = ?", server)
	}
	var bosses []models.Boss
	if err := query.Order("name ASC").Find(&bosses).Error; err != nil {
		log.Printf("ERROR fetching bosses: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch bosses"})
	}

	now := s.Now()
	activeOnly := c.Query("active") == "true"
	out := make([]models.Boss, 0, len(bosses))
	for i := range bosses {
		state := ComputeTimer(&bosses[i], now)
		bosses[i].TimeRemainingSeconds = state.TimeRemainingSeconds
		bosses[i].IsActive = state.IsActive
		if activeOnly && !state.IsActive {
			continue
		}
		out = append(out, bosses[i])
	}
	return c.JSON(out)
}

func (s *BossService) findBoss(c *fiber.Ctx) (*models.Boss, error) {
	id := c.Params("id")
	var boss models.Boss
	// Accept either the UUID or the slug.
	err := s.DB.Where("id = ? OR slug = ?", id, id).First(&boss).Error
	if err != nil {
		return nil, err
	}
	return &boss, nil
}

// GetBossByID returns one boss with timer state and spawn count.
func (s *BossService) GetBossByID(c *fiber.Ctx) error {
	boss, err := s.findBoss(c)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "boss not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}

	state := ComputeTimer(boss, s.Now())
	boss.TimeRemainingSeconds = state.TimeRemainingSeconds
	boss.IsActive = state.IsActive
	s.DB.Model(&models.SpawnEvent{}).Where("boss_id = ?", boss.ID).Count(&boss.SpawnCount)
	return c.JSON(boss)
}

// GetBossTimer is the lightweight polling endpoint for countdown UIs.
func (s *BossService) GetBossTimer(c *fiber.Ctx) error {
	boss, err := s.findBoss(c)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "boss not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}
	return c.JSON(fiber.Map{
		"boss_id": boss.ID,
		"name":    boss.Name,
		"timer":   ComputeTimer(boss, s.Now()),
	})
}

// GetBossPredictions returns accuracy, point predictions and confidence
// windows from the boss's full chronological history.
func (s *BossService) GetBossPredictions(c *fiber.Ctx) error {
	boss, err := s.findBoss(c)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "boss not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}

	var events []models.SpawnEvent
	if err := s.DB.Where("boss_id = ?", boss.ID).
		Order("spawn_time ASC").
		Find(&events).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch spawn history"})
	}

	count := c.QueryInt("count", DefaultPredictionCount)
	if count < 1 || count > 20 {
		count = DefaultPredictionCount
	}
	report := BuildPredictionReport(events, boss.RespawnIntervalMinutes, count)
	return c.JSON(fiber.Map{
		"boss_id":                  boss.ID,
		"respawn_interval_minutes": boss.RespawnIntervalMinutes,
		"predictions":              report,
	})
}

// UpdateBoss edits configuration fields. Timer fields are not editable here;
// they belong to the estimator.
func (s *BossService) UpdateBoss(c *fiber.Ctx) error {
	boss, err := s.findBoss(c)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "boss not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}

	name := c.FormValue("name", boss.Name)
	difficulty := c.FormValue("difficulty", boss.Difficulty)
	intervalMinutes := formInt(c, "respawn_interval_minutes", boss.RespawnIntervalMinutes)
	if err := validateBossInput(name, intervalMinutes, difficulty); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}

	updates := map[string]interface{}{
		"name":                     name,
		"difficulty":               difficulty,
		"respawn_interval_minutes": intervalMinutes,
		"level":                    formInt(c, "level", boss.Level),
		"location":                 c.FormValue("location", boss.Location),
		"server":                   c.FormValue("server", boss.Server),
		"notes":                    c.FormValue("notes", boss.Notes),
	}

	if artwork, err := c.FormFile("artwork"); err == nil && artwork.Size > 0 {
		ext := filepath.Ext(artwork.Filename)
		if ext == "" {
			ext = ".jpg"
		}
		key := "bosses/artwork/" + uuid.NewString() + ext
		url, err := utils.UploadFileToR2(artwork, key)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": "failed to upload artwork"})
		}
		updates["image_url"] = url
	}

	if err := s.DB.Model(boss).Updates(updates).Error; err != nil {
		log.Printf("ERROR updating boss %s: %v", boss.ID, err)
		return c.Status(500).JSON(fiber.Map{"error": "update failed"})
	}
	s.DB.First(boss, "id = ?", boss.ID)
	return c.JSON(boss)
}

// DeleteBoss removes a boss and its spawn history.
func (s *BossService) DeleteBoss(c *fiber.Ctx) error {
	boss, err := s.findBoss(c)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "boss not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("spawn_event_id IN (?)",
			tx.Model(&models.SpawnEvent{}).Select("id").Where("boss_id = ?", boss.ID),
		).Delete(&models.SpawnParticipant{}).Error; err != nil {
			return err
		}
		if err := tx.Where("boss_id = ?", boss.ID).Delete(&models.SpawnEvent{}).Error; err != nil {
			return err
		}
		if err := tx.Where("boss_id = ?", boss.ID).Delete(&models.AlertPreference{}).Error; err != nil {
			return err
		}
		if err := tx.Where("boss_id = ?", boss.ID).Delete(&models.SentAlert{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Boss{}, "id = ?", boss.ID).Error
	})
	if err != nil {
		log.Printf("ERROR deleting boss %s: %v", boss.ID, err)
		return c.Status(500).JSON(fiber.Map{"error": "delete failed"})
	}
	log.Printf("🧹 Boss deleted: %s (%s)", boss.Name, boss.ID)
	return c.JSON(fiber.Map{"message": "boss deleted"})
}

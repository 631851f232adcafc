package services

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"boss-tracker-system/models"
	"boss-tracker-system/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultDuplicateToleranceMinutes is the ± window inside which two reports
// for the same boss count as the same sighting. Tunable via
// SPAWN_DUPLICATE_TOLERANCE_MINUTES.
const DefaultDuplicateToleranceMinutes = 5

type SpawnService struct {
	DB            *gorm.DB
	Contributions *ContributionService
	Tolerance     time.Duration
	Now           func() time.Time
}

func NewSpawnService(db *gorm.DB, contributions *ContributionService) *SpawnService {
	tolerance := time.Duration(DefaultDuplicateToleranceMinutes) * time.Minute
	if v := os.Getenv("SPAWN_DUPLICATE_TOLERANCE_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			tolerance = time.Duration(n) * time.Minute
		} else {
			log.Printf("⚠️  Invalid SPAWN_DUPLICATE_TOLERANCE_MINUTES=%q, using default %dm", v, DefaultDuplicateToleranceMinutes)
		}
	}
	return &SpawnService{
		DB:            db,
		Contributions: contributions,
		Tolerance:     tolerance,
		Now:           time.Now,
	}
}

// DuplicateWindow is the symmetric guard range around a proposed spawn_time.
func DuplicateWindow(proposed time.Time, tolerance time.Duration) (from, to time.Time) {
	return proposed.Add(-tolerance), proposed.Add(tolerance)
}

// ValidateSpawnTime parses an RFC3339 spawn_time and enforces the 30-day
// floor. Reports from the future are allowed up to the duplicate tolerance to
// absorb client clock skew.
func ValidateSpawnTime(raw string, now time.Time, tolerance time.Duration) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidTimestamp, err)
	}
	if t.Before(now.Add(-models.MaxSpawnReportAge)) {
		return time.Time{}, fmt.Errorf("%w: spawn_time older than 30 days", ErrInvalidTimestamp)
	}
	if t.After(now.Add(tolerance)) {
		return time.Time{}, fmt.Errorf("%w: spawn_time in the future", ErrInvalidTimestamp)
	}
	return t, nil
}

// checkDuplicate runs the conflict guard against persisted events. This is a
// read-then-write check: two concurrent reports inside the window can both
// pass — the store holds no compare-and-swap for it.
func (s *SpawnService) checkDuplicate(tx *gorm.DB, bossID string, spawnTime time.Time) error {
	from, to := DuplicateWindow(spawnTime, s.Tolerance)
	var count int64
	if err := tx.Model(&models.SpawnEvent{}).
		Where("boss_id = ? AND spawn_time BETWEEN ? AND ?", bossID, from, to).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrDuplicateSpawnReport
	}
	return nil
}

// ReportSpawn accepts a new spawn report: guard → persist event (with ordered
// participants) → overwrite the boss timer → credit participants on the
// ledger. Ledger credits run after the commit; a credit failure never undoes
// an accepted report.
func (s *SpawnService) ReportSpawn(c *fiber.Ctx) error {
	type Req struct {
		BossID       string   `json:"boss_id" validate:"required"`
		SpawnTime    string   `json:"spawn_time" validate:"required"` // RFC3339
		KillTime     string   `json:"kill_time,omitempty"`
		Participants []string `json:"participants,omitempty"`
		Notes        string   `json:"notes,omitempty"`
		Latitude     *float64 `json:"latitude,omitempty"`
		Longitude    *float64 `json:"longitude,omitempty"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
	}
	if req.BossID == "" || req.SpawnTime == "" {
		return c.Status(400).JSON(fiber.Map{"error": "boss_id and spawn_time are required"})
	}

	now := s.Now()
	spawnTime, err := ValidateSpawnTime(req.SpawnTime, now, s.Tolerance)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}

	var killTime *time.Time
	if req.KillTime != "" {
		t, err := time.Parse(time.RFC3339, req.KillTime)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid kill_time (use RFC3339)"})
		}
		killTime = &t
	}

	var boss models.Boss
	if err := s.DB.First(&boss, "id = ?", req.BossID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "boss not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "DB error fetching boss"})
	}

	reporter, _ := c.Locals("user_id").(string)
	event := models.SpawnEvent{
		ID:         uuid.NewString(),
		BossID:     boss.ID,
		SpawnTime:  spawnTime,
		KillTime:   killTime,
		ReportedBy: reporter,
		Notes:      req.Notes,
		Latitude:   req.Latitude,
		Longitude:  req.Longitude,
	}
	for i, name := range req.Participants {
		display := DisplayMemberName(name)
		if display == "" {
			continue
		}
		event.Participants = append(event.Participants, models.SpawnParticipant{
			ID:           uuid.NewString(),
			SpawnEventID: event.ID,
			Name:         display,
			SortOrder:    i,
		})
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := s.checkDuplicate(tx, boss.ID, spawnTime); err != nil {
			return err
		}
		if err := tx.Omit("Participants").Create(&event).Error; err != nil {
			return err
		}
		for i := range event.Participants {
			if err := tx.Create(&event.Participants[i]).Error; err != nil {
				return err
			}
		}
		// Sole timer write path: the estimator overwrites the boss's fields
		// from the accepted report.
		ApplySpawn(&boss, spawnTime, now)
		return tx.Model(&boss).Updates(map[string]interface{}{
			"last_spawn": boss.LastSpawn,
			"next_spawn": boss.NextSpawn,
		}).Error
	})
	if errors.Is(err, ErrDuplicateSpawnReport) {
		return c.Status(409).JSON(fiber.Map{
			"error":             "a spawn report already exists within the tolerance window",
			"tolerance_minutes": int(s.Tolerance / time.Minute),
		})
	}
	if err != nil {
		log.Printf("ERROR persisting spawn report for boss %s: %v", boss.ID, err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to record spawn"})
	}

	if len(event.Participants) > 0 {
		s.Contributions.CreditParticipants(&event)
	}

	log.Printf("✅ Spawn recorded: boss=%s at %s, next expected %s",
		boss.Name, spawnTime.Format(time.RFC3339), boss.NextSpawn.Format(time.RFC3339))

	return c.Status(201).JSON(fiber.Map{
		"event": event,
		"timer": ComputeTimer(&boss, now),
	})
}

// GetSpawnHistory lists a boss's events ascending by spawn_time, paginated.
func (s *SpawnService) GetSpawnHistory(c *fiber.Ctx) error {
	bossID := c.Params("id")
	page := c.QueryInt("page", 1)
	size := c.QueryInt("size", 50)
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 200 {
		size = 50
	}

	query := s.DB.Model(&models.SpawnEvent{}).Where("boss_id = ?", bossID)
	if v := c.Query("verified"); v != "" {
		query = query.Where("verified = ?", v == "true")
	}

	var total int64
	query.Count(&total)

	var events []models.SpawnEvent
	if err := query.
		Preload("Participants", func(db *gorm.DB) *gorm.DB {
			return db.Order("\"sort_order\" ASC")
		}).
		Order("spawn_time ASC").
		Limit(size).Offset((page - 1) * size).
		Find(&events).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch spawn history"})
	}
	return c.JSON(fiber.Map{
		"items":       events,
		"page":        page,
		"size":        size,
		"total_items": total,
	})
}

// canEditEvent: only the reporter or an admin may touch an event.
func canEditEvent(c *fiber.Ctx, event *models.SpawnEvent) bool {
	userID, _ := c.Locals("user_id").(string)
	if userID != "" && userID == event.ReportedBy {
		return true
	}
	roles, _ := c.Locals("user_roles").([]string)
	for _, r := range roles {
		if r == "admin" {
			return true
		}
	}
	return false
}

// UpdateSpawnEvent edits the mutable slice of an event: verification, notes,
// coordinates, kill time and participant list. spawn_time is immutable.
func (s *SpawnService) UpdateSpawnEvent(c *fiber.Ctx) error {
	id := c.Params("event_id")
	type Req struct {
		KillTime     *string   `json:"kill_time,omitempty"`
		Notes        *string   `json:"notes,omitempty"`
		Verified     *bool     `json:"verified,omitempty"`
		Latitude     *float64  `json:"latitude,omitempty"`
		Longitude    *float64  `json:"longitude,omitempty"`
		Participants *[]string `json:"participants,omitempty"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}

	var event models.SpawnEvent
	if err := s.DB.Preload("Participants").First(&event, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "spawn event not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}
	if !canEditEvent(c, &event) {
		return c.Status(403).JSON(fiber.Map{"error": "only the reporter or an admin may edit this event"})
	}

	updates := map[string]interface{}{}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}
	if req.Verified != nil {
		updates["verified"] = *req.Verified
	}
	if req.Latitude != nil {
		updates["latitude"] = *req.Latitude
	}
	if req.Longitude != nil {
		updates["longitude"] = *req.Longitude
	}
	if req.KillTime != nil {
		if *req.KillTime == "" {
			updates["kill_time"] = nil
		} else {
			t, err := time.Parse(time.RFC3339, *req.KillTime)
			if err != nil {
				return c.Status(400).JSON(fiber.Map{"error": "invalid kill_time (use RFC3339)"})
			}
			updates["kill_time"] = t
		}
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := tx.Model(&event).Updates(updates).Error; err != nil {
				return err
			}
		}
		if req.Participants != nil {
			if err := tx.Where("spawn_event_id = ?", event.ID).Delete(&models.SpawnParticipant{}).Error; err != nil {
				return err
			}
			event.Participants = nil
			for i, name := range *req.Participants {
				display := DisplayMemberName(name)
				if display == "" {
					continue
				}
				p := models.SpawnParticipant{
					ID:           uuid.NewString(),
					SpawnEventID: event.ID,
					Name:         display,
					SortOrder:    i,
				}
				if err := tx.Create(&p).Error; err != nil {
					return err
				}
				event.Participants = append(event.Participants, p)
			}
		}
		return nil
	})
	if err != nil {
		log.Printf("ERROR updating spawn event %s: %v", id, err)
		return c.Status(500).JSON(fiber.Map{"error": "update failed"})
	}

	s.DB.Preload("Participants", func(db *gorm.DB) *gorm.DB {
		return db.Order("\"sort_order\" ASC")
	}).First(&event, "id = ?", id)
	return c.JSON(event)
}

// UploadSpawnScreenshot attaches R2-hosted screenshot evidence to an event.
func (s *SpawnService) UploadSpawnScreenshot(c *fiber.Ctx) error {
	id := c.Params("event_id")
	var event models.SpawnEvent
	if err := s.DB.First(&event, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "spawn event not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}
	if !canEditEvent(c, &event) {
		return c.Status(403).JSON(fiber.Map{"error": "only the reporter or an admin may edit this event"})
	}

	file, err := c.FormFile("screenshot")
	if err != nil || file.Size == 0 {
		return c.Status(400).JSON(fiber.Map{"error": "screenshot file is required"})
	}
	ext := filepath.Ext(file.Filename)
	if ext == "" {
		ext = ".png"
	}
	key := "spawns/screenshots/" + uuid.NewString() + ext
	url, err := utils.UploadFileToR2(file, key)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to upload screenshot"})
	}
	if err := s.DB.Model(&event).Update("screenshot_url", url).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to save screenshot URL"})
	}
	event.ScreenshotURL = url
	return c.JSON(event)
}

// DeleteSpawnEvent removes an event. Deleting the boss's most recent event
// recomputes the timer from the new latest event (or clears it), so the
// cached next_spawn never points at a retracted report.
func (s *SpawnService) DeleteSpawnEvent(c *fiber.Ctx) error {
	id := c.Params("event_id")
	var event models.SpawnEvent
	if err := s.DB.First(&event, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "spawn event not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}
	if !canEditEvent(c, &event) {
		return c.Status(403).JSON(fiber.Map{"error": "only the reporter or an admin may delete this event"})
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("spawn_event_id = ?", event.ID).Delete(&models.SpawnParticipant{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.SpawnEvent{}, "id = ?", event.ID).Error; err != nil {
			return err
		}

		var latest models.SpawnEvent
		lookupErr := tx.Where("boss_id = ?", event.BossID).
			Order("spawn_time DESC").
			First(&latest).Error

		var boss models.Boss
		if err := tx.First(&boss, "id = ?", event.BossID).Error; err != nil {
			return err
		}
		wasLatest := boss.LastSpawn != nil && !event.SpawnTime.Before(*boss.LastSpawn)
		if !wasLatest {
			return nil
		}
		if errors.Is(lookupErr, gorm.ErrRecordNotFound) {
			RetimeFromLatest(&boss, nil)
		} else if lookupErr != nil {
			return lookupErr
		} else {
			RetimeFromLatest(&boss, &latest)
		}
		return tx.Model(&boss).Updates(map[string]interface{}{
			"last_spawn": boss.LastSpawn,
			"next_spawn": boss.NextSpawn,
		}).Error
	})
	if err != nil {
		log.Printf("ERROR deleting spawn event %s: %v", id, err)
		return c.Status(500).JSON(fiber.Map{"error": "delete failed"})
	}
	return c.JSON(fiber.Map{"message": "spawn event deleted"})
}

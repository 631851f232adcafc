// services/alert_service.go
package services

import (
	"errors"
	"log"
	"os"
	"strconv"
	"time"

	"boss-tracker-system/models"

	"github.com/go-co-op/gocron/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultAlertPollSeconds is how often the dispatch job scans for due alerts.
// Tunable via ALERT_POLL_SECONDS.
const DefaultAlertPollSeconds = 30

// sentAlertRetention keeps fired-alert rows long enough to cover clock skew
// and cycle overlap before the cleanup job drops them.
const sentAlertRetention = 48 * time.Hour

// AlertPayload is what gets handed to the delivery transport. The scheduler
// decides timing only; it never performs delivery I/O itself.
type AlertPayload struct {
	BossID               string    `json:"boss_id"`
	BossName             string    `json:"boss_name"`
	NextSpawn            time.Time `json:"next_spawn"`
	TimeRemainingSeconds int64     `json:"time_remaining_seconds"`
	LeadValue            int       `json:"lead_value"`
	LeadUnit             string    `json:"lead_unit"`
}

// Notifier is the external delivery transport (push/email/webhook gateway).
// Fire-and-forget: a false return is logged, never retried here.
type Notifier interface {
	Deliver(channel, recipient string, payload AlertPayload) bool
}

type AlertService struct {
	DB       *gorm.DB
	Notifier Notifier
	Now      func() time.Time
}

func NewAlertService(db *gorm.DB, notifier Notifier) *AlertService {
	return &AlertService{DB: db, Notifier: notifier, Now: time.Now}
}

// NotificationTime is when a lead-time preference should fire for a cycle.
func NotificationTime(nextSpawn time.Time, lead time.Duration) time.Time {
	return nextSpawn.Add(-lead)
}

// AlertDue reports whether a lead-time is due: at or past its notification
// time but before the spawn itself (a lapsed cycle never fires late).
func AlertDue(now, notificationTime, nextSpawn time.Time) bool {
	return !now.Before(notificationTime) && now.Before(nextSpawn)
}

// DueAlert pairs a preference with the cycle it should fire for.
type DueAlert struct {
	Preference models.AlertPreference
	Payload    AlertPayload
}

// DueAlerts scans enabled preferences against current boss timers and filters
// out lead-times that already fired for the current cycle.
func (s *AlertService) DueAlerts(now time.Time) ([]DueAlert, error) {
	var prefs []models.AlertPreference
	if err := s.DB.Preload("Boss").
		Joins("JOIN bosses ON bosses.id = alert_preferences.boss_id AND bosses.next_spawn IS NOT NULL").
		Where("alert_preferences.enabled = ?", true).
		Find(&prefs).Error; err != nil {
		return nil, err
	}

	var due []DueAlert
	for _, pref := range prefs {
		boss := pref.Boss
		if boss.NextSpawn == nil {
			continue
		}
		cycle := *boss.NextSpawn
		if !AlertDue(now, NotificationTime(cycle, pref.LeadDuration()), cycle) {
			continue
		}

		var fired int64
		s.DB.Model(&models.SentAlert{}).
			Where("user_id = ? AND boss_id = ? AND lead_value = ? AND lead_unit = ? AND spawn_cycle = ?",
				pref.UserID, pref.BossID, pref.LeadValue, pref.LeadUnit, cycle).
			Count(&fired)
		if fired > 0 {
			continue
		}

		remaining := int64(cycle.Sub(now) / time.Second)
		due = append(due, DueAlert{
			Preference: pref,
			Payload: AlertPayload{
				BossID:               boss.ID,
				BossName:             boss.Name,
				NextSpawn:            cycle,
				TimeRemainingSeconds: remaining,
				LeadValue:            pref.LeadValue,
				LeadUnit:             pref.LeadUnit,
			},
		})
	}
	return due, nil
}

// markSent records the fired lead-time for its cycle. The unique index on
// (user, boss, lead, cycle) makes a concurrent double-dispatch a no-op.
func (s *AlertService) markSent(pref *models.AlertPreference, cycle time.Time) (bool, error) {
	row := models.SentAlert{
		ID:         uuid.NewString(),
		UserID:     pref.UserID,
		BossID:     pref.BossID,
		LeadValue:  pref.LeadValue,
		LeadUnit:   pref.LeadUnit,
		SpawnCycle: cycle,
		Channel:    pref.Channel,
	}
	result := s.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// DispatchDueAlerts is one scheduler tick: claim each due alert via markSent,
// then hand it to the transport. Claiming first keeps delivery at-most-once
// per cycle even with overlapping ticks.
func (s *AlertService) DispatchDueAlerts() {
	now := s.Now()
	due, err := s.DueAlerts(now)
	if err != nil {
		log.Printf("[ALERTS] DB error scanning due alerts: %v", err)
		return
	}
	for _, d := range due {
		claimed, err := s.markSent(&d.Preference, d.Payload.NextSpawn)
		if err != nil {
			log.Printf("[ALERTS] ⚠️ failed to record sent alert for user=%s boss=%s: %v",
				d.Preference.UserID, d.Preference.BossID, err)
			continue
		}
		if !claimed {
			continue // another dispatcher got there first
		}
		if !s.Notifier.Deliver(d.Preference.Channel, d.Preference.Recipient, d.Payload) {
			log.Printf("[ALERTS] ⚠️ delivery failed: user=%s boss=%s channel=%s",
				d.Preference.UserID, d.Payload.BossName, d.Preference.Channel)
		}
	}
}

// CleanupSentAlerts drops fired-alert rows for long-past cycles.
func (s *AlertService) CleanupSentAlerts() {
	cutoff := s.Now().Add(-sentAlertRetention)
	result := s.DB.Where("spawn_cycle < ?", cutoff).Delete(&models.SentAlert{})
	if result.Error != nil {
		log.Printf("[ALERTS] cleanup failed: %v", result.Error)
		return
	}
	if result.RowsAffected > 0 {
		log.Printf("[ALERTS] 🧹 Pruned %d stale sent-alert row(s)", result.RowsAffected)
	}
}

// StartAlertScheduler wires the dispatch tick and the daily cleanup.
func (s *AlertService) StartAlertScheduler() {
	poll := DefaultAlertPollSeconds
	if v := os.Getenv("ALERT_POLL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			poll = n
		}
	}

	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DurationJob(time.Duration(poll)*time.Second),
		gocron.NewTask(s.DispatchDueAlerts),
	)
	_, _ = sched.NewJob(
		gocron.DurationJob(24*time.Hour),
		gocron.NewTask(s.CleanupSentAlerts),
	)
	log.Printf("✅ Alert scheduler running (every %ds)", poll)
}

// --- HTTP surface ---

// CreateAlertPreference registers a lead-time for the calling user.
func (s *AlertService) CreateAlertPreference(c *fiber.Ctx) error {
	type Req struct {
		BossID    string `json:"boss_id" validate:"required"`
		LeadValue int    `json:"lead_value" validate:"required"`
		LeadUnit  string `json:"lead_unit" validate:"oneof=minutes seconds"`
		Channel   string `json:"channel,omitempty"`
		Recipient string `json:"recipient,omitempty"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}
	userID, _ := c.Locals("user_id").(string)
	if userID == "" {
		return c.Status(401).JSON(fiber.Map{"error": "user context required"})
	}
	if req.BossID == "" || req.LeadValue <= 0 {
		return c.Status(400).JSON(fiber.Map{"error": "boss_id and a positive lead_value are required"})
	}
	if req.LeadUnit != models.LeadUnitMinutes && req.LeadUnit != models.LeadUnitSeconds {
		return c.Status(400).JSON(fiber.Map{"error": "lead_unit must be 'minutes' or 'seconds'"})
	}
	if req.Channel == "" {
		req.Channel = models.AlertChannelPush
	}
	if err := s.DB.First(&models.Boss{}, "id = ?", req.BossID).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "boss not found"})
	}

	pref := models.AlertPreference{
		ID:        uuid.NewString(),
		UserID:    userID,
		BossID:    req.BossID,
		LeadValue: req.LeadValue,
		LeadUnit:  req.LeadUnit,
		Channel:   req.Channel,
		Recipient: req.Recipient,
		Enabled:   true,
	}
	if err := s.DB.Create(&pref).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.Status(409).JSON(fiber.Map{"error": "this lead-time already exists for the boss"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "failed to create alert preference"})
	}
	return c.Status(201).JSON(pref)
}

// GetMyAlertPreferences lists the calling user's preferences.
func (s *AlertService) GetMyAlertPreferences(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	var prefs []models.AlertPreference
	if err := s.DB.Preload("Boss").
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&prefs).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch alert preferences"})
	}
	return c.JSON(prefs)
}

// UpdateAlertPreference toggles or retargets one preference.
func (s *AlertService) UpdateAlertPreference(c *fiber.Ctx) error {
	id := c.Params("pref_id")
	userID, _ := c.Locals("user_id").(string)
	type Req struct {
		Enabled   *bool   `json:"enabled,omitempty"`
		Channel   *string `json:"channel,omitempty"`
		Recipient *string `json:"recipient,omitempty"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}
	var pref models.AlertPreference
	if err := s.DB.Where("id = ? AND user_id = ?", id, userID).First(&pref).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "alert preference not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}
	updates := map[string]interface{}{}
	if req.Enabled != nil {
		updates["enabled"] = *req.Enabled
	}
	if req.Channel != nil {
		updates["channel"] = *req.Channel
	}
	if req.Recipient != nil {
		updates["recipient"] = *req.Recipient
	}
	if len(updates) > 0 {
		if err := s.DB.Model(&pref).Updates(updates).Error; err != nil {
			return c.Status(500).JSON(fiber.Map{"error": "update failed"})
		}
	}
	return c.JSON(pref)
}

// DeleteAlertPreference removes one preference.
func (s *AlertService) DeleteAlertPreference(c *fiber.Ctx) error {
	id := c.Params("pref_id")
	userID, _ := c.Locals("user_id").(string)
	result := s.DB.Where("id = ? AND user_id = ?", id, userID).Delete(&models.AlertPreference{})
	if result.Error != nil {
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}
	if result.RowsAffected == 0 {
		return c.Status(404).JSON(fiber.Map{"error": "alert preference not found"})
	}
	return c.JSON(fiber.Map{"message": "alert preference deleted"})
}

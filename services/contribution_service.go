package services

import (
	"errors"
	"log"
	"time"

	"boss-tracker-system/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// incrementRetries bounds the optimistic retry loop when two increments for
// the same brand-new member race on the unique (guild_id, member_key) index.
const incrementRetries = 3

type ContributionService struct {
	DB  *gorm.DB
	Now func() time.Time
}

func NewContributionService(db *gorm.DB) *ContributionService {
	return &ContributionService{DB: db, Now: time.Now}
}

// Increment adds one participation to the (guild, member) ledger row,
// creating the row at score 1 when absent. The read-modify-write is
// serialized by a row-level lock inside a transaction; lost-update races on
// first insert are absorbed by a bounded retry before ErrConcurrencyConflict
// surfaces.
func (s *ContributionService) Increment(guildID, memberName string, memberID *string, eventDate *time.Time) (*models.Contribution, error) {
	name := DisplayMemberName(memberName)
	key := FoldMemberName(memberName)
	if key == "" {
		return nil, errors.New("member name required")
	}

	var result *models.Contribution
	var lastErr error
	for attempt := 0; attempt < incrementRetries; attempt++ {
		row, err := s.incrementOnce(guildID, name, key, memberID, eventDate)
		if err == nil {
			return row, nil
		}
		lastErr = err
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, err
		}
		// Someone else created the row between our lookup and insert; the
		// next attempt takes the locked-update path.
	}
	result = nil
	log.Printf("[LEDGER] ❌ increment for guild=%s member=%q gave up after %d attempts: %v",
		guildID, name, incrementRetries, lastErr)
	return result, ErrConcurrencyConflict
}

// applyIncrement advances an existing ledger row by one participation:
// score +1, account link filled in when newly known, last_event_date merged
// to the later of the stored and incoming dates.
func applyIncrement(row *models.Contribution, memberID *string, eventDate *time.Time) {
	row.ContributionScore++
	if memberID != nil {
		row.MemberID = memberID
	}
	if eventDate != nil && (row.LastEventDate == nil || eventDate.After(*row.LastEventDate)) {
		row.LastEventDate = eventDate
	}
}

// newContributionRow is the first participation of a member: score starts at 1.
func newContributionRow(guildID, name, key string, memberID *string, eventDate *time.Time) models.Contribution {
	return models.Contribution{
		ID:                uuid.NewString(),
		GuildID:           guildID,
		MemberName:        name,
		MemberKey:         key,
		MemberID:          memberID,
		ContributionScore: 1,
		LastEventDate:     eventDate,
	}
}

func (s *ContributionService) incrementOnce(guildID, name, key string, memberID *string, eventDate *time.Time) (*models.Contribution, error) {
	var row models.Contribution
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		lookupErr := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("guild_id = ? AND member_key = ?", guildID, key).
			First(&row).Error
		if lookupErr == nil {
			applyIncrement(&row, memberID, eventDate)
			return tx.Save(&row).Error
		}
		if !errors.Is(lookupErr, gorm.ErrRecordNotFound) {
			return lookupErr
		}
		row = newContributionRow(guildID, name, key, memberID, eventDate)
		return tx.Create(&row).Error
	})
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// ParticipantTally is the per-member aggregate of a full event-history scan.
type ParticipantTally struct {
	Name          string
	Count         int64
	LastEventDate time.Time
}

// TallyParticipants folds every participant occurrence across the given
// events into per-member counts and most recent spawn dates. Keys are folded
// member names; Name keeps the first spelling seen.
func TallyParticipants(events []models.SpawnEvent) map[string]ParticipantTally {
	tally := make(map[string]ParticipantTally)
	for _, ev := range events {
		for _, p := range ev.Participants {
			key := FoldMemberName(p.Name)
			if key == "" {
				continue
			}
			entry, ok := tally[key]
			if !ok {
				entry = ParticipantTally{Name: DisplayMemberName(p.Name)}
			}
			entry.Count++
			if ev.SpawnTime.After(entry.LastEventDate) {
				entry.LastEventDate = ev.SpawnTime
			}
			tally[key] = entry
		}
	}
	return tally
}

// Recompute rebuilds every ledger row of a guild from the full spawn-event
// history: scores and last-event dates are overwritten to match the tally
// exactly, never added to. Rows whose member no longer appears in any event
// reset to zero. Idempotent; increments racing a recompute may be absorbed
// into the overwrite and lost.
func (s *ContributionService) Recompute(guildID string) (int, error) {
	var events []models.SpawnEvent
	if err := s.DB.Preload("Participants").
		Joins("JOIN spawn_participants ON spawn_participants.spawn_event_id = spawn_events.id").
		Group("spawn_events.id").
		Find(&events).Error; err != nil {
		return 0, err
	}
	tally := TallyParticipants(events)

	updated := 0
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var rows []models.Contribution
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("guild_id = ?", guildID).
			Find(&rows).Error; err != nil {
			return err
		}
		for i := range rows {
			entry := tally[rows[i].MemberKey]
			rows[i].ContributionScore = entry.Count
			if entry.LastEventDate.IsZero() {
				rows[i].LastEventDate = nil
			} else {
				d := entry.LastEventDate
				rows[i].LastEventDate = &d
			}
			if err := tx.Save(&rows[i]).Error; err != nil {
				return err
			}
			updated++
		}

		// Roster members who appear in the history but have no ledger row yet
		// get one, same as a resolved increment would have created.
		var members []models.GuildMember
		if err := tx.Where("guild_id = ?", guildID).Find(&members).Error; err != nil {
			return err
		}
		tracked := make(map[string]bool, len(rows))
		for _, r := range rows {
			tracked[r.MemberKey] = true
		}
		for _, m := range members {
			key := FoldMemberName(m.MemberName)
			entry, seen := tally[key]
			if !seen || tracked[key] {
				continue
			}
			d := entry.LastEventDate
			accountID := m.AccountID
			row := models.Contribution{
				ID:                uuid.NewString(),
				GuildID:           guildID,
				MemberName:        DisplayMemberName(m.MemberName),
				MemberKey:         key,
				MemberID:          &accountID,
				ContributionScore: entry.Count,
				LastEventDate:     &d,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
			tracked[key] = true
			updated++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	log.Printf("[LEDGER] ♻️ Recomputed %d contribution row(s) for guild %s", updated, guildID)
	return updated, nil
}

// CreditParticipants resolves each name on an accepted spawn report and
// increments the matching ledger rows. Resolution order: account (via the
// synced profile mirror) → the account's guild memberships; otherwise any
// existing Contribution rows already tracking the folded name across guilds.
// Names with neither an account nor a tracked row are dropped — no row is
// auto-created for first-time unregistered members.
func (s *ContributionService) CreditParticipants(event *models.SpawnEvent) {
	for _, p := range event.Participants {
		key := FoldMemberName(p.Name)
		if key == "" {
			continue
		}

		if account := s.findAccountByName(key); account != nil {
			var memberships []models.GuildMember
			s.DB.Where("account_id = ?", account.ExternalUserID).Find(&memberships)
			credited := false
			for _, m := range memberships {
				id := account.ExternalUserID
				if _, err := s.Increment(m.GuildID, m.MemberName, &id, &event.SpawnTime); err != nil {
					log.Printf("[LEDGER] ⚠️ credit failed for guild=%s member=%q: %v", m.GuildID, m.MemberName, err)
					continue
				}
				credited = true
			}
			if credited {
				continue
			}
			// Account without guild membership falls through to tracked rows.
		}

		var tracked []models.Contribution
		s.DB.Where("member_key = ?", key).Find(&tracked)
		if len(tracked) == 0 {
			log.Printf("[LEDGER] Participant %q has no account and no ledger row — dropped", p.Name)
			continue
		}
		for _, row := range tracked {
			if _, err := s.Increment(row.GuildID, row.MemberName, row.MemberID, &event.SpawnTime); err != nil {
				log.Printf("[LEDGER] ⚠️ credit failed for guild=%s member=%q: %v", row.GuildID, row.MemberName, err)
			}
		}
	}
}

// findAccountByName matches a folded participant name against the synced
// account mirror, by username first, then in-game character name.
func (s *ContributionService) findAccountByName(key string) *models.GuildAccount {
	var account models.GuildAccount
	err := s.DB.Where("username_key = ?", key).First(&account).Error
	if err == nil {
		return &account
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	err = s.DB.Where("character_name_key = ?", key).First(&account).Error
	if err != nil {
		return nil
	}
	return &account
}

// --- HTTP surface ---

// GetGuildLeaderboard returns a guild's ledger ordered by score.
func (s *ContributionService) GetGuildLeaderboard(c *fiber.Ctx) error {
	guildID := c.Params("id")
	if err := s.DB.First(&models.Guild{}, "id = ?", guildID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "guild not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}
	var rows []models.Contribution
	if err := s.DB.Where("guild_id = ?", guildID).
		Order("contribution_score DESC, member_name ASC").
		Find(&rows).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch leaderboard"})
	}
	return c.JSON(fiber.Map{"guild_id": guildID, "entries": rows})
}

// GetMemberContribution looks one member up by name.
func (s *ContributionService) GetMemberContribution(c *fiber.Ctx) error {
	guildID := c.Params("id")
	name := c.Params("member")
	var row models.Contribution
	err := s.DB.Where("guild_id = ? AND member_key = ?", guildID, FoldMemberName(name)).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(404).JSON(fiber.Map{"error": "contribution not found"})
	}
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}
	return c.JSON(row)
}

// IncrementMember is the admin escape hatch for a manual +1.
func (s *ContributionService) IncrementMember(c *fiber.Ctx) error {
	guildID := c.Params("id")
	type Req struct {
		MemberName string  `json:"member_name" validate:"required"`
		MemberID   *string `json:"member_id,omitempty"`
		EventDate  string  `json:"event_date,omitempty"` // RFC3339
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}
	if req.MemberName == "" {
		return c.Status(400).JSON(fiber.Map{"error": "member_name is required"})
	}
	var eventDate *time.Time
	if req.EventDate != "" {
		t, err := time.Parse(time.RFC3339, req.EventDate)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid event_date (use RFC3339)"})
		}
		eventDate = &t
	}
	row, err := s.Increment(guildID, req.MemberName, req.MemberID, eventDate)
	if err != nil {
		if errors.Is(err, ErrConcurrencyConflict) {
			return c.Status(409).JSON(fiber.Map{"error": "conflicting update, retry"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "increment failed"})
	}
	return c.Status(201).JSON(row)
}

// RecomputeGuild triggers the full rebuild.
func (s *ContributionService) RecomputeGuild(c *fiber.Ctx) error {
	guildID := c.Params("id")
	if err := s.DB.First(&models.Guild{}, "id = ?", guildID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "guild not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}
	updated, err := s.Recompute(guildID)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "recompute failed"})
	}
	return c.JSON(fiber.Map{"message": "recompute complete", "rows_updated": updated})
}

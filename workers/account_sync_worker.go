// workers/account_sync_worker.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"boss-tracker-system/models"
	"boss-tracker-system/services"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MirroredAccountFromProfile matches the JSON response from the profile
// sync service.
type MirroredAccountFromProfile struct {
	ID            string     `json:"id"`
	ExternalID    string     `json:"external_id"`
	Username      string     `json:"username"`
	Email         string     `json:"email"`
	CharacterName *string    `json:"character_name,omitempty"`
	AvatarURL     *string    `json:"avatar_url,omitempty"`
	AccountStatus string     `json:"account_status"`
	LastSeen      *time.Time `json:"last_seen,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// GetAccountChangesResponse is the top-level structure of the sync response.
type GetAccountChangesResponse struct {
	Accounts []MirroredAccountFromProfile `json:"accounts"`
}

// AccountSyncWorker keeps the local GuildAccount mirror fresh; the mirror is
// what participant-name resolution runs against.
type AccountSyncWorker struct {
	db           *gorm.DB
	interval     time.Duration
	baseURL      string // e.g., "http://localhost:8500"
	endpointPath string // e.g., "/api/v1/public/profiles"
	serviceToken string
	httpClient   *http.Client
}

func NewAccountSyncWorker(db *gorm.DB, syncServiceBaseURL, endpointPath, serviceToken string) *AccountSyncWorker {
	return &AccountSyncWorker{
		db:           db,
		interval:     1 * time.Minute,
		baseURL:      syncServiceBaseURL,
		endpointPath: endpointPath,
		serviceToken: serviceToken,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (w *AccountSyncWorker) Start(ctx context.Context) {
	log.Println("🔁 Starting Account Sync Worker (profile service → guild_accounts)…")
	go w.run(ctx)
}

func (w *AccountSyncWorker) run(ctx context.Context) {
	// Initial backfill from the beginning of time
	if err := w.syncBatch(ctx, time.Time{}); err != nil {
		log.Printf("⚠️ Initial account sync failed: %v", err)
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := w.syncBatch(ctx, w.getLastSyncTime()); err != nil {
				log.Printf("❌ Account sync batch failed: %v", err)
			}
		case <-ctx.Done():
			log.Println("⏹️ Account Sync Worker stopped")
			return
		}
	}
}

// getLastSyncTime finds the most recent UpdatedAt in the local mirror.
func (w *AccountSyncWorker) getLastSyncTime() time.Time {
	var lastTime time.Time
	err := w.db.Raw("SELECT MAX(updated_at) FROM guild_accounts WHERE deleted_at IS NULL").Scan(&lastTime).Error
	if err != nil || lastTime.IsZero() {
		return time.Unix(0, 0)
	}
	return lastTime
}

// guildAccountFromProfile maps a profile-service account onto the local
// mirror. Both lookup keys are folded so accented usernames and in-game
// names resolve against folded participant names.
func guildAccountFromProfile(remote MirroredAccountFromProfile) models.GuildAccount {
	local := models.GuildAccount{
		ExternalUserID: remote.ExternalID,
		Username:       remote.Username,
		UsernameKey:    services.FoldMemberName(remote.Username),
		Email:          remote.Email,
		CharacterName:  remote.CharacterName,
		AvatarURL:      remote.AvatarURL,
		LastSeen:       remote.LastSeen,
		CreatedAt:      remote.CreatedAt,
		UpdatedAt:      remote.UpdatedAt,
	}
	if remote.CharacterName != nil {
		local.CharacterNameKey = services.FoldMemberName(*remote.CharacterName)
	}
	return local
}

// syncBatch fetches account changes since the given time and upserts them.
func (w *AccountSyncWorker) syncBatch(ctx context.Context, since time.Time) error {
	sinceStr := since.UTC().Format(time.RFC3339)

	base, err := url.Parse(w.baseURL)
	if err != nil {
		return fmt.Errorf("invalid profile sync base URL '%s': %w", w.baseURL, err)
	}
	endpointURL := base.JoinPath(w.endpointPath)
	q := endpointURL.Query()
	q.Set("since", sinceStr)
	endpointURL.RawQuery = q.Encode()
	finalURL := endpointURL.String()

	req, err := http.NewRequestWithContext(ctx, "GET", finalURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request to %s: %w", finalURL, err)
	}
	req.Header.Set("X-Service-Token", w.serviceToken)

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request to profile sync service failed: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("profile sync non-200 response: %d — %s", resp.StatusCode, string(body))
	}

	var response GetAccountChangesResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return fmt.Errorf("failed to decode profile sync response: %w", err)
	}
	if len(response.Accounts) == 0 {
		return nil
	}

	log.Printf("[SYNC] 📥 Processing %d account(s) from profile service…", len(response.Accounts))

	var upsertCount, errorCount int
	for _, remote := range response.Accounts {
		local := guildAccountFromProfile(remote)

		if err := w.db.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "external_user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"username", "username_key", "email", "character_name",
				"character_name_key", "avatar_url", "last_seen",
				"created_at", "updated_at",
			}),
		}).Create(&local).Error; err != nil {
			errorCount++
			log.Printf("[SYNC] ⚠️ Failed to upsert guild_account (external_id=%q, username=%q): %v",
				remote.ExternalID, remote.Username, err)
		} else {
			upsertCount++
		}
	}

	log.Printf("[SYNC] ✅ Synced %d account(s) (%d upserted, %d errors)",
		len(response.Accounts), upsertCount, errorCount)
	return nil
}

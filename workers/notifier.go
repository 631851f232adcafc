// workers/notifier.go
package workers

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"boss-tracker-system/services"
)

// NotifyClient hands alert payloads to the notification gateway, which owns
// the actual push/email/webhook fan-out. Fire-and-forget: failures are
// logged and dropped, never retried here.
type NotifyClient struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

func NewNotifyClient() *NotifyClient {
	baseURL := os.Getenv("NOTIFY_SERVICE_URL")
	if baseURL == "" {
		log.Fatal("NOTIFY_SERVICE_URL environment variable is required")
	}
	token := os.Getenv("TRACKER_SERVICE_TOKEN")
	if token == "" {
		log.Fatal("TRACKER_SERVICE_TOKEN environment variable is required for alert delivery")
	}

	return &NotifyClient{
		BaseURL: baseURL,
		Token:   token,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type deliverRequest struct {
	Channel   string                `json:"channel"`
	Recipient string                `json:"recipient"`
	Payload   services.AlertPayload `json:"payload"`
}

// Deliver posts one alert to the notification gateway.
func (n *NotifyClient) Deliver(channel, recipient string, payload services.AlertPayload) bool {
	body, err := json.Marshal(deliverRequest{
		Channel:   channel,
		Recipient: recipient,
		Payload:   payload,
	})
	if err != nil {
		log.Printf("[NOTIFY] ❌ failed to marshal alert payload: %v", err)
		return false
	}

	req, err := http.NewRequest("POST", n.BaseURL+"/api/v1/notifications/deliver", bytes.NewReader(body))
	if err != nil {
		log.Printf("[NOTIFY] ❌ failed to build delivery request: %v", err)
		return false
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Service-Token", n.Token)

	resp, err := n.HTTPClient.Do(req)
	if err != nil {
		log.Printf("[NOTIFY] ❌ delivery request failed: %v", err)
		return false
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Printf("[NOTIFY] ⚠️ notification gateway returned %d for boss %s (channel=%s)",
			resp.StatusCode, payload.BossName, channel)
		return false
	}
	return true
}

package services

import (
	"testing"
	"time"

	"boss-tracker-system/models"
)

// TestNotificationTimeSubtractsLead computes when a lead-time alert fires.
func TestNotificationTimeSubtractsLead(t *testing.T) {
	next := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	got := NotificationTime(next, 10*time.Minute)
	if !got.Equal(next.Add(-10 * time.Minute)) {
		t.Fatalf("expected notification 10m before spawn, got %v", got)
	}
}

// TestAlertDueWithinLeadWindow fires once the notification time has passed.
func TestAlertDueWithinLeadWindow(t *testing.T) {
	next := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	notif := NotificationTime(next, 10*time.Minute)

	now := next.Add(-9 * time.Minute)
	if !AlertDue(now, notif, next) {
		t.Fatal("expected alert due 9 minutes before spawn with a 10m lead")
	}
	if !AlertDue(notif, notif, next) {
		t.Fatal("expected alert due exactly at the notification time")
	}
}

// TestAlertNotDueBeforeLeadWindow holds off while the lead window is ahead.
func TestAlertNotDueBeforeLeadWindow(t *testing.T) {
	next := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	notif := NotificationTime(next, 10*time.Minute)

	if AlertDue(next.Add(-11*time.Minute), notif, next) {
		t.Fatal("did not expect alert due before the notification time")
	}
}

// TestAlertNotDueAfterSpawnPassed never fires for a lapsed cycle.
func TestAlertNotDueAfterSpawnPassed(t *testing.T) {
	next := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	notif := NotificationTime(next, 10*time.Minute)

	if AlertDue(next, notif, next) {
		t.Fatal("did not expect alert due at spawn time")
	}
	if AlertDue(next.Add(time.Hour), notif, next) {
		t.Fatal("did not expect alert due after spawn passed")
	}
}

// TestLeadDurationUnits converts both supported lead units.
func TestLeadDurationUnits(t *testing.T) {
	minutes := models.AlertPreference{LeadValue: 10, LeadUnit: models.LeadUnitMinutes}
	if minutes.LeadDuration() != 10*time.Minute {
		t.Fatalf("expected 10m, got %v", minutes.LeadDuration())
	}
	seconds := models.AlertPreference{LeadValue: 30, LeadUnit: models.LeadUnitSeconds}
	if seconds.LeadDuration() != 30*time.Second {
		t.Fatalf("expected 30s, got %v", seconds.LeadDuration())
	}
	unknown := models.AlertPreference{LeadValue: 5, LeadUnit: "hours"}
	if unknown.LeadDuration() != 5*time.Minute {
		t.Fatalf("expected unknown units to fall back to minutes, got %v", unknown.LeadDuration())
	}
}

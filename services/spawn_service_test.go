package services

import (
	"errors"
	"testing"
	"time"
)

// TestDuplicateWindowIsSymmetric checks the guard range around a proposal.
func TestDuplicateWindowIsSymmetric(t *testing.T) {
	proposed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	from, to := DuplicateWindow(proposed, 5*time.Minute)
	if !from.Equal(proposed.Add(-5 * time.Minute)) {
		t.Fatalf("expected lower bound 5m before proposal, got %v", from)
	}
	if !to.Equal(proposed.Add(5 * time.Minute)) {
		t.Fatalf("expected upper bound 5m after proposal, got %v", to)
	}
}

// TestDuplicateWindowSeparation documents the guard boundary: a report 3
// minutes from an existing one falls inside the window, 6 minutes falls out.
func TestDuplicateWindowSeparation(t *testing.T) {
	existing := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tolerance := 5 * time.Minute

	within := existing.Add(3 * time.Minute)
	from, to := DuplicateWindow(within, tolerance)
	if existing.Before(from) || existing.After(to) {
		t.Fatal("expected report 3 minutes apart to collide")
	}

	clear := existing.Add(6 * time.Minute)
	from, to = DuplicateWindow(clear, tolerance)
	if !existing.Before(from) && !existing.After(to) {
		t.Fatal("expected report 6 minutes apart to be accepted")
	}
}

// TestValidateSpawnTimeParsesRFC3339 accepts a recent well-formed timestamp.
func TestValidateSpawnTimeParsesRFC3339(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	got, err := ValidateSpawnTime("2025-06-01T11:30:00Z", now, 5*time.Minute)
	if err != nil {
		t.Fatalf("ValidateSpawnTime returned error: %v", err)
	}
	if !got.Equal(now.Add(-30 * time.Minute)) {
		t.Fatalf("unexpected parsed time %v", got)
	}
}

// TestValidateSpawnTimeRejectsGarbage maps parse failures to the timestamp error.
func TestValidateSpawnTimeRejectsGarbage(t *testing.T) {
	_, err := ValidateSpawnTime("yesterday-ish", time.Now(), 5*time.Minute)
	if !errors.Is(err, ErrInvalidTimestamp) {
		t.Fatalf("expected ErrInvalidTimestamp, got %v", err)
	}
}

// TestValidateSpawnTimeEnforcesThirtyDayFloor rejects reports older than the
// retention floor.
func TestValidateSpawnTimeEnforcesThirtyDayFloor(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	old := now.Add(-31 * 24 * time.Hour).Format(time.RFC3339)
	if _, err := ValidateSpawnTime(old, now, 5*time.Minute); !errors.Is(err, ErrInvalidTimestamp) {
		t.Fatalf("expected ErrInvalidTimestamp for 31-day-old report, got %v", err)
	}

	recent := now.Add(-29 * 24 * time.Hour).Format(time.RFC3339)
	if _, err := ValidateSpawnTime(recent, now, 5*time.Minute); err != nil {
		t.Fatalf("expected 29-day-old report to pass, got %v", err)
	}
}

// TestValidateSpawnTimeRejectsFuture allows only clock-skew-sized leads.
func TestValidateSpawnTimeRejectsFuture(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	skewed := now.Add(3 * time.Minute).Format(time.RFC3339)
	if _, err := ValidateSpawnTime(skewed, now, 5*time.Minute); err != nil {
		t.Fatalf("expected small clock skew to pass, got %v", err)
	}
	future := now.Add(time.Hour).Format(time.RFC3339)
	if _, err := ValidateSpawnTime(future, now, 5*time.Minute); !errors.Is(err, ErrInvalidTimestamp) {
		t.Fatalf("expected ErrInvalidTimestamp for future report, got %v", err)
	}
}

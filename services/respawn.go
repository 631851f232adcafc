// services/respawn.go
package services

import (
	"time"

	"boss-tracker-system/models"
)

// TimerState is the computed respawn timer for a boss at a given instant.
type TimerState struct {
	LastSpawn            *time.Time `json:"last_spawn,omitempty"`
	NextSpawn            *time.Time `json:"next_spawn,omitempty"`
	TimeRemainingSeconds int64      `json:"time_remaining_seconds"`
	IsActive             bool       `json:"is_active"`
}

// NextSpawnAt returns base + the configured respawn interval.
func NextSpawnAt(base time.Time, intervalMinutes int) time.Time {
	return base.Add(time.Duration(intervalMinutes) * time.Minute)
}

// ComputeTimer derives the timer state from a boss's stored fields.
// time_remaining clamps at zero once the predicted spawn has passed.
func ComputeTimer(boss *models.Boss, now time.Time) TimerState {
	state := TimerState{LastSpawn: boss.LastSpawn, NextSpawn: boss.NextSpawn}
	if boss.NextSpawn == nil {
		return state
	}
	remaining := int64(boss.NextSpawn.Sub(now) / time.Second)
	if remaining < 0 {
		remaining = 0
	}
	state.TimeRemainingSeconds = remaining
	state.IsActive = now.Before(*boss.NextSpawn)
	return state
}

// ApplySpawn overwrites the boss's timer fields from an accepted spawn report.
// This is the only write path for last_spawn/next_spawn besides
// RetimeFromLatest. When spawnTime is zero (first-report bootstrap with no
// event), the timer starts from now.
func ApplySpawn(boss *models.Boss, spawnTime, now time.Time) {
	base := spawnTime
	if base.IsZero() {
		base = now
	}
	next := NextSpawnAt(base, boss.RespawnIntervalMinutes)
	boss.LastSpawn = &base
	boss.NextSpawn = &next
}

// RetimeFromLatest recomputes the timer from the most recent surviving event,
// or clears it when none remain. Used after deleting the latest spawn report.
func RetimeFromLatest(boss *models.Boss, latest *models.SpawnEvent) {
	if latest == nil {
		boss.LastSpawn = nil
		boss.NextSpawn = nil
		return
	}
	next := NextSpawnAt(latest.SpawnTime, boss.RespawnIntervalMinutes)
	boss.LastSpawn = &latest.SpawnTime
	boss.NextSpawn = &next
}

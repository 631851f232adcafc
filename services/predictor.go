// services/predictor.go
package services

import (
	"math"
	"time"

	"boss-tracker-system/models"
)

// DefaultPredictionCount is how many future spawn points are predicted when
// the caller does not ask for a specific count.
const DefaultPredictionCount = 3

// windowCount is fixed: three successive confidence windows.
const windowCount = 3

// SpawnWindow is one predicted spawn range with a confidence percentage.
type SpawnWindow struct {
	Predicted  time.Time `json:"predicted"`
	WindowFrom time.Time `json:"window_from"`
	WindowTo   time.Time `json:"window_to"`
	Confidence int       `json:"confidence"`
}

// PredictionReport bundles everything the predictions endpoint returns.
type PredictionReport struct {
	AccuracyPercent        int           `json:"accuracy_percent"`
	AverageIntervalMinutes float64       `json:"average_interval_minutes"`
	EventCount             int           `json:"event_count"`
	PointPredictions       []time.Time   `json:"point_predictions"`
	Windows                []SpawnWindow `json:"windows"`
}

// intervalsMinutes computes consecutive inter-arrival intervals, in minutes,
// from events sorted ascending by spawn_time.
func intervalsMinutes(events []models.SpawnEvent) []float64 {
	if len(events) < 2 {
		return nil
	}
	out := make([]float64, 0, len(events)-1)
	for i := 1; i < len(events); i++ {
		gap := events[i].SpawnTime.Sub(events[i-1].SpawnTime)
		out = append(out, gap.Minutes())
	}
	return out
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stddev is the population standard deviation.
func stddev(values []float64, avg float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sq float64
	for _, v := range values {
		d := v - avg
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(values)))
}

// SpawnAccuracy measures how closely the observed inter-arrival intervals
// match the configured one, as a 0–100 percentage. Fewer than 2 events yields
// 0 rather than an error; read paths stay lenient on thin history.
func SpawnAccuracy(events []models.SpawnEvent, configuredMinutes int) (accuracy int, avgInterval float64) {
	intervals := intervalsMinutes(events)
	if len(intervals) == 0 || configuredMinutes <= 0 {
		return 0, 0
	}
	avgInterval = mean(intervals)
	deviation := math.Abs(avgInterval-float64(configuredMinutes)) / float64(configuredMinutes) * 100
	pct := 100 - deviation
	if pct < 0 {
		pct = 0
	}
	return int(math.Round(pct)), avgInterval
}

// PointPredictions projects count future spawn times from the most recent
// event using the *configured* interval, not the empirical average. Empty
// when no events exist.
func PointPredictions(events []models.SpawnEvent, configuredMinutes, count int) []time.Time {
	if len(events) == 0 {
		return nil
	}
	if count <= 0 {
		count = DefaultPredictionCount
	}
	last := events[len(events)-1].SpawnTime
	out := make([]time.Time, 0, count)
	for i := 1; i <= count; i++ {
		out = append(out, last.Add(time.Duration(i*configuredMinutes)*time.Minute))
	}
	return out
}

// ConfidenceWindows produces three successive [predicted−σ, predicted+σ]
// ranges from the empirical mean interval, each with
// confidence = max(0, 100 − σ/μ×100). Requires at least 3 events; fewer
// returns an empty list.
func ConfidenceWindows(events []models.SpawnEvent) []SpawnWindow {
	if len(events) < 3 {
		return nil
	}
	intervals := intervalsMinutes(events)
	avg := mean(intervals)
	if avg <= 0 {
		return nil
	}
	sigma := stddev(intervals, avg)

	confidence := 100 - sigma/avg*100
	if confidence < 0 {
		confidence = 0
	}
	rounded := int(math.Round(confidence))

	meanGap := time.Duration(avg * float64(time.Minute))
	spread := time.Duration(sigma * float64(time.Minute))

	predicted := events[len(events)-1].SpawnTime.Add(meanGap)
	windows := make([]SpawnWindow, 0, windowCount)
	for i := 0; i < windowCount; i++ {
		windows = append(windows, SpawnWindow{
			Predicted:  predicted,
			WindowFrom: predicted.Add(-spread),
			WindowTo:   predicted.Add(spread),
			Confidence: rounded,
		})
		predicted = predicted.Add(meanGap)
	}
	return windows
}

// BuildPredictionReport runs the full read-only prediction pass over a boss's
// chronologically sorted event history.
func BuildPredictionReport(events []models.SpawnEvent, configuredMinutes, count int) PredictionReport {
	accuracy, avg := SpawnAccuracy(events, configuredMinutes)
	return PredictionReport{
		AccuracyPercent:        accuracy,
		AverageIntervalMinutes: avg,
		EventCount:             len(events),
		PointPredictions:       PointPredictions(events, configuredMinutes, count),
		Windows:                ConfidenceWindows(events),
	}
}

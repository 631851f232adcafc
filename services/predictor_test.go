package services

import (
	"testing"
	"time"

	"boss-tracker-system/models"
)

func eventsAt(base time.Time, offsets ...time.Duration) []models.SpawnEvent {
	out := make([]models.SpawnEvent, 0, len(offsets))
	for _, off := range offsets {
		out = append(out, models.SpawnEvent{SpawnTime: base.Add(off)})
	}
	return out
}

var predictorBase = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

// TestSpawnAccuracyAgainstConfiguredInterval checks the documented case:
// intervals of 60 and 62 minutes against a configured 60 give 98%.
func TestSpawnAccuracyAgainstConfiguredInterval(t *testing.T) {
	events := eventsAt(predictorBase, 0, 60*time.Minute, 122*time.Minute)
	accuracy, avg := SpawnAccuracy(events, 60)
	if avg != 61 {
		t.Fatalf("expected average interval 61, got %v", avg)
	}
	if accuracy != 98 {
		t.Fatalf("expected accuracy 98, got %d", accuracy)
	}
}

// TestSpawnAccuracyNeedsTwoEvents ensures thin history yields 0, not an error.
func TestSpawnAccuracyNeedsTwoEvents(t *testing.T) {
	accuracy, avg := SpawnAccuracy(eventsAt(predictorBase, 0), 60)
	if accuracy != 0 || avg != 0 {
		t.Fatalf("expected zero accuracy with one event, got %d (avg %v)", accuracy, avg)
	}
	accuracy, _ = SpawnAccuracy(nil, 60)
	if accuracy != 0 {
		t.Fatalf("expected zero accuracy with no events, got %d", accuracy)
	}
}

// TestSpawnAccuracyFloorsAtZero ensures wild drift cannot go negative.
func TestSpawnAccuracyFloorsAtZero(t *testing.T) {
	events := eventsAt(predictorBase, 0, 300*time.Minute)
	accuracy, _ := SpawnAccuracy(events, 60)
	if accuracy != 0 {
		t.Fatalf("expected accuracy floored at 0, got %d", accuracy)
	}
}

// TestPointPredictionsUseConfiguredInterval ensures projections step by the
// configured interval from the last event, not the empirical average.
func TestPointPredictionsUseConfiguredInterval(t *testing.T) {
	events := eventsAt(predictorBase, 0, 70*time.Minute)
	points := PointPredictions(events, 60, 3)
	if len(points) != 3 {
		t.Fatalf("expected 3 predictions, got %d", len(points))
	}
	last := events[1].SpawnTime
	for i, p := range points {
		want := last.Add(time.Duration((i+1)*60) * time.Minute)
		if !p.Equal(want) {
			t.Fatalf("prediction %d: expected %v, got %v", i, want, p)
		}
	}
}

// TestPointPredictionsEmptyWithoutEvents ensures no events means no points.
func TestPointPredictionsEmptyWithoutEvents(t *testing.T) {
	if points := PointPredictions(nil, 60, 3); len(points) != 0 {
		t.Fatalf("expected no predictions, got %d", len(points))
	}
}

// TestConfidenceWindowsRequireThreeEvents ensures two events compute accuracy
// but produce no windows.
func TestConfidenceWindowsRequireThreeEvents(t *testing.T) {
	events := eventsAt(predictorBase, 0, 60*time.Minute)
	if windows := ConfidenceWindows(events); len(windows) != 0 {
		t.Fatalf("expected no windows with 2 events, got %d", len(windows))
	}
	accuracy, _ := SpawnAccuracy(events, 60)
	if accuracy == 0 {
		t.Fatal("expected accuracy to still be computed with 2 events")
	}
}

// TestConfidenceWindowsSpreadAndConfidence checks window geometry for
// intervals 60 and 62: mean 61, population stddev 1, confidence 98.
func TestConfidenceWindowsSpreadAndConfidence(t *testing.T) {
	events := eventsAt(predictorBase, 0, 60*time.Minute, 122*time.Minute)
	windows := ConfidenceWindows(events)
	if len(windows) != 3 {
		t.Fatalf("expected 3 windows, got %d", len(windows))
	}

	last := events[2].SpawnTime
	meanGap := 61 * time.Minute
	spread := 1 * time.Minute
	for i, w := range windows {
		predicted := last.Add(time.Duration(i+1) * meanGap)
		if !w.Predicted.Equal(predicted) {
			t.Fatalf("window %d: expected predicted %v, got %v", i, predicted, w.Predicted)
		}
		if !w.WindowFrom.Equal(predicted.Add(-spread)) || !w.WindowTo.Equal(predicted.Add(spread)) {
			t.Fatalf("window %d: unexpected range [%v, %v]", i, w.WindowFrom, w.WindowTo)
		}
		if w.Confidence != 98 {
			t.Fatalf("window %d: expected confidence 98, got %d", i, w.Confidence)
		}
	}
}

// TestBuildPredictionReportBundlesEverything sanity-checks the combined
// read path on a steady history.
func TestBuildPredictionReportBundlesEverything(t *testing.T) {
	events := eventsAt(predictorBase, 0, 60*time.Minute, 120*time.Minute, 180*time.Minute)
	report := BuildPredictionReport(events, 60, 2)
	if report.AccuracyPercent != 100 {
		t.Fatalf("expected accuracy 100 on perfect history, got %d", report.AccuracyPercent)
	}
	if report.EventCount != 4 {
		t.Fatalf("expected event count 4, got %d", report.EventCount)
	}
	if len(report.PointPredictions) != 2 {
		t.Fatalf("expected 2 point predictions, got %d", len(report.PointPredictions))
	}
	if len(report.Windows) != 3 {
		t.Fatalf("expected 3 windows, got %d", len(report.Windows))
	}
	for _, w := range report.Windows {
		if w.Confidence != 100 {
			t.Fatalf("expected confidence 100 with zero deviation, got %d", w.Confidence)
		}
		if !w.WindowFrom.Equal(w.Predicted) || !w.WindowTo.Equal(w.Predicted) {
			t.Fatal("expected degenerate windows with zero deviation")
		}
	}
}

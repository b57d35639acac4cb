package trends

import (
	"reflect"
	"testing"
	"time"

	"roomsense/internal/models"
)

func sample(sensor string, value float64, ts string) models.PresenceSample {
	parsed, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		panic(err)
	}
	return models.PresenceSample{ExternalID: sensor, Value: value, RecordedAt: parsed}
}

func TestPresenceByMinuteSumsAcrossDevices(t *testing.T) {
	samples := []models.PresenceSample{
		sample("m-1", 1, "2025-09-16T10:00:12Z"),
		sample("m-2", 1, "2025-09-16T10:00:48Z"),
		sample("m-1", 1, "2025-09-16T10:01:05Z"),
	}

	points := PresenceByMinute(samples)
	if len(points) != 2 {
		t.Fatalf("expected 2 buckets, got %d", len(points))
	}
	first := points[0]
	if !first.Timestamp.Equal(time.Date(2025, 9, 16, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected minute-truncated bucket, got %v", first.Timestamp)
	}
	// Two sensors in the same minute sum, they do not overwrite.
	if first.Value != 2 {
		t.Fatalf("expected sum 2 in first bucket, got %v", first.Value)
	}
	if points[1].Value != 1 {
		t.Fatalf("expected 1 in second bucket, got %v", points[1].Value)
	}
}

func TestPresenceByMinuteIsOrderIndependent(t *testing.T) {
	ordered := []models.PresenceSample{
		sample("m-1", 1, "2025-09-16T10:00:12Z"),
		sample("m-2", 1, "2025-09-16T10:00:48Z"),
		sample("m-3", 1, "2025-09-16T10:02:30Z"),
	}
	shuffled := []models.PresenceSample{ordered[2], ordered[0], ordered[1]}

	a := PresenceByMinute(ordered)
	b := PresenceByMinute(shuffled)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("reordering input changed output: %v vs %v", a, b)
	}

	// Re-running on the same input is idempotent.
	if !reflect.DeepEqual(a, PresenceByMinute(ordered)) {
		t.Fatal("repeated aggregation changed output")
	}
}

func TestPresenceByMinuteTimestampsStrictlyIncrease(t *testing.T) {
	samples := []models.PresenceSample{
		sample("m-1", 1, "2025-09-16T10:05:00Z"),
		sample("m-1", 1, "2025-09-16T10:00:00Z"),
		sample("m-2", 1, "2025-09-16T10:05:59Z"),
		sample("m-2", 1, "2025-09-16T10:03:00Z"),
	}

	points := PresenceByMinute(samples)
	for i := 1; i < len(points); i++ {
		if !points[i].Timestamp.After(points[i-1].Timestamp) {
			t.Fatalf("timestamps not strictly increasing: %v", points)
		}
	}
}

func TestPresenceByMinuteEmptyInput(t *testing.T) {
	if points := PresenceByMinute(nil); points != nil {
		t.Fatalf("expected nil, got %v", points)
	}
}

func reading(metric string, value float64, ts string) models.Reading {
	parsed, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		panic(err)
	}
	return models.Reading{MetricID: metric, Value: value, Timestamp: parsed}
}

func TestRollupModes(t *testing.T) {
	readings := []models.Reading{
		reading("1", 22.5, "2025-09-16T10:00:00Z"),
		reading("1", 23.0, "2025-09-16T10:00:30Z"),
	}

	last := Rollup(readings, time.Minute, ModeLast)
	if len(last) != 1 || last[0].Value != 23.0 {
		t.Fatalf("expected last-value 23.0, got %v", last)
	}

	sum := Rollup(readings, time.Minute, ModeSum)
	if len(sum) != 1 || sum[0].Value != 45.5 {
		t.Fatalf("expected sum 45.5, got %v", sum)
	}
}

func TestRollupGranularityIsCallerSupplied(t *testing.T) {
	readings := []models.Reading{
		reading("9", 100, "2025-09-16T10:05:00Z"),
		reading("9", 200, "2025-09-16T10:55:00Z"),
		reading("9", 300, "2025-09-16T11:05:00Z"),
	}

	hourly := Rollup(readings, time.Hour, ModeSum)
	if len(hourly) != 2 {
		t.Fatalf("expected 2 hourly buckets, got %v", hourly)
	}
	if hourly[0].Value != 300 || hourly[1].Value != 300 {
		t.Fatalf("unexpected hourly sums: %v", hourly)
	}
}

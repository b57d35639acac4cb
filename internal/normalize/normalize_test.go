package normalize

import (
	"testing"
	"time"

	"roomsense/internal/models"
)

func findMetric(t *testing.T, readings []models.Reading, metricID string) models.Reading {
	t.Helper()
	for _, r := range readings {
		if r.MetricID == metricID {
			return r
		}
	}
	t.Fatalf("metric %q not found in %v", metricID, readings)
	return models.Reading{}
}

func TestNormalizeEnvelopeShapes(t *testing.T) {
	row := `{"metric":"1","value":22.5,"time":"2025-09-16T10:00:00Z"}`
	cases := []struct {
		name    string
		payload string
	}{
		{"bare array", `[` + row + `]`},
		{"readings", `{"readings":[` + row + `]}`},
		{"measurements", `{"measurements":[` + row + `]}`},
		{"nested data.readings", `{"data":{"readings":[` + row + `]}}`},
		{"items", `{"items":[` + row + `]}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			readings := Normalize([]byte(tc.payload), "")
			if len(readings) != 1 {
				t.Fatalf("expected 1 reading, got %d", len(readings))
			}
			r := readings[0]
			if r.MetricID != "1" || r.Value != 22.5 {
				t.Fatalf("unexpected reading %+v", r)
			}
			if r.MetricName != "Temperature" {
				t.Fatalf("expected resolved metric name, got %q", r.MetricName)
			}
		})
	}
}

func TestNormalizeDropsInvalidRows(t *testing.T) {
	payload := `[
		{"metric":"1","value":22.5,"time":"2025-09-16T10:00:00Z"},
		{"value":99.9,"time":"2025-09-16T10:00:00Z"},
		{"metric":"2","time":"2025-09-16T10:00:00Z"},
		{"metric":"3","value":"not-a-number"},
		{"metric":"4","value":1013.25}
	]`

	readings := Normalize([]byte(payload), "")
	if len(readings) != 2 {
		t.Fatalf("expected 2 readings, got %d: %v", len(readings), readings)
	}
	findMetric(t, readings, "1")
	findMetric(t, readings, "4")
}

func TestNormalizeSensorFilter(t *testing.T) {
	payload := `[
		{"metric":"1","value":1,"sensor":"s-1"},
		{"metric":"2","value":2,"sensor":"s-2"},
		{"metric":"3","value":3}
	]`

	readings := Normalize([]byte(payload), "s-1")
	if len(readings) != 2 {
		t.Fatalf("expected 2 readings, got %d: %v", len(readings), readings)
	}
	// Matching rows stay, rows without a per-row sensor id pass through.
	findMetric(t, readings, "1")
	findMetric(t, readings, "3")
}

func TestNormalizeCompactAliases(t *testing.T) {
	payload := `[{"n":"7","v":1,"u":"bool","t":1758016800}]`

	readings := Normalize([]byte(payload), "")
	if len(readings) != 1 {
		t.Fatalf("expected 1 reading, got %d", len(readings))
	}
	r := readings[0]
	if r.MetricName != "Motion" || r.Value != 1 || r.Unit != "bool" {
		t.Fatalf("unexpected reading %+v", r)
	}
	expected := time.Unix(1758016800, 0).UTC()
	if !r.Timestamp.Equal(expected) {
		t.Fatalf("expected timestamp %v, got %v", expected, r.Timestamp)
	}
}

func TestNormalizeDuplicateMetricKeepsLatest(t *testing.T) {
	payload := `[
		{"metric":"1","value":23.0,"time":"2025-09-16T10:00:30Z"},
		{"metric":"1","value":22.5,"time":"2025-09-16T10:00:00Z"}
	]`

	readings := Normalize([]byte(payload), "")
	if len(readings) != 1 {
		t.Fatalf("expected 1 reading, got %d", len(readings))
	}
	if readings[0].Value != 23.0 {
		t.Fatalf("expected latest value 23.0, got %v", readings[0].Value)
	}
}

func TestNormalizeMissingTimestampDefaults(t *testing.T) {
	fixed := time.Date(2025, 9, 16, 12, 0, 0, 0, time.UTC)
	original := now
	now = func() time.Time { return fixed }
	defer func() { now = original }()

	readings := Normalize([]byte(`[{"metric":"1","value":22.5}]`), "")
	if len(readings) != 1 {
		t.Fatalf("expected 1 reading, got %d", len(readings))
	}
	if !readings[0].Timestamp.Equal(fixed) {
		t.Fatalf("expected default timestamp %v, got %v", fixed, readings[0].Timestamp)
	}
}

func TestNormalizeUnknownEnvelope(t *testing.T) {
	if readings := Normalize([]byte(`{"unexpected":{"rows":[]}}`), ""); readings != nil {
		t.Fatalf("expected nil, got %v", readings)
	}
	if readings := Normalize([]byte(`not json`), ""); readings != nil {
		t.Fatalf("expected nil, got %v", readings)
	}
}

func TestNormalizeSynthesizedMetricName(t *testing.T) {
	readings := Normalize([]byte(`[{"metric":"42","value":1}]`), "")
	if len(readings) != 1 {
		t.Fatalf("expected 1 reading, got %d", len(readings))
	}
	if readings[0].MetricName != "Metric 42" {
		t.Fatalf("expected synthesized name, got %q", readings[0].MetricName)
	}
}

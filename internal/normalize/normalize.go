package normalize

import (
	"encoding/json"
	"strconv"
	"time"

	"roomsense/internal/models"
	"roomsense/internal/units"
)

// now is swapped out by tests that need deterministic fallback timestamps.
var now = func() time.Time { return time.Now().UTC() }

type rawRow map[string]any

// envelope unwraps one known upstream response shape, returning false when the
// payload is not in that shape. Upstream API versions disagree on the envelope,
// so the normalizer tries each in priority order and every other component sees
// exactly one shape.
type envelope func(decoded any) ([]rawRow, bool)

var envelopes = []envelope{
	unwrapBareArray,
	unwrapKey("readings"),
	unwrapKey("measurements"),
	unwrapNested("data", "readings"),
	unwrapKey("items"),
}

// Normalize converts a raw telemetry payload into canonical readings. Rows
// with an unresolvable metric id or a non-numeric value are dropped, not
// errored: that is a data-quality filter. When sensorFilter is non-empty, rows
// carrying a different sensor id are dropped too; rows without a per-row sensor
// id pass, since not every payload embeds one. Duplicate metrics collapse to
// the observation with the latest timestamp. Output order is unspecified.
func Normalize(payload []byte, sensorFilter string) []models.Reading {
	rows := unwrap(payload)
	if len(rows) == 0 {
		return nil
	}

	latest := make(map[string]models.Reading, len(rows))
	for _, row := range rows {
		reading, ok := normalizeRow(row, sensorFilter)
		if !ok {
			continue
		}
		if prev, exists := latest[reading.MetricID]; exists && prev.Timestamp.After(reading.Timestamp) {
			continue
		}
		latest[reading.MetricID] = reading
	}

	if len(latest) == 0 {
		return nil
	}
	readings := make([]models.Reading, 0, len(latest))
	for _, r := range latest {
		readings = append(readings, r)
	}
	return readings
}

func unwrap(payload []byte) []rawRow {
	var decoded any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return nil
	}
	for _, env := range envelopes {
		if rows, ok := env(decoded); ok {
			return rows
		}
	}
	return nil
}

func unwrapBareArray(decoded any) ([]rawRow, bool) {
	arr, ok := decoded.([]any)
	if !ok {
		return nil, false
	}
	return toRows(arr), true
}

func unwrapKey(key string) envelope {
	return func(decoded any) ([]rawRow, bool) {
		obj, ok := decoded.(map[string]any)
		if !ok {
			return nil, false
		}
		arr, ok := obj[key].([]any)
		if !ok {
			return nil, false
		}
		return toRows(arr), true
	}
}

func unwrapNested(outer, inner string) envelope {
	return func(decoded any) ([]rawRow, bool) {
		obj, ok := decoded.(map[string]any)
		if !ok {
			return nil, false
		}
		nested, ok := obj[outer].(map[string]any)
		if !ok {
			return nil, false
		}
		arr, ok := nested[inner].([]any)
		if !ok {
			return nil, false
		}
		return toRows(arr), true
	}
}

func toRows(arr []any) []rawRow {
	rows := make([]rawRow, 0, len(arr))
	for _, item := range arr {
		if row, ok := item.(map[string]any); ok {
			rows = append(rows, row)
		}
	}
	return rows
}

// Field alias lists cover the verbose JSON convention and the compact
// SenML-like one emitted by older API versions.
var (
	metricAliases = []string{"metric", "metricId", "metric_id", "n"}
	valueAliases  = []string{"value", "v", "val"}
	unitAliases   = []string{"unit", "u"}
	timeAliases   = []string{"time", "timestamp", "ts", "t"}
	sensorAliases = []string{"sensor", "sensorId", "sensor_id", "bn"}
)

func normalizeRow(row rawRow, sensorFilter string) (models.Reading, bool) {
	metricID, ok := stringField(row, metricAliases)
	if !ok || metricID == "" {
		return models.Reading{}, false
	}

	value, ok := numericField(row, valueAliases)
	if !ok {
		return models.Reading{}, false
	}

	if sensorFilter != "" {
		if sensorID, present := stringField(row, sensorAliases); present && sensorID != sensorFilter {
			return models.Reading{}, false
		}
	}

	unit, _ := stringField(row, unitAliases)

	timestamp, ok := timeField(row, timeAliases)
	if !ok {
		// Missing timestamp defaults to normalization time by policy.
		timestamp = now()
	}

	return models.Reading{
		MetricID:   metricID,
		MetricName: units.MetricName(metricID),
		Value:      value,
		Unit:       unit,
		Timestamp:  timestamp,
	}, true
}

func stringField(row rawRow, aliases []string) (string, bool) {
	for _, alias := range aliases {
		raw, ok := row[alias]
		if !ok {
			continue
		}
		switch v := raw.(type) {
		case string:
			return v, true
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64), true
		}
	}
	return "", false
}

func timeField(row rawRow, aliases []string) (time.Time, bool) {
	for _, alias := range aliases {
		raw, ok := row[alias]
		if !ok {
			continue
		}
		switch v := raw.(type) {
		case string:
			if parsed, err := time.Parse(time.RFC3339, v); err == nil {
				return parsed, true
			}
		case float64:
			return time.Unix(int64(v), 0).UTC(), true
		}
	}
	return time.Time{}, false
}

func numericField(row rawRow, aliases []string) (float64, bool) {
	for _, alias := range aliases {
		raw, ok := row[alias]
		if !ok {
			continue
		}
		switch v := raw.(type) {
		case float64:
			return v, true
		case string:
			if parsed, err := strconv.ParseFloat(v, 64); err == nil {
				return parsed, true
			}
		}
	}
	return 0, false
}

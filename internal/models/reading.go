package models

import "time"

// UnitBoolean marks boolean-like metrics (motion) that carry no physical unit.
const UnitBoolean = "bool"

// Reading is one (metric, value, time) observation from one physical sensor.
type Reading struct {
	MetricID   string    `json:"metric_id"`
	MetricName string    `json:"metric_name"`
	Value      float64   `json:"value"`
	Unit       string    `json:"unit"`
	Timestamp  time.Time `json:"timestamp"`
}

// SensorBundle aggregates all current readings for one physical sensor.
// Built fresh on every fetch and superseded, never merged, by the next one.
type SensorBundle struct {
	SensorID   string    `json:"sensor_id"`
	SensorName string    `json:"sensor_name"`
	SensorType string    `json:"sensor_type"`
	Part       string    `json:"part,omitempty"`
	Readings   []Reading `json:"readings"`
	LastUpdate time.Time `json:"last_update"`
}

// FindReading returns the bundle's reading for a metric name, or nil.
func (b *SensorBundle) FindReading(metricName string) *Reading {
	for i := range b.Readings {
		if b.Readings[i].MetricName == metricName {
			return &b.Readings[i]
		}
	}
	return nil
}

// SensorRef identifies one sensor to fetch, with an optional sub-location tag
// for suites split across multiple logical rooms.
type SensorRef struct {
	Provider   Provider `json:"provider"`
	ExternalID string   `json:"external_id"`
	Part       string   `json:"part,omitempty"`
}

// TrendPoint is one aggregated bucket of a chart series.
type TrendPoint struct {
	Timestamp time.Time `json:"created_at"`
	Value     float64   `json:"value"`
}

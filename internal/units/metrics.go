package units

import "fmt"

// metricNames maps well-known provider metric codes to canonical labels. The
// environmental cloud numbers its metrics, the hub cloud uses resource-path
// strings; both namespaces live in one table since they never collide.
var metricNames = map[string]string{
	"1": "Temperature",
	"2": "Humidity",
	"3": "CO₂",
	"4": "Atmospheric Pressure",
	"5": "RSSI",
	"6": "Battery voltage",
	"7": "Motion",
	"8": "Illuminance",
	"9": "Power",

	"3.51.85":  "Motion",
	"8.0.2008": "Battery voltage",
	"0.4.85":   "RSSI",
	"3.1.85":   "Illuminance",
	"0.1.85":   "Temperature",
}

// MetricName returns the canonical label for a metric code, or a synthesized
// fallback for codes outside the table.
func MetricName(metricID string) string {
	if name, ok := metricNames[metricID]; ok {
		return name
	}
	return fmt.Sprintf("Metric %s", metricID)
}

// KnownMetric reports whether the code has a canonical label.
func KnownMetric(metricID string) bool {
	_, ok := metricNames[metricID]
	return ok
}

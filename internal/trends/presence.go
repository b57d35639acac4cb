package trends

import (
	"sort"
	"time"

	"roomsense/internal/models"
)

// PresenceByMinute buckets raw presence samples to minute boundaries and sums
// values per bucket across all devices. Summing, not last-value: multiple
// independent motion sensors covering one area must not undercount
// simultaneous detections. Double counting of one sensor's repeated polls is
// prevented upstream, at ingestion, where unchanged samples are not persisted.
// Points come back sorted with strictly increasing unique timestamps.
func PresenceByMinute(samples []models.PresenceSample) []models.TrendPoint {
	if len(samples) == 0 {
		return nil
	}

	sums := make(map[time.Time]float64)
	for _, s := range samples {
		bucket := s.RecordedAt.UTC().Truncate(time.Minute)
		sums[bucket] += s.Value
	}

	points := make([]models.TrendPoint, 0, len(sums))
	for bucket, sum := range sums {
		points = append(points, models.TrendPoint{Timestamp: bucket, Value: sum})
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].Timestamp.Before(points[j].Timestamp)
	})
	return points
}

// BucketMode selects the aggregation semantics within one bucket.
type BucketMode int

const (
	// ModeSum adds all raw values in a bucket. Used for counts and energy.
	ModeSum BucketMode = iota
	// ModeLast keeps the most recent value in a bucket. Used for
	// environmental metrics where summing two temperatures is meaningless.
	ModeLast
)

// Rollup buckets readings into caller-supplied granularity. Granularity is
// never inferred from the data.
func Rollup(readings []models.Reading, bucket time.Duration, mode BucketMode) []models.TrendPoint {
	if len(readings) == 0 || bucket <= 0 {
		return nil
	}

	type slot struct {
		value  float64
		latest time.Time
	}
	slots := make(map[time.Time]*slot)
	for _, r := range readings {
		key := r.Timestamp.UTC().Truncate(bucket)
		s, ok := slots[key]
		if !ok {
			s = &slot{}
			slots[key] = s
		}
		switch mode {
		case ModeLast:
			if s.latest.IsZero() || !r.Timestamp.Before(s.latest) {
				s.value = r.Value
				s.latest = r.Timestamp
			}
		default:
			s.value += r.Value
		}
	}

	points := make([]models.TrendPoint, 0, len(slots))
	for key, s := range slots {
		points = append(points, models.TrendPoint{Timestamp: key, Value: s.value})
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].Timestamp.Before(points[j].Timestamp)
	})
	return points
}

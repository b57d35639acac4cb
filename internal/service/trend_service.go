package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"roomsense/internal/models"
	"roomsense/internal/trends"
)

// PresenceSource supplies deduplicated presence samples.
type PresenceSource interface {
	InsertIfChanged(ctx context.Context, sample models.PresenceSample) (bool, error)
	FetchWindow(ctx context.Context, floorID int64, from, to time.Time) ([]models.PresenceSample, error)
}

// FloorSource lists floors of a building.
type FloorSource interface {
	ListFloors(ctx context.Context, buildingID int64) ([]models.Floor, error)
}

// FloorTrend is one floor's presence series.
type FloorTrend struct {
	FloorID int64               `json:"floor_id"`
	Points  []models.TrendPoint `json:"points"`
}

// PresenceTrend is the chart-ready per-floor comparison series.
type PresenceTrend struct {
	From   time.Time    `json:"from"`
	To     time.Time    `json:"to"`
	Floors []FloorTrend `json:"floors"`
}

// TrendService produces time-bucketed presence series for charting.
type TrendService struct {
	presence PresenceSource
	floors   FloorSource
	logger   *zap.Logger
}

// NewTrendService returns service instance.
func NewTrendService(presence PresenceSource, floors FloorSource, logger *zap.Logger) *TrendService {
	return &TrendService{presence: presence, floors: floors, logger: logger}
}

// FloorPresence returns per-minute presence sums for every floor of a
// building over a window. A floor with no samples contributes an empty series
// rather than dropping out of the comparison.
func (s *TrendService) FloorPresence(ctx context.Context, buildingID int64, from, to time.Time) (PresenceTrend, error) {
	floors, err := s.floors.ListFloors(ctx, buildingID)
	if err != nil {
		return PresenceTrend{}, err
	}

	trend := PresenceTrend{From: from.UTC(), To: to.UTC()}
	for _, floor := range floors {
		samples, err := s.presence.FetchWindow(ctx, floor.ID, from, to)
		if err != nil {
			return PresenceTrend{}, err
		}
		trend.Floors = append(trend.Floors, FloorTrend{
			FloorID: floor.ID,
			Points:  trends.PresenceByMinute(samples),
		})
	}
	return trend, nil
}

// IngestPresence stores one raw presence sample, deduplicated against the
// previous stored value for the same external sensor id.
func (s *TrendService) IngestPresence(ctx context.Context, sample models.PresenceSample) (bool, error) {
	if sample.RecordedAt.IsZero() {
		sample.RecordedAt = time.Now().UTC()
	}
	stored, err := s.presence.InsertIfChanged(ctx, sample)
	if err != nil {
		return false, err
	}
	if !stored {
		s.logger.Debug("presence sample unchanged, skipped", zap.String("sensor", sample.ExternalID))
	}
	return stored, nil
}

package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"roomsense/internal/models"
	"roomsense/internal/providers/envcloud"
	"roomsense/internal/providers/hubcloud"
)

// EnvClient is the environmental-cloud surface the service needs.
type EnvClient interface {
	FetchCurrentMetrics(ctx context.Context, sensorID string) ([]models.Reading, error)
	FetchHistory(ctx context.Context, sensorID, metricID string, from, to time.Time, limit int) ([]models.Reading, error)
	FetchSensorInfo(ctx context.Context, sensorID string) (envcloud.SensorInfo, error)
}

// HubClient is the hub-cloud surface the service needs.
type HubClient interface {
	QueryResources(ctx context.Context, deviceIDs []string) (map[string][]models.Reading, error)
	Registry() *hubcloud.Registry
}

// BatchFetcher fans out many sensor fetches, returning the successful subset.
type BatchFetcher interface {
	FetchMany(ctx context.Context, refs []models.SensorRef) []models.SensorBundle
}

// SensorService builds sensor bundles from both providers. It also backs the
// aggregator's per-provider fetch interfaces.
type SensorService struct {
	env    EnvClient
	hub    HubClient
	batch  BatchFetcher
	logger *zap.Logger
}

// NewSensorService returns service instance. The aggregator is attached later
// via SetBatchFetcher because it is constructed on top of this service.
func NewSensorService(env EnvClient, hub HubClient, logger *zap.Logger) *SensorService {
	return &SensorService{env: env, hub: hub, logger: logger}
}

// SetBatchFetcher wires the aggregator once it exists.
func (s *SensorService) SetBatchFetcher(batch BatchFetcher) {
	s.batch = batch
}

// GetSensorData returns the current bundle for one sensor.
func (s *SensorService) GetSensorData(ctx context.Context, ref models.SensorRef) (models.SensorBundle, error) {
	if ref.Provider == models.ProviderHubCloud {
		bundles, err := s.FetchBatch(ctx, []models.SensorRef{ref})
		if err != nil {
			return models.SensorBundle{}, err
		}
		if len(bundles) == 0 {
			return models.SensorBundle{}, fmt.Errorf("sensor %s: no readings", ref.ExternalID)
		}
		return bundles[0], nil
	}
	return s.FetchSensor(ctx, ref)
}

// GetMultipleSensorsData fetches many bundles best-effort.
func (s *SensorService) GetMultipleSensorsData(ctx context.Context, refs []models.SensorRef) []models.SensorBundle {
	return s.batch.FetchMany(ctx, refs)
}

// HistoryResult is a history page with its canonical resource path.
type HistoryResult struct {
	Readings []models.Reading `json:"readings"`
	Self     string           `json:"self,omitempty"`
}

// GetSensorHistory returns historical readings for one metric of one sensor.
func (s *SensorService) GetSensorHistory(ctx context.Context, sensorID, metricID string, from, to time.Time, limit int) (HistoryResult, error) {
	readings, err := s.env.FetchHistory(ctx, sensorID, metricID, from, to, limit)
	if err != nil {
		return HistoryResult{}, err
	}
	return HistoryResult{
		Readings: readings,
		Self:     fmt.Sprintf("/api/sensors/%s/history?metric=%s", sensorID, metricID),
	}, nil
}

// FetchSensor implements the aggregator's environmental fetch. Sensor
// metadata failing to load degrades the bundle's name, not the fetch.
func (s *SensorService) FetchSensor(ctx context.Context, ref models.SensorRef) (models.SensorBundle, error) {
	readings, err := s.env.FetchCurrentMetrics(ctx, ref.ExternalID)
	if err != nil {
		return models.SensorBundle{}, err
	}

	bundle := models.SensorBundle{
		SensorID:   ref.ExternalID,
		SensorName: ref.ExternalID,
		SensorType: string(models.DeviceEnvironment),
		Part:       ref.Part,
		Readings:   readings,
		LastUpdate: latestTimestamp(readings),
	}
	if info, err := s.env.FetchSensorInfo(ctx, ref.ExternalID); err == nil {
		if info.Name != "" {
			bundle.SensorName = info.Name
		}
		if info.Type != "" {
			bundle.SensorType = info.Type
		}
	} else {
		s.logger.Debug("sensor info lookup failed", zap.String("sensor", ref.ExternalID), zap.Error(err))
	}
	return bundle, nil
}

// FetchBatch implements the aggregator's hub fetch with one multi-subject
// query. Devices without readings produce no bundle.
func (s *SensorService) FetchBatch(ctx context.Context, refs []models.SensorRef) ([]models.SensorBundle, error) {
	ids := make([]string, 0, len(refs))
	for _, ref := range refs {
		ids = append(ids, ref.ExternalID)
	}
	snapshot, err := s.hub.QueryResources(ctx, ids)
	if err != nil {
		return nil, err
	}

	registry := s.hub.Registry()
	bundles := make([]models.SensorBundle, 0, len(refs))
	for _, ref := range refs {
		readings := snapshot[ref.ExternalID]
		if len(readings) == 0 {
			continue
		}
		name := ref.ExternalID
		if dev, ok := registry.Lookup(ref.ExternalID); ok {
			name = dev.Name
		}
		bundles = append(bundles, models.SensorBundle{
			SensorID:   ref.ExternalID,
			SensorName: name,
			SensorType: string(models.DeviceMotion),
			Part:       ref.Part,
			Readings:   readings,
			LastUpdate: latestTimestamp(readings),
		})
	}
	return bundles, nil
}

func latestTimestamp(readings []models.Reading) time.Time {
	var latest time.Time
	for _, r := range readings {
		if r.Timestamp.After(latest) {
			latest = r.Timestamp
		}
	}
	if latest.IsZero() {
		return time.Now().UTC()
	}
	return latest
}

package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"roomsense/internal/models"
	"roomsense/internal/trends"
)

const (
	dayWindow   = 24 * time.Hour
	weekWindow  = 7 * 24 * time.Hour
	monthWindow = 30 * 24 * time.Hour

	// historyLimit bounds one analytics fetch; two months of minute-level
	// power rows would exceed any sane page, so upstream aggregates coarser.
	historyLimit = 5000
)

// SettingsSource supplies tariff configuration.
type SettingsSource interface {
	Get(ctx context.Context) (models.SystemSettings, error)
}

// ElectricityAnalytics bundles the three period summaries.
type ElectricityAnalytics struct {
	Month trends.PeriodSummary `json:"month"`
	Week  trends.PeriodSummary `json:"week"`
	Day   trends.PeriodSummary `json:"day"`
}

// ElectricityService derives energy and cost summaries from raw power history.
type ElectricityService struct {
	env      EnvClient
	settings SettingsSource
	logger   *zap.Logger
}

// NewElectricityService returns service instance.
func NewElectricityService(env EnvClient, settings SettingsSource, logger *zap.Logger) *ElectricityService {
	return &ElectricityService{env: env, settings: settings, logger: logger}
}

// GetElectricityAnalytics computes day, week and month summaries ending at
// `to`, each with its saving against the immediately preceding equal-length
// window. One history fetch spans the widest window twice over, so savings
// need no extra upstream calls.
func (s *ElectricityService) GetElectricityAnalytics(ctx context.Context, sensorID, metricID string, to time.Time) (ElectricityAnalytics, error) {
	if to.IsZero() {
		to = time.Now().UTC()
	}
	from := to.Add(-2 * monthWindow)

	readings, err := s.env.FetchHistory(ctx, sensorID, metricID, from, to, historyLimit)
	if err != nil {
		return ElectricityAnalytics{}, err
	}

	tariff := s.loadTariff(ctx)
	return ElectricityAnalytics{
		Month: trends.EnergySummaryWithSaving(readings, to.Add(-monthWindow), to, tariff),
		Week:  trends.EnergySummaryWithSaving(readings, to.Add(-weekWindow), to, tariff),
		Day:   trends.EnergySummaryWithSaving(readings, to.Add(-dayWindow), to, tariff),
	}, nil
}

// loadTariff builds the pricing model from settings, degrading to defaults
// when the settings row or timezone cannot be loaded.
func (s *ElectricityService) loadTariff(ctx context.Context) trends.Tariff {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		s.logger.Warn("failed to load settings, using defaults", zap.Error(err))
		return trends.Tariff{PricePerKwh: 0.25, Location: time.UTC}
	}

	location := time.UTC
	if settings.TariffTimezone != "" {
		if loc, err := time.LoadLocation(settings.TariffTimezone); err == nil {
			location = loc
		} else {
			s.logger.Warn("invalid tariff timezone, using UTC", zap.String("tz", settings.TariffTimezone))
		}
	}
	return trends.Tariff{
		PricePerKwh:      settings.PricePerKwh,
		DayPricePerKwh:   settings.DayPricePerKwh,
		NightPricePerKwh: settings.NightPricePerKwh,
		Location:         location,
	}
}

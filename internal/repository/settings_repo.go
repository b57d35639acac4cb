package repository

import (
	"context"
	"database/sql"
	"errors"

	"roomsense/internal/models"
)

// defaultSettings applies when the settings row has not been created yet.
var defaultSettings = models.SystemSettings{
	PricePerKwh:    0.25,
	TariffTimezone: "UTC",
}

// SettingsRepository reads and writes the single system_settings row.
type SettingsRepository struct {
	db *sql.DB
}

// NewSettingsRepository returns repository.
func NewSettingsRepository(db *sql.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get returns current settings, falling back to defaults when no row exists.
func (r *SettingsRepository) Get(ctx context.Context) (models.SystemSettings, error) {
	const query = `
		SELECT price_per_kwh, day_price_per_kwh, night_price_per_kwh, tariff_timezone
		FROM system_settings
		LIMIT 1
	`
	var s models.SystemSettings
	err := r.db.QueryRowContext(ctx, query).Scan(
		&s.PricePerKwh,
		&s.DayPricePerKwh,
		&s.NightPricePerKwh,
		&s.TariffTimezone,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return defaultSettings, nil
	}
	if err != nil {
		return models.SystemSettings{}, err
	}
	return s, nil
}

// Update upserts the settings row.
func (r *SettingsRepository) Update(ctx context.Context, s models.SystemSettings) error {
	const query = `
		INSERT INTO system_settings (id, price_per_kwh, day_price_per_kwh, night_price_per_kwh, tariff_timezone)
		VALUES (1, $1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			price_per_kwh = EXCLUDED.price_per_kwh,
			day_price_per_kwh = EXCLUDED.day_price_per_kwh,
			night_price_per_kwh = EXCLUDED.night_price_per_kwh,
			tariff_timezone = EXCLUDED.tariff_timezone
	`
	_, err := r.db.ExecContext(ctx, query, s.PricePerKwh, s.DayPricePerKwh, s.NightPricePerKwh, s.TariffTimezone)
	return err
}

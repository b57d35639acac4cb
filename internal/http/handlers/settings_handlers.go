package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"roomsense/internal/models"
)

// SettingsStore is the settings persistence surface the handler needs.
type SettingsStore interface {
	Get(ctx context.Context) (models.SystemSettings, error)
	Update(ctx context.Context, s models.SystemSettings) error
}

// NewSettingsHandler returns the /api/settings handler serving GET and PUT.
func NewSettingsHandler(store SettingsStore, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			settings, err := store.Get(r.Context())
			if err != nil {
				logger.Error("settings read failed", zap.Error(err))
				writeError(w, http.StatusInternalServerError, "failed to load settings")
				return
			}
			writeJSON(w, http.StatusOK, settings)
		case http.MethodPut:
			var settings models.SystemSettings
			if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
				writeError(w, http.StatusBadRequest, "invalid json")
				return
			}
			if settings.PricePerKwh < 0 || settings.DayPricePerKwh < 0 || settings.NightPricePerKwh < 0 {
				writeError(w, http.StatusBadRequest, "prices must be non-negative")
				return
			}
			if settings.TariffTimezone != "" {
				if _, err := time.LoadLocation(settings.TariffTimezone); err != nil {
					writeError(w, http.StatusBadRequest, "invalid tariff timezone")
					return
				}
			}
			if err := store.Update(r.Context(), settings); err != nil {
				logger.Error("settings update failed", zap.Error(err))
				writeError(w, http.StatusInternalServerError, "failed to update settings")
				return
			}
			writeJSON(w, http.StatusOK, settings)
		default:
			w.Header().Set("Allow", "GET, PUT")
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}
}

package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"roomsense/internal/analytics"
	"roomsense/internal/service"
	"roomsense/internal/trends"
)

// formattedBand renders band totals as fixed two-decimal strings.
type formattedBand struct {
	Energy string `json:"energy"`
	Cost   string `json:"cost"`
}

// formattedSummary renders a period summary for the API. Money and energy are
// two-decimal strings at the serving boundary.
type formattedSummary struct {
	Energy string        `json:"energy"`
	Cost   string        `json:"cost"`
	Saving string        `json:"saving"`
	Day    formattedBand `json:"day"`
	Night  formattedBand `json:"night"`
}

func formatSummary(s trends.PeriodSummary) formattedSummary {
	return formattedSummary{
		Energy: fmt.Sprintf("%.2f", s.EnergyKwh),
		Cost:   fmt.Sprintf("%.2f", s.Cost),
		Saving: fmt.Sprintf("%.2f", s.Saving),
		Day:    formattedBand{Energy: fmt.Sprintf("%.2f", s.Day.EnergyKwh), Cost: fmt.Sprintf("%.2f", s.Day.Cost)},
		Night:  formattedBand{Energy: fmt.Sprintf("%.2f", s.Night.EnergyKwh), Cost: fmt.Sprintf("%.2f", s.Night.Cost)},
	}
}

// NewElectricityHandler returns GET /api/analytics/electricity handler.
func NewElectricityHandler(svc *service.ElectricityService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		sensorID := query.Get("sensor")
		metricID := query.Get("metric")
		if sensorID == "" || metricID == "" {
			writeError(w, http.StatusBadRequest, "sensor and metric are required")
			return
		}
		to, err := parseTimeParam(query.Get("to"), time.Now().UTC())
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid to")
			return
		}

		result, err := svc.GetElectricityAnalytics(r.Context(), sensorID, metricID, to)
		if err != nil {
			logger.Error("electricity analytics failed", zap.String("sensor", sensorID), zap.Error(err))
			writeError(w, http.StatusBadGateway, "failed to compute electricity analytics")
			return
		}
		writeJSON(w, http.StatusOK, map[string]formattedSummary{
			"month": formatSummary(result.Month),
			"week":  formatSummary(result.Week),
			"day":   formatSummary(result.Day),
		})
	}
}

// NewBuildingAnalyticsHandler returns GET /api/analytics/building handler.
func NewBuildingAnalyticsHandler(composer *analytics.Composer, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buildingID, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
		if err != nil || buildingID <= 0 {
			writeError(w, http.StatusBadRequest, "invalid building id")
			return
		}

		view, err := composer.ComposeBuilding(r.Context(), buildingID)
		if err != nil {
			logger.Error("building composition failed", zap.Int64("building", buildingID), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to compose building analytics")
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

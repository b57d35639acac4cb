package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"roomsense/internal/models"
	"roomsense/internal/service"
)

// NewSensorDataHandler returns GET /api/sensors/data handler.
func NewSensorDataHandler(svc *service.SensorService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		sensorID := query.Get("sensor")
		if sensorID == "" {
			writeError(w, http.StatusBadRequest, "sensor is required")
			return
		}
		provider := models.Provider(query.Get("provider"))
		if provider == "" {
			provider = models.ProviderEnvCloud
		}

		bundle, err := svc.GetSensorData(r.Context(), models.SensorRef{
			Provider:   provider,
			ExternalID: sensorID,
			Part:       query.Get("part"),
		})
		if err != nil {
			logger.Error("sensor data fetch failed", zap.String("sensor", sensorID), zap.Error(err))
			writeError(w, http.StatusBadGateway, "failed to fetch sensor data")
			return
		}
		writeJSON(w, http.StatusOK, bundle)
	}
}

// NewMultiSensorDataHandler returns POST /api/sensors/data/batch handler.
// The response holds the successful subset; partial upstream failure is not
// an error here.
func NewMultiSensorDataHandler(svc *service.SensorService, logger *zap.Logger) http.HandlerFunc {
	type request struct {
		Sensors []models.SensorRef `json:"sensors"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}
		if len(req.Sensors) == 0 {
			writeError(w, http.StatusBadRequest, "sensors is required")
			return
		}

		bundles := svc.GetMultipleSensorsData(r.Context(), req.Sensors)
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"requested": len(req.Sensors),
			"sensors":   bundles,
		})
	}
}

// NewSensorHistoryHandler returns GET /api/sensors/history handler.
func NewSensorHistoryHandler(svc *service.SensorService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		sensorID := query.Get("sensor")
		metricID := query.Get("metric")
		if sensorID == "" || metricID == "" {
			writeError(w, http.StatusBadRequest, "sensor and metric are required")
			return
		}

		now := time.Now().UTC()
		from, err := parseTimeParam(query.Get("from"), now.Add(-24*time.Hour))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid from")
			return
		}
		to, err := parseTimeParam(query.Get("to"), now)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid to")
			return
		}
		limit := 0
		if raw := query.Get("limit"); raw != "" {
			if limit, err = strconv.Atoi(raw); err != nil || limit < 0 {
				writeError(w, http.StatusBadRequest, "invalid limit")
				return
			}
		}

		result, err := svc.GetSensorHistory(r.Context(), sensorID, metricID, from, to, limit)
		if err != nil {
			logger.Error("history fetch failed", zap.String("sensor", sensorID), zap.Error(err))
			writeError(w, http.StatusBadGateway, "failed to fetch history")
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

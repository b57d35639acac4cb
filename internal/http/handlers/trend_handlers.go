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

// NewPresenceTrendHandler returns GET /api/trends/presence handler.
func NewPresenceTrendHandler(svc *service.TrendService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		buildingID, err := strconv.ParseInt(query.Get("building"), 10, 64)
		if err != nil || buildingID <= 0 {
			writeError(w, http.StatusBadRequest, "invalid building id")
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

		trend, err := svc.FloorPresence(r.Context(), buildingID, from, to)
		if err != nil {
			logger.Error("presence trend failed", zap.Int64("building", buildingID), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to build presence trend")
			return
		}
		writeJSON(w, http.StatusOK, trend)
	}
}

// NewPresenceIngestHandler returns POST /api/presence handler. Unchanged
// samples are acknowledged but not stored.
func NewPresenceIngestHandler(svc *service.TrendService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var sample models.PresenceSample
		if err := json.NewDecoder(r.Body).Decode(&sample); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}
		if sample.ExternalID == "" {
			writeError(w, http.StatusBadRequest, "external_id is required")
			return
		}

		stored, err := svc.IngestPresence(r.Context(), sample)
		if err != nil {
			logger.Error("presence ingest failed", zap.String("sensor", sample.ExternalID), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to store presence sample")
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]interface{}{"status": "ok", "stored": stored})
	}
}

// NewHealthHandler returns GET /health handler.
func NewHealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

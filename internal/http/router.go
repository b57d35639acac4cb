package httpserver

import "net/http"

// Routes groups handlers.
type Routes struct {
	SensorData        http.HandlerFunc
	MultiSensorData   http.HandlerFunc
	SensorHistory     http.HandlerFunc
	Electricity       http.HandlerFunc
	BuildingAnalytics http.HandlerFunc
	PresenceTrend     http.HandlerFunc
	PresenceIngest    http.HandlerFunc
	Settings          http.HandlerFunc
	ReadingsWS        http.HandlerFunc
	Health            http.HandlerFunc
}

// NewRouter registers endpoints. Everything except health sits behind auth.
func NewRouter(routes Routes, auth func(http.Handler) http.Handler) http.Handler {
	mux := http.NewServeMux()
	guard := func(expected string, handler http.HandlerFunc) http.Handler {
		wrapped := method(expected, handler)
		if auth != nil {
			return auth(wrapped)
		}
		return wrapped
	}

	if routes.SensorData != nil {
		mux.Handle("/api/sensors/data", guard(http.MethodGet, routes.SensorData))
	}
	if routes.MultiSensorData != nil {
		mux.Handle("/api/sensors/data/batch", guard(http.MethodPost, routes.MultiSensorData))
	}
	if routes.SensorHistory != nil {
		mux.Handle("/api/sensors/history", guard(http.MethodGet, routes.SensorHistory))
	}
	if routes.Electricity != nil {
		mux.Handle("/api/analytics/electricity", guard(http.MethodGet, routes.Electricity))
	}
	if routes.BuildingAnalytics != nil {
		mux.Handle("/api/analytics/building", guard(http.MethodGet, routes.BuildingAnalytics))
	}
	if routes.PresenceTrend != nil {
		mux.Handle("/api/trends/presence", guard(http.MethodGet, routes.PresenceTrend))
	}
	if routes.PresenceIngest != nil {
		mux.Handle("/api/presence", guard(http.MethodPost, routes.PresenceIngest))
	}
	if routes.Settings != nil {
		// The handler dispatches GET and PUT itself.
		var settings http.Handler = routes.Settings
		if auth != nil {
			settings = auth(settings)
		}
		mux.Handle("/api/settings", settings)
	}
	if routes.ReadingsWS != nil {
		mux.Handle("/ws/readings", guard(http.MethodGet, routes.ReadingsWS))
	}
	if routes.Health != nil {
		mux.Handle("/health", method(http.MethodGet, routes.Health))
	}
	return mux
}

func method(expected string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != expected {
			w.Header().Set("Allow", expected)
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		handler(w, r)
	}
}

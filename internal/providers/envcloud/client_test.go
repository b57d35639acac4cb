package envcloud

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"roomsense/internal/errs"
	"roomsense/internal/models"
)

type envFixture struct {
	mu        sync.Mutex
	unitHits  map[string]int
	last      string
	telemetry string
	history   string
	failLast  bool
}

func (f *envFixture) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("ApiKey") == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/measurements/last":
			if f.failLast {
				http.Error(w, "boom", http.StatusInternalServerError)
				return
			}
			fmt.Fprint(w, f.last)
		case r.URL.Path == "/telemetry/last":
			fmt.Fprint(w, f.telemetry)
		case r.URL.Path == "/measurements/history":
			fmt.Fprint(w, f.history)
		case len(r.URL.Path) > len("/units/unit/") && r.URL.Path[:len("/units/unit/")] == "/units/unit/":
			ref := r.URL.Path[len("/units/unit/"):]
			f.mu.Lock()
			if f.unitHits == nil {
				f.unitHits = make(map[string]int)
			}
			f.unitHits[ref]++
			f.mu.Unlock()
			_ = json.NewEncoder(w).Encode(map[string]any{"name": "unit-" + ref, "precision": 2})
		default:
			http.NotFound(w, r)
		}
	}
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	client, err := NewClient(Config{BaseURL: baseURL, APIKey: "key-1"}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func fixtureFrom() time.Time {
	return time.Date(2025, 9, 16, 0, 0, 0, 0, time.UTC)
}

func fixtureTo() time.Time {
	return time.Date(2025, 9, 17, 0, 0, 0, 0, time.UTC)
}

func metricIDs(readings []models.Reading) map[string]bool {
	ids := make(map[string]bool, len(readings))
	for _, r := range readings {
		ids[r.MetricID] = true
	}
	return ids
}

func TestFetchCurrentMetricsMergesBothEndpoints(t *testing.T) {
	fixture := &envFixture{
		last:      `[{"metric":"1","value":22.5,"time":"2025-09-16T10:00:00Z"}]`,
		telemetry: `{"readings":[{"metric":"5","value":-70,"time":"2025-09-16T10:00:05Z"}]}`,
	}
	server := httptest.NewServer(fixture.handler())
	defer server.Close()

	readings, err := newTestClient(t, server.URL).FetchCurrentMetrics(context.Background(), "s-1")
	if err != nil {
		t.Fatalf("FetchCurrentMetrics: %v", err)
	}
	ids := metricIDs(readings)
	if len(ids) != 2 || !ids["1"] || !ids["5"] {
		t.Fatalf("expected metrics 1 and 5, got %v", readings)
	}
}

func TestFetchCurrentMetricsToleratesOneEndpointFailing(t *testing.T) {
	fixture := &envFixture{
		failLast:  true,
		telemetry: `[{"metric":"5","value":-70,"time":"2025-09-16T10:00:05Z"}]`,
	}
	server := httptest.NewServer(fixture.handler())
	defer server.Close()

	readings, err := newTestClient(t, server.URL).FetchCurrentMetrics(context.Background(), "s-1")
	if err != nil {
		t.Fatalf("FetchCurrentMetrics: %v", err)
	}
	if len(readings) != 1 || readings[0].MetricID != "5" {
		t.Fatalf("expected telemetry reading to survive, got %v", readings)
	}
}

func TestFetchCurrentMetricsFallsBackToHistory(t *testing.T) {
	fixture := &envFixture{
		last:      `[]`,
		telemetry: `[]`,
		history: `[
			{"metric":"1","value":21.0,"time":"2025-09-16T08:00:00Z"},
			{"metric":"1","value":22.5,"time":"2025-09-16T09:30:00Z"},
			{"metric":"2","value":40,"time":"2025-09-16T09:00:00Z"}
		]`,
	}
	server := httptest.NewServer(fixture.handler())
	defer server.Close()

	readings, err := newTestClient(t, server.URL).FetchCurrentMetrics(context.Background(), "s-1")
	if err != nil {
		t.Fatalf("FetchCurrentMetrics: %v", err)
	}
	if len(readings) != 2 {
		t.Fatalf("expected 2 readings from history fallback, got %v", readings)
	}
	for _, r := range readings {
		if r.MetricID == "1" && r.Value != 22.5 {
			t.Fatalf("expected most recent temperature 22.5, got %v", r.Value)
		}
	}
}

func TestFetchHistoryResolvesUnitsOncePerReference(t *testing.T) {
	fixture := &envFixture{
		history: `[
			{"metric":"1","value":21.0,"unit":"u-7","time":"2025-09-16T08:00:00Z"},
			{"metric":"2","value":22.0,"unit":"u-7","time":"2025-09-16T08:10:00Z"},
			{"metric":"3","value":600,"unit":"u-9","time":"2025-09-16T08:20:00Z"}
		]`,
	}
	server := httptest.NewServer(fixture.handler())
	defer server.Close()

	client := newTestClient(t, server.URL)
	readings, err := client.FetchHistory(context.Background(), "s-1", "", fixtureFrom(), fixtureTo(), 100)
	if err != nil {
		t.Fatalf("FetchHistory: %v", err)
	}
	if len(readings) != 3 {
		t.Fatalf("expected 3 readings, got %d", len(readings))
	}
	for _, r := range readings {
		if r.Unit != "unit-u-7" && r.Unit != "unit-u-9" {
			t.Fatalf("expected resolved unit, got %q", r.Unit)
		}
	}
	if fixture.unitHits["u-7"] != 1 || fixture.unitHits["u-9"] != 1 {
		t.Fatalf("expected one lookup per unit reference, got %v", fixture.unitHits)
	}

	// Second history call hits the resolver cache, not the upstream.
	if _, err := client.FetchHistory(context.Background(), "s-1", "", fixtureFrom(), fixtureTo(), 100); err != nil {
		t.Fatalf("FetchHistory: %v", err)
	}
	if fixture.unitHits["u-7"] != 1 {
		t.Fatalf("expected cached unit, got %d lookups", fixture.unitHits["u-7"])
	}
}

func TestFetchHistoryPropagatesUnitLookupFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/measurements/history" {
			fmt.Fprint(w, `[{"metric":"1","value":1,"unit":"u-1","time":"2025-09-16T08:00:00Z"}]`)
			return
		}
		http.Error(w, "unit service down", http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := newTestClient(t, server.URL).FetchHistory(context.Background(), "s-1", "", fixtureFrom(), fixtureTo(), 100)
	var upstream *errs.UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("expected upstream error from unit lookup, got %v", err)
	}
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	_, err := NewClient(Config{BaseURL: "http://x"}, zap.NewNop())
	var cfgErr *errs.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected config error, got %v", err)
	}
}

package envcloud

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"roomsense/internal/errs"
	"roomsense/internal/models"
	"roomsense/internal/normalize"
	"roomsense/internal/units"
)

const (
	defaultTimeout  = 15 * time.Second
	fallbackWindow  = 24 * time.Hour
	fallbackLimit   = 500
	defaultPageSize = 1000
)

// Config holds environmental-cloud connection settings.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client talks to the environmental sensor cloud. Auth is a static API key
// sent both as an Authorization scheme and a bare header, which is what the
// upstream accepts depending on API version.
type Client struct {
	baseURL  string
	apiKey   string
	client   *http.Client
	resolver *units.Resolver
	logger   *zap.Logger
}

// NewClient validates credentials up front: a missing API key fails here
// rather than producing degraded upstream calls later.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, &errs.ConfigError{Field: "envcloud api key"}
	}
	if cfg.BaseURL == "" {
		return nil, &errs.ConfigError{Field: "envcloud base url"}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	c := &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
	c.resolver = units.NewResolver(c)
	return c, nil
}

// Resolver exposes the client's unit resolver for components that resolve
// units against the same cache.
func (c *Client) Resolver() *units.Resolver { return c.resolver }

// FetchCurrentMetrics returns the latest reading per metric for one sensor.
// The general-measurements and telemetry endpoints are queried concurrently
// and merged; either may fail without aborting the other. When the merged set
// is empty the last 24 hours of history supply the most recent observation per
// metric, because the live endpoints can return nothing during upstream
// hiccups while history still holds the last known point.
func (c *Client) FetchCurrentMetrics(ctx context.Context, sensorID string) ([]models.Reading, error) {
	query := url.Values{}
	query.Set("sensor", sensorID)
	query.Set("links", "false")

	var (
		wg        sync.WaitGroup
		measured  []models.Reading
		telemetry []models.Reading
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		var err error
		measured, err = c.fetchReadings(ctx, "/measurements/last", query, sensorID)
		if err != nil {
			c.logger.Warn("measurements endpoint failed", zap.String("sensor", sensorID), zap.Error(err))
		}
	}()
	go func() {
		defer wg.Done()
		var err error
		telemetry, err = c.fetchReadings(ctx, "/telemetry/last", query, sensorID)
		if err != nil {
			c.logger.Warn("telemetry endpoint failed", zap.String("sensor", sensorID), zap.Error(err))
		}
	}()
	wg.Wait()

	merged := mergeLatest(measured, telemetry)
	if len(merged) > 0 {
		return merged, nil
	}

	return c.fetchRecentFromHistory(ctx, sensorID)
}

// FetchHistory returns readings for one metric over a window. The unit is
// resolved once per distinct unit reference, not once per row.
func (c *Client) FetchHistory(ctx context.Context, sensorID, metricID string, from, to time.Time, limit int) ([]models.Reading, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	query := url.Values{}
	query.Set("sensor", sensorID)
	query.Set("metric", metricID)
	query.Set("from", from.UTC().Format(time.RFC3339))
	query.Set("to", to.UTC().Format(time.RFC3339))
	query.Set("limit", strconv.Itoa(limit))
	query.Set("links", "false")

	readings, err := c.fetchReadings(ctx, "/measurements/history", query, sensorID)
	if err != nil {
		return nil, err
	}
	if err := c.resolveUnits(ctx, readings); err != nil {
		return nil, err
	}
	return readings, nil
}

// SensorInfo is upstream sensor metadata.
type SensorInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// FetchSensorInfo returns name and type for one sensor.
func (c *Client) FetchSensorInfo(ctx context.Context, sensorID string) (SensorInfo, error) {
	body, err := c.get(ctx, "/sensors/sensor/"+url.PathEscape(sensorID), nil)
	if err != nil {
		return SensorInfo{}, err
	}
	var info SensorInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return SensorInfo{}, fmt.Errorf("envcloud: decode sensor info: %w", err)
	}
	return info, nil
}

// LookupUnit implements units.UnitLookup against GET /units/unit/{id}.
func (c *Client) LookupUnit(ctx context.Context, ref string) (units.Unit, error) {
	body, err := c.get(ctx, "/units/unit/"+url.PathEscape(ref), nil)
	if err != nil {
		return units.Unit{}, err
	}
	var payload struct {
		Name      string `json:"name"`
		Precision int    `json:"precision"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return units.Unit{}, fmt.Errorf("envcloud: decode unit: %w", err)
	}
	return units.Unit{Name: payload.Name, Precision: payload.Precision}, nil
}

func (c *Client) fetchRecentFromHistory(ctx context.Context, sensorID string) ([]models.Reading, error) {
	to := time.Now().UTC()
	query := url.Values{}
	query.Set("sensor", sensorID)
	query.Set("from", to.Add(-fallbackWindow).Format(time.RFC3339))
	query.Set("to", to.Format(time.RFC3339))
	query.Set("limit", strconv.Itoa(fallbackLimit))
	query.Set("links", "false")

	history, err := c.fetchReadings(ctx, "/measurements/history", query, sensorID)
	if err != nil {
		return nil, err
	}
	return mergeLatest(history, nil), nil
}

func (c *Client) fetchReadings(ctx context.Context, path string, query url.Values, sensorID string) ([]models.Reading, error) {
	body, err := c.get(ctx, path, query)
	if err != nil {
		return nil, err
	}
	return normalize.Normalize(body, sensorID), nil
}

// resolveUnits rewrites raw unit references into resolved names, one lookup
// per distinct reference.
func (c *Client) resolveUnits(ctx context.Context, readings []models.Reading) error {
	resolved := make(map[string]units.Unit)
	for i := range readings {
		ref := readings[i].Unit
		if ref == "" {
			continue
		}
		unit, ok := resolved[ref]
		if !ok {
			var err error
			unit, err = c.resolver.Resolve(ctx, ref)
			if err != nil {
				return err
			}
			resolved[ref] = unit
		}
		readings[i].Unit = unit.Name
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "ApiKey "+c.apiKey)
	req.Header.Set("ApiKey", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &errs.TransportError{Op: "GET " + path, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &errs.TransportError{Op: "GET " + path, Err: err}
	}
	if resp.StatusCode >= 300 {
		return nil, &errs.UpstreamError{Code: resp.StatusCode, Message: fmt.Sprintf("GET %s: %s", path, resp.Status)}
	}
	return body, nil
}

// mergeLatest combines two reading sets keeping, per metric, the observation
// with the most recent timestamp.
func mergeLatest(a, b []models.Reading) []models.Reading {
	latest := make(map[string]models.Reading, len(a)+len(b))
	keep := func(r models.Reading) {
		if prev, ok := latest[r.MetricID]; ok && prev.Timestamp.After(r.Timestamp) {
			return
		}
		latest[r.MetricID] = r
	}
	for _, r := range a {
		keep(r)
	}
	for _, r := range b {
		keep(r)
	}
	if len(latest) == 0 {
		return nil
	}
	merged := make([]models.Reading, 0, len(latest))
	for _, r := range latest {
		merged = append(merged, r)
	}
	return merged
}

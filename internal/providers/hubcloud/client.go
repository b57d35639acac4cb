package hubcloud

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"roomsense/internal/errs"
	"roomsense/internal/models"
	"roomsense/internal/retry"
	"roomsense/internal/units"
)

const (
	defaultTimeout = 15 * time.Second
	retryBackoff   = 500 * time.Millisecond
	maxAttempts    = 3

	// invalidTokenCode is the application-level result code the hub returns
	// for an expired or revoked access token. Token lifetime is short, so
	// expiry mid-batch is the common case and triggers refresh-and-retry.
	invalidTokenCode = 108

	intentRefreshToken   = "auth.refreshToken"
	intentQueryResources = "query.resource.value"

	tempSaneMin = -20
	tempSaneMax = 60
)

// nonceGenerator is swapped out by tests that assert on signed headers.
var nonceGenerator = func() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return strconv.FormatInt(time.Now().UnixNano(), 16)
	}
	return hex.EncodeToString(buf)
}

// Config holds hub-cloud connection settings.
type Config struct {
	BaseURL      string
	AppID        string
	KeyID        string
	AppSecret    string
	RefreshToken string
	Timeout      time.Duration
}

// Client talks to the smart-hub cloud through its single intent endpoint.
// Every request carries signed auth headers; access tokens expire and are
// refreshed transparently through the injected TokenStore.
type Client struct {
	cfg      Config
	client   *http.Client
	tokens   TokenStore
	registry *Registry
	logger   *zap.Logger

	// refreshMu confines token refresh to one caller at a time so concurrent
	// expiry does not stampede the refresh-token exchange.
	refreshMu sync.Mutex
}

// NewClient fails fast on missing credentials rather than making degraded calls.
func NewClient(cfg Config, tokens TokenStore, registry *Registry, logger *zap.Logger) (*Client, error) {
	switch {
	case cfg.BaseURL == "":
		return nil, &errs.ConfigError{Field: "hubcloud base url"}
	case cfg.AppID == "":
		return nil, &errs.ConfigError{Field: "hubcloud app id"}
	case cfg.KeyID == "":
		return nil, &errs.ConfigError{Field: "hubcloud key id"}
	case cfg.AppSecret == "":
		return nil, &errs.ConfigError{Field: "hubcloud app secret"}
	case cfg.RefreshToken == "":
		return nil, &errs.ConfigError{Field: "hubcloud refresh token"}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Client{
		cfg:      cfg,
		client:   &http.Client{Timeout: cfg.Timeout},
		tokens:   tokens,
		registry: registry,
		logger:   logger,
	}, nil
}

// Registry returns the fixed device inventory this client serves.
func (c *Client) Registry() *Registry { return c.registry }

// FetchCurrentMetrics returns the current readings for one motion device.
func (c *Client) FetchCurrentMetrics(ctx context.Context, deviceID string) ([]models.Reading, error) {
	dev, ok := c.registry.Lookup(deviceID)
	if !ok {
		return nil, fmt.Errorf("hubcloud: device %q not in registry", deviceID)
	}
	if dev.Class != ClassMotion {
		return nil, fmt.Errorf("hubcloud: device %q class %s exposes no readable resources", deviceID, dev.Class)
	}
	snapshot, err := c.QueryResources(ctx, []string{deviceID})
	if err != nil {
		return nil, err
	}
	return snapshot[deviceID], nil
}

// QueryResources reads the motion resource set for many devices in one batched
// multi-subject query. Corrupt temperature values outside the sanity band are
// discarded.
func (c *Client) QueryResources(ctx context.Context, deviceIDs []string) (map[string][]models.Reading, error) {
	type subjectQuery struct {
		Subject   string   `json:"subject"`
		Resources []string `json:"resources"`
	}
	subjects := make([]subjectQuery, 0, len(deviceIDs))
	for _, id := range deviceIDs {
		subjects = append(subjects, subjectQuery{Subject: id, Resources: motionResources})
	}

	var rows []struct {
		Subject  string `json:"subject"`
		Resource string `json:"resource"`
		Value    string `json:"value"`
		Time     int64  `json:"time"`
	}
	if err := c.invoke(ctx, intentQueryResources, map[string]any{"subjects": subjects}, &rows); err != nil {
		return nil, err
	}

	snapshot := make(map[string][]models.Reading, len(deviceIDs))
	for _, row := range rows {
		value, err := strconv.ParseFloat(row.Value, 64)
		if err != nil {
			continue
		}
		if row.Resource == ResourceTemperature && (value < tempSaneMin || value > tempSaneMax) {
			c.logger.Debug("discarding corrupt temperature",
				zap.String("subject", row.Subject), zap.Float64("value", value))
			continue
		}
		timestamp := time.Now().UTC()
		if row.Time > 0 {
			timestamp = time.UnixMilli(row.Time).UTC()
		}
		snapshot[row.Subject] = append(snapshot[row.Subject], models.Reading{
			MetricID:   row.Resource,
			MetricName: units.MetricName(row.Resource),
			Value:      value,
			Unit:       resourceUnits[row.Resource],
			Timestamp:  timestamp,
		})
	}
	return snapshot, nil
}

// invoke runs one intent with transparent token refresh and bounded transport
// retries. Transport failures and the invalid-token code are retryable; any
// other application error propagates immediately.
func (c *Client) invoke(ctx context.Context, intent string, data, out any) error {
	return retry.WithRetry(ctx, maxAttempts, retryBackoff, retryable, func(ctx context.Context) error {
		token, err := c.ensureToken(ctx)
		if err != nil {
			return err
		}
		err = c.call(ctx, token, intent, data, out)
		if isInvalidToken(err) {
			// Drop the stale token so the next attempt refreshes.
			if storeErr := c.tokens.SetToken(ctx, ""); storeErr != nil {
				c.logger.Warn("failed to clear stale token", zap.Error(storeErr))
			}
		}
		return err
	})
}

func retryable(err error) bool {
	var transport *errs.TransportError
	if errors.As(err, &transport) {
		return true
	}
	return isInvalidToken(err)
}

func isInvalidToken(err error) bool {
	var upstream *errs.UpstreamError
	return errors.As(err, &upstream) && upstream.Code == invalidTokenCode
}

func (c *Client) ensureToken(ctx context.Context) (string, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return "", err
	}
	if token != "" {
		return token, nil
	}

	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	// Another caller may have refreshed while we waited for the lock.
	token, err = c.tokens.Token(ctx)
	if err != nil {
		return "", err
	}
	if token != "" {
		return token, nil
	}

	var result struct {
		AccessToken string `json:"accessToken"`
	}
	if err := c.call(ctx, "", intentRefreshToken, map[string]string{"refreshToken": c.cfg.RefreshToken}, &result); err != nil {
		return "", fmt.Errorf("hubcloud: refresh token: %w", err)
	}
	if result.AccessToken == "" {
		return "", errors.New("hubcloud: refresh returned empty access token")
	}
	if err := c.tokens.SetToken(ctx, result.AccessToken); err != nil {
		return "", err
	}
	c.logger.Info("hubcloud access token refreshed")
	return result.AccessToken, nil
}

type responseEnvelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

func (c *Client) call(ctx context.Context, token, intent string, data, out any) error {
	body, err := json.Marshal(map[string]any{"intent": intent, "data": data})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range c.authHeaders(token) {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return &errs.TransportError{Op: "POST " + intent, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &errs.TransportError{Op: "POST " + intent, Err: err}
	}
	if resp.StatusCode >= 300 {
		return &errs.UpstreamError{Code: resp.StatusCode, Message: resp.Status}
	}

	var envelope responseEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("hubcloud: decode envelope: %w", err)
	}
	if envelope.Code != 0 {
		return &errs.UpstreamError{Code: envelope.Code, Message: envelope.Message}
	}
	if out != nil && len(envelope.Result) > 0 {
		if err := json.Unmarshal(envelope.Result, out); err != nil {
			return fmt.Errorf("hubcloud: decode result: %w", err)
		}
	}
	return nil
}

// authHeaders builds the five auth headers plus the Sign header. The refresh
// exchange itself carries no access token.
func (c *Client) authHeaders(token string) map[string]string {
	params := map[string]string{
		"appid": c.cfg.AppID,
		"keyid": c.cfg.KeyID,
		"nonce": nonceGenerator(),
		"time":  strconv.FormatInt(time.Now().UnixMilli(), 10),
	}
	if token != "" {
		params["accesstoken"] = token
	}
	sign := Sign(params, c.cfg.AppSecret)

	headers := map[string]string{
		"Appid": params["appid"],
		"Keyid": params["keyid"],
		"Nonce": params["nonce"],
		"Time":  params["time"],
		"Sign":  sign,
	}
	if token != "" {
		headers["Accesstoken"] = token
	}
	return headers
}

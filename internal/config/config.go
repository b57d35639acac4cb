package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	libconfig "roomsense/libs/config"
)

// HubDevice is one fixed hub-cloud registry entry, configured because the hub
// exposes no discovery API.
type HubDevice struct {
	ID    string `yaml:"id"`
	Name  string `yaml:"name"`
	Class string `yaml:"class"`
}

// Config defines roomsense service configuration.
type Config struct {
	HTTP struct {
		Port string `yaml:"port" env:"ROOMSENSE_HTTP_PORT"`
	} `yaml:"http"`
	Database struct {
		DSN string `yaml:"dsn" env:"ROOMSENSE_POSTGRES_DSN"`
	} `yaml:"database"`
	Redis struct {
		Addr     string `yaml:"addr" env:"ROOMSENSE_REDIS_ADDR"`
		Password string `yaml:"password" env:"ROOMSENSE_REDIS_PASSWORD"`
	} `yaml:"redis"`
	Auth struct {
		JWTSecret string `yaml:"jwt_secret" env:"ROOMSENSE_JWT_SECRET"`
	} `yaml:"auth"`
	EnvCloud struct {
		BaseURL string        `yaml:"base_url" env:"ENVCLOUD_BASE_URL"`
		APIKey  string        `yaml:"api_key" env:"ENVCLOUD_API_KEY"`
		Timeout time.Duration `yaml:"timeout" env:"ENVCLOUD_TIMEOUT"`
	} `yaml:"envcloud"`
	HubCloud struct {
		BaseURL      string        `yaml:"base_url" env:"HUBCLOUD_BASE_URL"`
		AppID        string        `yaml:"app_id" env:"HUBCLOUD_APP_ID"`
		KeyID        string        `yaml:"key_id" env:"HUBCLOUD_KEY_ID"`
		AppSecret    string        `yaml:"app_secret" env:"HUBCLOUD_APP_SECRET"`
		RefreshToken string        `yaml:"refresh_token" env:"HUBCLOUD_REFRESH_TOKEN"`
		Timeout      time.Duration `yaml:"timeout" env:"HUBCLOUD_TIMEOUT"`
		TokenTTL     time.Duration `yaml:"token_ttl" env:"HUBCLOUD_TOKEN_TTL"`
		Devices      []HubDevice   `yaml:"devices" env:"-"`
	} `yaml:"hubcloud"`
	WS struct {
		PushInterval time.Duration `yaml:"push_interval" env:"ROOMSENSE_WS_PUSH_INTERVAL"`
	} `yaml:"ws"`
}

// Load configuration using shared helper. Provider credentials are validated
// by the adapters themselves at construction.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.HTTP.Port = "8080"

	if err := libconfig.LoadConfig(cfg); err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.Database.DSN) == "" {
		return nil, errors.New("config: database dsn required")
	}
	if strings.TrimSpace(cfg.Auth.JWTSecret) == "" {
		return nil, errors.New("config: jwt secret required")
	}
	return cfg, nil
}

// HTTPAddress returns :port style.
func (c *Config) HTTPAddress() string {
	port := strings.TrimSpace(c.HTTP.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return fmt.Sprintf(":%s", port)
}

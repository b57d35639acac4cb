package app

import (
	"context"
	"database/sql"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"roomsense/internal/aggregator"
	"roomsense/internal/analytics"
	"roomsense/internal/config"
	httpserver "roomsense/internal/http"
	"roomsense/internal/http/handlers"
	"roomsense/internal/http/middleware"
	"roomsense/internal/providers/envcloud"
	"roomsense/internal/providers/hubcloud"
	"roomsense/internal/repository"
	"roomsense/internal/service"
	"roomsense/internal/ws"
	"roomsense/libs/db"
	libredis "roomsense/libs/redis"
)

const defaultTokenTTL = 30 * time.Minute

// App wires roomsense dependencies.
type App struct {
	server *httpserver.Server
	hub    *ws.Hub
	db     *sql.DB
	redis  *goredis.Client
	logger *zap.Logger
}

// New constructs application components.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	sqlDB, err := db.NewPostgresDB(cfg.Database.DSN)
	if err != nil {
		return nil, err
	}

	// Redis is optional: without it each instance refreshes its own hub token.
	var (
		redisClient *goredis.Client
		tokenStore  hubcloud.TokenStore = hubcloud.NewMemoryTokenStore()
	)
	if cfg.Redis.Addr != "" {
		redisClient, err = libredis.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password)
		if err != nil {
			sqlDB.Close()
			return nil, err
		}
		ttl := cfg.HubCloud.TokenTTL
		if ttl <= 0 {
			ttl = defaultTokenTTL
		}
		tokenStore = hubcloud.NewRedisTokenStore(redisClient, ttl)
	}

	envClient, err := envcloud.NewClient(envcloud.Config{
		BaseURL: cfg.EnvCloud.BaseURL,
		APIKey:  cfg.EnvCloud.APIKey,
		Timeout: cfg.EnvCloud.Timeout,
	}, logger)
	if err != nil {
		return nil, err
	}

	registered := make([]hubcloud.RegisteredDevice, 0, len(cfg.HubCloud.Devices))
	for _, d := range cfg.HubCloud.Devices {
		registered = append(registered, hubcloud.RegisteredDevice{
			ID:    d.ID,
			Name:  d.Name,
			Class: hubcloud.DeviceClass(d.Class),
		})
	}
	hubClient, err := hubcloud.NewClient(hubcloud.Config{
		BaseURL:      cfg.HubCloud.BaseURL,
		AppID:        cfg.HubCloud.AppID,
		KeyID:        cfg.HubCloud.KeyID,
		AppSecret:    cfg.HubCloud.AppSecret,
		RefreshToken: cfg.HubCloud.RefreshToken,
		Timeout:      cfg.HubCloud.Timeout,
	}, tokenStore, hubcloud.NewRegistry(registered), logger)
	if err != nil {
		return nil, err
	}

	settingsRepo := repository.NewSettingsRepository(sqlDB)
	presenceRepo := repository.NewPresenceRepository(sqlDB)
	hierarchyRepo := repository.NewHierarchyRepository(sqlDB)

	sensorService := service.NewSensorService(envClient, hubClient, logger)
	agg := aggregator.New(sensorService, sensorService, logger)
	sensorService.SetBatchFetcher(agg)

	electricityService := service.NewElectricityService(envClient, settingsRepo, logger)
	trendService := service.NewTrendService(presenceRepo, hierarchyRepo, logger)
	composer := analytics.NewComposer(hierarchyRepo, agg, logger)
	hub := ws.NewHub(hierarchyRepo, agg, cfg.WS.PushInterval, logger)

	routes := httpserver.Routes{
		SensorData:        handlers.NewSensorDataHandler(sensorService, logger),
		MultiSensorData:   handlers.NewMultiSensorDataHandler(sensorService, logger),
		SensorHistory:     handlers.NewSensorHistoryHandler(sensorService, logger),
		Electricity:       handlers.NewElectricityHandler(electricityService, logger),
		BuildingAnalytics: handlers.NewBuildingAnalyticsHandler(composer, logger),
		PresenceTrend:     handlers.NewPresenceTrendHandler(trendService, logger),
		PresenceIngest:    handlers.NewPresenceIngestHandler(trendService, logger),
		Settings:          handlers.NewSettingsHandler(settingsRepo, logger),
		ReadingsWS:        hub.HandleWS,
		Health:            handlers.NewHealthHandler(),
	}

	router := httpserver.NewRouter(routes, middleware.AuthMiddleware(cfg.Auth.JWTSecret))
	server := httpserver.NewServer(cfg.HTTPAddress(), router, logger)

	return &App{
		server: server,
		hub:    hub,
		db:     sqlDB,
		redis:  redisClient,
		logger: logger,
	}, nil
}

// Run starts the websocket push loop and serves HTTP until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	go a.hub.Run(ctx)
	return a.server.Run(ctx)
}

// Close releases resources.
func (a *App) Close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close db", zap.Error(err))
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("failed to close redis", zap.Error(err))
		}
	}
}

package ws

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"roomsense/internal/models"
)

const (
	defaultPushInterval = 30 * time.Second
	writeTimeout        = 5 * time.Second
)

// DeviceSource lists the devices whose readings a subscription covers.
type DeviceSource interface {
	ListDevicesByBuilding(ctx context.Context, buildingID int64) ([]models.Device, error)
}

// BundleSource supplies live bundles, best-effort.
type BundleSource interface {
	FetchMany(ctx context.Context, refs []models.SensorRef) []models.SensorBundle
}

// Hub pushes fresh sensor bundles to dashboard clients subscribed per
// building. One poll per building per interval serves every subscriber.
type Hub struct {
	devices  DeviceSource
	bundles  BundleSource
	interval time.Duration
	logger   *zap.Logger
	upgrader websocket.Upgrader

	mu    sync.RWMutex
	conns map[*websocket.Conn]int64
}

// NewHub builds hub.
func NewHub(devices DeviceSource, bundles BundleSource, interval time.Duration, logger *zap.Logger) *Hub {
	if interval <= 0 {
		interval = defaultPushInterval
	}
	return &Hub{
		devices:  devices,
		bundles:  bundles,
		interval: interval,
		logger:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		conns: make(map[*websocket.Conn]int64),
	}
}

// HandleWS is the HTTP handler for /ws/readings?building=<id>.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	buildingID, err := strconv.ParseInt(r.URL.Query().Get("building"), 10, 64)
	if err != nil || buildingID <= 0 {
		http.Error(w, "building is required", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", zap.Error(err))
		return
	}

	h.mu.Lock()
	h.conns[conn] = buildingID
	h.mu.Unlock()
	h.logger.Info("dashboard subscribed", zap.Int64("building", buildingID))

	// Read loop only detects close; clients send nothing meaningful.
	go func() {
		defer h.drop(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Run pushes bundles for each subscribed building until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.pushAll(ctx)
		}
	}
}

func (h *Hub) pushAll(ctx context.Context) {
	h.mu.RLock()
	buildings := make(map[int64][]*websocket.Conn)
	for conn, buildingID := range h.conns {
		buildings[buildingID] = append(buildings[buildingID], conn)
	}
	h.mu.RUnlock()

	for buildingID, conns := range buildings {
		devices, err := h.devices.ListDevicesByBuilding(ctx, buildingID)
		if err != nil {
			h.logger.Warn("failed to list devices for push", zap.Int64("building", buildingID), zap.Error(err))
			continue
		}
		refs := make([]models.SensorRef, 0, len(devices))
		for i := range devices {
			refs = append(refs, devices[i].Ref())
		}

		payload := map[string]interface{}{
			"building": buildingID,
			"sensors":  h.bundles.FetchMany(ctx, refs),
			"pushed":   time.Now().UTC(),
		}
		for _, conn := range conns {
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(payload); err != nil {
				h.logger.Debug("push failed, dropping subscriber", zap.Error(err))
				h.drop(conn)
			}
		}
	}
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	if _, ok := h.conns[conn]; ok {
		delete(h.conns, conn)
		conn.Close()
	}
	h.mu.Unlock()
}

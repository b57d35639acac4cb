package analytics

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"roomsense/internal/models"
)

// HierarchySource supplies the building tree. Backed by the hierarchy
// repository in production, fakes in tests.
type HierarchySource interface {
	GetBuilding(ctx context.Context, id int64) (*models.Building, error)
	ListFloors(ctx context.Context, buildingID int64) ([]models.Floor, error)
	ListRooms(ctx context.Context, floorID int64) ([]models.Room, error)
	ListDevicesByBuilding(ctx context.Context, buildingID int64) ([]models.Device, error)
}

// BundleSource supplies live sensor bundles, best-effort.
type BundleSource interface {
	FetchMany(ctx context.Context, refs []models.SensorRef) []models.SensorBundle
}

// DeviceView is a device with its live bundle attached.
type DeviceView struct {
	models.Device
	Online   bool                 `json:"online"`
	Readings []models.Reading     `json:"readings,omitempty"`
	Bundle   *models.SensorBundle `json:"-"`
}

// RoomView is one composed room, possibly a synthetic sub-room of a suite.
type RoomView struct {
	RoomID        int64           `json:"room_id"`
	Name          string          `json:"name"`
	Part          string          `json:"part,omitempty"`
	Type          models.RoomType `json:"room_type"`
	Capacity      int             `json:"capacity"`
	Online        int             `json:"online"`
	Offline       int             `json:"offline"`
	Occupied      bool            `json:"occupied"`
	CurrentPowerW float64         `json:"current_power_w"`
	Devices       []DeviceView    `json:"devices"`
}

// FloorView aggregates its rooms.
type FloorView struct {
	FloorID       int64      `json:"floor_id"`
	Name          string     `json:"name"`
	Level         int        `json:"level"`
	Online        int        `json:"online"`
	Offline       int        `json:"offline"`
	CurrentPowerW float64    `json:"current_power_w"`
	Rooms         []RoomView `json:"rooms"`
}

// BuildingView is the fully composed tree with building-wide totals.
type BuildingView struct {
	BuildingID    int64       `json:"building_id"`
	Name          string      `json:"name"`
	Online        int         `json:"online"`
	Offline       int         `json:"offline"`
	CurrentPowerW float64     `json:"current_power_w"`
	Floors        []FloorView `json:"floors"`
}

// Composer attaches live readings to the hierarchy and rolls summaries up the
// tree. All devices of a building go to the aggregator in one batch; fetching
// per room would not hold up at building scale.
type Composer struct {
	hierarchy HierarchySource
	bundles   BundleSource
	logger    *zap.Logger
}

// NewComposer returns composer.
func NewComposer(hierarchy HierarchySource, bundles BundleSource, logger *zap.Logger) *Composer {
	return &Composer{hierarchy: hierarchy, bundles: bundles, logger: logger}
}

// ComposeBuilding walks one building top-down and folds live data back in.
// Missing bundles leave devices offline; they never fail the composition.
func (c *Composer) ComposeBuilding(ctx context.Context, buildingID int64) (*BuildingView, error) {
	building, err := c.hierarchy.GetBuilding(ctx, buildingID)
	if err != nil {
		return nil, fmt.Errorf("analytics: load building %d: %w", buildingID, err)
	}
	floors, err := c.hierarchy.ListFloors(ctx, buildingID)
	if err != nil {
		return nil, err
	}
	devices, err := c.hierarchy.ListDevicesByBuilding(ctx, buildingID)
	if err != nil {
		return nil, err
	}

	refs := make([]models.SensorRef, 0, len(devices))
	for i := range devices {
		refs = append(refs, devices[i].Ref())
	}
	bundleIndex := indexBundles(c.bundles.FetchMany(ctx, refs))

	devicesByRoom := make(map[int64][]models.Device)
	for _, d := range devices {
		devicesByRoom[d.RoomID] = append(devicesByRoom[d.RoomID], d)
	}

	view := &BuildingView{BuildingID: building.ID, Name: building.Name}
	for _, floor := range floors {
		rooms, err := c.hierarchy.ListRooms(ctx, floor.ID)
		if err != nil {
			return nil, err
		}
		floorView := FloorView{FloorID: floor.ID, Name: floor.Name, Level: floor.Level}
		for _, room := range rooms {
			for _, roomView := range composeRoom(room, devicesByRoom[room.ID], bundleIndex) {
				floorView.Online += roomView.Online
				floorView.Offline += roomView.Offline
				floorView.CurrentPowerW += roomView.CurrentPowerW
				floorView.Rooms = append(floorView.Rooms, roomView)
			}
		}
		view.Online += floorView.Online
		view.Offline += floorView.Offline
		view.CurrentPowerW += floorView.CurrentPowerW
		view.Floors = append(view.Floors, floorView)
	}
	return view, nil
}

// composeRoom builds one view per room, or N synthetic sub-room views for a
// suite whose environment sensors are tagged with parts. The split is a
// presentation-time transformation: each part inherits an even share of the
// room's capacity and power, and nothing is persisted.
func composeRoom(room models.Room, devices []models.Device, bundles map[string]*models.SensorBundle) []RoomView {
	base := RoomView{
		RoomID:   room.ID,
		Name:     room.Name,
		Type:     room.Type,
		Capacity: room.Capacity,
	}

	var parts []string
	seen := make(map[string]bool)
	for _, d := range devices {
		if d.Type == models.DeviceEnvironment && d.Part != "" && !seen[d.Part] {
			seen[d.Part] = true
			parts = append(parts, d.Part)
		}
	}

	if room.Type != models.RoomSuite || len(parts) < 2 {
		view := base
		fillRoom(&view, devices, bundles)
		return []RoomView{view}
	}

	// Power and capacity split evenly across parts. Part-tagged devices
	// attach to their part; shared untagged devices attach to the first part
	// only so building totals count them once.
	var roomPower float64
	for _, d := range devices {
		if bundle := bundles[bundleKey(d.ExternalID, d.Part)]; bundle != nil {
			roomPower += powerOf(bundle)
		}
	}

	views := make([]RoomView, 0, len(parts))
	for i, part := range parts {
		view := base
		view.Name = fmt.Sprintf("%s (%s)", room.Name, part)
		view.Part = part
		view.Capacity = room.Capacity / len(parts)

		var partDevices []models.Device
		for _, d := range devices {
			if d.Part == part || (d.Part == "" && i == 0) {
				partDevices = append(partDevices, d)
			}
		}
		fillRoom(&view, partDevices, bundles)
		view.CurrentPowerW = roomPower / float64(len(parts))
		views = append(views, view)
	}
	return views
}

func fillRoom(view *RoomView, devices []models.Device, bundles map[string]*models.SensorBundle) {
	for _, d := range devices {
		bundle := bundles[bundleKey(d.ExternalID, d.Part)]
		deviceView := DeviceView{Device: d, Online: bundle != nil, Bundle: bundle}
		if bundle != nil {
			deviceView.Readings = bundle.Readings
			view.Online++
			view.CurrentPowerW += powerOf(bundle)
			if motion := bundle.FindReading("Motion"); motion != nil && motion.Value > 0 {
				view.Occupied = true
			}
		} else {
			view.Offline++
		}
		view.Devices = append(view.Devices, deviceView)
	}
}

func indexBundles(bundles []models.SensorBundle) map[string]*models.SensorBundle {
	index := make(map[string]*models.SensorBundle, len(bundles))
	for i := range bundles {
		index[bundleKey(bundles[i].SensorID, bundles[i].Part)] = &bundles[i]
	}
	return index
}

func bundleKey(sensorID, part string) string {
	if part == "" {
		return sensorID
	}
	return sensorID + "#" + part
}

func powerOf(bundle *models.SensorBundle) float64 {
	if reading := bundle.FindReading("Power"); reading != nil {
		return reading.Value
	}
	return 0
}

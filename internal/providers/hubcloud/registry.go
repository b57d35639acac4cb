package hubcloud

import "roomsense/internal/models"

// DeviceClass is a hub-cloud capability class. The hub exposes no discovery
// API; device identity is a fixed registry.
type DeviceClass string

const (
	ClassHub    DeviceClass = "hub"
	ClassSensor DeviceClass = "sensor"
	ClassSwitch DeviceClass = "switch"
	ClassMotion DeviceClass = "motion"
)

// Resource codes readable from motion-class devices.
const (
	ResourceMotion      = "3.51.85"
	ResourceBattery     = "8.0.2008"
	ResourceRSSI        = "0.4.85"
	ResourceIlluminance = "3.1.85"
	ResourceTemperature = "0.1.85"
)

// motionResources is the batched subject query set for one motion device.
var motionResources = []string{
	ResourceMotion,
	ResourceBattery,
	ResourceRSSI,
	ResourceIlluminance,
	ResourceTemperature,
}

// resourceUnits maps resource codes to display units. Motion is boolean-like
// and carries the sentinel unit.
var resourceUnits = map[string]string{
	ResourceMotion:      models.UnitBoolean,
	ResourceBattery:     "V",
	ResourceRSSI:        "dBm",
	ResourceIlluminance: "lx",
	ResourceTemperature: "°C",
}

// RegisteredDevice describes one fixed hub-cloud device.
type RegisteredDevice struct {
	ID    string
	Name  string
	Class DeviceClass
}

// Registry is the fixed hub-cloud device inventory.
type Registry struct {
	devices map[string]RegisteredDevice
}

// NewRegistry builds a registry from a device list.
func NewRegistry(devices []RegisteredDevice) *Registry {
	index := make(map[string]RegisteredDevice, len(devices))
	for _, d := range devices {
		index[d.ID] = d
	}
	return &Registry{devices: index}
}

// Lookup returns the registered device for an id.
func (r *Registry) Lookup(id string) (RegisteredDevice, bool) {
	d, ok := r.devices[id]
	return d, ok
}

// MotionDevices returns every motion-class device; only those expose readable
// resources in this system.
func (r *Registry) MotionDevices() []RegisteredDevice {
	var out []RegisteredDevice
	for _, d := range r.devices {
		if d.Class == ClassMotion {
			out = append(out, d)
		}
	}
	return out
}

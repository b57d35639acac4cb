package models

import "time"

// Provider identifies which upstream cloud owns a device.
type Provider string

const (
	ProviderEnvCloud Provider = "envcloud"
	ProviderHubCloud Provider = "hubcloud"
)

// DeviceType classifies what a device measures.
type DeviceType string

const (
	DeviceEnvironment DeviceType = "ENVIRONMENT"
	DevicePower       DeviceType = "POWER"
	DeviceMotion      DeviceType = "MOTION"
	DeviceOther       DeviceType = "OTHER"
)

// RoomType distinguishes plain rooms from multi-part suites.
type RoomType string

const (
	RoomStandard RoomType = "STANDARD"
	RoomSuite    RoomType = "SUITE"
)

// Building is the root of the location hierarchy.
type Building struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Address   string    `db:"address" json:"address"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Floor belongs to a building.
type Floor struct {
	ID         int64  `db:"id" json:"id"`
	BuildingID int64  `db:"building_id" json:"building_id"`
	Name       string `db:"name" json:"name"`
	Level      int    `db:"level" json:"level"`
}

// Room belongs to a floor.
type Room struct {
	ID       int64    `db:"id" json:"id"`
	FloorID  int64    `db:"floor_id" json:"floor_id"`
	Name     string   `db:"name" json:"name"`
	Type     RoomType `db:"room_type" json:"room_type"`
	Capacity int      `db:"capacity" json:"capacity"`
}

// Device binds a physical sensor to a room. The (Provider, ExternalID) pair is
// the only key the upstream adapters understand; internal IDs never go upstream.
type Device struct {
	ID         int64      `db:"id" json:"id"`
	RoomID     int64      `db:"room_id" json:"room_id"`
	Name       string     `db:"name" json:"name"`
	Provider   Provider   `db:"provider" json:"provider"`
	ExternalID string     `db:"external_id" json:"external_id"`
	Type       DeviceType `db:"device_type" json:"device_type"`
	Part       string     `db:"part" json:"part,omitempty"`
}

// Ref returns the sensor reference the aggregator fetches by.
func (d *Device) Ref() SensorRef {
	return SensorRef{Provider: d.Provider, ExternalID: d.ExternalID, Part: d.Part}
}

// PresenceSample is one deduplicated raw motion sample from the presence log.
type PresenceSample struct {
	ID         int64     `db:"id" json:"id"`
	ExternalID string    `db:"external_id" json:"external_id"`
	FloorID    int64     `db:"floor_id" json:"floor_id"`
	Value      float64   `db:"value" json:"value"`
	RecordedAt time.Time `db:"recorded_at" json:"recorded_at"`
}

// SystemSettings is the single settings row supplying tariff configuration.
type SystemSettings struct {
	PricePerKwh      float64 `db:"price_per_kwh" json:"price_per_kwh"`
	DayPricePerKwh   float64 `db:"day_price_per_kwh" json:"day_price_per_kwh"`
	NightPricePerKwh float64 `db:"night_price_per_kwh" json:"night_price_per_kwh"`
	TariffTimezone   string  `db:"tariff_timezone" json:"tariff_timezone"`
}

package repository

import (
	"context"
	"database/sql"

	"roomsense/internal/models"
)

// HierarchyRepository reads the building → floor → room → device tree.
type HierarchyRepository struct {
	db *sql.DB
}

// NewHierarchyRepository returns repository.
func NewHierarchyRepository(db *sql.DB) *HierarchyRepository {
	return &HierarchyRepository{db: db}
}

// GetBuilding returns one building by id.
func (r *HierarchyRepository) GetBuilding(ctx context.Context, id int64) (*models.Building, error) {
	const query = `
		SELECT id, name, address, created_at
		FROM buildings
		WHERE id = $1
	`
	var b models.Building
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&b.ID, &b.Name, &b.Address, &b.CreatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

// ListFloors returns floors of a building ordered by level.
func (r *HierarchyRepository) ListFloors(ctx context.Context, buildingID int64) ([]models.Floor, error) {
	const query = `
		SELECT id, building_id, name, level
		FROM floors
		WHERE building_id = $1
		ORDER BY level ASC
	`
	rows, err := r.db.QueryContext(ctx, query, buildingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var floors []models.Floor
	for rows.Next() {
		var f models.Floor
		if err := rows.Scan(&f.ID, &f.BuildingID, &f.Name, &f.Level); err != nil {
			return nil, err
		}
		floors = append(floors, f)
	}
	return floors, rows.Err()
}

// ListRooms returns rooms of a floor.
func (r *HierarchyRepository) ListRooms(ctx context.Context, floorID int64) ([]models.Room, error) {
	const query = `
		SELECT id, floor_id, name, room_type, capacity
		FROM rooms
		WHERE floor_id = $1
		ORDER BY name ASC
	`
	rows, err := r.db.QueryContext(ctx, query, floorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rooms []models.Room
	for rows.Next() {
		var room models.Room
		if err := rows.Scan(&room.ID, &room.FloorID, &room.Name, &room.Type, &room.Capacity); err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	return rooms, rows.Err()
}

// ListDevices returns devices of a room.
func (r *HierarchyRepository) ListDevices(ctx context.Context, roomID int64) ([]models.Device, error) {
	const query = `
		SELECT id, room_id, name, provider, external_id, device_type, COALESCE(part, '')
		FROM devices
		WHERE room_id = $1
		ORDER BY name ASC
	`
	return r.scanDevices(r.db.QueryContext(ctx, query, roomID))
}

// ListDevicesByBuilding returns every device in a building in one query, so
// the composer batches a single aggregator call for the whole tree.
func (r *HierarchyRepository) ListDevicesByBuilding(ctx context.Context, buildingID int64) ([]models.Device, error) {
	const query = `
		SELECT d.id, d.room_id, d.name, d.provider, d.external_id, d.device_type, COALESCE(d.part, '')
		FROM devices d
		JOIN rooms rm ON rm.id = d.room_id
		JOIN floors f ON f.id = rm.floor_id
		WHERE f.building_id = $1
	`
	return r.scanDevices(r.db.QueryContext(ctx, query, buildingID))
}

func (r *HierarchyRepository) scanDevices(rows *sql.Rows, err error) ([]models.Device, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var devices []models.Device
	for rows.Next() {
		var d models.Device
		if err := rows.Scan(&d.ID, &d.RoomID, &d.Name, &d.Provider, &d.ExternalID, &d.Type, &d.Part); err != nil {
			return nil, err
		}
		devices = append(devices, d)
	}
	return devices, rows.Err()
}

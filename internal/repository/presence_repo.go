package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"roomsense/internal/models"
)

// PresenceRepository stores deduplicated raw presence samples.
type PresenceRepository struct {
	db *sql.DB
}

// NewPresenceRepository returns repository.
func NewPresenceRepository(db *sql.DB) *PresenceRepository {
	return &PresenceRepository{db: db}
}

// InsertIfChanged persists a sample only when its value differs from the
// immediately preceding stored sample for the same external sensor id. The
// dedup keeps repeated polls of an unchanged sensor from double counting as
// separate presence events in the minute rollup. Returns whether a row was
// written.
func (r *PresenceRepository) InsertIfChanged(ctx context.Context, sample models.PresenceSample) (bool, error) {
	const lastQuery = `
		SELECT value
		FROM presence_log
		WHERE external_id = $1
		ORDER BY recorded_at DESC
		LIMIT 1
	`
	var lastValue float64
	err := r.db.QueryRowContext(ctx, lastQuery, sample.ExternalID).Scan(&lastValue)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// First sample for this sensor always persists.
	case err != nil:
		return false, err
	case lastValue == sample.Value:
		return false, nil
	}

	const insertQuery = `
		INSERT INTO presence_log (external_id, floor_id, value, recorded_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	err = r.db.QueryRowContext(ctx, insertQuery,
		sample.ExternalID,
		sample.FloorID,
		sample.Value,
		sample.RecordedAt.UTC(),
	).Scan(&sample.ID)
	if err != nil {
		return false, err
	}
	return true, nil
}

// FetchWindow returns samples for one floor inside [from, to), oldest first.
func (r *PresenceRepository) FetchWindow(ctx context.Context, floorID int64, from, to time.Time) ([]models.PresenceSample, error) {
	const query = `
		SELECT id, external_id, floor_id, value, recorded_at
		FROM presence_log
		WHERE floor_id = $1 AND recorded_at >= $2 AND recorded_at < $3
		ORDER BY recorded_at ASC
	`
	rows, err := r.db.QueryContext(ctx, query, floorID, from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var samples []models.PresenceSample
	for rows.Next() {
		var s models.PresenceSample
		if err := rows.Scan(&s.ID, &s.ExternalID, &s.FloorID, &s.Value, &s.RecordedAt); err != nil {
			return nil, err
		}
		samples = append(samples, s)
	}
	return samples, rows.Err()
}

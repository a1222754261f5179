package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
	"fuelcoupons/internal/interfaces"
	"fuelcoupons/internal/models"
)

type stationRepository struct {
	db *sql.DB
}

func NewStationRepository(db *sql.DB) interfaces.StationRepository {
	return &stationRepository{db: db}
}

func (r *stationRepository) Create(ctx context.Context, station *models.Station) error {
	query := `INSERT INTO stations (name, address, created_at, updated_at)
			  VALUES ($1, $2, $3, $3) RETURNING id`

	now := time.Now().UTC()
	if err := r.db.QueryRowContext(ctx, query, station.Name, station.Address, now).Scan(&station.ID); err != nil {
		return fmt.Errorf("create station: %w", err)
	}

	station.CreatedAt = now
	station.UpdatedAt = now
	return nil
}

func (r *stationRepository) GetByID(ctx context.Context, id int64) (*models.Station, error) {
	query := `SELECT id, name, address, created_at, updated_at
			  FROM stations WHERE id = $1`

	var s models.Station
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&s.ID,
		&s.Name,
		&s.Address,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *stationRepository) GetByIDWithDispensers(ctx context.Context, id int64) (*models.StationWithDispensers, error) {
	station, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	dispensers, err := r.ListDispensers(ctx, id)
	if err != nil {
		return nil, err
	}

	out := &models.StationWithDispensers{Station: *station}
	for _, d := range dispensers {
		out.Dispensers = append(out.Dispensers, *d)
	}
	return out, nil
}

func (r *stationRepository) List(ctx context.Context, limit, offset int) ([]*models.Station, error) {
	query := `SELECT id, name, address, created_at, updated_at
			  FROM stations ORDER BY id LIMIT $1 OFFSET $2`

	if limit <= 0 {
		limit = 100
	}

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stations []*models.Station
	for rows.Next() {
		var s models.Station
		if err := rows.Scan(&s.ID, &s.Name, &s.Address, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		stations = append(stations, &s)
	}
	return stations, rows.Err()
}

func (r *stationRepository) AddDispenser(ctx context.Context, dispenser *models.Dispenser) error {
	fuelTypes := dispenser.FuelTypes
	if fuelTypes == nil {
		fuelTypes = []string{}
	}

	query := `INSERT INTO dispensers (station_id, name, fuel_types, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $4) RETURNING id`

	now := time.Now().UTC()
	err := r.db.QueryRowContext(ctx, query, dispenser.StationID, dispenser.Name, pq.Array(fuelTypes), now).Scan(&dispenser.ID)
	if err != nil {
		return fmt.Errorf("add dispenser: %w", err)
	}

	dispenser.CreatedAt = now
	dispenser.UpdatedAt = now
	return nil
}

func (r *stationRepository) GetDispenser(ctx context.Context, stationID, dispenserID int64) (*models.Dispenser, error) {
	query := `SELECT id, station_id, name, fuel_types, created_at, updated_at
			  FROM dispensers WHERE id = $1 AND station_id = $2`

	var d models.Dispenser
	err := r.db.QueryRowContext(ctx, query, dispenserID, stationID).Scan(
		&d.ID,
		&d.StationID,
		&d.Name,
		pq.Array(&d.FuelTypes),
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *stationRepository) ListDispensers(ctx context.Context, stationID int64) ([]*models.Dispenser, error) {
	query := `SELECT id, station_id, name, fuel_types, created_at, updated_at
			  FROM dispensers WHERE station_id = $1 ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, stationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dispensers []*models.Dispenser
	for rows.Next() {
		var d models.Dispenser
		if err := rows.Scan(&d.ID, &d.StationID, &d.Name, pq.Array(&d.FuelTypes), &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		dispensers = append(dispensers, &d)
	}
	return dispensers, rows.Err()
}

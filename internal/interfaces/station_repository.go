package interfaces

import (
	"context"

	"fuelcoupons/internal/models"
)

// StationRepository defines the interface for station and dispenser data.
type StationRepository interface {
	Create(ctx context.Context, station *models.Station) error
	GetByID(ctx context.Context, id int64) (*models.Station, error)
	GetByIDWithDispensers(ctx context.Context, id int64) (*models.StationWithDispensers, error)
	List(ctx context.Context, limit, offset int) ([]*models.Station, error)

	AddDispenser(ctx context.Context, dispenser *models.Dispenser) error
	GetDispenser(ctx context.Context, stationID, dispenserID int64) (*models.Dispenser, error)
	ListDispensers(ctx context.Context, stationID int64) ([]*models.Dispenser, error)
}

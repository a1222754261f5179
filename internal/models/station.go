// internal/models/station.go
package models

import "time"

type Station struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name" validate:"required"`
	Address   string    `json:"address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StationWithDispensers includes the dispensers installed at a station.
type StationWithDispensers struct {
	Station
	Dispensers []Dispenser `json:"dispensers,omitempty"`
}

type Dispenser struct {
	ID        int64     `json:"id"`
	StationID int64     `json:"station_id"`
	Name      string    `json:"name" validate:"required"`
	FuelTypes []string  `json:"fuel_types"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CreateStationRequest struct {
	Name    string `json:"name" validate:"required"`
	Address string `json:"address,omitempty"`
}

type CreateDispenserRequest struct {
	Name      string   `json:"name" validate:"required"`
	FuelTypes []string `json:"fuel_types" validate:"required,min=1"`
}

// StationAccessToken authorizes one dispenser at one station for a bounded
// time window. The token itself is stateless; no stored counterpart exists.
type StationAccessToken struct {
	Token       string    `json:"token"`
	StationID   int64     `json:"station_id"`
	DispenserID int64     `json:"dispenser_id"`
	ExpiresAt   time.Time `json:"expires_at"`
}

package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"fuelcoupons/internal/interfaces"
	"fuelcoupons/internal/models"
	"fuelcoupons/internal/token"
)

type StationHandler struct {
	stations        interfaces.StationRepository
	signer          *token.Signer
	stationTokenTTL time.Duration
	v               *validator.Validate
}

func NewStationHandler(stations interfaces.StationRepository, signer *token.Signer, stationTokenTTL time.Duration) *StationHandler {
	if stationTokenTTL <= 0 {
		stationTokenTTL = 12 * time.Hour
	}
	return &StationHandler{
		stations:        stations,
		signer:          signer,
		stationTokenTTL: stationTokenTTL,
		v:               validator.New(),
	}
}

func stationIDParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	idStr := chi.URLParam(r, name)
	if idStr == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Station ID is required")
		return 0, false
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid station ID")
		return 0, false
	}
	return id, true
}

// @Tags Stations
// @Summary Create a station
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param body body models.CreateStationRequest true "Create station request"
// @Success 201 {object} models.Station
// @Failure 400 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/stations/ [post]
func (h *StationHandler) CreateStation(w http.ResponseWriter, r *http.Request) {
	var req models.CreateStationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_json", "Invalid JSON: "+err.Error())
		return
	}
	if err := h.v.Struct(req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	station := &models.Station{Name: req.Name, Address: req.Address}
	if err := h.stations.Create(r.Context(), station); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "Failed to create station: "+err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, station)
}

// @Tags Stations
// @Summary Get a station with its dispensers
// @Security BearerAuth
// @Produce json
// @Param id path int true "Station ID"
// @Success 200 {object} models.StationWithDispensers
// @Failure 404 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/stations/{id}/ [get]
func (h *StationHandler) GetStation(w http.ResponseWriter, r *http.Request) {
	id, ok := stationIDParam(w, r, "id")
	if !ok {
		return
	}

	station, err := h.stations.GetByIDWithDispensers(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSONError(w, http.StatusNotFound, "not_found", "Station not found")
			return
		}
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "Failed to get station: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, station)
}

// @Tags Stations
// @Summary List stations
// @Security BearerAuth
// @Produce json
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/stations/ [get]
func (h *StationHandler) ListStations(w http.ResponseWriter, r *http.Request) {
	stations, err := h.stations.List(r.Context(), queryInt(r, "limit", 20), queryInt(r, "offset", 0))
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "Failed to list stations: "+err.Error())
		return
	}
	if stations == nil {
		stations = []*models.Station{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"stations": stations})
}

// @Tags Stations
// @Summary Add a dispenser to a station
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Station ID"
// @Param body body models.CreateDispenserRequest true "Create dispenser request"
// @Success 201 {object} models.Dispenser
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/stations/{id}/dispensers [post]
func (h *StationHandler) AddDispenser(w http.ResponseWriter, r *http.Request) {
	stationID, ok := stationIDParam(w, r, "id")
	if !ok {
		return
	}

	var req models.CreateDispenserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_json", "Invalid JSON: "+err.Error())
		return
	}
	if err := h.v.Struct(req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	if _, err := h.stations.GetByID(r.Context(), stationID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSONError(w, http.StatusNotFound, "not_found", "Station not found")
			return
		}
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "Failed to get station: "+err.Error())
		return
	}

	dispenser := &models.Dispenser{StationID: stationID, Name: req.Name, FuelTypes: req.FuelTypes}
	if err := h.stations.AddDispenser(r.Context(), dispenser); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "Failed to add dispenser: "+err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dispenser)
}

// @Tags Stations
// @Summary List dispensers at a station
// @Security BearerAuth
// @Produce json
// @Param id path int true "Station ID"
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/stations/{id}/dispensers [get]
func (h *StationHandler) ListDispensers(w http.ResponseWriter, r *http.Request) {
	stationID, ok := stationIDParam(w, r, "id")
	if !ok {
		return
	}

	dispensers, err := h.stations.ListDispensers(r.Context(), stationID)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "Failed to list dispensers: "+err.Error())
		return
	}
	if dispensers == nil {
		dispensers = []*models.Dispenser{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"dispensers": dispensers})
}

// @Tags Stations
// @Summary Issue a station access token for a dispenser
// @Security BearerAuth
// @Produce json
// @Param id path int true "Station ID"
// @Param dispenserID path int true "Dispenser ID"
// @Success 200 {object} models.StationAccessToken
// @Failure 404 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/stations/{id}/dispensers/{dispenserID}/access-token [post]
func (h *StationHandler) IssueAccessToken(w http.ResponseWriter, r *http.Request) {
	stationID, ok := stationIDParam(w, r, "id")
	if !ok {
		return
	}
	dispenserIDStr := chi.URLParam(r, "dispenserID")
	dispenserID, err := strconv.ParseInt(dispenserIDStr, 10, 64)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid dispenser ID")
		return
	}

	if _, err := h.stations.GetDispenser(r.Context(), stationID, dispenserID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSONError(w, http.StatusNotFound, "not_found", "Dispenser not found")
			return
		}
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "Failed to get dispenser: "+err.Error())
		return
	}

	expiresAt := time.Now().UTC().Add(h.stationTokenTTL)
	signed, err := h.signer.SignStationToken(stationID, dispenserID, expiresAt)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "Failed to sign station token: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, models.StationAccessToken{
		Token:       signed,
		StationID:   stationID,
		DispenserID: dispenserID,
		ExpiresAt:   expiresAt,
	})
}

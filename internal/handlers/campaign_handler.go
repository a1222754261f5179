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
	"github.com/google/uuid"

	"fuelcoupons/internal/interfaces"
	"fuelcoupons/internal/models"
)

type CampaignHandler struct {
	campaigns interfaces.CampaignRepository
	v         *validator.Validate
}

func NewCampaignHandler(campaigns interfaces.CampaignRepository) *CampaignHandler {
	return &CampaignHandler{campaigns: campaigns, v: validator.New()}
}

// campaignTransitions lists the legal next statuses per current status.
// Completed and cancelled are terminal.
var campaignTransitions = map[models.CampaignStatus][]models.CampaignStatus{
	models.CampaignStatusDraft:  {models.CampaignStatusActive, models.CampaignStatusCancelled},
	models.CampaignStatusActive: {models.CampaignStatusPaused, models.CampaignStatusCompleted, models.CampaignStatusCancelled},
	models.CampaignStatusPaused: {models.CampaignStatusActive, models.CampaignStatusCancelled},
}

func campaignTransitionAllowed(from, to models.CampaignStatus) bool {
	for _, s := range campaignTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// @Tags Campaigns
// @Summary Create a campaign
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param body body models.CreateCampaignRequest true "Create campaign request"
// @Success 201 {object} models.Campaign
// @Failure 400 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/campaigns/ [post]
func (h *CampaignHandler) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var req models.CreateCampaignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_json", "Invalid JSON: "+err.Error())
		return
	}
	if err := h.v.Struct(req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}
	if req.DefaultFixedDiscount != nil && req.DefaultDiscountPercentage != nil {
		writeJSONError(w, http.StatusBadRequest, "validation_error", "a campaign may carry either a fixed discount or a percentage, not both")
		return
	}

	campaign := &models.Campaign{
		ID:                        uuid.NewString(),
		Name:                      req.Name,
		Status:                    models.CampaignStatusDraft,
		StartDate:                 req.StartDate,
		EndDate:                   req.EndDate,
		DefaultFixedDiscount:      req.DefaultFixedDiscount,
		DefaultDiscountPercentage: req.DefaultDiscountPercentage,
		DefaultRaffleTickets:      req.DefaultRaffleTickets,
		MaxCoupons:                req.MaxCoupons,
	}

	if err := h.campaigns.Create(r.Context(), campaign); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "Failed to create campaign: "+err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, campaign)
}

// @Tags Campaigns
// @Summary Get a campaign
// @Security BearerAuth
// @Produce json
// @Param id path string true "Campaign ID"
// @Success 200 {object} models.Campaign
// @Failure 404 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/campaigns/{id}/ [get]
func (h *CampaignHandler) GetCampaign(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Campaign ID is required")
		return
	}

	campaign, err := h.campaigns.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSONError(w, http.StatusNotFound, "not_found", "Campaign not found")
			return
		}
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "Failed to get campaign: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, campaign)
}

// @Tags Campaigns
// @Summary List campaigns
// @Security BearerAuth
// @Produce json
// @Param status query string false "Filter by status"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/campaigns/ [get]
func (h *CampaignHandler) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	filter := interfaces.CampaignFilter{
		Status: r.URL.Query().Get("status"),
		Limit:  queryInt(r, "limit", 20),
		Offset: queryInt(r, "offset", 0),
	}

	campaigns, err := h.campaigns.List(r.Context(), filter)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "Failed to list campaigns: "+err.Error())
		return
	}
	if campaigns == nil {
		campaigns = []*models.Campaign{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"campaigns": campaigns})
}

// @Tags Campaigns
// @Summary Campaign counters summary
// @Security BearerAuth
// @Produce json
// @Success 200 {object} models.CampaignSummary
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/campaigns/summary [get]
func (h *CampaignHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.campaigns.Summary(r.Context(), interfaces.CampaignFilter{})
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "Failed to summarize campaigns: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// @Tags Campaigns
// @Summary Update campaign status
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Campaign ID"
// @Param body body models.UpdateCampaignStatusRequest true "New status"
// @Success 200 {object} models.Campaign
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/campaigns/{id}/status [put]
func (h *CampaignHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Campaign ID is required")
		return
	}

	var req models.UpdateCampaignStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_json", "Invalid JSON: "+err.Error())
		return
	}
	if err := h.v.Struct(req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}
	next := models.CampaignStatus(req.Status)

	campaign, err := h.campaigns.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSONError(w, http.StatusNotFound, "not_found", "Campaign not found")
			return
		}
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "Failed to get campaign: "+err.Error())
		return
	}

	if campaign.Status == next {
		writeJSON(w, http.StatusOK, campaign)
		return
	}
	if !campaignTransitionAllowed(campaign.Status, next) {
		writeJSONError(w, http.StatusConflict, "illegal_transition",
			"Cannot move campaign from "+string(campaign.Status)+" to "+string(next))
		return
	}

	rows, err := h.campaigns.UpdateStatusIfCurrent(r.Context(), id, campaign.Status, next)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "Failed to update campaign: "+err.Error())
		return
	}
	if rows == 0 {
		// Someone else changed the status since we read it.
		writeJSONError(w, http.StatusConflict, "conflict", "Campaign status changed concurrently, retry")
		return
	}

	campaign.Status = next
	campaign.UpdatedAt = time.Now().UTC()
	writeJSON(w, http.StatusOK, campaign)
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

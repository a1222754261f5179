package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"fuelcoupons/internal/interfaces"
	"fuelcoupons/internal/models"
	"fuelcoupons/internal/service"
)

type CouponHandler struct {
	coupons interfaces.CouponRepository
	svc     *service.CouponService
	v       *validator.Validate
}

func NewCouponHandler(coupons interfaces.CouponRepository, svc *service.CouponService) *CouponHandler {
	return &CouponHandler{coupons: coupons, svc: svc, v: validator.New()}
}

// @Tags Coupons
// @Summary Issue a coupon under a campaign
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param body body models.IssueCouponRequest true "Issue coupon request"
// @Success 201 {object} models.Coupon
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/coupons/ [post]
func (h *CouponHandler) IssueCoupon(w http.ResponseWriter, r *http.Request) {
	var req models.IssueCouponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_json", "Invalid JSON: "+err.Error())
		return
	}
	if err := h.v.Struct(req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	coupon, err := h.svc.IssueCoupon(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCampaignNotFound):
			writeJSONError(w, http.StatusNotFound, "campaign_not_found", "Campaign not found")
		case errors.Is(err, service.ErrCampaignNotActive):
			writeJSONError(w, http.StatusConflict, "campaign_not_active", "Campaign is not active")
		case errors.Is(err, service.ErrCampaignCapacityReached):
			writeJSONError(w, http.StatusConflict, "campaign_capacity_reached", "Campaign coupon capacity reached")
		default:
			writeJSONError(w, http.StatusInternalServerError, "internal_error", "Failed to issue coupon: "+err.Error())
		}
		return
	}

	writeJSON(w, http.StatusCreated, coupon)
}

// @Tags Coupons
// @Summary Get a coupon
// @Security BearerAuth
// @Produce json
// @Param id path string true "Coupon ID"
// @Success 200 {object} models.Coupon
// @Failure 404 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/coupons/{id}/ [get]
func (h *CouponHandler) GetCoupon(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Coupon ID is required")
		return
	}

	coupon, err := h.coupons.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSONError(w, http.StatusNotFound, "not_found", "Coupon not found")
			return
		}
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "Failed to get coupon: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, coupon)
}

// @Tags Coupons
// @Summary List coupons
// @Security BearerAuth
// @Produce json
// @Param campaign_id query string false "Filter by campaign"
// @Param status query string false "Filter by status"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/coupons/ [get]
func (h *CouponHandler) ListCoupons(w http.ResponseWriter, r *http.Request) {
	filter := interfaces.CouponFilter{
		CampaignID: r.URL.Query().Get("campaign_id"),
		Status:     r.URL.Query().Get("status"),
		Limit:      queryInt(r, "limit", 20),
		Offset:     queryInt(r, "offset", 0),
	}

	coupons, err := h.coupons.List(r.Context(), filter)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "Failed to list coupons: "+err.Error())
		return
	}
	if coupons == nil {
		coupons = []*models.Coupon{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"coupons": coupons})
}

// @Tags Coupons
// @Summary Activate an inactive coupon
// @Security BearerAuth
// @Produce json
// @Param id path string true "Coupon ID"
// @Success 200 {object} models.Coupon
// @Failure 404 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/v1/coupons/{id}/activate [post]
func (h *CouponHandler) ActivateCoupon(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.Activate)
}

// @Tags Coupons
// @Summary Deactivate an active coupon
// @Security BearerAuth
// @Produce json
// @Param id path string true "Coupon ID"
// @Success 200 {object} models.Coupon
// @Failure 404 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/v1/coupons/{id}/deactivate [post]
func (h *CouponHandler) DeactivateCoupon(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.Deactivate)
}

// @Tags Coupons
// @Summary Cancel a coupon
// @Security BearerAuth
// @Produce json
// @Param id path string true "Coupon ID"
// @Success 200 {object} models.Coupon
// @Failure 404 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/v1/coupons/{id}/cancel [post]
func (h *CouponHandler) CancelCoupon(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.Cancel)
}

func (h *CouponHandler) transition(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, id string) (*models.Coupon, error)) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Coupon ID is required")
		return
	}

	coupon, err := op(r.Context(), id)
	if err != nil {
		var te *service.TransitionError
		switch {
		case errors.Is(err, service.ErrCouponNotFound):
			writeJSONError(w, http.StatusNotFound, "not_found", "Coupon not found")
		case errors.As(err, &te):
			writeJSONError(w, http.StatusConflict, "illegal_transition", te.Error())
		default:
			writeJSONError(w, http.StatusInternalServerError, "internal_error", "Failed to update coupon: "+err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, coupon)
}

// @Tags Coupons
// @Summary Expire all overdue coupons
// @Security BearerAuth
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/coupons/expire-overdue [post]
func (h *CouponHandler) ExpireOverdue(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.ExpireOverdue(r.Context())
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "Failed to expire coupons: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"expired": n})
}

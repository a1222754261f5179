package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"fuelcoupons/internal/middleware"
	"fuelcoupons/internal/models"
	"fuelcoupons/internal/service"
)

type RedemptionHandler struct {
	redemptions *service.RedemptionService
	coupons     *service.CouponService
	v           *validator.Validate
}

func NewRedemptionHandler(redemptions *service.RedemptionService, coupons *service.CouponService) *RedemptionHandler {
	return &RedemptionHandler{redemptions: redemptions, coupons: coupons, v: validator.New()}
}

func (h *RedemptionHandler) decodeRequest(w http.ResponseWriter, r *http.Request) (models.RedemptionRequest, bool) {
	var req models.RedemptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_json", "Invalid JSON: "+err.Error())
		return req, false
	}

	// A station access token on the request pins the station context.
	if sc, ok := middleware.StationFromContext(r.Context()); ok {
		req.StationID = sc.StationID
	}

	if err := h.v.Struct(req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "validation_error", err.Error())
		return req, false
	}
	return req, true
}

// @Tags Redemption
// @Summary Validate a coupon token for redemption
// @Accept json
// @Produce json
// @Param body body models.RedemptionRequest true "Redemption context"
// @Success 200 {object} models.ValidationOutcome
// @Failure 400 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/redemptions/validate [post]
func (h *RedemptionHandler) Validate(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}
	if req.Token == "" {
		writeJSONError(w, http.StatusBadRequest, "validation_error", "token is required")
		return
	}

	outcome, err := h.redemptions.ValidateForRedemption(r.Context(), req)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "Failed to validate coupon: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

// @Tags Redemption
// @Summary Validate by human-readable coupon code
// @Accept json
// @Produce json
// @Param body body models.RedemptionRequest true "Redemption context"
// @Success 200 {object} models.ValidationOutcome
// @Failure 400 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/redemptions/validate-code [post]
func (h *RedemptionHandler) ValidateByCode(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}
	if req.CouponCode == "" {
		writeJSONError(w, http.StatusBadRequest, "validation_error", "coupon_code is required")
		return
	}

	outcome, err := h.redemptions.ValidateByCouponCode(r.Context(), req)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "Failed to validate coupon: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

// @Tags Redemption
// @Summary Validate a batch of coupon tokens
// @Accept json
// @Produce json
// @Param body body models.BatchValidationRequest true "Batch request"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/redemptions/validate-batch [post]
func (h *RedemptionHandler) ValidateBatch(w http.ResponseWriter, r *http.Request) {
	var req models.BatchValidationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_json", "Invalid JSON: "+err.Error())
		return
	}
	if sc, ok := middleware.StationFromContext(r.Context()); ok {
		req.StationID = sc.StationID
	}
	if err := h.v.Struct(req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	results, err := h.redemptions.ValidateBatch(r.Context(), req)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "Failed to validate batch: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

// @Tags Redemption
// @Summary Preview a coupon token without redemption context
// @Produce json
// @Param token query string true "Coupon token"
// @Success 200 {object} models.PreValidation
// @Failure 400 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/redemptions/prevalidate [get]
func (h *RedemptionHandler) PreValidate(w http.ResponseWriter, r *http.Request) {
	tok := r.URL.Query().Get("token")
	if tok == "" {
		writeJSONError(w, http.StatusBadRequest, "validation_error", "token query parameter is required")
		return
	}

	pv, err := h.redemptions.PreValidate(r.Context(), tok)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "Failed to prevalidate coupon: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, pv)
}

// RedemptionResult is the response of a completed redemption.
type RedemptionResult struct {
	Coupon          *models.Coupon  `json:"coupon"`
	Discount        models.Discount `json:"discount"`
	DiscountApplied float64         `json:"discount_applied"`
	RaffleTickets   int             `json:"raffle_tickets"`
}

// @Tags Redemption
// @Summary Redeem a coupon (validate and consume one use)
// @Accept json
// @Produce json
// @Param body body models.RedemptionRequest true "Redemption context"
// @Success 200 {object} RedemptionResult
// @Failure 400 {object} map[string]interface{}
// @Failure 422 {object} models.ValidationOutcome
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/redemptions/redeem [post]
func (h *RedemptionHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}
	if req.Token == "" {
		writeJSONError(w, http.StatusBadRequest, "validation_error", "token is required")
		return
	}

	outcome, err := h.redemptions.ValidateForRedemption(r.Context(), req)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "Failed to validate coupon: "+err.Error())
		return
	}
	if !outcome.CanBeUsed {
		writeJSON(w, http.StatusUnprocessableEntity, outcome)
		return
	}

	// The conditional update re-checks eligibility, so a coupon exhausted
	// between validation and consumption is refused here.
	coupon, err := h.coupons.ConsumeUse(r.Context(), outcome.Coupon.ID)
	if err != nil {
		var nu *service.NotUsableError
		switch {
		case errors.As(err, &nu):
			writeJSON(w, http.StatusUnprocessableEntity, &models.ValidationOutcome{
				Violations: []models.Violation{nu.Violation},
			})
		case errors.Is(err, service.ErrCouponNotFound):
			writeJSONError(w, http.StatusNotFound, "not_found", "Coupon not found")
		default:
			writeJSONError(w, http.StatusInternalServerError, "internal_error", "Failed to redeem coupon: "+err.Error())
		}
		return
	}

	result := RedemptionResult{
		Coupon:        coupon,
		Discount:      coupon.Discount(),
		RaffleTickets: coupon.RaffleTickets,
	}
	if req.PurchaseAmount != nil {
		result.DiscountApplied = coupon.DiscountFor(*req.PurchaseAmount)
	}
	writeJSON(w, http.StatusOK, result)
}

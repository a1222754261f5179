package handlers

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"fuelcoupons/internal/interfaces"
	"fuelcoupons/internal/service"
)

type IntegrityHandler struct {
	coupons   interfaces.CouponRepository
	integrity *service.IntegrityService
}

func NewIntegrityHandler(coupons interfaces.CouponRepository, integrity *service.IntegrityService) *IntegrityHandler {
	return &IntegrityHandler{coupons: coupons, integrity: integrity}
}

// @Tags Integrity
// @Summary Check the structural integrity of one coupon
// @Security BearerAuth
// @Produce json
// @Param id path string true "Coupon ID"
// @Success 200 {object} models.IntegrityReport
// @Failure 404 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/integrity/coupons/{id} [get]
func (h *IntegrityHandler) CheckCoupon(w http.ResponseWriter, r *http.Request) {
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

	writeJSON(w, http.StatusOK, h.integrity.CheckIntegrity(coupon))
}

// @Tags Integrity
// @Summary Sweep all coupons for corruption
// @Security BearerAuth
// @Produce json
// @Success 200 {object} models.IntegritySweepResult
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/integrity/sweep [post]
func (h *IntegrityHandler) Sweep(w http.ResponseWriter, r *http.Request) {
	result, err := h.integrity.SweepIntegrity(r.Context())
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "Failed to sweep coupons: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

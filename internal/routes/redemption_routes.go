package routes

import (
	"github.com/go-chi/chi/v5"

	"fuelcoupons/internal/handlers"
	"fuelcoupons/internal/middleware"
	"fuelcoupons/internal/service"
	"fuelcoupons/internal/token"
)

func RegisterRedemptionRoutes(router chi.Router, redemptionSvc *service.RedemptionService, couponSvc *service.CouponService, verifier *token.Verifier, stationAuthRequired bool) {
	redemptionHandler := handlers.NewRedemptionHandler(redemptionSvc, couponSvc)

	router.Route("/redemptions", func(r chi.Router) {
		r.Use(middleware.StationAuth(verifier, stationAuthRequired))

		r.Post("/validate", redemptionHandler.Validate)
		r.Post("/validate-code", redemptionHandler.ValidateByCode)
		r.Post("/validate-batch", redemptionHandler.ValidateBatch)
		r.Get("/prevalidate", redemptionHandler.PreValidate)
		r.Post("/redeem", redemptionHandler.Redeem)
	})
}

package routes

import (
	"github.com/go-chi/chi/v5"

	"fuelcoupons/internal/handlers"
	"fuelcoupons/internal/interfaces"
	"fuelcoupons/internal/service"
)

func RegisterIntegrityRoutes(router chi.Router, couponRepo interfaces.CouponRepository, integritySvc *service.IntegrityService) {
	integrityHandler := handlers.NewIntegrityHandler(couponRepo, integritySvc)

	router.Route("/integrity", func(r chi.Router) {
		r.Get("/coupons/{id}", integrityHandler.CheckCoupon)
		r.Post("/sweep", integrityHandler.Sweep)
	})
}

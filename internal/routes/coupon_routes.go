package routes

import (
	"github.com/go-chi/chi/v5"

	"fuelcoupons/internal/handlers"
	"fuelcoupons/internal/interfaces"
	"fuelcoupons/internal/service"
)

func RegisterCouponRoutes(router chi.Router, couponRepo interfaces.CouponRepository, couponSvc *service.CouponService) {
	couponHandler := handlers.NewCouponHandler(couponRepo, couponSvc)

	router.Route("/coupons", func(r chi.Router) {
		r.Get("/", couponHandler.ListCoupons)
		r.Post("/", couponHandler.IssueCoupon)
		r.Post("/expire-overdue", couponHandler.ExpireOverdue)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", couponHandler.GetCoupon)
			r.Post("/activate", couponHandler.ActivateCoupon)
			r.Post("/deactivate", couponHandler.DeactivateCoupon)
			r.Post("/cancel", couponHandler.CancelCoupon)
		})
	})
}

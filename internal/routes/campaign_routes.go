// internal/routes/campaign_routes.go
package routes

import (
	"github.com/go-chi/chi/v5"

	"fuelcoupons/internal/handlers"
	"fuelcoupons/internal/interfaces"
)

func RegisterCampaignRoutes(router chi.Router, campaignRepo interfaces.CampaignRepository) {
	campaignHandler := handlers.NewCampaignHandler(campaignRepo)

	router.Route("/campaigns", func(r chi.Router) {
		r.Get("/", campaignHandler.ListCampaigns)
		r.Post("/", campaignHandler.CreateCampaign)
		r.Get("/summary", campaignHandler.Summary)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", campaignHandler.GetCampaign)
			r.Put("/status", campaignHandler.UpdateStatus)
		})
	})
}

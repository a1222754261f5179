package routes

import (
	"database/sql"
	"time"

	"github.com/go-chi/chi/v5"

	"fuelcoupons/internal/handlers"
	"fuelcoupons/internal/repository"
	"fuelcoupons/internal/token"
)

func RegisterStationRoutes(router chi.Router, db *sql.DB, signer *token.Signer, stationTokenTTL time.Duration) {
	stationRepo := repository.NewStationRepository(db)
	stationHandler := handlers.NewStationHandler(stationRepo, signer, stationTokenTTL)

	router.Route("/stations", func(r chi.Router) {
		r.Get("/", stationHandler.ListStations)
		r.Post("/", stationHandler.CreateStation)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", stationHandler.GetStation)
			r.Get("/dispensers", stationHandler.ListDispensers)
			r.Post("/dispensers", stationHandler.AddDispenser)
			r.Post("/dispensers/{dispenserID}/access-token", stationHandler.IssueAccessToken)
		})
	})
}

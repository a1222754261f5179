// internal/routes/routes.go
package routes

import (
	"crypto/ecdsa"
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"fuelcoupons/internal/cache"
	"fuelcoupons/internal/config"
	"fuelcoupons/internal/repository"
	"fuelcoupons/internal/service"
	"fuelcoupons/internal/token"
)

func SetupRoutes(db *sql.DB, cfg *config.Config, s3cfg *config.S3Config) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"message": "fuelcoupons api"})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]any{"status": "ok"}
		dbStatus := map[string]any{"status": "ok"}
		status := http.StatusOK
		if err := db.PingContext(r.Context()); err != nil {
			dbStatus["status"] = "down"
			dbStatus["error"] = err.Error()
			resp["status"] = "degraded"
			status = http.StatusServiceUnavailable
		}
		resp["db"] = dbStatus
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(resp)
	})

	// Shared token machinery. Without a configured station key an ephemeral
	// one is generated and station auth on redemption endpoints is skipped.
	var stationKey *ecdsa.PrivateKey
	stationAuthRequired := false
	if cfg.StationTokenPrivateKeyPEM != "" {
		key, err := token.ParseStationPrivateKey([]byte(cfg.StationTokenPrivateKeyPEM))
		if err != nil {
			log.Printf("invalid station token private key, station auth disabled: %v", err)
		} else {
			stationKey = key
			stationAuthRequired = true
		}
	}
	if stationKey == nil {
		key, err := token.GenerateStationKey()
		if err != nil {
			log.Fatalf("generate ephemeral station key: %v", err)
		}
		stationKey = key
	}
	signer := token.NewSigner([]byte(cfg.CouponTokenSecret), stationKey)
	verifier := token.NewVerifier([]byte(cfg.CouponTokenSecret), &stationKey.PublicKey)

	var c cache.Cache
	if cfg.RedisAddr != "" {
		redisCache, err := cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Printf("redis unavailable, using in-memory cache: %v", err)
			c = cache.NewInMemoryCache()
		} else {
			c = redisCache
		}
	} else {
		c = cache.NewInMemoryCache()
	}

	couponRepo := repository.NewCouponRepository(db)
	campaignRepo := repository.NewCampaignRepository(db)

	maxTokenAge := time.Duration(cfg.CouponTokenMaxAgeDays) * 24 * time.Hour
	redemptionSvc := service.NewRedemptionService(couponRepo, campaignRepo, verifier, c, maxTokenAge)
	couponSvc := service.NewCouponService(couponRepo, campaignRepo, signer)

	var uploader service.ReportUploader
	if s3cfg != nil && s3cfg.Client != nil && s3cfg.Bucket != "" {
		uploader = service.NewS3ReportUploader(s3cfg.Client, s3cfg.Bucket, s3cfg.PublicBaseURL)
	}
	integritySvc := service.NewIntegrityService(couponRepo, verifier, uploader)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		RegisterAuthRoutes(r, db, cfg)
		RegisterUserRoutes(r, db, cfg)
		RegisterCampaignRoutes(r, campaignRepo)
		RegisterCouponRoutes(r, couponRepo, couponSvc)
		RegisterRedemptionRoutes(r, redemptionSvc, couponSvc, verifier, stationAuthRequired)
		RegisterStationRoutes(r, db, signer, time.Duration(cfg.StationTokenTTLSeconds)*time.Second)
		RegisterIntegrityRoutes(r, couponRepo, integritySvc)
	})

	RegisterSwaggerRoutes(r)

	return r
}

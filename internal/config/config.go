// internal/config/config.go
package config

import (
	"net/url"
	"os"
	"strconv"
)

type Config struct {
	Port        string
	Environment string
	DatabaseURL string

	JWTSecret           string
	JWTExpiresInSeconds int64
	AuthVerboseErrors   bool

	// CouponTokenSecret signs the HMAC of every issued coupon token.
	CouponTokenSecret     string
	CouponTokenMaxAgeDays int

	// StationTokenPrivateKeyPEM holds the ES256 private key for station
	// access tokens. Empty means station auth is disabled.
	StationTokenPrivateKeyPEM string
	StationTokenTTLSeconds    int64

	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

func Load() *Config {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		host := getEnv("PSQL_HOST", "localhost")
		port := getEnv("PSQL_PORT", "5432")
		user := getEnv("PSQL_USER", "postgres")
		password := getEnv("PSQL_PASSWORD", "postgres")
		dbName := getEnv("PSQL_DB_NAME", "fuelcoupons")

		u := &url.URL{
			Scheme: "postgres",
			User:   url.UserPassword(user, password),
			Host:   host + ":" + port,
			Path:   dbName,
		}
		q := u.Query()
		q.Set("sslmode", "disable")
		u.RawQuery = q.Encode()
		databaseURL = u.String()
	}

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		DatabaseURL: databaseURL,

		JWTSecret:           getEnv("JWT_SECRET", "dev-secret"),
		JWTExpiresInSeconds: getEnvInt64("JWT_EXPIRES_IN_SECONDS", 86400),
		AuthVerboseErrors:   getEnvBool("AUTH_VERBOSE_ERRORS", false),

		CouponTokenSecret:     getEnv("COUPON_TOKEN_SECRET", "dev-coupon-secret"),
		CouponTokenMaxAgeDays: int(getEnvInt64("COUPON_TOKEN_MAX_AGE_DAYS", 365)),

		StationTokenPrivateKeyPEM: os.Getenv("STATION_TOKEN_PRIVATE_KEY"),
		StationTokenTTLSeconds:    getEnvInt64("STATION_TOKEN_TTL_SECONDS", 43200),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       int(getEnvInt64("REDIS_DB", 0)),
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// Package config builds process configuration from the environment in one
// place. Services never read env vars themselves; main constructs them with
// explicit values so tests can substitute doubles.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultSignedURLTTL is the access window on every minted download link.
const DefaultSignedURLTTL = 7 * 24 * time.Hour

// Server captures HTTP server level configuration.
type Server struct {
	Addr          string
	JWTSigningKey string
	JWTIssuer     string
}

// Payments configures the payment gateway client.
type Payments struct {
	BaseURL   string
	SecretKey string
}

// Storage configures the artifact store gateway.
type Storage struct {
	UploadBaseURL string
	PublicBaseURL string
	Bucket        string
	SigningKeyID  string
	SigningKey    string
	SignedURLTTL  time.Duration
}

// Config is the full process configuration.
type Config struct {
	Server       Server
	Payments     Payments
	Storage      Storage
	PostgresDSN  string
	RedisURL     string
	KafkaBrokers []string
	KafkaTopic   string
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	ttl := DefaultSignedURLTTL
	if raw := os.Getenv("SIGNED_URL_TTL_SECONDS"); raw != "" {
		if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
			ttl = time.Duration(secs) * time.Second
		}
	}

	var brokers []string
	if raw := os.Getenv("KAFKA_BROKERS"); raw != "" {
		brokers = strings.Split(raw, ",")
	}

	return Config{
		Server: Server{
			Addr:          envOr("BEATVAULT_ADDR", ":8080"),
			JWTSigningKey: envOr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
			JWTIssuer:     envOr("JWT_ISSUER", "beatvault"),
		},
		Payments: Payments{
			BaseURL:   envOr("PAYMENT_GATEWAY_URL", "https://api.payments.example.com"),
			SecretKey: os.Getenv("PAYMENT_GATEWAY_SECRET"),
		},
		Storage: Storage{
			UploadBaseURL: envOr("BLOB_UPLOAD_URL", "https://storage.internal.example.com"),
			PublicBaseURL: envOr("BLOB_PUBLIC_URL", "https://downloads.example.com"),
			Bucket:        envOr("BLOB_BUCKET", "beatvault-artifacts"),
			SigningKeyID:  envOr("BLOB_SIGNING_KEY_ID", "primary"),
			SigningKey:    os.Getenv("BLOB_SIGNING_KEY"),
			SignedURLTTL:  ttl,
		},
		PostgresDSN:  os.Getenv("POSTGRES_DSN"),
		RedisURL:     os.Getenv("REDIS_URL"),
		KafkaBrokers: brokers,
		KafkaTopic:   envOr("KAFKA_PURCHASE_TOPIC", "purchase.fulfilled"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

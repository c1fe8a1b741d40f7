package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	JWT        JWTConfig
	OAuth      OAuthConfig
	Cloudinary CloudinaryConfig
	Firebase   FirebaseConfig
	Admin      AdminConfig
	Points     PointsConfig
	Telemetry  TelemetryConfig
}

type ServerConfig struct {
	Port         string        `env:"PORT" envDefault:"8099"`
	PublicURL    string        `env:"PUBLIC_URL" envDefault:"https://pontox.sxlocacoes.com.br"`
	Env          string        `env:"APP_ENV" envDefault:"development"`
	ReadTimeout  time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"10s"`
	RateLimit    int           `env:"RATE_LIMIT" envDefault:"100"`
	AuthLimit    int           `env:"AUTH_RATE_LIMIT" envDefault:"10"`
}

// DatabaseConfig selects the storage driver.
// mysql: gorm over MySQL. local: in-memory store persisted to a SQLite key/value file.
// memory: in-memory only (lost on restart).
type DatabaseConfig struct {
	Driver            string        `env:"DB_DRIVER" envDefault:"local"`
	DSN               string        `env:"DB_DSN" envDefault:"pontox:pontox@tcp(localhost:3306)/pontox?charset=utf8mb4&parseTime=True&loc=UTC"`
	MaxIdleConns      int           `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	MaxOpenConns      int           `env:"DB_MAX_OPEN_CONNS" envDefault:"100"`
	ConnMaxLifetime   time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"1h"`
	LocalPath         string        `env:"LOCAL_STATE_PATH" envDefault:"pontox-state.db"`
	LocalResetCorrupt bool          `env:"LOCAL_RESET_CORRUPT" envDefault:"false"`
}

type JWTConfig struct {
	AccessSecret  string        `env:"JWT_ACCESS_SECRET" envDefault:"change-me-in-production"`
	RefreshSecret string        `env:"JWT_REFRESH_SECRET" envDefault:"change-me-refresh"`
	AccessExpiry  time.Duration `env:"JWT_ACCESS_EXPIRY" envDefault:"15m"`
	RefreshExpiry time.Duration `env:"JWT_REFRESH_EXPIRY" envDefault:"168h"`
	Issuer        string        `env:"JWT_ISSUER" envDefault:"pontox"`
}

type OAuthConfig struct {
	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURL  string `env:"GOOGLE_REDIRECT_URL" envDefault:"http://localhost:8099/api/v1/auth/google/callback"`
}

type CloudinaryConfig struct {
	CloudName string `env:"CLOUDINARY_CLOUD_NAME"`
	APIKey    string `env:"CLOUDINARY_API_KEY"`
	APISecret string `env:"CLOUDINARY_API_SECRET"`
	Folder    string `env:"CLOUDINARY_FOLDER" envDefault:"pontox/spots"`
}

type FirebaseConfig struct {
	ServiceAccountPath string `env:"FIREBASE_SERVICE_ACCOUNT_PATH"`
}

// AdminConfig seeds the back-office account on startup.
type AdminConfig struct {
	Email    string `env:"ADMIN_EMAIL" envDefault:"admin@sxlocacoes.com.br"`
	Password string `env:"ADMIN_PASSWORD"`
	Name     string `env:"ADMIN_NAME" envDefault:"Administrador"`
}

type PointsConfig struct {
	CheckinRadiusMeters float64       `env:"CHECKIN_RADIUS_METERS" envDefault:"300"`
	StatsCacheTTL       time.Duration `env:"STATS_CACHE_TTL" envDefault:"30s"`
}

type TelemetryConfig struct {
	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	ServiceName  string `env:"OTEL_SERVICE_NAME" envDefault:"pontox"`
}

// Load reads configuration from the environment, falling back to defaults.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.Server.Env == "production" && cfg.JWT.AccessSecret == "change-me-in-production" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET must be set in production")
	}
	return cfg, nil
}

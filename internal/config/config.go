package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// Config holds everything the server needs, loaded from environment
// variables once at startup. Required values missing at load time are a
// startup error, not a runtime panic.
type Config struct {
	ListenAddr   string `env:"LISTEN_ADDR"`
	Port         string `env:"PORT" envDefault:"8080"`
	DatabasePath string `env:"DATABASE_PATH" envDefault:"dtales.db"`
	GinMode      string `env:"GIN_MODE" envDefault:"release"`

	SessionSecret string `env:"SESSION_SECRET,required,notEmpty"`
	AdminUsername string `env:"ADMIN_USERNAME,required,notEmpty"`
	AdminPassword string `env:"ADMIN_PASSWORD,required,notEmpty"`

	// S3-compatible object storage (Supabase storage, MinIO, AWS S3).
	StorageEndpoint  string `env:"STORAGE_ENDPOINT"`
	StorageRegion    string `env:"STORAGE_REGION" envDefault:"us-east-1"`
	StorageBucket    string `env:"STORAGE_BUCKET,required,notEmpty"`
	StorageAccessKey string `env:"STORAGE_ACCESS_KEY"`
	StorageSecretKey string `env:"STORAGE_SECRET_KEY"`
	// Base URL for serving uploaded objects. Empty means the uploader's
	// reported location is used as-is.
	StoragePublicBaseURL string `env:"STORAGE_PUBLIC_BASE_URL"`

	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`

	// AdminPasswordHash is derived from AdminPassword during Load so the
	// plaintext never travels further than this package.
	AdminPasswordHash []byte `env:"-"`
}

// Load reads an optional .env file, parses the environment and validates the
// result. Errors here should abort process startup.
func Load() (*Config, error) {
	// .env is a development convenience; absence is fine.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.ListenAddr == "" {
		cfg.ListenAddr = fmt.Sprintf(":%s", cfg.Port)
	}

	if strings.TrimSpace(cfg.AdminUsername) == "" {
		return nil, fmt.Errorf("ADMIN_USERNAME must not be blank")
	}
	if strings.TrimSpace(cfg.AdminPassword) == "" {
		return nil, fmt.Errorf("ADMIN_PASSWORD must not be blank")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing admin password: %w", err)
	}
	cfg.AdminPasswordHash = hash

	return cfg, nil
}

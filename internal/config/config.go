package config

import (
	"os"
	"time"

	"github.com/spf13/cast"
)

type Config struct {
	// Server
	ServerPort int
	Host       string

	// Database (optional; resolution cache falls back to memory without it)
	DatabaseURL string

	// Redis (optional; request cache falls back to memory without it)
	RedisURL string

	// Server-held credential for the catalog search proxy
	ApifyToken string

	// External collaborators
	MetadataAPIBase string
	SportsAPIBase   string
	EmbedBase       string

	// Sports polling
	SportsPollInterval time.Duration

	// Hosting page origin, used for the navigation shield's anchor policy
	PageOrigin string

	// Static assets directory served through the asset cache worker
	StaticDir string

	// Auth
	JWTSecret string

	// Debug
	Debug bool
}

// Load reads configuration from the environment. Every value has a working
// default except APIFY_TOKEN, which stays empty so the scraper proxy can
// report a misconfigured credential.
func Load() *Config {
	return &Config{
		ServerPort: cast.ToInt(getEnv("PORT", "8080")),
		Host:       getEnv("HOST", "0.0.0.0"),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),

		ApifyToken: os.Getenv("APIFY_TOKEN"),

		MetadataAPIBase: getEnv("METADATA_API_BASE", "https://api.imdbapi.dev"),
		SportsAPIBase:   getEnv("SPORTS_API_BASE", "https://streamed.pk/api"),
		EmbedBase:       getEnv("EMBED_BASE", "https://cinemaos.tech/player"),

		SportsPollInterval: pollInterval(),

		PageOrigin: getEnv("PAGE_ORIGIN", "http://localhost:8080"),
		StaticDir:  getEnv("STATIC_DIR", "./web"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		Debug: cast.ToBool(getEnv("DEBUG", "false")),
	}
}

func pollInterval() time.Duration {
	d := cast.ToDuration(getEnv("SPORTS_POLL_INTERVAL", "30s"))
	if d <= 0 {
		d = 30 * time.Second
	}
	return d
}

// getEnv returns the value of an environment variable or a default value
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

package config

import (
	"strings"
	"time"
)

// Config is the root configuration shared by the CLI client and the backend.
type Config struct {
	Backend BackendConfig `yaml:"backend"`
	Vision  VisionConfig  `yaml:"vision"`
	Log     LogConfig     `yaml:"log"`
	Server  ServerConfig  `yaml:"server"`
	Prices  PricesConfig  `yaml:"prices"`
	Events  EventsConfig  `yaml:"events"`
}

// BackendConfig is where the client sends collection requests.
type BackendConfig struct {
	URL string `yaml:"url" env:"POKEMARKET_API_URL" env-default:"https://pokemarketai-backend.onrender.com"`
}

// VisionConfig holds the vision-capable model endpoint settings.
// APIKey may be empty; identification then fails with a configuration error.
type VisionConfig struct {
	APIKey    string `yaml:"api_key"    env:"ANTHROPIC_API_KEY"`
	BaseURL   string `yaml:"base_url"   env:"ANTHROPIC_BASE_URL" env-default:"https://api.anthropic.com"`
	Model     string `yaml:"model"      env:"VISION_MODEL"       env-default:"claude-sonnet-4-20250514"`
	MaxTokens int64  `yaml:"max_tokens" env:"VISION_MAX_TOKENS"  env-default:"1024"`
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"text"`
}

// ServerConfig holds the collection backend settings.
type ServerConfig struct {
	Port               int           `yaml:"port"                 env:"PORT"                 env-default:"8080"`
	DatabaseURL        string        `yaml:"database_url"         env:"DATABASE_URL"         env-default:"./pokemarketai.db"`
	ScannedImagesDir   string        `yaml:"scanned_images_dir"   env:"SCANNED_IMAGES_DIR"   env-default:"./data/scanned_images"`
	CORSAllowedOrigins string        `yaml:"cors_allowed_origins" env:"CORS_ALLOWED_ORIGINS" env-default:"*"`
	ShutdownTimeout    time.Duration `yaml:"shutdown_timeout"     env:"SHUTDOWN_TIMEOUT"     env-default:"30s"`
}

// PricesConfig holds the external price sources and the snapshot schedule.
type PricesConfig struct {
	PokemonTCGAPIKey   string `yaml:"pokemon_tcg_api_key"   env:"POKEMON_TCG_API_KEY"`
	PriceTrackerAPIKey string `yaml:"price_tracker_api_key" env:"POKEMON_PRICE_TRACKER_API_KEY"`
	SnapshotHour       int    `yaml:"snapshot_hour"         env:"SNAPSHOT_HOUR"         env-default:"23"`
	RequestsPerSecond  int    `yaml:"requests_per_second"   env:"PRICE_REQUESTS_PER_SECOND" env-default:"2"`
	HistoryDays        int    `yaml:"history_days"          env:"PRICE_HISTORY_DAYS"    env-default:"90"`
}

// EventsConfig enables publishing card events to NATS when URL is set.
type EventsConfig struct {
	NATSURL       string `yaml:"nats_url"       env:"NATS_URL"`
	SubjectPrefix string `yaml:"subject_prefix" env:"NATS_SUBJECT_PREFIX" env-default:"pokemarket"`
}

// AllowedOrigins splits the comma-separated CORS origin list.
func (s ServerConfig) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(s.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// IsPostgres reports whether DatabaseURL points at PostgreSQL instead of a sqlite file.
func (s ServerConfig) IsPostgres() bool {
	return strings.HasPrefix(s.DatabaseURL, "postgres://") || strings.HasPrefix(s.DatabaseURL, "postgresql://")
}

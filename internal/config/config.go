package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port      string `mapstructure:"PORT"`
	Env       string `mapstructure:"ENV"`
	GinMode   string `mapstructure:"GIN_MODE"`
	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`

	EnableDB    bool   `mapstructure:"ENABLE_DB"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	DBMaxConns  int32  `mapstructure:"DB_MAX_CONNS"`
	DBMinConns  int32  `mapstructure:"DB_MIN_CONNS"`

	ModelDir              string `mapstructure:"MODEL_DIR"`
	ModelBlobURL          string `mapstructure:"MODEL_BLOB_URL"`
	ORTLibraryPath        string `mapstructure:"ORT_LIBRARY_PATH"`
	RecommendationCatalog string `mapstructure:"RECOMMENDATION_CATALOG"`
	TopK                  int    `mapstructure:"TOP_K"`

	AuthSigningKey string        `mapstructure:"AUTH_SIGNING_KEY"`
	TokenTTL       time.Duration `mapstructure:"TOKEN_TTL"`

	CORSOrigins    string  `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS   float64 `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int     `mapstructure:"RATE_LIMIT_BURST"`
	MaxBodyBytes   int64   `mapstructure:"MAX_BODY_BYTES"`
}

var defaults = map[string]any{
	"PORT":             "8080",
	"ENV":              "development",
	"GIN_MODE":         "release",
	"LOG_LEVEL":        "info",
	"LOG_FORMAT":       "json",
	"ENABLE_DB":        false,
	"DB_MAX_CONNS":     10,
	"DB_MIN_CONNS":     1,
	"MODEL_DIR":        "models/v1",
	"TOP_K":            3,
	"TOKEN_TTL":        "24h",
	"CORS_ORIGINS":     "*",
	"RATE_LIMIT_RPS":   10,
	"RATE_LIMIT_BURST": 20,
	"MAX_BODY_BYTES":   1 << 20,
}

var unset = []string{
	"DATABASE_URL",
	"MODEL_BLOB_URL",
	"ORT_LIBRARY_PATH",
	"RECOMMENDATION_CATALOG",
	"AUTH_SIGNING_KEY",
}

// Load reads .env when present, then the process environment. It does not
// validate; call Validate before serving.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	for key, val := range defaults {
		v.SetDefault(key, val)
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}
	for _, key := range unset {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.LogFormat = strings.ToLower(strings.TrimSpace(cfg.LogFormat))
	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// AllowedOrigins splits CORS_ORIGINS on commas or semicolons.
func (c *Config) AllowedOrigins() []string {
	out := []string{}
	for _, t := range strings.FieldsFunc(c.CORSOrigins, func(r rune) bool {
		return r == ',' || r == ';'
	}) {
		if trimmed := strings.TrimSpace(t); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// Validate reports every setting that would stop the server from running
// safely.
func (c *Config) Validate() error {
	var errs []error
	if c.EnableDB && c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required when ENABLE_DB=true"))
	}
	if c.IsProduction() && c.AuthSigningKey == "" {
		errs = append(errs, errors.New("AUTH_SIGNING_KEY is required when ENV=production"))
	}
	if c.TopK <= 0 {
		errs = append(errs, fmt.Errorf("TOP_K must be positive, got %d", c.TopK))
	}
	if c.LogFormat != "json" && c.LogFormat != "console" {
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be \"json\" or \"console\", got %q", c.LogFormat))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, fmt.Errorf("TOKEN_TTL must be positive, got %s", c.TokenTTL))
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive"))
	}
	if c.MaxBodyBytes <= 0 {
		errs = append(errs, fmt.Errorf("MAX_BODY_BYTES must be positive, got %d", c.MaxBodyBytes))
	}
	if c.ModelDir == "" {
		errs = append(errs, errors.New("MODEL_DIR is required"))
	}
	return errors.Join(errs...)
}

// README: Config loader with env defaults for HTTP, Redis, external APIs, and an optional planner YAML file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"wayfarer/internal/modules/capacity"
	"wayfarer/internal/modules/cluster"
	"wayfarer/internal/modules/enrich"
	"wayfarer/internal/modules/quality"
)

// PlannerConfig tunes the planning core. Zero-valued fields in the YAML file
// leave the code defaults in place.
type PlannerConfig struct {
	Cluster  cluster.Config  `yaml:"cluster"`
	Capacity capacity.Config `yaml:"capacity"`
	Quality  quality.Config  `yaml:"quality"`
	Enrich   enrich.Config   `yaml:"enrich"`

	EnableAdvisor    bool          `yaml:"enable_advisor"`
	EnableDirections bool          `yaml:"enable_directions"`
	AdvisorTimeout   time.Duration `yaml:"advisor_timeout"`
}

type Config struct {
	HTTP struct {
		Addr string
	}
	Redis struct {
		Addr     string
		CacheTTL time.Duration
	}
	AI struct {
		GeminiKey string
		Model     string
	}
	Maps struct {
		APIKey   string
		Language string
	}
	Planner PlannerConfig
}

func DefaultPlanner() PlannerConfig {
	return PlannerConfig{
		Cluster:          cluster.DefaultConfig(),
		Capacity:         capacity.DefaultConfig(),
		Quality:          quality.DefaultConfig(),
		Enrich:           enrich.DefaultConfig(),
		EnableAdvisor:    true,
		EnableDirections: true,
		AdvisorTimeout:   8 * time.Second,
	}
}

func Load() (Config, error) {
	var cfg Config
	cfg.HTTP.Addr = envOrDefault("WAYFARER_HTTP_ADDR", ":8080")
	cfg.Redis.Addr = envOrDefault("WAYFARER_REDIS_ADDR", "")
	cfg.Redis.CacheTTL = envOrDefaultDuration("WAYFARER_CACHE_TTL", enrich.DefaultCacheTTL)
	cfg.AI.GeminiKey = os.Getenv("GEMINI_API_KEY")
	cfg.AI.Model = envOrDefault("WAYFARER_GEMINI_MODEL", "gemini-2.0-flash")
	cfg.Maps.APIKey = os.Getenv("GOOGLE_MAPS_API_KEY")
	cfg.Maps.Language = envOrDefault("WAYFARER_MAPS_LANGUAGE", "en")

	cfg.Planner = DefaultPlanner()
	if path := os.Getenv("WAYFARER_PLANNER_CONFIG"); path != "" {
		p, err := LoadPlanner(path)
		if err != nil {
			return Config{}, err
		}
		cfg.Planner = p
	}
	cfg.Planner.Quality.StrictGeoChecks = envOrDefaultBool("WAYFARER_STRICT_GEO_CHECKS", cfg.Planner.Quality.StrictGeoChecks)
	cfg.Planner.EnableAdvisor = envOrDefaultBool("WAYFARER_ENABLE_ADVISOR", cfg.Planner.EnableAdvisor)
	cfg.Planner.EnableDirections = envOrDefaultBool("WAYFARER_ENABLE_DIRECTIONS", cfg.Planner.EnableDirections)
	return cfg, nil
}

// LoadPlanner reads a planner YAML file over the defaults.
func LoadPlanner(path string) (PlannerConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return PlannerConfig{}, fmt.Errorf("read planner config: %w", err)
	}
	return ParsePlanner(raw)
}

func ParsePlanner(raw []byte) (PlannerConfig, error) {
	cfg := DefaultPlanner()
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return PlannerConfig{}, fmt.Errorf("parse planner config: %w", err)
	}
	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func envOrDefaultDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

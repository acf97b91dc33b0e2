package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds service configuration loaded from YAML and env.
type Config struct {
	ServerPort string

	GitHubAPIURL     string
	GitHubAPITimeout time.Duration
	SearchMinStars   int
	SearchPerPage    int

	RequestTimeout time.Duration

	RateLimitRPS   int
	RateLimitBurst int

	ShutdownTimeout               time.Duration
	ShutdownInFlightTimeout       time.Duration
	ShutdownInFlightCheckInterval time.Duration
}

type fileConfig struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`

	GitHubAPI struct {
		URL      string `yaml:"url"`
		Timeout  string `yaml:"timeout"`
		MinStars *int   `yaml:"min_stars"`
		PerPage  int    `yaml:"per_page"`
	} `yaml:"github_api"`

	Request struct {
		Timeout string `yaml:"timeout"`
	} `yaml:"request"`

	Reliability struct {
		RateLimitRPS   int `yaml:"rate_limit_rps"`
		RateLimitBurst int `yaml:"rate_limit_burst"`
	} `yaml:"reliability"`

	Shutdown struct {
		Timeout               string `yaml:"timeout"`
		InFlightTimeout       string `yaml:"in_flight_timeout"`
		InFlightCheckInterval string `yaml:"in_flight_check_interval"`
	} `yaml:"shutdown"`
}

// Load reads configuration from config/{ENV_NAME}.yaml (default dev).
// A .env file in the working directory is loaded first if present;
// PORT and GITHUB_API_URL env vars override the file values. Call from
// project root.
func Load() (*Config, error) {
	_ = godotenv.Load() // optional; absence is not an error

	env := os.Getenv("ENV_NAME")
	if env == "" {
		env = "dev"
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("config: get working directory: %w", err)
	}
	configPath := filepath.Join(cwd, "config", env+".yaml")
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", configPath)
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	cfg := &Config{}

	cfg.ServerPort = strings.TrimSpace(os.Getenv("PORT"))
	if cfg.ServerPort == "" {
		cfg.ServerPort = fc.Server.Port
	}
	if cfg.ServerPort == "" {
		cfg.ServerPort = "8080"
	}

	cfg.GitHubAPIURL = strings.TrimSpace(os.Getenv("GITHUB_API_URL"))
	if cfg.GitHubAPIURL == "" {
		cfg.GitHubAPIURL = fc.GitHubAPI.URL
	}
	if cfg.GitHubAPIURL == "" {
		cfg.GitHubAPIURL = "https://api.github.com/search/repositories"
	}
	cfg.GitHubAPITimeout = parseDuration(fc.GitHubAPI.Timeout, 2*time.Second)

	cfg.SearchMinStars = 1
	if fc.GitHubAPI.MinStars != nil {
		cfg.SearchMinStars = *fc.GitHubAPI.MinStars
	}
	cfg.SearchPerPage = fc.GitHubAPI.PerPage
	if cfg.SearchPerPage <= 0 {
		cfg.SearchPerPage = 30
	}

	cfg.RequestTimeout = parseDuration(fc.Request.Timeout, 5*time.Second)

	cfg.RateLimitRPS = fc.Reliability.RateLimitRPS
	if cfg.RateLimitRPS <= 0 {
		cfg.RateLimitRPS = 100
	}
	cfg.RateLimitBurst = fc.Reliability.RateLimitBurst
	if cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = 250
	}

	cfg.ShutdownTimeout = parseDuration(fc.Shutdown.Timeout, 30*time.Second)
	cfg.ShutdownInFlightTimeout = parseDuration(fc.Shutdown.InFlightTimeout, 10*time.Second)
	cfg.ShutdownInFlightCheckInterval = parseDuration(fc.Shutdown.InFlightCheckInterval, 100*time.Millisecond)

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parseDuration parses a duration string and returns defaultVal on empty
// string, parse error, or a non-positive result.
func parseDuration(s string, defaultVal time.Duration) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

// validate performs post-load validation. RequestTimeout must leave headroom
// over the upstream timeout; it is auto-adjusted when it does not.
func validate(cfg *Config) error {
	if cfg.SearchMinStars < 0 {
		return fmt.Errorf("github_api.min_stars must be non-negative, got %d", cfg.SearchMinStars)
	}
	if cfg.SearchPerPage < 1 || cfg.SearchPerPage > 100 {
		return fmt.Errorf("github_api.per_page must be in 1..100, got %d", cfg.SearchPerPage)
	}
	if cfg.RequestTimeout <= cfg.GitHubAPITimeout {
		cfg.RequestTimeout = cfg.GitHubAPITimeout + time.Second
	}
	return nil
}

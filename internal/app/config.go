package app

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/specialistvlad/objgraph/internal/rules"
)

// Environment variables read by ConfigFromEnv.
const (
	EnvRules         = "OBJGRAPH_RULES"
	EnvCache         = "OBJGRAPH_CACHE"
	EnvInheritPolicy = "OBJGRAPH_INHERIT_POLICY"
	EnvLogLevel      = "OBJGRAPH_LOG_LEVEL"
	EnvLogFormat     = "OBJGRAPH_LOG_FORMAT"
	EnvPort          = "OBJGRAPH_PORT"
)

// DefaultPort is the inspection server port used when none is configured.
const DefaultPort = 8080

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	RulePaths     []string // rule files or directories
	CachePath     string   // SQLite rule cache; empty keeps the cache in memory
	InheritPolicy string

	LogFormat string
	LogLevel  string
	Port      int
}

// NewConfig validates cfg and returns a copy of it.
func NewConfig(cfg Config) (*Config, error) {
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("invalid log-format %q: must be 'text' or 'json'", cfg.LogFormat)
	}

	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if _, ok := parseLevel(cfg.LogLevel); !ok {
		return nil, fmt.Errorf("invalid log-level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.LogLevel)
	}

	if cfg.InheritPolicy == "" {
		cfg.InheritPolicy = rules.InheritExplicit.String()
	}
	if _, ok := rules.ParseInheritPolicy(cfg.InheritPolicy); !ok {
		return nil, fmt.Errorf("invalid inherit-policy %q: must be 'explicit' or 'unless-false'", cfg.InheritPolicy)
	}

	if cfg.Port < 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid port %d", cfg.Port)
	}
	return &cfg, nil
}

// Policy returns the parsed inheritance policy.
func (c *Config) Policy() rules.InheritPolicy {
	p, _ := rules.ParseInheritPolicy(c.InheritPolicy)
	return p
}

// LoadEnv loads .env style files into the process environment. Missing files
// are not an error; variables already set are not overridden.
func LoadEnv(files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		_ = godotenv.Load(f)
	}
}

// ConfigFromEnv returns a Config populated from the OBJGRAPH_* environment
// variables. OBJGRAPH_RULES is a comma separated list of paths.
func ConfigFromEnv() Config {
	var paths []string
	for _, p := range strings.Split(os.Getenv(EnvRules), ",") {
		if p = strings.TrimSpace(p); p != "" {
			paths = append(paths, p)
		}
	}
	return Config{
		RulePaths:     paths,
		CachePath:     os.Getenv(EnvCache),
		InheritPolicy: env(EnvInheritPolicy, rules.InheritExplicit.String()),
		LogLevel:      env(EnvLogLevel, "info"),
		LogFormat:     env(EnvLogFormat, "text"),
		Port:          envInt(EnvPort, DefaultPort),
	}
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}

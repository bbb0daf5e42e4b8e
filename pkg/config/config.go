package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Backend drivers
const (
	DriverSupabase = "supabase"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds the application configuration
type Config struct {
	Environment string
	ServerPort  int
	LogLevel    string

	BackendDriver          string
	SupabaseURL            string
	SupabaseAnonKey        string
	SupabaseServiceRoleKey string
	SupabaseJWTSecret      string
	DatabaseURL            string
	ServiceDatabaseURL     string
	BreakerMaxFailures     uint32
	BreakerTimeout         time.Duration

	RedisURL     string
	ViewCacheTTL time.Duration

	LoginPath          string
	CORSAllowedOrigins []string

	MutationRatePerMinute int
	MutationRateBurst     int

	InvitationTTL           time.Duration
	InvitationSweepSchedule string

	OTLPEndpoint string
}

// IsProduction reports whether the server runs with production defaults
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Load reads configuration from environment variables. When CONFIG_FILE names
// a YAML file, its keys (the same names as the variables) fill in anything the
// environment leaves unset.
func Load() (*Config, error) {
	src := source{}
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		file, err := readFile(path)
		if err != nil {
			return nil, err
		}
		src.file = file
	}

	port, err := src.integer("SERVER_PORT", 8080)
	if err != nil {
		return nil, err
	}
	breakerFailures, err := src.integer("BACKEND_BREAKER_MAX_FAILURES", 5)
	if err != nil {
		return nil, err
	}
	breakerTimeout, err := src.integer("BACKEND_BREAKER_TIMEOUT_SECONDS", 30)
	if err != nil {
		return nil, err
	}
	cacheTTL, err := src.integer("VIEW_CACHE_TTL_SECONDS", 30)
	if err != nil {
		return nil, err
	}
	ratePerMinute, err := src.integer("MUTATION_RATE_PER_MINUTE", 30)
	if err != nil {
		return nil, err
	}
	rateBurst, err := src.integer("MUTATION_RATE_BURST", 10)
	if err != nil {
		return nil, err
	}
	invitationHours, err := src.integer("INVITATION_TTL_HOURS", 72)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Environment:             src.get("ENVIRONMENT", "development"),
		ServerPort:              port,
		LogLevel:                src.get("LOG_LEVEL", "info"),
		BackendDriver:           strings.ToLower(src.get("BACKEND_DRIVER", DriverSupabase)),
		SupabaseURL:             src.get("SUPABASE_URL", ""),
		SupabaseAnonKey:         src.get("SUPABASE_ANON_KEY", ""),
		SupabaseServiceRoleKey:  src.get("SUPABASE_SERVICE_ROLE_KEY", ""),
		SupabaseJWTSecret:       src.get("SUPABASE_JWT_SECRET", ""),
		DatabaseURL:             src.get("DATABASE_URL", ""),
		ServiceDatabaseURL:      src.get("SERVICE_DATABASE_URL", ""),
		BreakerMaxFailures:      uint32(breakerFailures),
		BreakerTimeout:          time.Duration(breakerTimeout) * time.Second,
		RedisURL:                src.get("REDIS_URL", ""),
		ViewCacheTTL:            time.Duration(cacheTTL) * time.Second,
		LoginPath:               src.get("LOGIN_PATH", "/login"),
		CORSAllowedOrigins:      src.csv("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173", "http://localhost:3000"}),
		MutationRatePerMinute:   ratePerMinute,
		MutationRateBurst:       rateBurst,
		InvitationTTL:           time.Duration(invitationHours) * time.Hour,
		InvitationSweepSchedule: src.get("INVITATION_SWEEP_SCHEDULE", "@every 1h"),
		OTLPEndpoint:            src.get("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings that must hold before anything connects
func (c *Config) Validate() error {
	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		return fmt.Errorf("invalid SERVER_PORT: %d", c.ServerPort)
	}
	switch c.BackendDriver {
	case DriverSupabase:
		if c.SupabaseURL == "" || c.SupabaseAnonKey == "" {
			return fmt.Errorf("SUPABASE_URL and SUPABASE_ANON_KEY are required for the %s driver", c.BackendDriver)
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the %s driver", c.BackendDriver)
		}
	case DriverMemory:
		if c.IsProduction() {
			return fmt.Errorf("the %s driver is not allowed in production", c.BackendDriver)
		}
	default:
		return fmt.Errorf("invalid BACKEND_DRIVER: %q", c.BackendDriver)
	}
	if c.SupabaseJWTSecret == "" {
		return fmt.Errorf("SUPABASE_JWT_SECRET is required")
	}
	if !strings.HasPrefix(c.LoginPath, "/") {
		return fmt.Errorf("LOGIN_PATH must be an absolute path: %q", c.LoginPath)
	}
	if c.MutationRatePerMinute <= 0 || c.MutationRateBurst <= 0 {
		return fmt.Errorf("MUTATION_RATE_PER_MINUTE and MUTATION_RATE_BURST must be positive")
	}
	if c.InvitationTTL <= 0 {
		return fmt.Errorf("INVITATION_TTL_HOURS must be positive")
	}
	if c.ViewCacheTTL < 0 {
		return fmt.Errorf("VIEW_CACHE_TTL_SECONDS must not be negative")
	}
	return nil
}

type source struct {
	file map[string]string
}

func readFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read CONFIG_FILE: %w", err)
	}
	raw := map[string]any{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse CONFIG_FILE %s: %w", path, err)
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		switch t := v.(type) {
		case nil:
		case []any:
			parts := make([]string, len(t))
			for i, p := range t {
				parts[i] = fmt.Sprint(p)
			}
			out[strings.ToUpper(k)] = strings.Join(parts, ",")
		default:
			out[strings.ToUpper(k)] = fmt.Sprint(t)
		}
	}
	return out, nil
}

func (s source) get(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	if value, ok := s.file[key]; ok && value != "" {
		return value
	}
	return defaultValue
}

func (s source) integer(key string, defaultValue int) (int, error) {
	v, err := strconv.Atoi(s.get(key, strconv.Itoa(defaultValue)))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func (s source) csv(key string, defaultValue []string) []string {
	value := s.get(key, "")
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	Database DatabaseConfig

	// Server configuration
	Server ServerConfig

	// Security configuration
	Security SecurityConfig

	// CORS configuration
	CORS CORSConfig

	// Logging configuration
	Logging LoggingConfig

	// SeedDemoData creates the demo account at boot when true.
	SeedDemoData bool
}

// DatabaseConfig selects and parameterises the backing store.
type DatabaseConfig struct {
	Provider string // mongodb, postgresql, postgres
	Mongo    MongoConfig
	Postgres PostgresConfig
}

// MongoConfig holds document store connection settings
type MongoConfig struct {
	URI      string
	Database string // used when the URI carries no database path
}

// PostgresConfig holds relational store connection settings
type PostgresConfig struct {
	URL      string // Full DSN, wins over the discrete parameters
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	Driver   string // pgx or postgres
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port int
	Host string
}

// SecurityConfig holds security-related settings
type SecurityConfig struct {
	JWTSecret string
}

// CORSConfig holds CORS settings
type CORSConfig struct {
	AllowedOrigins []string
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, text
}

const (
	defaultMongoURI = "mongodb://127.0.0.1:27017/playlister"
	defaultDBName   = "playlister"
	defaultPGPort   = 5432
)

// IsPostgresProvider reports whether name selects the relational store.
// postgresql and postgres do, in any case; everything else selects the
// document store.
func IsPostgresProvider(name string) bool {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "postgresql", "postgres":
		return true
	default:
		return false
	}
}

// buildsPostgresDSN is true when the relational store is selected and its DSN
// comes from the discrete PG_* parameters.
func (d DatabaseConfig) buildsPostgresDSN() bool {
	return IsPostgresProvider(d.Provider) && d.Postgres.URL == ""
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{}

	if err := cfg.loadDatabase(); err != nil {
		return nil, fmt.Errorf("load database config: %w", err)
	}

	if err := cfg.loadServer(); err != nil {
		return nil, fmt.Errorf("load server config: %w", err)
	}

	cfg.Security.JWTSecret = os.Getenv("JWT_SECRET")
	cfg.loadCORS()
	cfg.loadLogging()
	cfg.SeedDemoData = strings.EqualFold(os.Getenv("SEED_DEMO_DATA"), "true")

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

func (c *Config) loadDatabase() error {
	c.Database.Provider = strings.ToLower(strings.TrimSpace(os.Getenv("DB_PROVIDER")))

	c.Database.Mongo.URI = firstEnv(defaultMongoURI, "DB_CONNECT", "MONGO_URI", "MONGODB_URI")
	c.Database.Mongo.Database = getEnvOrDefault("MONGO_DATABASE", defaultDBName)

	pg := &c.Database.Postgres
	pg.URL = os.Getenv("POSTGRES_URI")
	pg.Driver = strings.ToLower(getEnvOrDefault("POSTGRES_DRIVER", "pgx"))

	// PG_* names are preferred, POSTGRES_* names are the fallback
	pg.Host = firstEnv("127.0.0.1", "PG_HOST", "POSTGRES_HOST")
	pg.Name = firstEnv(defaultDBName, "PG_DATABASE", "POSTGRES_DB")
	pg.User = firstEnv("postgres", "PG_USER", "POSTGRES_USER")
	pg.Password = firstEnv("postgres", "PG_PASSWORD", "POSTGRES_PASSWORD")
	pg.SSLMode = getEnvOrDefault("PG_SSLMODE", "disable")

	// the port only matters when the DSN is built from parts
	port, err := strconv.Atoi(firstEnv("5432", "PG_PORT", "POSTGRES_PORT"))
	if err != nil {
		if c.Database.buildsPostgresDSN() {
			return fmt.Errorf("invalid PG_PORT: %w", err)
		}
		port = defaultPGPort
	}
	pg.Port = port

	return nil
}

func (c *Config) loadServer() error {
	portStr := getEnvOrDefault("PORT", "4000")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return fmt.Errorf("invalid PORT: %w", err)
	}
	c.Server.Port = port
	c.Server.Host = getEnvOrDefault("HOST", "0.0.0.0")
	return nil
}

func (c *Config) loadCORS() {
	originsEnv := os.Getenv("CORS_ALLOWED_ORIGINS")
	if originsEnv == "" {
		c.CORS.AllowedOrigins = []string{"http://localhost:3000"}
		return
	}
	for _, origin := range strings.Split(originsEnv, ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			c.CORS.AllowedOrigins = append(c.CORS.AllowedOrigins, trimmed)
		}
	}
}

func (c *Config) loadLogging() {
	c.Logging.Level = getEnvOrDefault("LOG_LEVEL", "info")
	c.Logging.Format = getEnvOrDefault("LOG_FORMAT", "json")
}

// Validate checks that all required configuration is present and valid
func (c *Config) Validate() error {
	var errors []string

	if c.Security.JWTSecret == "" {
		errors = append(errors, "JWT_SECRET is required")
	} else if len(c.Security.JWTSecret) < 16 {
		errors = append(errors, "JWT_SECRET must be at least 16 characters")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errors = append(errors, "PORT must be between 1 and 65535")
	}

	if c.Database.buildsPostgresDSN() && (c.Database.Postgres.Port < 1 || c.Database.Postgres.Port > 65535) {
		errors = append(errors, "PG_PORT must be between 1 and 65535")
	}

	validDrivers := map[string]bool{"pgx": true, "postgres": true}
	if !validDrivers[c.Database.Postgres.Driver] {
		errors = append(errors, "POSTGRES_DRIVER must be one of: pgx, postgres")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		errors = append(errors, "LOG_LEVEL must be one of: debug, info, warn, error")
	}

	validLogFormats := map[string]bool{"json": true, "text": true}
	if !validLogFormats[c.Logging.Format] {
		errors = append(errors, "LOG_FORMAT must be one of: json, text")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// DSN returns the full connection string, building it from the discrete
// parameters when no URL was configured.
func (p PostgresConfig) DSN() string {
	if p.URL != "" {
		return p.URL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(p.User, p.Password),
		Host:     fmt.Sprintf("%s:%d", p.Host, p.Port),
		Path:     "/" + p.Name,
		RawQuery: url.Values{"sslmode": []string{p.SSLMode}}.Encode(),
	}
	return u.String()
}

// DatabaseName returns the database named in the URI path, or the configured
// fallback when the URI has none.
func (m MongoConfig) DatabaseName() string {
	if u, err := url.Parse(m.URI); err == nil {
		if name := strings.Trim(u.Path, "/"); name != "" {
			return name
		}
	}
	if m.Database != "" {
		return m.Database
	}
	return defaultDBName
}

// getEnvOrDefault returns the environment variable value or a default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// firstEnv returns the first non-empty variable among keys, or fallback.
func firstEnv(fallback string, keys ...string) string {
	for _, key := range keys {
		if value := os.Getenv(key); value != "" {
			return value
		}
	}
	return fallback
}

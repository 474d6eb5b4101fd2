// Package config loads application configuration from environment variables.
package config

import (
	"log"
	"os"
	"strconv"
	"strings"
)

// Config holds all runtime configuration values. Each field corresponds to an
// environment variable; the types reflect how the values are used in the
// application.
type Config struct {
	Env          string // application environment (e.g. "dev", "prod")
	Port         string // HTTP port to listen on
	DBUser       string // database username
	DBPass       string // database password (optional)
	DBHost       string // database host address
	DBPort       string // database port number
	DBName       string // database name
	JWTSecret    string // secret used to sign JWTs
	AccessTTLMin int    // access token time-to-live in minutes
	BcryptCost   int    // bcrypt cost for password hashing

	// Departments is the closed set of content departments the service
	// hosts. Route params are validated against it.
	Departments []string
	// PlaceholderFdcID and PlaceholderSdcID are the pre-seeded creator
	// records that retired creators' links are reassigned onto. The sweep
	// never collects them.
	PlaceholderFdcID string
	PlaceholderSdcID string
	SweepIntervalMin int  // minutes between reconciliation sweeps
	DebugErrors      bool // include internal error detail in 500 responses
}

// Load reads configuration values from environment variables and returns a
// Config. Missing required variables cause the program to exit with a fatal
// log message.
func Load() Config {
	return Config{
		Env:              must("APP_ENV"),
		Port:             must("APP_PORT"),
		DBUser:           must("DB_USER"),
		DBPass:           os.Getenv("DB_PASS"),
		DBHost:           must("DB_HOST"),
		DBPort:           must("DB_PORT"),
		DBName:           must("DB_NAME"),
		JWTSecret:        must("JWT_SECRET"),
		AccessTTLMin:     mustInt("ACCESS_TOKEN_TTL_MIN"),
		BcryptCost:       mustInt("BCRYPT_COST"),
		Departments:      splitList(must("DEPARTMENTS")),
		PlaceholderFdcID: must("PLACEHOLDER_FDC_ID"),
		PlaceholderSdcID: must("PLACEHOLDER_SDC_ID"),
		SweepIntervalMin: intOr("SWEEP_INTERVAL_MIN", 1440),
		DebugErrors:      boolOr("DEBUG_ERRORS", false),
	}
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

func intOr(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

func boolOr(key string, def bool) bool {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	return strings.EqualFold(s, "true") || s == "1"
}

// splitList parses a comma-separated env value into trimmed lowercase names.
func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

package config // package config loads application configuration from environment variables

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration values. Each field corresponds to
// an environment variable. Token secrets are independent per token kind so a
// leaked refresh secret cannot be used to mint access tokens and vice versa.
type Config struct {
	Env            string // application environment (e.g. "dev", "prod")
	Port           string // HTTP port to listen on
	DBUser         string // database username
	DBPass         string // database password (optional)
	DBHost         string // database host address
	DBPort         string // database port number
	DBName         string // database name
	DBMigrate      bool   // apply embedded migrations at startup
	AccessSecret   string // secret used to sign access tokens
	AccessTTL      time.Duration
	RefreshSecret  string // secret used to sign refresh tokens
	RefreshTTL     time.Duration
	BcryptCost     int // bcrypt cost for password hashing
	RequestTimeout time.Duration

	Cookie CookieConfig
	Media  MediaConfig
	Events EventsConfig
}

// CookieConfig controls the attributes of the session cookies.
type CookieConfig struct {
	Secure bool
	Domain string
}

// Load reads configuration values from environment variables and returns a
// Config. Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
	return Config{
		Env:            envStr("APP_ENV", "dev"),
		Port:           envStr("APP_PORT", "8000"),
		DBUser:         must("DB_USER"),
		DBPass:         os.Getenv("DB_PASS"),
		DBHost:         must("DB_HOST"),
		DBPort:         envStr("DB_PORT", "3306"),
		DBName:         must("DB_NAME"),
		DBMigrate:      envBool("DB_MIGRATE", true),
		AccessSecret:   must("ACCESS_TOKEN_SECRET"),
		AccessTTL:      time.Duration(mustInt("ACCESS_TOKEN_TTL_MIN")) * time.Minute,
		RefreshSecret:  must("REFRESH_TOKEN_SECRET"),
		RefreshTTL:     time.Duration(mustInt("REFRESH_TOKEN_TTL_DAYS")) * 24 * time.Hour,
		BcryptCost:     envInt("BCRYPT_COST", 10),
		RequestTimeout: envDur("REQUEST_TIMEOUT", 5*time.Second),
		Cookie: CookieConfig{
			Secure: envBool("COOKIE_SECURE", true),
			Domain: os.Getenv("COOKIE_DOMAIN"),
		},
		Media:  LoadMediaConfig(),
		Events: LoadEventsConfig(),
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

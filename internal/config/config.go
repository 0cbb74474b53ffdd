package config // package config loads application configuration from environment variables

import (
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Every variable carries a hardcoded fallback so
// the service can boot against a local MySQL/Redis/RabbitMQ stack without a
// .env file.
type Config struct {
	Env         string // application environment (e.g. "dev", "prod")
	Port        string // HTTP port to listen on
	DBUser      string // database username
	DBPass      string // database password (optional)
	DBHost      string // database host address
	DBPort      string // database port number
	DBName      string // database name
	JWTSecret   string // secret used to sign session JWTs
	JWTTTLMin   int    // session token time-to-live in minutes
	BcryptCost  int    // bcrypt cost for password hashing
	FrontendURL string // base URL used when building verification links
	MailAPIURL  string // mail provider HTTP API endpoint
	MailAPIKey  string // mail provider API key (empty disables sending)
	MailFrom    string // From address on outgoing mail
}

// Load reads configuration values from environment variables, applying the
// local-development defaults when a variable is unset.
func Load() Config {
	return Config{
		Env:         getenv("APP_ENV", "development"),
		Port:        getenv("APP_PORT", "5000"),
		DBUser:      getenv("DB_USER", "root"),
		DBPass:      os.Getenv("DB_PASS"), // empty allowed
		DBHost:      getenv("DB_HOST", "localhost"),
		DBPort:      getenv("DB_PORT", "3306"),
		DBName:      getenv("DB_NAME", "centillion_portal"),
		JWTSecret:   getenv("JWT_SECRET", "dev-only-change-me"),
		JWTTTLMin:   getenvInt("JWT_TTL_MIN", 7*24*60), // 7 days
		BcryptCost:  getenvInt("BCRYPT_COST", 12),
		FrontendURL: getenv("FRONTEND_URL", "http://localhost:3000"),
		MailAPIURL:  getenv("MAIL_API_URL", "https://send.api.mailtrap.io/api/send"),
		MailAPIKey:  os.Getenv("MAIL_API_KEY"),
		MailFrom:    getenv("MAIL_FROM", "no-reply@centilliongateway.com"),
	}
}

// getenv returns the value of an environment variable or the given default
// when it is unset or empty.
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getenvInt is like getenv but converts the value to an integer, falling back
// to the default on parse failure.
func getenvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

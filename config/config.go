package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP server
	Port    string
	GinMode string

	// Database
	DBDriver       string
	DatabaseURL    string
	DBHost         string
	DBPort         string
	DBName         string
	DBUser         string
	DBPassword     string
	DBSSLMode      string
	SQLitePath     string
	DBMaxOpenConns int
	DBMaxIdleConns int

	// Auth
	JWTSecret         string
	JWTIssuer         string
	AccessTokenTTL    time.Duration
	RefreshTokenTTL   time.Duration
	DataEncryptionKey string
	AdminSecret       string

	// CORS
	FrontendURL    string
	AllowedOrigins []string

	// Twilio
	TwilioAccountSID  string
	TwilioAuthToken   string
	TwilioPhoneNumber string

	// Password reset
	ResetCodeTTL        time.Duration
	ResetMaxAttempts    int
	ResetResendCooldown time.Duration

	// Summary cache
	SummaryCacheTTL  time.Duration
	SummaryCacheSize int

	// Rate limiting
	RateLimitPerMinute     int
	AuthRateLimitPerMinute int
}

func Load() *Config {
	frontendURL := getEnv("FRONTEND_URL", "http://localhost:3000")

	return &Config{
		Port:    getEnv("PORT", "8080"),
		GinMode: getEnv("GIN_MODE", "debug"),

		DBDriver:       strings.ToLower(getEnv("DB_DRIVER", "postgres")),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		DBHost:         getEnv("DB_HOST", "localhost"),
		DBPort:         getEnv("DB_PORT", "5432"),
		DBName:         getEnv("DB_NAME", "financas"),
		DBUser:         getEnv("DB_USER", "postgres"),
		DBPassword:     getEnv("DB_PASSWORD", ""),
		DBSSLMode:      getEnv("DB_SSLMODE", "disable"),
		SQLitePath:     getEnv("SQLITE_PATH", "./data/financas.db"),
		DBMaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 5),

		JWTSecret:         getEnv("JWT_SECRET", ""),
		JWTIssuer:         getEnv("JWT_ISSUER", "financas-api"),
		AccessTokenTTL:    time.Duration(getEnvInt("JWT_TTL_MINUTES", 15)) * time.Minute,
		RefreshTokenTTL:   time.Duration(getEnvInt("REFRESH_TTL_HOURS", 168)) * time.Hour,
		DataEncryptionKey: getEnv("DATA_ENCRYPTION_KEY", ""),
		AdminSecret:       getEnv("ADMIN_SECRET", ""),

		FrontendURL:    frontendURL,
		AllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{frontendURL}),

		TwilioAccountSID:  getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:   getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioPhoneNumber: getEnv("TWILIO_PHONE_NUMBER", ""),

		ResetCodeTTL:        getEnvDuration("RESET_CODE_TTL", 10*time.Minute),
		ResetMaxAttempts:    getEnvInt("RESET_MAX_ATTEMPTS", 5),
		ResetResendCooldown: getEnvDuration("RESET_RESEND_COOLDOWN", 60*time.Second),

		SummaryCacheTTL:  getEnvDuration("SUMMARY_CACHE_TTL", 5*time.Minute),
		SummaryCacheSize: getEnvInt("SUMMARY_CACHE_SIZE", 1000),

		RateLimitPerMinute:     getEnvInt("RATE_LIMIT_PER_MINUTE", 100),
		AuthRateLimitPerMinute: getEnvInt("AUTH_RATE_LIMIT_PER_MINUTE", 10),
	}
}

// Validate checks the whole configuration and reports every problem at once.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.DBDriver {
	case "postgres", "pgx":
		if c.DatabaseURL != "" {
			if u, err := url.Parse(c.DatabaseURL); err != nil {
				errors = append(errors, fmt.Sprintf("invalid DATABASE_URL: %v", err))
			} else if u.Scheme != "postgres" && u.Scheme != "postgresql" {
				errors = append(errors, fmt.Sprintf("invalid DATABASE_URL scheme '%s': must be 'postgres' or 'postgresql'", u.Scheme))
			}
		} else if c.DBHost == "" || c.DBName == "" || c.DBUser == "" {
			errors = append(errors, "DATABASE_URL or DB_HOST, DB_NAME and DB_USER are required for postgres")
		}
	case "sqlite":
		if c.SQLitePath == "" {
			errors = append(errors, "SQLITE_PATH cannot be empty when DB_DRIVER is sqlite")
		} else if dir := filepath.Dir(c.SQLitePath); dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite directory '%s': %v", dir, err))
				}
			}
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid DB_DRIVER '%s': must be one of [postgres pgx sqlite]", c.DBDriver))
	}

	if c.DBMaxOpenConns < 1 {
		errors = append(errors, fmt.Sprintf("invalid DB_MAX_OPEN_CONNS %d: must be positive", c.DBMaxOpenConns))
	}
	if c.DBMaxIdleConns < 0 {
		errors = append(errors, fmt.Sprintf("invalid DB_MAX_IDLE_CONNS %d: must not be negative", c.DBMaxIdleConns))
	}

	if c.JWTSecret == "" {
		errors = append(errors, "JWT_SECRET is required")
	}
	if c.AccessTokenTTL <= 0 {
		errors = append(errors, "JWT_TTL_MINUTES must be positive")
	}
	if c.RefreshTokenTTL <= 0 {
		errors = append(errors, "REFRESH_TTL_HOURS must be positive")
	}
	if len(c.DataEncryptionKey) != 32 {
		errors = append(errors, "DATA_ENCRYPTION_KEY must be exactly 32 characters")
	}

	if c.ResetCodeTTL <= 0 {
		errors = append(errors, "RESET_CODE_TTL must be positive")
	}
	if c.ResetMaxAttempts < 1 {
		errors = append(errors, "RESET_MAX_ATTEMPTS must be at least 1")
	}
	if c.ResetResendCooldown < 0 {
		errors = append(errors, "RESET_RESEND_COOLDOWN must not be negative")
	}

	if c.SummaryCacheSize < 1 {
		errors = append(errors, "SUMMARY_CACHE_SIZE must be at least 1")
	}
	if c.SummaryCacheTTL <= 0 {
		errors = append(errors, "SUMMARY_CACHE_TTL must be positive")
	}

	if c.RateLimitPerMinute < 1 || c.AuthRateLimitPerMinute < 1 {
		errors = append(errors, "rate limits must be at least 1 request per minute")
	}

	// Twilio credentials are optional, but partial configuration is a mistake.
	twilioSet := 0
	for _, v := range []string{c.TwilioAccountSID, c.TwilioAuthToken, c.TwilioPhoneNumber} {
		if v != "" {
			twilioSet++
		}
	}
	if twilioSet > 0 && twilioSet < 3 {
		errors = append(errors, "TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN and TWILIO_PHONE_NUMBER must be set together")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}
	return nil
}

// IsProduction reports whether gin runs in release mode.
func (c *Config) IsProduction() bool {
	return c.GinMode == "release"
}

// SMSConfigured reports whether all Twilio credentials are present.
func (c *Config) SMSConfigured() bool {
	return c.TwilioAccountSID != "" && c.TwilioAuthToken != "" && c.TwilioPhoneNumber != ""
}

// PostgresDSN returns DATABASE_URL, or builds one from the DB_* keys.
func (c *Config) PostgresDSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     c.DBHost + ":" + c.DBPort,
		Path:     c.DBName,
		RawQuery: "sslmode=" + url.QueryEscape(c.DBSSLMode),
	}
	return u.String()
}

// DSN returns the connection string for the configured driver.
func (c *Config) DSN() string {
	if c.DBDriver == "sqlite" {
		return SQLiteDSN(c.SQLitePath)
	}
	return c.PostgresDSN()
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

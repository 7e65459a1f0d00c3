package config

import (
	"fmt"
	"strconv"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors collects every problem found in a configuration.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, v := range e {
		msgs[i] = v.Error()
	}
	return strings.Join(msgs, "\n")
}

// ValidateConfig checks if the configuration meets the requirements for the given environment
func ValidateConfig(cfg *Config, env Environment) error {
	var errs ValidationErrors
	add := func(field, msg string) {
		errs = append(errs, ValidationError{Field: field, Message: msg})
	}

	if port, err := strconv.Atoi(cfg.ServerPort); err != nil || port <= 0 || port > 65535 {
		add("SERVER_PORT", fmt.Sprintf("invalid port %q", cfg.ServerPort))
	}

	switch cfg.DBDriver {
	case DriverPostgres:
		required := map[string]string{
			"DB_HOST": cfg.DBHost,
			"DB_PORT": cfg.DBPort,
			"DB_USER": cfg.DBUser,
			"DB_NAME": cfg.DBName,
		}
		for _, key := range []string{"DB_HOST", "DB_PORT", "DB_USER", "DB_NAME"} {
			if required[key] == "" {
				add(key, "is required for the postgres driver")
			}
		}
		// Outside development the password must come from a secret or CI variable
		if cfg.DBPassword == "" && (env == Production || env == CI) {
			add("DB_PASSWORD", "is required in "+string(env))
		}
	case DriverSQLite:
		if cfg.SQLitePath == "" {
			add("SQLITE_PATH", "is required for the sqlite driver")
		}
	default:
		add("DB_DRIVER", fmt.Sprintf("unsupported driver %q", cfg.DBDriver))
	}

	if cfg.DBWaitInterval <= 0 {
		add("DB_WAIT_INTERVAL", "must be positive")
	}
	if cfg.RateLimitPerMinute < 0 {
		add("RATE_LIMIT_PER_MINUTE", "must not be negative")
	}
	if cfg.RateLimitPerMinute > 0 && cfg.RateLimitBurst <= 0 {
		add("RATE_LIMIT_BURST", "must be positive when rate limiting is enabled")
	}

	for _, origin := range cfg.CORSAllowedOrigins {
		if origin != "*" && !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			add("CORS_ALLOWED_ORIGINS", fmt.Sprintf("origin %q must be * or start with http:// or https://", origin))
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

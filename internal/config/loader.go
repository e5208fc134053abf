package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ErrInvalid is wrapped by every error Load and LoadEnvFile return.
var ErrInvalid = errors.New("invalid configuration")

// LoadEnvFile loads a dotenv file into the process environment.
// Variables already set in the environment are left untouched.
// A missing file is not an error; it reports loaded=false instead.
func LoadEnvFile(path string) (loaded bool, err error) {
	if path == "" {
		return false, nil
	}
	if _, statErr := os.Stat(path); statErr != nil {
		if os.IsNotExist(statErr) {
			return false, nil
		}
		return false, fmt.Errorf("%w: stat env file %s: %w", ErrInvalid, path, statErr)
	}
	if err := godotenv.Load(path); err != nil {
		return false, fmt.Errorf("%w: load env file %s: %w", ErrInvalid, path, err)
	}
	return true, nil
}

// Load reads configuration from environment variables.
// It applies defaults for unset values and validates the result.
// Returns an error if required values are missing or validation fails.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := loadStruct(reflect.ValueOf(cfg).Elem()); err != nil {
		return nil, fmt.Errorf("config load: %w: %w", ErrInvalid, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w: %w", ErrInvalid, err)
	}

	return cfg, nil
}

// loadStruct recursively populates struct fields from environment variables.
func loadStruct(v reflect.Value) error {
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldVal := v.Field(i)

		if !fieldVal.CanSet() {
			continue
		}

		if field.Type.Kind() == reflect.Struct && field.Type != reflect.TypeOf(time.Time{}) {
			if err := loadStruct(fieldVal); err != nil {
				return err
			}
			continue
		}

		envName := field.Tag.Get("env")
		envAlt := field.Tag.Get("envAlt")
		defaultVal := field.Tag.Get("default")
		required := field.Tag.Get("required") == "true"

		if envName == "" {
			continue
		}

		// Try primary env var, then alternate
		value := os.Getenv(envName)
		if value == "" && envAlt != "" {
			value = os.Getenv(envAlt)
		}

		if value == "" {
			if required {
				return fmt.Errorf("required environment variable %s is not set", envName)
			}
			value = defaultVal
		}

		if value == "" {
			continue
		}

		if err := setField(fieldVal, value); err != nil {
			return fmt.Errorf("invalid value for %s=%q: %w", envName, value, err)
		}
	}

	return nil
}

// setField sets a reflect.Value from a string based on its type.
func setField(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("invalid duration: %w", err)
			}
			field.Set(reflect.ValueOf(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer: %w", err)
			}
			field.SetInt(i)
		}

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		field.SetBool(b)

	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}

	return nil
}

// Validate checks that the configuration is valid.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errs []string

	// Warehouse validation: either a URL or enough parts to build one
	if c.Warehouse.URL == "" {
		if c.Warehouse.Host == "" {
			errs = append(errs, "WAREHOUSE_HOST is required when WAREHOUSE_URL is not set")
		}
		if c.Warehouse.User == "" {
			errs = append(errs, "WAREHOUSE_USER is required when WAREHOUSE_URL is not set")
		}
		if c.Warehouse.Database == "" {
			errs = append(errs, "WAREHOUSE_DATABASE is required when WAREHOUSE_URL is not set")
		}
		if c.Warehouse.Port <= 0 || c.Warehouse.Port > 65535 {
			errs = append(errs, fmt.Sprintf("WAREHOUSE_PORT (%d) must be 1-65535", c.Warehouse.Port))
		}
	}
	if c.Warehouse.Schema == "" {
		errs = append(errs, "WAREHOUSE_SCHEMA must not be empty")
	}
	if c.Warehouse.ConnectTimeout <= 0 {
		errs = append(errs, "WAREHOUSE_CONNECT_TIMEOUT must be positive")
	}

	// Load validation
	if c.Load.ChunkSize <= 0 {
		errs = append(errs, "LOAD_CHUNK_SIZE must be positive")
	}
	if c.Load.Timeout <= 0 {
		errs = append(errs, "LOAD_TIMEOUT must be positive")
	}

	// Logging validation
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// String returns a safe string representation of the config for logging.
// Credentials are masked.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	if c.Warehouse.URL != "" {
		b.WriteString("Warehouse: {URL: [MASKED], ")
	} else {
		b.WriteString(fmt.Sprintf("Warehouse: {Host: %q, Port: %d, User: %q, Password: [MASKED], ",
			c.Warehouse.Host, c.Warehouse.Port, c.Warehouse.User))
	}
	b.WriteString(fmt.Sprintf("Database: %q, Schema: %q, Name: %q}, ",
		c.Warehouse.Database, c.Warehouse.Schema, c.Warehouse.Name))
	b.WriteString(fmt.Sprintf("Load: {ChunkSize: %d, Timeout: %s, RulesFile: %q}, ",
		c.Load.ChunkSize, c.Load.Timeout, c.Load.RulesFile))
	b.WriteString(fmt.Sprintf("Source: {Region: %q, Endpoint: %q}, ", c.Source.Region, c.Source.Endpoint))
	b.WriteString(fmt.Sprintf("Logging: {Level: %q, Format: %q}",
		c.Logging.Level, c.Logging.Format))
	b.WriteString("}")
	return b.String()
}

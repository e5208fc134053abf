// Package config provides centralized configuration management for claimload.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"net"
	"net/url"
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Warehouse WarehouseConfig
	Load      LoadConfig
	Source    SourceConfig
	Logging   LoggingConfig
}

// WarehouseConfig holds the destination store connection parameters.
// The SNOWFLAKE_* alternates keep existing .env files working.
type WarehouseConfig struct {
	// URL is a full connection string. When set it takes precedence over
	// the discrete fields below.
	URL string `env:"WAREHOUSE_URL" envAlt:"DATABASE_URL"`

	User     string `env:"WAREHOUSE_USER" envAlt:"SNOWFLAKE_USER"`
	Password string `env:"WAREHOUSE_PASSWORD" envAlt:"SNOWFLAKE_PASSWORD"`

	// Host is the account host name of the store
	Host string `env:"WAREHOUSE_HOST" envAlt:"SNOWFLAKE_ACCOUNT"`

	// Port is the wire protocol port (default: 5432)
	Port int `env:"WAREHOUSE_PORT" default:"5432"`

	// Name labels the compute pool the session is billed to (sent as application_name)
	Name string `env:"WAREHOUSE_NAME" envAlt:"SNOWFLAKE_WAREHOUSE"`

	Database string `env:"WAREHOUSE_DATABASE" envAlt:"SNOWFLAKE_DATABASE"`

	// Schema is the destination schema (default: public)
	Schema string `env:"WAREHOUSE_SCHEMA" envAlt:"SNOWFLAKE_SCHEMA" default:"public"`

	// SSLMode is passed through to the connection string (default: prefer)
	SSLMode string `env:"WAREHOUSE_SSLMODE" default:"prefer"`

	// ConnectTimeout bounds connection establishment (default: 30s)
	ConnectTimeout time.Duration `env:"WAREHOUSE_CONNECT_TIMEOUT" default:"30s"`
}

// LoadConfig holds batch load settings.
type LoadConfig struct {
	// ChunkSize is the number of rows sent per COPY chunk (default: 16000)
	ChunkSize int `env:"LOAD_CHUNK_SIZE" default:"16000"`

	// Timeout bounds a whole invocation (default: 10m)
	Timeout time.Duration `env:"LOAD_TIMEOUT" default:"10m"`

	// RulesFile optionally extends the built-in payer rules
	RulesFile string `env:"PAYER_RULES_FILE"`
}

// SourceConfig holds settings for remote (s3://) input files.
type SourceConfig struct {
	Region    string `env:"S3_REGION" envAlt:"AWS_REGION" default:"us-east-1"`
	Endpoint  string `env:"S3_ENDPOINT"`
	AccessKey string `env:"S3_ACCESS_KEY"`
	SecretKey string `env:"S3_SECRET_KEY"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// ConnString returns the connection string for the warehouse.
// URL wins when set; otherwise one is assembled from the discrete fields.
func (c *WarehouseConfig) ConnString() string {
	if c.URL != "" {
		return c.URL
	}

	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:   "/" + c.Database,
	}
	if c.Password != "" {
		u.User = url.UserPassword(c.User, c.Password)
	} else if c.User != "" {
		u.User = url.User(c.User)
	}

	q := url.Values{}
	if c.SSLMode != "" {
		q.Set("sslmode", c.SSLMode)
	}
	u.RawQuery = q.Encode()

	return u.String()
}

package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-multierror"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Database DatabaseConfig `toml:"database"`
	Server   ServerConfig   `toml:"server"`
	School   SchoolConfig   `toml:"school"`
	Publish  PublishConfig  `toml:"publish"`
	Dispatch DispatchConfig `toml:"dispatch"`
}

// DatabaseConfig contains database connection settings.
//
// Path is a file path (or ":memory:") for sqlite3 and a DSN for pgx.
type DatabaseConfig struct {
	Driver       string `toml:"driver" validate:"required,oneof=sqlite3 pgx"`
	Path         string `toml:"path" validate:"required"`
	MaxOpenConns int    `toml:"max_open_conns" validate:"gte=0"`
	MaxIdleConns int    `toml:"max_idle_conns" validate:"gte=0"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port" validate:"min=1,max=65535"`
}

// SchoolConfig is the institution printed on every marksheet.
type SchoolConfig struct {
	Name    string `toml:"name" validate:"required"`
	Address string `toml:"address"`
	Contact string `toml:"contact"`
}

// PublishConfig tunes the batch publisher.
type PublishConfig struct {
	Workers int `toml:"workers" validate:"min=1,max=10"`
}

// DispatchConfig selects and configures the marksheet transport.
type DispatchConfig struct {
	Transport string        `toml:"transport" validate:"required,oneof=outbox smtp relay"`
	From      string        `toml:"from" validate:"required,email"`
	RateLimit float64       `toml:"rate_limit" validate:"gte=0"`
	Burst     int           `toml:"burst" validate:"gte=0"`
	Timeout   time.Duration `toml:"timeout"`
	Outbox    OutboxConfig  `toml:"outbox"`
	SMTP      SMTPConfig    `toml:"smtp"`
	Relay     RelayConfig   `toml:"relay"`
}

// OutboxConfig writes deliveries to a directory instead of sending them.
type OutboxConfig struct {
	Directory string `toml:"directory"`
}

// SMTPConfig contains mail server settings.
type SMTPConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	Username string `toml:"username"`
	Password string `toml:"password"`
}

// RelayConfig contains the HTTP mail relay endpoint and its OAuth2 client credentials.
type RelayConfig struct {
	URL          string   `toml:"url"`
	TokenURL     string   `toml:"token_url"`
	ClientID     string   `toml:"client_id"`
	ClientSecret string   `toml:"client_secret"`
	Scopes       []string `toml:"scopes"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks the struct tags and the transport-specific settings, reporting every
// problem at once. Each reported error wraps [ErrInvalidConfig].
func (c *Config) Validate() error {
	var result *multierror.Error

	if err := Validator().Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		for _, fe := range fieldErrs {
			result = multierror.Append(result, fmt.Errorf("%w: %s failed on '%s'", ErrInvalidConfig, fe.Namespace(), fe.Tag()))
		}
	}

	if c.Dispatch.Timeout < 0 {
		result = multierror.Append(result, fmt.Errorf("%w: dispatch timeout must not be negative", ErrInvalidConfig))
	}

	switch c.Dispatch.Transport {
	case "outbox":
		if c.Dispatch.Outbox.Directory == "" {
			result = multierror.Append(result, fmt.Errorf("%w: dispatch.outbox.directory is required", ErrInvalidConfig))
		}
	case "smtp":
		if c.Dispatch.SMTP.Host == "" || c.Dispatch.SMTP.Port <= 0 {
			result = multierror.Append(result, fmt.Errorf("%w: dispatch.smtp needs host and port", ErrInvalidConfig))
		}
	case "relay":
		r := c.Dispatch.Relay
		if r.URL == "" || r.TokenURL == "" {
			result = multierror.Append(result, fmt.Errorf("%w: dispatch.relay needs url and token_url", ErrInvalidConfig))
		}
		if r.ClientID == "" || r.ClientSecret == "" {
			result = multierror.Append(result, fmt.Errorf("%w: dispatch.relay client credentials", ErrMissingCredentials))
		}
	}

	return result.ErrorOrNil()
}

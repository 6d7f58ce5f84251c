// Package config loads sphere's YAML configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment overrides.
const (
	EnvAPI       = "SPHERE_API"
	EnvDataDir   = "SPHERE_DATA_DIR"
	EnvJWTSecret = "SPHERE_JWT_SECRET"
)

// DotEnvFile is read from the working directory. Its values apply only
// where the real environment leaves a variable unset.
const DotEnvFile = ".env"

// DefaultAPIURL is where the SynergySphere backend listens by default.
const DefaultAPIURL = "http://localhost:5000"

// Config holds client and development server settings.
type Config struct {
	// APIURL is the base URL of the REST API.
	APIURL string `yaml:"api_url"`
	// Timeout bounds every API request.
	Timeout time.Duration `yaml:"timeout"`
	// DataDir holds the client database and log file.
	DataDir string `yaml:"data_dir"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
	// Server configures `sphere serve`.
	Server ServerConfig `yaml:"server"`
}

// ServerConfig configures the local development server.
type ServerConfig struct {
	Listen    string `yaml:"listen"`
	DB        string `yaml:"db"`
	JWTSecret string `yaml:"jwt_secret"`
	// TokenTTL is how long issued access tokens stay valid.
	TokenTTL time.Duration `yaml:"token_ttl"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	dataDir := ".sphere"
	if home, err := os.UserHomeDir(); err == nil {
		dataDir = filepath.Join(home, ".sphere")
	}
	return &Config{
		APIURL:   DefaultAPIURL,
		Timeout:  10 * time.Second,
		DataDir:  dataDir,
		LogLevel: "info",
		Server: ServerConfig{
			Listen:   "127.0.0.1:5000",
			DB:       filepath.Join(dataDir, "server.db"),
			TokenTTL: 24 * time.Hour,
		},
	}
}

// Load reads configuration from a YAML file. A missing file yields the
// defaults. Environment overrides, including DotEnvFile, are applied last.
func Load(path string) (*Config, error) {
	return LoadWithEnvFile(path, DotEnvFile)
}

// LoadWithEnvFile is Load with an explicit dotenv file. A missing dotenv
// file is ignored.
func LoadWithEnvFile(path, envFile string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	dotenv := map[string]string{}
	if envFile != "" {
		dotenv, err = godotenv.Read(envFile)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading %s: %w", envFile, err)
		}
	}
	env := func(key, fallback string) string {
		return EnvOrDefault(key, envOrDefaultIn(dotenv, key, fallback))
	}
	cfg.APIURL = env(EnvAPI, cfg.APIURL)
	cfg.DataDir = env(EnvDataDir, cfg.DataDir)
	cfg.Server.JWTSecret = env(EnvJWTSecret, cfg.Server.JWTSecret)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// DefaultPath returns ~/.config/sphere/config.yaml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(home, ".config", "sphere", "config.yaml")
}

// LoadConfigFromHome loads configuration from DefaultPath.
func LoadConfigFromHome() (*Config, error) {
	return Load(DefaultPath())
}

// Save writes configuration to a YAML file, creating parent directories if
// needed.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.APIURL) == "" {
		return fmt.Errorf("api_url is required")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// ClientDB is the path of the client's key/value database.
func (c *Config) ClientDB() string {
	return filepath.Join(c.DataDir, "client.db")
}

// LogFile is the path client commands log to.
func (c *Config) LogFile() string {
	return filepath.Join(c.DataDir, "sphere.log")
}

// ParseLevel maps a level name to a slog level. Empty means info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log_level %q, must be: debug, info, warn, or error", s)
	}
}

func envOrDefaultIn(vars map[string]string, key, fallback string) string {
	if value := vars[key]; value != "" {
		return value
	}
	return fallback
}

// EnvOrDefault returns the value of the environment variable or the fallback
// when it is unset or empty.
func EnvOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

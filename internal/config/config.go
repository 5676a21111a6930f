package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/grabke213/proofpack/pkg/log"
)

// Config holds all application configuration.
// Supports environment variables with sensible defaults.
//
// Environment Variables:
// Server Configuration:
// - PROOFPACK_ADDR: HTTP listen address (default: :8787)
// - UI_DIR: directory of static UI files to serve (optional)
//
// Storage Configuration:
// - PROOFPACK_DATA_DIR: data directory (default: ./data)
// - PROOFPACK_DB_PATH: SQLite path (default: <data dir>/proofpack.db)
//
// Organization Identity:
// - ORG_NAME: company name on the proof document
// - ORG_DOC_TITLE: document title on the proof document
// - INSTALLER_NAME: default installer name for new jobs
//
// Capture Configuration:
// - GPS_TIMEOUT_SECONDS: bounded wait for a location fix (default: 7)
//
// Asset Cache Configuration:
// - ASSET_REFRESH_CRON: cron expression for the refresh pass (default: 0 3 * * *)
// - ASSET_URLS: comma-separated asset URLs kept warm by the refresh pass
//
// System Configuration:
// - LOG_LEVEL: debug|info|warn|error|fatal (default: info)

type Config struct {
	Server  ServerConfig  `json:"server"`
	Storage StorageConfig `json:"storage"`
	Org     OrgConfig     `json:"org"`
	Capture CaptureConfig `json:"capture"`
	Assets  AssetConfig   `json:"assets"`
	System  SystemConfig  `json:"system"`
}

// ServerConfig holds the HTTP surface configuration.
type ServerConfig struct {
	Addr  string `json:"addr"`
	UIDir string `json:"ui_dir"`
}

// StorageConfig holds the persistence configuration.
type StorageConfig struct {
	DataDir string `json:"data_dir"`
	DBPath  string `json:"db_path"`
}

// OrgConfig is the identity stamped onto exported proof documents.
type OrgConfig struct {
	AppName       string `json:"app_name"`
	Company       string `json:"company"`
	DocTitle      string `json:"doc_title"`
	Version       string `json:"version"`
	InstallerName string `json:"installer_name"`
}

// CaptureConfig holds the field-capture tunables.
type CaptureConfig struct {
	GPSTimeoutSeconds int `json:"gps_timeout_seconds"`
}

// AssetConfig holds the offline asset cache configuration.
type AssetConfig struct {
	RefreshCron string   `json:"refresh_cron"`
	Manifest    []string `json:"manifest"`
}

// SystemConfig holds the system configuration.
type SystemConfig struct {
	LogLevel string `json:"log_level"`
}

// Option is a function type for configuring Config
type Option func(*Config)

// WithAddr overrides the HTTP listen address.
func WithAddr(addr string) Option {
	return func(c *Config) {
		c.Server.Addr = addr
	}
}

// WithDataDir overrides the data directory and, unless PROOFPACK_DB_PATH
// was set explicitly, moves the database under it.
func WithDataDir(dir string) Option {
	return func(c *Config) {
		c.Storage.DataDir = dir
		c.Storage.DBPath = filepath.Join(dir, "proofpack.db")
	}
}

// NewFromEnv creates a new Config instance with values from environment
// variables and options. A .env file in the working directory is loaded
// first when present.
func NewFromEnv(opts ...Option) (*Config, error) {
	_ = godotenv.Load()

	dataDir := getEnvString("PROOFPACK_DATA_DIR", "./data")
	config := &Config{
		Server: ServerConfig{
			Addr:  getEnvString("PROOFPACK_ADDR", ":8787"),
			UIDir: getEnvString("UI_DIR", ""),
		},
		Storage: StorageConfig{
			DataDir: dataDir,
			DBPath:  getEnvString("PROOFPACK_DB_PATH", filepath.Join(dataDir, "proofpack.db")),
		},
		Org: OrgConfig{
			AppName:       getEnvString("ORG_APP_NAME", "PHD Precision Certificate"),
			Company:       getEnvString("ORG_NAME", "PHD — Precision Home Delivery"),
			DocTitle:      getEnvString("ORG_DOC_TITLE", "Precision Delivery & Installation Certificate of Completion"),
			Version:       "v1",
			InstallerName: getEnvString("INSTALLER_NAME", ""),
		},
		Capture: CaptureConfig{
			GPSTimeoutSeconds: getEnvInt("GPS_TIMEOUT_SECONDS", 7),
		},
		Assets: AssetConfig{
			RefreshCron: getEnvString("ASSET_REFRESH_CRON", "0 3 * * *"),
			Manifest:    getEnvList("ASSET_URLS"),
		},
		System: SystemConfig{
			LogLevel: getEnvString("LOG_LEVEL", "info"),
		},
	}

	// Apply custom options
	for _, opt := range opts {
		opt(config)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	log.Debug("Config: %+v", config)
	return config, nil
}

// validate checks if all required configuration is properly set
func (c *Config) validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("PROOFPACK_ADDR must not be empty")
	}
	if c.Storage.DBPath == "" {
		return fmt.Errorf("PROOFPACK_DB_PATH must not be empty")
	}
	if c.Capture.GPSTimeoutSeconds <= 0 {
		return fmt.Errorf("GPS_TIMEOUT_SECONDS must be positive")
	}
	return nil
}

// getEnvString gets a string value from environment variables with default
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer value from environment variables with default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvList gets a comma-separated list from environment variables.
func getEnvList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

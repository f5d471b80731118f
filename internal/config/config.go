// Package config handles application configuration.
//
// Go Pattern: Configuration via environment variables with sensible defaults.
// Values are layered: built-in defaults, then an optional YAML file named by
// PDFTEXT_CONFIG, then a .env file, then the real environment. Later layers win.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
// The yaml tags are only used when a config file is supplied.
type Config struct {
	// Server settings
	Port    string `yaml:"port"`
	GinMode string `yaml:"gin_mode"` // "debug", "release", or "test"

	// Logging
	LogLevel  string `yaml:"log_level"`  // zerolog level name: debug, info, warn, error
	LogFormat string `yaml:"log_format"` // "console" or "json"

	// OCR and rasterization
	OCRLanguages []string `yaml:"ocr_languages"` // Tesseract language codes, e.g. ["eng", "deu"]
	RasterDPI    int      `yaml:"raster_dpi"`    // Resolution used when rendering text-less pages

	// Files
	UploadDir   string `yaml:"upload_dir"`    // Where uploaded PDFs live for the duration of a request
	ExportDir   string `yaml:"export_dir"`    // Where export artifacts are written (never cleaned up)
	MaxUploadMB int    `yaml:"max_upload_mb"` // Upload size cap

	// Worker settings
	WorkerCount  int `yaml:"worker_count"`   // 1 = strictly one operation at a time
	JobQueueSize int `yaml:"job_queue_size"` // Requests allowed to wait for a worker

	// Rate limiting
	RateLimit int `yaml:"rate_limit"` // Requests per hour per client IP; 0 disables

	// CORS
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// Defaults returns the configuration used when nothing is overridden.
func Defaults() *Config {
	return &Config{
		Port:           "8080",
		GinMode:        "debug",
		LogLevel:       "info",
		LogFormat:      "console",
		OCRLanguages:   []string{"eng"},
		RasterDPI:      300,
		UploadDir:      os.TempDir(),
		ExportDir:      os.TempDir(),
		MaxUploadMB:    50,
		WorkerCount:    1,
		JobQueueSize:   16,
		RateLimit:      0,
		AllowedOrigins: []string{"http://localhost:5173"}, // Vite dev server default
	}
}

// Load reads configuration from the optional config file, .env and the
// environment, then validates it.
//
// Go Pattern: Functions that can fail return (value, error).
func Load() (*Config, error) {
	return LoadFrom(Defaults())
}

// LoadFrom is Load with caller-supplied defaults. The file and environment
// layers are applied on top of cfg.
func LoadFrom(cfg *Config) (*Config, error) {
	if path := os.Getenv("PDFTEXT_CONFIG"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFile overlays values from a YAML file onto cfg.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// applyEnv overrides fields with any environment variables that are set.
func (c *Config) applyEnv() {
	c.Port = getEnv("PORT", c.Port)
	c.GinMode = getEnv("GIN_MODE", c.GinMode)

	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv("LOG_FORMAT", c.LogFormat)

	c.OCRLanguages = getEnvList("OCR_LANGUAGES", c.OCRLanguages)
	c.RasterDPI = getEnvInt("RASTER_DPI", c.RasterDPI)

	c.UploadDir = getEnv("UPLOAD_DIR", c.UploadDir)
	c.ExportDir = getEnv("EXPORT_DIR", c.ExportDir)
	c.MaxUploadMB = getEnvInt("MAX_UPLOAD_MB", c.MaxUploadMB)

	c.WorkerCount = getEnvInt("WORKER_COUNT", c.WorkerCount)
	c.JobQueueSize = getEnvInt("JOB_QUEUE_SIZE", c.JobQueueSize)

	c.RateLimit = getEnvInt("RATE_LIMIT", c.RateLimit)

	if origin := getEnv("CORS_ORIGIN", ""); origin != "" {
		c.AllowedOrigins = []string{origin}
	}
}

// Validate rejects values the server can't run with and makes sure the
// upload and export directories exist.
func (c *Config) Validate() error {
	if c.RasterDPI <= 0 {
		return fmt.Errorf("RASTER_DPI must be positive, got %d", c.RasterDPI)
	}
	if c.WorkerCount < 1 {
		return fmt.Errorf("WORKER_COUNT must be at least 1, got %d", c.WorkerCount)
	}
	if c.JobQueueSize < 0 {
		return fmt.Errorf("JOB_QUEUE_SIZE must not be negative, got %d", c.JobQueueSize)
	}
	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("MAX_UPLOAD_MB must be positive, got %d", c.MaxUploadMB)
	}
	if len(c.OCRLanguages) == 0 {
		return fmt.Errorf("OCR_LANGUAGES must name at least one language")
	}
	for _, dir := range []string{c.UploadDir, c.ExportDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// MaxUploadBytes is the upload cap in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

// getEnv reads an environment variable with a fallback default.
// Go Pattern: Small helper functions are idiomatic.
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// getEnvInt reads an integer environment variable with a fallback.
func getEnvInt(key string, fallback int) int {
	str := getEnv(key, "")
	if str == "" {
		return fallback
	}
	val, err := strconv.Atoi(str)
	if err != nil {
		return fallback
	}
	return val
}

// getEnvList reads a comma- or plus-separated list ("eng+deu" is how
// Tesseract users usually write it).
func getEnvList(key string, fallback []string) []string {
	str := getEnv(key, "")
	if str == "" {
		return fallback
	}
	fields := strings.FieldsFunc(str, func(r rune) bool {
		return r == ',' || r == '+' || r == ' '
	})
	if len(fields) == 0 {
		return fallback
	}
	return fields
}

// Package config provides functionality for managing configuration options
// for the application using command-line flags, environment variables and an
// optional JSON config file.
package config

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// Options holds the configuration values for the application.
type Options struct {
	// BaseDir is the root of the local Schol-AR cache directory tree.
	BaseDir string

	// APIBaseURL is the base URL of the Schol-AR service.
	APIBaseURL string

	// MaxUploadMB is the upload size ceiling enforced before any network
	// call is made.
	MaxUploadMB int64

	// LogLevel sets the zap logging level ("debug", "info", "warn", "error").
	LogLevel string

	// Config is the path to the Config file.
	Config string
}

// options holds the current configuration values.
var options = &Options{}

// init initializes command-line flags and sets default values.
func init() {
	flag.StringVar(&options.BaseDir, "base-dir", defaultBaseDir(), "root of the local cache directory")
	flag.StringVar(&options.APIBaseURL, "api-url", "https://www.schol-ar.io", "Schol-AR API base URL")
	flag.Int64Var(&options.MaxUploadMB, "max-upload-mb", 30, "upload size ceiling in megabytes")
	flag.StringVar(&options.LogLevel, "log-level", "info", "log level")
	flag.StringVar(&options.Config, "config", "", "path to config file")
	flag.StringVar(&options.Config, "c", "", "path to config file (shorthand)")
}

// defaultBaseDir places the cache under the platform's user config
// directory, falling back to the working directory when that is unknown.
func defaultBaseDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "Schol-AR"
	}
	return filepath.Join(dir, "Schol-AR")
}

// Parse parses the command-line flags and environment variables to set
// configuration values. It returns a pointer to the Options struct containing
// the parsed configuration values.
func Parse() *Options {
	// A missing .env file is fine; environment variables still apply.
	_ = godotenv.Load()

	flag.Parse()

	// Override flags with environment variables if set
	if configPath := os.Getenv("SCHOLAR_CONFIG"); configPath != "" {
		options.Config = configPath
	}

	if options.Config != "" {
		if _, err := os.Stat(options.Config); err == nil {
			data, err := os.ReadFile(options.Config)
			if err != nil {
				log.Fatalf("error while reading config file: %v", err)
			}
			if err := json.Unmarshal(data, options); err != nil {
				log.Fatalf("error while parsing config file: %v", err)
			}
		}
	}

	if baseDir := os.Getenv("SCHOLAR_BASE_DIR"); baseDir != "" {
		options.BaseDir = baseDir
	}
	if apiURL := os.Getenv("SCHOLAR_API_URL"); apiURL != "" {
		options.APIBaseURL = apiURL
	}
	if level := os.Getenv("SCHOLAR_LOG_LEVEL"); level != "" {
		options.LogLevel = level
	}

	return options
}

package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	// DefaultSamplingIntervalMS is used whenever SAMPLING_INTERVAL_MS is
	// missing, malformed, or not positive.
	DefaultSamplingIntervalMS = 1000

	// EnvPathVar names an alternate .env file for setups where the
	// executable directory is not writable.
	EnvPathVar = "CARET_TRACKER_ENV"
)

type Config struct {
	SamplingInterval  time.Duration
	DebugMode         bool
	EnableFileLogging bool
	StateFile         string
	Hotkey            string
	EnableTray        bool
}

func Load() (*Config, error) {
	// Sources in priority order:
	// 1) .env in the application (executable) directory
	// 2) If not found, use CARET_TRACKER_ENV as a path to a config file
	// 3) Process environment
	if envPath := resolveEnvPath(); envPath != "" {
		_ = godotenv.Load(envPath)
	}

	cfg := &Config{
		SamplingInterval:  resolveSamplingInterval(),
		DebugMode:         strings.ToLower(os.Getenv("DEBUG_MODE")) == "true",
		EnableFileLogging: strings.ToLower(os.Getenv("ENABLE_FILE_LOGGING")) == "true",
		StateFile:         getEnvWithDefault("STATE_FILE", DefaultStatePath()),
		Hotkey:            os.Getenv("HOTKEY"),
		EnableTray:        strings.ToLower(getEnvWithDefault("ENABLE_TRAY", "true")) == "true",
	}

	return cfg, nil
}

// DefaultStatePath is the well-known location external consumers poll when
// STATE_FILE is not configured.
func DefaultStatePath() string {
	return filepath.Join(os.TempDir(), "caret-tracker", "caret_state.json")
}

func resolveSamplingInterval() time.Duration {
	ms := DefaultSamplingIntervalMS
	if v := os.Getenv("SAMPLING_INTERVAL_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			ms = n
		} else {
			log.Printf("Config: invalid SAMPLING_INTERVAL_MS %q, using default %dms", v, DefaultSamplingIntervalMS)
		}
	}
	return time.Duration(ms) * time.Millisecond
}

func resolveEnvPath() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}

	execDir := filepath.Dir(execPath)
	exeEnv := filepath.Join(execDir, ".env")
	if _, err := os.Stat(exeEnv); err == nil {
		return exeEnv
	}

	if alt := os.Getenv(EnvPathVar); alt != "" {
		if _, err := os.Stat(alt); err == nil {
			return alt
		}
	}

	return ""
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Package config provides runtime configuration for camxr commands.
// Values come from the environment; see the env tags for variable names.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds all externally supplied settings.
// Enabled and Stereo are read at session start; Stereo may be toggled live
// and takes effect on the next view synthesis.
type Config struct {
	// Enabled gates the whole device. When false, session requests are
	// rejected as unsupported.
	Enabled bool `env:"CAMXR_ENABLED" envDefault:"true"`

	// Stereo selects two-view rendering with a fixed interpupillary offset.
	Stereo bool `env:"CAMXR_STEREO" envDefault:"false"`

	// CameraDevice is the capture device index passed to OpenCV.
	CameraDevice int `env:"CAMXR_CAMERA" envDefault:"0"`

	// DetectorURL is the websocket endpoint of the landmark detector service.
	DetectorURL string `env:"CAMXR_DETECTOR_URL" envDefault:"ws://127.0.0.1:9030/detect"`

	// Port is the HTTP/websocket listen port for the device API.
	Port string `env:"CAMXR_PORT" envDefault:"8080"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `env:"CAMXR_LOG_LEVEL" envDefault:"info"`
}

// Load parses configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

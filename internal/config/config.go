package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// Server
	Port        int    `envconfig:"PORT" default:"8000"`
	Environment string `envconfig:"ENV" default:"development"`

	// Database
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	// Face encoding strategy: "histogram" (in-process) or "dlib"
	// (external embedding sidecar). Fixed at startup.
	FaceEncoder string `envconfig:"FACE_ENCODER" default:"histogram"`
	DlibURL     string `envconfig:"DLIB_URL" default:"http://localhost:8500"`

	// Face detection
	CascadeFile string `envconfig:"CASCADE_FILE" default:"./models/facefinder"`

	// Recognition thresholds
	RecognitionTolerance float64 `envconfig:"RECOGNITION_TOLERANCE" default:"0.5"`
	DuplicateThreshold   float64 `envconfig:"DUPLICATE_THRESHOLD" default:"0.7"`

	// Spoof detection
	SpoofDetectionEnabled bool    `envconfig:"SPOOF_DETECTION_ENABLED" default:"true"`
	LivenessThreshold     float64 `envconfig:"LIVENESS_THRESHOLD" default:"0.4"`
	BlinkThreshold        float64 `envconfig:"BLINK_THRESHOLD" default:"0.25"`
	MinBlinksForLiveness  int     `envconfig:"MIN_BLINKS_FOR_LIVENESS" default:"2"`

	// Lighting normalization
	EnableCLAHE       bool    `envconfig:"ENABLE_CLAHE" default:"true"`
	EnableHistEq      bool    `envconfig:"ENABLE_HISTOGRAM_EQUALIZATION" default:"true"`
	CLAHEClipLimit    float64 `envconfig:"CLAHE_CLIP_LIMIT" default:"2.0"`
	CLAHETileGridSize int     `envconfig:"CLAHE_GRID_SIZE" default:"8"`

	// Attendance
	PunchCooldownMinutes int `envconfig:"PUNCH_COOLDOWN_MINUTES" default:"1"`
	WorkdayStartHour     int `envconfig:"WORKDAY_START_HOUR" default:"6"`
	WorkdayEndHour       int `envconfig:"WORKDAY_END_HOUR" default:"22"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) PunchCooldown() time.Duration {
	return time.Duration(c.PunchCooldownMinutes) * time.Minute
}

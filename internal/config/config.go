package config

import "time"

// Config holds all runtime settings for the TeamPulse backend.
type Config struct {
	// Addr is the listen address for the HTTP server.
	Addr string `koanf:"addr"`

	// DataDir holds the sqlite database.
	DataDir string `koanf:"data_dir"`

	// ModelDir holds the trained model artifacts (<score-type>_model.json).
	ModelDir string `koanf:"model_dir"`

	// CORSOrigins lists allowed origins for the frontend.
	CORSOrigins []string `koanf:"cors_origins"`

	// RedisAddr enables Redis-backed rate limiting when non-empty.
	RedisAddr string `koanf:"redis_addr"`

	// IPLimitPerMin is the per-IP request budget per minute.
	IPLimitPerMin int `koanf:"ip_limit_per_min"`

	// GitHubToken authorizes commit ingestion; empty works for public repos.
	GitHubToken string `koanf:"github_token"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	Analysis Analysis `koanf:"analysis"`
}

// Analysis controls the feature extraction window and work-pattern boundaries.
// These used to be ambient constants; they are explicit so tests can vary them.
type Analysis struct {
	// WindowDays is the trailing analysis window length.
	WindowDays int `koanf:"window_days"`

	// WorkStartHour and WorkEndHour bound the [start, end) working-hours
	// interval used for the after-hours commit ratio.
	WorkStartHour int `koanf:"work_start_hour"`
	WorkEndHour   int `koanf:"work_end_hour"`

	// WeekendDays are time.Weekday values (0=Sunday .. 6=Saturday).
	WeekendDays []int `koanf:"weekend_days"`

	// Timezone is the IANA zone commits are evaluated in.
	Timezone string `koanf:"timezone"`

	// HighValuePoints is the story-point floor above which a closed ticket
	// counts as high value.
	HighValuePoints int `koanf:"high_value_points"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		Addr:            ":8080",
		DataDir:         "./data",
		ModelDir:        "./models",
		CORSOrigins:     []string{"http://localhost:3000"},
		IPLimitPerMin:   60,
		ShutdownTimeout: 30 * time.Second,
		Analysis: Analysis{
			WindowDays:      30,
			WorkStartHour:   9,
			WorkEndHour:     18,
			WeekendDays:     []int{0, 6},
			Timezone:        "UTC",
			HighValuePoints: 5,
		},
	}
}

// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Keep fields unexported where possible and use functional options.
// - Provide New(ctx) initializer to build a Config with defaults.
// - All future functions must accept context.Context as the first parameter.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"context"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DBPath locates the SQLite report history database.
	DBPath string `koanf:"db_path"`

	// PersistQueueSize bounds the in-memory report persistence queue.
	PersistQueueSize int `koanf:"persist_queue_size"`

	// PersistWorkerCount sets the number of persistence workers.
	PersistWorkerCount int `koanf:"persist_worker_count"`

	// MaxReportLimit caps GET /api/reports?limit.
	MaxReportLimit int `koanf:"max_report_limit"`

	// Knee bend band at the six-o'clock position, degrees of bend.
	KneeBendMin    float64 `koanf:"knee_bend_min"`
	KneeBendMax    float64 `koanf:"knee_bend_max"`
	KneeBendTarget float64 `koanf:"knee_bend_target"`

	// Torso lean band, degrees from vertical.
	TorsoMin    float64 `koanf:"torso_min"`
	TorsoMax    float64 `koanf:"torso_max"`
	TorsoTarget float64 `koanf:"torso_target"`

	// Elbow interior-angle band, degrees.
	ElbowMin    float64 `koanf:"elbow_min"`
	ElbowMax    float64 `koanf:"elbow_max"`
	ElbowTarget float64 `koanf:"elbow_target"`

	// KOPSOptimalCm is the half-width of the acceptable KOPS offset band.
	KOPSOptimalCm float64 `koanf:"kops_optimal_cm"`

	// PixelToCm converts pixel spans to centimeters. A rough heuristic
	// with no per-rider calibration behind it.
	PixelToCm float64 `koanf:"pixel_to_cm"`

	// Postural consistency limits between the two photos, degrees.
	TorsoDeltaLimit float64 `koanf:"torso_delta_limit"`
	ElbowDeltaLimit float64 `koanf:"elbow_delta_limit"`
}

// New creates a Config using provided options. Context is accepted first to
// satisfy the project-wide convention; it is reserved for future use (e.g.,
// loading from env/files) and is currently unused.
func New(_ context.Context) *Config {
	c := &Config{
		LogLevel:           "info",
		Addr:               ":9080",
		DBPath:             "bikefit.db",
		PersistQueueSize:   1024,
		PersistWorkerCount: 2,
		MaxReportLimit:     100,
		KneeBendMin:        25,
		KneeBendMax:        35,
		KneeBendTarget:     30,
		TorsoMin:           35,
		TorsoMax:           55,
		TorsoTarget:        45,
		ElbowMin:           150,
		ElbowMax:           165,
		ElbowTarget:        155,
		KOPSOptimalCm:      2,
		PixelToCm:          0.05,
		TorsoDeltaLimit:    10,
		ElbowDeltaLimit:    15,
	}
	return c
}

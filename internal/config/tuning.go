package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
// This is the single source of truth for all default tuning values.
const DefaultConfigPath = "config/ride.defaults.json"

// TuningConfig represents the root configuration for ride tuning parameters.
// The schema matches the /api/config endpoint so the same JSON can be
// used for both startup configuration and runtime updates.
type TuningConfig struct {
	// Kinematics params
	ChainSpeed   *float64 `json:"chain_speed,omitempty"`    // chain lift speed, track units/s
	GravityScale *float64 `json:"gravity_scale,omitempty"`  // multiplier on g in the energy model
	LoopBoost    *float64 `json:"loop_boost,omitempty"`     // speed multiplier inside loop sections
	LoopMinSpeed *float64 `json:"loop_min_speed,omitempty"` // speed floor inside loop sections
	MinRideSpeed *float64 `json:"min_ride_speed,omitempty"` // global speed floor

	// Camera params
	CameraHeight    *float64 `json:"camera_height,omitempty"`     // rider eye offset along the up vector
	CameraSmoothing *float64 `json:"camera_smoothing,omitempty"`  // per-tick blend factor, in (0, 1]
	FOVBase         *float64 `json:"fov_base,omitempty"`          // degrees
	FOVBoostMax     *float64 `json:"fov_boost_max,omitempty"`     // degrees added on a full dive
	PitchMaxDegrees *float64 `json:"pitch_max_degrees,omitempty"` // dive pitch-down cap

	// Loop geometry params
	LoopRadius       *float64 `json:"loop_radius,omitempty"`
	LoopPointCount   *int     `json:"loop_point_count,omitempty"`
	LoopSeparation   *float64 `json:"loop_separation,omitempty"`   // corkscrew lateral travel
	TransitionPoints *int     `json:"transition_points,omitempty"` // samples on the exit blend

	// Stream params
	StreamInterval *string `json:"stream_interval,omitempty"` // duration string like "16ms"
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
// Use LoadTuningConfig to load actual values from the defaults file.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// DefaultTuningConfig returns a TuningConfig with every field populated
// with its default value. The values here must stay in sync with the
// Get* accessors and with config/ride.defaults.json.
func DefaultTuningConfig() *TuningConfig {
	return &TuningConfig{
		ChainSpeed:   ptrFloat64(4.0),
		GravityScale: ptrFloat64(1.0),
		LoopBoost:    ptrFloat64(1.3),
		LoopMinSpeed: ptrFloat64(12.0),
		MinRideSpeed: ptrFloat64(2.0),

		CameraHeight:    ptrFloat64(1.5),
		CameraSmoothing: ptrFloat64(0.15),
		FOVBase:         ptrFloat64(75.0),
		FOVBoostMax:     ptrFloat64(15.0),
		PitchMaxDegrees: ptrFloat64(15.0),

		LoopRadius:       ptrFloat64(8.0),
		LoopPointCount:   ptrInt(20),
		LoopSeparation:   ptrFloat64(3.5),
		TransitionPoints: ptrInt(3),

		StreamInterval: ptrString("16ms"),
	}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the max file size.
// Fields omitted from the JSON file retain their default values, so
// partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	// Validate the config file path.
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse JSON into empty config. The Get* methods provide fallback
	// defaults for any fields not specified in the JSON.
	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical tuning defaults from DefaultConfigPath.
// It searches for the file in the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	// Try paths from current dir up to repo root
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,       // from internal/config/
		"../../../" + DefaultConfigPath,    // from internal/storage/sqlite/
		"../../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	// These must be strictly positive when set.
	positives := []struct {
		name string
		val  *float64
	}{
		{"chain_speed", c.ChainSpeed},
		{"gravity_scale", c.GravityScale},
		{"loop_boost", c.LoopBoost},
		{"loop_min_speed", c.LoopMinSpeed},
		{"min_ride_speed", c.MinRideSpeed},
		{"loop_radius", c.LoopRadius},
		{"fov_base", c.FOVBase},
	}
	for _, p := range positives {
		if p.val != nil && *p.val <= 0 {
			return fmt.Errorf("%s must be positive, got %f", p.name, *p.val)
		}
	}

	// Validate CameraSmoothing if set
	if c.CameraSmoothing != nil {
		if *c.CameraSmoothing <= 0 || *c.CameraSmoothing > 1 {
			return fmt.Errorf("camera_smoothing must be in (0, 1], got %f", *c.CameraSmoothing)
		}
	}

	// Validate LoopPointCount if set. Fewer than 4 points cannot carry
	// the spline through a full revolution.
	if c.LoopPointCount != nil && *c.LoopPointCount < 4 {
		return fmt.Errorf("loop_point_count must be at least 4, got %d", *c.LoopPointCount)
	}

	// Validate TransitionPoints if set
	if c.TransitionPoints != nil && *c.TransitionPoints < 0 {
		return fmt.Errorf("transition_points must be non-negative, got %d", *c.TransitionPoints)
	}

	// Validate StreamInterval can be parsed if set
	if c.StreamInterval != nil && *c.StreamInterval != "" {
		if _, err := time.ParseDuration(*c.StreamInterval); err != nil {
			return fmt.Errorf("invalid stream_interval '%s': %w", *c.StreamInterval, err)
		}
	}

	return nil
}

// GetChainSpeed returns the chain_speed value or the default.
func (c *TuningConfig) GetChainSpeed() float64 {
	if c.ChainSpeed == nil {
		return 4.0 // default
	}
	return *c.ChainSpeed
}

// GetGravityScale returns the gravity_scale value or the default.
func (c *TuningConfig) GetGravityScale() float64 {
	if c.GravityScale == nil {
		return 1.0 // default
	}
	return *c.GravityScale
}

// GetLoopBoost returns the loop_boost value or the default.
func (c *TuningConfig) GetLoopBoost() float64 {
	if c.LoopBoost == nil {
		return 1.3 // default
	}
	return *c.LoopBoost
}

// GetLoopMinSpeed returns the loop_min_speed value or the default.
func (c *TuningConfig) GetLoopMinSpeed() float64 {
	if c.LoopMinSpeed == nil {
		return 12.0 // default
	}
	return *c.LoopMinSpeed
}

// GetMinRideSpeed returns the min_ride_speed value or the default.
func (c *TuningConfig) GetMinRideSpeed() float64 {
	if c.MinRideSpeed == nil {
		return 2.0 // default
	}
	return *c.MinRideSpeed
}

// GetCameraHeight returns the camera_height value or the default.
func (c *TuningConfig) GetCameraHeight() float64 {
	if c.CameraHeight == nil {
		return 1.5 // default
	}
	return *c.CameraHeight
}

// GetCameraSmoothing returns the camera_smoothing value or the default.
func (c *TuningConfig) GetCameraSmoothing() float64 {
	if c.CameraSmoothing == nil {
		return 0.15 // default
	}
	return *c.CameraSmoothing
}

// GetFOVBase returns the fov_base value or the default.
func (c *TuningConfig) GetFOVBase() float64 {
	if c.FOVBase == nil {
		return 75.0 // default
	}
	return *c.FOVBase
}

// GetFOVBoostMax returns the fov_boost_max value or the default.
func (c *TuningConfig) GetFOVBoostMax() float64 {
	if c.FOVBoostMax == nil {
		return 15.0 // default
	}
	return *c.FOVBoostMax
}

// GetPitchMaxDegrees returns the pitch_max_degrees value or the default.
func (c *TuningConfig) GetPitchMaxDegrees() float64 {
	if c.PitchMaxDegrees == nil {
		return 15.0 // default
	}
	return *c.PitchMaxDegrees
}

// GetLoopRadius returns the loop_radius value or the default.
func (c *TuningConfig) GetLoopRadius() float64 {
	if c.LoopRadius == nil {
		return 8.0 // default
	}
	return *c.LoopRadius
}

// GetLoopPointCount returns the loop_point_count value or the default.
func (c *TuningConfig) GetLoopPointCount() int {
	if c.LoopPointCount == nil {
		return 20 // default
	}
	return *c.LoopPointCount
}

// GetLoopSeparation returns the loop_separation value or the default.
func (c *TuningConfig) GetLoopSeparation() float64 {
	if c.LoopSeparation == nil {
		return 3.5 // default
	}
	return *c.LoopSeparation
}

// GetTransitionPoints returns the transition_points value or the default.
func (c *TuningConfig) GetTransitionPoints() int {
	if c.TransitionPoints == nil {
		return 3 // default
	}
	return *c.TransitionPoints
}

// GetStreamInterval parses and returns the StreamInterval as a time.Duration.
func (c *TuningConfig) GetStreamInterval() time.Duration {
	if c.StreamInterval == nil || *c.StreamInterval == "" {
		return 16 * time.Millisecond // default, ~60 ticks/s
	}
	d, err := time.ParseDuration(*c.StreamInterval)
	if err != nil {
		return 16 * time.Millisecond // default on parse error
	}
	return d
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultTuningConfig(t *testing.T) {
	cfg := DefaultTuningConfig()

	// Test that defaults are set via pointers
	if cfg.ChainSpeed == nil || *cfg.ChainSpeed != 4.0 {
		t.Errorf("Expected ChainSpeed 4.0, got %v", cfg.ChainSpeed)
	}
	if cfg.LoopBoost == nil || *cfg.LoopBoost != 1.3 {
		t.Errorf("Expected LoopBoost 1.3, got %v", cfg.LoopBoost)
	}
	if cfg.LoopPointCount == nil || *cfg.LoopPointCount != 20 {
		t.Errorf("Expected LoopPointCount 20, got %v", cfg.LoopPointCount)
	}
	if cfg.StreamInterval == nil || *cfg.StreamInterval != "16ms" {
		t.Errorf("Expected StreamInterval '16ms', got %v", cfg.StreamInterval)
	}

	// Test getter methods
	if cfg.GetChainSpeed() != 4.0 {
		t.Errorf("GetChainSpeed() = %f, want 4.0", cfg.GetChainSpeed())
	}
	if cfg.GetLoopRadius() != 8.0 {
		t.Errorf("GetLoopRadius() = %f, want 8.0", cfg.GetLoopRadius())
	}
	if cfg.GetCameraSmoothing() != 0.15 {
		t.Errorf("GetCameraSmoothing() = %f, want 0.15", cfg.GetCameraSmoothing())
	}

	// Defaults must pass their own validation
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultTuningConfig().Validate() = %v, want nil", err)
	}
}

func TestLoadTuningConfig(t *testing.T) {
	// Create temporary directory
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test_config.json")

	// Write test config with flat schema
	testJSON := `{
  "chain_speed": 6.5,
  "gravity_scale": 0.5,
  "loop_boost": 1.1,
  "camera_height": 2.0,
  "loop_point_count": 32,
  "stream_interval": "33ms"
}`
	if err := os.WriteFile(configPath, []byte(testJSON), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	// Load the config
	cfg, err := LoadTuningConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	// Verify values
	if cfg.ChainSpeed == nil || *cfg.ChainSpeed != 6.5 {
		t.Errorf("Expected ChainSpeed 6.5, got %v", cfg.ChainSpeed)
	}
	if cfg.GravityScale == nil || *cfg.GravityScale != 0.5 {
		t.Errorf("Expected GravityScale 0.5, got %v", cfg.GravityScale)
	}
	if cfg.LoopBoost == nil || *cfg.LoopBoost != 1.1 {
		t.Errorf("Expected LoopBoost 1.1, got %v", cfg.LoopBoost)
	}
	if cfg.CameraHeight == nil || *cfg.CameraHeight != 2.0 {
		t.Errorf("Expected CameraHeight 2.0, got %v", cfg.CameraHeight)
	}
	if cfg.LoopPointCount == nil || *cfg.LoopPointCount != 32 {
		t.Errorf("Expected LoopPointCount 32, got %v", cfg.LoopPointCount)
	}
	if cfg.GetStreamInterval() != 33*time.Millisecond {
		t.Errorf("Expected StreamInterval 33ms, got %v", cfg.GetStreamInterval())
	}
}

func TestLoadTuningConfigMissing(t *testing.T) {
	_, err := LoadTuningConfig("/nonexistent/path/to/config.json")
	if err == nil {
		t.Error("Expected error when loading missing file, got nil")
	}
}

func TestLoadTuningConfigInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid_config.json")

	// Write invalid JSON
	invalidJSON := `{
  "chain_speed": "invalid"
`
	if err := os.WriteFile(configPath, []byte(invalidJSON), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	_, err := LoadTuningConfig(configPath)
	if err == nil {
		t.Error("Expected error when loading invalid JSON, got nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *TuningConfig
		wantErr bool
	}{
		{
			name:    "valid config",
			cfg:     DefaultTuningConfig(),
			wantErr: false,
		},
		{
			name:    "empty config is valid",
			cfg:     &TuningConfig{},
			wantErr: false,
		},
		{
			name: "negative chain speed",
			cfg: &TuningConfig{
				ChainSpeed: ptrFloat64(-1.0),
			},
			wantErr: true,
		},
		{
			name: "zero loop radius",
			cfg: &TuningConfig{
				LoopRadius: ptrFloat64(0),
			},
			wantErr: true,
		},
		{
			name: "camera smoothing too high",
			cfg: &TuningConfig{
				CameraSmoothing: ptrFloat64(1.5),
			},
			wantErr: true,
		},
		{
			name: "camera smoothing zero",
			cfg: &TuningConfig{
				CameraSmoothing: ptrFloat64(0),
			},
			wantErr: true,
		},
		{
			name: "loop point count too small",
			cfg: &TuningConfig{
				LoopPointCount: ptrInt(3),
			},
			wantErr: true,
		},
		{
			name: "negative transition points",
			cfg: &TuningConfig{
				TransitionPoints: ptrInt(-1),
			},
			wantErr: true,
		},
		{
			name: "invalid stream interval",
			cfg: &TuningConfig{
				StreamInterval: ptrString("invalid"),
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGetStreamInterval(t *testing.T) {
	tests := []struct {
		name string
		cfg  *TuningConfig
		want time.Duration
	}{
		{
			name: "16 milliseconds",
			cfg: &TuningConfig{
				StreamInterval: ptrString("16ms"),
			},
			want: 16 * time.Millisecond,
		},
		{
			name: "1 second",
			cfg: &TuningConfig{
				StreamInterval: ptrString("1s"),
			},
			want: 1 * time.Second,
		},
		{
			name: "nil pointer returns default",
			cfg:  &TuningConfig{},
			want: 16 * time.Millisecond,
		},
		{
			name: "empty string returns default",
			cfg: &TuningConfig{
				StreamInterval: ptrString(""),
			},
			want: 16 * time.Millisecond,
		},
		{
			name: "invalid duration returns default",
			cfg: &TuningConfig{
				StreamInterval: ptrString("invalid"),
			},
			want: 16 * time.Millisecond,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.cfg.GetStreamInterval()
			if got != tt.want {
				t.Errorf("GetStreamInterval() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLoadDefaultConfigFile(t *testing.T) {
	cfg, err := LoadTuningConfig("../../config/ride.defaults.json")
	if err != nil {
		t.Fatalf("Failed to load defaults: %v", err)
	}
	if cfg.GetChainSpeed() != 4.0 {
		t.Errorf("Expected 4.0, got %f", cfg.GetChainSpeed())
	}
	if cfg.GetLoopMinSpeed() != 12.0 {
		t.Errorf("Expected 12.0, got %f", cfg.GetLoopMinSpeed())
	}
	if cfg.GetLoopPointCount() != 20 {
		t.Errorf("Expected 20, got %d", cfg.GetLoopPointCount())
	}
}

func TestLoadTuningConfigPartial(t *testing.T) {
	// Partial config: only override gravity; everything else should keep defaults.
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "partial.json")

	partialJSON := `{
  "gravity_scale": 0.25
}`
	if err := os.WriteFile(configPath, []byte(partialJSON), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := LoadTuningConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to load partial config: %v", err)
	}

	// Overridden value
	if cfg.GetGravityScale() != 0.25 {
		t.Errorf("Expected overridden GravityScale 0.25, got %f", cfg.GetGravityScale())
	}
	// Default values should be preserved
	if cfg.GetChainSpeed() != 4.0 {
		t.Errorf("Expected default ChainSpeed 4.0, got %f", cfg.GetChainSpeed())
	}
	if cfg.GetLoopBoost() != 1.3 {
		t.Errorf("Expected default LoopBoost 1.3, got %f", cfg.GetLoopBoost())
	}
	if cfg.GetStreamInterval() != 16*time.Millisecond {
		t.Errorf("Expected default StreamInterval 16ms, got %v", cfg.GetStreamInterval())
	}
	if cfg.GetTransitionPoints() != 3 {
		t.Errorf("Expected default TransitionPoints 3, got %d", cfg.GetTransitionPoints())
	}
}

func TestLoadTuningConfigRejectsNonJSON(t *testing.T) {
	_, err := LoadTuningConfig("/some/path/config.yaml")
	if err == nil {
		t.Error("Expected error for non-.json extension, got nil")
	}
}

func TestLoadTuningConfigRejectsLargeFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "large.json")

	// Create a file larger than 1MB
	largeData := make([]byte, 2*1024*1024) // 2MB
	if err := os.WriteFile(configPath, largeData, 0644); err != nil {
		t.Fatalf("Failed to write large file: %v", err)
	}

	_, err := LoadTuningConfig(configPath)
	if err == nil {
		t.Error("Expected error for file size > 1MB, got nil")
	}
}

func TestAllTuningParams(t *testing.T) {
	// Test that all tunable parameters can be set via JSON
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "all_params.json")

	allParamsJSON := `{
  "chain_speed": 5.0,
  "gravity_scale": 1.2,
  "loop_boost": 1.4,
  "loop_min_speed": 10.0,
  "min_ride_speed": 1.5,
  "camera_height": 1.8,
  "camera_smoothing": 0.2,
  "fov_base": 70.0,
  "fov_boost_max": 20.0,
  "pitch_max_degrees": 12.0,
  "loop_radius": 9.0,
  "loop_point_count": 24,
  "loop_separation": 4.0,
  "transition_points": 5,
  "stream_interval": "20ms"
}`
	if err := os.WriteFile(configPath, []byte(allParamsJSON), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := LoadTuningConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	// Verify all fields are loaded correctly
	if cfg.ChainSpeed == nil || *cfg.ChainSpeed != 5.0 {
		t.Errorf("ChainSpeed = %v, want 5.0", cfg.ChainSpeed)
	}
	if cfg.GravityScale == nil || *cfg.GravityScale != 1.2 {
		t.Errorf("GravityScale = %v, want 1.2", cfg.GravityScale)
	}
	if cfg.LoopBoost == nil || *cfg.LoopBoost != 1.4 {
		t.Errorf("LoopBoost = %v, want 1.4", cfg.LoopBoost)
	}
	if cfg.LoopMinSpeed == nil || *cfg.LoopMinSpeed != 10.0 {
		t.Errorf("LoopMinSpeed = %v, want 10.0", cfg.LoopMinSpeed)
	}
	if cfg.MinRideSpeed == nil || *cfg.MinRideSpeed != 1.5 {
		t.Errorf("MinRideSpeed = %v, want 1.5", cfg.MinRideSpeed)
	}
	if cfg.CameraHeight == nil || *cfg.CameraHeight != 1.8 {
		t.Errorf("CameraHeight = %v, want 1.8", cfg.CameraHeight)
	}
	if cfg.CameraSmoothing == nil || *cfg.CameraSmoothing != 0.2 {
		t.Errorf("CameraSmoothing = %v, want 0.2", cfg.CameraSmoothing)
	}
	if cfg.FOVBase == nil || *cfg.FOVBase != 70.0 {
		t.Errorf("FOVBase = %v, want 70.0", cfg.FOVBase)
	}
	if cfg.FOVBoostMax == nil || *cfg.FOVBoostMax != 20.0 {
		t.Errorf("FOVBoostMax = %v, want 20.0", cfg.FOVBoostMax)
	}
	if cfg.PitchMaxDegrees == nil || *cfg.PitchMaxDegrees != 12.0 {
		t.Errorf("PitchMaxDegrees = %v, want 12.0", cfg.PitchMaxDegrees)
	}
	if cfg.LoopRadius == nil || *cfg.LoopRadius != 9.0 {
		t.Errorf("LoopRadius = %v, want 9.0", cfg.LoopRadius)
	}
	if cfg.LoopPointCount == nil || *cfg.LoopPointCount != 24 {
		t.Errorf("LoopPointCount = %v, want 24", cfg.LoopPointCount)
	}
	if cfg.LoopSeparation == nil || *cfg.LoopSeparation != 4.0 {
		t.Errorf("LoopSeparation = %v, want 4.0", cfg.LoopSeparation)
	}
	if cfg.TransitionPoints == nil || *cfg.TransitionPoints != 5 {
		t.Errorf("TransitionPoints = %v, want 5", cfg.TransitionPoints)
	}
	if cfg.StreamInterval == nil || *cfg.StreamInterval != "20ms" {
		t.Errorf("StreamInterval = %v, want '20ms'", cfg.StreamInterval)
	}
}

func TestGetterDefaults(t *testing.T) {
	// Test that getter methods return expected defaults when pointers are nil
	cfg := &TuningConfig{} // empty config

	if cfg.GetChainSpeed() != 4.0 {
		t.Errorf("GetChainSpeed() = %f, want 4.0", cfg.GetChainSpeed())
	}
	if cfg.GetGravityScale() != 1.0 {
		t.Errorf("GetGravityScale() = %f, want 1.0", cfg.GetGravityScale())
	}
	if cfg.GetLoopBoost() != 1.3 {
		t.Errorf("GetLoopBoost() = %f, want 1.3", cfg.GetLoopBoost())
	}
	if cfg.GetLoopMinSpeed() != 12.0 {
		t.Errorf("GetLoopMinSpeed() = %f, want 12.0", cfg.GetLoopMinSpeed())
	}
	if cfg.GetMinRideSpeed() != 2.0 {
		t.Errorf("GetMinRideSpeed() = %f, want 2.0", cfg.GetMinRideSpeed())
	}
	if cfg.GetCameraHeight() != 1.5 {
		t.Errorf("GetCameraHeight() = %f, want 1.5", cfg.GetCameraHeight())
	}
	if cfg.GetFOVBase() != 75.0 {
		t.Errorf("GetFOVBase() = %f, want 75.0", cfg.GetFOVBase())
	}
	if cfg.GetFOVBoostMax() != 15.0 {
		t.Errorf("GetFOVBoostMax() = %f, want 15.0", cfg.GetFOVBoostMax())
	}
	if cfg.GetPitchMaxDegrees() != 15.0 {
		t.Errorf("GetPitchMaxDegrees() = %f, want 15.0", cfg.GetPitchMaxDegrees())
	}
	if cfg.GetLoopRadius() != 8.0 {
		t.Errorf("GetLoopRadius() = %f, want 8.0", cfg.GetLoopRadius())
	}
	if cfg.GetLoopPointCount() != 20 {
		t.Errorf("GetLoopPointCount() = %d, want 20", cfg.GetLoopPointCount())
	}
	if cfg.GetLoopSeparation() != 3.5 {
		t.Errorf("GetLoopSeparation() = %f, want 3.5", cfg.GetLoopSeparation())
	}
	if cfg.GetTransitionPoints() != 3 {
		t.Errorf("GetTransitionPoints() = %d, want 3", cfg.GetTransitionPoints())
	}
	if cfg.GetStreamInterval() != 16*time.Millisecond {
		t.Errorf("GetStreamInterval() = %v, want 16ms", cfg.GetStreamInterval())
	}
}

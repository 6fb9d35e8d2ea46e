package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "file", cfg.Paths.Backend)
	assert.Equal(t, "./calibration-data", cfg.Paths.StorageRoot)
	assert.Equal(t, 10, cfg.DB.MaxOpenConns)
	assert.Equal(t, 30*time.Minute, cfg.DB.ConnMaxLifetime)
	assert.Equal(t, "http://localhost:8090", cfg.Simulator.BaseURL)
	assert.Equal(t, 30*time.Minute, cfg.Simulator.Timeout)
	assert.Equal(t, 0.5, cfg.Calibration.Alpha)
	assert.Equal(t, 0.25, cfg.Calibration.MaxChangeRatio)
	assert.Equal(t, 20, cfg.Calibration.MaxIterations)
	assert.Equal(t, 3, cfg.Calibration.DivergenceConsecutive)
	assert.Equal(t, 4, cfg.Calibration.MinValidIntervals)
	assert.Empty(t, cfg.Calibration.ResumeRunID)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, "calibration", cfg.Redis.Namespace)
	assert.Equal(t, 8080, cfg.Server.HealthPort)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "postgres")
	t.Setenv("DB_URL", "postgres://calib:secret@db:5432/calibration")
	t.Setenv("CALIBRATION_ALPHA", "0.8")
	t.Setenv("CALIBRATION_MAX_ITERATIONS", "50")
	t.Setenv("SIMULATOR_TIMEOUT_SEC", "600")
	t.Setenv("REDIS_EVENTS_ENABLED", "true")
	t.Setenv("CALIBRATION_RESUME_RUN_ID", "0f2be45a-57a1-4b44-9a60-6b9e69a0d3c7")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Paths.Backend)
	assert.Equal(t, "postgres://calib:secret@db:5432/calibration", cfg.DB.URL)
	assert.Equal(t, 0.8, cfg.Calibration.Alpha)
	assert.Equal(t, 50, cfg.Calibration.MaxIterations)
	assert.Equal(t, 10*time.Minute, cfg.Simulator.Timeout)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "0f2be45a-57a1-4b44-9a60-6b9e69a0d3c7", cfg.Calibration.ResumeRunID)
}

func TestLoadMalformedValuesFallBack(t *testing.T) {
	t.Setenv("CALIBRATION_MAX_ITERATIONS", "lots")
	t.Setenv("CALIBRATION_ALPHA", "half")
	t.Setenv("REDIS_EVENTS_ENABLED", "sure")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.Calibration.MaxIterations)
	assert.Equal(t, 0.5, cfg.Calibration.Alpha)
	assert.False(t, cfg.Redis.Enabled)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "unknown backend",
			env:     map[string]string{"STORAGE_BACKEND": "s3"},
			wantErr: "STORAGE_BACKEND",
		},
		{
			name:    "alpha out of range",
			env:     map[string]string{"CALIBRATION_ALPHA": "1.5"},
			wantErr: "CALIBRATION_ALPHA",
		},
		{
			name:    "non-positive max change",
			env:     map[string]string{"CALIBRATION_MAX_CHANGE_RATIO": "-0.1"},
			wantErr: "CALIBRATION_MAX_CHANGE_RATIO",
		},
		{
			name:    "non-positive iterations",
			env:     map[string]string{"CALIBRATION_MAX_ITERATIONS": "0"},
			wantErr: "CALIBRATION_MAX_ITERATIONS",
		},
		{
			name:    "non-positive divergence streak",
			env:     map[string]string{"CALIBRATION_DIVERGENCE_CONSECUTIVE": "-1"},
			wantErr: "CALIBRATION_DIVERGENCE_CONSECUTIVE",
		},
		{
			name:    "non-positive epsilon",
			env:     map[string]string{"CALIBRATION_EPSILON": "0"},
			wantErr: "CALIBRATION_EPSILON",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

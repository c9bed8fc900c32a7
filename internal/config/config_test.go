package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helper to set env vars and clean up after
func setEnv(t *testing.T, key, value string) {
	t.Helper()
	old := os.Getenv(key)
	os.Setenv(key, value)
	t.Cleanup(func() {
		if old == "" {
			os.Unsetenv(key)
		} else {
			os.Setenv(key, old)
		}
	})
}

func TestLoad_Defaults(t *testing.T) {
	setEnv(t, "PORT", "")
	setEnv(t, "PLAN", "")
	setEnv(t, "TRIAL_DURATION", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, DefaultPlan, cfg.Plan)
	assert.Equal(t, DefaultTrialDuration, cfg.TrialDuration)
	assert.Equal(t, DefaultReconcileInterval, cfg.ReconcileInterval)
	assert.Equal(t, DefaultRefreshInterval, cfg.RefreshInterval)
}

func TestLoad_Overrides(t *testing.T) {
	setEnv(t, "PORT", "9090")
	setEnv(t, "PLAN", "premium")
	setEnv(t, "TRIAL_DURATION", "24h")
	setEnv(t, "RECONCILE_INTERVAL", "30s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "premium", cfg.Plan)
	assert.Equal(t, 24*time.Hour, cfg.TrialDuration)
	assert.Equal(t, 30*time.Second, cfg.ReconcileInterval)
}

func TestLoad_InvalidDurationFallsBack(t *testing.T) {
	setEnv(t, "TRIAL_DURATION", "not_a_duration")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultTrialDuration, cfg.TrialDuration)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr string
	}{
		{
			name: "valid config",
			config: Config{
				Port:              "8080",
				TrialDuration:     DefaultTrialDuration,
				ReconcileInterval: DefaultReconcileInterval,
				RefreshInterval:   DefaultRefreshInterval,
			},
			wantErr: "",
		},
		{
			name: "missing port",
			config: Config{
				TrialDuration:     DefaultTrialDuration,
				ReconcileInterval: DefaultReconcileInterval,
				RefreshInterval:   DefaultRefreshInterval,
			},
			wantErr: "PORT is required",
		},
		{
			name: "non-numeric port",
			config: Config{
				Port:              "eighty",
				TrialDuration:     DefaultTrialDuration,
				ReconcileInterval: DefaultReconcileInterval,
				RefreshInterval:   DefaultRefreshInterval,
			},
			wantErr: "must be numeric",
		},
		{
			name: "zero trial duration",
			config: Config{
				Port:              "8080",
				ReconcileInterval: DefaultReconcileInterval,
				RefreshInterval:   DefaultRefreshInterval,
			},
			wantErr: "TRIAL_DURATION must be positive",
		},
		{
			name: "zero reconcile interval",
			config: Config{
				Port:            "8080",
				TrialDuration:   DefaultTrialDuration,
				RefreshInterval: DefaultRefreshInterval,
			},
			wantErr: "RECONCILE_INTERVAL must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestConfig_IsDevelopment(t *testing.T) {
	cfg := &Config{Env: "development"}
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())

	cfg.Env = "production"
	assert.False(t, cfg.IsDevelopment())
	assert.True(t, cfg.IsProduction())
}

func TestGetEnv(t *testing.T) {
	setEnv(t, "TEST_VAR", "custom_value")

	assert.Equal(t, "custom_value", getEnv("TEST_VAR", "default"))
	assert.Equal(t, "default", getEnv("NONEXISTENT_VAR", "default"))
}

func TestGetEnvDuration(t *testing.T) {
	setEnv(t, "TEST_DURATION", "90s")
	setEnv(t, "TEST_INVALID", "not_a_duration")

	assert.Equal(t, 90*time.Second, getEnvDuration("TEST_DURATION", time.Minute))
	assert.Equal(t, time.Minute, getEnvDuration("NONEXISTENT_VAR", time.Minute))
	assert.Equal(t, time.Minute, getEnvDuration("TEST_INVALID", time.Minute)) // Falls back on parse error
}

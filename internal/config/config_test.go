package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"PORT", "DATABASE_URL", "AUTH_MODE", "APP_JWT_SECRET", "ADMIN_EMAILS", "ADMIN_PASSWORD",
	"FIREBASE_CREDENTIALS_BASE64", "FIREBASE_CREDENTIALS_FILE", "OSRM_BASE_URL",
	"ROUTING_TIMEOUT", "CLASSIFIER_URL", "CLASSIFIER_TIMEOUT", "GOOGLE_MAPS_API_KEY",
	"REWARD_POLICY_FILE", "ALLOWED_ORIGINS",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configKeys {
		t.Setenv(key, "")
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/remat?sslmode=disable")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, AuthModeFirebase, cfg.Auth.Mode)
	assert.Equal(t, "http://router.project-osrm.org", cfg.Routing.OSRMBaseURL)
	assert.Equal(t, 10*time.Second, cfg.Routing.Timeout)
	assert.Equal(t, 15*time.Second, cfg.Classifier.Timeout)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Empty(t, cfg.Auth.AdminEmails)
	assert.Empty(t, cfg.RewardPolicyFile)
}

func TestFromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://db/remat")
	t.Setenv("PORT", "9090")
	t.Setenv("AUTH_MODE", "LOCAL")
	t.Setenv("APP_JWT_SECRET", "secret")
	t.Setenv("ADMIN_EMAILS", "ops@remat.app, ,lead@remat.app")
	t.Setenv("ROUTING_TIMEOUT", "3s")
	t.Setenv("CLASSIFIER_URL", "http://classifier:8000/predict")
	t.Setenv("ALLOWED_ORIGINS", "https://remat.app,https://admin.remat.app")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, AuthModeLocal, cfg.Auth.Mode)
	assert.Equal(t, []string{"ops@remat.app", "lead@remat.app"}, cfg.Auth.AdminEmails)
	assert.Equal(t, 3*time.Second, cfg.Routing.Timeout)
	assert.Equal(t, "http://classifier:8000/predict", cfg.Classifier.URL)
	assert.Equal(t, []string{"https://remat.app", "https://admin.remat.app"}, cfg.AllowedOrigins)
}

func TestFromEnv_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing database url", map[string]string{}},
		{"local auth without secret", map[string]string{"DATABASE_URL": "postgres://db", "AUTH_MODE": "local"}},
		{"unknown auth mode", map[string]string{"DATABASE_URL": "postgres://db", "AUTH_MODE": "ldap"}},
		{"bad routing timeout", map[string]string{"DATABASE_URL": "postgres://db", "ROUTING_TIMEOUT": "ten"}},
		{"negative classifier timeout", map[string]string{"DATABASE_URL": "postgres://db", "CLASSIFIER_TIMEOUT": "-1s"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}

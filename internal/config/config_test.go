package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func envMap(values map[string]string) func(string) string {
	return func(key string) string {
		return values[key]
	}
}

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv(envMap(nil))
	require.NoError(t, err)

	require.Equal(t, "8080", cfg.Port)
	require.Equal(t, 12, cfg.PageSize)
	require.Equal(t, 15*time.Second, cfg.UpstreamTimeout)
	require.Equal(t, StoreMemory, cfg.SessionStore)
	require.Equal(t, []string{"*"}, cfg.CORSOrigins)
	require.False(t, cfg.IsProduction())
}

func TestFromEnvOverrides(t *testing.T) {
	cfg, err := FromEnv(envMap(map[string]string{
		"APP_ENV":           "production",
		"APP_PORT":          "9090",
		"VITE_API_BASE_URL": "http://vite.local/api",
		"IW_API_BASE_URL":   "https://api.intelliwealth.test/",
		"UPSTREAM_TIMEOUT":  "3s",
		"PAGE_SIZE":         "20",
		"SESSION_STORE":     "SQLite",
		"SESSION_SECRET":    "s3cret",
		"CORS_ORIGINS":      "http://localhost:5173, https://app.test",
		"LOG_DIR":           "-",
	}))
	require.NoError(t, err)

	require.True(t, cfg.IsProduction())
	require.Equal(t, "9090", cfg.Port)
	require.Equal(t, "https://api.intelliwealth.test", cfg.APIBaseURL)
	require.Equal(t, 3*time.Second, cfg.UpstreamTimeout)
	require.Equal(t, 20, cfg.PageSize)
	require.Equal(t, StoreSQLite, cfg.SessionStore)
	require.Equal(t, []string{"http://localhost:5173", "https://app.test"}, cfg.CORSOrigins)
	require.Empty(t, cfg.LogDir)
}

func TestFromEnvErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "bad timeout", env: map[string]string{"UPSTREAM_TIMEOUT": "soon"}},
		{name: "bad page size", env: map[string]string{"PAGE_SIZE": "-1"}},
		{name: "unknown store", env: map[string]string{"SESSION_STORE": "redis"}},
		{name: "sql store without secret", env: map[string]string{"SESSION_STORE": "mysql"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromEnv(envMap(tt.env))
			require.Error(t, err)
		})
	}
}

func TestMySQLDSN(t *testing.T) {
	cfg := Default()
	_, err := cfg.MySQLDSN()
	require.Error(t, err)

	cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort = "iw", "pw", "db", "3306"
	dsn, err := cfg.MySQLDSN()
	require.NoError(t, err)
	require.Equal(t, "iw:pw@tcp(db:3306)/intelliwealth?parseTime=true", dsn)

	cfg.FullDSN = "root:x@tcp(other:3306)/iw?parseTime=true"
	dsn, err = cfg.MySQLDSN()
	require.NoError(t, err)
	require.Equal(t, cfg.FullDSN, dsn)
}

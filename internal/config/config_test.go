package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultMatchingKnobs(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 3, cfg.Matching.ToleranceDays)
	assert.Equal(t, 1.0, cfg.Matching.AmountTolerance)
	assert.Equal(t, 10, cfg.Matching.MaxCandidates)
	assert.Equal(t, 30, cfg.Matching.MinMatchScore)
	assert.Equal(t, 90, cfg.Matching.AutoMatchThreshold)
	assert.Equal(t, 100, cfg.Matching.Weights.Amount+cfg.Matching.Weights.Date+cfg.Matching.Weights.Text)
}

func TestLoadExpandsEnvironment(t *testing.T) {
	t.Setenv("TEST_DB_PASSWORD", "s3cret")

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: 9090
database:
  host: db.internal
  password: ${TEST_DB_PASSWORD}
matching:
  tolerance_days: 5
  weights:
    amount: 60
    date: 25
    text: 15
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "s3cret", cfg.Database.Password)
	assert.Equal(t, 5, cfg.Matching.ToleranceDays)
	assert.Equal(t, 60, cfg.Matching.Weights.Amount)
	// Untouched fields keep their defaults.
	assert.Equal(t, 30, cfg.Matching.MinMatchScore)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "3001")
	t.Setenv("DB_NAME", "ledger")
	t.Setenv("MATCH_MIN_SCORE", "40")
	t.Setenv("MATCH_AMOUNT_TOLERANCE", "2.5")
	t.Setenv("ALLOWED_ORIGINS", "https://app.example.com, https://admin.example.com")

	cfg := FromEnv()

	assert.Equal(t, 3001, cfg.Server.Port)
	assert.Equal(t, "ledger", cfg.Database.Name)
	assert.Equal(t, 40, cfg.Matching.MinMatchScore)
	assert.Equal(t, 2.5, cfg.Matching.AmountTolerance)
	assert.Equal(t, []string{"https://app.example.com", "https://admin.example.com"}, cfg.Server.AllowedOrigins)
}

func TestDSNAssembly(t *testing.T) {
	d := DatabaseConfig{Host: "localhost", Port: 5432, User: "postgres", Password: "pw", Name: "recon", SSLMode: "disable"}
	assert.Equal(t, "host=localhost port=5432 user=postgres password=pw dbname=recon sslmode=disable", d.DSN())

	d.URL = "postgres://u:p@host:5432/db"
	assert.Equal(t, "postgres://u:p@host:5432/db", d.DSN())
}

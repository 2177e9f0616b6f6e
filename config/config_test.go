package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"DB_DRIVER", "DATABASE_URL", "PGHOST", "PGPORT", "PGUSER", "PGPASSWORD", "PGDATABASE",
	"PGSSLMODE", "SQLITE_PATH", "VAR_VIEW", "VAR_CSV", "VAR_RETURNS", "VAR_WINDOW",
	"VAR_CONFIDENCE", "CHARTS_DIR", "SERVER_ADDR", "LOG_LEVEL",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "fo.v_risk_series", cfg.Series.View)
	assert.Equal(t, "trade_date", cfg.Series.DateColumn)
	assert.Equal(t, "close_price", cfg.Series.PriceColumn)
	assert.Equal(t, 250, cfg.VaR.Window)
	assert.Equal(t, 0.95, cfg.VaR.Confidence)
	assert.Equal(t, "simple", cfg.VaR.Returns)
	require.NotNil(t, cfg.VaR.IncludeCurrent)
	assert.True(t, *cfg.VaR.IncludeCurrent)
	assert.Equal(t, "charts", cfg.Output.ChartsDir)
}

func TestLoadYAMLWithEnvOverrides(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := `
database:
  driver: mysql
  user: risk
  password: secret
  name: market
series:
  view: v_prices
var:
  window: 100
  confidence: 0.99
  include_current: false
output:
  charts_dir: out
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))

	t.Setenv("VAR_WINDOW", "50")
	t.Setenv("PGHOST", "db.internal")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, 3306, cfg.Database.Port)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "v_prices", cfg.Series.View)
	assert.Equal(t, 50, cfg.VaR.Window)
	assert.Equal(t, 0.99, cfg.VaR.Confidence)
	assert.False(t, *cfg.VaR.IncludeCurrent)
	assert.Equal(t, "out", cfg.Output.ChartsDir)
	assert.NoError(t, cfg.Validate())
}

func TestLoadInvalidEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PGPORT", "not-a-port")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PGPORT")
}

func TestValidateReportsAllMissingSettings(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PGUSER")
	assert.Contains(t, err.Error(), "PGPASSWORD")
	assert.Contains(t, err.Error(), "PGDATABASE")
}

func TestValidateOfflineSourcesSkipCredentials(t *testing.T) {
	clearEnv(t)
	t.Setenv("SQLITE_PATH", "prices.db")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.False(t, cfg.UsesDatabase())
	assert.NoError(t, cfg.Validate())
}

func TestValidateVaRParams(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost/db")

	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"bad driver", func(c *Config) { c.Database.Driver = "oracle" }, "database.driver"},
		{"zero window", func(c *Config) { c.VaR.Window = -1 }, "var.window"},
		{"confidence one", func(c *Config) { c.VaR.Confidence = 1 }, "var.confidence"},
		{"short vol window", func(c *Config) { c.VaR.VolWindow = 1 }, "var.vol_window"},
		{"separator", func(c *Config) { c.Series.CSVSeparator = ";;" }, "csv_separator"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load("")
			require.NoError(t, err)
			tt.mutate(cfg)

			err = cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

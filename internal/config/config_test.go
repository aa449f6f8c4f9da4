package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)

	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, 3306, cfg.Database.Port)
	assert.Equal(t, 5*time.Minute, cfg.Database.ConnMaxLifetime)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "database", cfg.Storage.Backend)
	assert.Equal(t, 8.5, cfg.Invoice.DefaultTaxRate)
	assert.Equal(t, "USD", cfg.Invoice.CurrencyCode)
	assert.Equal(t, "INV", cfg.Invoice.InvoiceNumberPrefix)
	assert.Equal(t, "A4", cfg.PDF.PaperSize)
	assert.True(t, cfg.PDF.Compress)
	assert.Equal(t, "info", cfg.Logging.Level)
	// empty lets each command pick its log stream
	assert.Empty(t, cfg.Logging.File)
	assert.Empty(t, cfg.PDF.AssetDir)
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `{
		"server": {"port": 9090},
		"invoice": {"currency_code": "eur", "default_tax_rate": 19},
		"storage": {"backend": "file", "data_file": "invoices.json"}
	}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "EUR", cfg.Invoice.CurrencyCode)
	assert.Equal(t, 19.0, cfg.Invoice.DefaultTaxRate)
	assert.Equal(t, "file", cfg.Storage.Backend)
	assert.Equal(t, "invoices.json", cfg.Storage.DataFile)
	// untouched keys keep their defaults
	assert.Equal(t, "localhost", cfg.Server.Host)
}

func TestLoadConfig_EnvironmentWins(t *testing.T) {
	path := writeConfig(t, `{"server": {"port": 9090}, "database": {"host": "file-host"}}`)

	t.Setenv("SERVER_PORT", "7070")
	t.Setenv("DB_HOST", "env-host")
	t.Setenv("DEFAULT_TAX_RATE", "7.25")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("PDF_ASSET_DIR", "/srv/invoicer/assets")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "env-host", cfg.Database.Host)
	assert.Equal(t, 7.25, cfg.Invoice.DefaultTaxRate)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "/srv/invoicer/assets", cfg.PDF.AssetDir)
}

func TestLoadConfig_InvalidFile(t *testing.T) {
	path := writeConfig(t, `{not json`)

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg, err := LoadConfig("")
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown driver", func(c *Config) { c.Database.Driver = "postgres" }},
		{"file backend without file", func(c *Config) { c.Storage.Backend = "file" }},
		{"unknown backend", func(c *Config) { c.Storage.Backend = "s3" }},
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
		{"negative tax", func(c *Config) { c.Invoice.DefaultTaxRate = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestDSNAndAddr(t *testing.T) {
	db := DatabaseConfig{Username: "app", Password: "secret", Host: "db", Port: 3306, Database: "invoices"}
	assert.Equal(t, "app:secret@tcp(db:3306)/invoices?charset=utf8mb4&parseTime=True&loc=Local&timeout=10s", db.DSN())

	srv := ServerConfig{Host: "0.0.0.0", Port: 8080}
	assert.Equal(t, "0.0.0.0:8080", srv.Addr())
}

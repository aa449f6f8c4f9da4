package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Database DatabaseConfig `mapstructure:"database" json:"database"`
	Server   ServerConfig   `mapstructure:"server" json:"server"`
	Storage  StorageConfig  `mapstructure:"storage" json:"storage"`
	Invoice  InvoiceConfig  `mapstructure:"invoice" json:"invoice"`
	PDF      PDFConfig      `mapstructure:"pdf" json:"pdf"`
	Logging  LoggingConfig  `mapstructure:"logging" json:"logging"`
}

type DatabaseConfig struct {
	Driver             string        `json:"driver"` // mysql or sqlite
	Host               string        `json:"host"`
	Port               int           `json:"port"`
	Database           string        `json:"database"`
	Username           string        `json:"username"`
	Password           string        `json:"password"`
	SQLitePath         string        `json:"sqlite_path"`
	MaxOpenConns       int           `json:"max_open_conns"`
	MaxIdleConns       int           `json:"max_idle_conns"`
	ConnMaxLifetime    time.Duration `json:"conn_max_lifetime"`
	ConnMaxIdleTime    time.Duration `json:"conn_max_idle_time"`
	SlowQueryThreshold time.Duration `json:"slow_query_threshold"`
	EnableQueryLogging bool          `json:"enable_query_logging"`
	AutoMigrate        bool          `json:"auto_migrate"`
}

// DSN returns the MySQL data source name
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local&timeout=10s",
		d.Username,
		d.Password,
		d.Host,
		d.Port,
		d.Database,
	)
}

type ServerConfig struct {
	Port         int           `json:"port"`
	Host         string        `json:"host"`
	Mode         string        `json:"mode"` // gin mode: debug, release, test
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	// requests slower than this are logged
	SlowRequestThreshold time.Duration `json:"slow_request_threshold"`
}

// Addr returns host:port
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// StorageConfig selects where invoices are read from
type StorageConfig struct {
	Backend  string `json:"backend"` // database or file
	DataFile string `json:"data_file"`
}

type InvoiceConfig struct {
	DefaultTaxRate      float64 `json:"default_tax_rate"`
	DefaultPaymentTerms int     `json:"default_payment_terms"`
	InvoiceNumberPrefix string  `json:"invoice_number_prefix"`
	CurrencyCode        string  `json:"currency_code"`
	DefaultTemplate     string  `json:"default_template"`
}

type PDFConfig struct {
	PaperSize   string  `json:"paper_size"`
	Orientation string  `json:"orientation"`
	MarginMM    float64 `json:"margin_mm"`
	Compress    bool    `json:"compress"`
	AssetDir    string  `json:"asset_dir"` // company logos are only read from here
}

type LoggingConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
	File   string `json:"file"`
}

// envBindings maps config keys to the environment variables that override them
var envBindings = map[string]string{
	"database.driver":               "DB_DRIVER",
	"database.host":                 "DB_HOST",
	"database.port":                 "DB_PORT",
	"database.database":             "DB_NAME",
	"database.username":             "DB_USERNAME",
	"database.password":             "DB_PASSWORD",
	"database.sqlite_path":          "DB_SQLITE_PATH",
	"server.host":                   "SERVER_HOST",
	"server.port":                   "SERVER_PORT",
	"server.mode":                   "GIN_MODE",
	"storage.backend":               "STORAGE_BACKEND",
	"storage.data_file":             "DATA_FILE",
	"invoice.default_tax_rate":      "DEFAULT_TAX_RATE",
	"invoice.default_payment_terms": "DEFAULT_PAYMENT_TERMS",
	"invoice.invoice_number_prefix": "INVOICE_NUMBER_PREFIX",
	"invoice.currency_code":         "CURRENCY_CODE",
	"invoice.default_template":      "DEFAULT_TEMPLATE",
	"pdf.paper_size":                "PDF_PAPER_SIZE",
	"pdf.asset_dir":                 "PDF_ASSET_DIR",
	"logging.level":                 "LOG_LEVEL",
	"logging.format":                "LOG_FORMAT",
	"logging.file":                  "LOG_FILE",
}

// LoadConfig reads configuration with priority env > JSON file > defaults.
// A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			v.SetConfigType("json")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	cfg := &Config{
		Database: DatabaseConfig{
			Driver:             strings.ToLower(v.GetString("database.driver")),
			Host:               v.GetString("database.host"),
			Port:               v.GetInt("database.port"),
			Database:           v.GetString("database.database"),
			Username:           v.GetString("database.username"),
			Password:           v.GetString("database.password"),
			SQLitePath:         v.GetString("database.sqlite_path"),
			MaxOpenConns:       v.GetInt("database.max_open_conns"),
			MaxIdleConns:       v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime:    v.GetDuration("database.conn_max_lifetime"),
			ConnMaxIdleTime:    v.GetDuration("database.conn_max_idle_time"),
			SlowQueryThreshold: v.GetDuration("database.slow_query_threshold"),
			EnableQueryLogging: v.GetBool("database.enable_query_logging"),
			AutoMigrate:        v.GetBool("database.auto_migrate"),
		},
		Server: ServerConfig{
			Port:                 v.GetInt("server.port"),
			Host:                 v.GetString("server.host"),
			Mode:                 v.GetString("server.mode"),
			ReadTimeout:          v.GetDuration("server.read_timeout"),
			WriteTimeout:         v.GetDuration("server.write_timeout"),
			SlowRequestThreshold: v.GetDuration("server.slow_request_threshold"),
		},
		Storage: StorageConfig{
			Backend:  strings.ToLower(v.GetString("storage.backend")),
			DataFile: v.GetString("storage.data_file"),
		},
		Invoice: InvoiceConfig{
			DefaultTaxRate:      v.GetFloat64("invoice.default_tax_rate"),
			DefaultPaymentTerms: v.GetInt("invoice.default_payment_terms"),
			InvoiceNumberPrefix: v.GetString("invoice.invoice_number_prefix"),
			CurrencyCode:        strings.ToUpper(v.GetString("invoice.currency_code")),
			DefaultTemplate:     v.GetString("invoice.default_template"),
		},
		PDF: PDFConfig{
			PaperSize:   v.GetString("pdf.paper_size"),
			Orientation: v.GetString("pdf.orientation"),
			MarginMM:    v.GetFloat64("pdf.margin_mm"),
			Compress:    v.GetBool("pdf.compress"),
			AssetDir:    v.GetString("pdf.asset_dir"),
		},
		Logging: LoggingConfig{
			Level:  v.GetString("logging.level"),
			Format: v.GetString("logging.format"),
			File:   v.GetString("logging.file"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the service cannot start with
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "mysql", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	switch c.Storage.Backend {
	case "database":
	case "file":
		if c.Storage.DataFile == "" {
			return errors.New("storage.data_file is required for the file backend")
		}
	default:
		return fmt.Errorf("unsupported storage backend %q", c.Storage.Backend)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Invoice.DefaultTaxRate < 0 || c.Invoice.DefaultTaxRate > 100 {
		return fmt.Errorf("default tax rate %.2f out of range", c.Invoice.DefaultTaxRate)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	// Database
	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.database", "invoices")
	v.SetDefault("database.username", "root")
	v.SetDefault("database.password", "")
	v.SetDefault("database.sqlite_path", "invoices.db")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("database.conn_max_idle_time", 5*time.Minute)
	v.SetDefault("database.slow_query_threshold", 500*time.Millisecond)
	v.SetDefault("database.enable_query_logging", false)
	v.SetDefault("database.auto_migrate", true)

	// Server
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.slow_request_threshold", 2*time.Second)

	// Storage
	v.SetDefault("storage.backend", "database")
	v.SetDefault("storage.data_file", "")

	// Invoice
	v.SetDefault("invoice.default_tax_rate", 8.5)
	v.SetDefault("invoice.default_payment_terms", 30)
	v.SetDefault("invoice.invoice_number_prefix", "INV")
	v.SetDefault("invoice.currency_code", "USD")
	v.SetDefault("invoice.default_template", "modern")

	// PDF
	v.SetDefault("pdf.paper_size", "A4")
	v.SetDefault("pdf.orientation", "P")
	v.SetDefault("pdf.margin_mm", 20.0)
	v.SetDefault("pdf.compress", true)
	v.SetDefault("pdf.asset_dir", "")

	// Logging
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.file", "")
}

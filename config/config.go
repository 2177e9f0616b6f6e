package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Database struct {
		Driver   string `yaml:"driver"`
		URL      string `yaml:"url"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"sslmode"`
		// SQLitePath switches the price source to a local SQLite file.
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Series struct {
		View         string `yaml:"view"`
		DateColumn   string `yaml:"date_column"`
		PriceColumn  string `yaml:"price_column"`
		CSVPath      string `yaml:"csv_path"`
		CSVSeparator string `yaml:"csv_separator"`
	} `yaml:"series"`
	VaR struct {
		Window         int     `yaml:"window"`
		Confidence     float64 `yaml:"confidence"`
		Returns        string  `yaml:"returns"`
		IncludeCurrent *bool   `yaml:"include_current"`
		VolWindow      int     `yaml:"vol_window"`
	} `yaml:"var"`
	Output struct {
		ChartsDir string `yaml:"charts_dir"`
		Workbook  string `yaml:"workbook"`
	} `yaml:"output"`
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Log struct {
		Level       string `yaml:"level"`
		Development bool   `yaml:"development"`
	} `yaml:"log"`
}

// Load reads .env, then the YAML file at path, then applies environment
// variable overrides and defaults. Missing files are not an error.
func Load(path string) (*Config, error) {
	// .env is optional, the process environment wins over it
	_ = godotenv.Load()

	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if len(data) > 0 {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.Database.Driver, "DB_DRIVER")
	setString(&c.Database.URL, "DATABASE_URL")
	setString(&c.Database.Host, "PGHOST")
	setString(&c.Database.User, "PGUSER")
	setString(&c.Database.Password, "PGPASSWORD")
	setString(&c.Database.Name, "PGDATABASE")
	setString(&c.Database.SSLMode, "PGSSLMODE")
	setString(&c.Database.SQLitePath, "SQLITE_PATH")
	setString(&c.Series.View, "VAR_VIEW")
	setString(&c.Series.CSVPath, "VAR_CSV")
	setString(&c.VaR.Returns, "VAR_RETURNS")
	setString(&c.Output.ChartsDir, "CHARTS_DIR")
	setString(&c.Server.Addr, "SERVER_ADDR")
	setString(&c.Log.Level, "LOG_LEVEL")

	if v := os.Getenv("PGPORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PGPORT %q: %w", v, err)
		}
		c.Database.Port = port
	}
	if v := os.Getenv("VAR_WINDOW"); v != "" {
		window, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid VAR_WINDOW %q: %w", v, err)
		}
		c.VaR.Window = window
	}
	if v := os.Getenv("VAR_CONFIDENCE"); v != "" {
		conf, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid VAR_CONFIDENCE %q: %w", v, err)
		}
		c.VaR.Confidence = conf
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Database.Driver == "" {
		c.Database.Driver = "postgres"
	}
	if c.Database.Host == "" {
		c.Database.Host = "localhost"
	}
	if c.Database.Port == 0 {
		if c.Database.Driver == "mysql" {
			c.Database.Port = 3306
		} else {
			c.Database.Port = 5432
		}
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Series.View == "" {
		c.Series.View = "fo.v_risk_series"
	}
	if c.Series.DateColumn == "" {
		c.Series.DateColumn = "trade_date"
	}
	if c.Series.PriceColumn == "" {
		c.Series.PriceColumn = "close_price"
	}
	if c.Series.CSVSeparator == "" {
		c.Series.CSVSeparator = ";"
	}
	if c.VaR.Window == 0 {
		c.VaR.Window = 250
	}
	if c.VaR.Confidence == 0 {
		c.VaR.Confidence = 0.95
	}
	if c.VaR.Returns == "" {
		c.VaR.Returns = "simple"
	}
	if c.VaR.IncludeCurrent == nil {
		include := true
		c.VaR.IncludeCurrent = &include
	}
	if c.VaR.VolWindow == 0 {
		c.VaR.VolWindow = 20
	}
	if c.Output.ChartsDir == "" {
		c.Output.ChartsDir = "charts"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// UsesDatabase reports whether prices come from a relational server rather
// than a SQLite file or a CSV file.
func (c *Config) UsesDatabase() bool {
	return c.Database.SQLitePath == "" && c.Series.CSVPath == ""
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "mysql":
	default:
		return fmt.Errorf("database.driver must be postgres or mysql, got %q", c.Database.Driver)
	}

	if c.UsesDatabase() && c.Database.URL == "" {
		var missing []string
		if c.Database.User == "" {
			missing = append(missing, "PGUSER")
		}
		if c.Database.Password == "" {
			missing = append(missing, "PGPASSWORD")
		}
		if c.Database.Name == "" {
			missing = append(missing, "PGDATABASE")
		}
		if len(missing) > 0 {
			return fmt.Errorf("missing database settings: %s", strings.Join(missing, ", "))
		}
	}

	if c.VaR.Window < 1 {
		return fmt.Errorf("var.window must be positive")
	}
	if c.VaR.Confidence <= 0 || c.VaR.Confidence >= 1 {
		return fmt.Errorf("var.confidence must be in (0, 1)")
	}
	if c.VaR.VolWindow < 2 {
		return fmt.Errorf("var.vol_window must be at least 2")
	}
	if len([]rune(c.Series.CSVSeparator)) != 1 {
		return fmt.Errorf("series.csv_separator must be a single character")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

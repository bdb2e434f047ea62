package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/eleven-am/pantry/internal/database"
	"github.com/eleven-am/pantry/internal/migrator"
	"github.com/eleven-am/pantry/internal/store"
	"gopkg.in/yaml.v3"
)

const (
	// EnvConfig names the config file when --config is not given.
	EnvConfig = "PANTRY_CONFIG"
	// EnvDatabaseURL overrides database.url from the config file.
	EnvDatabaseURL = "PANTRY_DATABASE_URL"

	defaultConfigFile = "pantry.yaml"
)

var configLocations = []string{"pantry.yaml", "pantry.yml", ".pantry.yaml", ".pantry.yml"}

// PantryConfig represents the pantry.yaml configuration structure
type PantryConfig struct {
	Database struct {
		URL                string        `yaml:"url"`
		Host               string        `yaml:"host,omitempty"`
		Port               string        `yaml:"port,omitempty"`
		User               string        `yaml:"user,omitempty"`
		Password           string        `yaml:"password,omitempty"`
		Name               string        `yaml:"name,omitempty"`
		SSLMode            string        `yaml:"sslmode,omitempty"`
		MaxConnections     int           `yaml:"max_connections"`
		MaxIdleConnections int           `yaml:"max_idle_connections"`
		ConnMaxLifetime    time.Duration `yaml:"conn_max_lifetime"`
		OperationTimeout   time.Duration `yaml:"operation_timeout"`
	} `yaml:"database"`

	Migrations struct {
		Directory string `yaml:"directory"`
		Table     string `yaml:"table"`
	} `yaml:"migrations"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// DefaultConfig returns the settings used when no file is found.
func DefaultConfig() *PantryConfig {
	config := &PantryConfig{}
	config.applyDefaults()
	return config
}

func (c *PantryConfig) applyDefaults() {
	defaults := database.NewConfig("")
	if c.Database.MaxConnections == 0 {
		c.Database.MaxConnections = defaults.MaxOpenConns
	}
	if c.Database.MaxIdleConnections == 0 {
		c.Database.MaxIdleConnections = defaults.MaxIdleConns
	}
	if c.Database.ConnMaxLifetime == 0 {
		c.Database.ConnMaxLifetime = defaults.ConnMaxLifetime
	}
	if c.Database.OperationTimeout == 0 {
		c.Database.OperationTimeout = store.DefaultOperationTimeout
	}
	if c.Migrations.Directory == "" {
		c.Migrations.Directory = "./migrations"
	}
	if c.Migrations.Table == "" {
		c.Migrations.Table = migrator.DefaultTable
	}
	if c.Log.Level == "" {
		c.Log.Level = "warn"
	}
}

// LoadConfig reads path, or the file GetConfigPath finds when path is
// empty. A missing default file is not an error; defaults are returned.
// EnvDatabaseURL, when set, replaces database.url.
func LoadConfig(path string) (*PantryConfig, error) {
	if path == "" {
		path = GetConfigPath()
	}

	config := &PantryConfig{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if url := os.Getenv(EnvDatabaseURL); url != "" {
		config.Database.URL = url
	}

	config.applyDefaults()
	return config, nil
}

// GetConfigPath returns EnvConfig if set, otherwise the first default
// location that exists, otherwise "".
func GetConfigPath() string {
	if path := os.Getenv(EnvConfig); path != "" {
		return path
	}

	for _, loc := range configLocations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

func SaveConfig(config *PantryConfig, path string) error {
	if path == "" {
		path = defaultConfigFile
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ConnectionURL returns database.url, or a URL built from the component
// fields when url is empty and at least a name is given.
func (c *PantryConfig) ConnectionURL() string {
	db := c.Database
	if db.URL != "" || db.Name == "" {
		return db.URL
	}
	host, port := db.Host, db.Port
	if host == "" {
		host = "localhost"
	}
	if port == "" {
		port = "5432"
	}
	return database.GetDatabaseURL(host, port, db.User, db.Password, db.Name, db.SSLMode)
}

// DatabaseConfig converts the database section for url.
func (c *PantryConfig) DatabaseConfig(url string) *database.Config {
	cfg := database.NewConfig(url)
	cfg.MaxOpenConns = c.Database.MaxConnections
	cfg.MaxIdleConns = c.Database.MaxIdleConnections
	cfg.ConnMaxLifetime = c.Database.ConnMaxLifetime
	return cfg
}

// MigratorOptions converts the migrations section.
func (c *PantryConfig) MigratorOptions() migrator.Options {
	return migrator.Options{Dir: c.Migrations.Directory, Table: c.Migrations.Table}
}

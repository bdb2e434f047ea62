package cli

import (
	"context"
	"fmt"

	"github.com/eleven-am/pantry/internal/database"
	"github.com/eleven-am/pantry/internal/logger"
	"github.com/eleven-am/pantry/pkg/pantry"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
)

// Global configuration variables
var (
	configFile   string
	pantryConfig *PantryConfig
	databaseURL  string
	debug        bool
	verbose      bool
)

func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pantry",
		Short: "Pantry - recipe and meal-planning data store",
		Long: `Pantry manages the PostgreSQL database behind the recipe, meal-planning
and subscription-billing application.

Pantry provides tools for:
- Applying and rolling back schema migrations
- Printing the DDL generated from the data model
- Detecting drift between a live database and the data model
- Importing recipe catalogs from YAML`,
		Version:       pantry.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadSettings()
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default: pantry.yaml)")
	rootCmd.PersistentFlags().StringVar(&databaseURL, "url", "", "database connection URL")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable verbose output")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(versionCmd)

	return rootCmd
}

// loadSettings resolves the config file, the database URL and the log
// level. --url beats EnvDatabaseURL, which beats the file.
func loadSettings() error {
	config, err := LoadConfig(configFile)
	if err != nil {
		return err
	}
	pantryConfig = config

	if databaseURL == "" {
		databaseURL = config.ConnectionURL()
	}

	level, err := logger.ParseLevel(config.Log.Level)
	if err != nil {
		return err
	}
	if debug && level > logger.LevelInfo {
		level = logger.LevelInfo
	}
	if verbose {
		level = logger.LevelDebug
	}
	logger.SetLevel(level)
	return nil
}

func settings() *PantryConfig {
	if pantryConfig == nil {
		return DefaultConfig()
	}
	return pantryConfig
}

func requireURL() (string, error) {
	if databaseURL == "" {
		return "", fmt.Errorf("database connection required: use --url, %s, or database.url in pantry.yaml", EnvDatabaseURL)
	}
	return databaseURL, nil
}

// connect opens the configured database, creating it first when create
// is set.
func connect(ctx context.Context, create bool) (*sqlx.DB, *database.Config, error) {
	url, err := requireURL()
	if err != nil {
		return nil, nil, err
	}
	cfg := settings().DatabaseConfig(url)

	if create {
		if err := database.EnsureDatabaseExists(ctx, url); err != nil {
			return nil, nil, err
		}
	}

	db, err := cfg.Connect(ctx)
	if err != nil {
		return nil, nil, err
	}
	logger.CLI().Debug("Connected", "max_connections", cfg.MaxOpenConns)
	return db, cfg, nil
}

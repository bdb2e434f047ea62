// Package database opens the PostgreSQL connection pool shared by the
// store and the migrator.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/eleven-am/pantry/internal/logger"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

type Config struct {
	URL             string
	ConnMaxLifetime time.Duration
	MaxOpenConns    int
	MaxIdleConns    int
}

func NewConfig(url string) *Config {
	return &Config{
		URL:             url,
		ConnMaxLifetime: 10 * time.Minute,
		MaxOpenConns:    10,
		MaxIdleConns:    5,
	}
}

// Connect opens the pool and pings it once so a bad URL fails here rather
// than on first use.
func (cfg *Config) Connect(ctx context.Context) (*sqlx.DB, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("database URL is required")
	}

	db, err := sqlx.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.DB().Debug("Connected to database", "max_open_conns", cfg.MaxOpenConns)
	return db, nil
}

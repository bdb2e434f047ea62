package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// TempDB creates a throwaway database next to the one in cfg. The returned
// cleanup closes the pool and drops the database.
func TempDB(ctx context.Context, cfg *Config, prefix string) (*sqlx.DB, func(), error) {
	name := fmt.Sprintf("%s_%d", prefix, time.Now().UnixNano())
	tempURL, err := WithDatabase(cfg.URL, name)
	if err != nil {
		return nil, nil, err
	}

	if err := EnsureDatabaseExists(ctx, tempURL); err != nil {
		return nil, nil, fmt.Errorf("failed to create temp database: %w", err)
	}

	tempCfg := *cfg
	tempCfg.URL = tempURL
	db, err := tempCfg.Connect(ctx)
	if err != nil {
		_ = DropDatabase(context.Background(), tempURL)
		return nil, nil, err
	}

	cleanup := func() {
		db.Close()
		_ = DropDatabase(context.Background(), tempURL)
	}
	return db, cleanup, nil
}

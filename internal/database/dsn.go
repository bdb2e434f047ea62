package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/eleven-am/pantry/internal/logger"
	"github.com/lib/pq"
)

// EnsureDatabaseExists creates the database named in dsn if it doesn't exist
func EnsureDatabaseExists(ctx context.Context, dsn string) error {
	dbName, adminDSN, err := parseDSNForDB(dsn)
	if err != nil {
		return fmt.Errorf("failed to parse DSN: %w", err)
	}

	db, err := sql.Open("postgres", adminDSN)
	if err != nil {
		return fmt.Errorf("failed to connect to admin database: %w", err)
	}
	defer db.Close()

	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)`
	if err := db.QueryRowContext(ctx, query, dbName).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check database existence: %w", err)
	}

	if !exists {
		logger.DB().Info("Database does not exist, creating", "database", dbName)

		createSQL := fmt.Sprintf("CREATE DATABASE %s", pq.QuoteIdentifier(dbName))
		if _, err := db.ExecContext(ctx, createSQL); err != nil {
			return fmt.Errorf("failed to create database '%s': %w", dbName, err)
		}
	}

	return nil
}

// DropDatabase drops the database named in dsn, connecting through the
// maintenance database.
func DropDatabase(ctx context.Context, dsn string) error {
	dbName, adminDSN, err := parseDSNForDB(dsn)
	if err != nil {
		return fmt.Errorf("failed to parse DSN: %w", err)
	}

	db, err := sql.Open("postgres", adminDSN)
	if err != nil {
		return fmt.Errorf("failed to connect to admin database: %w", err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, fmt.Sprintf("DROP DATABASE IF EXISTS %s", pq.QuoteIdentifier(dbName))); err != nil {
		return fmt.Errorf("failed to drop database '%s': %w", dbName, err)
	}
	return nil
}

// parseDSNForDB extracts database name and returns admin DSN
func parseDSNForDB(dsn string) (dbName string, adminDSN string, err error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return "", "", fmt.Errorf("invalid database URL format: %w", err)
		}
		dbName = strings.TrimPrefix(u.Path, "/")
		if dbName == "" {
			return "", "", fmt.Errorf("no database name found in URL")
		}
		u.Path = "/postgres"
		return dbName, u.String(), nil
	}

	params := parseKeyValueDSN(dsn)
	dbName = params["dbname"]
	if dbName == "" {
		return "", "", fmt.Errorf("no database name found in DSN")
	}
	params["dbname"] = "postgres"
	return dbName, formatKeyValueDSN(params), nil
}

// WithDatabase returns dsn pointing at another database on the same server.
func WithDatabase(dsn, dbName string) (string, error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return "", fmt.Errorf("invalid database URL format: %w", err)
		}
		u.Path = "/" + dbName
		return u.String(), nil
	}

	params := parseKeyValueDSN(dsn)
	params["dbname"] = dbName
	return formatKeyValueDSN(params), nil
}

func parseKeyValueDSN(dsn string) map[string]string {
	params := make(map[string]string)
	for _, kv := range strings.Fields(dsn) {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) == 2 {
			params[parts[0]] = parts[1]
		}
	}
	return params
}

func formatKeyValueDSN(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, params[k]))
	}
	return strings.Join(parts, " ")
}

// GetDatabaseURL builds a database URL from components
func GetDatabaseURL(host, port, user, password, dbname, sslmode string) string {
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		user, url.QueryEscape(password), host, port, dbname, sslmode)
}

package cli

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/eleven-am/pantry/internal/migrator"
	"github.com/eleven-am/pantry/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Empty(t, cfg.Database.URL)
	assert.Equal(t, 10, cfg.Database.MaxConnections)
	assert.Equal(t, 5, cfg.Database.MaxIdleConnections)
	assert.Equal(t, 10*time.Minute, cfg.Database.ConnMaxLifetime)
	assert.Equal(t, store.DefaultOperationTimeout, cfg.Database.OperationTimeout)
	assert.Equal(t, "./migrations", cfg.Migrations.Directory)
	assert.Equal(t, migrator.DefaultTable, cfg.Migrations.Table)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name    string
		content string
		env     string
		check   func(t *testing.T, cfg *PantryConfig)
		wantErr bool
	}{
		{
			name: "full file",
			content: `database:
  url: postgres://localhost/pantry
  max_connections: 20
  max_idle_connections: 4
  conn_max_lifetime: 30m
  operation_timeout: 2s
migrations:
  directory: db/migrations
  table: pantry_migrations
log:
  level: debug
`,
			check: func(t *testing.T, cfg *PantryConfig) {
				assert.Equal(t, "postgres://localhost/pantry", cfg.Database.URL)
				assert.Equal(t, 20, cfg.Database.MaxConnections)
				assert.Equal(t, 4, cfg.Database.MaxIdleConnections)
				assert.Equal(t, 30*time.Minute, cfg.Database.ConnMaxLifetime)
				assert.Equal(t, 2*time.Second, cfg.Database.OperationTimeout)
				assert.Equal(t, "db/migrations", cfg.Migrations.Directory)
				assert.Equal(t, "pantry_migrations", cfg.Migrations.Table)
				assert.Equal(t, "debug", cfg.Log.Level)
			},
		},
		{
			name:    "partial file gets defaults",
			content: "database:\n  url: postgres://localhost/pantry\n",
			check: func(t *testing.T, cfg *PantryConfig) {
				assert.Equal(t, 10, cfg.Database.MaxConnections)
				assert.Equal(t, migrator.DefaultTable, cfg.Migrations.Table)
			},
		},
		{
			name:    "environment overrides url",
			content: "database:\n  url: postgres://localhost/pantry\n",
			env:     "postgres://env-host/pantry",
			check: func(t *testing.T, cfg *PantryConfig) {
				assert.Equal(t, "postgres://env-host/pantry", cfg.Database.URL)
			},
		},
		{
			name:    "malformed yaml",
			content: "database: [",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvDatabaseURL, tt.env)
			path := filepath.Join(t.TempDir(), "pantry.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			cfg, err := LoadConfig(path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadConfigWithoutFile(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv(EnvConfig, "")
	t.Setenv(EnvDatabaseURL, "")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestGetConfigPath(t *testing.T) {
	tests := []struct {
		name  string
		env   string
		files []string
		want  string
	}{
		{name: "environment wins", env: "/etc/pantry/pantry.yaml", files: []string{"pantry.yaml"}, want: "/etc/pantry/pantry.yaml"},
		{name: "first default location", files: []string{".pantry.yml", "pantry.yml"}, want: "pantry.yml"},
		{name: "hidden file", files: []string{".pantry.yaml"}, want: ".pantry.yaml"},
		{name: "nothing found", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chdir(t, t.TempDir())
			t.Setenv(EnvConfig, tt.env)
			for _, f := range tt.files {
				require.NoError(t, os.WriteFile(f, []byte("{}"), 0644))
			}
			assert.Equal(t, tt.want, GetConfigPath())
		})
	}
}

func TestSaveConfigRoundTrip(t *testing.T) {
	t.Setenv(EnvDatabaseURL, "")
	cfg := DefaultConfig()
	cfg.Database.URL = "postgres://localhost/pantry"
	cfg.Database.OperationTimeout = 3 * time.Second

	path := filepath.Join(t.TempDir(), "nested", "pantry.yaml")
	require.NoError(t, SaveConfig(cfg, path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestDatabaseConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Database.MaxConnections = 7
	cfg.Database.MaxIdleConnections = 2
	cfg.Database.ConnMaxLifetime = time.Minute

	db := cfg.DatabaseConfig("postgres://localhost/pantry")
	assert.Equal(t, "postgres://localhost/pantry", db.URL)
	assert.Equal(t, 7, db.MaxOpenConns)
	assert.Equal(t, 2, db.MaxIdleConns)
	assert.Equal(t, time.Minute, db.ConnMaxLifetime)

	opts := cfg.MigratorOptions()
	assert.Equal(t, "./migrations", opts.Dir)
	assert.Equal(t, migrator.DefaultTable, opts.Table)
}

func TestConnectionURL(t *testing.T) {
	tests := []struct {
		name  string
		setup func(cfg *PantryConfig)
		want  string
	}{
		{
			name:  "url wins",
			setup: func(cfg *PantryConfig) { cfg.Database.URL = "postgres://a/b"; cfg.Database.Name = "ignored" },
			want:  "postgres://a/b",
		},
		{
			name: "built from components",
			setup: func(cfg *PantryConfig) {
				cfg.Database.Host = "db"
				cfg.Database.User = "chef"
				cfg.Database.Password = "p@ss"
				cfg.Database.Name = "pantry"
				cfg.Database.SSLMode = "require"
			},
			want: "postgres://chef:p%40ss@db:5432/pantry?sslmode=require",
		},
		{
			name:  "component defaults",
			setup: func(cfg *PantryConfig) { cfg.Database.Name = "pantry" },
			want:  "postgres://:@localhost:5432/pantry?sslmode=disable",
		},
		{
			name:  "nothing configured",
			setup: func(cfg *PantryConfig) {},
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.setup(cfg)
			assert.Equal(t, tt.want, cfg.ConnectionURL())
		})
	}
}

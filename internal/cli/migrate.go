package cli

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/eleven-am/pantry/internal/logger"
	"github.com/eleven-am/pantry/internal/migrator"
	"github.com/eleven-am/pantry/internal/store"
	"github.com/spf13/cobra"
)

const migrateTimeout = 5 * time.Minute

var createDBIfNotExists bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply, roll back and inspect schema migrations",
	Long: `Manage the versioned schema of the pantry database.

The first migration is the baseline generated from the data model. Further
migrations are *.sql files in the migrations directory, applied in name
order, each with "-- +migrate Up" and "-- +migrate Down" sections.`,
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply pending migrations",
	RunE:  runMigrateUp,
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the most recent migration",
	RunE:  runMigrateDown,
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show applied and pending migrations",
	RunE:  runMigrateStatus,
}

var migrateHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "List applied migrations, most recent first",
	RunE:  runMigrateHistory,
}

func init() {
	migrateUpCmd.Flags().BoolVar(&createDBIfNotExists, "create-if-not-exists", false, "Create the database if it does not exist")

	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
	migrateCmd.AddCommand(migrateStatusCmd)
	migrateCmd.AddCommand(migrateHistoryCmd)
}

func withMigrator(create bool, fn func(ctx context.Context, m *migrator.Migrator) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), migrateTimeout)
	defer cancel()

	db, _, err := connect(ctx, create)
	if err != nil {
		return err
	}
	defer db.Close()

	return fn(ctx, migrator.New(db, store.Catalog(), settings().MigratorOptions()))
}

func runMigrateUp(cmd *cobra.Command, args []string) error {
	return withMigrator(createDBIfNotExists, func(ctx context.Context, m *migrator.Migrator) error {
		logger.StartProgress("Applying migrations")
		applied, err := m.Up(ctx)
		for _, name := range applied {
			logger.UpdateProgress(name)
		}
		logger.EndProgress(err == nil)
		if err != nil {
			return err
		}

		if len(applied) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "Database is up to date")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s)\n", len(applied))
		return nil
	})
}

func runMigrateDown(cmd *cobra.Command, args []string) error {
	return withMigrator(false, func(ctx context.Context, m *migrator.Migrator) error {
		name, err := m.Down(ctx)
		if err != nil {
			return err
		}
		if name == "" {
			fmt.Fprintln(cmd.OutOrStdout(), "No migrations to roll back")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Rolled back %s\n", name)
		return nil
	})
}

func runMigrateStatus(cmd *cobra.Command, args []string) error {
	return withMigrator(false, func(ctx context.Context, m *migrator.Migrator) error {
		status, err := m.Status(ctx)
		if err != nil {
			return err
		}
		printStatus(cmd, status)
		return nil
	})
}

func printStatus(cmd *cobra.Command, status *migrator.Status) {
	out := cmd.OutOrStdout()
	current := status.Current
	if current == "" {
		current = "(none)"
	}
	fmt.Fprintf(out, "Current: %s\n", current)
	fmt.Fprintf(out, "Applied: %d\n", len(status.Applied))
	fmt.Fprintf(out, "Pending: %d\n", len(status.Pending))
	for _, name := range status.Pending {
		fmt.Fprintf(out, "  %s\n", name)
	}
	if len(status.Modified) > 0 {
		fmt.Fprintf(out, "Modified since applied: %d\n", len(status.Modified))
		for _, name := range status.Modified {
			fmt.Fprintf(out, "  %s\n", name)
		}
	}
}

func runMigrateHistory(cmd *cobra.Command, args []string) error {
	return withMigrator(false, func(ctx context.Context, m *migrator.Migrator) error {
		records, err := m.History(ctx)
		if err != nil {
			return err
		}
		printHistory(cmd, records)
		return nil
	})
}

func printHistory(cmd *cobra.Command, records []migrator.Record) {
	if len(records) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No migrations applied")
		return
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tAPPLIED AT\tCHECKSUM")
	for _, r := range records {
		checksum := r.Checksum
		if len(checksum) > 12 {
			checksum = checksum[:12]
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", r.Name, r.AppliedAt.Format(time.RFC3339), checksum)
	}
	w.Flush()
}

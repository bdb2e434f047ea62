package cli

import (
	"context"
	"fmt"

	"github.com/eleven-am/pantry/internal/migrator"
	"github.com/eleven-am/pantry/internal/store"
	"github.com/spf13/cobra"
)

var verifySQL bool

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify the database schema matches the data model",
	Long: `Inspects the live database and diffs it against the schema generated from
the data model. The check covers:
- Missing or extra tables
- Missing or extra columns
- Type and nullability differences
- Index and foreign key differences

Returns exit code 0 if the schema matches, 1 if differences are found.`,
	RunE: runVerify,
}

func init() {
	verifyCmd.Flags().BoolVar(&verifySQL, "sql", false, "Print the SQL that would bring the database in line")
}

func runVerify(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), migrateTimeout)
	defer cancel()

	db, cfg, err := connect(ctx, false)
	if err != nil {
		return err
	}
	defer db.Close()

	verifier := migrator.NewVerifier(cfg, store.Catalog(), settings().Migrations.Table)
	drift, err := verifier.Verify(ctx, db.DB)
	if err != nil {
		return err
	}
	return reportDrift(cmd, drift)
}

func reportDrift(cmd *cobra.Command, drift *migrator.Drift) error {
	out := cmd.OutOrStdout()
	if drift.Empty() {
		fmt.Fprintln(out, "Schema matches the data model")
		return nil
	}

	fmt.Fprintf(out, "Found %d difference(s)\n", len(drift.Changes))
	for _, change := range drift.Changes {
		marker := " "
		if migrator.IsDestructiveChange(change) {
			marker = "!"
		}
		fmt.Fprintf(out, "%s %s\n", marker, migrator.DescribeChange(change))
	}

	if verifySQL {
		fmt.Fprintln(out)
		for _, stmt := range drift.Statements {
			fmt.Fprintf(out, "%s;\n", stmt)
		}
	}

	if drift.Destructive > 0 {
		return fmt.Errorf("schema drift: %d change(s), %d destructive", len(drift.Changes), drift.Destructive)
	}
	return fmt.Errorf("schema drift: %d change(s)", len(drift.Changes))
}

package cli

import (
	"fmt"

	"github.com/eleven-am/pantry/internal/store"
	"github.com/spf13/cobra"
)

var schemaDown bool

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the DDL generated from the data model",
	Long: `Prints the CREATE statements for every table in dependency order, or with
--down the DROP statements in reverse order. No database connection is made.`,
	RunE: runSchema,
}

func init() {
	schemaCmd.Flags().BoolVar(&schemaDown, "down", false, "Print the drop script instead")
}

func runSchema(cmd *cobra.Command, args []string) error {
	generate := store.Catalog().CreateSQL
	if schemaDown {
		generate = store.Catalog().DropSQL
	}

	ddl, err := generate()
	if err != nil {
		return fmt.Errorf("failed to generate schema: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), ddl)
	return nil
}

package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/eleven-am/pantry/internal/importer"
	"github.com/eleven-am/pantry/internal/store"
	"github.com/spf13/cobra"
)

var (
	importDryRun  bool
	importTimeout time.Duration
)

var importCmd = &cobra.Command{
	Use:   "import <catalog.yaml>",
	Short: "Import tags, categories and recipes from a YAML catalog",
	Long: `Imports a recipe catalog. Tags are matched by name and categories by slug;
existing ones are reused. Every recipe is written with its ingredients,
instructions, nutrition and links in one transaction. Writes that fail
because the database is unavailable are retried.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Parse the catalog and report its contents without writing")
	importCmd.Flags().DurationVar(&importTimeout, "timeout", 10*time.Minute, "Overall time limit for the import")
}

func runImport(cmd *cobra.Command, args []string) error {
	catalog, err := importer.LoadFile(args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if importDryRun {
		fmt.Fprintf(out, "%s: %d tag(s), %d categories, %d recipe(s)\n",
			args[0], len(catalog.Tags), len(catalog.Categories), len(catalog.Recipes))
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), importTimeout)
	defer cancel()

	db, _, err := connect(ctx, false)
	if err != nil {
		return err
	}
	s := store.New(db, store.Options{OperationTimeout: settings().Database.OperationTimeout})
	defer s.Close()

	res, err := importer.New(s, store.DefaultRetryPolicy).Import(ctx, catalog)
	if res != nil {
		fmt.Fprintf(out, "Tags: %d created, %d reused\n", res.TagsCreated, res.TagsReused)
		fmt.Fprintf(out, "Categories: %d created, %d reused\n", res.CategoriesCreated, res.CategoriesReused)
		fmt.Fprintf(out, "Recipes: %d imported\n", len(res.Recipes))
	}
	return err
}

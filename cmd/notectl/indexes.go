package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"noteblog/internal/categories"
	"noteblog/internal/notes"
	"noteblog/internal/users"
)

type indexer interface {
	EnsureIndexes(ctx context.Context) error
}

var indexesCmd = &cobra.Command{
	Use:   "indexes",
	Short: "Create the collection indexes",
	Long:  `Indexes creates the indexes of the notes, categories and users collections. Existing indexes are left alone.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer closeStore(store)

		repos := []struct {
			name string
			repo indexer
		}{
			{"notes", notes.NewRepo(store.DB)},
			{"categories", categories.NewRepo(store.DB)},
			{"users", users.NewRepo(store.DB)},
		}
		for _, r := range repos {
			if err := r.repo.EnsureIndexes(cmd.Context()); err != nil {
				return fmt.Errorf("failed to index %s: %w", r.name, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), green("✓"), r.name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(indexesCmd)
}

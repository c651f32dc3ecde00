package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"noteblog/internal/categories"
	"noteblog/internal/feed"
	"noteblog/internal/notes"
	"noteblog/internal/share"
	"noteblog/internal/users"
)

var searchCmd = &cobra.Command{
	Use:   "search [term]",
	Short: "Preview a feed",
	Long: `Search runs the same feed query the API serves and prints one page of it.
Without a term it lists the feed unfiltered.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		category, _ := cmd.Flags().GetString("category")
		global, _ := cmd.Flags().GetBool("global")
		owner, _ := cmd.Flags().GetString("owner")
		page, _ := cmd.Flags().GetInt("page")
		limit, _ := cmd.Flags().GetInt("limit")

		scope := feed.Public()
		switch {
		case global && owner != "":
			return fmt.Errorf("--global and --owner are mutually exclusive")
		case global:
			scope = feed.Global()
		case owner != "":
			id, err := primitive.ObjectIDFromHex(owner)
			if err != nil {
				return fmt.Errorf("invalid owner id %q: %w", owner, err)
			}
			scope = feed.OwnedBy(id)
		}

		store, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer closeStore(store)

		catRepo := categories.NewRepo(store.DB)
		composer := feed.NewComposer(catRepo, users.NewRepo(store.DB), logger)
		svc := notes.NewService(notes.NewRepo(store.DB), catRepo, composer, share.NewLinks(cfg.FrontendURL), logger)

		q := notes.FeedQuery{CategorySlug: category, Page: page, Limit: limit}
		if len(args) == 1 {
			q.Search = args[0]
		}
		result, err := svc.Feed(cmd.Context(), scope, q)
		if err != nil {
			return fmt.Errorf("failed to load feed: %w", err)
		}

		printFeed(cmd.OutOrStdout(), result)
		return nil
	},
}

func printFeed(w io.Writer, page *notes.FeedPage) {
	if len(page.Notes) == 0 {
		fmt.Fprintln(w, faint("No notes."))
	}
	for _, n := range page.Notes {
		fmt.Fprintf(w, "  %s  %s\n", faint(n.CreatedAt.Format("2006-01-02")), bold(n.Title))
		var meta []string
		if n.AuthorInfo != nil {
			meta = append(meta, "@"+n.AuthorInfo.Username)
		}
		if n.CategoryInfo != nil {
			meta = append(meta, n.CategoryInfo.Name)
		}
		if len(n.Tags) > 0 {
			meta = append(meta, "#"+strings.Join(n.Tags, " #"))
		}
		if len(meta) > 0 {
			fmt.Fprintf(w, "              %s\n", faint(strings.Join(meta, " · ")))
		}
	}
	p := page.Pagination
	fmt.Fprintln(w, faint(fmt.Sprintf("page %d of %d, %d notes", p.Page, p.Pages, p.Total)))
}

func init() {
	searchCmd.Flags().String("category", "", "only notes in the category with this slug")
	searchCmd.Flags().Bool("global", false, "search the global feed")
	searchCmd.Flags().String("owner", "", "search one user's notes, drafts included (user id)")
	searchCmd.Flags().Int("page", 1, "page number")
	searchCmd.Flags().Int("limit", 0, "notes per page (default depends on the feed)")
	rootCmd.AddCommand(searchCmd)
}

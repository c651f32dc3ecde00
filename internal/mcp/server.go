package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"noteblog/internal/categories"
	"noteblog/internal/feed"
	"noteblog/internal/notes"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const maxLimit = 50

// NoteReader is the read side of the notes service the tools use.
type NoteReader interface {
	Feed(ctx context.Context, scope feed.Scope, q notes.FeedQuery) (*notes.FeedPage, error)
	PeekBySlug(ctx context.Context, slug string) (*notes.Note, error)
	PlainText(content string) string
}

// CategoryLister lists every category.
type CategoryLister interface {
	List(ctx context.Context) ([]*categories.Category, error)
}

// NewServer creates an MCP server with read-only tools over published notes
func NewServer(svc NoteReader, cats CategoryLister) *server.MCPServer {
	s := server.NewMCPServer(
		"Noteblog",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	// Tool: search_notes - Search the public feed
	s.AddTool(
		mcp.NewTool("search_notes",
			mcp.WithDescription("Search published notes. A note matches when the query is a whole word of its title or content, exactly one of its tags, or exactly the name of its category or author."),
			mcp.WithString("query",
				mcp.Required(),
				mcp.Description("Search term"),
			),
			mcp.WithString("category",
				mcp.Description("Optional: only notes in the category with this slug"),
			),
			mcp.WithNumber("page",
				mcp.Description("Page number, starting at 1 (default: 1)"),
			),
			mcp.WithNumber("limit",
				mcp.Description("Notes per page (default: 10, max: 50)"),
			),
		),
		handleSearchNotes(svc),
	)

	// Tool: get_recent_notes - Newest notes on the global feed
	s.AddTool(
		mcp.NewTool("get_recent_notes",
			mcp.WithDescription("Get the newest notes their authors shared to the global feed."),
			mcp.WithNumber("limit",
				mcp.Description("Maximum number of notes to return (default: 20, max: 50)"),
			),
		),
		handleGetRecentNotes(svc),
	)

	// Tool: get_note - Full text of one note
	s.AddTool(
		mcp.NewTool("get_note",
			mcp.WithDescription("Get a note by its slug, with its content as plain text."),
			mcp.WithString("slug",
				mcp.Required(),
				mcp.Description("The note slug, e.g. 'learning-react-basics-1700000000000'"),
			),
		),
		handleGetNote(svc),
	)

	// Tool: list_categories
	s.AddTool(
		mcp.NewTool("list_categories",
			mcp.WithDescription("List all categories with their slugs. Use a slug to filter search_notes."),
		),
		handleListCategories(cats),
	)

	return s
}

// NoteResult represents a note in tool responses
type NoteResult struct {
	Slug      string    `json:"slug"`
	Title     string    `json:"title"`
	Excerpt   string    `json:"excerpt,omitempty"`
	Content   string    `json:"content,omitempty"`
	Tags      []string  `json:"tags"`
	Author    string    `json:"author,omitempty"`
	Category  string    `json:"category,omitempty"`
	Likes     int       `json:"likes"`
	Views     int64     `json:"views"`
	CreatedAt time.Time `json:"createdAt"`
}

// SearchResult is one page of notes
type SearchResult struct {
	Notes      []NoteResult    `json:"notes"`
	Pagination feed.Pagination `json:"pagination"`
}

// CategoryResult represents a category in tool responses
type CategoryResult struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description,omitempty"`
}

func handleSearchNotes(svc NoteReader) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := req.RequireString("query")
		if err != nil {
			return mcp.NewToolResultError("query is required"), nil
		}

		page, err := svc.Feed(ctx, feed.Public(), notes.FeedQuery{
			Search:       query,
			CategorySlug: req.GetString("category", ""),
			Page:         req.GetInt("page", 0),
			Limit:        clampLimit(req.GetInt("limit", 0)),
		})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to search notes: %v", err)), nil
		}

		return jsonResult(SearchResult{Notes: notesToResults(page.Notes), Pagination: page.Pagination})
	}
}

func handleGetRecentNotes(svc NoteReader) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		page, err := svc.Feed(ctx, feed.Global(), notes.FeedQuery{
			Limit: clampLimit(req.GetInt("limit", 0)),
		})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to get recent notes: %v", err)), nil
		}

		return jsonResult(notesToResults(page.Notes))
	}
}

func handleGetNote(svc NoteReader) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		slug, err := req.RequireString("slug")
		if err != nil {
			return mcp.NewToolResultError("slug is required"), nil
		}

		note, err := svc.PeekBySlug(ctx, slug)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to get note: %v", err)), nil
		}
		if !note.IsPublished {
			return mcp.NewToolResultError("failed to get note: note not found"), nil
		}

		result := toResult(note)
		result.Excerpt = ""
		result.Content = svc.PlainText(note.Content)
		return jsonResult(result)
	}
}

func handleListCategories(cats CategoryLister) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		list, err := cats.List(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to list categories: %v", err)), nil
		}

		results := make([]CategoryResult, len(list))
		for i, c := range list {
			results[i] = CategoryResult{Name: c.Name, Slug: c.Slug, Description: c.Description}
		}
		return jsonResult(results)
	}
}

// Helper functions

func clampLimit(limit int) int {
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func toResult(n *notes.Note) NoteResult {
	r := NoteResult{
		Slug:      n.Slug,
		Title:     n.Title,
		Excerpt:   n.Excerpt,
		Tags:      n.Tags,
		Likes:     len(n.Likes),
		Views:     n.Views,
		CreatedAt: n.CreatedAt,
	}
	if n.AuthorInfo != nil {
		r.Author = n.AuthorInfo.Username
	}
	if n.CategoryInfo != nil {
		r.Category = n.CategoryInfo.Slug
	}
	return r
}

func notesToResults(list []*notes.Note) []NoteResult {
	results := make([]NoteResult, len(list))
	for i, n := range list {
		results[i] = toResult(n)
	}
	return results
}

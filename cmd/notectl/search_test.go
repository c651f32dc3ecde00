package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"noteblog/internal/feed"
	"noteblog/internal/notes"
)

func TestPrintFeed(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	printFeed(&buf, &notes.FeedPage{
		Notes: []*notes.Note{{
			Title:        "Learning React Basics",
			Tags:         []string{"react", "js"},
			CreatedAt:    time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC),
			AuthorInfo:   &notes.Author{Username: "alice"},
			CategoryInfo: &notes.CategoryRef{Name: "tech"},
		}},
		Pagination: feed.Pagination{Page: 1, Limit: 10, Total: 1, Pages: 1},
	})

	out := buf.String()
	assert.Contains(t, out, "2024-05-06  Learning React Basics")
	assert.Contains(t, out, "@alice · tech · #react #js")
	assert.Contains(t, out, "page 1 of 1, 1 notes")
}

func TestPrintFeedEmpty(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	printFeed(&buf, &notes.FeedPage{Notes: []*notes.Note{}})
	assert.Contains(t, buf.String(), "No notes.")
}

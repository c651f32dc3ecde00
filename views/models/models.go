package models

import "time"

// SharePreview is a shared note as shown on the link preview page
type SharePreview struct {
	Title      string
	Excerpt    string
	CoverImage string
	AuthorName string
	ShareURL   string
	CreatedAt  time.Time
}

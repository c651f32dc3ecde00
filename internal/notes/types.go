package notes

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"noteblog/internal/feed"
)

var (
	ErrNoteNotFound = errors.New("note not found")
	ErrInvalidInput = errors.New("invalid input")
)

// Note is a blog post. Author and Category hold references; the populated
// AuthorInfo and CategoryInfo are only filled by read queries.
type Note struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Title       string               `bson:"title" json:"title"`
	Content     string               `bson:"content" json:"content"` // rich text (HTML or markdown)
	Excerpt     string               `bson:"excerpt" json:"excerpt"`
	CoverImage  string               `bson:"cover_image" json:"coverImage"`
	Tags        []string             `bson:"tags" json:"tags"`
	Author      primitive.ObjectID   `bson:"author" json:"authorId"`
	Category    *primitive.ObjectID  `bson:"category" json:"categoryId"`
	IsPublished bool                 `bson:"is_published" json:"isPublished"`
	IsGlobal    bool                 `bson:"is_global" json:"isGlobal"`
	Slug        string               `bson:"slug" json:"slug"`
	ShareLink   string               `bson:"share_link,omitempty" json:"shareLink,omitempty"`
	Views       int64                `bson:"views" json:"views"`
	Likes       []primitive.ObjectID `bson:"likes" json:"likes"`
	CreatedAt   time.Time            `bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time            `bson:"updated_at" json:"updatedAt"`

	AuthorInfo   *Author      `bson:"author_info,omitempty" json:"author,omitempty"`
	CategoryInfo *CategoryRef `bson:"category_info,omitempty" json:"category,omitempty"`
}

// Author is the public part of a note's author.
type Author struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	Username    string             `bson:"username" json:"username"`
	DisplayName string             `bson:"display_name" json:"displayName"`
	Avatar      string             `bson:"avatar" json:"avatar"`
	Bio         string             `bson:"bio" json:"bio,omitempty"`
	BlogTitle   string             `bson:"blog_title" json:"blogTitle,omitempty"`
}

// CategoryRef is the populated category of a note.
type CategoryRef struct {
	ID   primitive.ObjectID `bson:"_id" json:"id"`
	Name string             `bson:"name" json:"name"`
	Slug string             `bson:"slug" json:"slug"`
}

// CreateNoteInput is the input for creating a note
type CreateNoteInput struct {
	Title       string   `json:"title"`
	Content     string   `json:"content"`
	Tags        []string `json:"tags"`
	CoverImage  string   `json:"coverImage"`
	IsPublished *bool    `json:"isPublished"`
	Category    string   `json:"category"` // slug
}

// UpdateNoteInput changes only the fields that are set. An empty Category
// clears the note's category.
type UpdateNoteInput struct {
	Title       *string   `json:"title"`
	Content     *string   `json:"content"`
	Tags        *[]string `json:"tags"`
	CoverImage  *string   `json:"coverImage"`
	IsPublished *bool     `json:"isPublished"`
	Category    *string   `json:"category"` // slug
}

// FeedQuery represents feed parameters as received from a caller
type FeedQuery struct {
	Search       string
	CategorySlug string
	Page         int
	Limit        int
}

// FeedPage is one page of a feed.
type FeedPage struct {
	Notes      []*Note         `json:"notes"`
	Pagination feed.Pagination `json:"pagination"`
}

// LikeResult reports the like state after a toggle.
type LikeResult struct {
	Likes int  `json:"likes"`
	Liked bool `json:"liked"`
}

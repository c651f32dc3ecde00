package notes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"noteblog/internal/categories"
	"noteblog/internal/feed"
	"noteblog/internal/share"
	"noteblog/internal/slug"
)

const (
	maxTitle       = 200
	shareLinkTries = 3
)

// Store is the persistence the service needs; *Repo implements it.
type Store interface {
	Insert(ctx context.Context, n *Note) error
	Find(ctx context.Context, plan feed.Plan) ([]*Note, error)
	FindAll(ctx context.Context, filter bson.D) ([]*Note, error)
	FindOne(ctx context.Context, filter bson.D) (*Note, error)
	Count(ctx context.Context, filter bson.D) (int64, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*Note, error)
	FindOwned(ctx context.Context, id, author primitive.ObjectID) (*Note, error)
	IncrementViews(ctx context.Context, filter bson.D) (primitive.ObjectID, error)
	Update(ctx context.Context, id, author primitive.ObjectID, set bson.D) error
	ToggleGlobal(ctx context.Context, id, author primitive.ObjectID) (bool, error)
	SetLike(ctx context.Context, id, user primitive.ObjectID, liked bool) (int, error)
	SetShareLink(ctx context.Context, id, author primitive.ObjectID, token string) error
	Delete(ctx context.Context, id, author primitive.ObjectID) error
}

// CategoryLookup resolves the categories notes are filed under.
type CategoryLookup interface {
	IDBySlug(ctx context.Context, slug string) (primitive.ObjectID, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*categories.Category, error)
}

type Service struct {
	store      Store
	categories CategoryLookup
	composer   *feed.Composer
	links      share.Links
	text       *Excerpter
	log        *slog.Logger
	now        func() time.Time
	newToken   func() (string, error)
}

func NewService(store Store, cats CategoryLookup, composer *feed.Composer, links share.Links, log *slog.Logger) *Service {
	return &Service{
		store:      store,
		categories: cats,
		composer:   composer,
		links:      links,
		text:       NewExcerpter(),
		log:        log,
		now:        time.Now,
		newToken:   share.NewToken,
	}
}

func byID(id primitive.ObjectID) bson.D {
	return bson.D{{Key: "_id", Value: id}}
}

func normalizeTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(title) > maxTitle {
		return "", fmt.Errorf("%w: title is limited to %d characters", ErrInvalidInput, maxTitle)
	}
	return title, nil
}

func normalizeContent(content string) (string, error) {
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("%w: content is required", ErrInvalidInput)
	}
	return content, nil
}

// normalizeTags trims tags and drops blanks and repeats.
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t != "" && !slices.Contains(out, t) {
			out = append(out, t)
		}
	}
	return out
}

// resolveCategory maps a category slug to its id. Unknown slugs leave the
// note without a category.
func (s *Service) resolveCategory(ctx context.Context, categorySlug string) (*primitive.ObjectID, error) {
	if categorySlug == "" {
		return nil, nil
	}
	id, err := s.categories.IDBySlug(ctx, categorySlug)
	if errors.Is(err, feed.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// Create creates a new note
func (s *Service) Create(ctx context.Context, author primitive.ObjectID, input CreateNoteInput) (*Note, error) {
	title, err := normalizeTitle(input.Title)
	if err != nil {
		return nil, err
	}
	content, err := normalizeContent(input.Content)
	if err != nil {
		return nil, err
	}
	category, err := s.resolveCategory(ctx, input.Category)
	if err != nil {
		return nil, err
	}

	now := s.now()
	note := &Note{
		Title:       title,
		Content:     content,
		Excerpt:     s.text.Excerpt(content),
		CoverImage:  strings.TrimSpace(input.CoverImage),
		Tags:        normalizeTags(input.Tags),
		Author:      author,
		Category:    category,
		IsPublished: input.IsPublished == nil || *input.IsPublished,
		Slug:        slug.Unique(title, now),
		CreatedAt:   now,
	}

	if err := s.store.Insert(ctx, note); err != nil {
		return nil, err
	}
	return s.store.FindOne(ctx, byID(note.ID))
}

// changes computes the fields an update rewrites. A new title gets a new
// slug; any title or content change re-derives the excerpt.
func (s *Service) changes(current *Note, input UpdateNoteInput) (bson.D, error) {
	set := bson.D{}
	content := current.Content
	rederive := false

	if input.Title != nil {
		title, err := normalizeTitle(*input.Title)
		if err != nil {
			return nil, err
		}
		if title != current.Title {
			set = append(set,
				bson.E{Key: "title", Value: title},
				bson.E{Key: "slug", Value: slug.Unique(title, s.now())},
			)
		}
		rederive = true
	}
	if input.Content != nil {
		c, err := normalizeContent(*input.Content)
		if err != nil {
			return nil, err
		}
		content = c
		set = append(set, bson.E{Key: "content", Value: content})
		rederive = true
	}
	if rederive {
		set = append(set, bson.E{Key: "excerpt", Value: s.text.Excerpt(content)})
	}
	if input.Tags != nil {
		set = append(set, bson.E{Key: "tags", Value: normalizeTags(*input.Tags)})
	}
	if input.CoverImage != nil {
		set = append(set, bson.E{Key: "cover_image", Value: strings.TrimSpace(*input.CoverImage)})
	}
	if input.IsPublished != nil {
		set = append(set, bson.E{Key: "is_published", Value: *input.IsPublished})
	}
	return set, nil
}

// Update applies a partial update to a note author owns
func (s *Service) Update(ctx context.Context, author, id primitive.ObjectID, input UpdateNoteInput) (*Note, error) {
	current, err := s.store.FindOwned(ctx, id, author)
	if err != nil {
		return nil, err
	}

	set, err := s.changes(current, input)
	if err != nil {
		return nil, err
	}
	if input.Category != nil {
		category, err := s.resolveCategory(ctx, strings.TrimSpace(*input.Category))
		if err != nil {
			return nil, err
		}
		set = append(set, bson.E{Key: "category", Value: category})
	}

	if len(set) > 0 {
		if err := s.store.Update(ctx, id, author, set); err != nil {
			return nil, err
		}
	}
	return s.store.FindOne(ctx, byID(id))
}

// Delete removes a note author owns
func (s *Service) Delete(ctx context.Context, author, id primitive.ObjectID) error {
	return s.store.Delete(ctx, id, author)
}

// GetBySlug returns a note by slug and counts the view.
func (s *Service) GetBySlug(ctx context.Context, noteSlug string) (*Note, error) {
	id, err := s.store.IncrementViews(ctx, bson.D{{Key: "slug", Value: noteSlug}})
	if err != nil {
		return nil, err
	}
	return s.store.FindOne(ctx, byID(id))
}

// PeekBySlug returns a note by slug without counting a view.
func (s *Service) PeekBySlug(ctx context.Context, noteSlug string) (*Note, error) {
	return s.store.FindOne(ctx, bson.D{{Key: "slug", Value: noteSlug}})
}

// ByAuthor returns the published notes of one author, newest first.
func (s *Service) ByAuthor(ctx context.Context, author primitive.ObjectID) ([]*Note, error) {
	return s.store.FindAll(ctx, bson.D{
		{Key: "author", Value: author},
		{Key: "is_published", Value: true},
	})
}

// Feed returns one page of notes for scope.
func (s *Service) Feed(ctx context.Context, scope feed.Scope, q FeedQuery) (*FeedPage, error) {
	plan := s.composer.Compose(ctx, feed.Request{
		Term:         q.Search,
		Scope:        scope,
		CategorySlug: q.CategorySlug,
		Page:         q.Page,
		Limit:        q.Limit,
	})

	if plan.Empty {
		return &FeedPage{Notes: []*Note{}, Pagination: plan.Paginate(0)}, nil
	}

	notes, err := s.store.Find(ctx, plan)
	if err != nil {
		return nil, err
	}
	total, err := s.store.Count(ctx, plan.Filter)
	if err != nil {
		return nil, err
	}
	return &FeedPage{Notes: notes, Pagination: plan.Paginate(total)}, nil
}

// ToggleLike likes the note for user, or unlikes it if already liked.
func (s *Service) ToggleLike(ctx context.Context, user, id primitive.ObjectID) (*LikeResult, error) {
	note, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	liked := !slices.Contains(note.Likes, user)
	count, err := s.store.SetLike(ctx, id, user, liked)
	if err != nil {
		return nil, err
	}
	return &LikeResult{Likes: count, Liked: liked}, nil
}

// ToggleGlobal flips whether a note appears on the global feed.
func (s *Service) ToggleGlobal(ctx context.Context, author, id primitive.ObjectID) (*Note, error) {
	if _, err := s.store.ToggleGlobal(ctx, id, author); err != nil {
		return nil, err
	}
	return s.store.FindOne(ctx, byID(id))
}

// Share returns the share link of a note author owns, creating one if the
// note has none. With regenerate, any existing link is replaced and stops
// working.
func (s *Service) Share(ctx context.Context, author, id primitive.ObjectID, regenerate bool) (share.Info, error) {
	note, err := s.store.FindOwned(ctx, id, author)
	if err != nil {
		return share.Info{}, err
	}
	if note.ShareLink != "" && !regenerate {
		return s.links.Info(note.ShareLink), nil
	}

	for i := 0; i < shareLinkTries; i++ {
		token, err := s.newToken()
		if err != nil {
			return share.Info{}, err
		}
		err = s.store.SetShareLink(ctx, id, author, token)
		if errors.Is(err, errShareLinkTaken) {
			s.log.Warn("share link collision, retrying", "note", id.Hex())
			continue
		}
		if err != nil {
			return share.Info{}, err
		}
		return s.links.Info(token), nil
	}
	return share.Info{}, fmt.Errorf("generate share link for %s: %w", id.Hex(), errShareLinkTaken)
}

// GetShared returns the note behind a share token and counts the view.
func (s *Service) GetShared(ctx context.Context, token string) (*Note, error) {
	id, err := s.store.IncrementViews(ctx, bson.D{{Key: "share_link", Value: token}})
	if err != nil {
		return nil, err
	}
	return s.store.FindOne(ctx, byID(id))
}

// PeekShared returns the note behind a share token without counting a view.
func (s *Service) PeekShared(ctx context.Context, token string) (*Note, error) {
	return s.store.FindOne(ctx, bson.D{{Key: "share_link", Value: token}})
}

// ShareURL is the public page for a share token.
func (s *Service) ShareURL(token string) string {
	return s.links.URL(token)
}

// QRCode returns a PNG data URL encoding the share URL of token.
func (s *Service) QRCode(token string) (string, error) {
	return share.QRDataURL(s.links.URL(token))
}

// AssignCategory files a note author owns under an existing category.
func (s *Service) AssignCategory(ctx context.Context, author, noteID, categoryID primitive.ObjectID) (*Note, error) {
	if _, err := s.categories.FindByID(ctx, categoryID); err != nil {
		return nil, err
	}
	if err := s.store.Update(ctx, noteID, author, bson.D{{Key: "category", Value: categoryID}}); err != nil {
		return nil, err
	}
	return s.store.FindOne(ctx, byID(noteID))
}

// PlainText renders rich-text content to plain text.
func (s *Service) PlainText(content string) string {
	return s.text.PlainText(content)
}

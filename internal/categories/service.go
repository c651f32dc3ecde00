package categories

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"noteblog/internal/slug"
)

// Store is the persistence the service needs; *Repo implements it.
type Store interface {
	Insert(ctx context.Context, c *Category) error
	List(ctx context.Context, owner primitive.ObjectID) ([]*Category, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*Category, error)
	FindBySlug(ctx context.Context, slug string) (*Category, error)
	FindByName(ctx context.Context, name string) (*Category, error)
	Update(ctx context.Context, id, owner primitive.ObjectID, set bson.D) (*Category, error)
	Delete(ctx context.Context, id, owner primitive.ObjectID) error
}

// NoteDetacher clears a deleted category from the notes filed under it.
type NoteDetacher interface {
	DetachCategory(ctx context.Context, categoryID primitive.ObjectID) (int64, error)
}

type Service struct {
	store Store
	notes NoteDetacher
	log   *slog.Logger
}

func NewService(store Store, notes NoteDetacher, log *slog.Logger) *Service {
	return &Service{store: store, notes: notes, log: log}
}

func normalizeName(name string) (string, string, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return "", "", fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	s := slug.Make(name)
	if s == "" {
		return "", "", fmt.Errorf("%w: name must contain letters or digits", ErrInvalidInput)
	}
	return name, s, nil
}

func normalizeDescription(d string) (string, error) {
	d = strings.TrimSpace(d)
	if utf8.RuneCountInString(d) > maxDescription {
		return "", fmt.Errorf("%w: description is limited to %d characters", ErrInvalidInput, maxDescription)
	}
	return d, nil
}

// Create creates a category owned by owner. Names are unique ignoring case.
func (s *Service) Create(ctx context.Context, owner primitive.ObjectID, input CreateCategoryInput) (*Category, error) {
	name, sl, err := normalizeName(input.Name)
	if err != nil {
		return nil, err
	}
	desc, err := normalizeDescription(input.Description)
	if err != nil {
		return nil, err
	}

	if err := s.ensureNameFree(ctx, name, primitive.NilObjectID); err != nil {
		return nil, err
	}

	c := &Category{
		Name:        name,
		Slug:        sl,
		Description: desc,
		CreatedBy:   owner,
	}
	if err := s.store.Insert(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) ensureNameFree(ctx context.Context, name string, self primitive.ObjectID) error {
	existing, err := s.store.FindByName(ctx, name)
	if errors.Is(err, ErrCategoryNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.ID != self {
		return ErrCategoryExists
	}
	return nil
}

// Update renames or re-describes a category. A rename recomputes the slug.
func (s *Service) Update(ctx context.Context, owner, id primitive.ObjectID, input UpdateCategoryInput) (*Category, error) {
	set := bson.D{}

	if input.Name != nil {
		name, sl, err := normalizeName(*input.Name)
		if err != nil {
			return nil, err
		}
		if err := s.ensureNameFree(ctx, name, id); err != nil {
			return nil, err
		}
		set = append(set, bson.E{Key: "name", Value: name}, bson.E{Key: "slug", Value: sl})
	}
	if input.Description != nil {
		desc, err := normalizeDescription(*input.Description)
		if err != nil {
			return nil, err
		}
		set = append(set, bson.E{Key: "description", Value: desc})
	}

	return s.store.Update(ctx, id, owner, set)
}

// Delete removes a category and detaches it from its notes.
func (s *Service) Delete(ctx context.Context, owner, id primitive.ObjectID) error {
	if err := s.store.Delete(ctx, id, owner); err != nil {
		return err
	}

	n, err := s.notes.DetachCategory(ctx, id)
	if err != nil {
		return fmt.Errorf("detach notes from category %s: %w", id.Hex(), err)
	}
	s.log.Info("category deleted", "category", id.Hex(), "detached_notes", n)
	return nil
}

// List returns every category sorted by name.
func (s *Service) List(ctx context.Context) ([]*Category, error) {
	return s.store.List(ctx, primitive.NilObjectID)
}

// ListOwned returns the categories owner created.
func (s *Service) ListOwned(ctx context.Context, owner primitive.ObjectID) ([]*Category, error) {
	return s.store.List(ctx, owner)
}

func (s *Service) GetBySlug(ctx context.Context, slug string) (*Category, error) {
	return s.store.FindBySlug(ctx, slug)
}

func (s *Service) GetByID(ctx context.Context, id primitive.ObjectID) (*Category, error) {
	return s.store.FindByID(ctx, id)
}

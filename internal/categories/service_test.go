package categories

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type memStore struct {
	items map[primitive.ObjectID]*Category
}

func newMemStore() *memStore {
	return &memStore{items: make(map[primitive.ObjectID]*Category)}
}

func (m *memStore) Insert(_ context.Context, c *Category) error {
	for _, existing := range m.items {
		if existing.Name == c.Name || existing.Slug == c.Slug {
			return ErrCategoryExists
		}
	}
	c.ID = primitive.NewObjectID()
	cp := *c
	m.items[c.ID] = &cp
	return nil
}

func (m *memStore) List(_ context.Context, owner primitive.ObjectID) ([]*Category, error) {
	out := []*Category{}
	for _, c := range m.items {
		if owner.IsZero() || c.CreatedBy == owner {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memStore) FindByID(_ context.Context, id primitive.ObjectID) (*Category, error) {
	if c, ok := m.items[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, ErrCategoryNotFound
}

func (m *memStore) find(match func(*Category) bool) (*Category, error) {
	for _, c := range m.items {
		if match(c) {
			cp := *c
			return &cp, nil
		}
	}
	return nil, ErrCategoryNotFound
}

func (m *memStore) FindBySlug(_ context.Context, slug string) (*Category, error) {
	return m.find(func(c *Category) bool { return c.Slug == slug })
}

func (m *memStore) FindByName(_ context.Context, name string) (*Category, error) {
	return m.find(func(c *Category) bool { return strings.EqualFold(c.Name, name) })
}

func (m *memStore) Update(_ context.Context, id, owner primitive.ObjectID, set bson.D) (*Category, error) {
	c, ok := m.items[id]
	if !ok || c.CreatedBy != owner {
		return nil, ErrCategoryNotFound
	}
	for _, e := range set {
		switch e.Key {
		case "name":
			c.Name = e.Value.(string)
		case "slug":
			c.Slug = e.Value.(string)
		case "description":
			c.Description = e.Value.(string)
		}
	}
	cp := *c
	return &cp, nil
}

func (m *memStore) Delete(_ context.Context, id, owner primitive.ObjectID) error {
	c, ok := m.items[id]
	if !ok || c.CreatedBy != owner {
		return ErrCategoryNotFound
	}
	delete(m.items, id)
	return nil
}

type fakeDetacher struct {
	detached []primitive.ObjectID
}

func (f *fakeDetacher) DetachCategory(_ context.Context, id primitive.ObjectID) (int64, error) {
	f.detached = append(f.detached, id)
	return 2, nil
}

func newTestService() (*Service, *memStore, *fakeDetacher) {
	store := newMemStore()
	notes := &fakeDetacher{}
	return NewService(store, notes, slog.New(slog.NewTextHandler(io.Discard, nil))), store, notes
}

func TestCreateNormalizesNameAndSlug(t *testing.T) {
	svc, _, _ := newTestService()
	owner := primitive.NewObjectID()

	c, err := svc.Create(context.Background(), owner, CreateCategoryInput{Name: "  Web Development ", Description: " frontend things "})
	require.NoError(t, err)

	assert.Equal(t, "web development", c.Name)
	assert.Equal(t, "web-development", c.Slug)
	assert.Equal(t, "frontend things", c.Description)
	assert.Equal(t, owner, c.CreatedBy)
}

func TestCreateRejects(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	owner := primitive.NewObjectID()

	_, err := svc.Create(ctx, owner, CreateCategoryInput{Name: "Golang"})
	require.NoError(t, err)

	tests := []struct {
		name  string
		input CreateCategoryInput
		want  error
	}{
		{"duplicate ignoring case", CreateCategoryInput{Name: "GOLANG"}, ErrCategoryExists},
		{"duplicate from other owner", CreateCategoryInput{Name: "golang"}, ErrCategoryExists},
		{"blank name", CreateCategoryInput{Name: "   "}, ErrInvalidInput},
		{"symbols only", CreateCategoryInput{Name: "!!!"}, ErrInvalidInput},
		{"long description", CreateCategoryInput{Name: "rust", Description: strings.Repeat("x", 201)}, ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, primitive.NewObjectID(), tt.input)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestUpdateRecomputesSlug(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	owner := primitive.NewObjectID()

	c, err := svc.Create(ctx, owner, CreateCategoryInput{Name: "machine learning"})
	require.NoError(t, err)

	name := "Deep Learning"
	updated, err := svc.Update(ctx, owner, c.ID, UpdateCategoryInput{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "deep learning", updated.Name)
	assert.Equal(t, "deep-learning", updated.Slug)

	desc := "neural nets"
	updated, err = svc.Update(ctx, owner, c.ID, UpdateCategoryInput{Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, "deep-learning", updated.Slug, "slug unchanged without a rename")
	assert.Equal(t, "neural nets", updated.Description)
}

func TestUpdateKeepsOwnNameAndBlocksOthers(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	owner := primitive.NewObjectID()

	a, err := svc.Create(ctx, owner, CreateCategoryInput{Name: "alpha"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, owner, CreateCategoryInput{Name: "beta"})
	require.NoError(t, err)

	same := "ALPHA"
	_, err = svc.Update(ctx, owner, a.ID, UpdateCategoryInput{Name: &same})
	assert.NoError(t, err)

	taken := "beta"
	_, err = svc.Update(ctx, owner, a.ID, UpdateCategoryInput{Name: &taken})
	assert.ErrorIs(t, err, ErrCategoryExists)

	_, err = svc.Update(ctx, primitive.NewObjectID(), a.ID, UpdateCategoryInput{Name: &same})
	assert.ErrorIs(t, err, ErrCategoryNotFound, "only the owner may update")
}

func TestDeleteDetachesNotes(t *testing.T) {
	svc, store, notes := newTestService()
	ctx := context.Background()
	owner := primitive.NewObjectID()

	c, err := svc.Create(ctx, owner, CreateCategoryInput{Name: "travel"})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, primitive.NewObjectID(), c.ID), ErrCategoryNotFound)
	assert.Empty(t, notes.detached)

	require.NoError(t, svc.Delete(ctx, owner, c.ID))
	assert.Equal(t, []primitive.ObjectID{c.ID}, notes.detached)
	assert.Empty(t, store.items)
}

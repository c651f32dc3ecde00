package feed

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeCategories struct {
	slugs  map[string]primitive.ObjectID
	byName map[string][]ownedID
	err    error

	slugCalls int
	nameCalls int
}

type ownedID struct {
	id    primitive.ObjectID
	owner primitive.ObjectID
}

func (f *fakeCategories) IDBySlug(_ context.Context, slug string) (primitive.ObjectID, error) {
	f.slugCalls++
	if f.err != nil {
		return primitive.NilObjectID, f.err
	}
	id, ok := f.slugs[slug]
	if !ok {
		return primitive.NilObjectID, ErrNotFound
	}
	return id, nil
}

func (f *fakeCategories) IDsByName(_ context.Context, name string, owner primitive.ObjectID) ([]primitive.ObjectID, error) {
	f.nameCalls++
	if f.err != nil {
		return nil, f.err
	}
	var ids []primitive.ObjectID
	for _, c := range f.byName[name] {
		if owner.IsZero() || c.owner == owner {
			ids = append(ids, c.id)
		}
	}
	return ids, nil
}

type fakeUsers struct {
	byName map[string][]primitive.ObjectID
	err    error
	calls  int
}

func (f *fakeUsers) IDsByName(_ context.Context, name string) ([]primitive.ObjectID, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.byName[name], nil
}

func newTestComposer(cats *fakeCategories, users *fakeUsers) (*Composer, *bytes.Buffer) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))
	return NewComposer(cats, users, log), &buf
}

func orClauses(t *testing.T, filter bson.D) bson.A {
	t.Helper()
	for _, e := range filter {
		if e.Key == "$or" {
			clauses, ok := e.Value.(bson.A)
			require.True(t, ok, "$or value should be bson.A")
			return clauses
		}
	}
	t.Fatalf("filter has no $or: %v", filter)
	return nil
}

func clauseKeys(clauses bson.A) []string {
	keys := make([]string, 0, len(clauses))
	for _, c := range clauses {
		keys = append(keys, c.(bson.D)[0].Key)
	}
	return keys
}

func inValues(t *testing.T, clauses bson.A, key string) bson.A {
	t.Helper()
	for _, c := range clauses {
		d := c.(bson.D)
		if d[0].Key == key {
			op := d[0].Value.(bson.D)
			require.Equal(t, "$in", op[0].Key)
			return op[0].Value.(bson.A)
		}
	}
	t.Fatalf("no clause for %s", key)
	return nil
}

func TestComposeEmptyTermUsesBaseFilterOnly(t *testing.T) {
	viewer := primitive.NewObjectID()
	tests := []struct {
		name  string
		scope Scope
		want  bson.D
	}{
		{"public", Public(), bson.D{{Key: "is_published", Value: true}}},
		{"owned", OwnedBy(viewer), bson.D{{Key: "author", Value: viewer}}},
		{"global", Global(), bson.D{{Key: "is_global", Value: true}, {Key: "is_published", Value: true}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cats := &fakeCategories{}
			users := &fakeUsers{}
			c, _ := newTestComposer(cats, users)

			for _, term := range []string{"", "   "} {
				plan := c.Compose(context.Background(), Request{Term: term, Scope: tt.scope})
				assert.Equal(t, tt.want, plan.Filter)
				assert.False(t, plan.Empty)
			}
			assert.Zero(t, cats.nameCalls, "no lookups for an empty term")
			assert.Zero(t, users.calls)
		})
	}
}

func TestComposePublicSearchClauses(t *testing.T) {
	catID := primitive.NewObjectID()
	userID := primitive.NewObjectID()
	cats := &fakeCategories{byName: map[string][]ownedID{"react": {{id: catID, owner: primitive.NewObjectID()}}}}
	users := &fakeUsers{byName: map[string][]primitive.ObjectID{"react": {userID}}}
	c, _ := newTestComposer(cats, users)

	plan := c.Compose(context.Background(), Request{Term: " react ", Scope: Public()})

	assert.Equal(t, bson.E{Key: "is_published", Value: true}, plan.Filter[0])
	clauses := orClauses(t, plan.Filter)
	assert.Equal(t, []string{"title", "tags", "category", "author", "content"}, clauseKeys(clauses))
	assert.Equal(t, bson.A{catID}, inValues(t, clauses, "category"))
	assert.Equal(t, bson.A{userID}, inValues(t, clauses, "author"))
	assert.Equal(t, bson.A{Exact("react")}, inValues(t, clauses, "tags"))
	assert.Equal(t, WholeWord("react"), clauses[0].(bson.D)[0].Value)
	assert.Equal(t, WholeWord("react"), clauses[4].(bson.D)[0].Value)
}

func TestComposeOwnedSearchSkipsAuthorsAndForeignCategories(t *testing.T) {
	viewer := primitive.NewObjectID()
	mine := primitive.NewObjectID()
	theirs := primitive.NewObjectID()
	cats := &fakeCategories{byName: map[string][]ownedID{"go": {
		{id: theirs, owner: primitive.NewObjectID()},
		{id: mine, owner: viewer},
	}}}
	users := &fakeUsers{byName: map[string][]primitive.ObjectID{"go": {primitive.NewObjectID()}}}
	c, _ := newTestComposer(cats, users)

	plan := c.Compose(context.Background(), Request{Term: "go", Scope: OwnedBy(viewer)})

	assert.Equal(t, bson.E{Key: "author", Value: viewer}, plan.Filter[0])
	clauses := orClauses(t, plan.Filter)
	assert.Equal(t, []string{"title", "tags", "category", "content"}, clauseKeys(clauses))
	assert.Equal(t, bson.A{mine}, inValues(t, clauses, "category"))
	assert.Zero(t, users.calls, "owned search never looks up authors")
}

func TestComposeOwnedSearchNeverMatchesOnlyForeignCategory(t *testing.T) {
	viewer := primitive.NewObjectID()
	cats := &fakeCategories{byName: map[string][]ownedID{"design": {{id: primitive.NewObjectID(), owner: primitive.NewObjectID()}}}}
	c, _ := newTestComposer(cats, &fakeUsers{})

	plan := c.Compose(context.Background(), Request{Term: "design", Scope: OwnedBy(viewer)})

	assert.Empty(t, inValues(t, orClauses(t, plan.Filter), "category"))
}

func TestComposeCategorySlug(t *testing.T) {
	catID := primitive.NewObjectID()
	cats := &fakeCategories{slugs: map[string]primitive.ObjectID{"golang": catID}}
	c, _ := newTestComposer(cats, &fakeUsers{})

	plan := c.Compose(context.Background(), Request{Scope: Public(), CategorySlug: "golang"})

	assert.Equal(t, bson.D{
		{Key: "is_published", Value: true},
		{Key: "category", Value: catID},
	}, plan.Filter)
	assert.False(t, plan.Empty)
}

func TestComposeUnresolvedCategoryMatchesNothing(t *testing.T) {
	tests := []struct {
		name    string
		cats    *fakeCategories
		wantLog bool
	}{
		{"unknown slug", &fakeCategories{}, false},
		{"lookup error", &fakeCategories{err: errors.New("connection reset")}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, logs := newTestComposer(tt.cats, &fakeUsers{})

			plan := c.Compose(context.Background(), Request{Scope: Public(), CategorySlug: "nonexistent"})

			assert.True(t, plan.Empty)
			assert.Equal(t, bson.D{
				{Key: "is_published", Value: true},
				{Key: "category", Value: bson.D{{Key: "$in", Value: bson.A{}}}},
			}, plan.Filter)
			assert.Equal(t, tt.wantLog, logs.Len() > 0)
		})
	}
}

func TestComposeLookupFailureIsNoMatch(t *testing.T) {
	cats := &fakeCategories{err: errors.New("timeout")}
	users := &fakeUsers{err: errors.New("timeout")}
	c, logs := newTestComposer(cats, users)

	plan := c.Compose(context.Background(), Request{Term: "react", Scope: Public()})

	clauses := orClauses(t, plan.Filter)
	assert.NotNil(t, inValues(t, clauses, "category"))
	assert.Empty(t, inValues(t, clauses, "category"))
	assert.Empty(t, inValues(t, clauses, "author"))
	assert.Contains(t, logs.String(), "author lookup failed")
}

func TestComposeSortIsChronological(t *testing.T) {
	c, _ := newTestComposer(&fakeCategories{}, &fakeUsers{})

	for _, term := range []string{"", "react"} {
		plan := c.Compose(context.Background(), Request{Term: term, Scope: Public()})
		assert.Equal(t, bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}, plan.Sort)
	}
}

func TestBuildDefaultsAndWindow(t *testing.T) {
	tests := []struct {
		name      string
		req       Request
		wantPage  int
		wantLimit int
		wantSkip  int64
	}{
		{"public defaults", Request{Scope: Public()}, 1, 10, 0},
		{"global defaults", Request{Scope: Global()}, 1, 20, 0},
		{"owned defaults", Request{Scope: OwnedBy(primitive.NewObjectID())}, 1, 20, 0},
		{"negative values default", Request{Scope: Public(), Page: -3, Limit: -1}, 1, 10, 0},
		{"page four of ten", Request{Scope: Public(), Page: 4, Limit: 10}, 4, 10, 30},
		{"custom limit", Request{Scope: Global(), Page: 2, Limit: 5}, 2, 5, 5},
		{"max limit first page", Request{Scope: Public(), Page: 1, Limit: math.MaxInt}, 1, math.MaxInt, 0},
		{"max limit third page clamps", Request{Scope: Public(), Page: 3, Limit: math.MaxInt}, 3, math.MaxInt, math.MaxInt64},
		{"max page clamps", Request{Scope: Public(), Page: math.MaxInt, Limit: 10}, math.MaxInt, 10, math.MaxInt64},
		{"largest exact skip", Request{Scope: Public(), Page: 2, Limit: math.MaxInt}, 2, math.MaxInt, math.MaxInt64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := Build(tt.req, Resolved{})
			assert.Equal(t, tt.wantPage, plan.Page)
			assert.Equal(t, tt.wantLimit, plan.Limit)
			assert.Equal(t, tt.wantSkip, plan.Skip)
		})
	}
}

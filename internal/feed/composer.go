package feed

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrNotFound is returned by finders when nothing matches.
var ErrNotFound = errors.New("not found")

// CategoryFinder resolves categories for feed queries.
type CategoryFinder interface {
	// IDBySlug returns the id of the category with exactly this slug, or ErrNotFound.
	IDBySlug(ctx context.Context, slug string) (primitive.ObjectID, error)
	// IDsByName returns categories whose name equals name ignoring case. A
	// zero owner matches categories of any owner.
	IDsByName(ctx context.Context, name string, owner primitive.ObjectID) ([]primitive.ObjectID, error)
}

// UserFinder resolves note authors for feed queries.
type UserFinder interface {
	// IDsByName returns users whose username or display name equals name ignoring case.
	IDsByName(ctx context.Context, name string) ([]primitive.ObjectID, error)
}

// Composer turns feed requests into query plans. It holds no mutable state
// and may be shared across goroutines.
type Composer struct {
	categories CategoryFinder
	users      UserFinder
	log        *slog.Logger
}

func NewComposer(categories CategoryFinder, users UserFinder, log *slog.Logger) *Composer {
	return &Composer{categories: categories, users: users, log: log}
}

// Compose resolves the lookups req needs and builds its plan. Lookup
// failures count as "no match" and are only logged.
func (c *Composer) Compose(ctx context.Context, req Request) Plan {
	req.Term = strings.TrimSpace(req.Term)
	return Build(req, c.resolve(ctx, req))
}

func (c *Composer) resolve(ctx context.Context, req Request) Resolved {
	var res Resolved

	if req.CategorySlug != "" {
		id, err := c.categories.IDBySlug(ctx, req.CategorySlug)
		if err != nil {
			if !errors.Is(err, ErrNotFound) {
				c.log.Warn("category slug lookup failed", "slug", req.CategorySlug, "error", err)
			}
			res.CategoryMissing = true
		} else {
			res.Category = id
		}
	}

	if req.Term == "" {
		return res
	}

	var owner primitive.ObjectID
	if req.Scope.Kind == ScopeOwned {
		owner = req.Scope.Owner
	}
	ids, err := c.categories.IDsByName(ctx, req.Term, owner)
	if err != nil {
		c.log.Warn("category name lookup failed", "term", req.Term, "error", err)
	}
	res.CategoryIDs = ids

	if req.Scope.matchesAuthors() {
		ids, err := c.users.IDsByName(ctx, req.Term)
		if err != nil {
			c.log.Warn("author lookup failed", "term", req.Term, "error", err)
		}
		res.AuthorIDs = ids
	}

	return res
}

// Build assembles the plan for req from already resolved lookups. It does
// no I/O.
func Build(req Request, res Resolved) Plan {
	page, limit, skip := window(req.Page, req.Limit, req.Scope.DefaultLimit())

	filter := scopeFilter(req.Scope)
	empty := false

	if req.CategorySlug != "" {
		if res.CategoryMissing {
			filter = append(filter, bson.E{Key: "category", Value: bson.D{{Key: "$in", Value: bson.A{}}}})
			empty = true
		} else {
			filter = append(filter, bson.E{Key: "category", Value: res.Category})
		}
	}

	if term := strings.TrimSpace(req.Term); term != "" {
		filter = append(filter, bson.E{Key: "$or", Value: searchClauses(term, req.Scope, res)})
	}

	return Plan{
		Filter: filter,
		Sort:   bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}},
		Page:   page,
		Limit:  limit,
		Skip:   skip,
		Empty:  empty,
	}
}

func scopeFilter(s Scope) bson.D {
	switch s.Kind {
	case ScopeOwned:
		return bson.D{{Key: "author", Value: s.Owner}}
	case ScopeGlobal:
		return bson.D{{Key: "is_global", Value: true}, {Key: "is_published", Value: true}}
	default:
		return bson.D{{Key: "is_published", Value: true}}
	}
}

// searchClauses lists the alternatives any one of which qualifies a note.
// No clause outranks another; the feed order stays chronological.
func searchClauses(term string, s Scope, res Resolved) bson.A {
	word := WholeWord(term)

	clauses := bson.A{
		bson.D{{Key: "title", Value: word}},
		bson.D{{Key: "tags", Value: bson.D{{Key: "$in", Value: bson.A{Exact(term)}}}}},
		bson.D{{Key: "category", Value: bson.D{{Key: "$in", Value: idList(res.CategoryIDs)}}}},
	}
	if s.matchesAuthors() {
		clauses = append(clauses, bson.D{{Key: "author", Value: bson.D{{Key: "$in", Value: idList(res.AuthorIDs)}}}})
	}
	return append(clauses, bson.D{{Key: "content", Value: word}})
}

// idList never returns nil: a nil slice encodes as null, which $in rejects.
func idList(ids []primitive.ObjectID) bson.A {
	out := make(bson.A, 0, len(ids))
	for _, id := range ids {
		out = append(out, id)
	}
	return out
}

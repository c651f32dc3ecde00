package feed

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Default page sizes per feed.
const (
	DefaultPage        = 1
	DefaultPublicLimit = 10
	DefaultGlobalLimit = 20
	DefaultOwnedLimit  = 20
)

// ScopeKind is the visibility boundary of a feed query.
type ScopeKind int

const (
	// ScopePublic covers every published note.
	ScopePublic ScopeKind = iota
	// ScopeOwned covers every note of one author, published or not.
	ScopeOwned
	// ScopeGlobal covers published notes promoted to the global feed.
	ScopeGlobal
)

// Scope selects which notes a query may ever return.
type Scope struct {
	Kind  ScopeKind
	Owner primitive.ObjectID // set for ScopeOwned
}

func Public() Scope { return Scope{Kind: ScopePublic} }

func Global() Scope { return Scope{Kind: ScopeGlobal} }

func OwnedBy(userID primitive.ObjectID) Scope {
	return Scope{Kind: ScopeOwned, Owner: userID}
}

// DefaultLimit is the page size used when the request leaves it unset.
func (s Scope) DefaultLimit() int {
	switch s.Kind {
	case ScopeGlobal:
		return DefaultGlobalLimit
	case ScopeOwned:
		return DefaultOwnedLimit
	default:
		return DefaultPublicLimit
	}
}

// matchesAuthors reports whether a search term may match note authors.
// Owned feeds already pin the author.
func (s Scope) matchesAuthors() bool {
	return s.Kind != ScopeOwned
}

// Request is a feed query as received from a caller.
type Request struct {
	Term         string
	Scope        Scope
	CategorySlug string
	Page         int // <= 0 means DefaultPage
	Limit        int // <= 0 means Scope.DefaultLimit()
}

// Resolved holds the outcome of the lookups a request needs before the
// filter can be assembled.
type Resolved struct {
	// Category is the id the category slug resolved to.
	Category primitive.ObjectID
	// CategoryMissing is set when a slug was given but did not resolve.
	CategoryMissing bool
	// CategoryIDs are categories whose name equals the search term.
	CategoryIDs []primitive.ObjectID
	// AuthorIDs are users whose username or display name equals the search term.
	AuthorIDs []primitive.ObjectID
}

// Plan is a ready-to-run note query: the filter, its ordering and the page
// window. The same Filter is used for the total count.
type Plan struct {
	Filter bson.D
	Sort   bson.D
	Page   int
	Limit  int
	Skip   int64
	// Empty is set when the filter can never match (unresolved category),
	// letting callers skip the round trip.
	Empty bool
}

// Pagination is the page metadata returned alongside a feed page.
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int64 `json:"pages"`
}

package feed

import (
	"regexp"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WholeWord matches term as a whole word anywhere in a field, ignoring case.
// The term is escaped, so "c.t" never matches "cat".
func WholeWord(term string) primitive.Regex {
	return primitive.Regex{Pattern: `\b` + regexp.QuoteMeta(term) + `\b`, Options: "i"}
}

// Exact matches a field (or any array element) equal to term, ignoring case.
// The pattern ends in \z, not $, so "cat\n" is not "cat".
func Exact(term string) primitive.Regex {
	return primitive.Regex{Pattern: `^` + regexp.QuoteMeta(term) + `\z`, Options: "i"}
}

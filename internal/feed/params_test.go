package feed

import (
	"math"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCount(t *testing.T) {
	tests := []struct {
		in   string
		def  int
		want int
	}{
		{"", 10, 10},
		{"3", 10, 3},
		{" 7 ", 10, 7},
		{"+5", 10, 5},
		{"3abc", 10, 3},
		{"abc", 10, 10},
		{"0", 1, 1},
		{"-2", 1, 1},
		{"-", 1, 1},
		{"2.9", 10, 2},
		{"99999999999999999999999", 10, 10},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseCount(tt.in, tt.def), "ParseCount(%q, %d)", tt.in, tt.def)
	}
}

func TestPaginate(t *testing.T) {
	tests := []struct {
		name      string
		total     int64
		limit     int
		wantPages int64
	}{
		{"partial last page", 25, 10, 3},
		{"exact pages", 20, 10, 2},
		{"single short page", 3, 10, 1},
		{"nothing", 0, 10, 0},
		{"limit near max int", 5, math.MaxInt - 1, 1},
		{"limit max int", 5, math.MaxInt, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Plan{Page: 1, Limit: tt.limit}.Paginate(tt.total)
			assert.Equal(t, tt.wantPages, p.Pages)
			assert.Equal(t, tt.total, p.Total)
			assert.Equal(t, tt.limit, p.Limit)
		})
	}
}

func TestHugeCountsFromQueryNeverGoNegative(t *testing.T) {
	limit := ParseCount("9223372036854775806", 0)
	p := Build(Request{Scope: Public(), Page: 1, Limit: limit}, Resolved{}).Paginate(5)
	assert.Equal(t, int64(1), p.Pages)

	page := ParseCount("9223372036854775807", 0)
	plan := Build(Request{Scope: Public(), Page: page}, Resolved{})
	assert.Equal(t, int64(math.MaxInt64), plan.Skip)
	assert.Equal(t, int64(1), plan.Paginate(3).Pages)
}

func TestPageBeyondLastIsEmptyWindow(t *testing.T) {
	plan := Build(Request{Scope: Public(), Page: 4, Limit: 10}, Resolved{})
	p := plan.Paginate(25)

	assert.Equal(t, int64(30), plan.Skip)
	assert.Equal(t, int64(3), p.Pages)
	assert.GreaterOrEqual(t, plan.Skip, p.Total, "page 4 starts past the last of 25 notes")
}

// The store evaluates these patterns with PCRE; RE2 agrees on \b, ^ and \z
// for the ASCII cases checked here.
func compile(t *testing.T, pattern, options string) *regexp.Regexp {
	t.Helper()
	if options == "i" {
		pattern = "(?i)" + pattern
	}
	return regexp.MustCompile(pattern)
}

func TestWholeWord(t *testing.T) {
	tests := []struct {
		term, text string
		want       bool
	}{
		{"cat", "The cat sat", true},
		{"cat", "category theory", false},
		{"cat", "bobcat", false},
		{"cat", "CAT!", true},
		{"react", "Learning React Basics", true},
		{"react", "reactjs tips", false},
		{"c.t", "cat", false},
		{"c.t", "about c.t scans", true},
	}

	for _, tt := range tests {
		re := WholeWord(tt.term)
		assert.Equal(t, tt.want, compile(t, re.Pattern, re.Options).MatchString(tt.text), "%q in %q", tt.term, tt.text)
	}
}

func TestExact(t *testing.T) {
	tests := []struct {
		term, tag string
		want      bool
	}{
		{"cat", "cat", true},
		{"cat", "Cat", true},
		{"cat", "cats", false},
		{"react", "reactjs", false},
		{"a+b", "a+b", true},
		{"a+b", "aab", false},
		{"cat", "cat\n", false},
	}

	for _, tt := range tests {
		re := Exact(tt.term)
		assert.Equal(t, tt.want, compile(t, re.Pattern, re.Options).MatchString(tt.tag), "%q vs tag %q", tt.term, tt.tag)
	}
}

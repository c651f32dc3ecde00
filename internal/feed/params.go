package feed

import (
	"math"
	"strconv"
	"strings"
)

// ParseCount reads a page or limit query parameter. A leading run of digits
// is accepted ("3abc" is 3); empty, non-numeric, zero and negative values
// yield def instead of an error.
func ParseCount(s string, def int) int {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return def
	}

	v, err := strconv.Atoi(s[:end])
	if err != nil || v <= 0 {
		return def
	}
	return v
}

// window applies the defaults and computes the skip for a page. A skip too
// large for int64 is clamped; such a page is past the end of any feed.
func window(page, limit, defLimit int) (int, int, int64) {
	if page <= 0 {
		page = DefaultPage
	}
	if limit <= 0 {
		limit = defLimit
	}
	before := int64(page - 1)
	if before > math.MaxInt64/int64(limit) {
		return page, limit, math.MaxInt64
	}
	return page, limit, before * int64(limit)
}

// Paginate builds the page metadata for a total match count.
func (p Plan) Paginate(total int64) Pagination {
	var pages int64
	if p.Limit > 0 && total > 0 {
		pages = total / int64(p.Limit)
		if total%int64(p.Limit) != 0 {
			pages++
		}
	}
	return Pagination{
		Page:  p.Page,
		Limit: p.Limit,
		Total: total,
		Pages: pages,
	}
}

package utils

import (
	"net/http"
	"strconv"
)

const maxPageSize = 100

type QueryOptions struct {
	Page  int
	Limit int
}

// ParseQueryOptions reads ?page= and ?limit=, defaulting to the first page of
// defaultLimit and capping limit at maxPageSize.
func ParseQueryOptions(r *http.Request, defaultLimit int) QueryOptions {
	q := r.URL.Query()

	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}

	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	return QueryOptions{Page: page, Limit: limit}
}

// Window returns the [start, end) bounds of this page within n items.
func (o QueryOptions) Window(n int) (int, int) {
	start := (o.Page - 1) * o.Limit
	if start > n {
		start = n
	}
	end := start + o.Limit
	if end > n {
		end = n
	}
	return start, end
}

package utils

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseQueryOptions(t *testing.T) {
	cases := map[string]QueryOptions{
		"/api/orders":                    {Page: 1, Limit: 20},
		"/api/orders?page=3&limit=5":     {Page: 3, Limit: 5},
		"/api/orders?page=-1&limit=zero": {Page: 1, Limit: 20},
		"/api/orders?limit=5000":         {Page: 1, Limit: maxPageSize},
	}
	for url, want := range cases {
		got := ParseQueryOptions(httptest.NewRequest("GET", url, nil), 20)
		assert.Equal(t, want, got, url)
	}
}

func TestWindow(t *testing.T) {
	assert.Equal(t, [2]int{0, 5}, pair(QueryOptions{Page: 1, Limit: 5}.Window(12)))
	assert.Equal(t, [2]int{10, 12}, pair(QueryOptions{Page: 3, Limit: 5}.Window(12)))
	assert.Equal(t, [2]int{12, 12}, pair(QueryOptions{Page: 9, Limit: 5}.Window(12)))
	assert.Equal(t, [2]int{0, 0}, pair(QueryOptions{Page: 1, Limit: 5}.Window(0)))
}

func pair(a, b int) [2]int { return [2]int{a, b} }

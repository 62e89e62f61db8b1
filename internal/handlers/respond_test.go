package handlers

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTotalPages(t *testing.T) {
	assert.Equal(t, int64(0), totalPages(0, 10))
	assert.Equal(t, int64(1), totalPages(1, 10))
	assert.Equal(t, int64(1), totalPages(10, 10))
	assert.Equal(t, int64(2), totalPages(11, 10))
	assert.Equal(t, int64(5), totalPages(41, 10))
	assert.Equal(t, int64(0), totalPages(5, 0))
}

func TestParsePaginationDefaults(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/messages/my-messages", nil)
	page, limit := parsePagination(r)
	assert.Equal(t, 1, page)
	assert.Equal(t, 10, limit)
}

func TestParsePagination(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/messages/my-messages?page=3&limit=25", nil)
	page, limit := parsePagination(r)
	assert.Equal(t, 3, page)
	assert.Equal(t, 25, limit)

	// Garbage and non-positive values fall back to defaults
	r = httptest.NewRequest("GET", "/?page=abc&limit=-5", nil)
	page, limit = parsePagination(r)
	assert.Equal(t, 1, page)
	assert.Equal(t, 10, limit)
}

func TestParseDate(t *testing.T) {
	d, err := parseDate("2025-03-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), d)

	_, err = parseDate("2025-03-01T10:30:00Z")
	assert.NoError(t, err)

	_, err = parseDate("not-a-date")
	assert.Error(t, err)

	_, err = parseDate("")
	assert.Error(t, err)
}

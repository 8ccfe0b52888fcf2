// Package utils holds the query and path parsing helpers shared by the
// handlers and services.
package utils

import "strconv"

// DefaultPageSize is used when the caller gives no usable page size.
const DefaultPageSize = 20

// AtoiDefault parses a query value such as ?page=3, falling back to def when
// the value is missing or not an integer.
func AtoiDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

// ParseID parses a positive int64 identifier from a path segment.
func ParseID(s string) (int64, bool) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// Paginate normalizes 1-based page and pageSize and returns the row offset.
// page < 1 becomes 1, pageSize <= 0 becomes DefaultPageSize, and pageSize is
// capped at maxSize when maxSize > 0.
func Paginate(page, pageSize, maxSize int) (int, int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if maxSize > 0 && pageSize > maxSize {
		pageSize = maxSize
	}
	return page, pageSize, (page - 1) * pageSize
}

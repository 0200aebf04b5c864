package repository

import (
	"fmt"
	"strings"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// pageWindow normalises page and size and returns the matching LIMIT/OFFSET clause.
func pageWindow(page, size int) (int, int, string) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > maxPageSize {
		size = defaultPageSize
	}
	return page, size, fmt.Sprintf("LIMIT %d OFFSET %d", size, (page-1)*size)
}

// orderBy resolves a user supplied sort against an allow list.
func orderBy(sortBy, sortOrder string, allowed map[string]string, fallback string) string {
	column, ok := allowed[sortBy]
	if !ok {
		return fallback
	}
	dir := strings.ToUpper(sortOrder)
	if dir != "ASC" && dir != "DESC" {
		dir = "ASC"
	}
	return column + " " + dir
}

// conditions accumulates WHERE fragments with positional args.
type conditions struct {
	clauses []string
	args    []interface{}
}

func (c *conditions) add(format string, value interface{}) {
	c.args = append(c.args, value)
	c.clauses = append(c.clauses, strings.ReplaceAll(format, "?", fmt.Sprintf("$%d", len(c.args))))
}

func (c *conditions) where() string {
	if len(c.clauses) == 0 {
		return ""
	}
	return " AND " + strings.Join(c.clauses, " AND ")
}

func likePattern(search string) string {
	return "%" + strings.ToLower(strings.TrimSpace(search)) + "%"
}

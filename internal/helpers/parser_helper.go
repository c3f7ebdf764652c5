package helpers

import (
	"strconv"
	"strings"
	"time"

	"github.com/farellandr/ticketmart/internal/repository"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

type PageRef struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

type Pagination struct {
	Next  *PageRef `json:"next,omitempty"`
	Prev  *PageRef `json:"prev,omitempty"`
	Page  int      `json:"page"`
	Limit int      `json:"limit"`
	Total int64    `json:"total"`
}

func StringToInt(s string) (int, error) {
	return strconv.Atoi(s)
}

func ParseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	return id, err == nil
}

// ParsePage reads page and limit, falling back to the defaults on missing or
// bad values.
func ParsePage(c *gin.Context) (page, limit int) {
	page, limit = DefaultPage, DefaultLimit
	if p, err := StringToInt(c.Query("page")); err == nil && p > 0 {
		page = p
	}
	if l, err := StringToInt(c.Query("limit")); err == nil && l > 0 {
		limit = min(l, MaxLimit)
	}
	return page, limit
}

func NewPagination(page, limit int, total int64) *Pagination {
	p := &Pagination{Page: page, Limit: limit, Total: total}
	start := (page - 1) * limit
	if int64(page*limit) < total {
		p.Next = &PageRef{Page: page + 1, Limit: limit}
	}
	if start > 0 {
		p.Prev = &PageRef{Page: page - 1, Limit: limit}
	}
	return p
}

// ParseSort reads sort=-date,title into sort fields, dropping unknown names.
func ParseSort(raw string) []repository.SortField {
	var fields []repository.SortField
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		desc := strings.HasPrefix(part, "-")
		name := strings.TrimPrefix(part, "-")
		if name == "" || !repository.IsSortable(name) {
			continue
		}
		fields = append(fields, repository.SortField{Field: name, Desc: desc})
	}
	return fields
}

// ParseDateFilters reads date[gte]=2025-01-01 style bounds. Values may be
// RFC 3339 timestamps or plain dates.
func ParseDateFilters(c *gin.Context) ([]repository.DateFilter, bool) {
	var filters []repository.DateFilter
	for op, raw := range c.QueryMap("date") {
		switch repository.DateOp(op) {
		case repository.DateGT, repository.DateGTE, repository.DateLT, repository.DateLTE:
		default:
			return nil, false
		}
		value, ok := parseTime(raw)
		if !ok {
			return nil, false
		}
		filters = append(filters, repository.DateFilter{Op: repository.DateOp(op), Value: value})
	}
	return filters, true
}

// ParseSelect splits select=title,date into trimmed field names.
func ParseSelect(raw string) []string {
	var fields []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			fields = append(fields, part)
		}
	}
	return fields
}

func parseTime(raw string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

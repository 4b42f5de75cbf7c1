package query

import (
	"math"
	"net/url"
	"strconv"
	"strings"
)

const MaxPageSize = 100

// MaxPageNumber keeps (number-1)*MaxPageSize within int range.
const MaxPageNumber = math.MaxInt32

// Page is a 1-based page window.
type Page struct {
	Number int
	Size   int
}

// NewPage defaults a non-positive number to 1 and a non-positive size to
// defaultSize. Number is capped at MaxPageNumber, size at MaxPageSize.
func NewPage(number, size, defaultSize int) Page {
	if number < 1 {
		number = 1
	}
	if number > MaxPageNumber {
		number = MaxPageNumber
	}
	if size < 1 {
		size = defaultSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return Page{Number: number, Size: size}
}

// PageFromQuery reads page and limit, ignoring values that are not integers.
func PageFromQuery(q url.Values, defaultSize int) Page {
	number, _ := Int(q, "page")
	size, _ := Int(q, "limit")
	return NewPage(number, size, defaultSize)
}

func (p Page) Offset() int { return (p.Number - 1) * p.Size }

func (p Page) Limit() int { return p.Size }

// TotalPages is ceil(total/size), 0 when there is nothing to page.
func (p Page) TotalPages(total int) int {
	if total <= 0 || p.Size <= 0 {
		return 0
	}
	return (total + p.Size - 1) / p.Size
}

// Int parses an optional integer parameter. Missing or malformed values
// report false.
func Int(q url.Values, key string) (int, bool) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}

// String returns the first non-empty trimmed value among keys.
func String(q url.Values, keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(q.Get(k)); v != "" {
			return v
		}
	}
	return ""
}

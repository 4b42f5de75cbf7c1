// Package query holds the conjunctive filter set shared by the list endpoints,
// its SQL compilation, the result-cache key and pagination math.
package query

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Column is a fully qualified SQL column. Columns are fixed by the list
// packages and never taken from request input.
type Column string

type Op string

const (
	Eq  Op = "eq"
	Ne  Op = "ne"
	Lt  Op = "lt"
	Lte Op = "lte"
	Gte Op = "gte"
)

func (o Op) sql() string {
	switch o {
	case Ne:
		return "<>"
	case Lt:
		return "<"
	case Lte:
		return "<="
	case Gte:
		return ">="
	default:
		return "="
	}
}

type nowValue struct{}

func (nowValue) MarshalJSON() ([]byte, error) { return []byte(`"$now"`), nil }

// Now stands for the query time. It is bound in Where, so a key derived
// from a set containing Now stays stable across requests.
var Now any = nowValue{}

type Predicate struct {
	Column Column `json:"field"`
	Op     Op     `json:"op"`
	Value  any    `json:"value"`
}

// Set is an ordered AND of predicates. An empty set matches every row.
type Set []Predicate

func (s *Set) Add(col Column, op Op, v any) {
	*s = append(*s, Predicate{Column: col, Op: op, Value: v})
}

func (s *Set) Eq(col Column, v any) { s.Add(col, Eq, v) }

// Where compiles the set into a WHERE clause with ? placeholders.
// Callers rebind for their driver. Times are bound in UTC.
func (s Set) Where(now time.Time) (string, []any) {
	if len(s) == 0 {
		return "", nil
	}

	clauses := make([]string, 0, len(s))
	args := make([]any, 0, len(s))
	for _, p := range s {
		v := p.Value
		if _, ok := v.(nowValue); ok {
			v = now
		}
		if t, ok := v.(time.Time); ok {
			v = t.UTC()
		}
		clauses = append(clauses, fmt.Sprintf("%s %s ?", p.Column, p.Op.sql()))
		args = append(args, v)
	}
	return "WHERE " + strings.Join(clauses, " AND "), args
}

// Key serializes the set with the page window. Logically equal sets built in
// a different order produce different keys.
func Key(prefix string, s Set, offset, limit int) (string, error) {
	if s == nil {
		s = Set{}
	}
	b, err := json.Marshal(struct {
		Where Set `json:"where"`
		Skip  int `json:"skip"`
		Limit int `json:"limit"`
	}{s, offset, limit})
	if err != nil {
		return "", err
	}
	return prefix + ":" + string(b), nil
}

package tasks

import "buildboard-backend/internal/query"

type ViewCategory string

const (
	ViewCompleted ViewCategory = "COMPLETED"
	ViewOnHold    ViewCategory = "ON_HOLD"
	ViewDelayed   ViewCategory = "DELAYED"
)

func (v ViewCategory) Valid() bool {
	switch v {
	case ViewCompleted, ViewOnHold, ViewDelayed:
		return true
	}
	return false
}

// ResolveView returns the predicates of a named view. DELAYED compares the
// due date against query.Now, which is bound to the query time when the set
// is compiled. An empty or unknown view adds nothing.
func ResolveView(v ViewCategory) []query.Predicate {
	switch v {
	case ViewCompleted:
		return []query.Predicate{{Column: colStatus, Op: query.Eq, Value: StatusDone}}
	case ViewOnHold:
		return []query.Predicate{{Column: colStatus, Op: query.Eq, Value: StatusOnHold}}
	case ViewDelayed:
		return []query.Predicate{
			{Column: colStatus, Op: query.Ne, Value: StatusDone},
			{Column: colDueDate, Op: query.Lt, Value: query.Now},
		}
	}
	return nil
}

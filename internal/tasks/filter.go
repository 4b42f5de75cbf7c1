package tasks

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"buildboard-backend/internal/auth"
	"buildboard-backend/internal/query"
)

const (
	colCreatorID    query.Column = "t.creator_id"
	colProjectID    query.Column = "t.project_id"
	colSubprojectID query.Column = "t.subproject_id"
	colAssignedToID query.Column = "t.assigned_to_id"
	colPriority     query.Column = "t.priority"
	colStatus       query.Column = "t.status"
	colDueDate      query.Column = "t.due_date"
)

// Options are the recognised list filters. Nil and zero values are absent.
// There is deliberately no creator-visibility option: that predicate comes
// from the claims only.
type Options struct {
	ProjectID        *int
	SubprojectID     string
	AssignedTo       *int
	CreatedBy        *int
	Priority         Priority
	Status           Status
	ViewCategory     ViewCategory
	ExcludeCompleted bool
	DueOnOrBefore    *time.Time
}

// ParseOptions reads list filters from the query string. Malformed integers,
// unknown enum values and unparsable dates are treated as absent.
// Dates are read in loc and moved to 23:59:59.999 of that day.
func ParseOptions(q url.Values, loc *time.Location) Options {
	var opts Options

	if n, ok := query.Int(q, "project"); ok {
		opts.ProjectID = &n
	} else if n, ok := query.Int(q, "projectId"); ok {
		opts.ProjectID = &n
	}
	opts.SubprojectID = query.String(q, "subproject", "subprojectId")
	if n, ok := query.Int(q, "assignedTo"); ok {
		opts.AssignedTo = &n
	}
	if n, ok := query.Int(q, "createdBy"); ok {
		opts.CreatedBy = &n
	}

	if p := Priority(strings.TrimSpace(q.Get("priority"))); p.Valid() {
		opts.Priority = p
	}
	if s := Status(strings.TrimSpace(q.Get("status"))); s.Valid() {
		opts.Status = s
	}
	if v := ViewCategory(strings.TrimSpace(q.Get("viewCategory"))); v.Valid() {
		opts.ViewCategory = v
	}

	opts.ExcludeCompleted = true
	if raw := strings.TrimSpace(q.Get("excludeCompleted")); raw != "" {
		if b, err := strconv.ParseBool(raw); err == nil {
			opts.ExcludeCompleted = b
		}
	}

	if raw := strings.TrimSpace(q.Get("date")); raw != "" {
		if day, ok := query.ParseDate(raw, loc); ok {
			end := query.EndOfDay(day)
			opts.DueOnOrBefore = &end
		}
	}

	return opts
}

// BuildPredicates turns options into the ordered predicate set. For callers
// that are not ADMIN the creator filter is always first.
func BuildPredicates(opts Options, claims *auth.Claims) query.Set {
	var set query.Set

	if !claims.IsAdmin() {
		set.Eq(colCreatorID, claims.UserID)
	}

	if opts.ProjectID != nil {
		set.Eq(colProjectID, *opts.ProjectID)
	}
	if opts.SubprojectID != "" {
		set.Eq(colSubprojectID, opts.SubprojectID)
	}
	if opts.AssignedTo != nil {
		set.Eq(colAssignedToID, *opts.AssignedTo)
	}
	if opts.CreatedBy != nil {
		set.Eq(colCreatorID, *opts.CreatedBy)
	}
	if opts.Priority != "" {
		set.Eq(colPriority, opts.Priority)
	}

	// a view replaces the default active-tasks view
	if opts.ViewCategory == "" && opts.ExcludeCompleted {
		set.Add(colStatus, query.Ne, StatusDone)
	}
	if opts.Status != "" {
		set.Eq(colStatus, opts.Status)
	}
	set = append(set, ResolveView(opts.ViewCategory)...)

	if opts.DueOnOrBefore != nil {
		set.Add(colDueDate, query.Lte, *opts.DueOnOrBefore)
	}

	return set
}

package costs

import (
	"net/url"
	"time"

	"buildboard-backend/internal/apperr"
	"buildboard-backend/internal/query"
)

const (
	colItemProjectID    query.Column = "ci.project_id"
	colItemSubprojectID query.Column = "ci.subproject_id"

	colReportProjectID    query.Column = "r.project_id"
	colReportSubprojectID query.Column = "r.subproject_id"
	colReportUploadedBy   query.Column = "r.uploaded_by_id"
	colReportUploadedAt   query.Column = "r.uploaded_at"
)

// ItemPredicates filters the cost board. Malformed projectId is ignored.
func ItemPredicates(q url.Values) query.Set {
	var set query.Set
	if n, ok := query.Int(q, "projectId"); ok {
		set.Eq(colItemProjectID, n)
	}
	if sp := query.String(q, "subprojectId"); sp != "" {
		set.Eq(colItemSubprojectID, sp)
	}
	return set
}

// ReportPredicates requires projectId and subprojectId. uploadedBy, fromDate
// and toDate are optional and ignored when malformed; the date bounds cover
// whole days in loc.
func ReportPredicates(q url.Values, loc *time.Location) (query.Set, error) {
	projectID, ok := query.Int(q, "projectId")
	subprojectID := query.String(q, "subprojectId")
	if !ok || subprojectID == "" {
		return nil, apperr.InvalidInput("projectId and subprojectId are required")
	}

	var set query.Set
	set.Eq(colReportProjectID, projectID)
	set.Eq(colReportSubprojectID, subprojectID)

	if n, ok := query.Int(q, "uploadedBy"); ok {
		set.Eq(colReportUploadedBy, n)
	}
	if raw := query.String(q, "fromDate"); raw != "" {
		if d, ok := query.ParseDate(raw, loc); ok {
			set.Add(colReportUploadedAt, query.Gte, query.StartOfDay(d))
		}
	}
	if raw := query.String(q, "toDate"); raw != "" {
		if d, ok := query.ParseDate(raw, loc); ok {
			set.Add(colReportUploadedAt, query.Lte, query.EndOfDay(d))
		}
	}
	return set, nil
}

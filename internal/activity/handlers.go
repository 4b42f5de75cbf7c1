package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"buildboard-backend/internal/apperr"
	"buildboard-backend/internal/httpx"
	"buildboard-backend/internal/query"
)

// Events the web client may report itself. Server-side events are recorded
// by the handlers that perform the write.
const (
	EventAppOpened        = "app_opened"
	EventTaskBoardViewed  = "task_board_viewed"
	EventCostReportOpened = "cost_report_opened"
)

var clientEvents = map[string]bool{
	EventAppOpened:        true,
	EventTaskBoardViewed:  true,
	EventCostReportOpened: true,
}

type Event struct {
	ID         int             `db:"id" json:"id"`
	Name       string          `db:"event_name" json:"event"`
	Time       time.Time       `db:"event_time" json:"time"`
	UserID     int             `db:"user_id" json:"userId"`
	Platform   string          `db:"platform" json:"platform"`
	AppVersion string          `db:"app_version" json:"appVersion"`
	Properties json.RawMessage `db:"-" json:"properties"`

	// TEXT on sqlite, JSONB on postgres; both scan into a string.
	RawProperties string `db:"properties" json:"-"`
}

// Recent returns the newest events first.
func (rec *Recorder) Recent(ctx context.Context, p query.Page) ([]Event, error) {
	rows := []Event{}
	err := rec.db.SelectContext(ctx, &rows, rec.db.Rebind(`
		SELECT id, event_name, event_time, user_id, platform, app_version, properties
		FROM activity_events
		ORDER BY event_time DESC, id DESC
		LIMIT ? OFFSET ?
	`), p.Limit(), p.Offset())
	if err != nil {
		return nil, apperr.Storage(fmt.Errorf("list activity: %w", err))
	}
	for i := range rows {
		rows[i].Properties = json.RawMessage(rows[i].RawProperties)
	}
	return rows, nil
}

type Handler struct {
	rec *Recorder
	log *logrus.Entry
}

func NewHandler(rec *Recorder, log *logrus.Entry) *Handler {
	return &Handler{rec: rec, log: log}
}

// Report: POST /api/activity
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	log := h.log.WithField("operation", "activity.Handler.Report")

	uid, ok := UserIDFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, log, apperr.Unauthenticated("unauthorized"))
		return
	}

	var body struct {
		Event      string         `json:"event"`
		Properties map[string]any `json:"properties"`
	}
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.WriteError(w, log, err)
		return
	}
	name := strings.TrimSpace(body.Event)
	if !clientEvents[name] {
		httpx.WriteError(w, log, apperr.InvalidInput("unknown event"))
		return
	}

	h.rec.Record(r, uid, name, body.Properties)
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// Recent: GET /api/activity?page&limit. Mounted behind the admin gate.
func (h *Handler) Recent(w http.ResponseWriter, r *http.Request) {
	events, err := h.rec.Recent(r.Context(), query.PageFromQuery(r.URL.Query(), 50))
	if err != nil {
		httpx.WriteError(w, h.log.WithField("operation", "activity.Handler.Recent"), err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, events)
}

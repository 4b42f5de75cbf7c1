// Package activity records best-effort audit events for writes and logins.
package activity

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

type ctxKey string

const ctxUserIDKey ctxKey = "activity_user_id"

const (
	EventLogin           = "login"
	EventTaskCreated     = "task_created"
	EventTaskUpdated     = "task_updated"
	EventCostItemCreated = "cost_item_created"
)

// Envelope is what we store with every event.
type Envelope struct {
	UserID     int
	SessionID  string
	Platform   string
	AppVersion string
}

// FromRequest extracts event envelope fields from request headers.
func FromRequest(r *http.Request) Envelope {
	platform := strings.ToLower(strings.TrimSpace(r.Header.Get("X-Platform")))
	switch platform {
	case "ios", "android", "web":
	default:
		platform = "unknown"
	}

	return Envelope{
		SessionID:  strings.TrimSpace(r.Header.Get("X-Session-Id")),
		Platform:   platform,
		AppVersion: strings.TrimSpace(r.Header.Get("X-App-Version")),
	}
}

func WithUserID(ctx context.Context, userID int) context.Context {
	return context.WithValue(ctx, ctxUserIDKey, userID)
}

func UserIDFromContext(ctx context.Context) (int, bool) {
	uid, ok := ctx.Value(ctxUserIDKey).(int)
	return uid, ok
}

// SourceEventKeyFromRequest returns the client idempotency key, if any.
// Duplicated keys are ignored on insert.
func SourceEventKeyFromRequest(r *http.Request) string {
	if k := strings.TrimSpace(r.Header.Get("Idempotency-Key")); k != "" {
		return k
	}
	return strings.TrimSpace(r.Header.Get("X-Source-Event-Key"))
}

type Recorder struct {
	db  *sqlx.DB
	log *logrus.Entry
	now func() time.Time
}

func NewRecorder(db *sqlx.DB, log *logrus.Entry) *Recorder {
	return &Recorder{db: db, log: log, now: time.Now}
}

// Record logs one event for the request's user. Failures are logged and
// swallowed; callers pass sanitized props only.
func (rec *Recorder) Record(r *http.Request, userID int, eventName string, props map[string]any) {
	if rec == nil {
		return
	}
	env := FromRequest(r)
	env.UserID = userID
	if err := rec.Log(r.Context(), env, eventName, props, SourceEventKeyFromRequest(r)); err != nil {
		rec.log.WithField("operation", "activity.Recorder.Record").
			WithField("event", eventName).
			WithError(err).Warn("activity event dropped")
	}
}

// Log inserts one event. Events without a user are skipped.
func (rec *Recorder) Log(ctx context.Context, env Envelope, eventName string, props map[string]any, sourceEventKey string) error {
	if eventName == "" {
		return nil
	}

	userID := env.UserID
	if userID == 0 {
		uid, ok := UserIDFromContext(ctx)
		if !ok {
			return nil
		}
		userID = uid
	}

	if props == nil {
		props = map[string]any{}
	}
	b, err := json.Marshal(props)
	if err != nil {
		return err
	}

	// ON CONFLICT DO NOTHING is shared syntax between Postgres and SQLite
	_, err = rec.db.ExecContext(ctx, rec.db.Rebind(`
		INSERT INTO activity_events (
			event_name, event_time,
			user_id, session_id,
			platform, app_version,
			source_event_key,
			properties
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (source_event_key) DO NOTHING
	`), eventName, rec.now().UTC(),
		userID, nullIfEmpty(env.SessionID),
		env.Platform, env.AppVersion,
		nullIfEmpty(sourceEventKey),
		string(b),
	)
	return err
}

func nullIfEmpty(s string) sql.NullString {
	if strings.TrimSpace(s) == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}

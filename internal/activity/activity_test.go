package activity

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"buildboard-backend/internal/db"
	"buildboard-backend/internal/query"
)

func newTestRecorder(t *testing.T) *Recorder {
	t.Helper()
	ctx := context.Background()
	dbx, err := db.Open(ctx, "sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = dbx.Close() })
	require.NoError(t, db.Migrate(ctx, dbx))
	return NewRecorder(dbx, logrus.NewEntry(logrus.New()))
}

func TestFromRequestNormalizesPlatform(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("X-Platform", "Web")
	r.Header.Set("X-Session-Id", " abc ")
	env := FromRequest(r)
	assert.Equal(t, "web", env.Platform)
	assert.Equal(t, "abc", env.SessionID)

	r.Header.Set("X-Platform", "fridge")
	assert.Equal(t, "unknown", FromRequest(r).Platform)
}

func TestRecordDeduplicatesIdempotencyKey(t *testing.T) {
	rec := newTestRecorder(t)

	r := httptest.NewRequest("POST", "/api/tasks/create", nil)
	r.Header.Set("Idempotency-Key", "evt-1")

	rec.Record(r, 7, EventTaskCreated, map[string]any{"task_id": "t1"})
	rec.Record(r, 7, EventTaskCreated, map[string]any{"task_id": "t1"})

	var n int
	require.NoError(t, rec.db.Get(&n, "SELECT COUNT(*) FROM activity_events"))
	assert.Equal(t, 1, n)
}

func TestLogSkipsAnonymousEvents(t *testing.T) {
	rec := newTestRecorder(t)

	require.NoError(t, rec.Log(context.Background(), Envelope{}, EventLogin, nil, ""))

	ctx := WithUserID(context.Background(), 3)
	require.NoError(t, rec.Log(ctx, Envelope{}, EventLogin, nil, ""))

	var users []int
	require.NoError(t, rec.db.Select(&users, "SELECT user_id FROM activity_events"))
	assert.Equal(t, []int{3}, users)
}

func TestReportClientEvent(t *testing.T) {
	rec := newTestRecorder(t)
	h := NewHandler(rec, logrus.NewEntry(logrus.New()))

	post := func(ctx context.Context, body string) int {
		r := httptest.NewRequest("POST", "/api/activity", strings.NewReader(body)).WithContext(ctx)
		w := httptest.NewRecorder()
		h.Report(w, r)
		return w.Code
	}

	assert.Equal(t, 401, post(context.Background(), `{"event":"app_opened"}`))

	ctx := WithUserID(context.Background(), 4)
	assert.Equal(t, 400, post(ctx, `{"event":"task_created"}`))
	assert.Equal(t, 200, post(ctx, `{"event":"task_board_viewed","properties":{"view":"DELAYED"}}`))

	events, err := rec.Recent(context.Background(), query.NewPage(1, 10, 10))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, EventTaskBoardViewed, events[0].Name)
	assert.Equal(t, 4, events[0].UserID)
	assert.JSONEq(t, `{"view":"DELAYED"}`, string(events[0].Properties))
}

package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"buildboard-backend/internal/apperr"
)

func TestWriteErrorStatuses(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{apperr.Unauthenticated("missing token"), http.StatusUnauthorized, "unauthenticated"},
		{apperr.Forbidden("admins only"), http.StatusForbidden, "forbidden"},
		{apperr.NotFound("task not found"), http.StatusNotFound, "not_found"},
		{apperr.InvalidInput("title is required"), http.StatusBadRequest, "invalid_input"},
		{apperr.Conflict("category in use"), http.StatusConflict, "conflict"},
		{errors.New("connection refused"), http.StatusInternalServerError, "storage_failure"},
	}

	for _, tc := range cases {
		rec := httptest.NewRecorder()
		WriteError(rec, nil, tc.err)

		assert.Equal(t, tc.status, rec.Code)
		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, tc.code, body["error"])
	}
}

func TestWriteErrorDoesNotLeakStorageDetail(t *testing.T) {
	logger, hook := test.NewNullLogger()
	rec := httptest.NewRecorder()

	WriteError(rec, logrus.NewEntry(logger), apperr.Storage(errors.New("pq: password authentication failed")))

	assert.NotContains(t, rec.Body.String(), "pq:")
	require.Len(t, hook.Entries, 1)
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
}

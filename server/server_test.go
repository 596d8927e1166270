package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticMarks map[string]time.Time

func (m staticMarks) Watermarks(context.Context) (map[string]time.Time, error) {
	return m, nil
}

func TestHealthz(t *testing.T) {
	srv := New(":0", staticMarks{})
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestProgress(t *testing.T) {
	marks := staticMarks{
		"register": time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC),
		"page_fix": time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC),
	}
	srv := New(":0", marks)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/progress", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var out map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "2024-03-05", out["register"])
	assert.Equal(t, "2024-02-01", out["page_fix"])
}

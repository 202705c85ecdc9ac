package httpserver

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dmitrijs2005/studymatch/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestLogger_TagsRequestAndUser(t *testing.T) {
	var buf bytes.Buffer
	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(&buf, nil)))

	var inner string
	h := requestLogger(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := withUserID(r.Context(), "u-1")
		log.Info(ctx, "handled")
		inner = buf.String()
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/me", nil))

	requestID := rec.Header().Get(requestIDHeader)
	require.NotEmpty(t, requestID)
	assert.Equal(t, http.StatusTeapot, rec.Code)

	assert.Contains(t, inner, "msg=handled")
	assert.Contains(t, inner, "request_id="+requestID)
	assert.Contains(t, inner, "user_id=u-1")

	out := buf.String()
	assert.Contains(t, out, "msg=request")
	assert.Contains(t, out, "status=418")
	assert.Contains(t, out, "path=/api/me")
}

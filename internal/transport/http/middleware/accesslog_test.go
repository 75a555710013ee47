package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alokemajumder/rrweb-server/internal/logger"
)

func TestAccessLog(t *testing.T) {
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("LOG_LEVEL", "debug")

	tests := []struct {
		name      string
		status    int
		wantLevel string
	}{
		{"ok_is_info", http.StatusOK, "info"},
		{"forbidden_is_warn", http.StatusForbidden, "warn"},
		{"server_error_is_error", http.StatusInternalServerError, "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger.InitWithWriter(&buf)

			h := RequestID(AccessLog(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte("hello"))
			})))
			h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/upload-session", nil))

			var line map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
			assert.Equal(t, tt.wantLevel, line["level"])
			assert.Equal(t, "http_request", line["message"])
			assert.Equal(t, "/upload-session", line["path"])
			assert.Equal(t, float64(tt.status), line["status"])
			assert.Equal(t, float64(5), line["bytes"])
			assert.NotEmpty(t, line["request_id"])
		})
	}
}

func TestStatusWriter_DefaultsToOK(t *testing.T) {
	sw := &statusWriter{ResponseWriter: httptest.NewRecorder()}
	_, _ = sw.Write([]byte("x"))
	sw.WriteHeader(http.StatusTeapot)
	assert.Equal(t, http.StatusOK, sw.status)
}

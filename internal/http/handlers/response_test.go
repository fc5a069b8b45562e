package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-entries-backend/internal/http/middleware"
)

// loggedRouter runs the production request-id and access-log middleware with
// the global logger writing into the returned buffer.
func loggedRouter(t *testing.T) (*gin.Engine, *bytes.Buffer) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.AccessLog(middleware.RedactOptions{}))
	return r, &buf
}

// apiErrorLines returns the decoded "api error" log lines in buf.
func apiErrorLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("log line %q: %v", line, err)
		}
		if m["message"] == "api error" {
			out = append(out, m)
		}
	}
	return out
}

func TestFail_ServerErrorLoggedWithCause(t *testing.T) {
	r, buf := loggedRouter(t)
	r.POST("/entries", func(c *gin.Context) {
		_ = c.Error(errors.New("disk I/O error"))
		fail(c, http.StatusInternalServerError, MsgInternal)
	})

	req := httptest.NewRequest(http.MethodPost, "/entries", nil)
	req.Header.Set(middleware.HeaderRequestID, "rid-500")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	if want := "{\n  \"error\": \"Internal server error.\"\n}"; w.Body.String() != want {
		t.Fatalf("body = %q; want %q", w.Body.String(), want)
	}
	if ct := w.Header().Get("Content-Type"); ct != contentTypeJSON {
		t.Fatalf("content-type = %q", ct)
	}

	lines := apiErrorLines(t, buf)
	if len(lines) != 1 {
		t.Fatalf("api error lines = %d; log:\n%s", len(lines), buf.String())
	}
	got := lines[0]
	if got["level"] != "error" || got["error"] != "disk I/O error" || got["request_id"] != "rid-500" {
		t.Fatalf("api error line = %v", got)
	}
	if got["status"] != float64(http.StatusInternalServerError) {
		t.Fatalf("status field = %v", got["status"])
	}
}

func TestFail_ClientErrorsNotLoggedAsAPIErrors(t *testing.T) {
	r, buf := loggedRouter(t)
	r.DELETE("/entries/:id", func(c *gin.Context) {
		Fail(c, http.StatusNotFound, MsgEntryNotFound)
	})
	r.POST("/entries", func(c *gin.Context) {
		fail(c, http.StatusTooManyRequests, middleware.RateLimitedMessage)
	})

	for _, tc := range []struct {
		method, path string
		code         int
	}{
		{http.MethodDelete, "/entries/7", http.StatusNotFound},
		{http.MethodPost, "/entries", http.StatusTooManyRequests},
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(tc.method, tc.path, nil))
		if w.Code != tc.code {
			t.Fatalf("%s %s: status = %d; want %d", tc.method, tc.path, w.Code, tc.code)
		}
		var env ErrorResponse
		if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil || env.Error == "" {
			t.Fatalf("%s %s: envelope %q (%v)", tc.method, tc.path, w.Body.String(), err)
		}
	}
	if lines := apiErrorLines(t, buf); len(lines) != 0 {
		t.Fatalf("4xx produced api error lines: %v", lines)
	}
}

func TestSuccessWriters(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.DELETE("/entries/:id", func(c *gin.Context) { ok(c, http.StatusOK, DeleteResponse{OK: true, ID: 3}) })
	r.OPTIONS("/entries", func(c *gin.Context) { noContent(c) })
	r.PUT("/entries", func(c *gin.Context) { PlainText(c, http.StatusMethodNotAllowed, MsgMethodNotAllowed) })

	cases := []struct {
		method, path string
		code         int
		body         string
		ctPrefix     string
	}{
		{http.MethodDelete, "/entries/3", http.StatusOK, "{\n  \"ok\": true,\n  \"id\": 3\n}", contentTypeJSON},
		{http.MethodOptions, "/entries", http.StatusNoContent, "", ""},
		{http.MethodPut, "/entries", http.StatusMethodNotAllowed, "Method Not Allowed", "text/plain"},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(tc.method, tc.path, nil))
		if w.Code != tc.code || w.Body.String() != tc.body {
			t.Errorf("%s %s = %d %q; want %d %q", tc.method, tc.path, w.Code, w.Body.String(), tc.code, tc.body)
		}
		if tc.ctPrefix != "" && !strings.HasPrefix(w.Header().Get("Content-Type"), tc.ctPrefix) {
			t.Errorf("%s %s content-type = %q", tc.method, tc.path, w.Header().Get("Content-Type"))
		}
	}
}

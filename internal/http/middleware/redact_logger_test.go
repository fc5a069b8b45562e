package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestAccessLog_InfoAndRedactions(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogger(t)

	r := gin.New()
	r.Use(RequestID())
	r.Use(AccessLog(RedactOptions{MaskHeaders: []string{"X-Api-Key"}}))
	r.DELETE("/entries/:id", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	q := "email=a.b+tag@example.com&phone=+1-555-123-4567&trace=123e4567-e89b-12d3-a456-426614174000"
	req := httptest.NewRequest(http.MethodDelete, "/entries/7?"+q, nil)
	req.Header.Set("Authorization", "Bearer secret")
	req.Header.Set("Cookie", "sid=topsecret")
	req.Header.Set("X-Api-Key", "shhh")
	req.Header.Set("X-Custom", "email a@b.com id=123e4567-e89b-12d3-a456-426614174000 phone 555-123-4567")
	req.Header.Set("X-Request-ID", "rid-req")
	req.Header.Set(HeaderForwardedFor, "198.51.100.4, 10.0.0.1")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	logs := buf.String()
	for _, want := range []string{
		`"level":"info"`,
		`"path":"/entries/:id"`,
		`"request_id":"rid-req"`,
		`"client":"198.51.100.4"`,
		`"message":"http_request"`,
		`[REDACTED:email]`,
		`[REDACTED:phone]`,
		`[REDACTED:id]`,
		`"Authorization":"[REDACTED]"`,
		`"Cookie":"[REDACTED]"`,
		`"X-Api-Key":"[REDACTED]"`,
		`"X-Custom":"email [REDACTED:email] id=[REDACTED:id] phone [REDACTED:phone]"`,
	} {
		if !strings.Contains(logs, want) {
			t.Fatalf("missing %s in log:\n%s", want, logs)
		}
	}
	if strings.Contains(logs, "topsecret") || strings.Contains(logs, "example.com") {
		t.Fatalf("sensitive value leaked:\n%s", logs)
	}
}

func TestAccessLog_WarnAndErrorLevels(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogger(t)

	r := gin.New()
	r.Use(RequestID())
	r.Use(AccessLog(RedactOptions{}))
	r.GET("/error", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	reqWarn := httptest.NewRequest(http.MethodGet, "/missing", nil)
	reqWarn.Header.Set("X-Request-ID", "rid-warn")
	r.ServeHTTP(httptest.NewRecorder(), reqWarn)

	reqErr := httptest.NewRequest(http.MethodGet, "/error", nil)
	reqErr.Header.Set("X-Request-ID", "rid-err")
	r.ServeHTTP(httptest.NewRecorder(), reqErr)

	logs := buf.String()
	if !strings.Contains(logs, `"level":"warn"`) || !strings.Contains(logs, `"path":"/missing"`) {
		t.Fatalf("warn log with raw path not found: %s", logs)
	}
	if !strings.Contains(logs, `"level":"error"`) || !strings.Contains(logs, `"request_id":"rid-err"`) {
		t.Fatalf("error log not found: %s", logs)
	}
}

func TestRedact(t *testing.T) {
	if redact("") != "" {
		t.Fatalf("empty input should stay empty")
	}
	if got := redact("call +44 20 7946 0958"); strings.Contains(got, "7946") {
		t.Fatalf("phone not redacted: %q", got)
	}
	if got := redact("plain text"); got != "plain text" {
		t.Fatalf("unexpected change: %q", got)
	}
}

func TestTruncate(t *testing.T) {
	long := strings.Repeat("q", maxQueryLogLength+10)
	if got := truncate(long, maxQueryLogLength); len(got) != maxQueryLogLength+len("…") {
		t.Fatalf("truncated length = %d", len(got))
	}
	if got := truncate("age=42", maxQueryLogLength); got != "age=42" {
		t.Fatalf("short query changed: %q", got)
	}
	if got := truncate("abc", 0); got != "abc" {
		t.Fatalf("max 0 must disable truncation, got %q", got)
	}
}

func TestHeaderMask_ExtraNamesCaseInsensitive(t *testing.T) {
	m := newHeaderMask([]string{" X-Forwarded-For ", "", "cf-connecting-ip"})
	h := http.Header{}
	h.Set("X-Forwarded-For", "198.51.100.4")
	h.Set("Cf-Connecting-Ip", "198.51.100.5")
	h.Set("Set-Cookie", "sid=1")
	h.Set("Content-Type", "application/json")

	got := m.scrub(h)
	for _, k := range []string{"X-Forwarded-For", "Cf-Connecting-Ip", "Set-Cookie"} {
		if got[k] != redactedValue {
			t.Errorf("%s = %q; want masked", k, got[k])
		}
	}
	if got["Content-Type"] != "application/json" {
		t.Errorf("Content-Type = %q", got["Content-Type"])
	}
}

func TestAccessLog_GinErrorLogsAtErrorLevel(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogger(t)

	r := gin.New()
	r.Use(AccessLog(RedactOptions{}))
	r.GET("/entries", func(c *gin.Context) {
		_ = c.Error(errors.New("version lookup failed"))
		c.String(http.StatusOK, "[]")
	})
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/entries", nil))

	logs := buf.String()
	if !strings.Contains(logs, `"level":"error"`) || !strings.Contains(logs, "version lookup failed") {
		t.Fatalf("expected error-level line carrying the gin error: %s", logs)
	}
	if !strings.Contains(logs, `"status":200`) {
		t.Fatalf("status not logged: %s", logs)
	}
}

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-entries-backend/internal/domain"
	"github.com/tbourn/go-entries-backend/internal/services"
)

// ---------- stub service ----------

type stubEntrySvc struct {
	entries    []domain.Entry
	listErr    error
	createErr  error
	deleteErr  error
	version    string
	versionErr error

	created   *domain.EntryInput
	deletedID int64
}

func (s *stubEntrySvc) List(context.Context) ([]domain.Entry, error) {
	return s.entries, s.listErr
}

func (s *stubEntrySvc) Create(_ context.Context, in domain.EntryInput) (*domain.Entry, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.created = &in
	return &domain.Entry{
		ID: 9, FirstName: in.FirstName, LastName: in.LastName, Age: in.Age,
		Sex: in.Sex, Nationality: in.Nationality, Phone: in.Phone,
		CreatedAt: "2025-01-02T03:04:05.000Z",
	}, nil
}

func (s *stubEntrySvc) Delete(_ context.Context, id int64) error {
	s.deletedID = id
	return s.deleteErr
}

func (s *stubEntrySvc) Version(context.Context) (string, error) {
	return s.version, s.versionErr
}

func newEntriesRouter(svc EntryService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := New(svc)
	r := gin.New()
	r.GET("/entries", h.ListEntries)
	r.POST("/entries", h.CreateEntry)
	r.OPTIONS("/entries", h.Preflight)
	r.DELETE("/entries/:id", h.DeleteEntry)
	return r
}

func do(r http.Handler, method, path, body string, hdr map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var er ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &er); err != nil {
		t.Fatalf("error body not JSON: %v (%q)", err, w.Body.String())
	}
	return er.Error
}

const validBody = `{"firstName":" Ada ","lastName":"Lovelace","age":36,"sex":"female","nationality":"British","phone":" 555 "}`

// ---------- list ----------

func TestListEntries_OK_IndentedArray(t *testing.T) {
	svc := &stubEntrySvc{
		entries: []domain.Entry{{ID: 2, FirstName: "B"}, {ID: 1, FirstName: "A"}},
		version: `W/"entries:2:2:500"`,
	}
	w := do(newEntriesRouter(svc), http.MethodGet, "/entries", "", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if !strings.HasPrefix(w.Body.String(), "[\n  {\n    \"id\": 2,") {
		t.Fatalf("expected two-space indented array, got %q", w.Body.String())
	}
	if w.Header().Get("ETag") != svc.version {
		t.Fatalf("ETag=%q", w.Header().Get("ETag"))
	}
	var got []domain.Entry
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil || len(got) != 2 || got[0].ID != 2 {
		t.Fatalf("unexpected list: %v %+v", err, got)
	}
}

func TestListEntries_EmptyIsArray(t *testing.T) {
	w := do(newEntriesRouter(&stubEntrySvc{}), http.MethodGet, "/entries", "", nil)
	if w.Code != http.StatusOK || w.Body.String() != "[]" {
		t.Fatalf("got %d %q", w.Code, w.Body.String())
	}
}

func TestListEntries_NotModified(t *testing.T) {
	svc := &stubEntrySvc{version: `W/"entries:1:1:500"`, listErr: errors.New("must not be called")}
	w := do(newEntriesRouter(svc), http.MethodGet, "/entries", "", map[string]string{"If-None-Match": svc.version})
	if w.Code != http.StatusNotModified || w.Body.Len() != 0 {
		t.Fatalf("got %d %q", w.Code, w.Body.String())
	}
}

func TestListEntries_VersionErrorStillLists(t *testing.T) {
	svc := &stubEntrySvc{versionErr: errors.New("stats"), entries: []domain.Entry{{ID: 1}}}
	w := do(newEntriesRouter(svc), http.MethodGet, "/entries", "", nil)
	if w.Code != http.StatusOK || w.Header().Get("ETag") != "" {
		t.Fatalf("got %d etag=%q", w.Code, w.Header().Get("ETag"))
	}
}

func TestListEntries_StorageError(t *testing.T) {
	w := do(newEntriesRouter(&stubEntrySvc{listErr: errors.New("boom")}), http.MethodGet, "/entries", "", nil)
	if w.Code != http.StatusInternalServerError || errorOf(t, w) != MsgInternal {
		t.Fatalf("got %d %q", w.Code, w.Body.String())
	}
}

// ---------- create ----------

func TestCreateEntry_Created(t *testing.T) {
	svc := &stubEntrySvc{}
	w := do(newEntriesRouter(svc), http.MethodPost, "/entries", validBody, nil)

	if w.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if svc.created == nil || svc.created.FirstName != "Ada" || svc.created.Phone != "555" || svc.created.Age != 36 {
		t.Fatalf("service got %+v", svc.created)
	}
	var e domain.Entry
	if err := json.Unmarshal(w.Body.Bytes(), &e); err != nil {
		t.Fatalf("json: %v", err)
	}
	if e.ID != 9 || e.FirstName != "Ada" || e.CreatedAt == "" {
		t.Fatalf("unexpected entry %+v", e)
	}
}

func TestCreateEntry_BadRequests(t *testing.T) {
	cases := []struct {
		name, body, msg string
	}{
		{"malformed", `{"firstName":`, MsgInvalidJSON},
		{"empty body", ``, MsgInvalidJSON},
		{"null", `null`, domain.MsgInvalidPayload},
		{"array", `[1,2]`, domain.MsgInvalidPayload},
		{"missing first field", `{"lastName":"L"}`, "Missing field: firstName"},
		{"blank phone", `{"firstName":"A","lastName":"B","age":1,"sex":"m","nationality":"N","phone":"   "}`, "Missing field: phone"},
		{"age too high", `{"firstName":"A","lastName":"B","age":131,"sex":"m","nationality":"N","phone":"1"}`, domain.MsgAgeOutOfRange},
		{"age not numeric", `{"firstName":"A","lastName":"B","age":"old","sex":"m","nationality":"N","phone":"1"}`, domain.MsgAgeOutOfRange},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &stubEntrySvc{}
			w := do(newEntriesRouter(svc), http.MethodPost, "/entries", tc.body, nil)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status=%d", w.Code)
			}
			if got := errorOf(t, w); got != tc.msg {
				t.Fatalf("error=%q want %q", got, tc.msg)
			}
			if svc.created != nil {
				t.Fatalf("invalid payload must not be persisted")
			}
		})
	}
}

func TestCreateEntry_StorageError(t *testing.T) {
	w := do(newEntriesRouter(&stubEntrySvc{createErr: errors.New("disk full")}), http.MethodPost, "/entries", validBody, nil)
	if w.Code != http.StatusInternalServerError || errorOf(t, w) != MsgInternal {
		t.Fatalf("got %d %q", w.Code, w.Body.String())
	}
}

// ---------- delete ----------

func TestDeleteEntry(t *testing.T) {
	cases := []struct {
		name   string
		path   string
		err    error
		code   int
		wantID int64
	}{
		{"ok", "/entries/7", nil, http.StatusOK, 7},
		{"integral float", "/entries/7.0", nil, http.StatusOK, 7},
		{"not found", "/entries/8", services.ErrEntryNotFound, http.StatusNotFound, 8},
		{"zero", "/entries/0", nil, http.StatusBadRequest, 0},
		{"negative", "/entries/-3", nil, http.StatusBadRequest, 0},
		{"fraction", "/entries/1.5", nil, http.StatusBadRequest, 0},
		{"word", "/entries/abc", nil, http.StatusBadRequest, 0},
		{"integral beyond int64", "/entries/1e300", nil, http.StatusNotFound, 0},
		{"storage", "/entries/4", errors.New("locked"), http.StatusInternalServerError, 4},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &stubEntrySvc{deleteErr: tc.err}
			w := do(newEntriesRouter(svc), http.MethodDelete, tc.path, "", nil)
			if w.Code != tc.code {
				t.Fatalf("status=%d want %d (%s)", w.Code, tc.code, w.Body.String())
			}
			if svc.deletedID != tc.wantID {
				t.Fatalf("service saw id %d want %d", svc.deletedID, tc.wantID)
			}
			switch tc.code {
			case http.StatusOK:
				var resp DeleteResponse
				if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || !resp.OK || resp.ID != tc.wantID {
					t.Fatalf("unexpected body %q", w.Body.String())
				}
			case http.StatusBadRequest:
				if errorOf(t, w) != MsgInvalidID {
					t.Fatalf("unexpected body %q", w.Body.String())
				}
			case http.StatusNotFound:
				if errorOf(t, w) != MsgEntryNotFound {
					t.Fatalf("unexpected body %q", w.Body.String())
				}
			}
		})
	}
}

func TestPreflight_NoContent(t *testing.T) {
	w := do(newEntriesRouter(&stubEntrySvc{}), http.MethodOptions, "/entries", "", nil)
	if w.Code != http.StatusNoContent || w.Body.Len() != 0 {
		t.Fatalf("got %d %q", w.Code, w.Body.String())
	}
}

func TestParseEntryID(t *testing.T) {
	for in, want := range map[string]int64{"1": 1, " 12 ": 12, "3.0": 3, "1e2": 100} {
		if got, err := parseEntryID(in); err != nil || got != want {
			t.Fatalf("parseEntryID(%q) = %d,%v", in, got, err)
		}
	}
	for _, in := range []string{"", "0", "-1", "2.5", "NaN", "Inf", "x1", "1e400", "-1e300"} {
		if _, err := parseEntryID(in); !errors.Is(err, services.ErrInvalidID) {
			t.Fatalf("parseEntryID(%q) = %v, want ErrInvalidID", in, err)
		}
	}
	for _, in := range []string{"1e300", "99999999999999999999", "9223372036854775808"} {
		if _, err := parseEntryID(in); !errors.Is(err, errIDOutOfRange) {
			t.Fatalf("parseEntryID(%q) = %v, want errIDOutOfRange", in, err)
		}
	}
}

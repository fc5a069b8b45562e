// Entry HTTP handlers.
//
// This file exposes REST endpoints for entry resources:
//   - GET     /entries        (list, newest first, ETag support)
//   - POST    /entries        (create; rate limited by middleware)
//   - DELETE  /entries/{id}   (delete)
//   - OPTIONS /entries[/{id}] (preflight)
//
// Handlers are transport-thin: they decode and validate input, call the
// entry service, and translate results into HTTP responses.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tbourn/go-entries-backend/internal/domain"
	"github.com/tbourn/go-entries-backend/internal/http/middleware"
	"github.com/tbourn/go-entries-backend/internal/services"
)

// EntryService defines the entry operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type EntryService interface {
	// List returns stored entries, newest first.
	List(ctx context.Context) ([]domain.Entry, error)
	// Create persists a validated submission and returns the stored entry.
	Create(ctx context.Context, in domain.EntryInput) (*domain.Entry, error)
	// Delete removes an entry by id.
	Delete(ctx context.Context, id int64) error
	// Version returns a weak ETag for the current list.
	Version(ctx context.Context) (string, error)
}

// submissions counts POST /entries outcomes that reach the handler:
// created, invalid (400) or failed (500). Rate-limited requests are counted
// by the limiter middleware.
var submissions = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "entries_submissions_total",
		Help: "Entry submissions by outcome.",
	},
	[]string{"outcome"},
)

func init() {
	prometheus.MustRegister(submissions)
}

// Handlers groups the entry endpoints.
type Handlers struct {
	entrySvc EntryService
}

// New constructs and returns a Handlers instance bound to the given service.
func New(entrySvc EntryService) *Handlers {
	return &Handlers{entrySvc: entrySvc}
}

// EntryRequest documents the POST /entries payload. The handler decodes the
// body generically so that loosely typed values (e.g. "age": "42") go through
// the same checks; this type exists for the API docs.
type EntryRequest struct {
	FirstName   string  `json:"firstName" example:"Ada"`
	LastName    string  `json:"lastName" example:"Lovelace"`
	Age         float64 `json:"age" example:"36"`
	Sex         string  `json:"sex" example:"female"`
	Nationality string  `json:"nationality" example:"British"`
	Phone       string  `json:"phone" example:"+44 20 7946 0958"`
}

// ListEntries godoc
// @ID          listEntries
// @Summary     List entries
// @Description Returns stored entries, newest first. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Entries
// @Produce     json
//
// @Param       If-None-Match  header  string  false  "Return 304 if ETag matches"  example(W/\"entries:3:7:500\")
//
// @Success     200  {array}  domain.Entry
// @Header      200  {string} ETag  "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /entries [get]
func (h *Handlers) ListEntries(c *gin.Context) {
	ctx := c.Request.Context()

	// ETag pre-check (best effort).
	if etag, err := h.entrySvc.Version(ctx); err == nil && etag != "" {
		c.Header("ETag", etag)
		c.Header("Cache-Control", "no-cache")
		if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
			// No body follows, so no encoding applies.
			c.Writer.Header().Del("Content-Encoding")
			c.Status(http.StatusNotModified)
			return
		}
	}

	items, err := h.entrySvc.List(ctx)
	if err != nil {
		_ = c.Error(err)
		fail(c, http.StatusInternalServerError, MsgInternal)
		return
	}
	if items == nil {
		items = []domain.Entry{}
	}
	ok(c, http.StatusOK, items)
}

// CreateEntry godoc
// @ID          createEntry
// @Summary     Submit an entry
// @Description Validates and stores a submission. At most 5 submissions per client address per 60-second window.
// @Tags        Entries
// @Accept      json
// @Produce     json
//
// @Param       X-Forwarded-For  header  string  false  "Client address (first value used for rate limiting)"
// @Param       body             body    handlers.EntryRequest  true  "Entry payload"
//
// @Success     201  {object}  domain.Entry
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid JSON or validation failure"
// @Failure     429  {object}  handlers.ErrorResponse  "Rate limit exceeded"
// @Header      429  {integer} Retry-After  "Seconds until the window resets"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /entries [post]
func (h *Handlers) CreateEntry(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		submissions.WithLabelValues("invalid").Inc()
		fail(c, http.StatusBadRequest, MsgInvalidJSON)
		return
	}
	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		submissions.WithLabelValues("invalid").Inc()
		fail(c, http.StatusBadRequest, MsgInvalidJSON)
		return
	}

	in, err := domain.NewEntryInput(raw)
	if err != nil {
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			submissions.WithLabelValues("invalid").Inc()
			fail(c, http.StatusBadRequest, ve.Msg)
			return
		}
		submissions.WithLabelValues("failed").Inc()
		_ = c.Error(err)
		fail(c, http.StatusInternalServerError, MsgInternal)
		return
	}

	e, err := h.entrySvc.Create(c.Request.Context(), in)
	if err != nil {
		submissions.WithLabelValues("failed").Inc()
		_ = c.Error(err)
		fail(c, http.StatusInternalServerError, MsgInternal)
		return
	}
	submissions.WithLabelValues("created").Inc()
	middleware.LoggerFrom(c).Info().Int64("entry_id", e.ID).Msg("entry created")
	ok(c, http.StatusCreated, e)
}

// DeleteEntry godoc
// @ID          deleteEntry
// @Summary     Delete an entry
// @Description Deletes the entry with the given id.
// @Tags        Entries
// @Produce     json
//
// @Param       id  path  integer  true  "Entry id"  minimum(1)  example(42)
//
// @Success     200  {object} handlers.DeleteResponse
// @Failure     400  {object} handlers.ErrorResponse "Invalid entry id"
// @Failure     404  {object} handlers.ErrorResponse "Entry not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /entries/{id} [delete]
func (h *Handlers) DeleteEntry(c *gin.Context) {
	id, err := parseEntryID(c.Param("id"))
	switch {
	case errors.Is(err, errIDOutOfRange):
		fail(c, http.StatusNotFound, MsgEntryNotFound)
		return
	case err != nil:
		fail(c, http.StatusBadRequest, MsgInvalidID)
		return
	}

	switch err := h.entrySvc.Delete(c.Request.Context(), id); {
	case err == nil:
		ok(c, http.StatusOK, DeleteResponse{OK: true, ID: id})
	case errors.Is(err, services.ErrInvalidID):
		fail(c, http.StatusBadRequest, MsgInvalidID)
	case errors.Is(err, services.ErrEntryNotFound):
		fail(c, http.StatusNotFound, MsgEntryNotFound)
	default:
		_ = c.Error(err)
		fail(c, http.StatusInternalServerError, MsgInternal)
	}
}

// Preflight godoc
// @ID          preflightEntries
// @Summary     CORS preflight
// @Tags        Entries
// @Success     204  {string} string "No Content"
// @Router      /entries [options]
func (h *Handlers) Preflight(c *gin.Context) {
	noContent(c)
}

// errIDOutOfRange marks an integral id too large to have ever been assigned.
var errIDOutOfRange = errors.New("entry id out of range")

// parseEntryID accepts decimal integers, including integral decimal forms
// such as "7.0" or "1e2". Zero, negatives, fractions and non-numbers yield
// services.ErrInvalidID; integral values beyond int64 yield errIDOutOfRange.
func parseEntryID(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n <= 0 {
			return 0, services.ErrInvalidID
		}
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) || f <= 0 {
		return 0, services.ErrInvalidID
	}
	if f >= math.MaxInt64 {
		return 0, errIDOutOfRange
	}
	return int64(f), nil
}

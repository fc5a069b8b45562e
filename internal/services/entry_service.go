// Package services – EntryService
//
// This file implements the EntryService, which lists, creates and deletes
// submitted entries. Payload validation happens before Create is called (see
// domain.NewEntryInput); the service assigns the creation timestamp and
// persists the row. Service-level errors (ErrEntryNotFound, ErrInvalidID) are
// returned for predictable cases so handlers can map them consistently.
package services

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-entries-backend/internal/domain"
	"github.com/tbourn/go-entries-backend/internal/repo"
)

// DefaultListLimit caps the number of entries returned by List.
const DefaultListLimit = 500

// EntryService provides entry use-cases on top of the repository functions.
// It is stateless apart from its configuration and safe for concurrent use.
type EntryService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// ListLimit caps List results; values <= 0 fall back to DefaultListLimit.
	ListLimit int
	// Now returns the current time; nil means time.Now.
	Now func() time.Time
}

// NewEntryService constructs an EntryService with the default list cap.
func NewEntryService(db *gorm.DB) *EntryService {
	return &EntryService{DB: db, ListLimit: DefaultListLimit}
}

func (s *EntryService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *EntryService) limit() int {
	if s.ListLimit <= 0 {
		return DefaultListLimit
	}
	return s.ListLimit
}

// List returns the most recent entries, newest first.
func (s *EntryService) List(ctx context.Context) ([]domain.Entry, error) {
	tr := otel.Tracer("services/EntryService")
	ctx, span := tr.Start(ctx, "List",
		trace.WithAttributes(attribute.Int("entries.limit", s.limit())),
	)
	defer span.End()

	return repo.ListEntries(ctx, s.DB, s.limit())
}

// Create persists a validated submission, stamping it with the current UTC
// time, and returns the stored entry including its assigned id.
func (s *EntryService) Create(ctx context.Context, in domain.EntryInput) (*domain.Entry, error) {
	tr := otel.Tracer("services/EntryService")
	ctx, span := tr.Start(ctx, "Create")
	defer span.End()

	e := &domain.Entry{
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		Age:         in.Age,
		Sex:         in.Sex,
		Nationality: in.Nationality,
		Phone:       in.Phone,
		CreatedAt:   s.now().UTC().Format(domain.TimestampLayout),
	}
	if err := repo.CreateEntry(ctx, s.DB, e); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int64("entry.id", e.ID))
	return e, nil
}

// Delete removes the entry with the given id. It returns ErrInvalidID for
// non-positive ids (without touching storage) and ErrEntryNotFound when no
// row matched.
func (s *EntryService) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrInvalidID
	}
	tr := otel.Tracer("services/EntryService")
	ctx, span := tr.Start(ctx, "Delete",
		trace.WithAttributes(attribute.Int64("entry.id", id)),
	)
	defer span.End()

	n, err := repo.DeleteEntry(ctx, s.DB, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrEntryNotFound
	}
	return nil
}

// Version returns a weak validator for the current list contents. It changes
// whenever an entry is inserted or deleted.
func (s *EntryService) Version(ctx context.Context) (string, error) {
	count, maxID, err := repo.EntriesStats(ctx, s.DB)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`W/"entries:%d:%d:%d"`, count, maxID, s.limit()), nil
}

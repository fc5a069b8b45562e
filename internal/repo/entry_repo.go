// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Entry model.
//
// All functions are context-aware and accept a *gorm.DB handle. They follow
// the "thin repository" approach: no business logic, only persistence and
// query composition. Every statement is parameterized.
//
// Error semantics:
//   - DeleteEntry reports the number of affected rows instead of an error when
//     nothing matched, so callers can tell "not found" apart from a failure.
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-entries-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// ListEntries returns up to limit entries, newest (highest id) first.
// An empty table yields an empty, non-nil slice.
func ListEntries(ctx context.Context, db *gorm.DB, limit int) ([]domain.Entry, error) {
	out := make([]domain.Entry, 0)
	err := db.WithContext(ctx).
		Order("id DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// CreateEntry inserts e and sets e.ID to the storage-assigned identifier.
func CreateEntry(ctx context.Context, db *gorm.DB, e *domain.Entry) error {
	return db.WithContext(ctx).Create(e).Error
}

// DeleteEntry removes the entry with the given id and returns the number of
// rows affected (0 or 1).
func DeleteEntry(ctx context.Context, db *gorm.DB, id int64) (int64, error) {
	res := db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Entry{})
	return res.RowsAffected, res.Error
}

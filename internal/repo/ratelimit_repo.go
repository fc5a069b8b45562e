// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the per-address rate-limit counter rows.
//
// Writes are conditional on the row state the caller last read: each mutating
// function reports whether its guard matched. A false result means another
// request changed the row in between and the caller should re-read.
package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-entries-backend/internal/domain"
)

// GetRateLimit returns the counter row for ip or ErrNotFound.
func GetRateLimit(ctx context.Context, db *gorm.DB, ip string) (*domain.RateLimit, error) {
	var rl domain.RateLimit
	err := db.WithContext(ctx).Where("ip = ?", ip).Take(&rl).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rl, nil
}

// InsertRateLimit creates the first counter row for ip with count 1.
// It reports false when a row for ip already exists.
func InsertRateLimit(ctx context.Context, db *gorm.DB, ip string, windowStart int64) (bool, error) {
	res := db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&domain.RateLimit{IP: ip, WindowStart: windowStart, Count: 1})
	return res.RowsAffected == 1, res.Error
}

// IncrementRateLimit adds one to the counter described by prev.
func IncrementRateLimit(ctx context.Context, db *gorm.DB, prev domain.RateLimit) (bool, error) {
	res := db.WithContext(ctx).
		Model(&domain.RateLimit{}).
		Where("ip = ? AND window_start = ? AND count = ?", prev.IP, prev.WindowStart, prev.Count).
		Update("count", gorm.Expr("count + 1"))
	return res.RowsAffected == 1, res.Error
}

// ResetRateLimit starts a new window at windowStart with count 1.
func ResetRateLimit(ctx context.Context, db *gorm.DB, prev domain.RateLimit, windowStart int64) (bool, error) {
	res := db.WithContext(ctx).
		Model(&domain.RateLimit{}).
		Where("ip = ? AND window_start = ? AND count = ?", prev.IP, prev.WindowStart, prev.Count).
		Updates(map[string]any{"window_start": windowStart, "count": 1})
	return res.RowsAffected == 1, res.Error
}

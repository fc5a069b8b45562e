// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate queries used for
// conditional responses (ETag generation) in the HTTP layer.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-entries-backend/internal/domain"
)

// EntriesStats returns the total number of entries and the highest id.
//
// Together they change on every insert (max id grows) and every delete
// (count drops), which is enough to version the list response. When the
// table is empty both values are 0.
func EntriesStats(ctx context.Context, db *gorm.DB) (count int64, maxID int64, err error) {
	q := db.WithContext(ctx).Model(&domain.Entry{})

	if err = q.Count(&count).Error; err != nil {
		return 0, 0, err
	}
	if count == 0 {
		return 0, 0, nil
	}

	var row struct {
		ID int64
	}
	if err = db.WithContext(ctx).Model(&domain.Entry{}).Select("id").Order("id DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, 0, err
	}
	return count, row.ID, nil
}

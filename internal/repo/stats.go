// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate queries used by the
// readiness probe.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-image-studio/internal/domain"
)

// UsersStats returns the number of registered accounts and the creation time
// of the newest one. When no account exists, latest is nil.
//
// A failing query (store unreachable, table missing) surfaces as err, which is
// what the readiness probe keys off.
func UsersStats(ctx context.Context, db *gorm.DB) (count int64, latest *time.Time, err error) {
	if err = db.WithContext(ctx).Model(&domain.User{}).Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Avoid MAX() -> TEXT in SQLite
	var row struct {
		CreatedAt time.Time
	}
	if err = db.WithContext(ctx).Model(&domain.User{}).Select("created_at").Order("created_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.CreatedAt, nil
}

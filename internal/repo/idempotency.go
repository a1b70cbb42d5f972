// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository helpers for the
// GenerationReplay model used to implement safe retries of image generation.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-image-studio/internal/domain"
)

// GetReplay returns a non-expired replay record or ErrNotFound.
func GetReplay(ctx context.Context, db *gorm.DB, username, key string, now time.Time) (*domain.GenerationReplay, error) {
	if strings.TrimSpace(username) == "" || strings.TrimSpace(key) == "" {
		return nil, ErrNotFound
	}
	var rec domain.GenerationReplay
	err := db.WithContext(ctx).
		Where("username = ? AND key = ? AND expires_at > ?", username, key, now).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ReplayInput carries the outcome of a generation to remember.
type ReplayInput struct {
	Username   string
	Key        string
	ImageURL   string
	Prompt     string
	SourceText string
	Summary    string
}

// CreateReplay inserts a record and returns ErrDuplicate on unique violation.
func CreateReplay(ctx context.Context, db *gorm.DB, in ReplayInput, ttl time.Duration) (*domain.GenerationReplay, error) {
	now := time.Now().UTC()
	rec := &domain.GenerationReplay{
		ID:         uuid.NewString(),
		Username:   in.Username,
		Key:        in.Key,
		ImageURL:   in.ImageURL,
		Prompt:     in.Prompt,
		SourceText: in.SourceText,
		Summary:    in.Summary,
		CreatedAt:  now,
		ExpiresAt:  now.Add(ttl),
	}
	if err := db.WithContext(ctx).Create(rec).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return rec, nil
}

// PurgeExpiredReplays deletes replay records whose expiry is at or before now
// and returns how many rows were removed.
func PurgeExpiredReplays(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	res := db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&domain.GenerationReplay{})
	return res.RowsAffected, res.Error
}

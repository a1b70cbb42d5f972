// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the User model.
//
// All functions are context-aware and accept a *gorm.DB handle, so they can
// run inside transactions. They hold no business rules; validation and
// password hashing live in services.CredentialService.
//
// Error semantics:
//   - A missing user yields ErrNotFound.
//   - Inserting an existing username yields ErrDuplicate.
//   - Any other failure (missing table, locked or unreadable file) is
//     propagated as the raw gorm error.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-image-studio/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// ErrDuplicate indicates that a row with the same unique key already exists.
var ErrDuplicate = errors.New("duplicate")

// CreateUser inserts a new account. The insert is a single statement, so a
// concurrent registration of the same username resolves to exactly one
// success and one ErrDuplicate.
func CreateUser(ctx context.Context, db *gorm.DB, username, passwordHash, secretKey string) (*domain.User, error) {
	u := &domain.User{
		Username:     username,
		PasswordHash: passwordHash,
		SecretKey:    secretKey,
		CreatedAt:    time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(u).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return u, nil
}

// GetUser fetches an account by its exact (case-sensitive) username.
func GetUser(ctx context.Context, db *gorm.DB, username string) (*domain.User, error) {
	var u domain.User
	err := db.WithContext(ctx).Where("username = ?", username).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// UserExists reports whether an account with the given username is stored.
func UserExists(ctx context.Context, db *gorm.DB, username string) (bool, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.User{}).Where("username = ?", username).Count(&n).Error
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// isUniqueViolation matches both the translated gorm error and the plain-text
// errors glebarez/sqlite returns for PRIMARY KEY and UNIQUE violations.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "unique constraint failed") ||
		strings.Contains(low, "constraint failed: unique") ||
		strings.Contains(low, "constraint failed: primary key")
}

// Package services – CredentialService
//
// This file implements the credential store: registration of
// username/password/secret-key triples and verification of login attempts.
// Passwords are hashed with bcrypt; the secret key is returned verbatim only
// when the supplied password matches.
//
// Verify does the same amount of work for an unknown username as for a wrong
// password, so the two outcomes are indistinguishable to the caller.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/tbourn/go-image-studio/internal/domain"
	"github.com/tbourn/go-image-studio/internal/repo"
)

// UserRepo defines the repository contract required by CredentialService.
type UserRepo interface {
	// CreateUser inserts a new account, or returns repo.ErrDuplicate.
	CreateUser(ctx context.Context, db *gorm.DB, username, passwordHash, secretKey string) (*domain.User, error)

	// GetUser fetches an account by exact username, or returns repo.ErrNotFound.
	GetUser(ctx context.Context, db *gorm.DB, username string) (*domain.User, error)

	// UserExists reports whether the username is registered.
	UserExists(ctx context.Context, db *gorm.DB, username string) (bool, error)
}

// MaxUsernameLen caps usernames in characters.
const MaxUsernameLen = 64

// MaxPasswordBytes is the longest password bcrypt hashes in full; bytes past
// it would be ignored by the comparison.
const MaxPasswordBytes = 72

// RegisterInput is the form submitted to create an account.
type RegisterInput struct {
	Username        string
	Password        string
	ConfirmPassword string
	SecretKey       string
}

// CredentialService registers and verifies accounts.
type CredentialService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the user repository used by this service.
	Repo UserRepo

	// MinPasswordLen is the minimum password length in characters.
	MinPasswordLen int
	// SecretKeyPrefix is the literal prefix a secret key must carry.
	SecretKeyPrefix string
	// Cost is the bcrypt work factor.
	Cost int

	dummyOnce sync.Once
	dummyHash []byte
}

// NewCredentialService constructs a CredentialService with the default rules.
func NewCredentialService(db *gorm.DB, r UserRepo) *CredentialService {
	return &CredentialService{
		DB:              db,
		Repo:            r,
		MinPasswordLen:  6,
		SecretKeyPrefix: "sk-",
		Cost:            bcrypt.DefaultCost,
	}
}

// Register validates the input and creates the account.
//
// Validation failures wrap ErrValidation and never reach the store. A taken
// username yields ErrAlreadyExists; storage faults wrap ErrStoreUnavailable.
func (s *CredentialService) Register(ctx context.Context, in RegisterInput) error {
	in.Username = strings.TrimSpace(in.Username)
	if err := s.validate(in); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost())
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if _, err := s.Repo.CreateUser(ctx, s.DB, in.Username, string(hash), in.SecretKey); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Verify checks a login attempt and returns the stored secret key on an exact
// password match. Unknown usernames and wrong passwords both yield
// ErrInvalidCredentials.
//
// The username is trimmed the same way Register trims it before the lookup.
// A password longer than MaxPasswordBytes can never have been registered and
// is rejected without consulting its prefix.
func (s *CredentialService) Verify(ctx context.Context, username, password string) (string, error) {
	if len(password) > MaxPasswordBytes {
		_ = bcrypt.CompareHashAndPassword(s.dummy(), []byte(password[:MaxPasswordBytes]))
		return "", ErrInvalidCredentials
	}

	u, err := s.Repo.GetUser(ctx, s.DB, strings.TrimSpace(username))
	switch {
	case errors.Is(err, repo.ErrNotFound):
		// Burn a comparison so the miss costs the same as a mismatch.
		_ = bcrypt.CompareHashAndPassword(s.dummy(), []byte(password))
		return "", ErrInvalidCredentials
	case err != nil:
		return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}
	return u.SecretKey, nil
}

// Exists reports whether username is still registered.
func (s *CredentialService) Exists(ctx context.Context, username string) (bool, error) {
	ok, err := s.Repo.UserExists(ctx, s.DB, username)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return ok, nil
}

func (s *CredentialService) validate(in RegisterInput) error {
	if in.Username == "" {
		return ErrEmptyUsername
	}
	if utf8.RuneCountInString(in.Username) > MaxUsernameLen {
		return ErrUsernameTooLong
	}
	if in.Password == "" {
		return ErrEmptyPassword
	}
	if in.Password != in.ConfirmPassword {
		return ErrPasswordMismatch
	}
	if utf8.RuneCountInString(in.Password) < s.minLen() {
		return ErrPasswordTooShort
	}
	if len(in.Password) > MaxPasswordBytes {
		return ErrPasswordTooLong
	}
	if !strings.HasPrefix(in.SecretKey, s.SecretKeyPrefix) || len(in.SecretKey) == len(s.SecretKeyPrefix) {
		return ErrSecretKeyFormat
	}
	return nil
}

func (s *CredentialService) minLen() int {
	if s.MinPasswordLen < 1 {
		return 6
	}
	return s.MinPasswordLen
}

func (s *CredentialService) cost() int {
	if s.Cost < bcrypt.MinCost || s.Cost > bcrypt.MaxCost {
		return bcrypt.DefaultCost
	}
	return s.Cost
}

func (s *CredentialService) dummy() []byte {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("image-studio-dummy-password"), s.cost())
	})
	return s.dummyHash
}

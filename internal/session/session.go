// Package session issues, loads and clears the signed session token that
// keeps a user logged in across visits.
//
// A token is an HS256 JWT whose subject is the username. The user's secret
// key travels inside the token sealed with AES-GCM, so the client can hold it
// without being able to read it. Signing and sealing keys are derived from a
// single configured secret with HKDF.
//
// Tokens are never refreshed: a session that expires mid-use is noticed on
// the next Load.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTTL is the lifetime of an issued session.
const DefaultTTL = 30 * 24 * time.Hour

// ErrSessionAbsent is returned by Load when the slot is empty, malformed,
// tampered with, or expired. It is a routing signal, not a failure.
var ErrSessionAbsent = errors.New("session absent or expired")

// Record is the identity carried by a session token.
type Record struct {
	ID        string
	Username  string
	SecretKey string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type claims struct {
	jwt.RegisteredClaims
	Key string `json:"key"`
}

// Manager signs and verifies session tokens.
type Manager struct {
	ttl     time.Duration
	signKey []byte
	seal    *sealer

	// now is the clock; tests replace it.
	now func() time.Time
}

// NewManager derives the token keys from secret. A non-positive ttl selects
// DefaultTTL.
func NewManager(secret string, ttl time.Duration) (*Manager, error) {
	if len(secret) < 32 {
		return nil, errors.New("session secret must be at least 32 bytes")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	signKey, err := deriveKey([]byte(secret), "sign")
	if err != nil {
		return nil, fmt.Errorf("derive signing key: %w", err)
	}
	sealKey, err := deriveKey([]byte(secret), "seal")
	if err != nil {
		return nil, fmt.Errorf("derive sealing key: %w", err)
	}
	s, err := newSealer(sealKey)
	if err != nil {
		return nil, err
	}
	return &Manager{ttl: ttl, signKey: signKey, seal: s, now: time.Now}, nil
}

// TTL returns the lifetime of issued sessions.
func (m *Manager) TTL() time.Duration { return m.ttl }

// Issue creates a session for the identity and writes it to slot,
// replacing whatever the slot held.
func (m *Manager) Issue(slot Slot, username, secretKey string) (Record, error) {
	now := m.now().UTC().Truncate(time.Second)
	rec := Record{
		ID:        uuid.NewString(),
		Username:  username,
		SecretKey: secretKey,
		IssuedAt:  now,
		ExpiresAt: now.Add(m.ttl),
	}

	sealed, err := m.seal.seal(secretKey, username)
	if err != nil {
		return Record{}, fmt.Errorf("seal secret key: %w", err)
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        rec.ID,
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(rec.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(rec.ExpiresAt),
		},
		Key: sealed,
	})
	signed, err := token.SignedString(m.signKey)
	if err != nil {
		return Record{}, fmt.Errorf("sign session token: %w", err)
	}

	slot.Write(signed, rec.ExpiresAt)
	return rec, nil
}

// Load reads the slot and returns the embedded identity. Every miss,
// including parse and signature failures, is reported as ErrSessionAbsent.
func (m *Manager) Load(slot Slot) (Record, error) {
	raw, ok := slot.Read()
	if !ok || raw == "" {
		return Record{}, ErrSessionAbsent
	}

	c := &claims{}
	token, err := jwt.ParseWithClaims(raw, c, func(*jwt.Token) (any, error) {
		return m.signKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !token.Valid {
		return Record{}, ErrSessionAbsent
	}
	if c.Subject == "" || c.ID == "" || c.IssuedAt == nil {
		return Record{}, ErrSessionAbsent
	}

	key, err := m.seal.open(c.Key, c.Subject)
	if err != nil {
		return Record{}, ErrSessionAbsent
	}

	return Record{
		ID:        c.ID,
		Username:  c.Subject,
		SecretKey: key,
		IssuedAt:  c.IssuedAt.Time.UTC(),
		ExpiresAt: c.ExpiresAt.Time.UTC(),
	}, nil
}

// Clear erases the slot unconditionally.
func (m *Manager) Clear(slot Slot) {
	slot.Erase()
}

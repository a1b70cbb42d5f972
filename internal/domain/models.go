// Package domain defines the persistence models of the image studio. These
// types are mapped with GORM and shared across the repository and service
// layers.
package domain

import "time"

// User is one registered account of the credential store.
//
// Fields:
//   - Username: case-sensitive, unique primary key.
//   - PasswordHash: bcrypt digest of the password; the plaintext is never stored.
//   - SecretKey: the provider credential bound at registration, stored verbatim.
//   - CreatedAt: managed by GORM.
type User struct {
	Username     string    `json:"username"   gorm:"type:varchar(255);primaryKey"`
	PasswordHash string    `json:"-"          gorm:"type:text;not null"`
	SecretKey    string    `json:"-"          gorm:"type:text;not null"`
	CreatedAt    time.Time `json:"created_at"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

package domain

import (
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	return db
}

func TestGenerationReplay_Migration_Indexes_AndInsert(t *testing.T) {
	db := newTestDB(t)

	if err := db.AutoMigrate(&GenerationReplay{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	m := db.Migrator()
	if !m.HasTable(&GenerationReplay{}) {
		t.Fatalf("expected table %q to exist", GenerationReplay{}.TableName())
	}
	if !m.HasIndex(&GenerationReplay{}, "ux_replay_user_key") {
		t.Fatalf("expected composite index ux_replay_user_key to exist")
	}

	now := time.Now().UTC()
	rec := &GenerationReplay{
		ID:         "r-1",
		Username:   "alice",
		Key:        "k1",
		ImageURL:   "https://img.example/1.png",
		Prompt:     "a prompt",
		SourceText: "a request",
		Summary:    "a summary",
		ExpiresAt:  now.Add(time.Hour),
	}
	if err := db.Create(rec).Error; err != nil {
		t.Fatalf("insert valid: %v", err)
	}

	var got GenerationReplay
	if err := db.First(&got, "id = ?", "r-1").Error; err != nil {
		t.Fatalf("readback: %v", err)
	}
	if got.Username != "alice" || got.Key != "k1" || got.ImageURL != rec.ImageURL || got.Prompt != "a prompt" {
		t.Fatalf("unexpected row: %+v", got)
	}
	if got.CreatedAt.IsZero() {
		t.Fatalf("CreatedAt should be set by autoCreateTime")
	}

	dup := &GenerationReplay{ID: "r-2", Username: "alice", Key: "k1", ExpiresAt: now.Add(time.Hour)}
	if err := db.Create(dup).Error; err == nil {
		t.Fatalf("expected UNIQUE constraint violation on (username, key)")
	}

	other := &GenerationReplay{ID: "r-3", Username: "bob", Key: "k1", ExpiresAt: now.Add(time.Hour)}
	if err := db.Create(other).Error; err != nil {
		t.Fatalf("same key for another user should be allowed: %v", err)
	}
}

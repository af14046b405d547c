// Package storagetest opens throwaway in-memory stores for tests.
package storagetest

import (
	"campusnet/backend/internal/models"
	"campusnet/backend/internal/storage"
	"context"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// New returns a migrated storage.Service backed by an in-memory SQLite database.
// Redis is not configured, so PublishEvent is a no-op.
func New(t testing.TB) *storage.Service {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	// Every connection to :memory: is a separate database.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := storage.Migrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return storage.NewStorageService(db, nil)
}

// SeedUsers stores directory entries for the given users.
func SeedUsers(t testing.TB, s *storage.Service, users ...models.User) {
	t.Helper()
	for i := range users {
		if err := s.SaveUser(context.Background(), &users[i]); err != nil {
			t.Fatalf("failed to seed user %s: %v", users[i].ID, err)
		}
	}
}

// Connect makes a and b connected through a request accepted by b.
func Connect(t testing.TB, s *storage.Service, a, b string) *models.ConnectionRequest {
	t.Helper()
	ctx := context.Background()
	req, err := s.CreateConnectionRequest(ctx, a, b)
	if err != nil {
		t.Fatalf("failed to request connection %s -> %s: %v", a, b, err)
	}
	accepted, err := s.AcceptConnectionRequest(ctx, req.ID, b)
	if err != nil {
		t.Fatalf("failed to accept connection %s -> %s: %v", a, b, err)
	}
	return accepted
}

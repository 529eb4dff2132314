package repo

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/trailhead-app/go-tours-backend/internal/domain"
)

// newTestDB opens a throwaway SQLite database and migrates the given models.
func newTestDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("repo_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	// Release the file handle before TempDir cleanup (Windows needs this).
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	if len(migrate) > 0 {
		if err := db.AutoMigrate(migrate...); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

// seedTour inserts a tour with sensible defaults, overridable via mutate.
func seedTour(t *testing.T, db *gorm.DB, name string, mutate func(*domain.Tour)) *domain.Tour {
	t.Helper()
	tour := &domain.Tour{
		Name:           name,
		Slug:           slugOf(name),
		Duration:       5,
		MaxGroupSize:   10,
		Difficulty:     domain.DifficultyEasy,
		RatingsAverage: 4.5,
		Price:          497,
		Summary:        "summary",
		StartLocation:  domain.Location{Coordinates: [2]float64{-80.185942, 25.774772}},
	}
	if mutate != nil {
		mutate(tour)
	}
	if err := CreateTour(context.Background(), db, tour); err != nil {
		t.Fatalf("seed tour %q: %v", name, err)
	}
	return tour
}

func slugOf(name string) string {
	out := make([]byte, 0, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'A' && c <= 'Z':
			out = append(out, c+'a'-'A')
		case c == ' ':
			out = append(out, '-')
		default:
			out = append(out, c)
		}
	}
	return string(out)
}

// seedUser inserts a user with a placeholder password hash.
func seedUser(t *testing.T, db *gorm.DB, email, role string) *domain.User {
	t.Helper()
	u := &domain.User{
		Name:         "Test User",
		Email:        email,
		Role:         role,
		PasswordHash: "$2a$10$placeholderplaceholderplace",
		Active:       true,
	}
	if err := CreateUser(context.Background(), db, u); err != nil {
		t.Fatalf("seed user %q: %v", email, err)
	}
	return u
}

package services

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
	"github.com/trailhead-app/go-tours-backend/internal/repo"
)

// newTestDB opens a throwaway SQLite database with the full schema migrated.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("svc_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

// mustCreateTour seeds a tour through the service so slug/defaults apply.
func mustCreateTour(t *testing.T, svc *TourService, name string) *domain.Tour {
	t.Helper()
	tour, err := svc.Create(context.Background(), TourInput{
		Name:         name,
		Duration:     5,
		MaxGroupSize: 10,
		Difficulty:   domain.DifficultyEasy,
		Price:        497,
		Summary:      "summary",
		StartLocation: domain.Location{
			Coordinates: [2]float64{-80.185942, 25.774772},
		},
	})
	if err != nil {
		t.Fatalf("create tour %q: %v", name, err)
	}
	return tour
}

// mustSignup registers a user through the auth flow and returns it.
func mustSignup(t *testing.T, svc *UserService, name, email string) *domain.User {
	t.Helper()
	u, _, err := svc.Signup(context.Background(), SignupInput{
		Name:            name,
		Email:           email,
		Password:        "pass12345",
		PasswordConfirm: "pass12345",
	})
	if err != nil {
		t.Fatalf("signup %q: %v", email, err)
	}
	return u
}

func newUserService(db *gorm.DB) *UserService {
	return &UserService{
		DB:        db,
		Secret:    "test-secret-test-secret-test-secret!",
		ExpiresIn: time.Hour,
	}
}

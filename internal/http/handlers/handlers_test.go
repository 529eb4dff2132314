package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/trailhead-app/go-tours-backend/internal/domain"
	"github.com/trailhead-app/go-tours-backend/internal/http/middleware"
	"github.com/trailhead-app/go-tours-backend/internal/repo"
	"github.com/trailhead-app/go-tours-backend/internal/services"
)

func init() { gin.SetMode(gin.TestMode) }

func newHandlerDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "handlers_test.db")
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

func newUsers(db *gorm.DB) *services.UserService {
	return &services.UserService{
		DB:        db,
		Secret:    "test-secret-test-secret-test-secret!",
		ExpiresIn: time.Hour,
	}
}

// asUser pins an already-authenticated user into the context, standing in for
// the full token middleware.
func asUser(u *domain.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.CtxUserIDKey, u.ID)
		c.Set(middleware.CtxUserRoleKey, u.Role)
		c.Set(middleware.CtxUserKey, u)
	}
}

func seedHandlerUser(t *testing.T, users *services.UserService, email string) *domain.User {
	t.Helper()
	u, _, err := users.Signup(context.Background(), services.SignupInput{
		Name: "Ada", Email: email,
		Password: "pass12345", PasswordConfirm: "pass12345",
	})
	if err != nil {
		t.Fatalf("signup %s: %v", email, err)
	}
	return u
}

func seedHandlerTour(t *testing.T, db *gorm.DB, name string) *domain.Tour {
	t.Helper()
	tours := &services.TourService{DB: db}
	tour, err := tours.Create(context.Background(), services.TourInput{
		Name: name, Duration: 5, MaxGroupSize: 10,
		Difficulty: "easy", Price: 497, Summary: "s",
	})
	if err != nil {
		t.Fatalf("seed tour %s: %v", name, err)
	}
	return tour
}

func jsonReq(method, path string, body any) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

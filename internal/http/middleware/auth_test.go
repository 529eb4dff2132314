package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/trailhead-app/go-tours-backend/internal/domain"
	"github.com/trailhead-app/go-tours-backend/internal/repo"
	"github.com/trailhead-app/go-tours-backend/internal/services"
)

func newAuthService(t *testing.T) *services.UserService {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "auth_test.db")
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
	return &services.UserService{
		DB:        db,
		Secret:    "test-secret-test-secret-test-secret!",
		ExpiresIn: time.Hour,
	}
}

// authEngine mounts a protected probe route behind the full classifier.
func authEngine(users *services.UserService, extra ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(ErrorHandler(false))
	chain := append([]gin.HandlerFunc{Protect(users)}, extra...)
	chain = append(chain, func(c *gin.Context) {
		u := CurrentUser(c)
		c.JSON(http.StatusOK, gin.H{"id": u.ID, "role": u.Role})
	})
	r.GET("/api/v1/probe", chain...)
	return r
}

func signupUser(t *testing.T, users *services.UserService, email string) (*domain.User, string) {
	t.Helper()
	u, token, err := users.Signup(context.Background(), services.SignupInput{
		Name: "Ada", Email: email,
		Password: "pass12345", PasswordConfirm: "pass12345",
	})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	return u, token
}

func TestProtect_RejectsMissingToken(t *testing.T) {
	r := authEngine(newAuthService(t))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/probe", nil))

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "You are not logged in!") {
		t.Fatalf("body = %s", w.Body.String())
	}
}

func TestProtect_AcceptsBearerToken(t *testing.T) {
	users := newAuthService(t)
	u, token := signupUser(t, users, "ada@example.com")
	r := authEngine(users)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/probe", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), u.ID) {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
}

func TestProtect_AcceptsCookieToken(t *testing.T) {
	users := newAuthService(t)
	_, token := signupUser(t, users, "ada@example.com")
	r := authEngine(users)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/probe", nil)
	req.AddCookie(&http.Cookie{Name: JWTCookieName, Value: token})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
}

func TestProtect_RejectsGarbageToken(t *testing.T) {
	r := authEngine(newAuthService(t))
	req := httptest.NewRequest(http.MethodGet, "/api/v1/probe", nil)
	req.Header.Set("Authorization", "Bearer not.a.token")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestProtect_RejectsTokenAfterPasswordChange(t *testing.T) {
	users := newAuthService(t)
	u, token := signupUser(t, users, "ada@example.com")

	// Invalidate by changing the password well after issuance.
	changed := time.Now().Add(2 * time.Second)
	if err := users.DB.Model(&domain.User{}).Where("id = ?", u.ID).
		Update("password_changed_at", changed).Error; err != nil {
		t.Fatalf("stamp change: %v", err)
	}

	r := authEngine(users)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/probe", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "recently changed password") {
		t.Fatalf("body = %s", w.Body.String())
	}
}

func TestProtect_RejectsDeactivatedUser(t *testing.T) {
	users := newAuthService(t)
	u, token := signupUser(t, users, "ada@example.com")
	if err := users.DeactivateMe(context.Background(), u.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	r := authEngine(users)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/probe", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "does no longer exist") {
		t.Fatalf("body = %s", w.Body.String())
	}
}

func TestRestrictTo(t *testing.T) {
	users := newAuthService(t)
	u, token := signupUser(t, users, "ada@example.com")

	r := authEngine(users, RestrictTo(domain.RoleAdmin))
	req := httptest.NewRequest(http.MethodGet, "/api/v1/probe", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("regular user allowed: %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "You do not have permission") {
		t.Fatalf("body = %s", w.Body.String())
	}

	// Promote and retry.
	if err := users.DB.Model(&domain.User{}).Where("id = ?", u.ID).
		Update("role", domain.RoleAdmin).Error; err != nil {
		t.Fatalf("promote: %v", err)
	}
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req.Clone(context.Background()))
	if w.Code != http.StatusOK {
		t.Fatalf("admin rejected: %d %s", w.Code, w.Body.String())
	}
}

func TestMaybeUser_NeverFails(t *testing.T) {
	users := newAuthService(t)
	r := gin.New()
	r.GET("/", MaybeUser(users), func(c *gin.Context) {
		if CurrentUser(c) != nil {
			c.String(http.StatusOK, "user")
			return
		}
		c.String(http.StatusOK, "anonymous")
	})

	// Anonymous passes through.
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Body.String() != "anonymous" {
		t.Fatalf("body = %s", w.Body.String())
	}

	// Valid cookie resolves.
	_, token := signupUser(t, users, "ada@example.com")
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: JWTCookieName, Value: token})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Body.String() != "user" {
		t.Fatalf("body = %s", w.Body.String())
	}

	// Garbage cookie still passes through anonymously.
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: JWTCookieName, Value: "junk"})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Body.String() != "anonymous" {
		t.Fatalf("body = %s", w.Body.String())
	}
}

// User and authentication business logic: signup, login, JWT issuance,
// password changes, the reset-token flow, self-service profile updates, and
// the admin CRUD.
package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/trailhead-app/go-tours-backend/internal/domain"
	"github.com/trailhead-app/go-tours-backend/internal/repo"
)

// bcryptCost trades hashing latency against brute-force resistance.
const bcryptCost = 12

// resetTokenTTL is how long a password reset token stays valid.
const resetTokenTTL = 10 * time.Minute

// Mailer delivers transactional mail. The production deployment plugs in a
// real provider; development uses the log-backed implementation.
type Mailer interface {
	SendPasswordReset(ctx context.Context, to, resetURL string) error
}

// UserService implements account and authentication operations.
// Safe for concurrent use; all methods honor the caller's context.
type UserService struct {
	DB        *gorm.DB
	Secret    string        // JWT signing key
	ExpiresIn time.Duration // JWT lifetime
	Mailer    Mailer
}

// SignupInput carries the fields accepted at registration.
type SignupInput struct {
	Name            string
	Email           string
	Password        string
	PasswordConfirm string
}

// Signup registers a new account and returns the user plus a signed JWT.
// New accounts always get the "user" role; privileged roles are assigned by
// an admin afterwards.
func (s *UserService) Signup(ctx context.Context, in SignupInput) (*domain.User, string, error) {
	if err := checkPassword(in.Password, in.PasswordConfirm); err != nil {
		return nil, "", err
	}
	email := normalizeEmail(in.Email)
	if _, err := repo.GetUserByEmail(ctx, s.DB, email); err == nil {
		return nil, "", ErrEmailTaken
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
	if err != nil {
		return nil, "", err
	}
	u := &domain.User{
		Name:         strings.TrimSpace(in.Name),
		Email:        email,
		Role:         domain.RoleUser,
		PasswordHash: string(hash),
		Active:       true,
	}
	if err := repo.CreateUser(ctx, s.DB, u); err != nil {
		return nil, "", err
	}
	token, err := s.SignToken(u.ID)
	return u, token, err
}

// Login verifies credentials and returns the user plus a signed JWT.
func (s *UserService) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	u, err := repo.GetUserByEmail(ctx, s.DB, normalizeEmail(email))
	if errors.Is(err, repo.ErrNotFound) {
		return nil, "", ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, "", ErrInvalidCredentials
	}
	token, err := s.SignToken(u.ID)
	return u, token, err
}

// SignToken issues an HS256 JWT whose subject is the user id.
func (s *UserService) SignToken(userID string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ExpiresIn)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.Secret))
}

// UpdatePassword changes the password of an authenticated user after
// verifying the current one, then issues a fresh JWT (older tokens are
// invalidated via PasswordChangedAt).
func (s *UserService) UpdatePassword(ctx context.Context, userID, current, password, passwordConfirm string) (string, error) {
	u, err := repo.GetUser(ctx, s.DB, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return "", ErrUserNotFound
	}
	if err != nil {
		return "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(current)) != nil {
		return "", ErrWrongPassword
	}
	if err := checkPassword(password, passwordConfirm); err != nil {
		return "", err
	}
	if err := s.setPassword(ctx, u.ID, password); err != nil {
		return "", err
	}
	return s.SignToken(u.ID)
}

// ForgotPassword creates a single-use reset token, stores only its SHA-256
// hash, and mails the plain token to the account. Unknown emails return
// ErrUserNotFound; the handler layer decides how much to reveal.
func (s *UserService) ForgotPassword(ctx context.Context, email, resetURLBase string) error {
	u, err := repo.GetUserByEmail(ctx, s.DB, normalizeEmail(email))
	if errors.Is(err, repo.ErrNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return err
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return err
	}
	token := hex.EncodeToString(raw)
	expires := time.Now().UTC().Add(resetTokenTTL)
	if err := repo.UpdateUser(ctx, s.DB, u.ID, map[string]any{
		"password_reset_token":   hashToken(token),
		"password_reset_expires": expires,
	}); err != nil {
		return err
	}

	if s.Mailer != nil {
		if err := s.Mailer.SendPasswordReset(ctx, u.Email, resetURLBase+"/"+token); err != nil {
			// Sending failed: invalidate the token so it cannot linger.
			_ = repo.UpdateUser(ctx, s.DB, u.ID, map[string]any{
				"password_reset_token":   "",
				"password_reset_expires": nil,
			})
			return err
		}
	}
	return nil
}

// ResetPassword consumes a reset token, sets the new password, and returns a
// fresh JWT.
func (s *UserService) ResetPassword(ctx context.Context, token, password, passwordConfirm string) (string, error) {
	if err := checkPassword(password, passwordConfirm); err != nil {
		return "", err
	}
	u, err := repo.GetUserByResetToken(ctx, s.DB, hashToken(token), time.Now().UTC())
	if errors.Is(err, repo.ErrNotFound) {
		return "", ErrResetTokenInvalid
	}
	if err != nil {
		return "", err
	}
	if err := s.setPassword(ctx, u.ID, password); err != nil {
		return "", err
	}
	return s.SignToken(u.ID)
}

// UpdateMe applies the self-service profile fields. Password fields are
// rejected upstream; this only ever touches name, email, and photo.
func (s *UserService) UpdateMe(ctx context.Context, userID string, name, email, photo string) (*domain.User, error) {
	updates := map[string]any{}
	if strings.TrimSpace(name) != "" {
		updates["name"] = strings.TrimSpace(name)
	}
	if strings.TrimSpace(email) != "" {
		updates["email"] = normalizeEmail(email)
	}
	if strings.TrimSpace(photo) != "" {
		updates["photo"] = strings.TrimSpace(photo)
	}
	if len(updates) > 0 {
		if err := repo.UpdateUser(ctx, s.DB, userID, updates); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return nil, ErrUserNotFound
			}
			return nil, err
		}
	}
	return s.Get(ctx, userID)
}

// DeactivateMe soft-deletes the caller's own account.
func (s *UserService) DeactivateMe(ctx context.Context, userID string) error {
	err := repo.DeactivateUser(ctx, s.DB, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrUserNotFound
	}
	return err
}

// Get fetches an active user by id.
func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	u, err := repo.GetUser(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return u, err
}

// List returns a page of active users plus the total count (admin CRUD).
func (s *UserService) List(ctx context.Context, offset, limit int) ([]domain.User, int64, error) {
	return repo.ListUsers(ctx, s.DB, offset, limit)
}

// AdminUpdate applies arbitrary profile/role updates (admin CRUD); password
// fields are rejected, password changes go through the auth flows.
func (s *UserService) AdminUpdate(ctx context.Context, id string, updates map[string]any) (*domain.User, error) {
	for k := range updates {
		if strings.Contains(strings.ToLower(k), "password") {
			return nil, ErrPasswordRouteForbidden
		}
	}
	if email, ok := updates["email"].(string); ok {
		updates["email"] = normalizeEmail(email)
	}
	if err := repo.UpdateUser(ctx, s.DB, id, updates); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return s.Get(ctx, id)
}

// AdminDelete hard-removes a user (admin CRUD).
func (s *UserService) AdminDelete(ctx context.Context, id string) error {
	err := repo.DeleteUser(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrUserNotFound
	}
	return err
}

// setPassword stores a fresh bcrypt hash, stamps PasswordChangedAt, and
// clears any outstanding reset token.
func (s *UserService) setPassword(ctx context.Context, userID, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return err
	}
	return repo.UpdateUser(ctx, s.DB, userID, map[string]any{
		"password_hash":          string(hash),
		"password_changed_at":    time.Now().UTC(),
		"password_reset_token":   "",
		"password_reset_expires": nil,
	})
}

// hashToken is the storage form of a reset token; only the hash ever touches
// the database.
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func checkPassword(password, confirm string) error {
	if len(password) < 8 {
		return ErrWeakPassword
	}
	if password != confirm {
		return ErrPasswordMismatch
	}
	return nil
}

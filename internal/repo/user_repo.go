// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the User model.
//
// Auth-sensitive lookups (by email, by reset token) intentionally include
// deactivated accounts only where the auth flow needs them; regular reads
// are scoped to active users.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/trailhead-app/go-tours-backend/internal/domain"
)

// CreateUser inserts a new user row with a generated UUID.
func CreateUser(ctx context.Context, db *gorm.DB, u *domain.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return db.WithContext(ctx).Create(u).Error
}

// GetUser fetches an active user by id, or ErrNotFound.
func GetUser(ctx context.Context, db *gorm.DB, id string) (*domain.User, error) {
	var u domain.User
	err := db.WithContext(ctx).
		Where("id = ? AND active = ?", id, true).
		First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByEmail fetches an active user by lowercased email, or ErrNotFound.
// Used by login, so the password hash is included.
func GetUserByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.User, error) {
	var u domain.User
	err := db.WithContext(ctx).
		Where("email = ? AND active = ?", email, true).
		First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByResetToken fetches a user whose hashed reset token matches and has
// not expired, or ErrNotFound.
func GetUserByResetToken(ctx context.Context, db *gorm.DB, hashedToken string, now time.Time) (*domain.User, error) {
	var u domain.User
	err := db.WithContext(ctx).
		Where("password_reset_token = ? AND password_reset_expires > ?", hashedToken, now).
		First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ListUsers returns a page of active users and the total count.
func ListUsers(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.User, int64, error) {
	base := db.WithContext(ctx).Model(&domain.User{}).Where("active = ?", true)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []domain.User
	err := base.Order("created_at desc").Offset(offset).Limit(limit).Find(&out).Error
	return out, total, err
}

// UpdateUser applies column updates to a user. Returns ErrNotFound when no
// row matched.
func UpdateUser(ctx context.Context, db *gorm.DB, id string, updates map[string]any) error {
	res := db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeactivateUser flips the active flag off, hiding the account from all
// regular reads without destroying its data.
func DeactivateUser(ctx context.Context, db *gorm.DB, id string) error {
	return UpdateUser(ctx, db, id, map[string]any{"active": false})
}

// DeleteUser hard-removes a user row (admin CRUD). Returns ErrNotFound when
// no row matched.
func DeleteUser(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).Delete(&domain.User{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

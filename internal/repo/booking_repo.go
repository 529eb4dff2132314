// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Booking
// model.
package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/trailhead-app/go-tours-backend/internal/domain"
)

// CreateBooking inserts a new booking with a generated UUID.
func CreateBooking(ctx context.Context, db *gorm.DB, b *domain.Booking) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return db.WithContext(ctx).Create(b).Error
}

// ListBookings returns a page of bookings and the total count. When userID is
// non-empty the result is scoped to that user's bookings.
func ListBookings(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.Booking, int64, error) {
	base := db.WithContext(ctx).Model(&domain.Booking{})
	if userID != "" {
		base = base.Where("user_id = ?", userID)
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []domain.Booking
	err := base.Order("created_at desc").Offset(offset).Limit(limit).Find(&out).Error
	return out, total, err
}

// ListBookedTours returns the tours a user has booked, for the "my tours"
// page.
func ListBookedTours(ctx context.Context, db *gorm.DB, userID string) ([]domain.Tour, error) {
	var bookings []domain.Booking
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}
	if len(bookings) == 0 {
		return nil, nil
	}
	ids := make([]string, 0, len(bookings))
	for _, b := range bookings {
		ids = append(ids, b.TourID)
	}
	var tours []domain.Tour
	err = db.WithContext(ctx).Where("id IN ?", ids).Find(&tours).Error
	return tours, err
}

// GetBooking fetches a booking by id, or ErrNotFound.
func GetBooking(ctx context.Context, db *gorm.DB, id string) (*domain.Booking, error) {
	var b domain.Booking
	if err := db.WithContext(ctx).First(&b, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

// UpdateBooking applies column updates to a booking. Returns ErrNotFound
// when no row matched.
func UpdateBooking(ctx context.Context, db *gorm.DB, id string, updates map[string]any) error {
	res := db.WithContext(ctx).
		Model(&domain.Booking{}).
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

// DeleteBooking soft-deletes a booking. Returns ErrNotFound when no row
// matched.
func DeleteBooking(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).Delete(&domain.Booking{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

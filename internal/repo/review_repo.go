// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Review
// model, including the rating-aggregate recomputation the review service
// relies on.
package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/trailhead-app/go-tours-backend/internal/domain"
)

// CreateReview inserts a new review with a generated UUID. The unique
// (tour_id, user_id) index rejects a second review from the same user.
func CreateReview(ctx context.Context, db *gorm.DB, r *domain.Review) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return db.WithContext(ctx).Create(r).Error
}

// ListReviews returns a page of reviews, optionally scoped to one tour,
// plus the total count.
func ListReviews(ctx context.Context, db *gorm.DB, tourID string, offset, limit int) ([]domain.Review, int64, error) {
	base := db.WithContext(ctx).Model(&domain.Review{})
	if tourID != "" {
		base = base.Where("tour_id = ?", tourID)
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []domain.Review
	err := base.Order("created_at desc").Offset(offset).Limit(limit).Find(&out).Error
	return out, total, err
}

// GetReview fetches a review by id, or ErrNotFound.
func GetReview(ctx context.Context, db *gorm.DB, id string) (*domain.Review, error) {
	var r domain.Review
	if err := db.WithContext(ctx).First(&r, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

// UpdateReview applies column updates to a review. Returns ErrNotFound when
// no row matched.
func UpdateReview(ctx context.Context, db *gorm.DB, id string, updates map[string]any) error {
	res := db.WithContext(ctx).
		Model(&domain.Review{}).
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

// DeleteReview soft-deletes a review. Returns ErrNotFound when no row
// matched.
func DeleteReview(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).Delete(&domain.Review{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ratingAgg carries the aggregate row of RatingStats.
type ratingAgg struct {
	Avg float64
	N   int64
}

// RatingStats computes the current average rating and review count for a
// tour. A tour without reviews reports the catalogue default of 4.5 with
// quantity 0, matching the column defaults.
func RatingStats(ctx context.Context, db *gorm.DB, tourID string) (avg float64, quantity int, err error) {
	var agg ratingAgg
	err = db.WithContext(ctx).
		Model(&domain.Review{}).
		Select("COALESCE(AVG(rating), 0) AS avg, COUNT(*) AS n").
		Where("tour_id = ?", tourID).
		Scan(&agg).Error
	if err != nil {
		return 0, 0, err
	}
	if agg.N == 0 {
		return 4.5, 0, nil
	}
	// One decimal, like the catalogue displays ratings.
	rounded := float64(int(agg.Avg*10+0.5)) / 10
	return rounded, int(agg.N), nil
}

// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Tour model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a tour is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/trailhead-app/go-tours-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateTour inserts a new tour. The ID is a freshly generated UUID.
func CreateTour(ctx context.Context, db *gorm.DB, t *domain.Tour) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return db.WithContext(ctx).Create(t).Error
}

// ListTours returns a page of public (non-secret) tours matching the parsed
// list query, plus the total count for pagination metadata.
func ListTours(ctx context.Context, db *gorm.DB, q ListQuery) ([]domain.Tour, int64, error) {
	base := db.WithContext(ctx).Model(&domain.Tour{}).Where("secret_tour = ?", false)
	for _, c := range q.Conds {
		if c.Op == "IN" {
			base = base.Where(fmt.Sprintf("%s IN ?", c.Column), c.Values)
		} else {
			base = base.Where(fmt.Sprintf("%s %s ?", c.Column, c.Op), c.Values[0])
		}
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query := base
	if len(q.Select) > 0 {
		query = query.Select(q.Select)
	}
	for _, o := range q.Order {
		query = query.Order(o)
	}
	if len(q.Order) == 0 {
		query = query.Order("created_at desc")
	}

	var out []domain.Tour
	err := query.Offset(q.Offset()).Limit(q.Limit).Find(&out).Error
	return out, total, err
}

// GetTour fetches a tour by id, or ErrNotFound.
func GetTour(ctx context.Context, db *gorm.DB, id string) (*domain.Tour, error) {
	var t domain.Tour
	if err := db.WithContext(ctx).First(&t, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// GetTourBySlug fetches a public tour by slug, or ErrNotFound.
func GetTourBySlug(ctx context.Context, db *gorm.DB, slug string) (*domain.Tour, error) {
	var t domain.Tour
	err := db.WithContext(ctx).
		Where("slug = ? AND secret_tour = ?", slug, false).
		First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// UpdateTour applies the given column updates to a tour. Returns ErrNotFound
// when no row matched.
func UpdateTour(ctx context.Context, db *gorm.DB, id string, updates map[string]any) error {
	res := db.WithContext(ctx).
		Model(&domain.Tour{}).
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

// DeleteTour soft-deletes a tour. Returns ErrNotFound when no row matched.
func DeleteTour(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).Delete(&domain.Tour{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// TourStats is one aggregate row of the tour statistics query, grouped by
// difficulty.
type TourStats struct {
	Difficulty string  `json:"difficulty"`
	NumTours   int64   `json:"numTours"`
	NumRatings int64   `json:"numRatings"`
	AvgRating  float64 `json:"avgRating"`
	AvgPrice   float64 `json:"avgPrice"`
	MinPrice   float64 `json:"minPrice"`
	MaxPrice   float64 `json:"maxPrice"`
}

// AggregateTourStats computes per-difficulty aggregates over well-rated
// public tours (ratingsAverage >= 4.5).
func AggregateTourStats(ctx context.Context, db *gorm.DB) ([]TourStats, error) {
	var out []TourStats
	err := db.WithContext(ctx).
		Model(&domain.Tour{}).
		Select(`difficulty,
			COUNT(*) AS num_tours,
			SUM(ratings_quantity) AS num_ratings,
			AVG(ratings_average) AS avg_rating,
			AVG(price) AS avg_price,
			MIN(price) AS min_price,
			MAX(price) AS max_price`).
		Where("ratings_average >= ? AND secret_tour = ?", 4.5, false).
		Group("difficulty").
		Order("avg_price").
		Scan(&out).Error
	return out, err
}

// ListToursStartingIn returns all public tours with at least one start date
// inside the given year. Start dates live in a JSON column, so the per-month
// bucketing happens in the service layer.
func ListToursStartingIn(ctx context.Context, db *gorm.DB, year int) ([]domain.Tour, error) {
	from := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(1, 0, 0)
	var out []domain.Tour
	err := db.WithContext(ctx).
		Where("secret_tour = ?", false).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	filtered := out[:0]
	for _, t := range out {
		for _, d := range t.StartDates {
			if !d.Before(from) && d.Before(to) {
				filtered = append(filtered, t)
				break
			}
		}
	}
	return filtered, nil
}

// AllPublicTours returns every non-secret tour. Geo queries filter these
// in the service layer because coordinates live in a JSON column.
func AllPublicTours(ctx context.Context, db *gorm.DB) ([]domain.Tour, error) {
	var out []domain.Tour
	err := db.WithContext(ctx).
		Where("secret_tour = ?", false).
		Order("name").
		Find(&out).Error
	return out, err
}

// UpdateTourRatings overwrites the denormalized rating aggregates of a tour.
func UpdateTourRatings(ctx context.Context, db *gorm.DB, tourID string, avg float64, quantity int) error {
	return db.WithContext(ctx).
		Model(&domain.Tour{}).
		Where("id = ?", tourID).
		Updates(map[string]any{
			"ratings_average":  avg,
			"ratings_quantity": quantity,
		}).Error
}

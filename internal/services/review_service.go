// Review business logic: CRUD with ownership checks plus maintenance of the
// denormalized rating aggregates on the reviewed tour.
package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/trailhead-app/go-tours-backend/internal/domain"
	"github.com/trailhead-app/go-tours-backend/internal/repo"
)

// ReviewService implements review operations.
// Safe for concurrent use; all methods honor the caller's context.
type ReviewService struct {
	DB *gorm.DB
}

// NewReviewService constructs a ReviewService bound to db.
func NewReviewService(db *gorm.DB) *ReviewService { return &ReviewService{DB: db} }

// Create stores a review and refreshes the tour's rating aggregates. A second
// review of the same tour by the same user is rejected.
func (s *ReviewService) Create(ctx context.Context, tourID, userID, text string, rating int) (*domain.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}
	if _, err := repo.GetTour(ctx, s.DB, tourID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrTourNotFound
		}
		return nil, err
	}
	r := &domain.Review{
		Review: strings.TrimSpace(text),
		Rating: rating,
		TourID: tourID,
		UserID: userID,
	}
	if err := repo.CreateReview(ctx, s.DB, r); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateReview
		}
		return nil, err
	}
	if err := s.refreshTourRatings(ctx, tourID); err != nil {
		return nil, err
	}
	return r, nil
}

// List returns a page of reviews, optionally scoped to one tour.
func (s *ReviewService) List(ctx context.Context, tourID string, offset, limit int) ([]domain.Review, int64, error) {
	return repo.ListReviews(ctx, s.DB, tourID, offset, limit)
}

// Get fetches a review by id.
func (s *ReviewService) Get(ctx context.Context, id string) (*domain.Review, error) {
	r, err := repo.GetReview(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrReviewNotFound
	}
	return r, err
}

// Update edits a review's text and/or rating. Only the author or an admin may
// edit; a changed rating refreshes the tour aggregates.
func (s *ReviewService) Update(ctx context.Context, id, actorID, actorRole string, text *string, rating *int) (*domain.Review, error) {
	r, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeReview(r, actorID, actorRole); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if text != nil {
		updates["review"] = strings.TrimSpace(*text)
	}
	if rating != nil {
		if *rating < 1 || *rating > 5 {
			return nil, ErrInvalidRating
		}
		updates["rating"] = *rating
	}
	if len(updates) > 0 {
		if err := repo.UpdateReview(ctx, s.DB, id, updates); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return nil, ErrReviewNotFound
			}
			return nil, err
		}
		if rating != nil {
			if err := s.refreshTourRatings(ctx, r.TourID); err != nil {
				return nil, err
			}
		}
	}
	return s.Get(ctx, id)
}

// Delete removes a review (author or admin only) and refreshes the tour
// aggregates.
func (s *ReviewService) Delete(ctx context.Context, id, actorID, actorRole string) error {
	r, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := authorizeReview(r, actorID, actorRole); err != nil {
		return err
	}
	if err := repo.DeleteReview(ctx, s.DB, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrReviewNotFound
		}
		return err
	}
	return s.refreshTourRatings(ctx, r.TourID)
}

// refreshTourRatings recomputes and stores the tour's rating aggregates.
func (s *ReviewService) refreshTourRatings(ctx context.Context, tourID string) error {
	avg, n, err := repo.RatingStats(ctx, s.DB, tourID)
	if err != nil {
		return err
	}
	return repo.UpdateTourRatings(ctx, s.DB, tourID, avg, n)
}

func authorizeReview(r *domain.Review, actorID, actorRole string) error {
	if actorRole == domain.RoleAdmin || r.UserID == actorID {
		return nil
	}
	return ErrNotReviewAuthor
}

// isUniqueViolation detects the driver's unique-constraint error text. The
// pure-Go sqlite driver does not expose typed constraint errors.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate")
}

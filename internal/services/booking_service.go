// Booking business logic: checkout session creation, webhook fulfillment with
// replay suppression, and the staff-facing booking CRUD.
package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/trailhead-app/go-tours-backend/internal/domain"
	"github.com/trailhead-app/go-tours-backend/internal/repo"
)

// CheckoutInput describes the session to create for a tour purchase.
type CheckoutInput struct {
	TourID        string
	TourName      string
	TourSummary   string
	ImageURL      string
	Price         float64 // major units
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
}

// CheckoutCreator starts a hosted checkout session with the payment provider.
// Implemented by the payments package; tests substitute a fake.
type CheckoutCreator interface {
	CreateCheckoutSession(ctx context.Context, in CheckoutInput) (sessionID, sessionURL string, err error)
}

// CheckoutCompleted is the provider-agnostic shape of a finished checkout,
// extracted from the verified webhook event.
type CheckoutCompleted struct {
	EventID       string
	TourID        string // client reference id
	CustomerEmail string
	AmountTotal   int64 // minor units
}

// BookingService implements purchase operations.
// Safe for concurrent use; all methods honor the caller's context.
type BookingService struct {
	DB       *gorm.DB
	Checkout CheckoutCreator
}

// StartCheckout creates a hosted checkout session for the given tour and
// customer.
func (s *BookingService) StartCheckout(ctx context.Context, tourID, email, successURL, cancelURL string) (sessionID, sessionURL string, err error) {
	t, err := repo.GetTour(ctx, s.DB, tourID)
	if errors.Is(err, repo.ErrNotFound) {
		return "", "", ErrTourNotFound
	}
	if err != nil {
		return "", "", err
	}
	return s.Checkout.CreateCheckoutSession(ctx, CheckoutInput{
		TourID:        t.ID,
		TourName:      t.Name,
		TourSummary:   t.Summary,
		ImageURL:      t.ImageCover,
		Price:         t.Price,
		CustomerEmail: email,
		SuccessURL:    successURL,
		CancelURL:     cancelURL,
	})
}

// HandleCheckoutCompleted fulfills a verified checkout event: it records the
// event id and, on first delivery, creates the paid booking. Replays are
// acknowledged without side effects. Marking and fulfillment share one
// transaction so a failed fulfillment is not mistaken for a replay when the
// provider retries.
func (s *BookingService) HandleCheckoutCompleted(ctx context.Context, ev CheckoutCompleted) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		seen, err := repo.MarkWebhookProcessed(ctx, tx, ev.EventID, "checkout.session.completed", time.Now().UTC())
		if err != nil {
			return err
		}
		if seen {
			log.Ctx(ctx).Info().Str("event_id", ev.EventID).Msg("duplicate checkout event ignored")
			return nil
		}

		u, err := repo.GetUserByEmail(ctx, tx, ev.CustomerEmail)
		if errors.Is(err, repo.ErrNotFound) {
			return ErrUserNotFound
		}
		if err != nil {
			return err
		}
		b := &domain.Booking{
			TourID: ev.TourID,
			UserID: u.ID,
			Price:  float64(ev.AmountTotal) / 100,
			Paid:   true,
		}
		return repo.CreateBooking(ctx, tx, b)
	})
}

// List returns a page of bookings, optionally scoped to one user.
func (s *BookingService) List(ctx context.Context, userID string, offset, limit int) ([]domain.Booking, int64, error) {
	return repo.ListBookings(ctx, s.DB, userID, offset, limit)
}

// BookedTours returns the tours a user has booked, for the "my tours" page.
func (s *BookingService) BookedTours(ctx context.Context, userID string) ([]domain.Tour, error) {
	return repo.ListBookedTours(ctx, s.DB, userID)
}

// Get fetches a booking by id.
func (s *BookingService) Get(ctx context.Context, id string) (*domain.Booking, error) {
	b, err := repo.GetBooking(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrBookingNotFound
	}
	return b, err
}

// Create inserts a manual booking (staff CRUD, outside the checkout flow).
func (s *BookingService) Create(ctx context.Context, tourID, userID string, price float64, paid bool) (*domain.Booking, error) {
	if _, err := repo.GetTour(ctx, s.DB, tourID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrTourNotFound
		}
		return nil, err
	}
	b := &domain.Booking{TourID: tourID, UserID: userID, Price: price, Paid: paid}
	if err := repo.CreateBooking(ctx, s.DB, b); err != nil {
		return nil, err
	}
	return b, nil
}

// Update applies column updates to a booking.
func (s *BookingService) Update(ctx context.Context, id string, updates map[string]any) (*domain.Booking, error) {
	if err := repo.UpdateBooking(ctx, s.DB, id, updates); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return s.Get(ctx, id)
}

// Delete removes a booking.
func (s *BookingService) Delete(ctx context.Context, id string) error {
	err := repo.DeleteBooking(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrBookingNotFound
	}
	return err
}

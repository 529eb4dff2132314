package repo

import (
	"context"
	"errors"
	"testing"

	"github.com/trailhead-app/go-tours-backend/internal/domain"
)

func TestCreateBooking_AndMyTours(t *testing.T) {
	db := newTestDB(t, &domain.Tour{}, &domain.User{}, &domain.Booking{})
	t1 := seedTour(t, db, "Booked One", nil)
	t2 := seedTour(t, db, "Booked Two", nil)
	seedTour(t, db, "Unbooked", nil)
	u := seedUser(t, db, "traveler@example.com", domain.RoleUser)

	for _, tour := range []*domain.Tour{t1, t2} {
		b := &domain.Booking{TourID: tour.ID, UserID: u.ID, Price: tour.Price, Paid: true}
		if err := CreateBooking(context.Background(), db, b); err != nil {
			t.Fatalf("CreateBooking: %v", err)
		}
		if b.ID == "" {
			t.Fatalf("expected generated UUID")
		}
	}

	tours, err := ListBookedTours(context.Background(), db, u.ID)
	if err != nil {
		t.Fatalf("ListBookedTours: %v", err)
	}
	if len(tours) != 2 {
		t.Fatalf("booked tours = %d", len(tours))
	}

	none, err := ListBookedTours(context.Background(), db, "nobody")
	if err != nil || none != nil {
		t.Fatalf("expected empty result, got %v %v", none, err)
	}
}

func TestListBookings_UserScope(t *testing.T) {
	db := newTestDB(t, &domain.Tour{}, &domain.User{}, &domain.Booking{})
	tour := seedTour(t, db, "Scoped", nil)
	u1 := seedUser(t, db, "one@example.com", domain.RoleUser)
	u2 := seedUser(t, db, "two@example.com", domain.RoleUser)

	for _, uid := range []string{u1.ID, u1.ID, u2.ID} {
		if err := CreateBooking(context.Background(), db, &domain.Booking{
			TourID: tour.ID, UserID: uid, Price: 100, Paid: true,
		}); err != nil {
			t.Fatalf("CreateBooking: %v", err)
		}
	}

	_, total, err := ListBookings(context.Background(), db, u1.ID, 0, 10)
	if err != nil || total != 2 {
		t.Fatalf("user scope total=%d err=%v", total, err)
	}
	_, totalAll, err := ListBookings(context.Background(), db, "", 0, 10)
	if err != nil || totalAll != 3 {
		t.Fatalf("admin scope total=%d err=%v", totalAll, err)
	}
}

func TestBookingUpdateDelete(t *testing.T) {
	db := newTestDB(t, &domain.Tour{}, &domain.User{}, &domain.Booking{})
	tour := seedTour(t, db, "Mut", nil)
	u := seedUser(t, db, "m@example.com", domain.RoleUser)
	b := &domain.Booking{TourID: tour.ID, UserID: u.ID, Price: 100, Paid: false}
	if err := CreateBooking(context.Background(), db, b); err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}

	if err := UpdateBooking(context.Background(), db, b.ID, map[string]any{"paid": true}); err != nil {
		t.Fatalf("UpdateBooking: %v", err)
	}
	got, err := GetBooking(context.Background(), db, b.ID)
	if err != nil || !got.Paid {
		t.Fatalf("paid=%v err=%v", got.Paid, err)
	}

	if err := DeleteBooking(context.Background(), db, b.ID); err != nil {
		t.Fatalf("DeleteBooking: %v", err)
	}
	if _, err := GetBooking(context.Background(), db, b.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("deleted booking still readable, err=%v", err)
	}
	if err := UpdateBooking(context.Background(), db, b.ID, map[string]any{"paid": false}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("update after delete should be ErrNotFound, got %v", err)
	}
}

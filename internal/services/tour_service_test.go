package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/trailhead-app/go-tours-backend/internal/domain"
	"github.com/trailhead-app/go-tours-backend/internal/repo"
)

func TestTourService_CreateDerivesSlug(t *testing.T) {
	svc := NewTourService(newTestDB(t))
	tour := mustCreateTour(t, svc, "The Forest Hiker")

	if tour.Slug != "the-forest-hiker" {
		t.Fatalf("slug = %q", tour.Slug)
	}
	if tour.RatingsAverage != 4.5 {
		t.Fatalf("default rating = %v", tour.RatingsAverage)
	}
}

func TestTourService_CreateRejectsBadDiscount(t *testing.T) {
	svc := NewTourService(newTestDB(t))
	_, err := svc.Create(context.Background(), TourInput{
		Name: "Bad Deal", Duration: 1, MaxGroupSize: 1,
		Difficulty: domain.DifficultyEasy,
		Price:      100, PriceDiscount: 100, Summary: "s",
	})
	if !errors.Is(err, ErrInvalidDiscount) {
		t.Fatalf("err = %v, want ErrInvalidDiscount", err)
	}
}

func TestTourService_CreateRejectsBadDates(t *testing.T) {
	svc := NewTourService(newTestDB(t))
	_, err := svc.Create(context.Background(), TourInput{
		Name: "Bad Dates", Duration: 1, MaxGroupSize: 1,
		Difficulty: domain.DifficultyEasy, Price: 100, Summary: "s",
		StartDates: []string{"next tuesday"},
	})
	if !errors.Is(err, ErrInvalidStartDate) {
		t.Fatalf("err = %v, want ErrInvalidStartDate", err)
	}
}

func TestTourService_UpdateReslugs(t *testing.T) {
	svc := NewTourService(newTestDB(t))
	tour := mustCreateTour(t, svc, "Old Name")

	got, err := svc.Update(context.Background(), tour.ID, map[string]any{"name": "New Name"})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Slug != "new-name" {
		t.Fatalf("slug = %q", got.Slug)
	}
}

func TestTourService_GetUnknown(t *testing.T) {
	svc := NewTourService(newTestDB(t))
	if _, err := svc.Get(context.Background(), "missing"); !errors.Is(err, ErrTourNotFound) {
		t.Fatalf("err = %v, want ErrTourNotFound", err)
	}
	if err := svc.Delete(context.Background(), "missing"); !errors.Is(err, ErrTourNotFound) {
		t.Fatalf("delete err = %v, want ErrTourNotFound", err)
	}
}

func TestTourService_MonthlyPlan(t *testing.T) {
	db := newTestDB(t)
	svc := NewTourService(db)

	july := time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)
	aug1 := time.Date(2026, 8, 3, 9, 0, 0, 0, time.UTC)
	aug2 := time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)
	for name, dates := range map[string][]time.Time{
		"Tour A": {july, aug1},
		"Tour B": {aug2},
	} {
		tour := mustCreateTour(t, svc, name)
		if err := repo.UpdateTour(context.Background(), db, tour.ID,
			map[string]any{"start_dates": dates}); err != nil {
			t.Fatalf("set dates: %v", err)
		}
	}

	plan, err := svc.MonthlyPlan(context.Background(), 2026)
	if err != nil {
		t.Fatalf("MonthlyPlan: %v", err)
	}
	if len(plan) != 2 {
		t.Fatalf("months = %d, want 2", len(plan))
	}
	// August has two starts, so it leads.
	if plan[0].Month != 8 || plan[0].NumTourStarts != 2 {
		t.Fatalf("first bucket = %+v", plan[0])
	}
	if plan[1].Month != 7 || plan[1].NumTourStarts != 1 {
		t.Fatalf("second bucket = %+v", plan[1])
	}
}

func TestTourService_WithinAndDistances(t *testing.T) {
	db := newTestDB(t)
	svc := NewTourService(db)

	near := mustCreateTour(t, svc, "Near Miami")
	far := mustCreateTour(t, svc, "Far Away")
	// Move the far tour's start point to Los Angeles.
	if err := repo.UpdateTour(context.Background(), db, far.ID, map[string]any{
		"start_location": domain.Location{Coordinates: [2]float64{-118.24, 34.05}},
	}); err != nil {
		t.Fatalf("relocate: %v", err)
	}

	got, err := svc.Within(context.Background(), 300, "25.77,-80.18", "mi")
	if err != nil {
		t.Fatalf("Within: %v", err)
	}
	if len(got) != 1 || got[0].ID != near.ID {
		t.Fatalf("within = %v", got)
	}

	dists, err := svc.Distances(context.Background(), "25.77,-80.18", "mi")
	if err != nil {
		t.Fatalf("Distances: %v", err)
	}
	if len(dists) != 2 {
		t.Fatalf("distances = %d entries", len(dists))
	}
	if dists[0].ID != near.ID {
		t.Fatalf("nearest = %q, want %q", dists[0].ID, near.ID)
	}
	if dists[1].Distance < 2000 || dists[1].Distance > 2600 {
		t.Fatalf("Miami to LA = %.0f mi", dists[1].Distance)
	}
}

func TestTourService_WithinBadInputs(t *testing.T) {
	svc := NewTourService(newTestDB(t))
	if _, err := svc.Within(context.Background(), 10, "25.77", "mi"); !errors.Is(err, ErrInvalidCoordinates) {
		t.Fatalf("err = %v, want ErrInvalidCoordinates", err)
	}
	if _, err := svc.Within(context.Background(), 10, "25.77,-80.18", "furlongs"); !errors.Is(err, ErrInvalidUnit) {
		t.Fatalf("err = %v, want ErrInvalidUnit", err)
	}
}

func TestParseLatLng(t *testing.T) {
	lat, lng, err := ParseLatLng("34.111745,-118.113491")
	if err != nil {
		t.Fatalf("ParseLatLng: %v", err)
	}
	if lat != 34.111745 || lng != -118.113491 {
		t.Fatalf("got %v,%v", lat, lng)
	}
	for _, bad := range []string{"", "x,y", "91,0", "0,181", "1,2,3"} {
		if _, _, err := ParseLatLng(bad); err == nil {
			t.Fatalf("ParseLatLng(%q) accepted", bad)
		}
	}
}

// Tour business logic: catalogue CRUD, aggregate statistics, the monthly
// start plan, and geo queries over the JSON-stored tour locations.
package services

import (
	"context"
	"errors"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/trailhead-app/go-tours-backend/internal/domain"
	"github.com/trailhead-app/go-tours-backend/internal/repo"
	"github.com/trailhead-app/go-tours-backend/internal/utils"
)

// Earth radius by unit, used to convert between distances and radians.
const (
	earthRadiusMi = 3963.2
	earthRadiusKm = 6378.1
)

// TourService implements catalogue operations on top of the tour repository.
// Safe for concurrent use; all methods honor the caller's context.
type TourService struct {
	DB *gorm.DB
}

// NewTourService constructs a TourService bound to db.
func NewTourService(db *gorm.DB) *TourService { return &TourService{DB: db} }

// TourInput carries the writable tour fields for create and update.
type TourInput struct {
	Name          string
	Duration      int
	MaxGroupSize  int
	Difficulty    string
	Price         float64
	PriceDiscount float64
	Summary       string
	Description   string
	ImageCover    string
	Images        []string
	StartDates    []string // RFC 3339
	SecretTour    bool
	StartLocation domain.Location
	Locations     []domain.Location
}

// Create validates the input, derives the slug, and persists a new tour.
func (s *TourService) Create(ctx context.Context, in TourInput) (*domain.Tour, error) {
	if in.PriceDiscount > 0 && in.PriceDiscount >= in.Price {
		return nil, ErrInvalidDiscount
	}
	dates, err := parseDates(in.StartDates)
	if err != nil {
		return nil, err
	}
	t := &domain.Tour{
		Name:           strings.TrimSpace(in.Name),
		Slug:           utils.Slugify(in.Name),
		Duration:       in.Duration,
		MaxGroupSize:   in.MaxGroupSize,
		Difficulty:     in.Difficulty,
		RatingsAverage: 4.5,
		Price:          in.Price,
		PriceDiscount:  in.PriceDiscount,
		Summary:        strings.TrimSpace(in.Summary),
		Description:    in.Description,
		ImageCover:     in.ImageCover,
		Images:         in.Images,
		StartDates:     dates,
		SecretTour:     in.SecretTour,
		StartLocation:  in.StartLocation,
		Locations:      in.Locations,
	}
	if err := repo.CreateTour(ctx, s.DB, t); err != nil {
		return nil, err
	}
	return t, nil
}

// List returns a page of public tours for the parsed list query.
func (s *TourService) List(ctx context.Context, q repo.ListQuery) ([]domain.Tour, int64, error) {
	return repo.ListTours(ctx, s.DB, q)
}

// Get fetches a tour by id.
func (s *TourService) Get(ctx context.Context, id string) (*domain.Tour, error) {
	t, err := repo.GetTour(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrTourNotFound
	}
	return t, err
}

// GetBySlug fetches a public tour by its slug (view pages).
func (s *TourService) GetBySlug(ctx context.Context, slug string) (*domain.Tour, error) {
	t, err := repo.GetTourBySlug(ctx, s.DB, slug)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrTourNotFound
	}
	return t, err
}

// Update applies a partial update. A name change re-derives the slug.
func (s *TourService) Update(ctx context.Context, id string, updates map[string]any) (*domain.Tour, error) {
	if price, hasPrice := toFloat(updates["price"]); hasPrice {
		if disc, hasDisc := toFloat(updates["price_discount"]); hasDisc && disc > 0 && disc >= price {
			return nil, ErrInvalidDiscount
		}
	}
	if name, ok := updates["name"].(string); ok && name != "" {
		updates["slug"] = utils.Slugify(name)
	}
	err := repo.UpdateTour(ctx, s.DB, id, updates)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrTourNotFound
	}
	if err != nil {
		return nil, err
	}
	return repo.GetTour(ctx, s.DB, id)
}

// Delete soft-deletes a tour.
func (s *TourService) Delete(ctx context.Context, id string) error {
	err := repo.DeleteTour(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrTourNotFound
	}
	return err
}

// Stats returns per-difficulty aggregates over well-rated tours.
func (s *TourService) Stats(ctx context.Context) ([]repo.TourStats, error) {
	return repo.AggregateTourStats(ctx, s.DB)
}

// MonthPlan is one month's bucket of the yearly start plan.
type MonthPlan struct {
	Month         int      `json:"month"`
	NumTourStarts int      `json:"numTourStarts"`
	Tours         []string `json:"tours"`
}

// MonthlyPlan buckets the year's tour starts per month, busiest month first.
func (s *TourService) MonthlyPlan(ctx context.Context, year int) ([]MonthPlan, error) {
	tours, err := repo.ListToursStartingIn(ctx, s.DB, year)
	if err != nil {
		return nil, err
	}
	byMonth := map[int][]string{}
	for _, t := range tours {
		for _, d := range t.StartDates {
			if d.Year() == year {
				m := int(d.Month())
				byMonth[m] = append(byMonth[m], t.Name)
			}
		}
	}
	plan := make([]MonthPlan, 0, len(byMonth))
	for m, names := range byMonth {
		plan = append(plan, MonthPlan{Month: m, NumTourStarts: len(names), Tours: names})
	}
	sort.Slice(plan, func(i, j int) bool {
		if plan[i].NumTourStarts != plan[j].NumTourStarts {
			return plan[i].NumTourStarts > plan[j].NumTourStarts
		}
		return plan[i].Month < plan[j].Month
	})
	return plan, nil
}

// Within returns public tours whose start location lies within distance
// (in the given unit) of the latlng center.
func (s *TourService) Within(ctx context.Context, distance float64, latlng, unit string) ([]domain.Tour, error) {
	lat, lng, err := ParseLatLng(latlng)
	if err != nil {
		return nil, err
	}
	radius, err := earthRadius(unit)
	if err != nil {
		return nil, err
	}
	tours, err := repo.AllPublicTours(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	out := tours[:0]
	for _, t := range tours {
		d := haversine(lat, lng, t.StartLocation.Lat(), t.StartLocation.Lng(), radius)
		if d <= distance {
			out = append(out, t)
		}
	}
	return out, nil
}

// TourDistance pairs a tour with its distance from a query point.
type TourDistance struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Distance float64 `json:"distance"`
}

// Distances computes the distance from the latlng point to every public
// tour's start location, nearest first.
func (s *TourService) Distances(ctx context.Context, latlng, unit string) ([]TourDistance, error) {
	lat, lng, err := ParseLatLng(latlng)
	if err != nil {
		return nil, err
	}
	radius, err := earthRadius(unit)
	if err != nil {
		return nil, err
	}
	tours, err := repo.AllPublicTours(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	out := make([]TourDistance, 0, len(tours))
	for _, t := range tours {
		out = append(out, TourDistance{
			ID:       t.ID,
			Name:     t.Name,
			Distance: haversine(lat, lng, t.StartLocation.Lat(), t.StartLocation.Lng(), radius),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Distance < out[j].Distance })
	return out, nil
}

// ParseLatLng splits a "lat,lng" path segment into its components.
func ParseLatLng(latlng string) (lat, lng float64, err error) {
	parts := strings.Split(latlng, ",")
	if len(parts) != 2 {
		return 0, 0, ErrInvalidCoordinates
	}
	lat, err1 := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	lng, err2 := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err1 != nil || err2 != nil || lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return 0, 0, ErrInvalidCoordinates
	}
	return lat, lng, nil
}

func earthRadius(unit string) (float64, error) {
	switch unit {
	case "mi":
		return earthRadiusMi, nil
	case "km":
		return earthRadiusKm, nil
	default:
		return 0, ErrInvalidUnit
	}
}

// haversine returns the great-circle distance between two points on a sphere
// of the given radius.
func haversine(lat1, lng1, lat2, lng2, radius float64) float64 {
	const degToRad = math.Pi / 180
	dLat := (lat2 - lat1) * degToRad
	dLng := (lng2 - lng1) * degToRad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*degToRad)*math.Cos(lat2*degToRad)*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * radius * math.Asin(math.Sqrt(a))
}

// parseDates parses RFC 3339 start dates, rejecting malformed values with an
// operational error surfaced as a 400 by the classifier.
func parseDates(in []string) ([]time.Time, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make([]time.Time, 0, len(in))
	for _, s := range in {
		d, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return nil, ErrInvalidStartDate
		}
		out = append(out, d.UTC())
	}
	return out, nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

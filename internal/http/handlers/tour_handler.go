// Package handlers provides HTTP handler implementations for the public API.
//
// This file implements the tour catalogue endpoints: CRUD, the top-5-cheap
// alias, aggregate statistics, the monthly start plan, and the geo queries.
package handlers

import (
	"net/url"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/trailhead-app/go-tours-backend/internal/apperr"
	"github.com/trailhead-app/go-tours-backend/internal/domain"
	"github.com/trailhead-app/go-tours-backend/internal/repo"
	"github.com/trailhead-app/go-tours-backend/internal/services"
)

// TourHandler exposes the tour endpoints.
type TourHandler struct {
	Tours *services.TourService
}

// tourBody is the JSON shape accepted by create.
type tourBody struct {
	Name          string            `json:"name" binding:"required"`
	Duration      int               `json:"duration" binding:"required"`
	MaxGroupSize  int               `json:"maxGroupSize" binding:"required"`
	Difficulty    string            `json:"difficulty" binding:"required"`
	Price         float64           `json:"price" binding:"required"`
	PriceDiscount float64           `json:"priceDiscount"`
	Summary       string            `json:"summary" binding:"required"`
	Description   string            `json:"description"`
	ImageCover    string            `json:"imageCover"`
	Images        []string          `json:"images"`
	StartDates    []string          `json:"startDates"`
	SecretTour    bool              `json:"secretTour"`
	StartLocation domain.Location   `json:"startLocation"`
	Locations     []domain.Location `json:"locations"`
}

// tourPatch is the JSON shape accepted by update; nil means "leave alone".
type tourPatch struct {
	Name          *string            `json:"name"`
	Duration      *int               `json:"duration"`
	MaxGroupSize  *int               `json:"maxGroupSize"`
	Difficulty    *string            `json:"difficulty"`
	Price         *float64           `json:"price"`
	PriceDiscount *float64           `json:"priceDiscount"`
	Summary       *string            `json:"summary"`
	Description   *string            `json:"description"`
	ImageCover    *string            `json:"imageCover"`
	Images        *[]string          `json:"images"`
	StartDates    *[]string          `json:"startDates"`
	SecretTour    *bool              `json:"secretTour"`
	StartLocation *domain.Location   `json:"startLocation"`
	Locations     *[]domain.Location `json:"locations"`
}

// List handles GET /api/v1/tours with filtering, sorting, projection, and
// pagination via the query string.
func (h *TourHandler) List(c *gin.Context) {
	q := repo.ParseListQuery(c.Request.URL.Query())
	tours, _, err := h.Tours.List(c.Request.Context(), q)
	if err != nil {
		abortWith(c, err)
		return
	}
	list(c, len(tours), gin.H{"tours": tours})
}

// TopCheap handles GET /api/v1/tours/top-5-cheap by presetting the list
// query before delegating to List.
func (h *TourHandler) TopCheap(c *gin.Context) {
	c.Request.URL.RawQuery = url.Values{
		"limit":  {"5"},
		"sort":   {"-ratingsAverage,price"},
		"fields": {"name,price,ratingsAverage,summary,difficulty"},
	}.Encode()
	h.List(c)
}

// Create handles POST /api/v1/tours.
func (h *TourHandler) Create(c *gin.Context) {
	var body tourBody
	if err := c.ShouldBindJSON(&body); err != nil {
		abortWith(c, apperr.BadRequest("Invalid input data. "+err.Error()))
		return
	}
	tour, err := h.Tours.Create(c.Request.Context(), services.TourInput{
		Name:          body.Name,
		Duration:      body.Duration,
		MaxGroupSize:  body.MaxGroupSize,
		Difficulty:    body.Difficulty,
		Price:         body.Price,
		PriceDiscount: body.PriceDiscount,
		Summary:       body.Summary,
		Description:   body.Description,
		ImageCover:    body.ImageCover,
		Images:        body.Images,
		StartDates:    body.StartDates,
		SecretTour:    body.SecretTour,
		StartLocation: body.StartLocation,
		Locations:     body.Locations,
	})
	if err != nil {
		abortWith(c, err)
		return
	}
	created(c, gin.H{"tour": tour})
}

// Get handles GET /api/v1/tours/:id.
func (h *TourHandler) Get(c *gin.Context) {
	tour, err := h.Tours.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWith(c, err)
		return
	}
	ok(c, gin.H{"tour": tour})
}

// Update handles PATCH /api/v1/tours/:id.
func (h *TourHandler) Update(c *gin.Context) {
	var patch tourPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		abortWith(c, apperr.BadRequest("Invalid input data. "+err.Error()))
		return
	}
	updates, err := patch.columns()
	if err != nil {
		abortWith(c, err)
		return
	}
	tour, err := h.Tours.Update(c.Request.Context(), c.Param("id"), updates)
	if err != nil {
		abortWith(c, err)
		return
	}
	ok(c, gin.H{"tour": tour})
}

// Delete handles DELETE /api/v1/tours/:id.
func (h *TourHandler) Delete(c *gin.Context) {
	if err := h.Tours.Delete(c.Request.Context(), c.Param("id")); err != nil {
		abortWith(c, err)
		return
	}
	noContent(c)
}

// Stats handles GET /api/v1/tours/tour-stats.
func (h *TourHandler) Stats(c *gin.Context) {
	stats, err := h.Tours.Stats(c.Request.Context())
	if err != nil {
		abortWith(c, err)
		return
	}
	ok(c, gin.H{"stats": stats})
}

// MonthlyPlan handles GET /api/v1/tours/monthly-plan/:year.
func (h *TourHandler) MonthlyPlan(c *gin.Context) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		abortWith(c, apperr.BadRequest("Please provide a valid year"))
		return
	}
	plan, err := h.Tours.MonthlyPlan(c.Request.Context(), year)
	if err != nil {
		abortWith(c, err)
		return
	}
	list(c, len(plan), gin.H{"plan": plan})
}

// Within handles GET /api/v1/tours/tours-within/:distance/center/:latlng/unit/:unit.
func (h *TourHandler) Within(c *gin.Context) {
	distance, err := strconv.ParseFloat(c.Param("distance"), 64)
	if err != nil || distance < 0 {
		abortWith(c, apperr.BadRequest("Please provide a valid distance"))
		return
	}
	tours, err := h.Tours.Within(c.Request.Context(), distance, c.Param("latlng"), c.Param("unit"))
	if err != nil {
		abortWith(c, err)
		return
	}
	list(c, len(tours), gin.H{"tours": tours})
}

// Distances handles GET /api/v1/tours/distances/:latlng/unit/:unit.
func (h *TourHandler) Distances(c *gin.Context) {
	dists, err := h.Tours.Distances(c.Request.Context(), c.Param("latlng"), c.Param("unit"))
	if err != nil {
		abortWith(c, err)
		return
	}
	list(c, len(dists), gin.H{"distances": dists})
}

// columns translates the patch into storage column updates. Start dates are
// parsed here so the service sees typed values.
func (p *tourPatch) columns() (map[string]any, error) {
	updates := map[string]any{}
	if p.Name != nil {
		updates["name"] = *p.Name
	}
	if p.Duration != nil {
		updates["duration"] = *p.Duration
	}
	if p.MaxGroupSize != nil {
		updates["max_group_size"] = *p.MaxGroupSize
	}
	if p.Difficulty != nil {
		updates["difficulty"] = *p.Difficulty
	}
	if p.Price != nil {
		updates["price"] = *p.Price
	}
	if p.PriceDiscount != nil {
		updates["price_discount"] = *p.PriceDiscount
	}
	if p.Summary != nil {
		updates["summary"] = *p.Summary
	}
	if p.Description != nil {
		updates["description"] = *p.Description
	}
	if p.ImageCover != nil {
		updates["image_cover"] = *p.ImageCover
	}
	if p.Images != nil {
		updates["images"] = *p.Images
	}
	if p.SecretTour != nil {
		updates["secret_tour"] = *p.SecretTour
	}
	if p.StartLocation != nil {
		updates["start_location"] = *p.StartLocation
	}
	if p.Locations != nil {
		updates["locations"] = *p.Locations
	}
	if p.StartDates != nil {
		dates := make([]time.Time, 0, len(*p.StartDates))
		for _, s := range *p.StartDates {
			d, err := time.Parse(time.RFC3339, s)
			if err != nil {
				return nil, services.ErrInvalidStartDate
			}
			dates = append(dates, d.UTC())
		}
		updates["start_dates"] = dates
	}
	return updates, nil
}

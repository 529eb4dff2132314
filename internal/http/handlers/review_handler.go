// Package handlers provides HTTP handler implementations for the public API.
//
// This file implements the review endpoints, mounted both standalone at
// /api/v1/reviews and nested under /api/v1/tours/:id/reviews. The nested form
// pins the tour id from the path; the author is always the authenticated
// user.
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/trailhead-app/go-tours-backend/internal/apperr"
	"github.com/trailhead-app/go-tours-backend/internal/http/middleware"
	"github.com/trailhead-app/go-tours-backend/internal/services"
)

// ReviewHandler exposes the review endpoints.
type ReviewHandler struct {
	Reviews *services.ReviewService
}

// List handles GET /api/v1/reviews and GET /api/v1/tours/:id/reviews.
func (h *ReviewHandler) List(c *gin.Context) {
	offset, limit := pageParams(c)
	reviews, _, err := h.Reviews.List(c.Request.Context(), c.Param("id"), offset, limit)
	if err != nil {
		abortWith(c, err)
		return
	}
	list(c, len(reviews), gin.H{"reviews": reviews})
}

// Create handles POST /api/v1/reviews and POST /api/v1/tours/:id/reviews.
// The tour id comes from the path when nested, the body otherwise.
func (h *ReviewHandler) Create(c *gin.Context) {
	var body struct {
		Review string `json:"review" binding:"required"`
		Rating int    `json:"rating" binding:"required"`
		TourID string `json:"tour"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		abortWith(c, apperr.BadRequest("Invalid input data. "+err.Error()))
		return
	}
	tourID := c.Param("id")
	if tourID == "" {
		tourID = body.TourID
	}
	if tourID == "" {
		abortWith(c, apperr.BadRequest("Please provide the tour being reviewed"))
		return
	}

	review, err := h.Reviews.Create(c.Request.Context(), tourID, middleware.CurrentUser(c).ID, body.Review, body.Rating)
	if err != nil {
		abortWith(c, err)
		return
	}
	created(c, gin.H{"review": review})
}

// Get handles GET /api/v1/reviews/:id.
func (h *ReviewHandler) Get(c *gin.Context) {
	review, err := h.Reviews.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWith(c, err)
		return
	}
	ok(c, gin.H{"review": review})
}

// Update handles PATCH /api/v1/reviews/:id (author or admin).
func (h *ReviewHandler) Update(c *gin.Context) {
	var body struct {
		Review *string `json:"review"`
		Rating *int    `json:"rating"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		abortWith(c, apperr.BadRequest("Invalid input data. "+err.Error()))
		return
	}
	u := middleware.CurrentUser(c)
	review, err := h.Reviews.Update(c.Request.Context(), c.Param("id"), u.ID, u.Role, body.Review, body.Rating)
	if err != nil {
		abortWith(c, err)
		return
	}
	ok(c, gin.H{"review": review})
}

// Delete handles DELETE /api/v1/reviews/:id (author or admin).
func (h *ReviewHandler) Delete(c *gin.Context) {
	u := middleware.CurrentUser(c)
	if err := h.Reviews.Delete(c.Request.Context(), c.Param("id"), u.ID, u.Role); err != nil {
		abortWith(c, err)
		return
	}
	noContent(c)
}

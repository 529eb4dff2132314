// Package handlers provides HTTP handler implementations for the public API
// and the server-rendered pages.
//
// This file implements the page routes: the tour overview, the tour detail
// page, the login form, the account page, and the list of booked tours.
// Templates receive the current user (when logged in) so the header can show
// session state.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/trailhead-app/go-tours-backend/internal/http/middleware"
	"github.com/trailhead-app/go-tours-backend/internal/repo"
	"github.com/trailhead-app/go-tours-backend/internal/services"
)

// ViewHandler renders the server-side pages.
type ViewHandler struct {
	Tours    *services.TourService
	Bookings *services.BookingService
	Reviews  *services.ReviewService
}

// Overview handles GET /, the public tour catalogue.
func (h *ViewHandler) Overview(c *gin.Context) {
	tours, _, err := h.Tours.List(c.Request.Context(), repo.ListQuery{Limit: repo.DefaultPageSize})
	if err != nil {
		abortWith(c, err)
		return
	}
	c.HTML(http.StatusOK, "overview.html", gin.H{
		"title": "All Tours",
		"tours": tours,
		"user":  middleware.CurrentUser(c),
	})
}

// Tour handles GET /tour/:slug, the tour detail page with its reviews.
func (h *ViewHandler) Tour(c *gin.Context) {
	tour, err := h.Tours.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		abortWith(c, err)
		return
	}
	reviews, _, err := h.Reviews.List(c.Request.Context(), tour.ID, 0, repo.DefaultPageSize)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.HTML(http.StatusOK, "tour.html", gin.H{
		"title":   tour.Name + " Tour",
		"tour":    tour,
		"reviews": reviews,
		"user":    middleware.CurrentUser(c),
	})
}

// Login handles GET /login, the login form.
func (h *ViewHandler) Login(c *gin.Context) {
	c.HTML(http.StatusOK, "login.html", gin.H{
		"title": "Log into your account",
		"user":  middleware.CurrentUser(c),
	})
}

// Account handles GET /me, the authenticated account page.
func (h *ViewHandler) Account(c *gin.Context) {
	c.HTML(http.StatusOK, "account.html", gin.H{
		"title": "Your account",
		"user":  middleware.CurrentUser(c),
	})
}

// MyTours handles GET /my-tours, the authenticated list of booked tours.
func (h *ViewHandler) MyTours(c *gin.Context) {
	tours, err := h.Bookings.BookedTours(c.Request.Context(), middleware.CurrentUser(c).ID)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.HTML(http.StatusOK, "my-tours.html", gin.H{
		"title": "My Tours",
		"tours": tours,
		"user":  middleware.CurrentUser(c),
	})
}

// Package handlers provides HTTP handler implementations for the public API.
//
// This file implements the purchase endpoints: checkout session creation, the
// payment provider webhook, and the staff booking CRUD. The webhook route is
// wired before the body-rewriting middleware so the signature check runs over
// the exact bytes the provider signed.
package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/trailhead-app/go-tours-backend/internal/apperr"
	"github.com/trailhead-app/go-tours-backend/internal/http/middleware"
	"github.com/trailhead-app/go-tours-backend/internal/services"
)

// WebhookVerifier checks a provider signature over the raw payload and
// extracts the checkout completion, reporting handled=false for event types
// this application ignores.
type WebhookVerifier interface {
	VerifyCheckoutEvent(payload []byte, sigHeader string) (ev services.CheckoutCompleted, handled bool, err error)
}

// BookingHandler exposes the purchase endpoints.
type BookingHandler struct {
	Bookings *services.BookingService
	Verifier WebhookVerifier
}

// CheckoutSession handles GET /api/v1/bookings/checkout-session/:tourId
// (protected). The session redirects back into the site on completion or
// cancellation.
func (h *BookingHandler) CheckoutSession(c *gin.Context) {
	u := middleware.CurrentUser(c)
	origin := schemeOf(c) + "://" + c.Request.Host

	id, url, err := h.Bookings.StartCheckout(
		c.Request.Context(),
		c.Param("tourId"),
		u.Email,
		origin+"/my-tours",
		origin+"/",
	)
	if err != nil {
		abortWith(c, err)
		return
	}
	ok(c, gin.H{"session": gin.H{"id": id, "url": url}})
}

// Webhook handles POST /webhook-checkout. It reads the raw body bytes,
// verifies the provider signature, and fulfills completed checkouts. Replays
// and ignored event types are acknowledged with 200 so the provider stops
// retrying; verification failures get 400.
func (h *BookingHandler) Webhook(c *gin.Context) {
	if h.Verifier == nil {
		abortWith(c, apperr.BadRequest("Payments are not configured"))
		return
	}
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		abortWith(c, apperr.BadRequest("Could not read webhook payload"))
		return
	}

	ev, handled, err := h.Verifier.VerifyCheckoutEvent(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		abortWith(c, apperr.BadRequest("Webhook signature verification failed"))
		return
	}
	if !handled {
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	if err := h.Bookings.HandleCheckoutCompleted(c.Request.Context(), ev); err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}

// List handles GET /api/v1/bookings (staff).
func (h *BookingHandler) List(c *gin.Context) {
	offset, limit := pageParams(c)
	bookings, _, err := h.Bookings.List(c.Request.Context(), c.Query("user"), offset, limit)
	if err != nil {
		abortWith(c, err)
		return
	}
	list(c, len(bookings), gin.H{"bookings": bookings})
}

// Create handles POST /api/v1/bookings (staff), for bookings made outside
// the checkout flow.
func (h *BookingHandler) Create(c *gin.Context) {
	var body struct {
		Tour  string  `json:"tour" binding:"required"`
		User  string  `json:"user" binding:"required"`
		Price float64 `json:"price" binding:"required"`
		Paid  bool    `json:"paid"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		abortWith(c, apperr.BadRequest("Invalid input data. "+err.Error()))
		return
	}
	b, err := h.Bookings.Create(c.Request.Context(), body.Tour, body.User, body.Price, body.Paid)
	if err != nil {
		abortWith(c, err)
		return
	}
	created(c, gin.H{"booking": b})
}

// Get handles GET /api/v1/bookings/:id (staff).
func (h *BookingHandler) Get(c *gin.Context) {
	b, err := h.Bookings.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWith(c, err)
		return
	}
	ok(c, gin.H{"booking": b})
}

// Update handles PATCH /api/v1/bookings/:id (staff).
func (h *BookingHandler) Update(c *gin.Context) {
	var body struct {
		Price *float64 `json:"price"`
		Paid  *bool    `json:"paid"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		abortWith(c, apperr.BadRequest("Invalid input data. "+err.Error()))
		return
	}
	updates := map[string]any{}
	if body.Price != nil {
		updates["price"] = *body.Price
	}
	if body.Paid != nil {
		updates["paid"] = *body.Paid
	}
	b, err := h.Bookings.Update(c.Request.Context(), c.Param("id"), updates)
	if err != nil {
		abortWith(c, err)
		return
	}
	ok(c, gin.H{"booking": b})
}

// Delete handles DELETE /api/v1/bookings/:id (staff).
func (h *BookingHandler) Delete(c *gin.Context) {
	if err := h.Bookings.Delete(c.Request.Context(), c.Param("id")); err != nil {
		abortWith(c, err)
		return
	}
	noContent(c)
}

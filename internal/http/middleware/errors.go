// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file holds the terminal error classifier. Handlers and earlier
// middleware never write error responses themselves; they attach the error to
// the Gin context and abort. After the chain unwinds, the classifier maps
// whatever was collected to one response:
//
//   - service sentinels and storage errors map to their operational status
//   - operational errors render their own message
//   - anything else is a programming fault: logged in full, shown to clients
//     as a generic 500 outside development
//
// API routes (/api/...) receive the {status, message} JSON envelope; page
// routes receive the rendered error template.
package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"

	"github.com/trailhead-app/go-tours-backend/internal/apperr"
	"github.com/trailhead-app/go-tours-backend/internal/services"
)

// ErrorHandler returns the terminal classifier middleware. dev switches on
// verbose client responses (underlying error text included).
func ErrorHandler(dev bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		if c.Writer.Written() {
			// A response already went out; just log what was collected.
			LoggerFrom(c).Error().Str("errors", c.Errors.String()).Msg("errors after response written")
			return
		}

		ae := Classify(c.Errors.Last().Err)

		if !ae.Operational {
			LoggerFrom(c).Error().Err(ae.Err).Int("status", ae.Status).Msg("unexpected error")
		}

		message := ae.Message
		if !ae.Operational && !dev {
			message = "Something went very wrong!"
		}

		if isAPIRequest(c) {
			body := gin.H{
				"status":  ae.StatusLabel(),
				"message": message,
			}
			if dev && ae.Err != nil {
				body["error"] = ae.Err.Error()
			}
			c.JSON(ae.Status, body)
			return
		}

		c.HTML(ae.Status, "error.html", gin.H{
			"title":   "Something went wrong!",
			"message": message,
		})
	}
}

// Classify maps an arbitrary error onto the uniform fault shape. Service
// sentinels, storage errors, and token errors all land on their operational
// status; unknown errors become programming faults.
func Classify(err error) *apperr.Error {
	switch {
	case err == nil:
		return apperr.Internal(nil)

	// Not found.
	case errors.Is(err, services.ErrTourNotFound),
		errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrReviewNotFound),
		errors.Is(err, services.ErrBookingNotFound):
		return apperr.NotFound(err.Error())
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperr.NotFound("No document found with that ID")

	// Validation.
	case errors.Is(err, services.ErrInvalidDiscount),
		errors.Is(err, services.ErrInvalidCoordinates),
		errors.Is(err, services.ErrInvalidUnit),
		errors.Is(err, services.ErrInvalidStartDate),
		errors.Is(err, services.ErrWeakPassword),
		errors.Is(err, services.ErrPasswordMismatch),
		errors.Is(err, services.ErrInvalidRating),
		errors.Is(err, services.ErrDuplicateReview),
		errors.Is(err, services.ErrResetTokenInvalid),
		errors.Is(err, services.ErrPasswordRouteForbidden):
		return apperr.BadRequest(err.Error())
	case errors.Is(err, services.ErrEmailTaken):
		return apperr.BadRequest("Duplicate field value. Please use another value!")
	case isUniqueViolation(err):
		return apperr.BadRequest("Duplicate field value. Please use another value!")

	// Authentication and authorization.
	case errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, services.ErrWrongPassword):
		return apperr.Unauthorized(err.Error())
	case errors.Is(err, jwt.ErrTokenExpired):
		return apperr.Unauthorized("Your token has expired! Please log in again.")
	case errors.Is(err, jwt.ErrTokenMalformed),
		errors.Is(err, jwt.ErrSignatureInvalid),
		errors.Is(err, jwt.ErrTokenNotValidYet):
		return apperr.Unauthorized("Invalid token. Please log in again!")
	case errors.Is(err, services.ErrNotReviewAuthor):
		return apperr.Forbidden(err.Error())
	}

	return apperr.From(err)
}

// isAPIRequest distinguishes JSON clients from rendered pages by route
// prefix. Webhook deliveries count as API clients.
func isAPIRequest(c *gin.Context) bool {
	path := c.Request.URL.Path
	return strings.HasPrefix(path, "/api") || strings.HasPrefix(path, "/webhook")
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

// Package services defines the business logic for tours, users, reviews, and
// bookings. This file centralizes common service-level error values so that
// they can be consistently returned by service methods and checked by callers.
//
// These errors are intended for internal use by the service layer; translation
// into user-facing messages and HTTP status codes is performed by the terminal
// error classifier in the HTTP layer.
package services

import "errors"

// Tour-related errors.
var (
	// ErrTourNotFound indicates that the requested tour does not exist or is
	// hidden from the caller.
	ErrTourNotFound = errors.New("tour not found")

	// ErrInvalidDiscount is returned when a price discount is not below the
	// regular price.
	ErrInvalidDiscount = errors.New("discount price must be below regular price")

	// ErrInvalidCoordinates is returned when a latlng path segment cannot be
	// parsed into a latitude/longitude pair.
	ErrInvalidCoordinates = errors.New("please provide latitude and longitude in the format lat,lng")

	// ErrInvalidUnit is returned when a distance unit is neither mi nor km.
	ErrInvalidUnit = errors.New("unit must be mi or km")

	// ErrInvalidStartDate is returned when a start date is not RFC 3339.
	ErrInvalidStartDate = errors.New("start dates must be RFC 3339 timestamps")
)

// User/auth-related errors.
var (
	// ErrUserNotFound indicates that the requested user does not exist or is
	// deactivated.
	ErrUserNotFound = errors.New("user not found")

	// ErrEmailTaken is returned when signing up with an already registered
	// email address.
	ErrEmailTaken = errors.New("email already in use")

	// ErrInvalidCredentials is returned when login email or password is wrong.
	// Deliberately indistinguishable between the two cases.
	ErrInvalidCredentials = errors.New("incorrect email or password")

	// ErrWrongPassword is returned when the current password supplied to a
	// password change does not match.
	ErrWrongPassword = errors.New("your current password is wrong")

	// ErrWeakPassword is returned when a password is shorter than 8 characters.
	ErrWeakPassword = errors.New("password must be at least 8 characters")

	// ErrPasswordMismatch is returned when password and passwordConfirm differ.
	ErrPasswordMismatch = errors.New("passwords do not match")

	// ErrResetTokenInvalid is returned when a password reset token is unknown
	// or expired.
	ErrResetTokenInvalid = errors.New("token is invalid or has expired")

	// ErrPasswordRouteForbidden is returned when a generic update attempts to
	// change a password; password changes go through the dedicated auth flows.
	ErrPasswordRouteForbidden = errors.New("this route is not for password updates")
)

// Review-related errors.
var (
	// ErrReviewNotFound indicates that the requested review does not exist.
	ErrReviewNotFound = errors.New("review not found")

	// ErrDuplicateReview is returned when a user reviews the same tour twice.
	ErrDuplicateReview = errors.New("you have already reviewed this tour")

	// ErrInvalidRating is returned when a rating falls outside 1..5.
	ErrInvalidRating = errors.New("rating must be between 1 and 5")

	// ErrNotReviewAuthor is returned when a non-admin edits someone else's
	// review.
	ErrNotReviewAuthor = errors.New("you can only modify your own reviews")
)

// Booking-related errors.
var (
	// ErrBookingNotFound indicates that the requested booking does not exist.
	ErrBookingNotFound = errors.New("booking not found")
)

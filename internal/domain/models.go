// Package domain defines the persistence models for tours, users, reviews,
// and bookings. These types are mapped with GORM and form the core data layer
// of the booking application.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// User roles.
const (
	RoleUser      = "user"
	RoleGuide     = "guide"
	RoleLeadGuide = "lead-guide"
	RoleAdmin     = "admin"
)

// Tour difficulties.
const (
	DifficultyEasy      = "easy"
	DifficultyMedium    = "medium"
	DifficultyDifficult = "difficult"
)

// Location is a geo point attached to a tour, either as its start location or
// as one of the itinerary stops. Stored as a JSON column on the tour row.
type Location struct {
	// Coordinates are [longitude, latitude], matching GeoJSON ordering.
	Coordinates [2]float64 `json:"coordinates"`
	Address     string     `json:"address,omitempty"`
	Description string     `json:"description,omitempty"`
	Day         int        `json:"day,omitempty"`
}

// Lng returns the longitude component.
func (l Location) Lng() float64 { return l.Coordinates[0] }

// Lat returns the latitude component.
func (l Location) Lat() float64 { return l.Coordinates[1] }

// Tour is a bookable product. Ratings fields are denormalized aggregates
// maintained by the review service whenever a review is written or removed.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - Name: unique display name; Slug is derived from it and also unique.
//   - SecretTour: hidden from public listings when true.
//   - StartLocation / Locations / Images / StartDates: JSON-serialized columns.
//   - DeletedAt: soft deletion marker.
type Tour struct {
	ID              string         `json:"id"               gorm:"type:char(36);primaryKey"`
	Name            string         `json:"name"             gorm:"type:varchar(40);not null;uniqueIndex"`
	Slug            string         `json:"slug"             gorm:"type:varchar(64);not null;uniqueIndex"`
	Duration        int            `json:"duration"         gorm:"not null"`
	MaxGroupSize    int            `json:"maxGroupSize"     gorm:"not null"`
	Difficulty      string         `json:"difficulty"       gorm:"type:varchar(16);not null;check:difficulty IN ('easy','medium','difficult')"`
	RatingsAverage  float64        `json:"ratingsAverage"   gorm:"not null;default:4.5"`
	RatingsQuantity int            `json:"ratingsQuantity"  gorm:"not null;default:0"`
	Price           float64        `json:"price"            gorm:"not null"`
	PriceDiscount   float64        `json:"priceDiscount,omitempty"`
	Summary         string         `json:"summary"          gorm:"type:text;not null"`
	Description     string         `json:"description,omitempty" gorm:"type:text"`
	ImageCover      string         `json:"imageCover"       gorm:"type:varchar(255)"`
	Images          []string       `json:"images,omitempty"      gorm:"serializer:json"`
	StartDates      []time.Time    `json:"startDates,omitempty"  gorm:"serializer:json"`
	SecretTour      bool           `json:"-"                gorm:"not null;default:false"`
	StartLocation   Location       `json:"startLocation"    gorm:"serializer:json"`
	Locations       []Location     `json:"locations,omitempty" gorm:"serializer:json"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
	DeletedAt       gorm.DeletedAt `json:"-"                gorm:"index"`
}

// TableName returns the database table name for Tour.
func (Tour) TableName() string { return "tours" }

// User is an account that can book tours and leave reviews. The password is
// stored only as a bcrypt hash and never serialized. Active=false marks a
// soft-deactivated account (self-service "delete me").
type User struct {
	ID                   string         `json:"id"    gorm:"type:char(36);primaryKey"`
	Name                 string         `json:"name"  gorm:"type:varchar(64);not null"`
	Email                string         `json:"email" gorm:"type:varchar(255);not null;uniqueIndex"`
	Photo                string         `json:"photo,omitempty" gorm:"type:varchar(255);default:'default.jpg'"`
	Role                 string         `json:"role"  gorm:"type:varchar(16);not null;default:'user';check:role IN ('user','guide','lead-guide','admin')"`
	PasswordHash         string         `json:"-"     gorm:"type:varchar(128);not null"`
	PasswordChangedAt    *time.Time     `json:"-"`
	PasswordResetToken   string         `json:"-"     gorm:"type:varchar(64);index"`
	PasswordResetExpires *time.Time     `json:"-"`
	Active               bool           `json:"-"     gorm:"not null;default:true"`
	CreatedAt            time.Time      `json:"createdAt"`
	UpdatedAt            time.Time      `json:"updatedAt"`
	DeletedAt            gorm.DeletedAt `json:"-"     gorm:"index"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// PasswordChangedAfter reports whether the password changed after the given
// instant (used to invalidate tokens issued before a password change).
// Timestamps are compared at second granularity, matching JWT claims.
func (u *User) PasswordChangedAfter(t time.Time) bool {
	if u.PasswordChangedAt == nil {
		return false
	}
	return u.PasswordChangedAt.Truncate(time.Second).After(t.Truncate(time.Second))
}

// Review is a user's rating of a tour. One review per (tour, user) is
// enforced by a unique index; the review service keeps the tour's rating
// aggregates in sync.
type Review struct {
	ID        string         `json:"id"     gorm:"type:char(36);primaryKey"`
	Review    string         `json:"review" gorm:"type:text;not null"`
	Rating    int            `json:"rating" gorm:"not null;check:rating BETWEEN 1 AND 5"`
	TourID    string         `json:"tour_id" gorm:"type:char(36);not null;index;uniqueIndex:ux_review_tour_user"`
	UserID    string         `json:"user_id" gorm:"type:char(36);not null;index;uniqueIndex:ux_review_tour_user"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `json:"-"      gorm:"index"`

	// Tour is the reviewed product. Reviews are cascade-deleted with it.
	Tour Tour `json:"-" gorm:"foreignKey:TourID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	User User `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Review.
func (Review) TableName() string { return "reviews" }

// Booking records a purchase of a tour by a user. Paid is false only for
// bookings created manually by staff outside the checkout flow.
type Booking struct {
	ID        string         `json:"id"      gorm:"type:char(36);primaryKey"`
	TourID    string         `json:"tour_id" gorm:"type:char(36);not null;index"`
	UserID    string         `json:"user_id" gorm:"type:char(36);not null;index"`
	Price     float64        `json:"price"   gorm:"not null"`
	Paid      bool           `json:"paid"    gorm:"not null;default:true"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `json:"-"       gorm:"index"`

	Tour Tour `json:"tour,omitempty" gorm:"foreignKey:TourID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	User User `json:"-"              gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Booking.
func (Booking) TableName() string { return "bookings" }

// WebhookEvent records a processed payment-provider event id so webhook
// replays do not create duplicate bookings.
type WebhookEvent struct {
	ID          string    `gorm:"type:varchar(255);primaryKey"` // provider event id
	Type        string    `gorm:"type:varchar(64);not null"`
	ProcessedAt time.Time `gorm:"not null"`
}

// TableName returns the database table name for WebhookEvent.
func (WebhookEvent) TableName() string { return "webhook_events" }

// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging, panic recovery, metrics, CORS,
// security headers, body sanitization, parameter dedupe, compression, and
// rate limiting.
//
// Middleware order matters, and two placements are deliberate:
//
//   - The payment webhook is registered BEFORE the body cap and the body
//     sanitizer, so its signature check runs over the exact bytes the
//     provider signed.
//   - The rate limiter is attached to the /api group only; rendered pages and
//     the webhook are not metered.
package httpapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/trailhead-app/go-tours-backend/internal/config"
	"github.com/trailhead-app/go-tours-backend/internal/domain"
	"github.com/trailhead-app/go-tours-backend/internal/http/handlers"
	"github.com/trailhead-app/go-tours-backend/internal/http/middleware"
	"github.com/trailhead-app/go-tours-backend/internal/services"
)

// RegisterRoutes attaches all middleware and endpoints to the given Gin
// engine. verifier may be nil when no payment provider is configured; the
// webhook then rejects all deliveries.
//
// Chain, outermost first:
//  1. OpenTelemetry tracing
//  2. RequestID
//  3. CORS
//  4. Security headers
//  5. Access logging (development only)
//  6. Prometheus metrics (+ /metrics endpoint)
//  7. Panic recovery
//  8. Terminal error classifier
//  9. POST /webhook-checkout (raw body, registered before body rewriting)
//  10. Body size cap
//  11. JSON body sanitization
//  12. Query parameter dedupe
//  13. gzip compression
//  14. Request timestamp
//  15. Routes; /api additionally gets the per-IP rate limiter
func RegisterRoutes(r *gin.Engine, db *gorm.DB, verifier handlers.WebhookVerifier, cfg config.Config) {
	// Services and handlers.
	tourSvc := services.NewTourService(db)
	userSvc := &services.UserService{
		DB:        db,
		Secret:    cfg.JWT.Secret,
		ExpiresIn: cfg.JWT.ExpiresIn,
		Mailer:    services.LogMailer{Logger: log.Logger},
	}
	reviewSvc := services.NewReviewService(db)
	var checkout services.CheckoutCreator
	if cc, ok := verifier.(services.CheckoutCreator); ok {
		checkout = cc
	}
	bookingSvc := &services.BookingService{DB: db, Checkout: checkout}

	tours := &handlers.TourHandler{Tours: tourSvc}
	users := &handlers.UserHandler{Users: userSvc, CookieTTL: cfg.JWT.CookieExpires}
	reviews := &handlers.ReviewHandler{Reviews: reviewSvc}
	bookings := &handlers.BookingHandler{Bookings: bookingSvc, Verifier: verifier}
	views := &handlers.ViewHandler{Tours: tourSvc, Bookings: bookingSvc, Reviews: reviewSvc}

	// 1) Trace all HTTP requests.
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs.
	r.Use(middleware.RequestID())

	// 3) CORS posture (allow all when no allowlist configured).
	r.Use(corsMiddleware(cfg))

	// 4) Security headers (HSTS only when enabled and request is HTTPS).
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS: cfg.Security.EnableHSTS,
		HSTSMaxAge: cfg.Security.HSTSMaxAge,
	}))

	// 5) Verbose access logs in development only.
	if cfg.IsDevelopment() {
		r.Use(middleware.Logger())
	}

	// 6) Prometheus metrics and /metrics endpoint.
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Panic recovery.
	r.Use(middleware.Recovery())

	// 8) Terminal error classifier: every collected error leaves through here.
	r.Use(middleware.ErrorHandler(cfg.IsDevelopment()))

	// Static assets.
	r.Static("/public", cfg.PublicDir)

	// 9) Payment webhook, registered before the body-rewriting middleware so
	// the handler sees the raw payload.
	r.POST("/webhook-checkout", bookings.Webhook)

	// 10) Global JSON body cap.
	r.Use(limitBody(cfg.MaxBodyBytes))

	// 11) Strip injection keys and escape markup in JSON bodies.
	r.Use(middleware.SanitizeBody())

	// 12) Collapse polluted query parameters.
	r.Use(middleware.DedupeParams())

	// 13) Compress responses.
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// 14) Stamp arrival time.
	r.Use(middleware.RequestedAt())

	// Fallback: unmatched routes.
	r.NoRoute(func(c *gin.Context) {
		msg := fmt.Sprintf("Can't find %s on this server!", c.Request.URL.Path)
		if strings.HasPrefix(c.Request.URL.Path, "/api") {
			c.JSON(http.StatusNotFound, gin.H{"status": "fail", "message": msg})
			return
		}
		c.HTML(http.StatusNotFound, "error.html", gin.H{
			"title":   "Something went wrong!",
			"message": msg,
		})
	})

	// Liveness.
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	protect := middleware.Protect(userSvc)
	staffOnly := middleware.RestrictTo(domain.RoleAdmin, domain.RoleLeadGuide)

	// 15) Versioned API, rate limited per client IP.
	rl := middleware.NewIPLimiter(cfg.RateLimit.Max, cfg.RateLimit.Window)
	api := r.Group("/api/v1", rl.Handler())
	{
		t := api.Group("/tours")
		{
			t.GET("", tours.List)
			t.POST("", protect, staffOnly, tours.Create)
			t.GET("/top-5-cheap", tours.TopCheap)
			t.GET("/tour-stats", tours.Stats)
			t.GET("/monthly-plan/:year", protect,
				middleware.RestrictTo(domain.RoleAdmin, domain.RoleLeadGuide, domain.RoleGuide),
				tours.MonthlyPlan)
			t.GET("/tours-within/:distance/center/:latlng/unit/:unit", tours.Within)
			t.GET("/distances/:latlng/unit/:unit", tours.Distances)
			t.GET("/:id", tours.Get)
			t.PATCH("/:id", protect, staffOnly, tours.Update)
			t.DELETE("/:id", protect, staffOnly, tours.Delete)

			// Nested reviews.
			t.GET("/:id/reviews", reviews.List)
			t.POST("/:id/reviews", protect, middleware.RestrictTo(domain.RoleUser), reviews.Create)
		}

		u := api.Group("/users")
		{
			u.POST("/signup", users.Signup)
			u.POST("/login", users.Login)
			u.GET("/logout", users.Logout)
			u.POST("/forgotPassword", users.ForgotPassword)
			u.PATCH("/resetPassword/:token", users.ResetPassword)

			u.PATCH("/updateMyPassword", protect, users.UpdatePassword)
			u.GET("/me", protect, users.Me)
			u.PATCH("/updateMe", protect, users.UpdateMe)
			u.DELETE("/deleteMe", protect, users.DeleteMe)

			admin := u.Group("", protect, middleware.RestrictTo(domain.RoleAdmin))
			{
				admin.GET("", users.List)
				admin.POST("", users.Create)
				admin.GET("/:id", users.Get)
				admin.PATCH("/:id", users.Update)
				admin.DELETE("/:id", users.Delete)
			}
		}

		rv := api.Group("/reviews")
		{
			rv.GET("", reviews.List)
			rv.POST("", protect, middleware.RestrictTo(domain.RoleUser), reviews.Create)
			rv.GET("/:id", reviews.Get)
			rv.PATCH("/:id", protect, reviews.Update)
			rv.DELETE("/:id", protect, reviews.Delete)
		}

		b := api.Group("/bookings", protect)
		{
			b.GET("/checkout-session/:tourId", bookings.CheckoutSession)

			staff := b.Group("", staffOnly)
			{
				staff.GET("", bookings.List)
				staff.POST("", bookings.Create)
				staff.GET("/:id", bookings.Get)
				staff.PATCH("/:id", bookings.Update)
				staff.DELETE("/:id", bookings.Delete)
			}
		}
	}

	// Rendered pages.
	maybeUser := middleware.MaybeUser(userSvc)
	r.GET("/", maybeUser, views.Overview)
	r.GET("/tour/:slug", maybeUser, views.Tour)
	r.GET("/login", maybeUser, views.Login)
	r.GET("/me", protect, views.Account)
	r.GET("/my-tours", protect, views.MyTours)
}

// corsMiddleware builds the CORS layer: wide open without an allowlist
// (credentials disabled), origin-checked otherwise.
func corsMiddleware(cfg config.Config) gin.HandlerFunc {
	common := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders: []string{"X-Request-ID", "Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		common.AllowAllOrigins = true
		common.AllowCredentials = false
		return cors.New(common)
	}
	common.AllowOrigins = cfg.CORS.AllowedOrigins
	common.AllowCredentials = true
	return cors.New(common)
}

// limitBody caps the request body size using http.MaxBytesReader; oversized
// bodies error on read and classify as 413.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements JWT authentication and role authorization. Protect
// accepts a token from the Authorization: Bearer header or the "jwt" cookie,
// verifies it, loads the account, and rejects tokens issued before the last
// password change. RestrictTo then gates routes by role. MaybeUser is the
// soft variant used by server-rendered pages, which never fails the request.
package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/trailhead-app/go-tours-backend/internal/apperr"
	"github.com/trailhead-app/go-tours-backend/internal/domain"
	"github.com/trailhead-app/go-tours-backend/internal/services"
)

// Gin context keys set by the auth middleware.
const (
	CtxUserIDKey      = "userID"
	CtxUserKey        = "currentUser"
	CtxUserRoleKey    = "userRole"
	CtxRequestedAtKey = "requestedAt"
)

// JWTCookieName is the cookie that carries the session token.
const JWTCookieName = "jwt"

// Protect requires a valid JWT and an existing, active account. On success
// the user id, role, and full record are stored in the Gin context.
func Protect(users *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, err := resolveUser(c, users)
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}
		setCurrentUser(c, u)
		c.Next()
	}
}

// MaybeUser resolves the current user when a valid token is present and
// silently continues otherwise. Used by the rendered pages so headers can
// show login state.
func MaybeUser(users *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if u, err := resolveUser(c, users); err == nil {
			setCurrentUser(c, u)
		}
		c.Next()
	}
}

// RestrictTo allows only the listed roles past. Must run after Protect.
func RestrictTo(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *gin.Context) {
		role, _ := c.Get(CtxUserRoleKey)
		if s, ok := role.(string); !ok || !allowed[s] {
			_ = c.Error(apperr.Forbidden("You do not have permission to perform this action"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated user stored by Protect, or nil.
func CurrentUser(c *gin.Context) *domain.User {
	if v, ok := c.Get(CtxUserKey); ok {
		if u, ok := v.(*domain.User); ok {
			return u
		}
	}
	return nil
}

func setCurrentUser(c *gin.Context, u *domain.User) {
	c.Set(CtxUserIDKey, u.ID)
	c.Set(CtxUserRoleKey, u.Role)
	c.Set(CtxUserKey, u)
}

// resolveUser extracts, verifies, and dereferences the session token.
func resolveUser(c *gin.Context, users *services.UserService) (*domain.User, error) {
	token := tokenFrom(c)
	if token == "" {
		return nil, apperr.Unauthorized("You are not logged in! Please log in to get access.")
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return []byte(users.Secret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperr.Unauthorized("Your token has expired! Please log in again.")
		}
		return nil, apperr.Unauthorized("Invalid token. Please log in again!")
	}

	u, err := users.Get(c.Request.Context(), claims.Subject)
	if errors.Is(err, services.ErrUserNotFound) {
		return nil, apperr.Unauthorized("The user belonging to this token does no longer exist.")
	}
	if err != nil {
		return nil, err
	}

	issued := time.Time{}
	if claims.IssuedAt != nil {
		issued = claims.IssuedAt.Time
	}
	if u.PasswordChangedAfter(issued) {
		return nil, apperr.Unauthorized("User recently changed password! Please log in again.")
	}
	return u, nil
}

// tokenFrom pulls the JWT from the Authorization header, falling back to the
// session cookie.
func tokenFrom(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if cookie, err := c.Cookie(JWTCookieName); err == nil {
		return cookie
	}
	return ""
}

// SetSessionCookie writes the JWT session cookie. Secure is set when the
// request arrived over HTTPS.
func SetSessionCookie(c *gin.Context, token string, ttl time.Duration) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(JWTCookieName, token, int(ttl.Seconds()), "/", "", isHTTPS(c.Request), true)
}

// ClearSessionCookie overwrites the session cookie with a short-lived dummy,
// logging the browser out.
func ClearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(JWTCookieName, "loggedout", 10, "/", "", isHTTPS(c.Request), true)
}

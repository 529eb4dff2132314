// Package handlers provides HTTP handler implementations for the public API.
//
// This file implements the account endpoints: signup/login/logout, the
// password reset flow, the authenticated "me" routes, and the admin user
// CRUD. Successful authentication responds with the token in the body and
// mirrors it into the session cookie for browser clients.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/trailhead-app/go-tours-backend/internal/apperr"
	"github.com/trailhead-app/go-tours-backend/internal/domain"
	"github.com/trailhead-app/go-tours-backend/internal/http/middleware"
	"github.com/trailhead-app/go-tours-backend/internal/services"
	"github.com/trailhead-app/go-tours-backend/internal/sysutil"
)

// UserHandler exposes the account endpoints.
type UserHandler struct {
	Users     *services.UserService
	CookieTTL time.Duration
}

// Signup handles POST /api/v1/users/signup.
func (h *UserHandler) Signup(c *gin.Context) {
	var body struct {
		Name            string `json:"name" binding:"required"`
		Email           string `json:"email" binding:"required,email"`
		Password        string `json:"password" binding:"required"`
		PasswordConfirm string `json:"passwordConfirm" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		abortWith(c, apperr.BadRequest("Invalid input data. "+err.Error()))
		return
	}
	u, token, err := h.Users.Signup(c.Request.Context(), services.SignupInput{
		Name:            body.Name,
		Email:           body.Email,
		Password:        body.Password,
		PasswordConfirm: body.PasswordConfirm,
	})
	if err != nil {
		abortWith(c, err)
		return
	}
	h.sendToken(c, http.StatusCreated, token, u)
}

// Login handles POST /api/v1/users/login.
func (h *UserHandler) Login(c *gin.Context) {
	var body struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		abortWith(c, apperr.BadRequest("Please provide email and password!"))
		return
	}
	u, token, err := h.Users.Login(c.Request.Context(), body.Email, body.Password)
	if err != nil {
		abortWith(c, err)
		return
	}
	h.sendToken(c, http.StatusOK, token, u)
}

// Logout handles GET /api/v1/users/logout by expiring the session cookie.
func (h *UserHandler) Logout(c *gin.Context) {
	middleware.ClearSessionCookie(c)
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// ForgotPassword handles POST /api/v1/users/forgotPassword.
func (h *UserHandler) ForgotPassword(c *gin.Context) {
	var body struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		abortWith(c, apperr.BadRequest("Please provide your email address"))
		return
	}
	base := sysutil.FirstNonEmpty(c.GetHeader("X-Forwarded-Host"), c.Request.Host)
	resetBase := schemeOf(c) + "://" + base + "/api/v1/users/resetPassword"
	if err := h.Users.ForgotPassword(c.Request.Context(), body.Email, resetBase); err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Token sent to email!"})
}

// ResetPassword handles PATCH /api/v1/users/resetPassword/:token.
func (h *UserHandler) ResetPassword(c *gin.Context) {
	var body struct {
		Password        string `json:"password" binding:"required"`
		PasswordConfirm string `json:"passwordConfirm" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		abortWith(c, apperr.BadRequest("Invalid input data. "+err.Error()))
		return
	}
	token, err := h.Users.ResetPassword(c.Request.Context(), c.Param("token"), body.Password, body.PasswordConfirm)
	if err != nil {
		abortWith(c, err)
		return
	}
	middleware.SetSessionCookie(c, token, h.CookieTTL)
	c.JSON(http.StatusOK, gin.H{"status": "success", "token": token})
}

// UpdatePassword handles PATCH /api/v1/users/updateMyPassword (protected).
func (h *UserHandler) UpdatePassword(c *gin.Context) {
	var body struct {
		PasswordCurrent string `json:"passwordCurrent" binding:"required"`
		Password        string `json:"password" binding:"required"`
		PasswordConfirm string `json:"passwordConfirm" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		abortWith(c, apperr.BadRequest("Invalid input data. "+err.Error()))
		return
	}
	u := middleware.CurrentUser(c)
	token, err := h.Users.UpdatePassword(c.Request.Context(), u.ID, body.PasswordCurrent, body.Password, body.PasswordConfirm)
	if err != nil {
		abortWith(c, err)
		return
	}
	h.sendToken(c, http.StatusOK, token, u)
}

// Me handles GET /api/v1/users/me (protected).
func (h *UserHandler) Me(c *gin.Context) {
	ok(c, gin.H{"user": middleware.CurrentUser(c)})
}

// UpdateMe handles PATCH /api/v1/users/updateMe (protected). Password fields
// are rejected so credential changes cannot sneak through a profile update.
func (h *UserHandler) UpdateMe(c *gin.Context) {
	var raw map[string]any
	if err := c.ShouldBindJSON(&raw); err != nil {
		abortWith(c, apperr.BadRequest("Invalid input data. "+err.Error()))
		return
	}
	if _, has := raw["password"]; has {
		abortWith(c, apperr.BadRequest("This route is not for password updates. Please use /updateMyPassword."))
		return
	}
	if _, has := raw["passwordConfirm"]; has {
		abortWith(c, apperr.BadRequest("This route is not for password updates. Please use /updateMyPassword."))
		return
	}
	name, _ := raw["name"].(string)
	email, _ := raw["email"].(string)
	photo, _ := raw["photo"].(string)

	u, err := h.Users.UpdateMe(c.Request.Context(), middleware.CurrentUser(c).ID, name, email, photo)
	if err != nil {
		abortWith(c, err)
		return
	}
	ok(c, gin.H{"user": u})
}

// DeleteMe handles DELETE /api/v1/users/deleteMe (protected) by deactivating
// the account.
func (h *UserHandler) DeleteMe(c *gin.Context) {
	if err := h.Users.DeactivateMe(c.Request.Context(), middleware.CurrentUser(c).ID); err != nil {
		abortWith(c, err)
		return
	}
	noContent(c)
}

// List handles GET /api/v1/users (admin).
func (h *UserHandler) List(c *gin.Context) {
	offset, limit := pageParams(c)
	users, _, err := h.Users.List(c.Request.Context(), offset, limit)
	if err != nil {
		abortWith(c, err)
		return
	}
	list(c, len(users), gin.H{"users": users})
}

// Create handles POST /api/v1/users (admin). Accounts are only created via
// signup, so this is a defined-but-unsupported route.
func (h *UserHandler) Create(c *gin.Context) {
	abortWith(c, apperr.New(http.StatusInternalServerError, "This route is not defined! Please use /signup instead"))
}

// Get handles GET /api/v1/users/:id (admin).
func (h *UserHandler) Get(c *gin.Context) {
	u, err := h.Users.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWith(c, err)
		return
	}
	ok(c, gin.H{"user": u})
}

// Update handles PATCH /api/v1/users/:id (admin).
func (h *UserHandler) Update(c *gin.Context) {
	var body struct {
		Name  *string `json:"name"`
		Email *string `json:"email"`
		Photo *string `json:"photo"`
		Role  *string `json:"role"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		abortWith(c, apperr.BadRequest("Invalid input data. "+err.Error()))
		return
	}
	updates := map[string]any{}
	if body.Name != nil {
		updates["name"] = *body.Name
	}
	if body.Email != nil {
		updates["email"] = *body.Email
	}
	if body.Photo != nil {
		updates["photo"] = *body.Photo
	}
	if body.Role != nil {
		updates["role"] = *body.Role
	}
	u, err := h.Users.AdminUpdate(c.Request.Context(), c.Param("id"), updates)
	if err != nil {
		abortWith(c, err)
		return
	}
	ok(c, gin.H{"user": u})
}

// Delete handles DELETE /api/v1/users/:id (admin).
func (h *UserHandler) Delete(c *gin.Context) {
	if err := h.Users.AdminDelete(c.Request.Context(), c.Param("id")); err != nil {
		abortWith(c, err)
		return
	}
	noContent(c)
}

// sendToken writes the auth success envelope and mirrors the JWT into the
// session cookie.
func (h *UserHandler) sendToken(c *gin.Context, status int, token string, u *domain.User) {
	middleware.SetSessionCookie(c, token, h.CookieTTL)
	c.JSON(status, gin.H{
		"status": "success",
		"token":  token,
		"data":   gin.H{"user": u},
	})
}

func schemeOf(c *gin.Context) string {
	if c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https" {
		return "https"
	}
	return "http"
}

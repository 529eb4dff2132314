// Package handlers provides HTTP handler implementations for the public API
// and the server-rendered pages.
//
// This file defines the response conventions shared by every endpoint.
// Success responses use the envelope
//
//	HTTP/1.1 200 OK
//	{ "status": "success", "results": 3, "data": { "tours": [...] } }
//
// ("results" appears on list responses only). Handlers never write error
// bodies themselves: failures are attached to the Gin context and the
// terminal classifier middleware renders them after the chain unwinds, so
// every error leaves through a single door.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/trailhead-app/go-tours-backend/internal/repo"
	"github.com/trailhead-app/go-tours-backend/internal/utils"
)

// envelope wraps a payload in the standard success shape.
func envelope(data gin.H) gin.H {
	return gin.H{"status": "success", "data": data}
}

// ok writes a 200 success envelope.
func ok(c *gin.Context, data gin.H) {
	c.JSON(http.StatusOK, envelope(data))
}

// created writes a 201 success envelope.
func created(c *gin.Context, data gin.H) {
	c.JSON(http.StatusCreated, envelope(data))
}

// list writes a 200 success envelope with a result count.
func list(c *gin.Context, results int, data gin.H) {
	c.JSON(http.StatusOK, gin.H{"status": "success", "results": results, "data": data})
}

// noContent writes the 204 used by deletions. A 204 carries no body, so
// there is no envelope to write.
func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// abortWith hands an error to the terminal classifier and stops the chain.
func abortWith(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// pageParams reads page/limit from the query string and converts them to an
// offset/limit pair with the repository's bounds applied.
func pageParams(c *gin.Context) (offset, limit int) {
	page := utils.AtoiDefault(c.Query("page"), 1)
	if page < 1 {
		page = 1
	}
	limit = utils.AtoiDefault(c.Query("limit"), repo.DefaultPageSize)
	if limit < 1 {
		limit = repo.DefaultPageSize
	}
	if limit > repo.MaxPageSize {
		limit = repo.MaxPageSize
	}
	return (page - 1) * limit, limit
}

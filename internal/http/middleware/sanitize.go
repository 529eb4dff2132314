// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file sanitizes incoming JSON bodies before any handler binds them:
// object keys that start with '$' are dropped at every depth (operator
// injection against the query layer), and string values have angle brackets
// entity-escaped so stored content cannot later be replayed as markup.
//
// Non-JSON or unparsable bodies pass through untouched; rejecting malformed
// JSON is the handlers' job, with the original bytes intact.
package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"

	"github.com/gin-gonic/gin"
)

// SanitizeBody rewrites the request body with injection keys removed and
// string values escaped. Requests without a JSON body are passed through.
func SanitizeBody() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body == nil || c.Request.ContentLength == 0 {
			c.Next()
			return
		}
		ct := c.ContentType()
		if ct != "" && !strings.Contains(ct, "json") {
			c.Next()
			return
		}

		raw, err := io.ReadAll(c.Request.Body)
		if err != nil {
			// Body cap and transport errors go straight to the classifier.
			_ = c.Error(err)
			c.Abort()
			return
		}

		var doc any
		if err := json.Unmarshal(raw, &doc); err != nil {
			c.Request.Body = io.NopCloser(bytes.NewReader(raw))
			c.Next()
			return
		}

		clean, err := json.Marshal(sanitizeValue(doc))
		if err != nil {
			c.Request.Body = io.NopCloser(bytes.NewReader(raw))
			c.Next()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(clean))
		c.Request.ContentLength = int64(len(clean))
		c.Next()
	}
}

// sanitizeValue walks the decoded document, dropping '$'-prefixed keys and
// escaping markup in strings.
func sanitizeValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			if strings.HasPrefix(k, "$") {
				continue
			}
			out[k] = sanitizeValue(val)
		}
		return out
	case []any:
		for i := range t {
			t[i] = sanitizeValue(t[i])
		}
		return t
	case string:
		return escapeMarkup(t)
	default:
		return v
	}
}

// escapeMarkup entity-escapes angle brackets only. Quotes and ampersands stay
// intact so values like passwords survive a round trip.
func escapeMarkup(s string) string {
	if !strings.ContainsAny(s, "<>") {
		return s
	}
	s = strings.ReplaceAll(s, "<", "&lt;")
	return strings.ReplaceAll(s, ">", "&gt;")
}

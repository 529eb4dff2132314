// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file guards against HTTP parameter pollution: duplicate query
// parameters collapse to their last value, except for the filter fields that
// legitimately accept several values (which survive as multi-value and become
// IN conditions downstream). Bracketed operator forms of a whitelisted field,
// like duration[gte], are whitelisted too.
package middleware

import (
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
)

// pollutionWhitelist lists the query fields allowed to repeat.
var pollutionWhitelist = map[string]bool{
	"duration":        true,
	"ratingsQuantity": true,
	"ratingsAverage":  true,
	"maxGroupSize":    true,
	"difficulty":      true,
	"price":           true,
}

// DedupeParams rewrites the query string so repeated non-whitelisted
// parameters keep only their last occurrence. Operator-injection keys
// ("$"-prefixed) are dropped outright, mirroring the JSON body sanitizer.
func DedupeParams() gin.HandlerFunc {
	return func(c *gin.Context) {
		q := c.Request.URL.Query()
		changed := false
		for key, vals := range q {
			if strings.HasPrefix(key, "$") {
				delete(q, key)
				changed = true
				continue
			}
			if len(vals) <= 1 || whitelisted(key) {
				continue
			}
			q[key] = vals[len(vals)-1:]
			changed = true
		}
		if changed {
			c.Request.URL.RawQuery = encodeQuery(q)
		}
		c.Next()
	}
}

// whitelisted reports whether key, stripped of any [op] suffix, may repeat.
func whitelisted(key string) bool {
	if i := strings.IndexByte(key, '['); i >= 0 {
		key = key[:i]
	}
	return pollutionWhitelist[key]
}

// encodeQuery re-encodes values preserving multi-value ordering.
func encodeQuery(q url.Values) string {
	return q.Encode()
}

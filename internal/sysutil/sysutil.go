// Package sysutil holds process-level helpers shared by main and config:
// global log level wiring and small string predicates.
package sysutil

import (
	"strings"

	"github.com/rs/zerolog"
)

// SetLogLevel configures the global zerolog level from a config string.
// Unknown or empty values fall back to info.
func SetLogLevel(lvl string) {
	s := strings.ToLower(strings.TrimSpace(lvl))
	if s == "warning" {
		s = "warn"
	}
	if parsed, err := zerolog.ParseLevel(s); err == nil && s != "" {
		zerolog.SetGlobalLevel(parsed)
		return
	}
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

// FirstNonEmpty returns the first string whose trimmed value is non-empty,
// or "" when all are blank.
func FirstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

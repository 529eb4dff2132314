package services

import (
	"context"

	"github.com/rs/zerolog"
)

// LogMailer is the development Mailer: it writes the reset URL to the log
// instead of delivering mail.
type LogMailer struct {
	Logger zerolog.Logger
}

// SendPasswordReset logs the reset URL for the developer to follow.
func (m LogMailer) SendPasswordReset(_ context.Context, to, resetURL string) error {
	m.Logger.Info().
		Str("to", to).
		Str("reset_url", resetURL).
		Msg("password reset requested")
	return nil
}

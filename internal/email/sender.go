// Package email delivers lead summary notifications to the sales team.
package email

import (
	"context"

	"realty_agent_backend/internal/leadstore"
	"realty_agent_backend/platform/config"
)

// Sender delivers lead notifications.
type Sender interface {
	SendLeadSummary(ctx context.Context, lead leadstore.Lead) error
}

// NoopSender is used when email delivery is disabled.
type NoopSender struct{}

func (NoopSender) SendLeadSummary(ctx context.Context, lead leadstore.Lead) error {
	return nil
}

// NewSender returns the configured sender, or a noop when email is
// disabled.
func NewSender(cfg config.EmailConfig) Sender {
	if !cfg.GetEmailEnabled() {
		return NoopSender{}
	}
	return NewSMTPSender(cfg)
}

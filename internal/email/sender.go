// Package email delivers lead notifications to the sales inbox. The
// primary transport is the Unisender API; a direct SMTP connection is
// available as an alternative for self-hosted mail.
package email

import (
	"context"

	"leadhook_backend/platform/config"
)

// Notification is the material of a single lead notification. Optional
// fields render only when present.
type Notification struct {
	Title       string
	Name        string
	Phone       string
	Source      string
	CompanyName string
	Activity    string
	Comment     string
	Date        string
	Time        string
}

type Sender interface {
	SendLeadNotification(ctx context.Context, n Notification) error
}

type NoopSender struct{}

func (NoopSender) SendLeadNotification(ctx context.Context, n Notification) error {
	return nil
}

// NewSender picks a transport from configuration: Unisender when an API
// key is present, SMTP when a host is configured, otherwise a no-op.
func NewSender(cfg config.EmailConfig, client config.ClientConfig) Sender {
	if cfg.GetUnisenderAPIKey() != "" {
		return NewUnisenderSender(cfg, client)
	}
	if cfg.GetSMTPHost() != "" {
		return NewSMTPSender(cfg)
	}
	return NoopSender{}
}

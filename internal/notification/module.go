// Package notification fans lead events out to the configured channels.
// The module subscribes to domain events and inverts the dependency: the
// intake pipeline never talks to mail or messenger providers directly.
package notification

import (
	"context"

	"golang.org/x/sync/errgroup"

	"leadhook_backend/internal/email"
	"leadhook_backend/internal/events"
	"leadhook_backend/internal/telegram"
	"leadhook_backend/platform/logger"
)

// TelegramSender sends a formatted lead notification to a chat.
type TelegramSender interface {
	SendLeadNotification(ctx context.Context, n telegram.Notification) error
}

type Module struct {
	email    email.Sender
	telegram TelegramSender
	log      *logger.Logger
}

func NewModule(emailSender email.Sender, telegramSender TelegramSender, log *logger.Logger) *Module {
	return &Module{
		email:    emailSender,
		telegram: telegramSender,
		log:      log,
	}
}

func (m *Module) Name() string { return "notification" }

// RegisterHandlers wires the module's event subscriptions.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.LeadCaptured{}.EventName(), m)
}

func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.LeadCaptured:
		return m.handleLeadCaptured(ctx, e)
	}
	return nil
}

// handleLeadCaptured sends all channels in parallel. Channel failures are
// logged and swallowed: a dead mail provider must never affect the
// submission response.
func (m *Module) handleLeadCaptured(ctx context.Context, e events.LeadCaptured) error {
	g, gctx := errgroup.WithContext(ctx)

	if m.email != nil {
		g.Go(func() error {
			err := m.email.SendLeadNotification(gctx, email.Notification{
				Title:       e.Title,
				Name:        e.Name,
				Phone:       e.Phone,
				Source:      e.Source,
				CompanyName: e.CompanyName,
				Activity:    e.Activity,
				Comment:     e.Comment,
				Date:        e.Date,
				Time:        e.Time,
			})
			if err != nil {
				m.log.UpstreamError("unisender", "lead notification", err)
			}
			return nil
		})
	}

	if m.telegram != nil {
		g.Go(func() error {
			err := m.telegram.SendLeadNotification(gctx, telegram.Notification{
				Title:       e.Title,
				Name:        e.Name,
				Phone:       e.Phone,
				Source:      e.Source,
				CompanyName: e.CompanyName,
				Activity:    e.Activity,
				Comment:     e.Comment,
				Date:        e.Date,
				Time:        e.Time,
			})
			if err != nil {
				m.log.UpstreamError("telegram", "lead notification", err)
			}
			return nil
		})
	}

	return g.Wait()
}

// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"leadhook_backend/platform/events"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var (
	NewBaseEvent   = events.NewBaseEvent
	NewInMemoryBus = events.NewInMemoryBus
)

// =============================================================================
// Intake Domain Events
// =============================================================================

// LeadCaptured is published after a submission has been written to the CRM.
// It carries everything the notification channels need, so subscribers do
// not depend on the intake package.
type LeadCaptured struct {
	BaseEvent
	LeadID      int64  `json:"leadId"`
	Title       string `json:"title"`
	FormName    string `json:"formName"`
	Name        string `json:"name"`
	Phone       string `json:"phone"`
	Source      string `json:"source"`
	CompanyName string `json:"companyName"`
	Activity    string `json:"activity"`
	Comment     string `json:"comment"`
	Date        string `json:"date"`
	Time        string `json:"time"`
}

// EventName returns the unique event identifier.
func (e LeadCaptured) EventName() string { return "intake.lead.captured" }

// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"realty_agent_backend/platform/events"
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
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Conversation Domain Events
// =============================================================================

// ConversationCompleted is published when a session reaches a terminal stage.
type ConversationCompleted struct {
	BaseEvent
	SessionID string `json:"sessionId"`
	Stage     string `json:"stage"`
	Qualified bool   `json:"qualified"`
	Turns     int    `json:"turns"`
}

func (e ConversationCompleted) EventName() string { return "conversation.completed" }

// =============================================================================
// Lead Store Domain Events
// =============================================================================

// LeadPersisted is published after a lead row is written to the store.
type LeadPersisted struct {
	BaseEvent
	SessionID      string `json:"sessionId"`
	Qualified      bool   `json:"qualified"`
	ConsentGranted bool   `json:"consentGranted"`
	Degraded       bool   `json:"degraded"`
}

func (e LeadPersisted) EventName() string { return "leadstore.lead.persisted" }

// StoreCorruptionRecovered is published after the recovery pipeline completes.
type StoreCorruptionRecovered struct {
	BaseEvent
	BackupPath    string `json:"backupPath"`
	RowsRecovered int    `json:"rowsRecovered"`
	RowsLost      int    `json:"rowsLost"`
}

func (e StoreCorruptionRecovered) EventName() string { return "leadstore.corruption.recovered" }

// StoreDegraded is published when the store falls back to in-memory mode.
// Handlers should treat this as an operator alert: lead data is volatile
// until redelivery succeeds.
type StoreDegraded struct {
	BaseEvent
	Reason string `json:"reason"`
}

func (e StoreDegraded) EventName() string { return "leadstore.degraded" }

// StoreRestored is published when the degraded buffer has been replayed
// into the durable store.
type StoreRestored struct {
	BaseEvent
	RowsReplayed int `json:"rowsReplayed"`
}

func (e StoreRestored) EventName() string { return "leadstore.restored" }

package events

import (
	"time"

	"github.com/helpdesk-io/helpdesk-service/internal/domain"
	"github.com/helpdesk-io/helpdesk-service/internal/sla"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketAssigned      EventType = "ticket_assigned"
	EventSLABreach           EventType = "sla_breach"
	EventSLAWarning          EventType = "sla_warning"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	ActorID   string      `json:"actor_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	CategoryID *string         `json:"category_id,omitempty"`
	Priority   domain.Priority `json:"priority"`
	Title      string          `json:"title"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
	Comment   string              `json:"comment,omitempty"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	AssignedAgentID string  `json:"assigned_agent_id"`
	PreviousAgentID *string `json:"previous_agent_id,omitempty"`
}

// SLABreachPayload payload.
type SLABreachPayload struct {
	RecipientID string    `json:"recipient_id"`
	SLAKind     sla.Kind  `json:"sla_kind"`
	DueAt       time.Time `json:"due_at"`
}

// SLAWarningPayload payload.
type SLAWarningPayload struct {
	RecipientID   string    `json:"recipient_id"`
	SLAKind       sla.Kind  `json:"sla_kind"`
	DueAt         time.Time `json:"due_at"`
	RemainingText string    `json:"remaining_text"`
}

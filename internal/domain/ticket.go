package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusNew        TicketStatus = "NEW"
	TicketStatusAssigned   TicketStatus = "ASSIGNED"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusPending    TicketStatus = "PENDING"
	TicketStatusResolved   TicketStatus = "RESOLVED"
	TicketStatusClosed     TicketStatus = "CLOSED"
)

// Impact rates how widely an issue is felt.
type Impact string

// Urgency rates how quickly an issue needs attention.
type Urgency string

const (
	ImpactLow    Impact = "LOW"
	ImpactMedium Impact = "MEDIUM"
	ImpactHigh   Impact = "HIGH"

	UrgencyLow    Urgency = "LOW"
	UrgencyMedium Urgency = "MEDIUM"
	UrgencyHigh   Urgency = "HIGH"
)

// Ticket is the aggregate for helpdesk requests. Priority and the two SLA
// deadlines are derived at creation and never set independently.
type Ticket struct {
	ID                  string
	ExternalKey         string
	RequesterID         string
	CategoryID          *string
	AssignedAgentID     *string
	Title               string
	Description         string
	Impact              Impact
	Urgency             Urgency
	Priority            Priority
	Status              TicketStatus
	Resolution          string
	SLAFirstResponseDue *time.Time
	SLAResolutionDue    *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
	LastActivityAt      time.Time
	ResolvedAt          *time.Time
	ClosedAt            *time.Time
}

// IsOpen reports whether the ticket still counts against an agent's workload.
func (t *Ticket) IsOpen() bool {
	return t.Status != TicketStatusResolved && t.Status != TicketStatusClosed
}

// TransitionTable maps a status to the statuses it may legally move to.
// A single table is shared by every component that gates transitions.
type TransitionTable map[TicketStatus][]TicketStatus

// DefaultTransitions is the authoritative lifecycle map. Reopening goes
// through NEW so SLA deadlines are recomputed from the reopen instant.
var DefaultTransitions = TransitionTable{
	TicketStatusNew:        {TicketStatusAssigned, TicketStatusInProgress},
	TicketStatusAssigned:   {TicketStatusInProgress, TicketStatusPending, TicketStatusResolved},
	TicketStatusInProgress: {TicketStatusPending, TicketStatusResolved},
	TicketStatusPending:    {TicketStatusInProgress, TicketStatusResolved},
	TicketStatusResolved:   {TicketStatusClosed, TicketStatusNew},
	TicketStatusClosed:     {TicketStatusNew},
}

// Allows reports whether the table permits moving from current to next.
func (tt TransitionTable) Allows(current, next TicketStatus) bool {
	for _, candidate := range tt[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

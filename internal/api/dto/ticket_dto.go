package dto

import (
	"time"

	"github.com/helpdesk-io/helpdesk-service/internal/domain"
	"github.com/helpdesk-io/helpdesk-service/internal/sla"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	CategoryID  *string        `json:"category_id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Impact      domain.Impact  `json:"impact"`
	Urgency     domain.Urgency `json:"urgency"`
}

// UpdateStatusRequest payload.
type UpdateStatusRequest struct {
	Status     domain.TicketStatus `json:"status"`
	Resolution string              `json:"resolution"`
}

// AssignRequest payload. AgentID empty means auto-assign.
type AssignRequest struct {
	AgentID string `json:"agent_id"`
}

// ReassignRequest payload.
type ReassignRequest struct {
	FromAgentID string `json:"from_agent_id"`
	ToAgentID   string `json:"to_agent_id"`
}

// TicketSummary response.
type TicketSummary struct {
	ID              string              `json:"id"`
	ExternalKey     string              `json:"external_key"`
	CategoryID      *string             `json:"category_id,omitempty"`
	AssignedAgentID *string             `json:"assigned_agent_id,omitempty"`
	Title           string              `json:"title"`
	Status          domain.TicketStatus `json:"status"`
	Impact          domain.Impact       `json:"impact"`
	Urgency         domain.Urgency      `json:"urgency"`
	Priority        domain.Priority     `json:"priority"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// TicketDetailResponse provides full ticket info including SLA state.
type TicketDetailResponse struct {
	TicketSummary
	Description         string     `json:"description"`
	Resolution          string     `json:"resolution,omitempty"`
	SLAFirstResponseDue *time.Time `json:"sla_first_response_due,omitempty"`
	SLAResolutionDue    *time.Time `json:"sla_resolution_due,omitempty"`
	FirstResponseStatus sla.Status `json:"first_response_status,omitempty"`
	ResolutionStatus    sla.Status `json:"resolution_status,omitempty"`
	ResolvedAt          *time.Time `json:"resolved_at,omitempty"`
	ClosedAt            *time.Time `json:"closed_at,omitempty"`
}

// NewTicketSummary maps a ticket to its summary form.
func NewTicketSummary(t *domain.Ticket) TicketSummary {
	return TicketSummary{
		ID:              t.ID,
		ExternalKey:     t.ExternalKey,
		CategoryID:      t.CategoryID,
		AssignedAgentID: t.AssignedAgentID,
		Title:           t.Title,
		Status:          t.Status,
		Impact:          t.Impact,
		Urgency:         t.Urgency,
		Priority:        t.Priority,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
}

// NewTicketDetail maps a ticket to its detail form, classifying both SLA
// clocks at the given instant.
func NewTicketDetail(t *domain.Ticket, now time.Time) TicketDetailResponse {
	detail := TicketDetailResponse{
		TicketSummary:       NewTicketSummary(t),
		Description:         t.Description,
		Resolution:          t.Resolution,
		SLAFirstResponseDue: t.SLAFirstResponseDue,
		SLAResolutionDue:    t.SLAResolutionDue,
		ResolvedAt:          t.ResolvedAt,
		ClosedAt:            t.ClosedAt,
	}
	if t.IsOpen() {
		if t.SLAFirstResponseDue != nil {
			detail.FirstResponseStatus = sla.Evaluate(t.CreatedAt, *t.SLAFirstResponseDue, now)
		}
		if t.SLAResolutionDue != nil {
			detail.ResolutionStatus = sla.Evaluate(t.CreatedAt, *t.SLAResolutionDue, now)
		}
	}
	return detail
}

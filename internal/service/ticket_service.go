package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/helpdesk-io/helpdesk-service/internal/domain"
	"github.com/helpdesk-io/helpdesk-service/internal/events"
	"github.com/helpdesk-io/helpdesk-service/internal/repository"
	"github.com/helpdesk-io/helpdesk-service/internal/sla"
	apperrors "github.com/helpdesk-io/helpdesk-service/pkg/util"
)

// TicketService coordinates ticket workflows. Priority and SLA deadlines are
// derived here at creation and on reopen; nothing else may write them.
type TicketService struct {
	tickets     repository.TicketRepository
	categories  repository.CategoryRepository
	users       repository.UserRepository
	transitions domain.TransitionTable
	clock       sla.Clock
	dispatcher  events.Dispatcher
}

// TicketDependencies bundles collaborators for ticket service.
type TicketDependencies struct {
	TicketRepo   repository.TicketRepository
	CategoryRepo repository.CategoryRepository
	UserRepo     repository.UserRepository
	Transitions  domain.TransitionTable
	Clock        sla.Clock
	Dispatcher   events.Dispatcher
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	CategoryID  *string
	Title       string
	Description string
	Impact      domain.Impact
	Urgency     domain.Urgency
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	transitions := deps.Transitions
	if transitions == nil {
		transitions = domain.DefaultTransitions
	}
	clock := deps.Clock
	if clock == nil {
		clock = sla.SystemClock{}
	}
	return &TicketService{
		tickets:     deps.TicketRepo,
		categories:  deps.CategoryRepo,
		users:       deps.UserRepo,
		transitions: transitions,
		clock:       clock,
		dispatcher:  deps.Dispatcher,
	}
}

// CreateTicket creates a ticket, deriving priority from the matrix and both
// SLA deadlines from the creation instant.
func (s *TicketService) CreateTicket(ctx context.Context, requesterID string, input TicketCreateInput) (*domain.Ticket, error) {
	if strings.TrimSpace(input.Title) == "" || strings.TrimSpace(input.Description) == "" {
		return nil, apperrors.NewValidationError("title and description required", nil)
	}
	if input.CategoryID != nil {
		category, err := s.categories.GetByID(ctx, *input.CategoryID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewNotFound("category", map[string]any{"category_id": *input.CategoryID})
			}
			return nil, apperrors.MapError(err)
		}
		if !category.IsActive {
			return nil, apperrors.NewConflict("category inactive", map[string]any{"category_id": category.ID})
		}
	}

	now := s.clock.Now()
	priority := sla.PriorityFor(input.Impact, input.Urgency)
	firstResponseDue, resolutionDue := sla.DueDates(priority, now)

	ticket := &domain.Ticket{
		ExternalKey:         generateTicketKey(),
		RequesterID:         requesterID,
		CategoryID:          input.CategoryID,
		Title:               strings.TrimSpace(input.Title),
		Description:         strings.TrimSpace(input.Description),
		Impact:              input.Impact,
		Urgency:             input.Urgency,
		Priority:            priority,
		Status:              domain.TicketStatusNew,
		CreatedAt:           now,
		SLAFirstResponseDue: &firstResponseDue,
		SLAResolutionDue:    &resolutionDue,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		ActorID:  requesterID,
		Payload: events.TicketCreatedPayload{
			CategoryID: ticket.CategoryID,
			Priority:   ticket.Priority,
			Title:      ticket.Title,
		},
	})
	return ticket, nil
}

// GetTicket fetches a single ticket.
func (s *TicketService) GetTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

// ListTickets returns tickets matching the filter.
func (s *TicketService) ListTickets(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	tickets, err := s.tickets.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// UpdateStatus moves a ticket through the lifecycle table. Resolving stamps
// resolvedAt, closing stamps closedAt, and reopening (via NEW) clears both
// and recomputes SLA deadlines from the reopen instant.
func (s *TicketService) UpdateStatus(ctx context.Context, actorID, ticketID string, newStatus domain.TicketStatus, resolution string) (*domain.Ticket, error) {
	ticket, err := s.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !s.transitions.Allows(ticket.Status, newStatus) {
		return nil, apperrors.NewConflict("invalid status transition", map[string]any{
			"from": ticket.Status,
			"to":   newStatus,
		})
	}

	now := s.clock.Now()
	oldStatus := ticket.Status
	switch newStatus {
	case domain.TicketStatusResolved:
		if strings.TrimSpace(resolution) != "" {
			ticket.Resolution = strings.TrimSpace(resolution)
		}
		ticket.ResolvedAt = &now
	case domain.TicketStatusClosed:
		ticket.ClosedAt = &now
	case domain.TicketStatusNew:
		// reopen: the cycle restarts, so SLA deadlines restart with it
		ticket.ResolvedAt = nil
		ticket.ClosedAt = nil
		ticket.AssignedAgentID = nil
		firstResponseDue, resolutionDue := sla.DueDates(ticket.Priority, now)
		ticket.SLAFirstResponseDue = &firstResponseDue
		ticket.SLAResolutionDue = &resolutionDue
	}
	ticket.Status = newStatus

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: ticket.ID,
		ActorID:  actorID,
		Payload: events.TicketStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: newStatus,
		},
	})
	return ticket, nil
}

func generateTicketKey() string {
	return "HD-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.clock.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

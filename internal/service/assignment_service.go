package service

import (
	"context"
	"errors"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/helpdesk-io/helpdesk-service/internal/domain"
	"github.com/helpdesk-io/helpdesk-service/internal/events"
	"github.com/helpdesk-io/helpdesk-service/internal/repository"
	"github.com/helpdesk-io/helpdesk-service/internal/sla"
	apperrors "github.com/helpdesk-io/helpdesk-service/pkg/util"
)

// defaultAgentSlack is how many extra open tickets a category's default agent
// may carry over the least-busy agent and still win the assignment.
const defaultAgentSlack = 2

// AssignmentService chooses owners for tickets and tracks agent workload.
type AssignmentService struct {
	tickets    repository.TicketRepository
	users      repository.UserRepository
	categories repository.CategoryRepository
	clock      sla.Clock
	dispatcher events.Dispatcher
}

// AssignmentDependencies bundles collaborators.
type AssignmentDependencies struct {
	TicketRepo   repository.TicketRepository
	UserRepo     repository.UserRepository
	CategoryRepo repository.CategoryRepository
	Clock        sla.Clock
	Dispatcher   events.Dispatcher
}

// NewAssignmentService creates the service.
func NewAssignmentService(deps AssignmentDependencies) *AssignmentService {
	clock := deps.Clock
	if clock == nil {
		clock = sla.SystemClock{}
	}
	return &AssignmentService{
		tickets:    deps.TicketRepo,
		users:      deps.UserRepo,
		categories: deps.CategoryRepo,
		clock:      clock,
		dispatcher: deps.Dispatcher,
	}
}

// FindBestAgent picks an owner for a ticket in the given category: the
// least-busy active agent, except that the category's default agent wins when
// its open count stays within defaultAgentSlack of the least-busy count.
// Returns nil when no agent is available.
func (s *AssignmentService) FindBestAgent(ctx context.Context, categoryID *string) (*domain.User, error) {
	agents, err := s.users.ListActiveByRoles(ctx, domain.RoleAgent)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if len(agents) == 0 {
		return nil, nil
	}

	counts, err := s.tickets.CountOpenByAgent(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	// stable sort keeps listing order as the tie-break
	sort.SliceStable(agents, func(i, j int) bool {
		return counts[agents[i].ID] < counts[agents[j].ID]
	})
	leastBusy := &agents[0]

	if categoryID != nil {
		category, err := s.categories.GetByID(ctx, *categoryID)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.MapError(err)
		}
		if category != nil && category.DefaultAgentID != nil {
			for i := range agents {
				if agents[i].ID != *category.DefaultAgentID {
					continue
				}
				if counts[agents[i].ID] <= counts[leastBusy.ID]+defaultAgentSlack {
					return &agents[i], nil
				}
				break
			}
		}
	}
	return leastBusy, nil
}

// Assign sets an owner on a ticket and moves it to ASSIGNED. When agentID is
// empty the owner is derived from the ticket's category via FindBestAgent.
// The underlying update is conditional on the previously read assignee, so
// concurrent calls cannot both succeed.
func (s *AssignmentService) Assign(ctx context.Context, ticketID, agentID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}

	if agentID == "" {
		// derivation needs a category to route by
		if ticket.CategoryID == nil {
			return nil, apperrors.NewConflict("no agent available", map[string]any{"ticket_id": ticketID})
		}
		best, err := s.FindBestAgent(ctx, ticket.CategoryID)
		if err != nil {
			return nil, err
		}
		if best == nil {
			return nil, apperrors.NewConflict("no agent available", map[string]any{"ticket_id": ticketID})
		}
		agentID = best.ID
	} else {
		if err := s.validateAgent(ctx, agentID); err != nil {
			return nil, err
		}
	}

	status := domain.TicketStatusAssigned
	previousAgent := ticket.AssignedAgentID
	if err := s.tickets.UpdateAssignment(ctx, ticket.ID, previousAgent, agentID, &status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewConflict("ticket assignment changed concurrently", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}

	ticket.AssignedAgentID = &agentID
	ticket.Status = status
	s.publishAssignmentEvent(ctx, agentID, ticket.ID, agentID, previousAgent)
	return ticket, nil
}

// Reassign hands a ticket from one agent to another. Fails unless the ticket
// is currently assigned to fromAgentID exactly; status is untouched because a
// reassignment is not a lifecycle transition.
func (s *AssignmentService) Reassign(ctx context.Context, ticketID, fromAgentID, toAgentID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	if ticket.AssignedAgentID == nil || *ticket.AssignedAgentID != fromAgentID {
		return nil, apperrors.NewConflict("ticket not assigned to source agent", map[string]any{
			"ticket_id":     ticketID,
			"from_agent_id": fromAgentID,
		})
	}
	if err := s.validateAgent(ctx, toAgentID); err != nil {
		return nil, err
	}

	from := fromAgentID
	if err := s.tickets.UpdateAssignment(ctx, ticket.ID, &from, toAgentID, nil); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewConflict("ticket assignment changed concurrently", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}

	ticket.AssignedAgentID = &toAgentID
	s.publishAssignmentEvent(ctx, toAgentID, ticket.ID, toAgentID, &from)
	return ticket, nil
}

// Workload computes an agent's snapshot from current ticket state.
func (s *AssignmentService) Workload(ctx context.Context, agentID string) (*domain.WorkloadSnapshot, error) {
	agent, err := s.users.GetByID(ctx, agentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("agent", map[string]any{"agent_id": agentID})
		}
		return nil, apperrors.MapError(err)
	}
	tickets, err := s.tickets.ListWithFilter(ctx, repository.TicketFilter{
		AssignedAgentID: &agentID,
		Limit:           10000,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	snapshot := s.buildSnapshot(agent, tickets)
	return &snapshot, nil
}

// AllWorkloads computes a snapshot per active agent, busiest first.
func (s *AssignmentService) AllWorkloads(ctx context.Context) ([]domain.WorkloadSnapshot, error) {
	agents, err := s.users.ListActiveByRoles(ctx, domain.RoleAgent)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	snapshots := make([]domain.WorkloadSnapshot, 0, len(agents))
	for i := range agents {
		tickets, err := s.tickets.ListWithFilter(ctx, repository.TicketFilter{
			AssignedAgentID: &agents[i].ID,
			Limit:           10000,
		})
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		snapshots = append(snapshots, s.buildSnapshot(&agents[i], tickets))
	}
	sort.SliceStable(snapshots, func(i, j int) bool {
		return snapshots[i].Total > snapshots[j].Total
	})
	return snapshots, nil
}

func (s *AssignmentService) buildSnapshot(agent *domain.User, tickets []domain.Ticket) domain.WorkloadSnapshot {
	now := s.clock.Now()
	startOfDay := now.Truncate(24 * time.Hour)

	snapshot := domain.WorkloadSnapshot{
		AgentID:   agent.ID,
		AgentName: agent.Name,
		Total:     len(tickets),
	}
	var measured, compliant int
	for i := range tickets {
		t := &tickets[i]
		switch {
		case t.Status == domain.TicketStatusClosed:
			snapshot.Closed++
		case t.Status == domain.TicketStatusResolved:
			if t.ResolvedAt != nil && !t.ResolvedAt.Before(startOfDay) {
				snapshot.ResolvedToday++
			}
		default:
			snapshot.Open++
		}
		if t.Status == domain.TicketStatusResolved && t.ResolvedAt != nil && t.SLAResolutionDue != nil {
			measured++
			// resolving exactly on the deadline counts as compliant
			if !t.ResolvedAt.After(*t.SLAResolutionDue) {
				compliant++
			}
		}
	}
	if measured == 0 {
		// no resolved history yet is full compliance, not zero
		snapshot.SLACompliance = 100
	} else {
		snapshot.SLACompliance = math.Round(float64(compliant)/float64(measured)*1000) / 10
	}
	return snapshot
}

func (s *AssignmentService) validateAgent(ctx context.Context, agentID string) error {
	agent, err := s.users.GetByID(ctx, agentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("agent", map[string]any{"agent_id": agentID})
		}
		return apperrors.MapError(err)
	}
	if !agent.IsActive {
		return apperrors.NewConflict("agent inactive", map[string]any{"agent_id": agentID})
	}
	if agent.Role != domain.RoleAgent {
		return apperrors.NewConflict("user is not an agent", map[string]any{
			"agent_id": agentID,
			"role":     agent.Role,
		})
	}
	return nil
}

func (s *AssignmentService) publishAssignmentEvent(ctx context.Context, actorID, ticketID, agentID string, previous *string) {
	if s.dispatcher == nil {
		return
	}
	event := events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventTicketAssigned,
		TicketID:  ticketID,
		ActorID:   actorID,
		Timestamp: s.clock.Now(),
		Payload: events.TicketAssignedPayload{
			AssignedAgentID: agentID,
			PreviousAgentID: previous,
		},
	}
	_ = s.dispatcher.Publish(ctx, event)
}

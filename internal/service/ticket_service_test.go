package service_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helpdesk-io/helpdesk-service/internal/domain"
	"github.com/helpdesk-io/helpdesk-service/internal/repository/memory"
	"github.com/helpdesk-io/helpdesk-service/internal/service"
	apperrors "github.com/helpdesk-io/helpdesk-service/pkg/util"
)

func newTicketFixture(t *testing.T, clock *fixedClock) (*service.TicketService, *memory.TicketRepository, *memory.CategoryRepository) {
	t.Helper()
	tickets := memory.NewTicketRepository()
	tickets.Now = clock.Now
	categories := memory.NewCategoryRepository()
	users := memory.NewUserRepository()
	svc := service.NewTicketService(service.TicketDependencies{
		TicketRepo:   tickets,
		CategoryRepo: categories,
		UserRepo:     users,
		Clock:        clock,
	})
	return svc, tickets, categories
}

func TestCreateTicketDerivesPriorityAndDeadlines(t *testing.T) {
	createdAt := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	clock := newFixedClock(createdAt)
	svc, _, _ := newTicketFixture(t, clock)

	ticket, err := svc.CreateTicket(context.Background(), "usr-1", service.TicketCreateInput{
		Title:       "Email server down",
		Description: "Nobody in the building can send mail",
		Impact:      domain.ImpactHigh,
		Urgency:     domain.UrgencyMedium,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.PriorityP1, ticket.Priority)
	assert.Equal(t, domain.TicketStatusNew, ticket.Status)
	require.NotNil(t, ticket.SLAFirstResponseDue)
	require.NotNil(t, ticket.SLAResolutionDue)
	assert.Equal(t, createdAt.Add(15*time.Minute), *ticket.SLAFirstResponseDue)
	assert.Equal(t, createdAt.Add(4*time.Hour), *ticket.SLAResolutionDue)
	assert.True(t, strings.HasPrefix(ticket.ExternalKey, "HD-"))
}

func TestCreateTicketValidation(t *testing.T) {
	clock := newFixedClock(time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC))
	svc, _, categories := newTicketFixture(t, clock)

	_, err := svc.CreateTicket(context.Background(), "usr-1", service.TicketCreateInput{
		Title:       "  ",
		Description: "something",
		Impact:      domain.ImpactLow,
		Urgency:     domain.UrgencyLow,
	})
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)

	// unknown category
	missing := "cat-404"
	_, err = svc.CreateTicket(context.Background(), "usr-1", service.TicketCreateInput{
		CategoryID:  &missing,
		Title:       "Printer jam",
		Description: "third floor printer",
		Impact:      domain.ImpactLow,
		Urgency:     domain.UrgencyLow,
	})
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", apperrors.ToDomainError(err).Code)

	// inactive category
	category := &domain.Category{Name: "Hardware", IsActive: false}
	require.NoError(t, categories.Create(context.Background(), category))
	_, err = svc.CreateTicket(context.Background(), "usr-1", service.TicketCreateInput{
		CategoryID:  &category.ID,
		Title:       "Printer jam",
		Description: "third floor printer",
		Impact:      domain.ImpactLow,
		Urgency:     domain.UrgencyLow,
	})
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", apperrors.ToDomainError(err).Code)
}

func TestUpdateStatusEnforcesTransitions(t *testing.T) {
	clock := newFixedClock(time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC))
	svc, _, _ := newTicketFixture(t, clock)

	ticket, err := svc.CreateTicket(context.Background(), "usr-1", service.TicketCreateInput{
		Title:       "VPN flaky",
		Description: "drops every few minutes",
		Impact:      domain.ImpactMedium,
		Urgency:     domain.UrgencyMedium,
	})
	require.NoError(t, err)

	// NEW -> RESOLVED is not in the table
	_, err = svc.UpdateStatus(context.Background(), "usr-1", ticket.ID, domain.TicketStatusResolved, "")
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", apperrors.ToDomainError(err).Code)

	updated, err := svc.UpdateStatus(context.Background(), "usr-1", ticket.ID, domain.TicketStatusInProgress, "")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusInProgress, updated.Status)

	updated, err = svc.UpdateStatus(context.Background(), "agent-1", ticket.ID, domain.TicketStatusResolved, "rebooted the concentrator")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusResolved, updated.Status)
	assert.Equal(t, "rebooted the concentrator", updated.Resolution)
	require.NotNil(t, updated.ResolvedAt)
	assert.Equal(t, clock.Now(), *updated.ResolvedAt)
}

func TestReopenRecomputesDeadlines(t *testing.T) {
	createdAt := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	clock := newFixedClock(createdAt)
	svc, _, _ := newTicketFixture(t, clock)

	ticket, err := svc.CreateTicket(context.Background(), "usr-1", service.TicketCreateInput{
		Title:       "Account locked",
		Description: "cannot log in after password change",
		Impact:      domain.ImpactMedium,
		Urgency:     domain.UrgencyHigh, // P1
	})
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), "agent-1", ticket.ID, domain.TicketStatusInProgress, "")
	require.NoError(t, err)
	_, err = svc.UpdateStatus(context.Background(), "agent-1", ticket.ID, domain.TicketStatusResolved, "unlocked")
	require.NoError(t, err)

	clock.Advance(48 * time.Hour)
	reopened, err := svc.UpdateStatus(context.Background(), "usr-1", ticket.ID, domain.TicketStatusNew, "")
	require.NoError(t, err)

	assert.Equal(t, domain.TicketStatusNew, reopened.Status)
	assert.Nil(t, reopened.ResolvedAt)
	assert.Nil(t, reopened.ClosedAt)
	assert.Nil(t, reopened.AssignedAgentID)
	require.NotNil(t, reopened.SLAFirstResponseDue)
	assert.Equal(t, clock.Now().Add(15*time.Minute), *reopened.SLAFirstResponseDue,
		"deadlines restart from the reopen instant")
	assert.Equal(t, clock.Now().Add(4*time.Hour), *reopened.SLAResolutionDue)
}

func TestGetTicketNotFound(t *testing.T) {
	clock := newFixedClock(time.Now())
	svc, _, _ := newTicketFixture(t, clock)

	_, err := svc.GetTicket(context.Background(), "tck-404")
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", apperrors.ToDomainError(err).Code)
}

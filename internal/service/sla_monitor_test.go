package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helpdesk-io/helpdesk-service/internal/domain"
	"github.com/helpdesk-io/helpdesk-service/internal/repository/memory"
	"github.com/helpdesk-io/helpdesk-service/internal/service"
	"github.com/helpdesk-io/helpdesk-service/internal/sla"
)

type recordedNotification struct {
	RecipientID string
	TicketID    string
	Kind        sla.Kind
	Warning     bool
	Remaining   string
}

// recordingNotifier captures notifications for assertions.
type recordingNotifier struct {
	mu   sync.Mutex
	sent []recordedNotification
}

func (n *recordingNotifier) NotifyBreach(ctx context.Context, recipientID string, ticket *domain.Ticket, kind sla.Kind, dueAt time.Time) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, recordedNotification{RecipientID: recipientID, TicketID: ticket.ID, Kind: kind})
}

func (n *recordingNotifier) NotifyWarning(ctx context.Context, recipientID string, ticket *domain.Ticket, kind sla.Kind, dueAt time.Time, remainingText string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, recordedNotification{RecipientID: recipientID, TicketID: ticket.ID, Kind: kind, Warning: true, Remaining: remainingText})
}

func (n *recordingNotifier) forTicket(ticketID string) []recordedNotification {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []recordedNotification
	for _, s := range n.sent {
		if s.TicketID == ticketID {
			out = append(out, s)
		}
	}
	return out
}

type monitorFixture struct {
	monitor  *service.SLAMonitor
	tickets  *memory.TicketRepository
	users    *memory.UserRepository
	notifier *recordingNotifier
	clock    *fixedClock
}

func newMonitorFixture(t *testing.T) *monitorFixture {
	t.Helper()
	clock := newFixedClock(time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC))
	tickets := memory.NewTicketRepository()
	tickets.Now = clock.Now
	users := memory.NewUserRepository()
	notifier := &recordingNotifier{}
	monitor := service.NewSLAMonitor(service.SLAMonitorDependencies{
		TicketRepo: tickets,
		UserRepo:   users,
		Notifier:   notifier,
		Clock:      clock,
	})
	return &monitorFixture{monitor: monitor, tickets: tickets, users: users, notifier: notifier, clock: clock}
}

func (f *monitorFixture) seedTicket(t *testing.T, agentID *string, createdAt time.Time, firstResponseDue, resolutionDue *time.Time) *domain.Ticket {
	t.Helper()
	status := domain.TicketStatusNew
	if agentID != nil {
		status = domain.TicketStatusInProgress
	}
	ticket := &domain.Ticket{
		RequesterID:         "usr-req",
		AssignedAgentID:     agentID,
		Title:               "ticket",
		Description:         "ticket",
		Status:              status,
		CreatedAt:           createdAt,
		SLAFirstResponseDue: firstResponseDue,
		SLAResolutionDue:    resolutionDue,
	}
	require.NoError(t, f.tickets.Create(context.Background(), ticket))
	return ticket
}

func TestSweepBreachRecipients(t *testing.T) {
	f := newMonitorFixture(t)
	agent := seedAgent(f.users, "alice")
	lead := seedUser(f.users, "lead", domain.RoleTeamLead, true)
	admin := seedUser(f.users, "admin", domain.RoleAdmin, true)

	now := f.clock.Now()
	created := now.Add(-2 * time.Hour)
	frDue := created.Add(15 * time.Minute) // breached long ago
	ticket := f.seedTicket(t, &agent.ID, created, &frDue, nil)

	stats, err := f.monitor.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TicketsChecked)
	assert.Equal(t, 1, stats.FirstResponseBreaches)
	assert.Equal(t, 0, stats.ResolutionBreaches)

	sent := f.notifier.forTicket(ticket.ID)
	recipients := make([]string, 0, len(sent))
	for _, s := range sent {
		assert.False(t, s.Warning)
		assert.Equal(t, sla.KindFirstResponse, s.Kind)
		recipients = append(recipients, s.RecipientID)
	}
	assert.ElementsMatch(t, []string{agent.ID, "usr-req", lead.ID}, recipients,
		"admins are not notified for first-response breaches")
	assert.NotContains(t, recipients, admin.ID)
	assert.Equal(t, 3, stats.NotificationsSent)
}

func TestSweepResolutionBreachIncludesAdmins(t *testing.T) {
	f := newMonitorFixture(t)
	agent := seedAgent(f.users, "alice")
	lead := seedUser(f.users, "lead", domain.RoleTeamLead, true)
	admin := seedUser(f.users, "admin", domain.RoleAdmin, true)

	now := f.clock.Now()
	created := now.Add(-10 * time.Hour)
	resDue := created.Add(4 * time.Hour)
	ticket := f.seedTicket(t, &agent.ID, created, nil, &resDue)

	stats, err := f.monitor.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.ResolutionBreaches)

	var recipients []string
	for _, s := range f.notifier.forTicket(ticket.ID) {
		recipients = append(recipients, s.RecipientID)
	}
	assert.ElementsMatch(t, []string{agent.ID, "usr-req", lead.ID, admin.ID}, recipients)
}

func TestSweepRecipientsDeduplicated(t *testing.T) {
	f := newMonitorFixture(t)
	lead := seedUser(f.users, "lead", domain.RoleTeamLead, true)

	// the team lead is also the assigned agent
	now := f.clock.Now()
	created := now.Add(-2 * time.Hour)
	frDue := created.Add(15 * time.Minute)
	ticket := f.seedTicket(t, &lead.ID, created, &frDue, nil)

	stats, err := f.monitor.Run(context.Background())
	require.NoError(t, err)

	var recipients []string
	for _, s := range f.notifier.forTicket(ticket.ID) {
		recipients = append(recipients, s.RecipientID)
	}
	assert.ElementsMatch(t, []string{lead.ID, "usr-req"}, recipients,
		"a recipient holding two hats is notified once")
	assert.Equal(t, 2, stats.NotificationsSent)
}

func TestSweepWarningOnlyForAssignedTickets(t *testing.T) {
	f := newMonitorFixture(t)
	agent := seedAgent(f.users, "alice")

	now := f.clock.Now()
	// 4 hour window with 30 minutes left: inside the 20% warning band
	created := now.Add(-210 * time.Minute)
	due := created.Add(4 * time.Hour)

	assigned := f.seedTicket(t, &agent.ID, created, nil, &due)
	unassigned := f.seedTicket(t, nil, created, nil, &due)

	stats, err := f.monitor.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TicketsChecked)
	assert.Equal(t, 1, stats.ResolutionWarnings, "unassigned tickets never get warnings")

	sent := f.notifier.forTicket(assigned.ID)
	require.Len(t, sent, 1)
	assert.True(t, sent[0].Warning)
	assert.Equal(t, agent.ID, sent[0].RecipientID)
	assert.Equal(t, "30 minute(s)", sent[0].Remaining)

	assert.Empty(t, f.notifier.forTicket(unassigned.ID))
}

func TestSweepIgnoresHealthyTickets(t *testing.T) {
	f := newMonitorFixture(t)
	agent := seedAgent(f.users, "alice")

	now := f.clock.Now()
	frDue := now.Add(10 * time.Minute)
	resDue := now.Add(4 * time.Hour)
	ticket := f.seedTicket(t, &agent.ID, now, &frDue, &resDue)

	stats, err := f.monitor.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TicketsChecked)
	assert.Zero(t, stats.FirstResponseBreaches)
	assert.Zero(t, stats.ResolutionBreaches)
	assert.Zero(t, stats.NotificationsSent)
	assert.Empty(t, f.notifier.forTicket(ticket.ID))
}

func TestSweepChecksBothClocksIndependently(t *testing.T) {
	f := newMonitorFixture(t)
	agent := seedAgent(f.users, "alice")

	now := f.clock.Now()
	created := now.Add(-1 * time.Hour)
	frDue := created.Add(15 * time.Minute) // breached
	resDue := created.Add(4 * time.Hour)   // healthy
	f.seedTicket(t, &agent.ID, created, &frDue, &resDue)

	stats, err := f.monitor.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FirstResponseBreaches)
	assert.Zero(t, stats.ResolutionBreaches)
	assert.Zero(t, stats.ResolutionWarnings)
}

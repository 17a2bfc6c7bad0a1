package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/helpdesk-io/helpdesk-service/internal/domain"
	"github.com/helpdesk-io/helpdesk-service/internal/repository"
	"github.com/helpdesk-io/helpdesk-service/internal/sla"
	apperrors "github.com/helpdesk-io/helpdesk-service/pkg/util"
)

// Notifier is the outbound capability the sweep calls. Sends are
// fire-and-forget: the collaborator absorbs and logs its own failures.
type Notifier interface {
	NotifyBreach(ctx context.Context, recipientID string, ticket *domain.Ticket, kind sla.Kind, dueAt time.Time)
	NotifyWarning(ctx context.Context, recipientID string, ticket *domain.Ticket, kind sla.Kind, dueAt time.Time, remainingText string)
}

// SweepStats tallies one sweep invocation for observability.
type SweepStats struct {
	TicketsChecked        int       `json:"tickets_checked"`
	FirstResponseBreaches int       `json:"first_response_breaches"`
	ResolutionBreaches    int       `json:"resolution_breaches"`
	FirstResponseWarnings int       `json:"first_response_warnings"`
	ResolutionWarnings    int       `json:"resolution_warnings"`
	NotificationsSent     int       `json:"notifications_sent"`
	Errors                int       `json:"errors"`
	RanAt                 time.Time `json:"ran_at"`
	Duration              string    `json:"duration"`
}

// SLAMonitor walks open tickets and raises breach and warning notifications.
// It is invoked, never self-scheduling; notification dedup across sweeps is
// the notifier's concern, not this engine's.
type SLAMonitor struct {
	tickets  repository.TicketRepository
	users    repository.UserRepository
	notifier Notifier
	clock    sla.Clock
	cache    *redis.Client
	logger   *zap.Logger
}

// SLAMonitorDependencies bundles collaborators.
type SLAMonitorDependencies struct {
	TicketRepo repository.TicketRepository
	UserRepo   repository.UserRepository
	Notifier   Notifier
	Clock      sla.Clock
	Cache      *redis.Client
	Logger     *zap.Logger
}

// NewSLAMonitor creates the monitor. Cache and logger may be nil.
func NewSLAMonitor(deps SLAMonitorDependencies) *SLAMonitor {
	clock := deps.Clock
	if clock == nil {
		clock = sla.SystemClock{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SLAMonitor{
		tickets:  deps.TicketRepo,
		users:    deps.UserRepo,
		notifier: deps.Notifier,
		clock:    clock,
		cache:    deps.Cache,
		logger:   logger,
	}
}

const lastSweepKey = "helpdesk:sla:last_sweep"

// Run performs one sweep over all open tickets. A single ticket's failure
// never aborts the loop.
func (m *SLAMonitor) Run(ctx context.Context) (*SweepStats, error) {
	started := m.clock.Now()
	stats := &SweepStats{RanAt: started}

	open, err := m.tickets.ListWithFilter(ctx, repository.TicketFilter{
		Statuses: []domain.TicketStatus{
			domain.TicketStatusNew,
			domain.TicketStatusAssigned,
			domain.TicketStatusInProgress,
			domain.TicketStatusPending,
		},
		Limit: 10000,
	})
	if err != nil {
		return stats, apperrors.MapError(err)
	}

	// load escalation recipients once per sweep
	teamLeads, err := m.users.ListActiveByRoles(ctx, domain.RoleTeamLead)
	if err != nil {
		m.logger.Warn("sweep: listing team leads failed", zap.Error(err))
		stats.Errors++
	}
	admins, err := m.users.ListActiveByRoles(ctx, domain.RoleAdmin)
	if err != nil {
		m.logger.Warn("sweep: listing admins failed", zap.Error(err))
		stats.Errors++
	}

	stats.TicketsChecked = len(open)
	now := m.clock.Now()
	for i := range open {
		m.checkTicket(ctx, &open[i], now, teamLeads, admins, stats)
	}

	stats.Duration = m.clock.Now().Sub(started).String()
	m.storeLastSweep(ctx, stats)
	m.logger.Info("sla sweep complete",
		zap.Int("tickets_checked", stats.TicketsChecked),
		zap.Int("first_response_breaches", stats.FirstResponseBreaches),
		zap.Int("resolution_breaches", stats.ResolutionBreaches),
		zap.Int("first_response_warnings", stats.FirstResponseWarnings),
		zap.Int("resolution_warnings", stats.ResolutionWarnings),
		zap.Int("notifications_sent", stats.NotificationsSent))
	return stats, nil
}

func (m *SLAMonitor) checkTicket(ctx context.Context, ticket *domain.Ticket, now time.Time, teamLeads, admins []domain.User, stats *SweepStats) {
	if ticket.SLAFirstResponseDue != nil {
		m.checkClock(ctx, ticket, sla.KindFirstResponse, *ticket.SLAFirstResponseDue, now, teamLeads, admins, stats)
	}
	if ticket.SLAResolutionDue != nil {
		m.checkClock(ctx, ticket, sla.KindResolution, *ticket.SLAResolutionDue, now, teamLeads, admins, stats)
	}
}

func (m *SLAMonitor) checkClock(ctx context.Context, ticket *domain.Ticket, kind sla.Kind, due, now time.Time, teamLeads, admins []domain.User, stats *SweepStats) {
	switch sla.Evaluate(ticket.CreatedAt, due, now) {
	case sla.StatusBreached:
		if kind == sla.KindFirstResponse {
			stats.FirstResponseBreaches++
		} else {
			stats.ResolutionBreaches++
		}
		for _, recipientID := range m.breachRecipients(ticket, kind, teamLeads, admins) {
			m.notifier.NotifyBreach(ctx, recipientID, ticket, kind, due)
			stats.NotificationsSent++
		}
	case sla.StatusWarning:
		if ticket.AssignedAgentID == nil {
			return
		}
		if kind == sla.KindFirstResponse {
			stats.FirstResponseWarnings++
		} else {
			stats.ResolutionWarnings++
		}
		remaining := sla.FormatRemaining(due.Sub(now))
		m.notifier.NotifyWarning(ctx, *ticket.AssignedAgentID, ticket, kind, due, remaining)
		stats.NotificationsSent++
	}
}

// breachRecipients builds the deduplicated recipient list for a breach:
// assigned agent and requester always; team leads for both kinds; admins only
// for resolution breaches.
func (m *SLAMonitor) breachRecipients(ticket *domain.Ticket, kind sla.Kind, teamLeads, admins []domain.User) []string {
	seen := make(map[string]struct{})
	var recipients []string
	add := func(id string) {
		if id == "" {
			return
		}
		if _, dup := seen[id]; dup {
			return
		}
		seen[id] = struct{}{}
		recipients = append(recipients, id)
	}

	if ticket.AssignedAgentID != nil {
		add(*ticket.AssignedAgentID)
	}
	add(ticket.RequesterID)
	for i := range teamLeads {
		add(teamLeads[i].ID)
	}
	if kind == sla.KindResolution {
		for i := range admins {
			add(admins[i].ID)
		}
	}
	return recipients
}

func (m *SLAMonitor) storeLastSweep(ctx context.Context, stats *SweepStats) {
	if m.cache == nil {
		return
	}
	raw, err := json.Marshal(stats)
	if err != nil {
		return
	}
	if err := m.cache.Set(ctx, lastSweepKey, raw, 0).Err(); err != nil {
		m.logger.Debug("storing sweep stats failed", zap.Error(err))
	}
}

// LastSweep returns the stats of the most recent sweep, if recorded.
func (m *SLAMonitor) LastSweep(ctx context.Context) (*SweepStats, error) {
	if m.cache == nil {
		return nil, nil
	}
	raw, err := m.cache.Get(ctx, lastSweepKey).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, apperrors.MapError(err)
	}
	var stats SweepStats
	if err := json.Unmarshal(raw, &stats); err != nil {
		return nil, apperrors.MapError(err)
	}
	return &stats, nil
}

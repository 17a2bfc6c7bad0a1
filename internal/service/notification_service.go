package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/helpdesk-io/helpdesk-service/internal/config"
	"github.com/helpdesk-io/helpdesk-service/internal/domain"
	"github.com/helpdesk-io/helpdesk-service/internal/events"
	"github.com/helpdesk-io/helpdesk-service/internal/sla"
)

// NotificationService turns domain events into outbound notifications and is
// the Notifier capability the SLA monitor calls. Sends are stubs logged at
// debug level; real delivery sits behind the configured endpoints.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
	clock      sla.Clock
}

// NewNotificationService creates the service. Clock may be nil.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig, clock sla.Clock) *NotificationService {
	if clock == nil {
		clock = sla.SystemClock{}
	}
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
		clock:      clock,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketEvent)
	n.dispatcher.Subscribe(events.EventTicketAssigned, n.handleTicketEvent)
	n.dispatcher.Subscribe(events.EventTicketStatusChanged, n.handleTicketEvent)
	n.dispatcher.Subscribe(events.EventSLABreach, n.handleSLAEvent)
	n.dispatcher.Subscribe(events.EventSLAWarning, n.handleSLAEvent)
}

// NotifyBreach publishes an sla_breach event for the recipient.
func (n *NotificationService) NotifyBreach(ctx context.Context, recipientID string, ticket *domain.Ticket, kind sla.Kind, dueAt time.Time) {
	n.publish(ctx, events.Event{
		Type:     events.EventSLABreach,
		TicketID: ticket.ID,
		Payload: events.SLABreachPayload{
			RecipientID: recipientID,
			SLAKind:     kind,
			DueAt:       dueAt,
		},
	})
}

// NotifyWarning publishes an sla_warning event for the recipient.
func (n *NotificationService) NotifyWarning(ctx context.Context, recipientID string, ticket *domain.Ticket, kind sla.Kind, dueAt time.Time, remainingText string) {
	n.publish(ctx, events.Event{
		Type:     events.EventSLAWarning,
		TicketID: ticket.ID,
		Payload: events.SLAWarningPayload{
			RecipientID:   recipientID,
			SLAKind:       kind,
			DueAt:         dueAt,
			RemainingText: remainingText,
		},
	})
}

func (n *NotificationService) publish(ctx context.Context, event events.Event) {
	if n.dispatcher == nil {
		return
	}
	event.ID = uuid.NewString()
	event.Timestamp = n.clock.Now()
	_ = n.dispatcher.Publish(ctx, event)
}

func (n *NotificationService) handleTicketEvent(ctx context.Context, event events.Event) error {
	n.logger.Info(string(event.Type), zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	n.sendWebhookStub(event)
	return nil
}

func (n *NotificationService) handleSLAEvent(ctx context.Context, event events.Event) error {
	n.logger.Info(string(event.Type), zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	n.sendEmailStub(event)
	n.sendWebhookStub(event)
	return nil
}

func (n *NotificationService) sendEmailStub(event events.Event) {
	if n.cfg.EmailFrom == "" {
		return
	}
	n.logger.Debug("sendEmailStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("ticket_id", event.TicketID),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendWebhookStub(event events.Event) {
	if n.cfg.WebhookURL == "" {
		return
	}
	n.logger.Debug("sendWebhookStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("ticket_id", event.TicketID),
		zap.String("event_type", string(event.Type)))
}

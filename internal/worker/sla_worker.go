package worker

import (
	"context"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/helpdesk-io/helpdesk-service/internal/service"
)

// SLAWorker runs the SLA sweep on a cron schedule.
type SLAWorker struct {
	monitor  *service.SLAMonitor
	schedule string
	logger   *zap.Logger
	cron     *cron.Cron
}

// NewSLAWorker constructs the worker. schedule uses standard 5-field cron syntax.
func NewSLAWorker(monitor *service.SLAMonitor, schedule string, logger *zap.Logger) *SLAWorker {
	return &SLAWorker{
		monitor:  monitor,
		schedule: schedule,
		logger:   logger,
		cron:     cron.New(),
	}
}

// Start registers the sweep job and begins the scheduler.
func (w *SLAWorker) Start() error {
	_, err := w.cron.AddFunc(w.schedule, func() {
		stats, err := w.monitor.Run(context.Background())
		if err != nil {
			w.logger.Error("scheduled sla sweep failed", zap.Error(err))
			return
		}
		w.logger.Info("scheduled sla sweep complete",
			zap.Int("tickets_checked", stats.TicketsChecked),
			zap.Int("first_response_breaches", stats.FirstResponseBreaches),
			zap.Int("resolution_breaches", stats.ResolutionBreaches),
			zap.Int("notifications_sent", stats.NotificationsSent),
		)
	})
	if err != nil {
		return err
	}
	w.cron.Start()
	w.logger.Info("sla worker started", zap.String("schedule", w.schedule))
	return nil
}

// Stop halts the scheduler and waits for a running sweep to finish.
func (w *SLAWorker) Stop() {
	ctx := w.cron.Stop()
	<-ctx.Done()
	w.logger.Info("sla worker stopped")
}

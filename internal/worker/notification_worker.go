package worker

import (
	"github.com/helpdesk-io/helpdesk-service/internal/service"
)

// StartNotificationWorker subscribes the notification service to ticket events.
func StartNotificationWorker(notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
}

package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/auth-service/internal/events"
)

// NotificationService reacts to session lifecycle events, currently by
// emitting audit log lines. Webhook delivery hangs off the same handlers.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	webhookURL string
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, webhookURL string) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		webhookURL: webhookURL,
	}
}

// RegisterHandlers subscribes to session events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventUserRegistered, n.handleEvent)
	n.dispatcher.Subscribe(events.EventUserLoggedIn, n.handleEvent)
	n.dispatcher.Subscribe(events.EventSessionRefreshed, n.handleEvent)
	n.dispatcher.Subscribe(events.EventSessionRevoked, n.handleEvent)
}

func (n *NotificationService) handleEvent(ctx context.Context, event events.Event) error {
	n.logger.Info("session event",
		zap.String("event_id", event.ID),
		zap.String("type", string(event.Type)),
		zap.Int64("user_id", event.UserID),
		zap.Any("payload", event.Payload),
	)
	n.sendWebhookStub(ctx, event)
	return nil
}

func (n *NotificationService) sendWebhookStub(_ context.Context, event events.Event) {
	if n.webhookURL == "" {
		return
	}
	// TODO: deliver to the audit webhook once the sink endpoint is provisioned.
	n.logger.Debug("webhook notification",
		zap.String("url", n.webhookURL),
		zap.String("type", string(event.Type)),
	)
}

package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/case-service/internal/config"
	"github.com/spec-kit/case-service/internal/events"
)

// NotificationService turns domain events into best-effort notifications for
// citizens and officers. Delivery is fire-and-forget: a failure here never
// affects the transition that produced the event.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventApplicationSubmitted, n.handleSubmitted)
	n.dispatcher.Subscribe(events.EventApplicationAssigned, n.handleAssigned)
	n.dispatcher.Subscribe(events.EventStatusChanged, n.handleStatusChanged)
	n.dispatcher.Subscribe(events.EventApplicationEscalated, n.handleEscalated)
	n.dispatcher.Subscribe(events.EventApplicationFinalized, n.handleFinalized)
}

func (n *NotificationService) handleSubmitted(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ApplicationSubmittedPayload)
	if !ok {
		return nil
	}
	n.Notify(ctx, payload.CitizenID, string(event.Type),
		"Application received",
		fmt.Sprintf("Your application %s was received and is being routed.", payload.TrackingID),
		&event.ApplicationID)
	return nil
}

func (n *NotificationService) handleAssigned(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ApplicationAssignedPayload)
	if !ok {
		return nil
	}
	n.Notify(ctx, payload.OfficerID, string(event.Type),
		"New application assigned",
		fmt.Sprintf("Application %s has been assigned to you.", payload.TrackingID),
		&event.ApplicationID)
	n.Notify(ctx, payload.CitizenID, string(event.Type),
		"Application assigned",
		fmt.Sprintf("Your application %s has been assigned to an officer.", payload.TrackingID),
		&event.ApplicationID)
	return nil
}

func (n *NotificationService) handleStatusChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.StatusChangedPayload)
	if !ok {
		return nil
	}
	n.Notify(ctx, payload.CitizenID, string(event.Type),
		"Application status updated",
		fmt.Sprintf("Status changed from %s to %s.", payload.OldStatus, payload.NewStatus),
		&event.ApplicationID)
	return nil
}

func (n *NotificationService) handleEscalated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ApplicationEscalatedPayload)
	if !ok {
		return nil
	}
	if payload.NewOfficerID != nil {
		n.Notify(ctx, *payload.NewOfficerID, string(event.Type),
			"Escalated application assigned",
			fmt.Sprintf("An application breached its deadline and was escalated to you (level %d).", payload.NewLevel),
			&event.ApplicationID)
	}
	return nil
}

func (n *NotificationService) handleFinalized(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ApplicationFinalizedPayload)
	if !ok {
		return nil
	}
	n.Notify(ctx, payload.CitizenID, string(event.Type),
		"Application decided",
		fmt.Sprintf("Your application %s reached a final decision: %s.", payload.TrackingID, payload.Status),
		&event.ApplicationID)
	return nil
}

// Notify dispatches one notification to a recipient. The transport here is a
// stub (log + optional email/webhook endpoints); real delivery lives outside
// this service.
func (n *NotificationService) Notify(ctx context.Context, recipientID, eventType, title, message string, relatedApplicationID *string) {
	fields := []zap.Field{
		zap.String("recipient_id", recipientID),
		zap.String("event_type", eventType),
		zap.String("title", title),
		zap.String("message", message),
	}
	if relatedApplicationID != nil {
		fields = append(fields, zap.String("application_id", *relatedApplicationID))
	}
	n.logger.Info("notification dispatched", fields...)
	n.sendEmailStub(ctx, recipientID, title)
	n.sendWebhookStub(ctx, eventType, relatedApplicationID)
}

func (n *NotificationService) sendEmailStub(_ context.Context, recipientID, title string) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("recipient_id", recipientID),
		zap.String("title", title))
}

func (n *NotificationService) sendWebhookStub(_ context.Context, eventType string, relatedApplicationID *string) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	fields := []zap.Field{
		zap.String("url", n.cfg.WebhookURL),
		zap.String("event_type", eventType),
	}
	if relatedApplicationID != nil {
		fields = append(fields, zap.String("application_id", *relatedApplicationID))
	}
	n.logger.Debug("sendWebhookStub", fields...)
}

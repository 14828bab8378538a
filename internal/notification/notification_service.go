package notification

import (
	"context"
	"fmt"

	"go-leaveflow/internal/events"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const KindLeaveDecision = "LEAVE_DECISION"

//go:generate mockgen -source=notification_service.go -destination=mock/notification_service_mock.go -package=mock
type Service interface {
	// RecordLeaveDecision fans a decision event out to the employee's feed.
	RecordLeaveDecision(ctx context.Context, event events.LeaveDecidedEvent) error
	List(ctx context.Context, companyID, recipientID string, unreadOnly bool) ([]Notification, error)
	MarkRead(ctx context.Context, companyID, recipientID, id string) error
}

type service struct {
	repo   Repository
	logger *zap.Logger
}

func NewService(repo Repository, logger ...*zap.Logger) Service {
	l := zap.L().Named("notification.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("notification.service")
	}
	return &service{repo: repo, logger: l}
}

func (s *service) RecordLeaveDecision(ctx context.Context, event events.LeaveDecidedEvent) error {
	companyID, err := uuid.Parse(event.CompanyID)
	if err != nil {
		return fmt.Errorf("parse company id: %w", err)
	}
	recipientID, err := uuid.Parse(event.EmployeeID)
	if err != nil {
		return fmt.Errorf("parse employee id: %w", err)
	}

	subject := fmt.Sprintf("Leave request %s", event.Status)
	body := fmt.Sprintf("Your leave request is now %s.", event.Status)
	if event.Level > 0 {
		body = fmt.Sprintf("Your leave request passed approval level %d and is now %s.", event.Level, event.Status)
	}

	n := &Notification{
		CompanyID:   companyID,
		RecipientID: recipientID,
		Kind:        KindLeaveDecision,
		Subject:     subject,
		Body:        body,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return err
	}

	s.logger.Info("leave decision notification recorded",
		zap.String("leave_id", event.LeaveID),
		zap.String("recipient_id", event.EmployeeID),
		zap.String("status", event.Status),
	)
	return nil
}

func (s *service) List(ctx context.Context, companyID, recipientID string, unreadOnly bool) ([]Notification, error) {
	return s.repo.ListByRecipient(ctx, companyID, recipientID, unreadOnly)
}

func (s *service) MarkRead(ctx context.Context, companyID, recipientID, id string) error {
	return s.repo.MarkRead(ctx, companyID, recipientID, id)
}

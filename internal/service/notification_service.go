package service

import (
	"context"
	"encoding/json"
	"fmt"

	"docflow/internal/model"
	"docflow/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Decision outcomes accepted by the decision processor and referenced by
// the dispatcher when computing recipients.
const (
	DecisionApprove         = "APPROVE"
	DecisionReject          = "REJECT"
	DecisionRequestRevision = "REQUEST_REVISION"
)

// NotificationPusher delivers a payload to a connected user out-of-band.
// Implemented by the websocket hub; the return value only reports whether
// the user had an active connection.
type NotificationPusher interface {
	SendToUser(userID uuid.UUID, payload []byte) bool
}

type NotificationResponse struct {
	ID         string  `json:"id"`
	Type       string  `json:"type"`
	DocumentID *string `json:"document_id"`
	Message    string  `json:"message"`
	Read       bool    `json:"read"`
	CreatedAt  string  `json:"created_at"`
}

// NotificationService computes who must hear about a workflow transition,
// records the notifications transactionally, and pushes them after commit.
type NotificationService interface {
	// DispatchChainCreated notifies the first actionable approver of a
	// freshly created chain. Must run inside the creating transaction.
	DispatchChainCreated(ctx context.Context, doc *model.Document, firstApprover uuid.UUID) ([]model.Notification, error)
	// DispatchStepDecided notifies the parties affected by one decision.
	// next is the step that became actionable, nil when the chain ended.
	DispatchStepDecided(ctx context.Context, doc *model.Document, step *model.Approval, decision string, next *model.Approval) ([]model.Notification, error)
	// DispatchComment notifies the counterparty of a new comment.
	DispatchComment(ctx context.Context, doc *model.Document, step *model.Approval, authorID uuid.UUID) ([]model.Notification, error)
	// DispatchResubmitted re-requests approval from the revision step's approver.
	DispatchResubmitted(ctx context.Context, doc *model.Document, step *model.Approval) ([]model.Notification, error)

	// Push delivers committed notifications over the hub. Best-effort:
	// failures are logged and never propagated.
	Push(notifications []model.Notification)

	ListForUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, page, limit int) ([]NotificationResponse, int64, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
	MarkRead(ctx context.Context, id, userID uuid.UUID) error
}

type notificationService struct {
	repo   repository.NotificationRepository
	pusher NotificationPusher
	logger *zap.Logger
}

// NewNotificationService returns a new NotificationService. pusher may be
// nil (e.g. in tests); Push then only records the rows.
func NewNotificationService(repo repository.NotificationRepository, pusher NotificationPusher, logger *zap.Logger) NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &notificationService{repo: repo, pusher: pusher, logger: logger}
}

func (s *notificationService) DispatchChainCreated(ctx context.Context, doc *model.Document, firstApprover uuid.UUID) ([]model.Notification, error) {
	notifications := []model.Notification{{
		Type:        model.NotifyApprovalRequest,
		RecipientID: firstApprover,
		DocumentID:  &doc.ID,
		Message:     fmt.Sprintf("Document %q is awaiting your approval", doc.Title),
	}}
	if err := s.repo.CreateBatch(ctx, notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}

func (s *notificationService) DispatchStepDecided(ctx context.Context, doc *model.Document, step *model.Approval, decision string, next *model.Approval) ([]model.Notification, error) {
	var notifications []model.Notification

	switch decision {
	case DecisionApprove:
		if next != nil {
			notifications = append(notifications, model.Notification{
				Type:        model.NotifyApprovalRequest,
				RecipientID: next.ApproverID,
				DocumentID:  &doc.ID,
				Message:     fmt.Sprintf("Document %q is awaiting your approval (step %d)", doc.Title, next.SequenceOrder),
			})
			notifications = append(notifications, model.Notification{
				Type:        model.NotifyApprovalAction,
				RecipientID: doc.InitiatorID,
				DocumentID:  &doc.ID,
				Message:     fmt.Sprintf("Step %d of document %q was approved", step.SequenceOrder, doc.Title),
			})
		} else {
			// Chain fully approved
			notifications = append(notifications, model.Notification{
				Type:        model.NotifyApprovalAction,
				RecipientID: doc.InitiatorID,
				DocumentID:  &doc.ID,
				Message:     fmt.Sprintf("Document %q has been fully approved", doc.Title),
			})
		}
	case DecisionReject:
		notifications = append(notifications, model.Notification{
			Type:        model.NotifyApprovalAction,
			RecipientID: doc.InitiatorID,
			DocumentID:  &doc.ID,
			Message:     fmt.Sprintf("Document %q was rejected at step %d", doc.Title, step.SequenceOrder),
		})
	case DecisionRequestRevision:
		notifications = append(notifications, model.Notification{
			Type:        model.NotifyApprovalAction,
			RecipientID: doc.InitiatorID,
			DocumentID:  &doc.ID,
			Message:     fmt.Sprintf("Revision requested on document %q at step %d", doc.Title, step.SequenceOrder),
		})
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidDecision, decision)
	}

	if err := s.repo.CreateBatch(ctx, notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}

func (s *notificationService) DispatchComment(ctx context.Context, doc *model.Document, step *model.Approval, authorID uuid.UUID) ([]model.Notification, error) {
	// Comments flow between the initiator and the step's approver; notify
	// whichever of the two did not write it.
	recipient := step.ApproverID
	if authorID == step.ApproverID {
		recipient = doc.InitiatorID
	}
	if recipient == authorID {
		return nil, nil
	}

	notifications := []model.Notification{{
		Type:        model.NotifyComment,
		RecipientID: recipient,
		DocumentID:  &doc.ID,
		Message:     fmt.Sprintf("New comment on document %q (step %d)", doc.Title, step.SequenceOrder),
	}}
	if err := s.repo.CreateBatch(ctx, notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}

func (s *notificationService) DispatchResubmitted(ctx context.Context, doc *model.Document, step *model.Approval) ([]model.Notification, error) {
	notifications := []model.Notification{{
		Type:        model.NotifyApprovalRequest,
		RecipientID: step.ApproverID,
		DocumentID:  &doc.ID,
		Message:     fmt.Sprintf("Document %q was resubmitted for your review (step %d)", doc.Title, step.SequenceOrder),
	}}
	if err := s.repo.CreateBatch(ctx, notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}

func (s *notificationService) Push(notifications []model.Notification) {
	if s.pusher == nil {
		return
	}
	for _, n := range notifications {
		payload, err := json.Marshal(n)
		if err != nil {
			s.logger.Warn("failed to encode notification payload",
				zap.String("notification_id", n.ID.String()), zap.Error(err))
			continue
		}
		if !s.pusher.SendToUser(n.RecipientID, payload) {
			s.logger.Debug("recipient not connected, notification stays unread",
				zap.String("recipient_id", n.RecipientID.String()),
				zap.String("type", n.Type))
		}
	}
}

func (s *notificationService) ListForUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, page, limit int) ([]NotificationResponse, int64, error) {
	notifications, total, err := s.repo.ListForUser(ctx, userID, unreadOnly, page, limit)
	if err != nil {
		return nil, 0, err
	}

	result := make([]NotificationResponse, 0, len(notifications))
	for _, n := range notifications {
		result = append(result, toNotificationResponse(n))
	}
	return result, total, nil
}

func (s *notificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.UnreadCount(ctx, userID)
}

func (s *notificationService) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	ok, err := s.repo.MarkRead(ctx, id, userID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: notification %s", ErrNotFound, id)
	}
	return nil
}

func toNotificationResponse(n model.Notification) NotificationResponse {
	resp := NotificationResponse{
		ID:        n.ID.String(),
		Type:      n.Type,
		Message:   n.Message,
		Read:      n.Read,
		CreatedAt: n.CreatedAt.Format(timeFormat),
	}
	if n.DocumentID != nil {
		s := n.DocumentID.String()
		resp.DocumentID = &s
	}
	return resp
}

package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/scolara/scolara-api/internal/models"
	appErrors "github.com/scolara/scolara-api/pkg/errors"
)

type messageRepository interface {
	Create(ctx context.Context, m *models.Message) error
	Inbox(ctx context.Context, userID string) ([]models.MessageView, error)
	Sent(ctx context.Context, userID string) ([]models.MessageView, error)
	MarkRead(ctx context.Context, id, recipientID string) error
}

type messageUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// MessageService implements the internal mailbox.
type MessageService struct {
	repo      messageRepository
	users     messageUserRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewMessageService constructs the message service.
func NewMessageService(repo messageRepository, users messageUserRepository, validate *validator.Validate, logger *zap.Logger) *MessageService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MessageService{repo: repo, users: users, validator: validate, logger: logger}
}

// SendMessageRequest is the payload for sending a message.
type SendMessageRequest struct {
	RecipientID string `json:"recipient_id" validate:"required"`
	Subject     string `json:"subject" validate:"required,min=1,max=200"`
	Body        string `json:"body" validate:"required,min=1,max=10000"`
}

// Send delivers a message from the calling user to the recipient's mailbox.
func (s *MessageService) Send(ctx context.Context, senderID string, req SendMessageRequest) (*models.Message, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	if req.RecipientID == senderID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "cannot send a message to yourself")
	}
	if _, err := s.users.FindByID(ctx, req.RecipientID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "recipient not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch recipient")
	}
	message := &models.Message{
		SenderID:    senderID,
		RecipientID: req.RecipientID,
		Subject:     req.Subject,
		Body:        req.Body,
	}
	if err := s.repo.Create(ctx, message); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to send message")
	}
	return message, nil
}

// Inbox returns the messages received by the calling user, newest first.
func (s *MessageService) Inbox(ctx context.Context, userID string) ([]models.MessageView, error) {
	rows, err := s.repo.Inbox(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load inbox")
	}
	if rows == nil {
		rows = []models.MessageView{}
	}
	return rows, nil
}

// Sent returns the messages sent by the calling user, newest first.
func (s *MessageService) Sent(ctx context.Context, userID string) ([]models.MessageView, error) {
	rows, err := s.repo.Sent(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sent messages")
	}
	if rows == nil {
		rows = []models.MessageView{}
	}
	return rows, nil
}

// MarkRead marks a received message as read. Only the recipient may do so.
func (s *MessageService) MarkRead(ctx context.Context, id, userID string) error {
	if err := s.repo.MarkRead(ctx, id, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "message not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark message read")
	}
	return nil
}

package message

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"anoa.com/datingapp/internal/entity"
	"anoa.com/datingapp/internal/modules/message/dto"
	messageRepo "anoa.com/datingapp/internal/modules/message/repository"
	userRepo "anoa.com/datingapp/internal/modules/user/repository"
	"anoa.com/datingapp/pkg/apperror"
	"anoa.com/datingapp/pkg/logger"
	"anoa.com/datingapp/pkg/pagination"
	"anoa.com/datingapp/pkg/ratelimiter"
	"anoa.com/datingapp/pkg/sanitize"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const sendAction = "message"

// LiveChannel is the redis channel new messages for userID are published on.
func LiveChannel(userID uint) string {
	return fmt.Sprintf("user_messages:%d", userID)
}

type MessageService interface {
	Send(ctx context.Context, senderID uint, req dto.CreateMessageRequest) (*dto.MessageResponse, error)
	GetMessage(ctx context.Context, userID, messageID uint) (*dto.MessageResponse, error)
	GetMessages(ctx context.Context, filter dto.MessageFilter) (pagination.Page[dto.MessageResponse], error)
	GetThread(ctx context.Context, userID, otherID uint) ([]dto.MessageResponse, error)
	MarkAsRead(ctx context.Context, userID, messageID uint) error
	Delete(ctx context.Context, userID, messageID uint) error
}

type messageService struct {
	repo        messageRepo.MessageRepository
	userRepo    userRepo.UserRepository
	redisClient *redis.Client
	sendWindow  time.Duration
	now         func() time.Time
}

// NewMessageService wires the mailbox. A nil redis client disables rate limiting
// and live delivery.
func NewMessageService(repo messageRepo.MessageRepository, userRepo userRepo.UserRepository, redisClient *redis.Client, sendWindow time.Duration) MessageService {
	return &messageService{
		repo:        repo,
		userRepo:    userRepo,
		redisClient: redisClient,
		sendWindow:  sendWindow,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *messageService) Send(ctx context.Context, senderID uint, req dto.CreateMessageRequest) (*dto.MessageResponse, error) {
	if senderID == req.RecipientID {
		return nil, apperror.Generic("cannot send message to self")
	}

	content := sanitize.Text(req.Content)
	if content == "" {
		return nil, apperror.Generic("message content cannot be empty")
	}

	sender, err := s.userRepo.FindByID(ctx, senderID, false)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("user not found")
		}
		return nil, apperror.Database("failed to load user", err)
	}
	recipient, err := s.userRepo.FindByID(ctx, req.RecipientID, false)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("recipient not found")
		}
		return nil, apperror.Database("failed to load user", err)
	}

	if err := ratelimiter.Guard(ctx, s.redisClient, senderID, sendAction, s.sendWindow); err != nil {
		var rlErr *ratelimiter.RateLimitError
		if errors.As(err, &rlErr) {
			return nil, err
		}
		// limiter outage must not block messaging
		logger.Warn("message rate limiter unavailable", "error", err)
	}

	message := &entity.Message{
		SenderID:    sender.ID,
		RecipientID: recipient.ID,
		Content:     content,
		SentAt:      s.now(),
	}
	if err := s.repo.Create(ctx, message); err != nil {
		if clearErr := ratelimiter.ClearRateLimit(ctx, s.redisClient, senderID, sendAction); clearErr != nil {
			logger.Warn("failed to release message rate limit", "user_id", senderID, "error", clearErr)
		}
		return nil, apperror.Database("failed to send message", err)
	}
	message.Sender = sender
	message.Recipient = recipient

	resp := dto.ToMessageResponse(message)
	s.publish(ctx, recipient.ID, resp)
	return &resp, nil
}

func (s *messageService) publish(ctx context.Context, recipientID uint, resp dto.MessageResponse) {
	if s.redisClient == nil {
		return
	}
	payload, err := json.Marshal(resp)
	if err != nil {
		logger.Warn("failed to encode live message", "error", err)
		return
	}
	if err := s.redisClient.Publish(ctx, LiveChannel(recipientID), payload).Err(); err != nil {
		logger.Warn("failed to publish live message", "recipient_id", recipientID, "error", err)
	}
}

// GetMessage returns a message the caller can still see from their side.
func (s *messageService) GetMessage(ctx context.Context, userID, messageID uint) (*dto.MessageResponse, error) {
	message, err := s.load(ctx, messageID)
	if err != nil {
		return nil, err
	}

	visible := (message.SenderID == userID && !message.SenderDeleted) ||
		(message.RecipientID == userID && !message.RecipientDeleted)
	if !visible {
		return nil, apperror.Unauthorized("you cannot view this message")
	}

	resp := dto.ToMessageResponse(message)
	return &resp, nil
}

func (s *messageService) GetMessages(ctx context.Context, filter dto.MessageFilter) (pagination.Page[dto.MessageResponse], error) {
	if filter.Container == "" {
		filter.Container = entity.ContainerUnread
	}

	page, err := s.repo.Query(ctx, filter)
	if err != nil {
		return pagination.Page[dto.MessageResponse]{}, apperror.Database("failed to load messages", err)
	}

	return pagination.Page[dto.MessageResponse]{
		Items: dto.ToMessageResponses(page.Items),
		Meta:  page.Meta,
	}, nil
}

// GetThread returns the conversation with otherID and marks the caller's unread
// messages in it as read.
func (s *messageService) GetThread(ctx context.Context, userID, otherID uint) ([]dto.MessageResponse, error) {
	if _, err := s.repo.MarkThreadRead(ctx, userID, otherID, s.now()); err != nil {
		return nil, apperror.Database("failed to mark messages as read", err)
	}

	messages, err := s.repo.Thread(ctx, userID, otherID)
	if err != nil {
		return nil, apperror.Database("failed to load messages", err)
	}
	return dto.ToMessageResponses(messages), nil
}

func (s *messageService) MarkAsRead(ctx context.Context, userID, messageID uint) error {
	message, err := s.load(ctx, messageID)
	if err != nil {
		return err
	}
	if message.RecipientID != userID {
		return apperror.Unauthorized("only the recipient can mark a message as read")
	}
	if message.IsRead {
		return nil
	}

	readAt := s.now()
	message.IsRead = true
	message.ReadAt = &readAt
	if err := s.repo.Update(ctx, message); err != nil {
		return apperror.Database("failed to mark message as read", err)
	}
	return nil
}

// Delete hides the message from the caller's side and removes it for good once
// both parties deleted it.
func (s *messageService) Delete(ctx context.Context, userID, messageID uint) error {
	message, err := s.load(ctx, messageID)
	if err != nil {
		return err
	}
	if !message.MarkDeletedBy(userID) {
		return apperror.Unauthorized("you cannot delete this message")
	}

	if message.Purgeable() {
		if err := s.repo.Delete(ctx, message.ID); err != nil {
			return apperror.Database("failed to delete message", err)
		}
		return nil
	}

	if err := s.repo.Update(ctx, message); err != nil {
		return apperror.Database("failed to delete message", err)
	}
	return nil
}

func (s *messageService) load(ctx context.Context, messageID uint) (*entity.Message, error) {
	message, err := s.repo.FindByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("message not found")
		}
		return nil, apperror.Database("failed to load message", err)
	}
	return message, nil
}

package message

import (
	"context"
	"time"

	"anoa.com/datingapp/internal/entity"
	"anoa.com/datingapp/internal/modules/message/dto"
	"anoa.com/datingapp/pkg/pagination"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MessageRepository interface {
	Create(ctx context.Context, message *entity.Message) error
	FindByID(ctx context.Context, id uint) (*entity.Message, error)
	Query(ctx context.Context, filter dto.MessageFilter) (pagination.Page[entity.Message], error)
	Thread(ctx context.Context, userID, otherID uint) ([]entity.Message, error)
	MarkThreadRead(ctx context.Context, recipientID, senderID uint, at time.Time) (int64, error)
	Update(ctx context.Context, message *entity.Message) error
	Delete(ctx context.Context, id uint) error
}

type messageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func withParties(db *gorm.DB) *gorm.DB {
	mainPhoto := func(db *gorm.DB) *gorm.DB {
		return db.Where("is_main = ? AND is_approved = ?", true, true)
	}
	return db.
		Preload("Sender").
		Preload("Sender.Photos", mainPhoto).
		Preload("Recipient").
		Preload("Recipient.Photos", mainPhoto)
}

func (r *messageRepository) Create(ctx context.Context, message *entity.Message) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(message).Error
}

func (r *messageRepository) FindByID(ctx context.Context, id uint) (*entity.Message, error) {
	var message entity.Message
	if err := r.db.WithContext(ctx).
		Scopes(withParties).
		Where("id = ?", id).
		First(&message).Error; err != nil {
		return nil, err
	}
	return &message, nil
}

// Query lists one mailbox container, newest first.
func (r *messageRepository) Query(ctx context.Context, filter dto.MessageFilter) (pagination.Page[entity.Message], error) {
	query := r.db.WithContext(ctx).Model(&entity.Message{})

	switch filter.Container {
	case entity.ContainerInbox:
		query = query.Where("recipient_id = ? AND recipient_deleted = ?", filter.UserID, false)
	case entity.ContainerOutbox:
		query = query.Where("sender_id = ? AND sender_deleted = ?", filter.UserID, false)
	default:
		query = query.Where("recipient_id = ? AND recipient_deleted = ? AND is_read = ?", filter.UserID, false, false)
	}

	return pagination.Find[entity.Message](query, filter.Params, func(db *gorm.DB) *gorm.DB {
		return db.Order("sent_at DESC").Order("id DESC").Scopes(withParties)
	})
}

// Thread returns the conversation between userID and otherID as seen by userID,
// newest first. Messages userID deleted from their side are excluded.
func (r *messageRepository) Thread(ctx context.Context, userID, otherID uint) ([]entity.Message, error) {
	var messages []entity.Message
	if err := r.db.WithContext(ctx).
		Scopes(withParties).
		Where("(sender_id = ? AND recipient_id = ? AND sender_deleted = ?) OR (sender_id = ? AND recipient_id = ? AND recipient_deleted = ?)",
			userID, otherID, false, otherID, userID, false).
		Order("sent_at DESC").
		Order("id DESC").
		Find(&messages).Error; err != nil {
		return nil, err
	}
	return messages, nil
}

// MarkThreadRead marks every unread message from senderID to recipientID as read.
func (r *messageRepository) MarkThreadRead(ctx context.Context, recipientID, senderID uint, at time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&entity.Message{}).
		Where("recipient_id = ? AND sender_id = ? AND is_read = ? AND recipient_deleted = ?", recipientID, senderID, false, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": at})
	return result.RowsAffected, result.Error
}

func (r *messageRepository) Update(ctx context.Context, message *entity.Message) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(message).Error
}

func (r *messageRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&entity.Message{}, id).Error
}

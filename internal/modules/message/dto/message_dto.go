package dto

import (
	"time"

	"anoa.com/datingapp/internal/entity"
	"anoa.com/datingapp/pkg/pagination"
)

// MessageFilter selects one mailbox container for UserID. Unread is the default.
type MessageFilter struct {
	pagination.Params
	Container string `form:"container" binding:"omitempty,oneof=Inbox Outbox Unread"`
	UserID    uint   `form:"-"`
}

type CreateMessageRequest struct {
	RecipientID uint   `json:"recipient_id" binding:"required"`
	Content     string `json:"content" binding:"required,max=2000"`
}

type MessageResponse struct {
	ID                uint       `json:"id"`
	SenderID          uint       `json:"sender_id"`
	SenderUsername    string     `json:"sender_username"`
	SenderPhotoURL    string     `json:"sender_photo_url"`
	RecipientID       uint       `json:"recipient_id"`
	RecipientUsername string     `json:"recipient_username"`
	RecipientPhotoURL string     `json:"recipient_photo_url"`
	Content           string     `json:"content"`
	IsRead            bool       `json:"is_read"`
	ReadAt            *time.Time `json:"read_at"`
	SentAt            time.Time  `json:"sent_at"`
}

func ToMessageResponse(m *entity.Message) MessageResponse {
	resp := MessageResponse{
		ID:          m.ID,
		SenderID:    m.SenderID,
		RecipientID: m.RecipientID,
		Content:     m.Content,
		IsRead:      m.IsRead,
		ReadAt:      m.ReadAt,
		SentAt:      m.SentAt,
	}
	if m.Sender != nil {
		resp.SenderUsername = m.Sender.Username
		if p := m.Sender.MainPhoto(); p != nil {
			resp.SenderPhotoURL = p.URL
		}
	}
	if m.Recipient != nil {
		resp.RecipientUsername = m.Recipient.Username
		if p := m.Recipient.MainPhoto(); p != nil {
			resp.RecipientPhotoURL = p.URL
		}
	}
	return resp
}

func ToMessageResponses(messages []entity.Message) []MessageResponse {
	out := make([]MessageResponse, 0, len(messages))
	for i := range messages {
		out = append(out, ToMessageResponse(&messages[i]))
	}
	return out
}

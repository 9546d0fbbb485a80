package entity

import "time"

const (
	ContainerInbox  = "Inbox"
	ContainerOutbox = "Outbox"
	ContainerUnread = "Unread"
)

// Message is removed from storage only once both parties have deleted it.
type Message struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	SenderID         uint       `gorm:"index;not null" json:"sender_id"`
	Sender           *User      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	RecipientID      uint       `gorm:"index;not null" json:"recipient_id"`
	Recipient        *User      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Content          string     `gorm:"type:text;not null" json:"content"`
	IsRead           bool       `gorm:"not null" json:"is_read"`
	ReadAt           *time.Time `json:"read_at,omitempty"`
	SentAt           time.Time  `gorm:"index;not null" json:"sent_at"`
	SenderDeleted    bool       `gorm:"not null" json:"sender_deleted"`
	RecipientDeleted bool       `gorm:"not null" json:"recipient_deleted"`
}

// MarkDeletedBy sets the caller's delete flag. It reports whether the caller is a
// party to the message at all.
func (m *Message) MarkDeletedBy(userID uint) bool {
	party := false
	if m.SenderID == userID {
		m.SenderDeleted = true
		party = true
	}
	if m.RecipientID == userID {
		m.RecipientDeleted = true
		party = true
	}
	return party
}

// Purgeable reports whether both parties deleted the message.
func (m *Message) Purgeable() bool {
	return m.SenderDeleted && m.RecipientDeleted
}

package entity

import "time"

// Photo moves from pending (IsApproved false) to approved, and is removed on
// reject or delete. A main photo is always approved and each user has at most one.
type Photo struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	URL         string    `gorm:"type:text;not null" json:"url"`
	PublicID    *string   `gorm:"size:255" json:"-"`
	Description string    `gorm:"type:text" json:"description"`
	DateAdded   time.Time `gorm:"autoCreateTime" json:"date_added"`
	IsMain      bool      `gorm:"not null" json:"is_main"`
	IsApproved  bool      `gorm:"not null;index" json:"is_approved"`
	UserID      uint      `gorm:"index;not null" json:"user_id"`
	User        *User     `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

package dto

import (
	"io"
	"time"
)

// PhotoFile is an uploaded image stream with its original file name.
type PhotoFile struct {
	Reader   io.Reader
	FileName string
}

type UploadPhotoRequest struct {
	Description string `form:"description" binding:"omitempty,max=500"`
}

type ModerationPhotoResponse struct {
	ID         uint      `json:"id"`
	URL        string    `json:"url"`
	UserID     uint      `json:"user_id"`
	Username   string    `json:"username"`
	IsApproved bool      `json:"is_approved"`
	DateAdded  time.Time `json:"date_added"`
}

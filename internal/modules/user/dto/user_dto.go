package dto

import (
	"time"

	"anoa.com/datingapp/internal/entity"
	"anoa.com/datingapp/pkg/pagination"
)

const (
	OrderByCreated    = "created"
	OrderByLastActive = "lastActive"

	DefaultMinAge = 18
	DefaultMaxAge = 99
)

// UserFilter is the member list query. RequesterID is taken from the token, never
// from the query string.
type UserFilter struct {
	pagination.Params
	MinAge      *int   `form:"minAge" binding:"omitempty,min=18,max=150"`
	MaxAge      *int   `form:"maxAge" binding:"omitempty,min=18,max=150"`
	Gender      string `form:"gender" binding:"omitempty,oneof=male female"`
	OrderBy     string `form:"orderBy" binding:"omitempty,oneof=created lastActive"`
	Likers      bool   `form:"likers"`
	Likees      bool   `form:"likees"`
	RequesterID uint   `form:"-"`
}

// Ages returns the requested bounds with defaults filled in.
func (f UserFilter) Ages() (minAge, maxAge int) {
	minAge, maxAge = DefaultMinAge, DefaultMaxAge
	if f.MinAge != nil {
		minAge = *f.MinAge
	}
	if f.MaxAge != nil {
		maxAge = *f.MaxAge
	}
	return minAge, maxAge
}

// BirthDateRange converts the age bounds into an inclusive date of birth window.
// The lower bound is the day after the (maxAge+1)th birthday, so everyone aged
// maxAge is included and nobody older.
func (f UserFilter) BirthDateRange(today time.Time) (minDOB, maxDOB time.Time) {
	minAge, maxAge := f.Ages()
	today = today.UTC()
	midnight := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	return midnight.AddDate(-(maxAge + 1), 0, 1), midnight.AddDate(-minAge, 0, 0)
}

type UpdateUserRequest struct {
	Introduction *string `json:"introduction" binding:"omitempty,max=2000"`
	LookingFor   *string `json:"looking_for" binding:"omitempty,max=2000"`
	Interests    *string `json:"interests" binding:"omitempty,max=2000"`
	City         string  `json:"city" binding:"required,max=100"`
	Country      string  `json:"country" binding:"required,max=100"`
}

type SearchRequest struct {
	pagination.Params
	Query string `form:"q" binding:"required,max=100"`
}

type PhotoResponse struct {
	ID          uint      `json:"id"`
	URL         string    `json:"url"`
	Description string    `json:"description"`
	DateAdded   time.Time `json:"date_added"`
	IsMain      bool      `json:"is_main"`
	IsApproved  bool      `json:"is_approved"`
}

type MemberResponse struct {
	ID         uint      `json:"id"`
	Username   string    `json:"username"`
	KnownAs    string    `json:"known_as"`
	Gender     string    `json:"gender"`
	Age        int       `json:"age"`
	PhotoURL   string    `json:"photo_url"`
	City       string    `json:"city"`
	Country    string    `json:"country"`
	Created    time.Time `json:"created"`
	LastActive time.Time `json:"last_active"`
}

type MemberDetailResponse struct {
	MemberResponse
	Introduction *string         `json:"introduction"`
	LookingFor   *string         `json:"looking_for"`
	Interests    *string         `json:"interests"`
	Photos       []PhotoResponse `json:"photos"`
}

func ToPhotoResponse(p entity.Photo) PhotoResponse {
	return PhotoResponse{
		ID:          p.ID,
		URL:         p.URL,
		Description: p.Description,
		DateAdded:   p.DateAdded,
		IsMain:      p.IsMain,
		IsApproved:  p.IsApproved,
	}
}

func ToMemberResponse(u *entity.User, now time.Time) MemberResponse {
	resp := MemberResponse{
		ID:         u.ID,
		Username:   u.Username,
		KnownAs:    u.KnownAs,
		Gender:     u.Gender,
		Age:        u.Age(now),
		City:       u.City,
		Country:    u.Country,
		Created:    u.CreatedAt,
		LastActive: u.LastActive,
	}
	if main := u.MainPhoto(); main != nil {
		resp.PhotoURL = main.URL
	}
	return resp
}

func ToMemberDetailResponse(u *entity.User, now time.Time) MemberDetailResponse {
	photos := make([]PhotoResponse, 0, len(u.Photos))
	for _, p := range u.Photos {
		photos = append(photos, ToPhotoResponse(p))
	}
	return MemberDetailResponse{
		MemberResponse: ToMemberResponse(u, now),
		Introduction:   u.Introduction,
		LookingFor:     u.LookingFor,
		Interests:      u.Interests,
		Photos:         photos,
	}
}

func ToMemberResponses(users []entity.User, now time.Time) []MemberResponse {
	out := make([]MemberResponse, 0, len(users))
	for i := range users {
		out = append(out, ToMemberResponse(&users[i], now))
	}
	return out
}

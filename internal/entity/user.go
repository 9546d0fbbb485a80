package entity

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

const (
	RoleMember    = "Member"
	RoleAdmin     = "Admin"
	RoleModerator = "Moderator"
	RoleVIP       = "VIP"
)

// Roles is the fixed role vocabulary, in seeding order.
var Roles = []string{RoleMember, RoleAdmin, RoleModerator, RoleVIP}

const (
	GenderMale   = "male"
	GenderFemale = "female"
)

type Role struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Name           string    `gorm:"size:50;not null" json:"name"`
	NormalizedName string    `gorm:"size:50;uniqueIndex;not null" json:"-"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (r *Role) BeforeSave(tx *gorm.DB) error {
	r.NormalizedName = Normalize(r.Name)
	return nil
}

type User struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	Username           string    `gorm:"size:50;not null" json:"username"`
	NormalizedUsername string    `gorm:"size:50;uniqueIndex;not null" json:"-"`
	PasswordHash       string    `gorm:"size:255;not null" json:"-"`
	Gender             string    `gorm:"size:16;index;not null" json:"gender"`
	DateOfBirth        time.Time `gorm:"index;not null" json:"date_of_birth"`
	KnownAs            string    `gorm:"size:100" json:"known_as"`
	Introduction       *string   `gorm:"type:text" json:"introduction,omitempty"`
	LookingFor         *string   `gorm:"type:text" json:"looking_for,omitempty"`
	Interests          *string   `gorm:"type:text" json:"interests,omitempty"`
	City               string    `gorm:"size:100" json:"city"`
	Country            string    `gorm:"size:100" json:"country"`
	CreatedAt          time.Time `gorm:"autoCreateTime;index" json:"created"`
	LastActive         time.Time `gorm:"index" json:"last_active"`
	Photos             []Photo   `gorm:"constraint:OnDelete:CASCADE" json:"photos,omitempty"`
	Roles              []Role    `gorm:"many2many:user_roles;constraint:OnDelete:CASCADE" json:"roles,omitempty"`
}

func (u *User) BeforeSave(tx *gorm.DB) error {
	u.NormalizedUsername = Normalize(u.Username)
	return nil
}

// Age in whole years at the given instant.
func (u *User) Age(now time.Time) int {
	if u.DateOfBirth.IsZero() {
		return 0
	}
	dob := u.DateOfBirth
	age := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		age--
	}
	return age
}

// MainPhoto returns the approved main photo among the loaded photos, if any.
func (u *User) MainPhoto() *Photo {
	for i := range u.Photos {
		if u.Photos[i].IsMain && u.Photos[i].IsApproved {
			return &u.Photos[i]
		}
	}
	return nil
}

func (u *User) RoleNames() []string {
	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		names = append(names, r.Name)
	}
	return names
}

// OppositeGender is the default match preference for a member.
func OppositeGender(gender string) string {
	if strings.EqualFold(gender, GenderMale) {
		return GenderFemale
	}
	return GenderMale
}

// Normalize is the case-insensitive key used for usernames and role names.
func Normalize(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// Models lists every persisted entity in migration order.
func Models() []interface{} {
	return []interface{}{&Role{}, &User{}, &Photo{}, &Like{}, &Message{}}
}

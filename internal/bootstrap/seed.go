package bootstrap

import (
	"fmt"
	"strings"
	"time"

	"anoa.com/datingapp/internal/entity"
	"anoa.com/datingapp/pkg/logger"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const seedPassword = "Pa$$w0rd"

type seedMember struct {
	Username string
	Gender   string
	Born     string
	City     string
	Country  string
	Intro    string
	Photo    string
}

var seedMembers = []seedMember{
	{"lisa", entity.GenderFemale, "1994-03-11", "Jakarta", "Indonesia", "Coffee first, then adventures.", "https://randomuser.me/api/portraits/women/12.jpg"},
	{"karen", entity.GenderFemale, "1990-07-23", "Bandung", "Indonesia", "Weekend hiker and amateur baker.", "https://randomuser.me/api/portraits/women/21.jpg"},
	{"margo", entity.GenderFemale, "1987-11-02", "Surabaya", "Indonesia", "Looking for someone who likes long dinners.", "https://randomuser.me/api/portraits/women/33.jpg"},
	{"todd", entity.GenderMale, "1992-01-15", "Jakarta", "Indonesia", "Guitar, football and street food.", "https://randomuser.me/api/portraits/men/14.jpg"},
	{"davis", entity.GenderMale, "1985-05-30", "Yogyakarta", "Indonesia", "I cook better than I dance.", "https://randomuser.me/api/portraits/men/27.jpg"},
	{"bob", entity.GenderMale, "1996-09-08", "Denpasar", "Indonesia", "Surfing most mornings.", "https://randomuser.me/api/portraits/men/41.jpg"},
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(entity.Models()...)
}

func SeedRoles(db *gorm.DB) error {
	for _, name := range entity.Roles {
		var count int64
		if err := db.Model(&entity.Role{}).
			Where("normalized_name = ?", entity.Normalize(name)).
			Count(&count).Error; err != nil {
			return err
		}

		if count == 0 {
			if err := db.Create(&entity.Role{Name: name}).Error; err != nil {
				return err
			}
		}
	}

	return nil
}

// SeedAdmin creates the admin account holding the Admin and Moderator roles.
func SeedAdmin(db *gorm.DB) error {
	exists, err := usernameTaken(db, "admin")
	if err != nil || exists {
		return err
	}

	roles, err := rolesByName(db, entity.RoleAdmin, entity.RoleModerator)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(seedPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	admin := entity.User{
		Username:     "admin",
		PasswordHash: string(hash),
		Gender:       entity.GenderFemale,
		DateOfBirth:  time.Date(1990, time.January, 1, 0, 0, 0, 0, time.UTC),
		KnownAs:      "Admin",
		City:         "Jakarta",
		Country:      "Indonesia",
		CreatedAt:    now,
		LastActive:   now,
		Roles:        roles,
	}
	if err := db.Create(&admin).Error; err != nil {
		return err
	}

	logger.Info("admin user seeded", "username", admin.Username)
	return nil
}

// SeedMembers inserts demo members, each with an approved main photo. It does
// nothing once any member beyond the admin exists.
func SeedMembers(db *gorm.DB) error {
	var count int64
	if err := db.Model(&entity.User{}).
		Where("normalized_username <> ?", entity.Normalize("admin")).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	roles, err := rolesByName(db, entity.RoleMember)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(seedPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	return db.Transaction(func(tx *gorm.DB) error {
		for i, m := range seedMembers {
			born, err := time.Parse("2006-01-02", m.Born)
			if err != nil {
				return fmt.Errorf("seed member %s: %w", m.Username, err)
			}

			intro := m.Intro
			joined := time.Now().UTC().AddDate(0, 0, -(len(seedMembers) - i))
			member := entity.User{
				Username:     m.Username,
				PasswordHash: string(hash),
				Gender:       m.Gender,
				DateOfBirth:  born,
				KnownAs:      strings.ToUpper(m.Username[:1]) + m.Username[1:],
				Introduction: &intro,
				City:         m.City,
				Country:      m.Country,
				CreatedAt:    joined,
				LastActive:   joined,
				Roles:        roles,
				Photos: []entity.Photo{{
					URL:        m.Photo,
					IsMain:     true,
					IsApproved: true,
				}},
			}
			if err := tx.Create(&member).Error; err != nil {
				return fmt.Errorf("seed member %s: %w", m.Username, err)
			}
		}

		logger.Info("demo members seeded", "count", len(seedMembers))
		return nil
	})
}

func usernameTaken(db *gorm.DB, username string) (bool, error) {
	var count int64
	if err := db.Model(&entity.User{}).
		Where("normalized_username = ?", entity.Normalize(username)).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func rolesByName(db *gorm.DB, names ...string) ([]entity.Role, error) {
	normalized := make([]string, 0, len(names))
	for _, n := range names {
		normalized = append(normalized, entity.Normalize(n))
	}

	var roles []entity.Role
	if err := db.Where("normalized_name IN ?", normalized).Find(&roles).Error; err != nil {
		return nil, err
	}
	if len(roles) != len(names) {
		return nil, fmt.Errorf("roles %v are not seeded", names)
	}
	return roles, nil
}

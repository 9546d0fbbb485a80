// Package testutil builds isolated in-memory databases and fixtures for package tests.
package testutil

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"anoa.com/datingapp/internal/entity"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a fresh shared-cache in-memory SQLite database named after the test
// and migrates every entity.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(entity.Models()...))
	for _, name := range entity.Roles {
		require.NoError(t, db.Create(&entity.Role{Name: name}).Error)
	}
	return db
}

// Birthday returns the UTC date of birth of someone who turns age years old today.
func Birthday(age int) time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year()-age, now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// CreateUser inserts a member with the given username, gender and age.
func CreateUser(t *testing.T, db *gorm.DB, username, gender string, age int) *entity.User {
	t.Helper()

	var member entity.Role
	require.NoError(t, db.Where("normalized_name = ?", entity.Normalize(entity.RoleMember)).First(&member).Error)

	now := time.Now().UTC()
	user := &entity.User{
		Username:     username,
		PasswordHash: "x",
		Gender:       gender,
		DateOfBirth:  Birthday(age),
		KnownAs:      strings.ToUpper(username[:1]) + username[1:],
		City:         "Jakarta",
		Country:      "Indonesia",
		LastActive:   now,
		Roles:        []entity.Role{member},
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreatePhoto inserts a photo for userID.
func CreatePhoto(t *testing.T, db *gorm.DB, userID uint, approved, main bool) *entity.Photo {
	t.Helper()

	publicID := fmt.Sprintf("members/%d-%d", userID, time.Now().UnixNano())
	photo := &entity.Photo{
		URL:        "https://res.cloudinary.com/demo/" + publicID + ".webp",
		PublicID:   &publicID,
		UserID:     userID,
		IsApproved: approved,
		IsMain:     main,
	}
	require.NoError(t, db.Create(photo).Error)
	return photo
}

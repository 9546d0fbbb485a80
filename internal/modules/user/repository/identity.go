package user

import (
	"context"
	"errors"
	"fmt"

	"anoa.com/datingapp/internal/entity"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var ErrUnknownRole = errors.New("unknown role")

// IdentityStore is the minimal identity capability the auth and admin services need.
type IdentityStore interface {
	FindUserByName(ctx context.Context, username string) (*entity.User, error)
	GetRoles(ctx context.Context, userID uint) ([]string, error)
	AddRoles(ctx context.Context, userID uint, roles []string) error
	RemoveRoles(ctx context.Context, userID uint, roles []string) error
	VerifyPassword(user *entity.User, password string) bool
	HashPassword(password string) (string, error)
}

type identityStore struct {
	db   *gorm.DB
	cost int
}

func NewIdentityStore(db *gorm.DB) IdentityStore {
	return &identityStore{db: db, cost: bcrypt.DefaultCost}
}

// NewIdentityStoreWithCost is used by tests and seeding to keep hashing fast.
func NewIdentityStoreWithCost(db *gorm.DB, cost int) IdentityStore {
	return &identityStore{db: db, cost: cost}
}

func (s *identityStore) FindUserByName(ctx context.Context, username string) (*entity.User, error) {
	var user entity.User
	if err := s.db.WithContext(ctx).
		Preload("Roles").
		Preload("Photos", "is_main = ? AND is_approved = ?", true, true).
		Where("normalized_username = ?", entity.Normalize(username)).
		First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *identityStore) GetRoles(ctx context.Context, userID uint) ([]string, error) {
	var names []string
	err := s.db.WithContext(ctx).
		Model(&entity.Role{}).
		Joins("JOIN user_roles ON user_roles.role_id = roles.id").
		Where("user_roles.user_id = ?", userID).
		Order("roles.name ASC").
		Pluck("roles.name", &names).Error
	if err != nil {
		return nil, err
	}
	return names, nil
}

func (s *identityStore) AddRoles(ctx context.Context, userID uint, roles []string) error {
	found, err := s.lookupRoles(ctx, roles)
	if err != nil || len(found) == 0 {
		return err
	}
	return s.db.WithContext(ctx).Model(&entity.User{ID: userID}).Association("Roles").Append(&found)
}

func (s *identityStore) RemoveRoles(ctx context.Context, userID uint, roles []string) error {
	found, err := s.lookupRoles(ctx, roles)
	if err != nil || len(found) == 0 {
		return err
	}
	return s.db.WithContext(ctx).Model(&entity.User{ID: userID}).Association("Roles").Delete(&found)
}

func (s *identityStore) VerifyPassword(user *entity.User, password string) bool {
	if user == nil || user.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil
}

func (s *identityStore) HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// lookupRoles resolves role names case-insensitively and fails on any unknown name.
func (s *identityStore) lookupRoles(ctx context.Context, names []string) ([]entity.Role, error) {
	if len(names) == 0 {
		return nil, nil
	}
	normalized := make([]string, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		key := entity.Normalize(n)
		if !seen[key] {
			seen[key] = true
			normalized = append(normalized, key)
		}
	}

	var roles []entity.Role
	if err := s.db.WithContext(ctx).Where("normalized_name IN ?", normalized).Find(&roles).Error; err != nil {
		return nil, err
	}
	if len(roles) != len(normalized) {
		return nil, fmt.Errorf("%w: %v", ErrUnknownRole, names)
	}
	return roles, nil
}

package user

import (
	"context"
	"time"

	"anoa.com/datingapp/internal/entity"
	"anoa.com/datingapp/internal/modules/user/dto"
	"anoa.com/datingapp/pkg/pagination"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	FindByID(ctx context.Context, id uint, includeUnapproved bool) (*entity.User, error)
	FindByUsername(ctx context.Context, username string) (*entity.User, error)
	FindByIDs(ctx context.Context, ids []uint) ([]entity.User, error)
	FindAllWithRoles(ctx context.Context) ([]entity.User, error)
	FindRoleByName(ctx context.Context, name string) (*entity.Role, error)
	Exists(ctx context.Context, id uint) (bool, error)
	UpdateProfile(ctx context.Context, user *entity.User) error
	TouchLastActive(ctx context.Context, id uint, at time.Time) error
	Query(ctx context.Context, filter dto.UserFilter, today time.Time) (pagination.Page[entity.User], error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// Create inserts the user together with its role links.
func (r *userRepository) Create(ctx context.Context, user *entity.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// FindByID loads the user with roles and photos. Pending photos are only loaded
// when includeUnapproved is set.
func (r *userRepository) FindByID(ctx context.Context, id uint, includeUnapproved bool) (*entity.User, error) {
	var user entity.User
	if err := r.db.WithContext(ctx).
		Preload("Roles").
		Preload("Photos", photoVisibility(includeUnapproved)).
		Where("id = ?", id).
		First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	var user entity.User
	if err := r.db.WithContext(ctx).
		Preload("Roles").
		Preload("Photos", photoVisibility(false)).
		Where("normalized_username = ?", entity.Normalize(username)).
		First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByIDs loads users with their approved photos. Order is not preserved.
func (r *userRepository) FindByIDs(ctx context.Context, ids []uint) ([]entity.User, error) {
	var users []entity.User
	if len(ids) == 0 {
		return users, nil
	}
	if err := r.db.WithContext(ctx).
		Preload("Photos", photoVisibility(false)).
		Where("id IN ?", ids).
		Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepository) FindAllWithRoles(ctx context.Context) ([]entity.User, error) {
	var users []entity.User
	if err := r.db.WithContext(ctx).
		Preload("Roles", func(db *gorm.DB) *gorm.DB {
			return db.Order("name ASC")
		}).
		Order("normalized_username ASC").
		Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepository) FindRoleByName(ctx context.Context, name string) (*entity.Role, error) {
	var role entity.Role
	if err := r.db.WithContext(ctx).Where("normalized_name = ?", entity.Normalize(name)).First(&role).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *userRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&entity.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// UpdateProfile persists the member editable columns only.
func (r *userRepository) UpdateProfile(ctx context.Context, user *entity.User) error {
	return r.db.WithContext(ctx).
		Model(user).
		Omit(clause.Associations).
		Select("introduction", "looking_for", "interests", "city", "country").
		Updates(user).Error
}

// TouchLastActive skips hooks so the username normalisation is not re-run.
func (r *userRepository) TouchLastActive(ctx context.Context, id uint, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&entity.User{}).
		Where("id = ?", id).
		UpdateColumn("last_active", at).Error
}

// Query filters members for the list view. likees takes precedence over likers;
// without either, the requester is excluded and the gender filter applies.
func (r *userRepository) Query(ctx context.Context, filter dto.UserFilter, today time.Time) (pagination.Page[entity.User], error) {
	query := r.db.WithContext(ctx).Model(&entity.User{})

	switch {
	case filter.Likees:
		query = query.Where("id IN (?)",
			r.db.Model(&entity.Like{}).Select("likee_id").Where("liker_id = ?", filter.RequesterID))
	case filter.Likers:
		query = query.Where("id IN (?)",
			r.db.Model(&entity.Like{}).Select("liker_id").Where("likee_id = ?", filter.RequesterID))
	default:
		query = query.Where("id <> ?", filter.RequesterID).Where("gender = ?", filter.Gender)
	}

	minDOB, maxDOB := filter.BirthDateRange(today)
	query = query.Where("date_of_birth >= ? AND date_of_birth <= ?", minDOB, maxDOB)

	order := "last_active DESC"
	if filter.OrderBy == dto.OrderByCreated {
		order = "created_at DESC"
	}

	return pagination.Find[entity.User](query, filter.Params, func(db *gorm.DB) *gorm.DB {
		return db.Order(order).Order("id DESC").Preload("Photos", photoVisibility(false))
	})
}

func photoVisibility(includeUnapproved bool) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if !includeUnapproved {
			db = db.Where("is_approved = ?", true)
		}
		return db.Order("is_main DESC").Order("id ASC")
	}
}

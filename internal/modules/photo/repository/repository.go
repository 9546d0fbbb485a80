package photo

import (
	"context"
	"errors"

	"anoa.com/datingapp/internal/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PhotoRepository interface {
	FindByID(ctx context.Context, id uint, includeUnapproved bool) (*entity.Photo, error)
	FindForUser(ctx context.Context, userID, photoID uint, includeUnapproved bool) (*entity.Photo, error)
	FindMain(ctx context.Context, userID uint) (*entity.Photo, error)
	LockOwner(ctx context.Context, userID uint) error
	FindUnapproved(ctx context.Context) ([]entity.Photo, error)
	Create(ctx context.Context, photo *entity.Photo) error
	Update(ctx context.Context, photo *entity.Photo) error
	Delete(ctx context.Context, id uint) error
	Transaction(ctx context.Context, fn func(repo PhotoRepository) error) error
}

type photoRepository struct {
	db *gorm.DB
}

func NewPhotoRepository(db *gorm.DB) PhotoRepository {
	return &photoRepository{db: db}
}

func (r *photoRepository) scoped(ctx context.Context, includeUnapproved bool) *gorm.DB {
	query := r.db.WithContext(ctx)
	if !includeUnapproved {
		query = query.Where("is_approved = ?", true)
	}
	return query
}

func (r *photoRepository) FindByID(ctx context.Context, id uint, includeUnapproved bool) (*entity.Photo, error) {
	var photo entity.Photo
	if err := r.scoped(ctx, includeUnapproved).Where("id = ?", id).First(&photo).Error; err != nil {
		return nil, err
	}
	return &photo, nil
}

func (r *photoRepository) FindForUser(ctx context.Context, userID, photoID uint, includeUnapproved bool) (*entity.Photo, error) {
	var photo entity.Photo
	if err := r.scoped(ctx, includeUnapproved).
		Where("id = ? AND user_id = ?", photoID, userID).
		First(&photo).Error; err != nil {
		return nil, err
	}
	return &photo, nil
}

// FindMain returns nil without error when the user has no main photo.
func (r *photoRepository) FindMain(ctx context.Context, userID uint) (*entity.Photo, error) {
	var photo entity.Photo
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_main = ?", userID, true).
		First(&photo).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &photo, nil
}

// LockOwner holds a row lock on the owning user until the surrounding
// transaction ends, so main photo changes for one user run one at a time.
// SQLite ignores the lock clause.
func (r *photoRepository) LockOwner(ctx context.Context, userID uint) error {
	var owner entity.User
	return lockOwner(r.db.WithContext(ctx), userID).Take(&owner).Error
}

func lockOwner(db *gorm.DB, userID uint) *gorm.DB {
	return db.Model(&entity.User{}).
		Select("id").
		Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).
		Where("id = ?", userID)
}

// FindUnapproved lists the moderation queue, oldest first, with owners loaded.
func (r *photoRepository) FindUnapproved(ctx context.Context) ([]entity.Photo, error) {
	var photos []entity.Photo
	if err := r.db.WithContext(ctx).
		Preload("User").
		Where("is_approved = ?", false).
		Order("date_added ASC").
		Order("id ASC").
		Find(&photos).Error; err != nil {
		return nil, err
	}
	return photos, nil
}

func (r *photoRepository) Create(ctx context.Context, photo *entity.Photo) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(photo).Error
}

func (r *photoRepository) Update(ctx context.Context, photo *entity.Photo) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(photo).Error
}

func (r *photoRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&entity.Photo{}, id).Error
}

// Transaction runs fn against a repository bound to a single database transaction.
func (r *photoRepository) Transaction(ctx context.Context, fn func(repo PhotoRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&photoRepository{db: tx})
	})
}

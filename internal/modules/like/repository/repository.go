package like

import (
	"context"
	"errors"

	"anoa.com/datingapp/internal/entity"
	"gorm.io/gorm"
)

type LikeRepository interface {
	GetLike(ctx context.Context, likerID, likeeID uint) (*entity.Like, error)
	Create(ctx context.Context, like *entity.Like) error
	Delete(ctx context.Context, likerID, likeeID uint) (int64, error)
}

type likeRepository struct {
	db *gorm.DB
}

func NewLikeRepository(db *gorm.DB) LikeRepository {
	return &likeRepository{db: db}
}

// GetLike returns nil without error when there is no edge.
func (r *likeRepository) GetLike(ctx context.Context, likerID, likeeID uint) (*entity.Like, error) {
	var like entity.Like
	err := r.db.WithContext(ctx).
		Where("liker_id = ? AND likee_id = ?", likerID, likeeID).
		First(&like).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &like, nil
}

func (r *likeRepository) Create(ctx context.Context, like *entity.Like) error {
	return r.db.WithContext(ctx).Create(like).Error
}

// Delete returns the number of removed edges.
func (r *likeRepository) Delete(ctx context.Context, likerID, likeeID uint) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("liker_id = ? AND likee_id = ?", likerID, likeeID).
		Delete(&entity.Like{})
	return result.RowsAffected, result.Error
}

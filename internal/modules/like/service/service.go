package like

import (
	"context"
	"errors"

	"anoa.com/datingapp/internal/entity"
	likeRepo "anoa.com/datingapp/internal/modules/like/repository"
	userRepo "anoa.com/datingapp/internal/modules/user/repository"
	"anoa.com/datingapp/pkg/apperror"
	"gorm.io/gorm"
)

const (
	msgAlreadyLiked = "you already like this user"
	msgNotLiked     = "you did not like this user"
)

type LikeService interface {
	GetLike(ctx context.Context, likerID, likeeID uint) (*entity.Like, error)
	AddLike(ctx context.Context, likerID, likeeID uint) error
	RemoveLike(ctx context.Context, likerID, likeeID uint) error
}

type likeService struct {
	repo     likeRepo.LikeRepository
	userRepo userRepo.UserRepository
}

func NewLikeService(repo likeRepo.LikeRepository, userRepo userRepo.UserRepository) LikeService {
	return &likeService{repo: repo, userRepo: userRepo}
}

func (s *likeService) GetLike(ctx context.Context, likerID, likeeID uint) (*entity.Like, error) {
	like, err := s.repo.GetLike(ctx, likerID, likeeID)
	if err != nil {
		return nil, apperror.Database("failed to load like", err)
	}
	return like, nil
}

// AddLike creates the edge. A concurrent duplicate insert surfaces as the same
// domain error as the pre-check.
func (s *likeService) AddLike(ctx context.Context, likerID, likeeID uint) error {
	if likerID == likeeID {
		return apperror.Generic("you cannot like yourself")
	}

	existing, err := s.GetLike(ctx, likerID, likeeID)
	if err != nil {
		return err
	}
	if existing != nil {
		return apperror.Generic(msgAlreadyLiked)
	}

	exists, err := s.userRepo.Exists(ctx, likeeID)
	if err != nil {
		return apperror.Database("failed to load user", err)
	}
	if !exists {
		return apperror.NotFound("user not found")
	}

	if err := s.repo.Create(ctx, &entity.Like{LikerID: likerID, LikeeID: likeeID}); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperror.Generic(msgAlreadyLiked)
		}
		return apperror.Database("failed to like user", err)
	}
	return nil
}

func (s *likeService) RemoveLike(ctx context.Context, likerID, likeeID uint) error {
	removed, err := s.repo.Delete(ctx, likerID, likeeID)
	if err != nil {
		return apperror.Database("failed to unlike user", err)
	}
	if removed == 0 {
		return apperror.Generic(msgNotLiked)
	}
	return nil
}

package photo

import (
	"context"
	"errors"
	"path"
	"time"

	"anoa.com/datingapp/internal/entity"
	"anoa.com/datingapp/internal/modules/photo/dto"
	photoRepo "anoa.com/datingapp/internal/modules/photo/repository"
	userDto "anoa.com/datingapp/internal/modules/user/dto"
	"anoa.com/datingapp/pkg/apperror"
	"anoa.com/datingapp/pkg/logger"
	"anoa.com/datingapp/pkg/sanitize"
	"anoa.com/datingapp/pkg/storage"
	"gorm.io/gorm"
)

// PhotoService owns the photo lifecycle: uploads start pending, moderation approves
// or rejects them, and owners pick one approved photo as main.
type PhotoService interface {
	Upload(ctx context.Context, userID uint, file dto.PhotoFile, description string) (*userDto.PhotoResponse, error)
	GetPhoto(ctx context.Context, userID, photoID uint) (*userDto.PhotoResponse, error)
	SetMain(ctx context.Context, userID, photoID uint) error
	Delete(ctx context.Context, userID, photoID uint) error
	Approve(ctx context.Context, photoID uint) error
	Reject(ctx context.Context, photoID uint) error
	ListForModeration(ctx context.Context) ([]dto.ModerationPhotoResponse, error)
}

type photoService struct {
	repo         photoRepo.PhotoRepository
	imageStorage storage.ImageStorage
	folder       string
}

func NewPhotoService(repo photoRepo.PhotoRepository, imageStorage storage.ImageStorage, folder string) PhotoService {
	if folder == "" {
		folder = "datingapp"
	}
	return &photoService{
		repo:         repo,
		imageStorage: imageStorage,
		folder:       folder,
	}
}

func (s *photoService) Upload(ctx context.Context, userID uint, file dto.PhotoFile, description string) (*userDto.PhotoResponse, error) {
	if s.imageStorage == nil {
		return nil, apperror.Generic("photo uploads are not available")
	}

	result, err := s.imageStorage.UploadImage(ctx, file.Reader, path.Join(s.folder, "members"), file.FileName)
	if err != nil {
		logger.Warn("photo upload failed", "user_id", userID, "error", err)
		return nil, apperror.Generic("failed to upload photo")
	}

	publicID := result.PublicID
	photo := &entity.Photo{
		URL:         result.URL,
		PublicID:    &publicID,
		Description: sanitize.Text(description),
		DateAdded:   time.Now().UTC(),
		UserID:      userID,
	}
	if err := s.repo.Create(ctx, photo); err != nil {
		if delErr := s.imageStorage.DeleteImage(ctx, publicID); delErr != nil {
			logger.Warn("failed to clean up uploaded image", "public_id", publicID, "error", delErr)
		}
		return nil, apperror.Database("failed to save photo", err)
	}

	resp := userDto.ToPhotoResponse(*photo)
	return &resp, nil
}

// GetPhoto returns one of the owner's photos, pending ones included.
func (s *photoService) GetPhoto(ctx context.Context, userID, photoID uint) (*userDto.PhotoResponse, error) {
	photo, err := s.repo.FindForUser(ctx, userID, photoID, true)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("photo not found")
		}
		return nil, apperror.Database("failed to load photo", err)
	}

	resp := userDto.ToPhotoResponse(*photo)
	return &resp, nil
}

// SetMain swaps the main flag from the current main photo to photoID atomically.
func (s *photoService) SetMain(ctx context.Context, userID, photoID uint) error {
	return s.repo.Transaction(ctx, func(tx photoRepo.PhotoRepository) error {
		photo, err := tx.FindForUser(ctx, userID, photoID, true)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.Unauthorized("photo not found")
			}
			return apperror.Database("failed to load photo", err)
		}
		if photo.IsMain {
			return apperror.Generic("this is already your main photo")
		}
		if !photo.IsApproved {
			return apperror.Generic("only approved photos can be set as main")
		}

		if err := tx.LockOwner(ctx, userID); err != nil {
			return apperror.Database("failed to lock photos", err)
		}
		current, err := tx.FindMain(ctx, userID)
		if err != nil {
			return apperror.Database("failed to load main photo", err)
		}
		if current != nil {
			current.IsMain = false
			if err := tx.Update(ctx, current); err != nil {
				return apperror.Database("failed to update main photo", err)
			}
		}

		photo.IsMain = true
		if err := tx.Update(ctx, photo); err != nil {
			return apperror.Database("failed to update main photo", err)
		}
		return nil
	})
}

// Delete removes a non-main photo. The remote asset is removed best effort.
func (s *photoService) Delete(ctx context.Context, userID, photoID uint) error {
	photo, err := s.repo.FindForUser(ctx, userID, photoID, true)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.Unauthorized("photo not found")
		}
		return apperror.Database("failed to load photo", err)
	}
	if photo.IsMain {
		return apperror.Generic("you cannot delete your main photo")
	}

	if photo.PublicID != nil && s.imageStorage != nil {
		if err := s.imageStorage.DeleteImage(ctx, *photo.PublicID); err != nil {
			logger.Warn("failed to delete image from host", "photo_id", photo.ID, "error", err)
		}
	}

	if err := s.repo.Delete(ctx, photo.ID); err != nil {
		return apperror.Database("failed to delete photo", err)
	}
	return nil
}

// Approve marks a pending photo approved and promotes it to main when the owner
// has none.
func (s *photoService) Approve(ctx context.Context, photoID uint) error {
	return s.repo.Transaction(ctx, func(tx photoRepo.PhotoRepository) error {
		photo, err := tx.FindByID(ctx, photoID, true)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.Unauthorized("photo not found")
			}
			return apperror.Database("failed to load photo", err)
		}
		if photo.IsApproved {
			return apperror.Generic("photo is already approved")
		}

		if err := tx.LockOwner(ctx, photo.UserID); err != nil {
			return apperror.Database("failed to lock photos", err)
		}
		current, err := tx.FindMain(ctx, photo.UserID)
		if err != nil {
			return apperror.Database("failed to load main photo", err)
		}

		photo.IsApproved = true
		if current == nil {
			photo.IsMain = true
		}
		if err := tx.Update(ctx, photo); err != nil {
			return apperror.Database("failed to approve photo", err)
		}
		return nil
	})
}

// Reject removes a pending photo. A stored remote asset must be deleted first.
func (s *photoService) Reject(ctx context.Context, photoID uint) error {
	photo, err := s.repo.FindByID(ctx, photoID, true)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.Unauthorized("photo not found")
		}
		return apperror.Database("failed to load photo", err)
	}
	if photo.IsApproved {
		return apperror.Unauthorized("only pending photos can be rejected")
	}

	if photo.PublicID != nil {
		if s.imageStorage == nil {
			return apperror.Generic("failed to delete photo from image host")
		}
		if err := s.imageStorage.DeleteImage(ctx, *photo.PublicID); err != nil {
			logger.Warn("failed to delete rejected image", "photo_id", photo.ID, "error", err)
			return apperror.Generic("failed to delete photo from image host")
		}
	}

	if err := s.repo.Delete(ctx, photo.ID); err != nil {
		return apperror.Database("failed to reject photo", err)
	}

	if _, err := s.repo.FindByID(ctx, photo.ID, true); !errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.Generic("failed to reject photo")
	}
	return nil
}

func (s *photoService) ListForModeration(ctx context.Context) ([]dto.ModerationPhotoResponse, error) {
	photos, err := s.repo.FindUnapproved(ctx)
	if err != nil {
		return nil, apperror.Database("failed to load photos", err)
	}

	out := make([]dto.ModerationPhotoResponse, 0, len(photos))
	for _, p := range photos {
		item := dto.ModerationPhotoResponse{
			ID:         p.ID,
			URL:        p.URL,
			UserID:     p.UserID,
			IsApproved: p.IsApproved,
			DateAdded:  p.DateAdded,
		}
		if p.User != nil {
			item.Username = p.User.Username
		}
		out = append(out, item)
	}
	return out, nil
}

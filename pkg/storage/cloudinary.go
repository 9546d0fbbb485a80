package storage

//go:generate mockgen -source=cloudinary.go -destination=mock/mock_storage.go -package=mock

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
)

// profileTransformation crops uploads to a square centred on the detected face.
const profileTransformation = "w_500,h_500,c_fill,g_face"

var ErrNotInitialized = errors.New("cloudinary storage is not initialized")

// UploadResult identifies an uploaded asset on the image host.
type UploadResult struct {
	URL      string
	PublicID string
}

// ImageStorage defines contract for image storage provider (Cloudinary implementation).
type ImageStorage interface {
	// UploadImage uploads image from reader into folder and returns its secure URL and public id.
	UploadImage(ctx context.Context, r io.Reader, folder, fileName string) (*UploadResult, error)
	// DeleteImage destroys the asset with the given public id. A missing asset is not an error.
	DeleteImage(ctx context.Context, publicID string) error
}

// Config selects the Cloudinary account. URL wins over the individual credentials.
type Config struct {
	URL       string
	CloudName string
	APIKey    string
	APISecret string
}

type cloudinaryStorage struct {
	cld *cloudinary.Cloudinary
}

// NewCloudinaryStorage creates Cloudinary-backed implementation of ImageStorage.
// With an empty Config the SDK falls back to the CLOUDINARY_URL environment variable.
func NewCloudinaryStorage(cfg Config) (ImageStorage, error) {
	var (
		cld *cloudinary.Cloudinary
		err error
	)

	switch {
	case cfg.URL != "":
		cld, err = cloudinary.NewFromURL(cfg.URL)
	case cfg.CloudName != "":
		cld, err = cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	default:
		cld, err = cloudinary.New()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary client: %w", err)
	}

	cld.Config.URL.Secure = true

	return &cloudinaryStorage{cld: cld}, nil
}

func (s *cloudinaryStorage) UploadImage(ctx context.Context, r io.Reader, folder, fileName string) (*UploadResult, error) {
	if s == nil || s.cld == nil {
		return nil, ErrNotInitialized
	}

	params := uploader.UploadParams{
		Folder:         folder,
		PublicID:       uuid.NewString(),
		Overwrite:      api.Bool(false),
		UniqueFilename: api.Bool(true),
		Transformation: profileTransformation,
		Format:         "webp",
	}

	resp, err := s.cld.Upload.Upload(ctx, r, params)
	if err != nil {
		return nil, fmt.Errorf("failed to upload %s to cloudinary: %w", fileName, err)
	}

	if resp.Error.Message != "" {
		return nil, fmt.Errorf("cloudinary upload rejected %s: %s", fileName, resp.Error.Message)
	}

	if resp.SecureURL == "" {
		return nil, fmt.Errorf("cloudinary upload succeeded but secure URL is empty")
	}

	return &UploadResult{
		URL:      resp.SecureURL,
		PublicID: resp.PublicID,
	}, nil
}

func (s *cloudinaryStorage) DeleteImage(ctx context.Context, publicID string) error {
	if s == nil || s.cld == nil {
		return ErrNotInitialized
	}

	if publicID == "" {
		return fmt.Errorf("public id is required")
	}

	// Invalidate clears the CDN cache as well.
	params := uploader.DestroyParams{
		PublicID:   publicID,
		Invalidate: api.Bool(true),
	}

	resp, err := s.cld.Upload.Destroy(ctx, params)
	if err != nil {
		return fmt.Errorf("failed to delete image from cloudinary: %w", err)
	}

	if resp.Result != "ok" && resp.Result != "not found" {
		return fmt.Errorf("cloudinary destroy api returned result: %s", resp.Result)
	}

	return nil
}

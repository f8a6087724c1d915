package storage

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"strings"
	"time"

	"github.com/IdoNaor1/TasteClub/internal/app/model"
)

const (
	JPEGQuality  = 85
	MaxImageSize = 10 << 20

	profileImagePrefix = "profile_images"
	reviewImagePrefix  = "review_images"
)

// ImageStorage stores profile and review images as JPEG under deterministic keys.
type ImageStorage struct {
	blobs BlobStore
	now   func() time.Time
}

func NewImageStorage(blobs BlobStore) *ImageStorage {
	return &ImageStorage{blobs: blobs, now: time.Now}
}

func ProfileImageKey(uid string) string {
	return fmt.Sprintf("%s/%s.jpg", profileImagePrefix, uid)
}

func ReviewImageKey(reviewID string) string {
	return fmt.Sprintf("%s/%s.jpg", reviewImagePrefix, reviewID)
}

// UploadProfileImage replaces the user's profile image and returns its URL.
func (s *ImageStorage) UploadProfileImage(ctx context.Context, uid string, data []byte) (string, error) {
	if strings.TrimSpace(uid) == "" {
		return "", fmt.Errorf("%w: uid must not be blank", model.ErrInvalidArgument)
	}
	return s.upload(ctx, ProfileImageKey(uid), data)
}

// UploadReviewImage replaces the review's image and returns its URL.
func (s *ImageStorage) UploadReviewImage(ctx context.Context, reviewID string, data []byte) (string, error) {
	if strings.TrimSpace(reviewID) == "" {
		return "", fmt.Errorf("%w: review id must not be blank", model.ErrInvalidArgument)
	}
	return s.upload(ctx, ReviewImageKey(reviewID), data)
}

func (s *ImageStorage) DeleteProfileImage(ctx context.Context, uid string) error {
	return s.blobs.Delete(ctx, ProfileImageKey(uid))
}

func (s *ImageStorage) DeleteReviewImage(ctx context.Context, reviewID string) error {
	return s.blobs.Delete(ctx, ReviewImageKey(reviewID))
}

// upload re-encodes data and stores it. The returned URL carries a version
// parameter so a replaced image under the same key is not served from caches.
func (s *ImageStorage) upload(ctx context.Context, key string, data []byte) (string, error) {
	encoded, err := EncodeJPEG(data)
	if err != nil {
		return "", err
	}
	url, err := s.blobs.Put(ctx, key, encoded, "image/jpeg")
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s?v=%d", url, s.now().UnixMilli()), nil
}

// EncodeJPEG decodes a JPEG, PNG or GIF image and re-encodes it as JPEG at JPEGQuality.
func EncodeJPEG(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: image is empty", model.ErrInvalidArgument)
	}
	if len(data) > MaxImageSize {
		return nil, fmt.Errorf("%w: image exceeds %d bytes", model.ErrInvalidArgument, MaxImageSize)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: unsupported image: %v", model.ErrInvalidArgument, err)
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}

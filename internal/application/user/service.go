package user

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/walleto-api/internal/domain"
)

const (
	maxAvatarBytes = 5 << 20
	avatarURLTTL   = 15 * time.Minute
)

var avatarTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// Service manages the signed-in identity's profile.
type Service interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID string, patch domain.ProfilePatch) (*domain.User, error)
	// SetAvatar accepts raw base64 or a data URL and stores the decoded image.
	SetAvatar(ctx context.Context, userID, encoded string) error
	// AvatarURL returns a presigned download URL, or ErrNotFound when no picture is set.
	AvatarURL(ctx context.Context, userID string) (string, error)
	DeleteAvatar(ctx context.Context, userID string) error
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID string, patch domain.ProfilePatch) (*domain.User, error)
	SetProfilePicture(ctx context.Context, userID, key string) error
	ClearProfilePicture(ctx context.Context, userID string) error
}

type objectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

type service struct {
	repo    userStore
	objects objectStore
}

type ServiceDeps struct {
	UserRepo userStore
	Objects  objectStore
}

func NewService(deps ServiceDeps) Service {
	return &service{repo: deps.UserRepo, objects: deps.Objects}
}

func (s *service) Get(ctx context.Context, userID string) (*domain.User, error) {
	return s.repo.Get(ctx, userID)
}

func (s *service) UpdateProfile(ctx context.Context, userID string, patch domain.ProfilePatch) (*domain.User, error) {
	if patch.Empty() {
		return nil, fmt.Errorf("no fields to update: %w", domain.ErrBadRequest)
	}
	return s.repo.UpdateProfile(ctx, userID, patch)
}

func (s *service) SetAvatar(ctx context.Context, userID, encoded string) error {
	data, err := decodeImage(encoded)
	if err != nil {
		return err
	}
	contentType := http.DetectContentType(data)
	if !avatarTypes[contentType] {
		return fmt.Errorf("unsupported image type %q: %w", contentType, domain.ErrBadRequest)
	}
	key := avatarKey(userID)
	if err := s.objects.Put(ctx, key, data, contentType); err != nil {
		return err
	}
	return s.repo.SetProfilePicture(ctx, userID, key)
}

func (s *service) AvatarURL(ctx context.Context, userID string) (string, error) {
	u, err := s.repo.Get(ctx, userID)
	if err != nil {
		return "", err
	}
	if u.ProfilePictureKey == nil || *u.ProfilePictureKey == "" {
		return "", fmt.Errorf("no profile picture: %w", domain.ErrNotFound)
	}
	return s.objects.PresignedURL(ctx, *u.ProfilePictureKey, avatarURLTTL)
}

func (s *service) DeleteAvatar(ctx context.Context, userID string) error {
	u, err := s.repo.Get(ctx, userID)
	if err != nil {
		return err
	}
	if u.ProfilePictureKey == nil || *u.ProfilePictureKey == "" {
		return fmt.Errorf("no profile picture: %w", domain.ErrNotFound)
	}
	if err := s.objects.Delete(ctx, *u.ProfilePictureKey); err != nil {
		return err
	}
	return s.repo.ClearProfilePicture(ctx, userID)
}

func avatarKey(userID string) string { return "avatars/" + userID }

// decodeImage strips an optional "data:<type>;base64," prefix and decodes the payload.
func decodeImage(encoded string) ([]byte, error) {
	if i := strings.Index(encoded, ","); strings.HasPrefix(encoded, "data:") && i > 0 {
		encoded = encoded[i+1:]
	}
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return nil, fmt.Errorf("image is required: %w", domain.ErrBadRequest)
	}
	if base64.StdEncoding.DecodedLen(len(encoded)) > maxAvatarBytes {
		return nil, fmt.Errorf("image exceeds %d bytes: %w", maxAvatarBytes, domain.ErrBadRequest)
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("image is not valid base64: %w", domain.ErrBadRequest)
	}
	return data, nil
}

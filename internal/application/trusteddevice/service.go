package trusteddevice

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/walleto-api/internal/domain"
	"github.com/walleto-api/internal/infrastructure/metrics"
	pkgdevice "github.com/walleto-api/internal/pkg/device"
	pkgtoken "github.com/walleto-api/internal/pkg/token"
)

// Service issues and checks long-lived device tokens that let a client skip the OTP step.
type Service interface {
	Issue(ctx context.Context, userID string, meta domain.RequestMeta) (*domain.IssuedDevice, error)
	// Validate reports whether token is an active, unexpired device of userID and
	// refreshes its last-used time. Every failure, including store errors, reads as false.
	Validate(ctx context.Context, userID, token string) bool
	// Revoke reports false when there is no active device for (userID, token).
	Revoke(ctx context.Context, userID, token string) (bool, error)
	List(ctx context.Context, userID string) ([]domain.TrustedDevice, error)
	Cleanup(ctx context.Context) (int, error)
}

type deviceStore interface {
	Put(ctx context.Context, d *domain.TrustedDevice) error
	Touch(ctx context.Context, tokenHash, userID string, now time.Time) (bool, error)
	Revoke(ctx context.Context, tokenHash, userID string) (bool, error)
	ListActive(ctx context.Context, userID string, now time.Time) ([]domain.TrustedDevice, error)
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}

type service struct {
	repo deviceStore
	ttl  time.Duration
	now  func() time.Time
}

type ServiceDeps struct {
	DeviceRepo deviceStore
	TTL        time.Duration
	Now        func() time.Time
}

func NewService(deps ServiceDeps) Service {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &service{repo: deps.DeviceRepo, ttl: deps.TTL, now: now}
}

func (s *service) Issue(ctx context.Context, userID string, meta domain.RequestMeta) (*domain.IssuedDevice, error) {
	tok, err := pkgtoken.NewDeviceToken()
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	d := &domain.TrustedDevice{
		TokenHash:  pkgtoken.Hash(tok),
		UserID:     userID,
		DeviceInfo: pkgdevice.Descriptor(meta.UserAgent),
		IPAddress:  meta.IPAddress,
		Active:     true,
		LastUsedAt: now,
		ExpiresAt:  now.Add(s.ttl),
		CreatedAt:  now,
	}
	if err := s.repo.Put(ctx, d); err != nil {
		return nil, fmt.Errorf("store trusted device: %w", err)
	}
	return &domain.IssuedDevice{Token: tok, ExpiresAt: d.ExpiresAt}, nil
}

func (s *service) Validate(ctx context.Context, userID, token string) bool {
	if token == "" || userID == "" {
		return false
	}
	ok, err := s.repo.Touch(ctx, pkgtoken.Hash(token), userID, s.now().UTC())
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("trusted device lookup failed")
		ok = false
	}
	metrics.TrustedDeviceChecksTotal.WithLabelValues(metrics.Outcome(ok)).Inc()
	return ok
}

func (s *service) Revoke(ctx context.Context, userID, token string) (bool, error) {
	if token == "" {
		return false, nil
	}
	return s.repo.Revoke(ctx, pkgtoken.Hash(token), userID)
}

func (s *service) List(ctx context.Context, userID string) ([]domain.TrustedDevice, error) {
	return s.repo.ListActive(ctx, userID, s.now().UTC())
}

func (s *service) Cleanup(ctx context.Context) (int, error) {
	n, err := s.repo.DeleteExpired(ctx, s.now().UTC())
	if err != nil {
		return n, fmt.Errorf("delete expired devices: %w", err)
	}
	return n, nil
}

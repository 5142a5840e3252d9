package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/walleto-api/internal/domain"
	"github.com/walleto-api/internal/infrastructure/metrics"
	"github.com/walleto-api/internal/pkg/id"
)

// Policy is a sliding window: at most Max attempts within Window.
type Policy struct {
	Window time.Duration
	Max    int
}

// Service counts attempts per (address, action) against the attempt ledger.
type Service interface {
	// Check fails with domain.ErrRateLimited when the window for (address, action) is full.
	// It has no side effects.
	Check(ctx context.Context, address string, action domain.AttemptAction) error
	// Record appends an AttemptRecord for (address, action).
	Record(ctx context.Context, address string, action domain.AttemptAction, success bool, meta domain.RequestMeta) error
}

type attemptStore interface {
	Put(ctx context.Context, a *domain.AttemptRecord) error
	CountSince(ctx context.Context, scope string, since time.Time) (int, error)
}

type service struct {
	repo      attemptStore
	policies  map[domain.AttemptAction]Policy
	retention time.Duration
	now       func() time.Time
}

type ServiceDeps struct {
	AttemptRepo attemptStore
	Generate    Policy
	Verify      Policy
	// Retention sets the TTL stamped on each record; the cleanup sweep purges on the same horizon.
	Retention time.Duration
	Now       func() time.Time
}

func NewService(deps ServiceDeps) Service {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo: deps.AttemptRepo,
		policies: map[domain.AttemptAction]Policy{
			domain.ActionGenerate: deps.Generate,
			domain.ActionVerify:   deps.Verify,
		},
		retention: deps.Retention,
		now:       now,
	}
}

func (s *service) Check(ctx context.Context, address string, action domain.AttemptAction) error {
	p, ok := s.policies[action]
	if !ok {
		return fmt.Errorf("unknown attempt action %q: %w", action, domain.ErrBadRequest)
	}
	since := s.now().UTC().Add(-p.Window)
	n, err := s.repo.CountSince(ctx, domain.AttemptScope(address, action), since)
	if err != nil {
		return fmt.Errorf("count attempts: %w", err)
	}
	if n >= p.Max {
		metrics.RateLimitedTotal.WithLabelValues(string(action)).Inc()
		return fmt.Errorf("too many %s attempts: %w", action, domain.ErrRateLimited)
	}
	return nil
}

func (s *service) Record(ctx context.Context, address string, action domain.AttemptAction, success bool, meta domain.RequestMeta) error {
	now := s.now().UTC()
	rec := &domain.AttemptRecord{
		AttemptID: id.New(),
		Scope:     domain.AttemptScope(address, action),
		Address:   domain.NormalizeAddress(address),
		Action:    action,
		Success:   success,
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
		CreatedAt: now,
		ExpiresAt: now.Add(s.retention),
	}
	if err := s.repo.Put(ctx, rec); err != nil {
		return fmt.Errorf("record attempt: %w", err)
	}
	return nil
}

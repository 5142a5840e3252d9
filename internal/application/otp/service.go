package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/walleto-api/internal/application/ratelimit"
	"github.com/walleto-api/internal/domain"
	"github.com/walleto-api/internal/infrastructure/metrics"
	"github.com/walleto-api/internal/pkg/id"
)

// Service is the one-time code engine.
type Service interface {
	// Generate supersedes any pending code for (address, purpose), stores a fresh one and
	// dispatches it. It returns the code lifetime in seconds.
	Generate(ctx context.Context, address string, purpose domain.Purpose, meta domain.RequestMeta) (int, error)
	// Verify consumes the matching pending code. Wrong, expired and already used codes all
	// fail with domain.ErrInvalidOrExpiredCode.
	Verify(ctx context.Context, address string, purpose domain.Purpose, code string, meta domain.RequestMeta) error
	// Cleanup deletes expired codes and attempts older than the retention window.
	Cleanup(ctx context.Context) (codesDeleted, attemptsDeleted int, err error)
}

type codeStore interface {
	Put(ctx context.Context, c *domain.OneTimeCode) error
	DeletePending(ctx context.Context, scope string) (int, error)
	Consume(ctx context.Context, scope, code string, now time.Time) (bool, error)
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}

type attemptPurger interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}

// Notifier delivers a code to an address.
type Notifier interface {
	Send(ctx context.Context, address, code string, purpose domain.Purpose) error
}

type service struct {
	codes         codeStore
	attempts      attemptPurger
	limiter       ratelimit.Service
	notifier      Notifier
	codeLength    int
	ttl           time.Duration
	retention     time.Duration
	notifyTimeout time.Duration
	now           func() time.Time
}

type ServiceDeps struct {
	CodeRepo      codeStore
	AttemptRepo   attemptPurger
	Limiter       ratelimit.Service
	Notifier      Notifier
	CodeLength    int
	TTL           time.Duration
	Retention     time.Duration
	NotifyTimeout time.Duration
	Now           func() time.Time
}

func NewService(deps ServiceDeps) Service {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	length := deps.CodeLength
	if length <= 0 {
		length = 6
	}
	return &service{
		codes:         deps.CodeRepo,
		attempts:      deps.AttemptRepo,
		limiter:       deps.Limiter,
		notifier:      deps.Notifier,
		codeLength:    length,
		ttl:           deps.TTL,
		retention:     deps.Retention,
		notifyTimeout: deps.NotifyTimeout,
		now:           now,
	}
}

func (s *service) Generate(ctx context.Context, address string, purpose domain.Purpose, meta domain.RequestMeta) (int, error) {
	if !purpose.Valid() {
		return 0, fmt.Errorf("unknown purpose %q: %w", purpose, domain.ErrBadRequest)
	}
	address = domain.NormalizeAddress(address)

	if err := s.limiter.Check(ctx, address, domain.ActionGenerate); err != nil {
		s.recordFailure(ctx, address, domain.ActionGenerate, err, meta)
		return 0, err
	}

	scope := domain.CodeScope(address, purpose)
	if n, err := s.codes.DeletePending(ctx, scope); err != nil {
		return 0, fmt.Errorf("supersede pending codes: %w", err)
	} else if n > 0 {
		log.Debug().Str("scope", scope).Int("superseded", n).Msg("superseded pending codes")
	}

	code, err := s.newCode()
	if err != nil {
		return 0, err
	}
	now := s.now().UTC()
	if err := s.codes.Put(ctx, &domain.OneTimeCode{
		CodeID:    id.New(),
		Scope:     scope,
		Address:   address,
		Purpose:   purpose,
		Code:      code,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}); err != nil {
		return 0, fmt.Errorf("store code: %w", err)
	}
	if err := s.limiter.Record(ctx, address, domain.ActionGenerate, true, meta); err != nil {
		return 0, err
	}
	metrics.OTPGeneratedTotal.WithLabelValues(string(purpose)).Inc()

	sendCtx := ctx
	if s.notifyTimeout > 0 {
		var cancel context.CancelFunc
		sendCtx, cancel = context.WithTimeout(ctx, s.notifyTimeout)
		defer cancel()
	}
	if err := s.notifier.Send(sendCtx, address, code, purpose); err != nil {
		metrics.OTPDeliveryFailuresTotal.Inc()
		log.Error().Err(err).Str("purpose", string(purpose)).Msg("failed to deliver verification code")
		return 0, fmt.Errorf("failed to send verification email: %w", domain.ErrDelivery)
	}
	return int(s.ttl.Seconds()), nil
}

func (s *service) Verify(ctx context.Context, address string, purpose domain.Purpose, code string, meta domain.RequestMeta) error {
	if !purpose.Valid() {
		return fmt.Errorf("unknown purpose %q: %w", purpose, domain.ErrBadRequest)
	}
	address = domain.NormalizeAddress(address)

	if err := s.limiter.Check(ctx, address, domain.ActionVerify); err != nil {
		s.recordFailure(ctx, address, domain.ActionVerify, err, meta)
		return err
	}

	ok, err := s.codes.Consume(ctx, domain.CodeScope(address, purpose), code, s.now().UTC())
	if err != nil {
		return fmt.Errorf("consume code: %w", err)
	}
	metrics.OTPVerificationsTotal.WithLabelValues(string(purpose), metrics.Outcome(ok)).Inc()
	if rerr := s.limiter.Record(ctx, address, domain.ActionVerify, ok, meta); rerr != nil {
		log.Warn().Err(rerr).Msg("failed to record verify attempt")
	}
	if !ok {
		return fmt.Errorf("invalid or expired verification code: %w", domain.ErrInvalidOrExpiredCode)
	}
	return nil
}

func (s *service) Cleanup(ctx context.Context) (int, int, error) {
	now := s.now().UTC()
	codes, cerr := s.codes.DeleteExpired(ctx, now)
	if cerr != nil {
		cerr = fmt.Errorf("delete expired codes: %w", cerr)
	}
	attempts, aerr := s.attempts.DeleteOlderThan(ctx, now.Add(-s.retention))
	if aerr != nil {
		aerr = fmt.Errorf("delete old attempts: %w", aerr)
	}
	return codes, attempts, errors.Join(cerr, aerr)
}

// recordFailure appends a failed attempt for rate-limited calls so sustained abuse keeps counting.
func (s *service) recordFailure(ctx context.Context, address string, action domain.AttemptAction, cause error, meta domain.RequestMeta) {
	if !errors.Is(cause, domain.ErrRateLimited) {
		return
	}
	if err := s.limiter.Record(ctx, address, action, false, meta); err != nil {
		log.Warn().Err(err).Str("action", string(action)).Msg("failed to record rate-limited attempt")
	}
}

// newCode draws a zero-padded code uniformly from [0, 10^codeLength).
func (s *service) newCode() (string, error) {
	max := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(s.codeLength)), nil)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	digits := n.Text(10)
	return strings.Repeat("0", s.codeLength-len(digits)) + digits, nil
}

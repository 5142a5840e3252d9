package cleanup

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/walleto-api/internal/infrastructure/metrics"
)

const leaseKey = "cleanup"

// Result counts the rows removed by one sweep.
type Result struct {
	CodesDeleted    int `json:"codes_deleted"`
	AttemptsDeleted int `json:"attempts_deleted"`
	DevicesDeleted  int `json:"devices_deleted"`
}

type codeSweeper interface {
	Cleanup(ctx context.Context) (codesDeleted, attemptsDeleted int, err error)
}

type deviceSweeper interface {
	Cleanup(ctx context.Context) (int, error)
}

// Locker grants a cross-replica lease. Nil means every replica sweeps.
type Locker interface {
	TryAcquire(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, ok bool, err error)
}

// Scheduler runs the expiry sweep on a fixed interval until stopped.
type Scheduler struct {
	codes    codeSweeper
	devices  deviceSweeper
	locker   Locker
	interval time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

type SchedulerDeps struct {
	OTP      codeSweeper
	Devices  deviceSweeper
	Locker   Locker
	Interval time.Duration
}

func NewScheduler(deps SchedulerDeps) *Scheduler {
	interval := deps.Interval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Scheduler{
		codes:    deps.OTP,
		devices:  deps.Devices,
		locker:   deps.Locker,
		interval: interval,
	}
}

// RunOnce performs one sweep. Each step runs even when an earlier one fails;
// the returned error joins every failure.
func (s *Scheduler) RunOnce(ctx context.Context) (Result, error) {
	var res Result
	codes, attempts, codeErr := s.codes.Cleanup(ctx)
	res.CodesDeleted, res.AttemptsDeleted = codes, attempts

	devices, devErr := s.devices.Cleanup(ctx)
	res.DevicesDeleted = devices

	metrics.CleanupDeletedTotal.WithLabelValues("codes").Add(float64(res.CodesDeleted))
	metrics.CleanupDeletedTotal.WithLabelValues("attempts").Add(float64(res.AttemptsDeleted))
	metrics.CleanupDeletedTotal.WithLabelValues("devices").Add(float64(res.DevicesDeleted))
	return res, errors.Join(codeErr, devErr)
}

// Start sweeps immediately and then on every tick. Calling Start on a running
// scheduler is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.loop(ctx, s.done)
	log.Info().Dur("interval", s.interval).Msg("cleanup scheduler started")
}

// Stop cancels the loop and waits for an in-flight sweep to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
	log.Info().Msg("cleanup scheduler stopped")
}

func (s *Scheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// tick never propagates failures; the next tick retries. A successful sweep
// keeps the lease until it expires so other replicas skip the rest of the
// interval.
func (s *Scheduler) tick(ctx context.Context) {
	var release func(context.Context) error
	if s.locker != nil {
		r, ok, err := s.locker.TryAcquire(ctx, leaseKey, s.leaseTTL())
		if err != nil {
			log.Error().Err(err).Msg("cleanup lease unavailable")
			metrics.CleanupRunsTotal.WithLabelValues("failed").Inc()
			return
		}
		if !ok {
			metrics.CleanupRunsTotal.WithLabelValues("skipped").Inc()
			return
		}
		release = r
	}

	start := time.Now()
	res, err := s.RunOnce(ctx)
	if err != nil {
		log.Error().Err(err).Msg("cleanup sweep failed")
		// let another replica retry before the lease runs out
		if release != nil {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				log.Warn().Err(err).Msg("cleanup lease release failed")
			}
		}
		metrics.CleanupRunsTotal.WithLabelValues("failed").Inc()
		return
	}
	metrics.CleanupRunsTotal.WithLabelValues("success").Inc()
	log.Info().
		Int("codes_deleted", res.CodesDeleted).
		Int("attempts_deleted", res.AttemptsDeleted).
		Int("devices_deleted", res.DevicesDeleted).
		Dur("took", time.Since(start)).
		Msg("cleanup sweep finished")
}

// leaseTTL is slightly shorter than the interval so the holder's own next tick
// finds the key gone.
func (s *Scheduler) leaseTTL() time.Duration {
	return s.interval - s.interval/10
}

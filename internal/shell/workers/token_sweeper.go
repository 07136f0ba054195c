// Package workers contains background workers for pgstay.
package workers

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// TokenPurger deletes revocation records whose token has expired.
// The store implements this interface.
type TokenPurger interface {
	PurgeExpiredTokens(ctx context.Context, now time.Time) (int64, error)
}

// TokenSweeperConfig configures the token sweeper worker.
type TokenSweeperConfig struct {
	// Interval is the time between sweeps.
	// Default: 1 hour.
	Interval time.Duration

	// Timeout bounds a single sweep.
	// Default: 30 seconds.
	Timeout time.Duration
}

// DefaultTokenSweeperConfig returns the default configuration.
func DefaultTokenSweeperConfig() TokenSweeperConfig {
	return TokenSweeperConfig{
		Interval: time.Hour,
		Timeout:  30 * time.Second,
	}
}

// TokenSweeper periodically purges revoked tokens that have expired anyway.
// Once a token's exp has passed the signature check rejects it, so its
// revocation row is dead weight.
type TokenSweeper struct {
	purger TokenPurger
	config TokenSweeperConfig
	logger *slog.Logger
	now    func() time.Time

	// Lifecycle management
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewTokenSweeper creates a new token sweeper worker.
func NewTokenSweeper(purger TokenPurger, config TokenSweeperConfig, logger *slog.Logger) *TokenSweeper {
	if config.Interval <= 0 {
		config.Interval = time.Hour
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &TokenSweeper{
		purger: purger,
		config: config,
		logger: logger.With("component", "token_sweeper"),
		now:    time.Now,
	}
}

// Start begins the sweeper background goroutine. The first sweep runs
// immediately.
func (s *TokenSweeper) Start() {
	s.ctx, s.cancel = context.WithCancel(context.Background())

	s.wg.Add(1)
	go s.run()

	s.logger.Info("token sweeper started", "interval", s.config.Interval)
}

// Stop cancels the sweeper and waits for an in-progress sweep to finish.
func (s *TokenSweeper) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	s.logger.Info("token sweeper stopped")
}

func (s *TokenSweeper) run() {
	defer s.wg.Done()

	s.Sweep(s.ctx)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(s.ctx)
		}
	}
}

// Sweep runs a single purge and returns how many records were removed.
// Failures are logged; the next tick tries again.
func (s *TokenSweeper) Sweep(ctx context.Context) int64 {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	n, err := s.purger.PurgeExpiredTokens(ctx, s.now())
	if err != nil {
		s.logger.Error("failed to purge expired tokens", "error", err)
		return 0
	}
	if n > 0 {
		s.logger.Info("purged expired tokens", "count", n)
	} else {
		s.logger.Debug("no expired tokens to purge")
	}
	return n
}

package workers

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/artpar/pgstay/internal/shell/store"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakePurger struct {
	mu    sync.Mutex
	calls []time.Time
	n     int64
	err   error
}

func (f *fakePurger) PurgeExpiredTokens(ctx context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, now)
	return f.n, f.err
}

func (f *fakePurger) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// =============================================================================
// Configuration
// =============================================================================

func TestDefaultTokenSweeperConfig(t *testing.T) {
	config := DefaultTokenSweeperConfig()

	assert.Equal(t, time.Hour, config.Interval)
	assert.Equal(t, 30*time.Second, config.Timeout)
}

func TestNewTokenSweeper_Defaults(t *testing.T) {
	s := NewTokenSweeper(&fakePurger{}, TokenSweeperConfig{}, nil)

	assert.Equal(t, time.Hour, s.config.Interval)
	assert.Equal(t, 30*time.Second, s.config.Timeout)
}

func TestNewTokenSweeper_NegativeDurationsUseDefaults(t *testing.T) {
	s := NewTokenSweeper(&fakePurger{}, TokenSweeperConfig{Interval: -time.Second, Timeout: -time.Second}, nil)

	assert.Equal(t, time.Hour, s.config.Interval)
	assert.Equal(t, 30*time.Second, s.config.Timeout)
}

// =============================================================================
// Sweep
// =============================================================================

func TestTokenSweeper_Sweep(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		n    int64
		err  error
		want int64
	}{
		{"purged", 3, nil, 3},
		{"nothing to purge", 0, nil, 0},
		{"store error", 0, errors.New("disk I/O error"), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &fakePurger{n: tt.n, err: tt.err}
			s := NewTokenSweeper(p, TokenSweeperConfig{}, discard())
			s.now = func() time.Time { return fixed }

			assert.Equal(t, tt.want, s.Sweep(context.Background()))
			require.Len(t, p.calls, 1)
			assert.Equal(t, fixed, p.calls[0])
		})
	}
}

func TestTokenSweeper_SweepAgainstStore(t *testing.T) {
	st, err := store.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, st.RevokeToken(ctx, "expired", now.Add(-time.Minute)))
	require.NoError(t, st.RevokeToken(ctx, "live", now.Add(time.Hour)))

	s := NewTokenSweeper(st, TokenSweeperConfig{}, discard())
	s.now = func() time.Time { return now }

	assert.Equal(t, int64(1), s.Sweep(ctx))

	revoked, err := st.IsTokenRevoked(ctx, "live")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = st.IsTokenRevoked(ctx, "expired")
	require.NoError(t, err)
	assert.False(t, revoked)
}

// =============================================================================
// Lifecycle
// =============================================================================

func TestTokenSweeper_StartStop(t *testing.T) {
	p := &fakePurger{}
	s := NewTokenSweeper(p, TokenSweeperConfig{Interval: 10 * time.Millisecond}, discard())

	s.Start()
	require.Eventually(t, func() bool { return p.callCount() >= 2 }, time.Second, 5*time.Millisecond)
	s.Stop()

	calls := p.callCount()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, calls, p.callCount(), "no sweeps after Stop")
}

func TestTokenSweeper_StopWithoutStart(t *testing.T) {
	s := NewTokenSweeper(&fakePurger{}, TokenSweeperConfig{}, discard())
	assert.NotPanics(t, s.Stop)
}

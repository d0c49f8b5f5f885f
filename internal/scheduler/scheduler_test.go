package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/example/wordcards/internal/session"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSweeper struct {
	calls atomic.Int32
	err   error
}

func (s *countingSweeper) Sweep(context.Context, time.Duration) (int, error) {
	s.calls.Add(1)
	return 0, s.err
}

func TestSessionSweepEvictsIdle(t *testing.T) {
	ctx := context.Background()
	start := time.Now()
	var offset atomic.Int64
	store := session.NewMemoryStore(func() time.Time {
		return start.Add(time.Duration(offset.Load()))
	})

	require.NoError(t, store.Save(ctx, session.NewState(session.Key{UserID: 1, ChatID: 1})))
	offset.Store(int64(2 * time.Hour))

	s := New(zerolog.Nop())
	require.NoError(t, s.AddSessionSweep(store, 50*time.Millisecond, time.Hour))
	assert.Equal(t, 1, s.Len())

	s.Start()
	defer s.Stop()

	require.Eventually(t, func() bool { return store.Len() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestSessionSweepKeepsRunningAfterError(t *testing.T) {
	sweeper := &countingSweeper{err: errors.New("redis down")}

	s := New(zerolog.Nop())
	require.NoError(t, s.AddSessionSweep(sweeper, 20*time.Millisecond, time.Minute))
	s.Start()
	defer s.Stop()

	require.Eventually(t, func() bool { return sweeper.calls.Load() >= 2 }, 2*time.Second, 10*time.Millisecond)
}

func TestAddSessionSweepValidates(t *testing.T) {
	s := New(zerolog.Nop())
	assert.Error(t, s.AddSessionSweep(&countingSweeper{}, 0, time.Minute))
	assert.Error(t, s.AddSessionSweep(&countingSweeper{}, time.Minute, 0))
	assert.Zero(t, s.Len())
}

package sweeper

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/easymo/notify/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubSessionRepo only implements CloseExpired meaningfully; the sweeper
// never touches the rest of the interface.
type stubSessionRepo struct {
	closeCalls atomic.Int32
	gotGrace   atomic.Int64
	closeErr   error
	panicOnce  atomic.Bool
}

func (s *stubSessionRepo) CloseExpired(ctx context.Context, olderThan time.Duration) (int64, error) {
	s.closeCalls.Add(1)
	s.gotGrace.Store(int64(olderThan))
	if s.panicOnce.CompareAndSwap(true, false) {
		panic("storage exploded")
	}
	if s.closeErr != nil {
		return 0, s.closeErr
	}
	return 2, nil
}

func (s *stubSessionRepo) GetOrCreate(context.Context, uuid.UUID, domain.SessionOptions) (*domain.Session, error) {
	return nil, nil
}
func (s *stubSessionRepo) GetActive(context.Context, uuid.UUID) (*domain.Session, error) {
	return nil, nil
}
func (s *stubSessionRepo) Get(context.Context, uuid.UUID) (*domain.Session, error) { return nil, nil }
func (s *stubSessionRepo) UpdateStatus(context.Context, uuid.UUID, domain.SessionStatus, map[string]any) error {
	return nil
}
func (s *stubSessionRepo) GetContext(context.Context, uuid.UUID) (map[string]any, error) {
	return nil, nil
}
func (s *stubSessionRepo) MergeContext(context.Context, uuid.UUID, map[string]any) error { return nil }
func (s *stubSessionRepo) MarkSummarySent(context.Context, uuid.UUID, domain.Channel) error {
	return nil
}
func (s *stubSessionRepo) AddChannel(context.Context, uuid.UUID, domain.Channel) error { return nil }

func TestNew_Validation(t *testing.T) {
	_, err := New(nil, time.Minute, time.Hour)
	assert.Error(t, err)

	_, err = New(&stubSessionRepo{}, 0, time.Hour)
	assert.Error(t, err)

	s, err := New(&stubSessionRepo{}, time.Minute, time.Hour)
	require.NoError(t, err)
	assert.NotNil(t, s)
}

func TestSweeper_RunsImmediatelyAndStops(t *testing.T) {
	repo := &stubSessionRepo{}
	s, err := New(repo, time.Hour, 30*time.Minute)
	require.NoError(t, err)

	require.True(t, s.Start())
	assert.False(t, s.Start(), "second start should report already running")

	// The first sweep happens before the first tick.
	assert.Eventually(t, func() bool {
		return repo.closeCalls.Load() >= 1
	}, time.Second, 5*time.Millisecond)

	require.True(t, s.Stop())
	assert.False(t, s.Stop(), "second stop should report not running")

	assert.Equal(t, int64(30*time.Minute), repo.gotGrace.Load())
}

func TestSweeper_SurvivesPanic(t *testing.T) {
	repo := &stubSessionRepo{}
	repo.panicOnce.Store(true)

	s, err := New(repo, 10*time.Millisecond, time.Hour)
	require.NoError(t, err)

	require.True(t, s.Start())

	// First sweep panics; the loop must keep ticking afterwards.
	assert.Eventually(t, func() bool {
		return repo.closeCalls.Load() >= 2
	}, time.Second, 5*time.Millisecond)

	require.True(t, s.Stop())
}

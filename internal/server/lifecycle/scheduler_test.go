package lifecycle

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/zkvault/internal/logging"
)

type runRecorder struct {
	mu  sync.Mutex
	ids []string
	err error
}

func (r *runRecorder) run(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, id)
	return r.err
}

func (r *runRecorder) calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.ids...)
}

func TestScheduler_FiresAfterDelay(t *testing.T) {
	rec := &runRecorder{}
	s := NewScheduler(20*time.Millisecond, rec.run, logging.Nop{})

	require.True(t, s.Schedule("1"))
	assert.True(t, s.IsPending("1"))
	assert.Equal(t, 1, s.Pending())
	assert.Empty(t, rec.calls(), "nothing runs before the delay")

	require.Eventually(t, func() bool { return len(rec.calls()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"1"}, rec.calls())
	assert.Equal(t, 0, s.Pending())

	require.NoError(t, s.Close(context.Background()))
}

func TestScheduler_Cancel(t *testing.T) {
	rec := &runRecorder{}
	s := NewScheduler(30*time.Millisecond, rec.run, logging.Nop{})

	s.Schedule("1")
	assert.True(t, s.Cancel("1"))
	assert.False(t, s.Cancel("1"))

	time.Sleep(60 * time.Millisecond)
	assert.Empty(t, rec.calls())
	require.NoError(t, s.Close(context.Background()))
	assert.Empty(t, rec.calls())
}

func TestScheduler_RescheduleRunsOnce(t *testing.T) {
	rec := &runRecorder{}
	s := NewScheduler(30*time.Millisecond, rec.run, logging.Nop{})

	s.Schedule("1")
	s.Schedule("1")
	s.Schedule("1")
	assert.Equal(t, 1, s.Pending())

	require.Eventually(t, func() bool { return len(rec.calls()) == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Len(t, rec.calls(), 1)
	require.NoError(t, s.Close(context.Background()))
}

func TestScheduler_CloseRunsPendingNow(t *testing.T) {
	rec := &runRecorder{}
	s := NewScheduler(time.Hour, rec.run, logging.Nop{})

	s.Schedule("1")
	s.Schedule("2")

	require.NoError(t, s.Close(context.Background()))
	assert.ElementsMatch(t, []string{"1", "2"}, rec.calls())
	assert.False(t, s.Schedule("3"), "closed scheduler refuses work")
	assert.Equal(t, 0, s.Pending())
}

func TestScheduler_CloseHonoursContext(t *testing.T) {
	block := make(chan struct{})
	s := NewScheduler(time.Hour, func(ctx context.Context, id string) error {
		<-block
		return nil
	}, logging.Nop{})
	defer close(block)

	s.Schedule("1")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, s.Close(ctx), context.DeadlineExceeded)
}

func TestScheduler_RunErrorIsLoggedNotFatal(t *testing.T) {
	rec := &runRecorder{err: errors.New("disk gone")}
	s := NewScheduler(time.Millisecond, rec.run, logging.Nop{})

	s.Schedule("1")
	require.Eventually(t, func() bool { return len(rec.calls()) == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, s.Close(context.Background()))
}

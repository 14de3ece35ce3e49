package lifecycle

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/zkvault/internal/logging"
)

type countingSweeper struct {
	calls atomic.Int32
	err   error
}

func (c *countingSweeper) Sweep(context.Context) (int, error) {
	c.calls.Add(1)
	return 0, c.err
}

func TestRunSweeper_Ticks(t *testing.T) {
	s := &countingSweeper{err: errors.New("transient")}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		RunSweeper(ctx, s, 5*time.Millisecond, logging.Nop{})
		close(done)
	}()

	require.Eventually(t, func() bool { return s.calls.Load() >= 3 }, time.Second, time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}

func TestRunSweeper_Disabled(t *testing.T) {
	s := &countingSweeper{}
	RunSweeper(context.Background(), s, 0, logging.Nop{})
	assert.Equal(t, int32(0), s.calls.Load())
}

package timer

import (
	"context"
	"testing"
	"time"

	"github.com/reactorx/reactor/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// waitFlush repeatedly flushes the runtime until pred reports true or the
// deadline elapses, since the producer goroutine in these tests resolves
// asynchronously with respect to the runtime's single-goroutine loop.
func waitFlush(t *testing.T, rt *core.Runtime, pred func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		rt.Flush()
		if pred() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition never became true before deadline")
}

func TestWithTimeoutResolvesBeforeDeadline(t *testing.T) {
	rt := core.NewRuntime()
	defer rt.Close()

	b, cancel := WithTimeout(rt, context.Background(), 200, func(ctx context.Context) int {
		return 42
	})
	defer cancel()

	waitFlush(t, rt, func() bool {
		v := b.Value(nil)
		return v.IsReady()
	})

	v := b.Value(nil)
	got, ready := v.Value()
	require.True(t, ready)
	assert.Equal(t, 42, got)
}

func TestWithTimeoutCancelsSlowWork(t *testing.T) {
	rt := core.NewRuntime()
	defer rt.Close()

	var sawCancel bool
	b, cancel := WithTimeout(rt, context.Background(), 10, func(ctx context.Context) int {
		<-ctx.Done()
		sawCancel = true
		return -1
	})
	defer cancel()

	waitFlush(t, rt, func() bool {
		v := b.Value(nil)
		return v.IsReady()
	})

	v := b.Value(nil)
	got, ready := v.Value()
	require.True(t, ready)
	assert.Equal(t, -1, got)
	assert.True(t, sawCancel)
}

func TestWithTimeoutAsyncStreamsUntilCancel(t *testing.T) {
	rt := core.NewRuntime()
	defer rt.Close()

	b, cancel := WithTimeoutAsync(rt, context.Background(), 500, 0, func(ctx context.Context, yield func(int)) {
		for i := 1; i <= 3; i++ {
			select {
			case <-ctx.Done():
				return
			case <-time.After(5 * time.Millisecond):
				yield(i)
			}
		}
	})
	defer cancel()

	waitFlush(t, rt, func() bool {
		return b.Value(nil) == 3
	})

	assert.Equal(t, 3, b.Value(nil))
}

func TestToDurationAcceptsIntAndDuration(t *testing.T) {
	assert.Equal(t, 250*time.Millisecond, toDuration(250))
	assert.Equal(t, 3*time.Second, toDuration(3*time.Second))
	assert.Equal(t, 100*time.Millisecond, toDuration(int64(100)))
}

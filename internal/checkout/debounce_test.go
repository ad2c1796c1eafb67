package checkout

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type emitLog[T comparable] struct {
	mu     sync.Mutex
	values []T
}

func (l *emitLog[T]) add(v T) {
	l.mu.Lock()
	l.values = append(l.values, v)
	l.mu.Unlock()
}

func (l *emitLog[T]) snapshot() []T {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]T(nil), l.values...)
}

func TestDebounceEmitsOnlyFinalValueWithinWindow(t *testing.T) {
	log := &emitLog[string]{}
	d := NewDebouncer[string](40*time.Millisecond, log.add)

	d.Set("a")
	d.Set("ab")
	d.Set("abc")

	require.Eventually(t, func() bool {
		return len(log.snapshot()) == 1
	}, time.Second, 5*time.Millisecond)
	require.Equal(t, []string{"abc"}, log.snapshot())

	v, ok := d.Value()
	require.True(t, ok)
	require.Equal(t, "abc", v)
	require.True(t, d.Settled())
}

func TestDebounceEmitsEveryValueAcrossWindows(t *testing.T) {
	log := &emitLog[string]{}
	d := NewDebouncer[string](20*time.Millisecond, log.add)

	d.Set("first")
	require.Eventually(t, func() bool { return len(log.snapshot()) == 1 }, time.Second, 2*time.Millisecond)
	d.Set("second")
	require.Eventually(t, func() bool { return len(log.snapshot()) == 2 }, time.Second, 2*time.Millisecond)

	require.Equal(t, []string{"first", "second"}, log.snapshot())
}

func TestDebounceIdenticalValueDoesNotReEmit(t *testing.T) {
	log := &emitLog[string]{}
	d := NewDebouncer[string](20*time.Millisecond, log.add)

	d.Set("same")
	require.Eventually(t, func() bool { return len(log.snapshot()) == 1 }, time.Second, 2*time.Millisecond)

	d.Set("same")
	time.Sleep(60 * time.Millisecond)
	require.Equal(t, []string{"same"}, log.snapshot())
}

func TestDebounceClearDropsPendingTimer(t *testing.T) {
	log := &emitLog[string]{}
	d := NewDebouncer[string](20*time.Millisecond, log.add)

	d.Set("doomed")
	d.Clear()
	time.Sleep(60 * time.Millisecond)

	require.Empty(t, log.snapshot())
	_, ok := d.Value()
	require.False(t, ok)
	_, ok = d.Live()
	require.False(t, ok)
}

func TestDebounceSettledFalseWhileTimerPending(t *testing.T) {
	d := NewDebouncer[string](50*time.Millisecond, nil)
	d.Set("pending")
	require.False(t, d.Settled())
}

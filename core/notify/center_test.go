package notify

import (
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	at      time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now + d, f: f}
	c.timers = append(c.timers, t)
	return t
}

// Advance moves time forward and runs every due timer in deadline order.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now += d
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired && t.at <= c.now {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	sort.SliceStable(due, func(i, j int) bool { return due[i].at < due[j].at })
	for _, t := range due {
		t.f()
	}
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// leakyClock hands back timers whose Stop never wins, as when the runtime timer already fired.
type leakyClock struct {
	calls []func()
}

type leakyTimer struct{}

func (leakyTimer) Stop() bool { return false }

func (c *leakyClock) AfterFunc(_ time.Duration, f func()) Timer {
	c.calls = append(c.calls, f)
	return leakyTimer{}
}

// inlineClock runs every deferred call before AfterFunc returns, as an already elapsed deadline would.
type inlineClock struct{}

func (inlineClock) AfterFunc(_ time.Duration, f func()) Timer {
	f()
	return leakyTimer{}
}

func ids(ns []Notification) []uint64 {
	out := make([]uint64, len(ns))
	for i, n := range ns {
		out[i] = n.ID
	}
	return out
}

func TestShowAndExpire(t *testing.T) {
	clock := new(fakeClock)
	c := NewCenter(WithClock(clock))

	id := c.ShowSuccess("saved")
	active := c.Active()
	require.Len(t, active, 1)
	assert.Equal(t, Notification{ID: id, Message: "saved", Severity: Success, TTL: DefaultTTL}, active[0])

	clock.Advance(4999 * time.Millisecond)
	assert.Equal(t, 1, c.Len())

	clock.Advance(time.Millisecond)
	assert.Equal(t, 0, c.Len())
}

func TestRemoveBeforeExpiry(t *testing.T) {
	clock := new(fakeClock)
	var removed []uint64
	c := NewCenter(WithClock(clock), WithRemoveHook(func(n Notification) { removed = append(removed, n.ID) }))

	id := c.ShowError("boom")
	clock.Advance(100 * time.Millisecond)
	c.Remove(id)
	assert.Empty(t, c.Active())

	clock.Advance(5 * time.Second)
	assert.Empty(t, c.Active())
	assert.Equal(t, []uint64{id}, removed)
}

func TestIDsAreDistinctInABurst(t *testing.T) {
	c := NewCenter(WithClock(new(fakeClock)))

	seen := make(map[uint64]bool)
	for i := 0; i < 100; i++ {
		seen[c.ShowInfo("hello")] = true
	}
	assert.Len(t, seen, 100)
	assert.Equal(t, 100, c.Len())
}

func TestIDsAreDistinctAcrossGoroutines(t *testing.T) {
	c := NewCenter(WithClock(new(fakeClock)))

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[uint64]bool)
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := c.ShowWarning("careful")
			mu.Lock()
			seen[id] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Len(t, seen, 50)
}

func TestRemoveUnknownOrTwice(t *testing.T) {
	calls := 0
	c := NewCenter(WithClock(new(fakeClock)), WithRemoveHook(func(Notification) { calls++ }))

	c.Remove(42)
	assert.Equal(t, 0, calls)

	id := c.ShowInfo("once")
	c.Remove(id)
	c.Remove(id)
	assert.Equal(t, 1, calls)
	assert.Empty(t, c.Active())
}

func TestTimersAreIndependent(t *testing.T) {
	clock := new(fakeClock)
	c := NewCenter(WithClock(clock))

	first := c.ShowInfo("first", 1*time.Second)
	second := c.ShowInfo("second", 3*time.Second)
	third := c.ShowInfo("third", 2*time.Second)
	assert.Equal(t, []uint64{first, second, third}, ids(c.Active()))

	c.Remove(third)
	clock.Advance(time.Second)
	assert.Equal(t, []uint64{second}, ids(c.Active()))

	clock.Advance(time.Second)
	assert.Equal(t, []uint64{second}, ids(c.Active()))

	clock.Advance(time.Second)
	assert.Empty(t, c.Active())
}

func TestZeroTTLStays(t *testing.T) {
	clock := new(fakeClock)
	c := NewCenter(WithClock(clock))

	id := c.Show("sticky", Warning, 0)
	c.Show("negative", Info, -time.Second)
	clock.Advance(time.Hour)
	assert.Equal(t, 2, c.Len())
	assert.Empty(t, clock.timers)

	c.Remove(id)
	assert.Equal(t, 1, c.Len())
}

func TestUnknownSeverityFallsBackToInfo(t *testing.T) {
	c := NewCenter(WithClock(new(fakeClock)))
	c.Show("hm", Severity("fatal"), 0)
	assert.Equal(t, Info, c.Active()[0].Severity)
}

func TestStaleTimerIsNoop(t *testing.T) {
	clock := new(leakyClock)
	calls := 0
	c := NewCenter(WithClock(clock), WithRemoveHook(func(Notification) { calls++ }))

	id := c.ShowInfo("gone")
	c.Remove(id)
	require.Len(t, clock.calls, 1)

	later := c.ShowInfo("still here")
	clock.calls[0]()

	assert.Equal(t, 1, calls)
	assert.Equal(t, []uint64{later}, ids(c.Active()))
}

func TestCloseStopsTimers(t *testing.T) {
	clock := new(fakeClock)
	c := NewCenter(WithClock(clock))

	c.ShowInfo("a")
	c.ShowInfo("b", time.Second)
	c.Close()

	clock.Advance(time.Minute)
	assert.Equal(t, 2, c.Len())
}

func TestInlineExpiry(t *testing.T) {
	var removed []uint64
	c := NewCenter(WithClock(inlineClock{}), WithRemoveHook(func(n Notification) { removed = append(removed, n.ID) }))

	done := make(chan uint64, 1)
	go func() { done <- c.ShowWarning("gone at once", time.Millisecond) }()

	select {
	case id := <-done:
		assert.Equal(t, []uint64{id}, removed)
	case <-time.After(2 * time.Second):
		t.Fatal("Show blocked on a clock that fires inline")
	}
	assert.Equal(t, 0, c.Len())

	// a sticky one is untouched by the clock
	id := c.ShowInfo("stays", 0)
	assert.Equal(t, []uint64{id}, ids(c.Active()))
}

func TestShowAfterClose(t *testing.T) {
	clock := new(fakeClock)
	c := NewCenter(WithClock(clock))
	c.Close()

	c.ShowInfo("late", time.Second)
	clock.Advance(time.Minute)
	assert.Equal(t, 1, c.Len())
}

func TestRealClockExpires(t *testing.T) {
	done := make(chan Notification, 1)
	c := NewCenter(WithRemoveHook(func(n Notification) { done <- n }))

	id := c.ShowInfo("quick", 10*time.Millisecond)
	select {
	case n := <-done:
		assert.Equal(t, id, n.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("notification did not expire")
	}
	assert.Empty(t, c.Active())
}

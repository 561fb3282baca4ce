// Package notify keeps the queue of transient, independently timed user notifications.
//
// The Center is the only owner of expiry timers. Display code reads Active() and calls
// Remove() on dismissal; it never schedules or cancels anything itself.
package notify

import (
	"sync"
	"time"
)

type Severity string

const (
	Info    Severity = "info"
	Success Severity = "success"
	Warning Severity = "warning"
	Error   Severity = "error"
)

// DefaultTTL is the lifetime used by the ShowX helpers.
const DefaultTTL = 5000 * time.Millisecond

func (s Severity) Valid() bool {
	switch s {
	case Info, Success, Warning, Error:
		return true
	}
	return false
}

// Notification is one queued message. A zero TTL never expires on its own.
type Notification struct {
	ID       uint64
	Message  string
	Severity Severity
	TTL      time.Duration
}

type entry struct {
	n     Notification
	timer Timer
}

type Option func(*Center)

// WithClock replaces the clock used to schedule expiry.
func WithClock(clock Clock) Option {
	return func(c *Center) { c.clock = clock }
}

// WithRemoveHook registers fn to run once for every notification leaving the queue,
// whether it expired or was dismissed.
func WithRemoveHook(fn func(Notification)) Option {
	return func(c *Center) { c.onRemove = fn }
}

type Center struct {
	mu       sync.Mutex
	clock    Clock
	lastID   uint64
	active   []*entry
	closed   bool
	onRemove func(Notification)
}

func NewCenter(opts ...Option) *Center {
	c := &Center{clock: RealClock}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Show queues a notification and returns its id. Ids come from a counter, so a burst of
// calls in the same instant still yields distinct ids. A positive ttl schedules removal.
// The clock is called without c.mu held, so it may run the removal inline.
func (c *Center) Show(message string, severity Severity, ttl time.Duration) uint64 {
	if !severity.Valid() {
		severity = Info
	}
	if ttl < 0 {
		ttl = 0
	}

	c.mu.Lock()
	c.lastID++
	e := &entry{n: Notification{ID: c.lastID, Message: message, Severity: severity, TTL: ttl}}
	c.active = append(c.active, e)
	c.mu.Unlock()

	if ttl > 0 {
		timer := c.clock.AfterFunc(ttl, func() { c.expire(e) })
		c.attach(e, timer)
	}
	return e.n.ID
}

// attach hands timer to e, or stops it when e already left the queue or the Center is closed.
func (c *Center) attach(e *entry, timer Timer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || !c.queued(e) {
		timer.Stop()
		return
	}
	e.timer = timer
}

// queued reports whether e is still in the queue. Callers hold c.mu.
func (c *Center) queued(target *entry) bool {
	for _, e := range c.active {
		if e == target {
			return true
		}
	}
	return false
}

func (c *Center) ShowSuccess(message string, ttl ...time.Duration) uint64 {
	return c.Show(message, Success, ttlOrDefault(ttl))
}

func (c *Center) ShowError(message string, ttl ...time.Duration) uint64 {
	return c.Show(message, Error, ttlOrDefault(ttl))
}

func (c *Center) ShowWarning(message string, ttl ...time.Duration) uint64 {
	return c.Show(message, Warning, ttlOrDefault(ttl))
}

func (c *Center) ShowInfo(message string, ttl ...time.Duration) uint64 {
	return c.Show(message, Info, ttlOrDefault(ttl))
}

// Remove drops the notification with the given id and cancels its timer.
// Unknown or already removed ids are ignored.
func (c *Center) Remove(id uint64) {
	c.mu.Lock()
	e := c.take(func(e *entry) bool { return e.n.ID == id })
	if e != nil && e.timer != nil {
		e.timer.Stop()
	}
	c.mu.Unlock()

	c.removed(e)
}

// expire runs on the timer goroutine. It matches by entry rather than id so a timer that
// fires after Remove (Stop lost the race) finds nothing to do.
func (c *Center) expire(target *entry) {
	c.mu.Lock()
	e := c.take(func(e *entry) bool { return e == target })
	c.mu.Unlock()

	c.removed(e)
}

// take unlinks the first entry matching fn. Callers hold c.mu.
func (c *Center) take(fn func(*entry) bool) *entry {
	for i, e := range c.active {
		if fn(e) {
			c.active = append(c.active[:i:i], c.active[i+1:]...)
			return e
		}
	}
	return nil
}

func (c *Center) removed(e *entry) {
	if e != nil && c.onRemove != nil {
		c.onRemove(e.n)
	}
}

// Active returns the queued notifications in display order.
func (c *Center) Active() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Notification, len(c.active))
	for i, e := range c.active {
		out[i] = e.n
	}
	return out
}

func (c *Center) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.active)
}

// Close cancels every pending timer, including those scheduled later. Queued notifications
// stay until removed.
func (c *Center) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	for _, e := range c.active {
		if e.timer != nil {
			e.timer.Stop()
			e.timer = nil
		}
	}
}

func ttlOrDefault(ttl []time.Duration) time.Duration {
	if len(ttl) > 0 {
		return ttl[0]
	}
	return DefaultTTL
}

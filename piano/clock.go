package piano

// Clock is a cooperative monotonic clock measured in seconds. Timers fire
// during Advance, in time order, on the caller's goroutine; there is no
// background concurrency, so cancellation is synchronous and a cancelled
// timer can never fire afterwards.
type Clock struct {
	now    float64
	seq    int
	timers []*Timer
}

// Timer is a cancellable callback scheduled at an absolute time.
type Timer struct {
	clock *Clock
	at    float64
	seq   int
	fn    func()
	done  bool
}

func NewClock() *Clock {
	return &Clock{}
}

// Now returns the current clock time in seconds.
func (c *Clock) Now() float64 {
	return c.now
}

// ScheduleAt registers fn to run when the clock reaches at. Times in the
// past fire on the next Advance.
func (c *Clock) ScheduleAt(at float64, fn func()) *Timer {
	c.seq++
	t := &Timer{clock: c, at: at, seq: c.seq, fn: fn}
	c.timers = append(c.timers, t)
	return t
}

// Advance moves the clock forward by dt seconds, firing every due timer in
// schedule order. Callbacks may schedule or cancel further timers; newly
// scheduled timers that fall inside the advanced window fire in the same
// call.
func (c *Clock) Advance(dt float64) {
	if dt < 0 {
		dt = 0
	}
	target := c.now + dt
	for {
		next := c.earliestDue(target)
		if next == nil {
			break
		}
		if next.at > c.now {
			c.now = next.at
		}
		next.done = true
		c.remove(next)
		next.fn()
	}
	c.now = target
}

// PendingTimers reports how many scheduled timers have not yet fired.
func (c *Clock) PendingTimers() int {
	return len(c.timers)
}

func (c *Clock) earliestDue(target float64) *Timer {
	var best *Timer
	for _, t := range c.timers {
		if t.at > target {
			continue
		}
		if best == nil || t.at < best.at || (t.at == best.at && t.seq < best.seq) {
			best = t
		}
	}
	return best
}

func (c *Clock) remove(t *Timer) {
	for i, x := range c.timers {
		if x == t {
			c.timers = append(c.timers[:i], c.timers[i+1:]...)
			return
		}
	}
}

// Cancel removes the timer before it fires. Safe to call more than once and
// safe on timers that already fired; it takes effect immediately.
func (t *Timer) Cancel() {
	if t == nil || t.done {
		return
	}
	t.done = true
	t.clock.remove(t)
}

// Pending reports whether the timer is still scheduled.
func (t *Timer) Pending() bool {
	return t != nil && !t.done
}

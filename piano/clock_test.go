package piano

import "testing"

func TestClockFiresTimersInOrder(t *testing.T) {
	c := NewClock()
	var order []int
	c.ScheduleAt(0.3, func() { order = append(order, 3) })
	c.ScheduleAt(0.1, func() { order = append(order, 1) })
	c.ScheduleAt(0.2, func() { order = append(order, 2) })

	c.Advance(1.0)
	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Fatalf("timers fired out of order: %v", order)
	}
	if c.Now() != 1.0 {
		t.Fatalf("clock should land on the advance target, got %g", c.Now())
	}
}

func TestClockDoesNotFireFutureTimers(t *testing.T) {
	c := NewClock()
	fired := false
	c.ScheduleAt(2.0, func() { fired = true })

	c.Advance(1.9)
	if fired {
		t.Fatalf("timer fired before its schedule time")
	}
	c.Advance(0.2)
	if !fired {
		t.Fatalf("timer did not fire after its schedule time")
	}
}

func TestClockCancelIsSynchronous(t *testing.T) {
	c := NewClock()
	fired := false
	timer := c.ScheduleAt(0.5, func() { fired = true })

	timer.Cancel()
	if timer.Pending() {
		t.Fatalf("cancelled timer still pending")
	}
	c.Advance(1.0)
	if fired {
		t.Fatalf("cancelled timer fired")
	}
	// Double cancel must be harmless.
	timer.Cancel()
}

func TestClockCallbackMaySchedule(t *testing.T) {
	c := NewClock()
	var times []float64
	c.ScheduleAt(0.2, func() {
		times = append(times, c.Now())
		c.ScheduleAt(0.4, func() { times = append(times, c.Now()) })
	})

	c.Advance(1.0)
	if len(times) != 2 {
		t.Fatalf("expected chained timer to fire in the same advance, got %v", times)
	}
	if times[0] != 0.2 || times[1] != 0.4 {
		t.Fatalf("callbacks observed wrong clock times: %v", times)
	}
}

func TestClockCallbackMayCancelAnother(t *testing.T) {
	c := NewClock()
	var victim *Timer
	fired := false
	c.ScheduleAt(0.1, func() { victim.Cancel() })
	victim = c.ScheduleAt(0.2, func() { fired = true })

	c.Advance(1.0)
	if fired {
		t.Fatalf("timer cancelled from an earlier callback still fired")
	}
	if c.PendingTimers() != 0 {
		t.Fatalf("expected no pending timers, got %d", c.PendingTimers())
	}
}

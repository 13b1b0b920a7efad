package runtime

import (
	"container/heap"
	"time"
)

// Timer is a pending callback registered with a Scheduler.
type Timer struct {
	at        time.Time
	seq       uint64
	fn        func()
	index     int
	cancelled bool
}

// Cancel prevents the callback from firing. Cancelling a fired timer is a no-op.
func (t *Timer) Cancel() {
	if t != nil {
		t.cancelled = true
	}
}

// Deadline reports when the timer fires.
func (t *Timer) Deadline() time.Time { return t.at }

type timerQueue []*Timer

func (q timerQueue) Len() int { return len(q) }

func (q timerQueue) Less(i, j int) bool {
	if q[i].at.Equal(q[j].at) {
		return q[i].seq < q[j].seq
	}
	return q[i].at.Before(q[j].at)
}

func (q timerQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *timerQueue) Push(x any) {
	t := x.(*Timer)
	t.index = len(*q)
	*q = append(*q, t)
}

func (q *timerQueue) Pop() any {
	old := *q
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*q = old[:n-1]
	return t
}

// Scheduler is a virtual-time timer queue.
// Nothing fires on its own: callers move time forward with Advance and every
// due callback runs on the caller's goroutine in deadline order.
// It is not safe for concurrent use.
type Scheduler struct {
	now   time.Time
	seq   uint64
	queue timerQueue
}

// NewScheduler creates a scheduler whose clock starts at start.
func NewScheduler(start time.Time) *Scheduler {
	return &Scheduler{now: start}
}

// Now returns the virtual time. It satisfies ports.Clock.
func (s *Scheduler) Now() time.Time { return s.now }

// After registers fn to run once d has elapsed on the virtual clock.
func (s *Scheduler) After(d time.Duration, fn func()) *Timer {
	if d < 0 {
		d = 0
	}
	s.seq++
	t := &Timer{at: s.now.Add(d), seq: s.seq, fn: fn}
	heap.Push(&s.queue, t)
	return t
}

// Pending counts the timers that have not fired or been cancelled.
func (s *Scheduler) Pending() int {
	n := 0
	for _, t := range s.queue {
		if !t.cancelled {
			n++
		}
	}
	return n
}

// Next reports the deadline of the earliest live timer.
func (s *Scheduler) Next() (time.Time, bool) {
	for s.queue.Len() > 0 {
		t := s.queue[0]
		if !t.cancelled {
			return t.at, true
		}
		heap.Pop(&s.queue)
	}
	return time.Time{}, false
}

// Advance moves the clock to now and fires every timer due at or before it.
// Timers registered by a callback fire in the same call when they are due.
// The clock never moves backwards. It returns the number of callbacks run.
func (s *Scheduler) Advance(now time.Time) int {
	fired := 0
	for s.queue.Len() > 0 {
		t := s.queue[0]
		if t.at.After(now) {
			break
		}
		heap.Pop(&s.queue)
		if t.cancelled {
			continue
		}
		if t.at.After(s.now) {
			s.now = t.at
		}
		t.cancelled = true
		t.fn()
		fired++
	}
	if now.After(s.now) {
		s.now = now
	}
	return fired
}

// AdvanceBy moves the clock forward by d.
func (s *Scheduler) AdvanceBy(d time.Duration) int {
	return s.Advance(s.now.Add(d))
}

// RunUntilIdle jumps from deadline to deadline until no timer is left or limit
// callbacks have run. A limit of zero means no limit.
func (s *Scheduler) RunUntilIdle(limit int) int {
	fired := 0
	for limit <= 0 || fired < limit {
		at, ok := s.Next()
		if !ok {
			break
		}
		fired += s.Advance(at)
	}
	return fired
}

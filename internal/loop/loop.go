// Package loop provides the single-threaded timer queue that drives the
// exercise sessions. Nothing here is safe for concurrent use; all calls are
// expected from the thread that owns the window.
package loop

import (
	"container/heap"
	"time"
)

// Timer is a scheduled callback
type Timer struct {
	when    time.Time
	seq     uint64
	fn      func()
	index   int
	stopped bool
}

// Stop cancels the timer. It returns false if the timer already fired or was stopped.
func (t *Timer) Stop() bool {
	if t == nil || t.stopped || t.index < 0 {
		return false
	}
	t.stopped = true
	return true
}

// Loop runs callbacks in deadline order, FIFO among equal deadlines
type Loop struct {
	now   time.Time
	queue timerQueue
	seq   uint64
}

// New creates a loop whose logical clock starts at start
func New(start time.Time) *Loop {
	return &Loop{now: start}
}

// Now returns the loop's logical time. Inside a callback this is the
// callback's own deadline.
func (l *Loop) Now() time.Time {
	return l.now
}

// After schedules fn to run d after the current logical time
func (l *Loop) After(d time.Duration, fn func()) *Timer {
	if d < 0 {
		d = 0
	}
	l.seq++
	t := &Timer{when: l.now.Add(d), seq: l.seq, fn: fn}
	heap.Push(&l.queue, t)
	return t
}

// Advance runs every callback due at or before now and returns how many ran.
// Callbacks scheduled while advancing run in the same call if they fall due.
func (l *Loop) Advance(now time.Time) int {
	ran := 0
	for len(l.queue) > 0 {
		next := l.queue[0]
		if next.when.After(now) {
			break
		}
		heap.Pop(&l.queue)
		if next.stopped {
			continue
		}
		if next.when.After(l.now) {
			l.now = next.when
		}
		next.fn()
		ran++
	}
	if now.After(l.now) {
		l.now = now
	}
	return ran
}

// Pending returns the number of live timers
func (l *Loop) Pending() int {
	n := 0
	for _, t := range l.queue {
		if !t.stopped {
			n++
		}
	}
	return n
}

// NextDeadline returns the earliest live deadline
func (l *Loop) NextDeadline() (time.Time, bool) {
	for len(l.queue) > 0 && l.queue[0].stopped {
		heap.Pop(&l.queue)
	}
	if len(l.queue) == 0 {
		return time.Time{}, false
	}
	return l.queue[0].when, true
}

type timerQueue []*Timer

func (q timerQueue) Len() int { return len(q) }

func (q timerQueue) Less(i, j int) bool {
	if q[i].when.Equal(q[j].when) {
		return q[i].seq < q[j].seq
	}
	return q[i].when.Before(q[j].when)
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

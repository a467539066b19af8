package callback

import (
	"fmt"
	"sort"
	"time"

	"github.com/agiangrant/framecore/dom"
)

// TimerID identifies a timer. Ids are allocated monotonically and never reused.
type TimerID uint64

// TimerFunc is the signature of timer callbacks.
type TimerFunc func(info *Info, data any) TimerResult

// TimerResult is returned by a timer callback.
type TimerResult struct {
	Update Update

	// Terminate removes the timer after this invocation.
	Terminate bool
}

// Timer is a cooperative timer, ticked once per frame.
type Timer struct {
	ID TimerID

	// Interval between two invocations of a repeating timer.
	Interval time.Duration

	// Delay before the first invocation.
	Delay time.Duration

	// Timeout ends the timer once this much time passed since Created.
	// Zero means no timeout.
	Timeout time.Duration

	Repeat bool

	Created   time.Time
	LastFired time.Time
	Fired     int

	Callback TimerFunc
	Data     any

	// Node is the node that started the timer, passed on to the callback.
	Node *dom.DomNodeID
}

func (t *Timer) due(now time.Time) bool {
	if t.Fired == 0 {
		return !now.Before(t.Created.Add(t.Delay))
	}
	if !t.Repeat || !now.After(t.LastFired) {
		return false
	}
	return !now.Before(t.LastFired.Add(t.Interval))
}

func (t *Timer) expired(now time.Time) bool {
	return t.Timeout > 0 && !now.Before(t.Created.Add(t.Timeout))
}

// Timers holds every timer of a window.
type Timers struct {
	next   TimerID
	timers map[TimerID]*Timer
}

// NewTimers creates an empty timer set.
func NewTimers() *Timers {
	return &Timers{timers: make(map[TimerID]*Timer)}
}

func validateTimer(t Timer) error {
	if t.Callback == nil {
		return fmt.Errorf("add timer: %w", ErrNilCallback)
	}
	if t.Interval < 0 || t.Delay < 0 || t.Timeout < 0 {
		return fmt.Errorf("add timer (interval %v, delay %v, timeout %v): %w",
			t.Interval, t.Delay, t.Timeout, ErrNegativeInterval)
	}
	return nil
}

// Add validates and inserts a timer created at now.
func (ts *Timers) Add(t Timer, now time.Time) (TimerID, error) {
	if err := validateTimer(t); err != nil {
		return 0, err
	}
	id := ts.reserve()
	ts.insert(id, t, now)
	return id, nil
}

func (ts *Timers) reserve() TimerID {
	ts.next++
	return ts.next
}

func (ts *Timers) insert(id TimerID, t Timer, now time.Time) {
	t.ID = id
	t.Created = now
	t.LastFired = time.Time{}
	t.Fired = 0
	ts.timers[id] = &t
}

// Remove stops a timer. Unknown ids are ignored.
func (ts *Timers) Remove(id TimerID) bool {
	if _, ok := ts.timers[id]; !ok {
		return false
	}
	delete(ts.timers, id)
	return true
}

// Get returns a copy of a timer.
func (ts *Timers) Get(id TimerID) (Timer, bool) {
	t, ok := ts.timers[id]
	if !ok {
		return Timer{}, false
	}
	return *t, true
}

// Len returns the number of live timers.
func (ts *Timers) Len() int {
	return len(ts.timers)
}

// Due returns the ids of every timer that is due at now, in id order, and
// marks them fired at now. Calling Due twice with the same now returns
// nothing the second time. Timers past their timeout are removed.
func (ts *Timers) Due(now time.Time) []TimerID {
	var due []TimerID
	for _, id := range ts.ids() {
		t := ts.timers[id]
		if t.expired(now) {
			delete(ts.timers, id)
			continue
		}
		if !t.due(now) {
			continue
		}
		t.LastFired = now
		t.Fired++
		due = append(due, id)
	}
	return due
}

// NextDue returns the time until the earliest timer becomes due.
func (ts *Timers) NextDue(now time.Time) (time.Duration, bool) {
	var (
		best  time.Duration
		found bool
	)
	for _, t := range ts.timers {
		var at time.Time
		switch {
		case t.Fired == 0:
			at = t.Created.Add(t.Delay)
		case t.Repeat:
			at = t.LastFired.Add(t.Interval)
		default:
			continue
		}
		d := at.Sub(now)
		if d < 0 {
			d = 0
		}
		if !found || d < best {
			best, found = d, true
		}
	}
	return best, found
}

func (ts *Timers) ids() []TimerID {
	ids := make([]TimerID, 0, len(ts.timers))
	for id := range ts.timers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

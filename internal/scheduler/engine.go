// Package scheduler keeps one pending deadline per key and delivers each on a
// channel when it comes due. Scheduling a key again moves its deadline, so a
// subject that keeps being refreshed never piles up stale events.
package scheduler

import (
	"container/heap"
	"errors"
	"sync"
	"time"
)

var (
	ErrInvalidTriggerTime = errors.New("scheduler: invalid trigger time")
	ErrMissingKey         = errors.New("scheduler: event key is required")
	ErrStopped            = errors.New("scheduler: engine stopped")
)

// Event is a deadline. Kind lets one engine serve several consumers; Stamp
// carries whatever the consumer needs to tell a current deadline from a
// superseded one.
type Event struct {
	Key       string
	Subject   string
	Kind      string
	Stamp     time.Time
	TriggerAt time.Time
}

type entry struct {
	event Event
	seq   uint64
	index int
}

type deadlines []*entry

func (d deadlines) Len() int { return len(d) }

func (d deadlines) Less(i, j int) bool {
	if d[i].event.TriggerAt.Equal(d[j].event.TriggerAt) {
		return d[i].seq < d[j].seq
	}
	return d[i].event.TriggerAt.Before(d[j].event.TriggerAt)
}

func (d deadlines) Swap(i, j int) {
	d[i], d[j] = d[j], d[i]
	d[i].index = i
	d[j].index = j
}

func (d *deadlines) Push(x any) {
	e := x.(*entry)
	e.index = len(*d)
	*d = append(*d, e)
}

func (d *deadlines) Pop() any {
	old := *d
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*d = old[:n-1]
	e.index = -1
	return e
}

type Engine struct {
	mu      sync.Mutex
	queue   deadlines
	byKey   map[string]*entry
	out     chan Event
	wakeup  chan struct{}
	stopCh  chan struct{}
	doneCh  chan struct{}
	started bool
	stopped bool
	seq     uint64
}

func NewEngine(bufferSize int) *Engine {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &Engine{
		byKey:  make(map[string]*entry),
		out:    make(chan Event, bufferSize),
		wakeup: make(chan struct{}, 1),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

func (e *Engine) C() <-chan Event {
	return e.out
}

func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started {
		return
	}
	e.started = true
	go e.loop()
}

// Stop ends delivery and closes C. Pending deadlines are discarded.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.started || e.stopped {
		e.mu.Unlock()
		return
	}
	e.stopped = true
	close(e.stopCh)
	e.mu.Unlock()
	<-e.doneCh
}

// Schedule sets the deadline for ev.Key, replacing any pending one.
func (e *Engine) Schedule(ev Event) error {
	if ev.Key == "" {
		return ErrMissingKey
	}
	if ev.TriggerAt.IsZero() {
		return ErrInvalidTriggerTime
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped {
		return ErrStopped
	}

	e.seq++
	if cur, ok := e.byKey[ev.Key]; ok {
		cur.event = ev
		cur.seq = e.seq
		heap.Fix(&e.queue, cur.index)
	} else {
		item := &entry{event: ev, seq: e.seq}
		heap.Push(&e.queue, item)
		e.byKey[ev.Key] = item
	}
	e.signalWakeup()
	return nil
}

// Cancel drops the pending deadline for key and reports whether there was one.
func (e *Engine) Cancel(key string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	cur, ok := e.byKey[key]
	if !ok {
		return false
	}
	heap.Remove(&e.queue, cur.index)
	delete(e.byKey, key)
	e.signalWakeup()
	return true
}

// Pending reports how many keys have a deadline that has not fired yet.
func (e *Engine) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.queue)
}

func (e *Engine) loop() {
	defer close(e.doneCh)
	defer close(e.out)

	timer := time.NewTimer(time.Hour)
	stopTimer(timer)
	for {
		next, ok := e.peek()
		if !ok {
			select {
			case <-e.wakeup:
				continue
			case <-e.stopCh:
				return
			}
		}

		timer.Reset(max(time.Until(next), 0))
		select {
		case <-timer.C:
			for _, ev := range e.popDue(time.Now()) {
				// Due events wait for the consumer; with one deadline per
				// key the backlog is bounded by the number of keys.
				select {
				case e.out <- ev:
				case <-e.stopCh:
					return
				}
			}
		case <-e.wakeup:
			stopTimer(timer)
		case <-e.stopCh:
			stopTimer(timer)
			return
		}
	}
}

func (e *Engine) signalWakeup() {
	select {
	case e.wakeup <- struct{}{}:
	default:
	}
}

func (e *Engine) peek() (time.Time, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.queue) == 0 {
		return time.Time{}, false
	}
	return e.queue[0].event.TriggerAt, true
}

func (e *Engine) popDue(now time.Time) []Event {
	e.mu.Lock()
	defer e.mu.Unlock()

	var out []Event
	for len(e.queue) > 0 && !e.queue[0].event.TriggerAt.After(now) {
		item := heap.Pop(&e.queue).(*entry)
		delete(e.byKey, item.event.Key)
		out = append(out, item.event)
	}
	return out
}

func stopTimer(timer *time.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
}

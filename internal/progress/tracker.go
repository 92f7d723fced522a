// Package progress tracks long-running uploads in memory. State is per
// process and is lost on restart.
package progress

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"

	DefaultTTL = time.Hour

	maxMessages      = 100
	subscriberBuffer = 16
)

type Snapshot struct {
	ID        string    `json:"upload_id"`
	BrandID   string    `json:"brand_id"`
	Total     int       `json:"total"`
	Completed int       `json:"completed"`
	Failed    int       `json:"failed"`
	Current   string    `json:"current"`
	Status    string    `json:"status"`
	Messages  []string  `json:"messages"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Done reports whether no further updates will follow.
func (s Snapshot) Done() bool {
	return s.Status != StatusRunning
}

type entry struct {
	snapshot    Snapshot
	subscribers map[chan Snapshot]struct{}
}

type Tracker struct {
	mu      sync.Mutex
	entries map[string]*entry
	ttl     time.Duration
	now     func() time.Time
}

func NewTracker(ttl time.Duration) *Tracker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Tracker{
		entries: make(map[string]*entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Start registers a new upload and returns its id.
func (t *Tracker) Start(brandID string, total int) string {
	id := uuid.NewString()

	t.mu.Lock()
	defer t.mu.Unlock()

	t.entries[id] = &entry{
		snapshot: Snapshot{
			ID:        id,
			BrandID:   brandID,
			Total:     total,
			Status:    StatusRunning,
			Messages:  []string{},
			UpdatedAt: t.now(),
		},
		subscribers: make(map[chan Snapshot]struct{}),
	}

	return id
}

func (t *Tracker) Get(id string) (Snapshot, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[id]
	if !ok {
		return Snapshot{}, false
	}
	return copySnapshot(e.snapshot), true
}

// Current marks the item being processed.
func (t *Tracker) Current(id, item string) {
	t.update(id, func(s *Snapshot) {
		s.Current = item
	})
}

// Step records one finished item. A non-empty message is appended to the log.
func (t *Tracker) Step(id string, ok bool, message string) {
	t.update(id, func(s *Snapshot) {
		if ok {
			s.Completed++
		} else {
			s.Failed++
		}
		appendMessage(s, message)
	})
}

// Finish closes the upload. It is failed when nothing succeeded. Subscribers
// receive the final state before their channel is closed.
func (t *Tracker) Finish(id string, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[id]
	if !ok {
		return
	}

	t.apply(e, func(s *Snapshot) {
		s.Current = ""
		s.Status = StatusCompleted
		if s.Completed == 0 && s.Failed > 0 {
			s.Status = StatusFailed
		}
		appendMessage(s, message)
	})

	for ch := range e.subscribers {
		close(ch)
		delete(e.subscribers, ch)
	}
}

// Subscribe returns a channel receiving every later update, closed when the
// upload finishes. The current state is delivered first.
func (t *Tracker) Subscribe(id string) (<-chan Snapshot, func(), bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[id]
	if !ok {
		return nil, func() {}, false
	}

	ch := make(chan Snapshot, subscriberBuffer)
	ch <- copySnapshot(e.snapshot)

	if e.snapshot.Done() {
		close(ch)
		return ch, func() {}, true
	}

	e.subscribers[ch] = struct{}{}

	unsubscribe := func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if _, ok := e.subscribers[ch]; ok {
			delete(e.subscribers, ch)
			close(ch)
		}
	}

	return ch, unsubscribe, true
}

// Sweep drops entries not updated within the TTL and returns how many went.
func (t *Tracker) Sweep() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	cutoff := t.now().Add(-t.ttl)
	removed := 0

	for id, e := range t.entries {
		if e.snapshot.UpdatedAt.After(cutoff) {
			continue
		}
		for ch := range e.subscribers {
			close(ch)
			delete(e.subscribers, ch)
		}
		delete(t.entries, id)
		removed++
	}

	return removed
}

// Active counts uploads still running.
func (t *Tracker) Active() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := 0
	for _, e := range t.entries {
		if !e.snapshot.Done() {
			n++
		}
	}
	return n
}

func (t *Tracker) update(id string, fn func(*Snapshot)) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if e, ok := t.entries[id]; ok {
		t.apply(e, fn)
	}
}

// apply mutates the snapshot and fans it out. Callers hold t.mu.
func (t *Tracker) apply(e *entry, fn func(*Snapshot)) {
	fn(&e.snapshot)
	e.snapshot.UpdatedAt = t.now()

	snap := copySnapshot(e.snapshot)
	for ch := range e.subscribers {
		deliver(ch, snap)
	}
}

// deliver never blocks. A full buffer loses its oldest snapshot so the
// latest state always gets through.
func deliver(ch chan Snapshot, snap Snapshot) {
	for {
		select {
		case ch <- snap:
			return
		default:
		}

		select {
		case <-ch:
		default:
		}
	}
}

func appendMessage(s *Snapshot, message string) {
	if message == "" {
		return
	}
	s.Messages = append(s.Messages, message)
	if len(s.Messages) > maxMessages {
		s.Messages = s.Messages[len(s.Messages)-maxMessages:]
	}
}

func copySnapshot(s Snapshot) Snapshot {
	s.Messages = append([]string(nil), s.Messages...)
	if s.Messages == nil {
		s.Messages = []string{}
	}
	return s
}

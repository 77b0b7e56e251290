// Package journal keeps an in-memory trail of workflow progress per
// correlation id: every status a submission passes through on its way from
// the modal to the created entity and the attach decision. The trail is
// observational; transition legality is enforced where state changes happen,
// not here.
package journal

import (
	"sync"
	"time"

	"github.com/syllabus-hq/syllabot/internal/relay"
)

// maxWorkflows bounds memory; when full, finished trails are evicted first.
const maxWorkflows = 512

type Entry struct {
	Status relay.Status
	Note   string
	At     time.Time
}

type Journal struct {
	mu      sync.Mutex
	entries map[string][]Entry
	now     func() time.Time
}

func New(now func() time.Time) *Journal {
	if now == nil {
		now = time.Now
	}
	return &Journal{
		entries: make(map[string][]Entry),
		now:     now,
	}
}

// Record appends one observed status to a workflow's trail.
func (j *Journal) Record(correlationID string, status relay.Status, note string) {
	if correlationID == "" {
		return
	}
	j.mu.Lock()
	defer j.mu.Unlock()

	if _, tracked := j.entries[correlationID]; !tracked && len(j.entries) >= maxWorkflows {
		j.evictLocked()
	}
	j.entries[correlationID] = append(j.entries[correlationID], Entry{
		Status: status,
		Note:   note,
		At:     j.now().UTC(),
	})
}

// Current returns the last observed status for a workflow, or StatusOpen
// when nothing has been recorded.
func (j *Journal) Current(correlationID string) relay.Status {
	j.mu.Lock()
	defer j.mu.Unlock()

	entries := j.entries[correlationID]
	if len(entries) == 0 {
		return relay.StatusOpen
	}
	return entries[len(entries)-1].Status
}

// Trail returns a copy of a workflow's entries in record order.
func (j *Journal) Trail(correlationID string) []Entry {
	j.mu.Lock()
	defer j.mu.Unlock()

	entries := j.entries[correlationID]
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}

// Len reports how many workflows are tracked.
func (j *Journal) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.entries)
}

// evictLocked drops one trail, preferring a workflow that already reached a
// terminal status.
func (j *Journal) evictLocked() {
	var fallback string
	for id, entries := range j.entries {
		if len(entries) > 0 && relay.Terminal(entries[len(entries)-1].Status) {
			delete(j.entries, id)
			return
		}
		fallback = id
	}
	if fallback != "" {
		delete(j.entries, fallback)
	}
}

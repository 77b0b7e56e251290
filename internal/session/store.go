// Package session bridges two otherwise-unrelated interaction requests:
// "entity created" on one side and a later attach decision on the other.
// Sessions live in process memory only and expire on a short TTL.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/syllabus-hq/syllabot/internal/relay"
)

// DefaultTTL bounds how long an attach decision stays answerable.
const DefaultTTL = 15 * time.Minute

type Session struct {
	ID              string
	CorrelationID   string
	EntityID        string
	EntityKind      string
	OriginChannelID string
	OriginUserID    string
	DMChannelID     string
	Status          relay.Status
	CreatedAt       time.Time
	ExpiresAt       time.Time
}

type Store struct {
	mu    sync.Mutex
	items map[string]Session
	ttl   time.Duration
	now   func() time.Time
}

func NewStore(ttl time.Duration, now func() time.Time) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if now == nil {
		now = time.Now
	}
	return &Store{
		items: make(map[string]Session),
		ttl:   ttl,
		now:   now,
	}
}

// Create mints an unguessable id and stores the payload with an expiry
// timestamp TTL in the future. The stored copy (with id and timestamps
// filled in) is returned.
func (s *Store) Create(payload Session) Session {
	now := s.now().UTC()
	payload.ID = uuid.NewString()
	payload.CreatedAt = now
	payload.ExpiresAt = now.Add(s.ttl)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[payload.ID] = payload
	return payload
}

// Get returns the session for id. An expired session is evicted on read and
// reported as absent; no background sweep runs.
func (s *Store) Get(id string) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.items[id]
	if !ok {
		return Session{}, false
	}
	if !s.now().UTC().Before(sess.ExpiresAt) {
		delete(s.items, id)
		return Session{}, false
	}
	return sess, true
}

// Put replaces a stored session. A session that has already expired or been
// deleted is not resurrected.
func (s *Store) Put(sess Session) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.items[sess.ID]
	if !ok || !s.now().UTC().Before(current.ExpiresAt) {
		delete(s.items, sess.ID)
		return false
	}
	s.items[sess.ID] = sess
	return true
}

// Delete removes a session. Idempotent.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
}

// Len reports live (non-expired) sessions; used by the health endpoint.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	n := 0
	for _, sess := range s.items {
		if now.Before(sess.ExpiresAt) {
			n++
		}
	}
	return n
}

package api

import "sync"

// CallbackRecord remembers one processed "entity created" callback so a
// redelivered automation callback resolves to the session it already
// produced instead of minting a second one.
type CallbackRecord struct {
	CorrelationID string
	SessionID     string
}

type InMemoryCallbackStore struct {
	mu    sync.Mutex
	items map[string]CallbackRecord
}

func NewInMemoryCallbackStore() *InMemoryCallbackStore {
	return &InMemoryCallbackStore{
		items: make(map[string]CallbackRecord),
	}
}

func (s *InMemoryCallbackStore) Get(correlationID string) (CallbackRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.items[correlationID]
	return rec, ok
}

func (s *InMemoryCallbackStore) Put(record CallbackRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[record.CorrelationID] = record
}

func (s *InMemoryCallbackStore) Delete(correlationID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.items, correlationID)
}

package session

import "sync"

// MemoryStore keeps the session for the lifetime of the process.
type MemoryStore struct {
	mu    sync.RWMutex
	state *State
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load() (State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.state == nil {
		return State{}, ErrNoSession
	}
	st := *m.state
	if st.User != nil {
		u := *st.User
		st.User = &u
	}
	return st, nil
}

func (m *MemoryStore) Save(st State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if st.User != nil {
		u := *st.User
		st.User = &u
	}
	m.state = &st
	return nil
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = nil
	return nil
}

package results

import "sync"

// Store holds the result set of the last successful session. It is
// written only by the session controller and read by views and
// exporters.
type Store struct {
	mu  sync.RWMutex
	set *ResultSet
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{}
}

// Set replaces the stored result set wholesale.
func (s *Store) Set(rs ResultSet) {
	s.mu.Lock()
	s.set = &rs
	s.mu.Unlock()
}

// Get returns a copy of the stored result set, and whether one exists.
func (s *Store) Get() (ResultSet, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.set == nil {
		return ResultSet{}, false
	}
	cp := *s.set
	cp.Posts = make([]Post, len(s.set.Posts))
	copy(cp.Posts, s.set.Posts)
	return cp, true
}

// Clear drops the stored result set. Called at session start so a new
// crawl never shows stale data alongside its progress.
func (s *Store) Clear() {
	s.mu.Lock()
	s.set = nil
	s.mu.Unlock()
}

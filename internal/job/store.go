package job

import (
	"sync"

	"github.com/jonesrussell/crawldesk/internal/i18n"
)

// Patch is a partial update to the description. Nil fields are left
// unchanged. Setting Site also resets SortKey to the site default unless
// the patch carries its own SortKey.
type Patch struct {
	Site        *Site
	Board       *string
	SortKey     *string
	TimeWindow  *TimeWindow
	CustomRange *DateRange
	// ClearCustomRange removes the custom range; it wins over CustomRange.
	ClearCustomRange bool
	RankStart        *int
	RankEnd          *int
	MinViews         *int
	MinLikes         *int
	MinComments      *int
	UILanguage       *string
	Advanced         *bool
}

// Listener is notified with a snapshot after every accepted mutation.
type Listener func(Description)

// Store owns the job description and notifies subscribers on change.
type Store struct {
	mu        sync.RWMutex
	desc      Description
	listeners map[int]Listener
	nextID    int
}

// NewStore creates a Store seeded with defaults.
func NewStore() *Store {
	return &Store{
		desc:      Default(),
		listeners: make(map[int]Listener),
	}
}

// Get returns a snapshot of the current description.
func (s *Store) Get() Description {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.desc.clone()
}

// Set applies a partial update and notifies subscribers.
func (s *Store) Set(p Patch) {
	s.mu.Lock()
	if p.Site != nil {
		s.desc.Site = *p.Site
		if p.SortKey == nil {
			s.desc.SortKey = DefaultSortKey(*p.Site)
		}
	}
	if p.Board != nil {
		s.desc.Board = *p.Board
	}
	if p.SortKey != nil {
		s.desc.SortKey = *p.SortKey
	}
	if p.TimeWindow != nil {
		s.desc.TimeWindow = *p.TimeWindow
	}
	switch {
	case p.ClearCustomRange:
		s.desc.CustomRange = nil
	case p.CustomRange != nil:
		r := *p.CustomRange
		s.desc.CustomRange = &r
	}
	if p.RankStart != nil {
		s.desc.RankRange.Start = *p.RankStart
	}
	if p.RankEnd != nil {
		s.desc.RankRange.End = *p.RankEnd
	}
	if p.MinViews != nil {
		s.desc.Thresholds.MinViews = *p.MinViews
	}
	if p.MinLikes != nil {
		s.desc.Thresholds.MinLikes = *p.MinLikes
	}
	if p.MinComments != nil {
		s.desc.Thresholds.MinComments = *p.MinComments
	}
	if p.UILanguage != nil {
		s.desc.UILanguage = i18n.ParseLang(*p.UILanguage)
	}
	if p.Advanced != nil {
		s.desc.Advanced = *p.Advanced
	}
	snapshot := s.desc.clone()
	listeners := make([]Listener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(snapshot)
	}
}

// Validity validates the current description.
func (s *Store) Validity() Validity {
	return Validate(s.Get())
}

// Subscribe registers a listener and returns an unsubscribe func.
func (s *Store) Subscribe(fn Listener) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

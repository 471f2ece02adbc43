package job

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestStoreDefaults(t *testing.T) {
	s := NewStore()
	d := s.Get()
	assert.Equal(t, RankRange{Start: 1, End: 20}, d.RankRange)
	assert.Equal(t, WindowDay, d.TimeWindow)
	assert.False(t, s.Validity().OK)
}

func TestStoreSetSiteResetsSort(t *testing.T) {
	s := NewStore()
	s.Set(Patch{Site: ptr(SiteReddit)})
	assert.Equal(t, "new", s.Get().SortKey)

	s.Set(Patch{Site: ptr(SiteDCInside)})
	assert.Equal(t, "recent", s.Get().SortKey)

	// Explicit sort in the same patch wins.
	s.Set(Patch{Site: ptr(SiteReddit), SortKey: ptr("top")})
	assert.Equal(t, "top", s.Get().SortKey)
}

func TestStoreNotifiesSubscribers(t *testing.T) {
	s := NewStore()
	var seen []string
	unsub := s.Subscribe(func(d Description) {
		seen = append(seen, d.Board)
	})

	s.Set(Patch{Board: ptr("askreddit")})
	s.Set(Patch{Board: ptr("golang")})
	unsub()
	s.Set(Patch{Board: ptr("unseen")})

	require.Equal(t, []string{"askreddit", "golang"}, seen)
}

func TestStoreSnapshotIsolation(t *testing.T) {
	s := NewStore()
	s.Set(Patch{
		Site:       ptr(SiteReddit),
		Board:      ptr("askreddit"),
		TimeWindow: ptr(WindowCustom),
	})

	d := s.Get()
	d.Board = "mutated"
	assert.Equal(t, "askreddit", s.Get().Board)
}

func TestStoreClearCustomRange(t *testing.T) {
	s := NewStore()
	s.Set(Patch{CustomRange: &DateRange{}})
	require.NotNil(t, s.Get().CustomRange)

	s.Set(Patch{ClearCustomRange: true})
	assert.Nil(t, s.Get().CustomRange)
}

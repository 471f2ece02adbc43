// Package job holds the editable crawl job description and its validation.
//
// The Store is the single source of truth for what the next crawl will do.
// The session controller reads a snapshot at start time; it never mutates
// the description itself.
package job

import (
	"strings"
	"time"

	"github.com/jonesrussell/crawldesk/internal/i18n"
)

// Site identifies a supported target site.
type Site string

const (
	SiteReddit    Site = "reddit"
	SiteDCInside  Site = "dcinside"
	SiteBlind     Site = "blind"
	SiteBBC       Site = "bbc"
	SiteLemmy     Site = "lemmy"
	SiteUniversal Site = "universal"
)

// Sites lists every supported site tag.
var Sites = []Site{SiteReddit, SiteDCInside, SiteBlind, SiteBBC, SiteLemmy, SiteUniversal}

// ParseSite returns the Site for a tag, or "" when unknown.
// The legacy "auto_crawl" tag maps to universal.
func ParseSite(s string) Site {
	tag := Site(strings.ToLower(strings.TrimSpace(s)))
	if tag == "auto_crawl" {
		return SiteUniversal
	}
	for _, known := range Sites {
		if tag == known {
			return known
		}
	}
	return ""
}

// Label returns the uppercase display tag used in summaries and filenames.
func (s Site) Label() string {
	return strings.ToUpper(string(s))
}

// SortKeys returns the sort options valid for a site, most common first.
func SortKeys(site Site) []string {
	if site == SiteReddit {
		return []string{"new", "top", "hot", "best", "rising"}
	}
	return []string{"recent", "popular", "recommend", "comments"}
}

// DefaultSortKey returns the sort preselected when the site changes.
func DefaultSortKey(site Site) string {
	return SortKeys(site)[0]
}

// TimeWindow restricts how far back the crawl reaches.
type TimeWindow string

const (
	WindowHour   TimeWindow = "hour"
	WindowDay    TimeWindow = "day"
	WindowWeek   TimeWindow = "week"
	WindowMonth  TimeWindow = "month"
	WindowYear   TimeWindow = "year"
	WindowAll    TimeWindow = "all"
	WindowCustom TimeWindow = "custom"
)

// DateRange is the explicit period used with WindowCustom.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// RankRange selects which ranks of the board listing to collect.
type RankRange struct {
	Start int
	End   int
}

// Thresholds filters out posts below the given counts.
type Thresholds struct {
	MinViews    int
	MinLikes    int
	MinComments int
}

// Description is the complete input to one crawl.
type Description struct {
	Site        Site
	Board       string
	SortKey     string
	TimeWindow  TimeWindow
	CustomRange *DateRange
	RankRange   RankRange
	Thresholds  Thresholds
	UILanguage  i18n.Lang
	Advanced    bool
}

// Default returns the description used at application start.
func Default() Description {
	return Description{
		TimeWindow: WindowDay,
		RankRange:  RankRange{Start: 1, End: 20},
		UILanguage: i18n.Korean,
	}
}

// clone returns a deep copy so callers cannot alias store state.
func (d Description) clone() Description {
	if d.CustomRange != nil {
		r := *d.CustomRange
		d.CustomRange = &r
	}
	return d
}

// Validity reports whether a crawl can start, with the first failing
// reason as a localized message key.
type Validity struct {
	OK     bool
	Reason string
}

// Validate checks the description in a fixed order: site, board, site
// shape, rank range, thresholds, custom dates. It is a pure function.
func Validate(d Description) Validity {
	if d.Site == "" {
		return Validity{Reason: "crawlButtonMessages.noSite"}
	}
	if strings.TrimSpace(d.Board) == "" {
		return Validity{Reason: "crawlButtonMessages.noBoard"}
	}
	if d.Site == SiteLemmy && !validLemmyBoard(d.Board) {
		return Validity{Reason: "crawlButtonMessages.lemmyFormatError"}
	}
	if d.RankRange.Start < 1 || d.RankRange.End < d.RankRange.Start {
		return Validity{Reason: "crawlButtonMessages.rangeInverted"}
	}
	if d.Thresholds.MinViews < 0 || d.Thresholds.MinLikes < 0 || d.Thresholds.MinComments < 0 {
		return Validity{Reason: "crawlButtonMessages.thresholdNegative"}
	}
	if d.TimeWindow == WindowCustom && d.CustomRange != nil && d.CustomRange.End.Before(d.CustomRange.Start) {
		return Validity{Reason: "crawlButtonMessages.dateRangeInvalid"}
	}
	return Validity{OK: true}
}

// validLemmyBoard accepts community@instance or a URL containing /c/.
// Every other site delegates board validation to the backend.
func validLemmyBoard(board string) bool {
	board = strings.TrimSpace(board)
	if strings.HasPrefix(board, "http://") || strings.HasPrefix(board, "https://") {
		return strings.Contains(board, "/c/")
	}
	community, instance, found := strings.Cut(board, "@")
	return found && community != "" && instance != ""
}

// IsURL reports whether a universal-site board looks like a URL rather
// than free-form input.
func IsURL(board string) bool {
	board = strings.TrimSpace(board)
	if strings.HasPrefix(board, "http://") || strings.HasPrefix(board, "https://") {
		return true
	}
	// host/path shorthand: needs both a dot and a slash
	return strings.Contains(board, ".") && strings.Contains(board, "/")
}

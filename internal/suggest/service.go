// Package suggest turns user typing into ranked board suggestions with
// bounded latency, degrading to offline seed lists when the backend is
// unreachable.
package suggest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/jonesrussell/crawldesk/internal/job"
	"github.com/jonesrussell/crawldesk/internal/logger"
)

const (
	// maxSuggestions caps every response at ten items.
	maxSuggestions = 10
	// minKeywordLen is the minimum input length in runes.
	minKeywordLen = 2
)

// Service answers autocomplete lookups. It never returns an error:
// network failures degrade silently to the offline seed lists.
type Service struct {
	httpBase string
	httpc    *http.Client
	log      logger.Logger
}

// NewService creates a Service against the backend HTTP base URL.
func NewService(httpBase string, log logger.Logger) *Service {
	return &Service{
		httpBase: httpBase,
		httpc:    &http.Client{Timeout: 5 * time.Second},
		log:      log,
	}
}

// Lookup returns 0..10 ranked suggestions for the keyword on a site.
func (s *Service) Lookup(ctx context.Context, site job.Site, keyword string) []Suggestion {
	keyword = strings.TrimSpace(keyword)

	switch site {
	case job.SiteUniversal:
		// A pasted URL is accepted as-is, nothing to suggest.
		if job.IsURL(keyword) {
			return nil
		}
	case job.SiteLemmy:
		if keyword == "" {
			return cap10(offlineSeeds[job.SiteLemmy])
		}
	}

	// Only the Lemmy empty-input listing above escapes the length gate.
	if utf8.RuneCountInString(keyword) < minKeywordLen {
		return nil
	}

	// BBC uses the static section list only.
	if site == job.SiteBBC {
		return rankAndCap(bbcMatches(keyword), keyword)
	}

	matches, err := s.fetch(ctx, site, keyword)
	if err != nil {
		s.log.Debug("autocomplete fallback to offline seeds",
			zap.String("site", string(site)), zap.Error(err))
		return rankAndCap(filterSeeds(offlineSeeds[site], keyword), keyword)
	}

	suggestions := make([]Suggestion, 0, len(matches))
	for _, m := range matches {
		suggestions = append(suggestions, Suggestion{Value: m})
	}
	if site == job.SiteLemmy && utf8.RuneCountInString(keyword) <= minKeywordLen {
		suggestions = prependPopular(suggestions, offlineSeeds[job.SiteLemmy])
	}
	return cap10(suggestions)
}

// fetch asks the backend for matches.
func (s *Service) fetch(ctx context.Context, site job.Site, keyword string) ([]string, error) {
	endpoint := fmt.Sprintf("%s/autocomplete/%s?keyword=%s",
		s.httpBase, url.PathEscape(string(site)), url.QueryEscape(keyword))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("autocomplete status %d", resp.StatusCode)
	}

	var body struct {
		Matches []string `json:"matches"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	return body.Matches, nil
}

// bbcMatches filters the static section list by case-insensitive
// substring, with multilingual synonym hits.
func bbcMatches(keyword string) []Suggestion {
	lower := strings.ToLower(keyword)

	synonymTargets := map[string]bool{}
	for term, section := range bbcSynonyms {
		if strings.Contains(strings.ToLower(term), lower) {
			synonymTargets[section] = true
		}
	}

	var out []Suggestion
	for _, s := range bbcSections {
		if strings.Contains(strings.ToLower(s.Value), lower) ||
			strings.Contains(strings.ToLower(s.Label), lower) ||
			synonymTargets[s.Value] {
			out = append(out, s)
		}
	}
	return out
}

// filterSeeds keeps seeds matching the keyword as a case-insensitive
// substring of value or label.
func filterSeeds(seeds []Suggestion, keyword string) []Suggestion {
	lower := strings.ToLower(keyword)
	var out []Suggestion
	for _, s := range seeds {
		if strings.Contains(strings.ToLower(s.Value), lower) ||
			strings.Contains(strings.ToLower(s.Label), lower) {
			out = append(out, s)
		}
	}
	return out
}

// rankAndCap orders matches with prefix hits first, ties broken by the
// incoming (popularity) order, and caps the list at ten.
func rankAndCap(matches []Suggestion, keyword string) []Suggestion {
	lower := strings.ToLower(keyword)
	sort.SliceStable(matches, func(i, j int) bool {
		pi := strings.HasPrefix(strings.ToLower(matches[i].Value), lower)
		pj := strings.HasPrefix(strings.ToLower(matches[j].Value), lower)
		return pi && !pj
	})
	return cap10(matches)
}

// prependPopular puts the fixed popular list ahead of server results,
// dropping duplicates.
func prependPopular(server, popular []Suggestion) []Suggestion {
	seen := make(map[string]bool, len(popular))
	out := make([]Suggestion, 0, len(popular)+len(server))
	for _, p := range popular {
		seen[p.Value] = true
		out = append(out, p)
	}
	for _, s := range server {
		if !seen[s.Value] {
			out = append(out, s)
		}
	}
	return out
}

func cap10(list []Suggestion) []Suggestion {
	if len(list) > maxSuggestions {
		return list[:maxSuggestions]
	}
	return list
}

// Package results keeps the normalized posts of the last successful crawl.
package results

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/jonesrussell/crawldesk/internal/job"
)

// Post is one normalized record from the backend.
type Post struct {
	Rank            int    `mapstructure:"-"`
	Title           string `mapstructure:"title"`
	TranslatedTitle string `mapstructure:"translated_title"`
	URL             string `mapstructure:"url"`
	Body            string `mapstructure:"body"`
	Views           int    `mapstructure:"views"`
	Likes           int    `mapstructure:"likes"`
	Comments        int    `mapstructure:"comments"`
	PublishedAt     string `mapstructure:"published_at"`
	ThumbnailURL    string `mapstructure:"thumbnail_url"`
	MediaType       string `mapstructure:"media_type"`
	MediaCount      int    `mapstructure:"media_count"`
}

// aliases maps canonical field names to the wire keys the backend may
// use, English or localized. First hit wins.
var aliases = map[string][]string{
	"title":            {"title", "original_title", "제목"},
	"translated_title": {"translated_title", "translatedTitle", "번역제목", "번역된 제목"},
	"url":              {"url", "link", "링크", "원문링크"},
	"body":             {"body", "content", "text", "본문", "내용"},
	"views":            {"views", "view_count", "조회수"},
	"likes":            {"likes", "like_count", "upvotes", "추천수", "좋아요"},
	"comments":         {"comments", "comment_count", "댓글수"},
	"published_at":     {"published_at", "date", "created_at", "작성일", "날짜"},
	"thumbnail_url":    {"thumbnail_url", "thumbnail", "썸네일"},
	"media_type":       {"media_type", "mediaType"},
	"media_count":      {"media_count", "mediaCount"},
}

var numericFields = map[string]bool{
	"views":       true,
	"likes":       true,
	"comments":    true,
	"media_count": true,
}

// NormalizePost maps a loose wire record onto the canonical Post shape.
// Unknown fields are ignored; numerics coerce to non-negative ints;
// strings are trimmed and the body keeps newlines but loses other
// control characters.
func NormalizePost(raw map[string]any) Post {
	canonical := make(map[string]any, len(aliases))
	for field, keys := range aliases {
		for _, key := range keys {
			v, ok := raw[key]
			if !ok || v == nil {
				continue
			}
			if numericFields[field] {
				canonical[field] = coerceInt(v)
			} else {
				canonical[field] = coerceString(v)
			}
			break
		}
	}

	var post Post
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &post,
		WeaklyTypedInput: true,
	})
	if err == nil {
		_ = dec.Decode(canonical)
	}

	post.Body = stripControl(post.Body)
	return post
}

// coerceInt parses any wire numeric into a non-negative int. Strings may
// carry thousands separators; anything unparseable becomes 0.
func coerceInt(v any) int {
	var n int
	switch x := v.(type) {
	case int:
		n = x
	case int64:
		n = int(x)
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return 0
		}
		n = int(x)
	case string:
		s := strings.TrimSpace(strings.ReplaceAll(x, ",", ""))
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		n = int(parsed)
	default:
		return 0
	}
	if n < 0 {
		return 0
	}
	return n
}

func coerceString(v any) string {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return ""
	}
}

// stripControl removes control characters other than newlines.
func stripControl(s string) string {
	if s == "" {
		return s
	}
	return strings.Map(func(r rune) rune {
		if r == '\n' {
			return r
		}
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, s)
}

// Summary describes a result set for rendering.
type Summary struct {
	Count          int
	RankRange      job.RankRange
	SiteLabel      string
	ElapsedSeconds int
	Mode           string
}

// ResultSet is the ordered, normalized output of one successful session.
type ResultSet struct {
	Posts   []Post
	Summary Summary
}

// Meta carries the session context needed to derive the summary.
type Meta struct {
	StartRank int
	Site      job.Site
	StartedAt time.Time
	DoneAt    time.Time
	Advanced  bool
}

// NewResultSet normalizes raw wire posts and derives the summary.
// Ranks are assigned from the session's start rank by position.
func NewResultSet(raw []map[string]any, meta Meta) ResultSet {
	posts := make([]Post, 0, len(raw))
	for i, r := range raw {
		p := NormalizePost(r)
		p.Rank = meta.StartRank + i
		posts = append(posts, p)
	}

	mode := "basic"
	if meta.Advanced {
		mode = "advanced"
	}
	elapsed := 0
	if !meta.DoneAt.IsZero() && meta.DoneAt.After(meta.StartedAt) {
		elapsed = int(math.Ceil(meta.DoneAt.Sub(meta.StartedAt).Seconds()))
	}

	return ResultSet{
		Posts: posts,
		Summary: Summary{
			Count:          len(posts),
			RankRange:      job.RankRange{Start: meta.StartRank, End: meta.StartRank + len(posts) - 1},
			SiteLabel:      meta.Site.Label(),
			ElapsedSeconds: elapsed,
			Mode:           mode,
		},
	}
}

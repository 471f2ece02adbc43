package transport

import (
	"time"

	"github.com/jonesrussell/crawldesk/internal/job"
)

// Request is the single outbound frame sent after the channel opens.
type Request struct {
	Input       string  `json:"input"`
	Site        string  `json:"site"`
	Sort        string  `json:"sort"`
	Start       int     `json:"start"`
	End         int     `json:"end"`
	MinViews    int     `json:"min_views"`
	MinLikes    int     `json:"min_likes"`
	MinComments int     `json:"min_comments"`
	TimeFilter  string  `json:"time_filter"`
	StartDate   *string `json:"start_date"`
	EndDate     *string `json:"end_date"`
	Language    string  `json:"language"`
}

// NewRequest builds the wire request from a job description snapshot.
// The site tag is always sent; the backend is free to ignore it.
func NewRequest(d job.Description) Request {
	req := Request{
		Input:       d.Board,
		Site:        string(d.Site),
		Sort:        d.SortKey,
		Start:       d.RankRange.Start,
		End:         d.RankRange.End,
		MinViews:    d.Thresholds.MinViews,
		MinLikes:    d.Thresholds.MinLikes,
		MinComments: d.Thresholds.MinComments,
		TimeFilter:  string(d.TimeWindow),
		Language:    string(d.UILanguage),
	}
	if d.TimeWindow == job.WindowCustom && d.CustomRange != nil {
		req.StartDate = wireDate(d.CustomRange.Start)
		req.EndDate = wireDate(d.CustomRange.End)
	}
	return req
}

func wireDate(t time.Time) *string {
	if t.IsZero() {
		return nil
	}
	s := t.Format("2006-01-02")
	return &s
}

package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/crawldesk/internal/i18n"
	"github.com/jonesrussell/crawldesk/internal/job"
)

func TestDecodeFrame(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Frame
	}{
		{
			name: "progress with status key",
			in:   `{"progress": 60, "status_key": "crawlingStatus.collecting", "status_data": {"count": 12}}`,
			want: Frame{
				Kind:       KindProgress,
				Percent:    60,
				StatusKey:  "crawlingStatus.collecting",
				StatusVars: map[string]any{"count": float64(12)},
			},
		},
		{
			name: "progress clamps out-of-range percent",
			in:   `{"progress": 140}`,
			want: Frame{Kind: KindProgress, Percent: 100},
		},
		{
			name: "done with posts",
			in:   `{"done": true, "data": [{"title": "A"}]}`,
			want: Frame{Kind: KindDone, Posts: []map[string]any{{"title": "A"}}},
		},
		{
			name: "error as string",
			in:   `{"error": "quota_exceeded"}`,
			want: Frame{Kind: KindError, ErrorCode: "quota_exceeded"},
		},
		{
			name: "error with explicit code and detail",
			in:   `{"error": true, "error_code": "rate_limited", "error_detail": "60s"}`,
			want: Frame{Kind: KindError, ErrorCode: "rate_limited", ErrorDetail: "60s"},
		},
		{
			name: "cancelled wins over done",
			in:   `{"cancelled": true, "done": true}`,
			want: Frame{Kind: KindCancelled},
		},
		{
			name: "error wins over done",
			in:   `{"error": "x", "done": true, "progress": 50}`,
			want: Frame{Kind: KindError, ErrorCode: "x"},
		},
		{
			name: "malformed json",
			in:   `{not json`,
			want: Frame{Kind: KindProtocolError},
		},
		{
			name: "no discriminator",
			in:   `{"hello": "world"}`,
			want: Frame{Kind: KindProtocolError},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DecodeFrame([]byte(tt.in))
			assert.Equal(t, tt.want.Kind, got.Kind)
			assert.Equal(t, tt.want.Percent, got.Percent)
			assert.Equal(t, tt.want.StatusKey, got.StatusKey)
			assert.Equal(t, tt.want.StatusVars, got.StatusVars)
			assert.Equal(t, tt.want.Posts, got.Posts)
			assert.Equal(t, tt.want.ErrorCode, got.ErrorCode)
			if tt.want.Kind == KindProtocolError {
				assert.NotEmpty(t, got.ErrorDetail)
			}
		})
	}
}

func TestNewRequest(t *testing.T) {
	d := job.Default()
	d.Site = job.SiteReddit
	d.Board = "askreddit"
	d.SortKey = "top"
	d.Thresholds.MinViews = 100
	d.UILanguage = i18n.English

	req := NewRequest(d)
	assert.Equal(t, "askreddit", req.Input)
	assert.Equal(t, "reddit", req.Site)
	assert.Equal(t, "top", req.Sort)
	assert.Equal(t, 1, req.Start)
	assert.Equal(t, 20, req.End)
	assert.Equal(t, 100, req.MinViews)
	assert.Equal(t, "day", req.TimeFilter)
	assert.Nil(t, req.StartDate)
	assert.Nil(t, req.EndDate)
	assert.Equal(t, "en", req.Language)
}

func TestNewRequestCustomDates(t *testing.T) {
	d := job.Default()
	d.Site = job.SiteDCInside
	d.Board = "programming"
	d.SortKey = "recent"
	d.TimeWindow = job.WindowCustom
	d.CustomRange = &job.DateRange{
		Start: mustDate(t, "2025-05-01"),
		End:   mustDate(t, "2025-05-31"),
	}

	req := NewRequest(d)
	require.NotNil(t, req.StartDate)
	require.NotNil(t, req.EndDate)
	assert.Equal(t, "2025-05-01", *req.StartDate)
	assert.Equal(t, "2025-05-31", *req.EndDate)
	assert.Equal(t, "custom", req.TimeFilter)
}

package httpd

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/crawldesk/internal/i18n"
	"github.com/jonesrussell/crawldesk/internal/job"
	"github.com/jonesrussell/crawldesk/internal/results"
	"github.com/jonesrussell/crawldesk/internal/session"
	"github.com/jonesrussell/crawldesk/internal/suggest"
)

const dateLayout = "2006-01-02"

// jobView is the wire shape of the job description.
type jobView struct {
	Site        string `json:"site"`
	Board       string `json:"board"`
	Sort        string `json:"sort"`
	TimeFilter  string `json:"time_filter"`
	StartDate   string `json:"start_date,omitempty"`
	EndDate     string `json:"end_date,omitempty"`
	StartRank   int    `json:"start_rank"`
	EndRank     int    `json:"end_rank"`
	MinViews    int    `json:"min_views"`
	MinLikes    int    `json:"min_likes"`
	MinComments int    `json:"min_comments"`
	Language    string `json:"language"`
	Advanced    bool   `json:"advanced"`
}

func viewOf(d job.Description) jobView {
	v := jobView{
		Site:        string(d.Site),
		Board:       d.Board,
		Sort:        d.SortKey,
		TimeFilter:  string(d.TimeWindow),
		StartRank:   d.RankRange.Start,
		EndRank:     d.RankRange.End,
		MinViews:    d.Thresholds.MinViews,
		MinLikes:    d.Thresholds.MinLikes,
		MinComments: d.Thresholds.MinComments,
		Language:    string(d.UILanguage),
		Advanced:    d.Advanced,
	}
	if d.CustomRange != nil {
		v.StartDate = d.CustomRange.Start.Format(dateLayout)
		v.EndDate = d.CustomRange.End.Format(dateLayout)
	}
	return v
}

// jobPatch is the wire shape of a partial job update. Absent fields
// leave the description unchanged.
type jobPatch struct {
	Site        *string `json:"site"`
	Board       *string `json:"board"`
	Sort        *string `json:"sort"`
	TimeFilter  *string `json:"time_filter"`
	StartDate   *string `json:"start_date"`
	EndDate     *string `json:"end_date"`
	ClearDates  bool    `json:"clear_dates"`
	StartRank   *int    `json:"start_rank"`
	EndRank     *int    `json:"end_rank"`
	MinViews    *int    `json:"min_views"`
	MinLikes    *int    `json:"min_likes"`
	MinComments *int    `json:"min_comments"`
	Language    *string `json:"language"`
	Advanced    *bool   `json:"advanced"`
}

func (s *Server) handleGetJob(c *gin.Context) {
	c.JSON(http.StatusOK, viewOf(s.jobs.Get()))
}

func (s *Server) handlePatchJob(c *gin.Context) {
	var in jobPatch
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p := job.Patch{
		Board:            in.Board,
		SortKey:          in.Sort,
		ClearCustomRange: in.ClearDates,
		RankStart:        in.StartRank,
		RankEnd:          in.EndRank,
		MinViews:         in.MinViews,
		MinLikes:         in.MinLikes,
		MinComments:      in.MinComments,
		UILanguage:       in.Language,
		Advanced:         in.Advanced,
	}

	if in.Site != nil {
		site := job.ParseSite(*in.Site)
		if site == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown site %q", *in.Site)})
			return
		}
		p.Site = &site
	}
	if in.TimeFilter != nil {
		w := job.TimeWindow(*in.TimeFilter)
		p.TimeWindow = &w
	}
	if in.StartDate != nil && in.EndDate != nil {
		start, err := time.Parse(dateLayout, *in.StartDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "start_date must be YYYY-MM-DD"})
			return
		}
		end, err := time.Parse(dateLayout, *in.EndDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "end_date must be YYYY-MM-DD"})
			return
		}
		p.CustomRange = &job.DateRange{Start: start, End: end}
	}

	s.jobs.Set(p)
	if in.Language != nil {
		s.tr.SetLanguage(i18n.ParseLang(*in.Language))
	}
	c.JSON(http.StatusOK, viewOf(s.jobs.Get()))
}

func (s *Server) handleStartCrawl(c *gin.Context) {
	// The request context dies when this handler returns; the session
	// streams on the server-lifetime context instead.
	err := s.sessions.Start(s.crawlCtx)
	if err == nil {
		s.metrics.SessionsStarted.Inc()
		c.JSON(http.StatusAccepted, gin.H{"state": s.sessions.State().String()})
		return
	}

	if errors.Is(err, session.ErrSessionActive) {
		c.JSON(http.StatusConflict, gin.H{
			"error": s.tr.T("crawlButtonMessages.sessionActive", nil),
		})
		return
	}

	var failure *session.Failure
	if errors.As(err, &failure) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"key":   failure.Code,
			"error": failure.Localize(s.tr),
		})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

func (s *Server) handleCancel(c *gin.Context) {
	s.sessions.Cancel()
	c.JSON(http.StatusAccepted, gin.H{"state": s.sessions.State().String()})
}

func (s *Server) handleSession(c *gin.Context) {
	snap := s.sessions.Snapshot()
	out := gin.H{
		"state":    snap.State.String(),
		"count":    snap.Count,
		"progress": progressView(snap.Progress, s.tr),
	}
	if snap.Failure != nil {
		out["failure"] = gin.H{
			"kind":    string(snap.Failure.Kind),
			"message": snap.Failure.Localize(s.tr),
		}
	}
	c.JSON(http.StatusOK, out)
}

// resultView flattens a post for the wire.
type resultView struct {
	Rank            int    `json:"rank"`
	Title           string `json:"title"`
	TranslatedTitle string `json:"translated_title,omitempty"`
	URL             string `json:"url"`
	Body            string `json:"body,omitempty"`
	Views           int    `json:"views"`
	Likes           int    `json:"likes"`
	Comments        int    `json:"comments"`
	PublishedAt     string `json:"published_at,omitempty"`
}

func (s *Server) handleResults(c *gin.Context) {
	rs, ok := s.results.Get()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no results yet"})
		return
	}

	posts := make([]resultView, 0, len(rs.Posts))
	for _, p := range rs.Posts {
		posts = append(posts, resultView{
			Rank:            p.Rank,
			Title:           p.Title,
			TranslatedTitle: p.TranslatedTitle,
			URL:             p.URL,
			Body:            p.Body,
			Views:           p.Views,
			Likes:           p.Likes,
			Comments:        p.Comments,
			PublishedAt:     p.PublishedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"summary": summaryView(rs.Summary),
		"posts":   posts,
	})
}

func summaryView(sum results.Summary) gin.H {
	return gin.H{
		"count":           sum.Count,
		"site":            sum.SiteLabel,
		"start_rank":      sum.RankRange.Start,
		"end_rank":        sum.RankRange.End,
		"elapsed_seconds": sum.ElapsedSeconds,
		"mode":            sum.Mode,
	}
}

func (s *Server) handleSuggest(c *gin.Context) {
	site := job.ParseSite(c.Param("site"))
	if site == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown site"})
		return
	}
	s.metrics.SuggestLookups.Inc()
	out := s.suggest.Lookup(c.Request.Context(), site, c.Query("keyword"))
	if out == nil {
		out = []suggest.Suggestion{}
	}
	c.JSON(http.StatusOK, gin.H{"suggestions": out})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"state":  s.sessions.State().String(),
	})
}

// heartbeatInterval keeps idle event streams alive through proxies.
const heartbeatInterval = 15 * time.Second

func (s *Server) handleEvents(c *gin.Context) {
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Flush()

	events, cleanup := s.broker.Subscribe(c.Request.Context())
	defer cleanup()
	s.metrics.EventSubscribers.Inc()
	defer s.metrics.EventSubscribers.Dec()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(ev.Data)
			if err != nil {
				continue
			}
			fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", ev.Type, data)
			c.Writer.Flush()
		case <-heartbeat.C:
			fmt.Fprint(c.Writer, ": heartbeat\n\n")
			c.Writer.Flush()
		case <-c.Request.Context().Done():
			return
		}
	}
}

func progressView(p session.Progress, tr *i18n.Translator) gin.H {
	return gin.H{
		"percent":         p.Percent,
		"status":          p.StatusText(tr),
		"eta_seconds":     p.ETASeconds,
		"elapsed_seconds": int(p.Elapsed.Seconds()),
	}
}

func outcomeView(out session.Outcome, tr *i18n.Translator) gin.H {
	v := gin.H{
		"state": out.State.String(),
		"count": out.Count,
	}
	if out.Failure != nil {
		v["message"] = out.Failure.Localize(tr)
	}
	return v
}

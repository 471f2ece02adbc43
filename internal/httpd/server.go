// Package httpd serves the local console API: job editing, session
// control, an event stream for live progress, and Prometheus metrics.
package httpd

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/jonesrussell/crawldesk/internal/i18n"
	"github.com/jonesrussell/crawldesk/internal/job"
	"github.com/jonesrussell/crawldesk/internal/logger"
	"github.com/jonesrussell/crawldesk/internal/results"
	"github.com/jonesrussell/crawldesk/internal/session"
	"github.com/jonesrussell/crawldesk/internal/suggest"
)

const (
	defaultReadTimeout = 10 * time.Second
	defaultIdleTimeout = 60 * time.Second
	shutdownTimeout    = 5 * time.Second
)

// Deps are the collaborators the server exposes over HTTP.
type Deps struct {
	Jobs     *job.Store
	Sessions *session.Controller
	Results  *results.Store
	Suggest  suggest.Lookuper
	Tr       *i18n.Translator
	Log      logger.Logger
	Registry *prometheus.Registry
}

// Server is the local console HTTP server.
type Server struct {
	addr    string
	engine  *gin.Engine
	srv     *http.Server
	broker  *Broker
	metrics *Metrics

	// crawlCtx outlives individual requests: a session started over
	// HTTP must keep streaming after its start request returns.
	crawlCtx  context.Context
	crawlStop context.CancelFunc

	jobs     *job.Store
	sessions *session.Controller
	results  *results.Store
	suggest  suggest.Lookuper
	tr       *i18n.Translator
	log      logger.Logger
}

// New builds the server and subscribes it to session events.
func New(addr string, d Deps) *Server {
	gin.SetMode(gin.ReleaseMode)

	reg := d.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	crawlCtx, crawlStop := context.WithCancel(context.Background())

	s := &Server{
		addr:      addr,
		crawlCtx:  crawlCtx,
		crawlStop: crawlStop,
		broker:    NewBroker(d.Log),
		metrics:   NewMetrics(reg),
		jobs:      d.Jobs,
		sessions:  d.Sessions,
		results:   d.Results,
		suggest:   d.Suggest,
		tr:        d.Tr,
		log:       d.Log,
	}

	d.Sessions.OnProgress(func(p session.Progress) {
		s.broker.Publish(Event{Type: "progress", Data: progressView(p, s.tr)})
	})
	d.Sessions.OnTerminal(func(out session.Outcome) {
		s.metrics.SessionsFinished.WithLabelValues(out.State.String()).Inc()
		if out.State == session.StateCompleted {
			s.metrics.PostsCollected.Add(float64(out.Count))
		}
		s.broker.Publish(Event{Type: "state", Data: outcomeView(out, s.tr)})
	})

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(s.requestLogger())

	engine.GET("/healthz", s.handleHealth)
	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	api := engine.Group("/api")
	api.GET("/job", s.handleGetJob)
	api.PATCH("/job", s.handlePatchJob)
	api.POST("/crawl", s.handleStartCrawl)
	api.POST("/cancel", s.handleCancel)
	api.GET("/session", s.handleSession)
	api.GET("/results", s.handleResults)
	api.GET("/suggest/:site", s.handleSuggest)
	api.GET("/events", s.handleEvents)

	s.engine = engine
	s.srv = &http.Server{
		Addr:        addr,
		Handler:     engine,
		ReadTimeout: defaultReadTimeout,
		IdleTimeout: defaultIdleTimeout,
	}
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves until ctx is cancelled, then drains connections and
// cancels any active session.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("console server listening", zap.String("addr", s.addr))
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.crawlStop()
	s.sessions.Shutdown(shutdownCtx)
	s.broker.Close()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.log.Info("console server stopped")
	return nil
}

// requestLogger logs each request the way the rest of the app logs.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)))
	}
}

// Package devserver is an in-memory stand-in for the SentriX backend,
// serving the same REST API for local development and tests.
package devserver

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/user/sentrix/internal/types"
)

// Options configures a Server.
type Options struct {
	// Latency is added before every response.
	Latency time.Duration
	// Now overrides the clock; defaults to time.Now.
	Now func() time.Time
}

type fault struct {
	status    int
	remaining int
}

// Server holds the backend state and its gin router.
type Server struct {
	mu        sync.Mutex
	sessions  map[types.SessionID]*types.Session
	order     []types.SessionID // creation order, oldest first
	reports   []types.Report
	shipments []shipment // nil means the built-in sample data
	faults    map[string]*fault

	latency time.Duration
	now     func() time.Time
	router  *gin.Engine
}

// New creates a Server seeded with the sample shipment dataset.
func New(opts Options) *Server {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := &Server{
		sessions: make(map[types.SessionID]*types.Session),
		faults:   make(map[string]*fault),
		latency:  opts.Latency,
		now:      opts.Now,
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLog(), s.injectFaults())
	registerRoutes(router, s)
	s.router = router
	return s
}

// Handler returns the HTTP handler serving the API.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Fail makes the next times requests matching method and route (a gin route
// pattern such as "/api/sessions/:session_id") fail with status.
func (s *Server) Fail(method, route string, status, times int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[method+" "+route] = &fault{status: status, remaining: times}
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string, out io.Writer) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: s.router,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	if out != nil {
		fmt.Fprintf(out, "SentriX dev backend running at http://%s\n", addr)
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("devserver: %w", err)
	}
	return nil
}

func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Debug("devserver request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}

func (s *Server) injectFaults() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.latency > 0 {
			select {
			case <-time.After(s.latency):
			case <-c.Request.Context().Done():
				c.Abort()
				return
			}
		}

		key := c.Request.Method + " " + c.FullPath()
		s.mu.Lock()
		f, ok := s.faults[key]
		if ok {
			f.remaining--
			if f.remaining <= 0 {
				delete(s.faults, key)
			}
		}
		s.mu.Unlock()

		if ok {
			c.AbortWithStatusJSON(f.status, gin.H{"detail": "injected failure"})
			return
		}
		c.Next()
	}
}

package feed

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/whoomp/whoomp/internal/capture"
	"github.com/whoomp/whoomp/internal/logging"
	"github.com/whoomp/whoomp/internal/protocol"
)

// shutdownTimeout bounds how long Serve waits for in-flight requests.
const shutdownTimeout = 10 * time.Second

// Options configure a feed server.
type Options struct {
	Listen     string // e.g. ":8080"
	MaxFrames  int    // frames kept for the aggregate endpoints, 0 for no limit
	CaptureDir string // record every ingested frame here, disabled when empty
}

// Server accepts frames over HTTP, decodes them and streams the results to
// websocket subscribers.
type Server struct {
	opts       Options
	engine     *gin.Engine
	httpServer *http.Server
	listener   net.Listener

	hub        *Hub
	store      *Store
	metrics    *Metrics
	recorder   *capture.Recorder
	dispatcher *protocol.Dispatcher

	mu        sync.Mutex
	listeners []func(Event)
}

// New creates a server. It does not start listening.
func New(opts Options) (*Server, error) {
	metrics := NewMetrics()
	s := &Server{
		opts:    opts,
		hub:     NewHub(metrics),
		store:   NewStore(opts.MaxFrames),
		metrics: metrics,
	}
	s.dispatcher = &protocol.Dispatcher{
		OnHeartRate: func(_ string, _ *protocol.Frame, r *protocol.HeartRateRecord) {
			s.metrics.LastHeartRate.Set(float64(r.HeartRate))
		},
	}

	if opts.CaptureDir != "" {
		rec, err := capture.NewRecorder(opts.CaptureDir)
		if err != nil {
			return nil, fmt.Errorf("failed to start capture recorder: %w", err)
		}
		s.recorder = rec
	}

	gin.SetMode(gin.ReleaseMode)
	s.engine = gin.New()
	s.engine.Use(gin.Recovery())
	s.routes()

	s.httpServer = &http.Server{
		Addr:              opts.Listen,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Handler returns the HTTP handler serving the feed API.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Hub returns the websocket hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Store returns the frame store.
func (s *Server) Store() *Store {
	return s.store
}

// Metrics returns the server's collectors.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// OnEvent registers fn to be called with every ingested event. fn runs on
// the ingesting goroutine and must not block.
func (s *Server) OnEvent(fn func(Event)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Ingest decodes raw, updates the store and metrics, and broadcasts the
// resulting event. It is safe for concurrent use.
func (s *Server) Ingest(source string, raw []byte) Event {
	logging.LogFrame(source, string(directionOf(source)), raw)
	if s.recorder != nil {
		if _, err := s.recorder.Record(directionOf(source), source, raw); err != nil {
			logging.Error("Failed to record frame", zap.String("source", source), zap.Error(err))
		}
	}

	var ev Event
	f, err := s.dispatcher.Dispatch(source, raw)
	if err != nil {
		ev = NewRejectedEvent(source, raw, err)
		s.metrics.FramesTotal.WithLabelValues(ev.ErrorKind).Inc()
	} else {
		s.store.Add(raw)
		ev = NewFrameEvent(source, f)
		s.metrics.FramesTotal.WithLabelValues("ok").Inc()
		if ev.Kind != EventFrame {
			s.metrics.RecordsTotal.WithLabelValues(ev.Kind).Inc()
		}
	}

	s.hub.Broadcast(ev)

	s.mu.Lock()
	listeners := s.listeners
	s.mu.Unlock()
	for _, fn := range listeners {
		fn(ev)
	}
	return ev
}

// directionOf maps a source tag such as "replay:to_strap" to a direction.
// Anything not explicitly to the strap is treated as coming from it.
func directionOf(source string) capture.Direction {
	if strings.HasSuffix(source, string(capture.ToStrap)) {
		return capture.ToStrap
	}
	return capture.FromStrap
}

// Listen binds the listen address. The returned address carries the
// actual port when ":0" was requested.
func (s *Server) Listen() (net.Addr, error) {
	ln, err := net.Listen("tcp", s.opts.Listen)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", s.opts.Listen, err)
	}
	s.listener = ln
	return ln.Addr(), nil
}

// Serve serves HTTP on the bound listener until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	if s.listener == nil {
		if _, err := s.Listen(); err != nil {
			return err
		}
	}

	logging.Info("Feed server listening", zap.String("addr", s.listener.Addr().String()))

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.httpServer.Serve(s.listener)
	}()

	select {
	case <-ctx.Done():
		logging.Info("Shutdown requested, stopping feed server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("feed server failed: %w", err)
	}
}

// Shutdown stops the HTTP server, disconnects subscribers and closes the
// capture recorder.
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Close()

	var errs []error
	if err := s.httpServer.Shutdown(ctx); err != nil {
		logging.Warn("Feed server shutdown incomplete", zap.Error(err))
		errs = append(errs, err)
	}
	if s.recorder != nil {
		if err := s.recorder.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	logging.Info("Feed server stopped", zap.Int("frames", s.store.Total()))
	logging.Sync()
	return errors.Join(errs...)
}

package stream

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/arrive/internal/config"
	"github.com/vango-dev/arrive/internal/errors"
	"github.com/vango-dev/arrive/internal/scenario"
	"github.com/vango-dev/arrive/pkg/arrive"
)

// maxScenarioBytes bounds POST /replay bodies.
const maxScenarioBytes = 1 << 20

// Server replays scenarios on request.
type Server struct {
	cfg      *config.Config
	logger   *slog.Logger
	loader   *scenario.Loader
	registry *prometheus.Registry
	hub      *Hub
	upgrader websocket.Upgrader

	// replayOpts configure the Replayer built for each request.
	replayOpts []scenario.ReplayOption
	httpServer *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithLoader replaces the scenario loader, e.g. to inject an S3 client.
func WithLoader(l *scenario.Loader) Option {
	return func(s *Server) {
		if l != nil {
			s.loader = l
		}
	}
}

// New creates a Server from cfg.
func New(cfg *config.Config, opts ...Option) (*Server, error) {
	if cfg == nil {
		cfg = config.New()
	}
	defaults, err := cfg.EngineDefaults()
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:      cfg,
		logger:   slog.Default(),
		loader:   &scenario.Loader{},
		registry: prometheus.NewRegistry(),
		hub:      NewHub(),
		upgrader: newUpgrader(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	replayOpts := []scenario.ReplayOption{
		scenario.WithLogger(s.logger),
		scenario.WithDefaults(defaults),
	}
	if cfg.Metrics.Enabled {
		replayOpts = append(replayOpts, scenario.WithMetrics(s.registry, arrive.WithNamespace(cfg.Metrics.Namespace)))
	}
	s.replayOpts = replayOpts

	return s, nil
}

// Hub returns the broadcast hub behind /events.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Handler returns the HTTP handler with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	if s.cfg.Metrics.Enabled {
		r.Handle(s.cfg.Metrics.Path, promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}
	r.Post("/replay", s.handleReplay)
	r.Get("/watch", s.handleWatch)
	r.Get("/events", s.hub.HandleWebSocket)

	return r
}

// ListenAndServe serves on the configured address until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              s.cfg.ServerAddress(),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("server listening", "addr", s.httpServer.Addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		s.Stop()
		return nil
	case err := <-errCh:
		s.Stop()
		return err
	}
}

// Stop closes subscribers and shuts the HTTP server down.
func (s *Server) Stop() {
	s.hub.Close()
	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.httpServer.Shutdown(ctx)
	}
}

// replayResponse is the body of a successful POST /replay.
type replayResponse struct {
	Scenario string           `json:"scenario"`
	Events   []scenario.Event `json:"events"`
}

func (s *Server) handleReplay(w http.ResponseWriter, r *http.Request) {
	var (
		sc  *scenario.Scenario
		err error
	)
	if source := r.URL.Query().Get("source"); source != "" {
		if !strings.HasPrefix(source, "s3://") {
			writeError(w, http.StatusBadRequest, errors.New("A204").
				WithDetail(source).
				WithSuggestion("Only s3:// sources can be replayed by reference"))
			return
		}
		sc, err = s.loader.Load(r.Context(), source)
	} else {
		sc, err = scenario.Decode(io.LimitReader(r.Body, maxScenarioBytes))
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	events, err := s.replay(r.Context(), sc, nil)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(replayResponse{Scenario: sc.Name, Events: events})
}

func (s *Server) handleWatch(w http.ResponseWriter, r *http.Request) {
	uri, err := s.resolveScenario(r.URL.Query().Get("scenario"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	c := &client{conn: conn}
	defer conn.Close()

	send := func(msg Message) {
		data, err := json.Marshal(msg)
		if err != nil {
			return
		}
		if err := c.write(data); err != nil {
			s.logger.Debug("watch client gone", "error", err)
		}
	}

	sc, err := s.loader.Load(r.Context(), uri)
	if err != nil {
		send(Message{Type: MessageError, Scenario: uri, Error: err.Error()})
		return
	}
	events, err := s.replay(r.Context(), sc, func(ev scenario.Event) {
		send(Message{Type: MessageEvent, Scenario: sc.Name, Event: &ev})
	})
	if err != nil {
		send(Message{Type: MessageError, Scenario: sc.Name, Error: err.Error()})
		return
	}
	send(Message{Type: MessageDone, Scenario: sc.Name, Events: len(events)})

	c.mu.Lock()
	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.mu.Unlock()
}

// replay runs sc, forwarding each event to fn and to the hub as it fires.
func (s *Server) replay(ctx context.Context, sc *scenario.Scenario, fn func(scenario.Event)) ([]scenario.Event, error) {
	sink := func(ev scenario.Event) {
		if fn != nil {
			fn(ev)
		}
		s.hub.Broadcast(Message{Type: MessageEvent, Scenario: sc.Name, Event: &ev})
	}
	opts := append(slices.Clip(s.replayOpts), scenario.WithSink(sink))

	events, err := scenario.NewReplayer(opts...).Replay(ctx, sc)
	if err != nil {
		s.hub.Broadcast(Message{Type: MessageError, Scenario: sc.Name, Error: err.Error()})
		return nil, err
	}
	s.hub.Broadcast(Message{Type: MessageDone, Scenario: sc.Name, Events: len(events)})
	s.logger.Info("replayed", "scenario", sc.Name, "events", len(events))
	return events, nil
}

// resolveScenario maps a /watch scenario parameter to a loader URI. Local
// names must stay inside the configured scenario directory.
func (s *Server) resolveScenario(name string) (string, error) {
	if name == "" {
		return "", errors.New("A300").WithDetail("scenario")
	}
	if strings.HasPrefix(name, "s3://") {
		return name, nil
	}
	if !filepath.IsLocal(name) {
		return "", errors.New("A204").
			WithDetail(name).
			WithSuggestion("Name a file inside " + s.cfg.Server.Scenarios)
	}
	return filepath.Join(s.cfg.Server.Scenarios, name), nil
}

func writeError(w http.ResponseWriter, status int, err error) {
	ae := errors.FromError(err, "A200")
	if stderrors.Is(err, context.Canceled) {
		status = http.StatusRequestTimeout
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	io.WriteString(w, ae.FormatJSON())
}

// logRequests logs each request at debug level with chi's wrapped writer.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// Package live serves a dashboard over HTTP and pushes every change to
// WebSocket clients.
//
// Routes:
//
//	GET  /api/dashboard         current snapshot
//	PUT  /api/variables/{name}  set a variable: {"value": "..."}
//	POST /api/data              publish a panel data payload
//	GET  /api/scan              variables referenced per object, or by ?text=
//	GET  /ws                    snapshot stream
//	GET  /metrics               Prometheus metrics
package live

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/scenes/internal/errors"
	"github.com/vango-dev/scenes/pkg/dashboard"
	"github.com/vango-dev/scenes/pkg/data"
	"github.com/vango-dev/scenes/pkg/variables"
)

const maxBodyBytes = 8 << 20

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithAllowedOrigins sets the origins accepted on /ws.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) {
		s.origins = origins
	}
}

// WithGatherer sets the registry served on /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// Server exposes one dashboard.
type Server struct {
	dash        *dashboard.Dashboard
	hub         *Hub
	router      chi.Router
	origins     []string
	gatherer    prometheus.Gatherer
	logger      *slog.Logger
	unsubscribe func()
}

// New creates a server for d and subscribes its hub to dashboard changes.
func New(d *dashboard.Dashboard, opts ...Option) *Server {
	s := &Server{
		dash:     d,
		gatherer: prometheus.DefaultGatherer,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.hub = NewHub(d.Snapshot, s.origins, s.logger)
	s.unsubscribe = d.OnChange(s.hub.Publish)
	s.logger = s.logger.With("component", "live")
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Route("/api", func(r chi.Router) {
		r.Get("/dashboard", s.handleDashboard)
		r.Put("/variables/{name}", s.handleSetVariable)
		r.Post("/data", s.handleData)
		r.Get("/scan", s.handleScan)
	})
	r.Get("/ws", s.hub.HandleWebSocket)
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	return r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Hub returns the WebSocket hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.hub.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

// Close detaches the server from the dashboard and drops all clients.
func (s *Server) Close() {
	s.unsubscribe()
	s.hub.Close()
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.dash.Snapshot())
}

type variableRequest struct {
	Value string `json:"value"`
}

type variableResponse struct {
	Name     string `json:"name"`
	Value    string `json:"value"`
	Notified int    `json:"notified"`
}

func (s *Server) handleSetVariable(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var req variableRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, errors.New("S003").WithDetail(err.Error()))
		return
	}

	n, err := s.dash.SetVariable(name, req.Value)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, variableResponse{Name: name, Value: req.Value, Notified: n})
}

func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, errors.New("S003").Wrap(err))
		return
	}
	payload, err := data.Decode(raw)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, errors.New("S003").Wrap(err))
		return
	}

	if err := s.dash.SetData(payload); err != nil {
		s.hub.NotifyError(err.Error())
		s.writeError(w, http.StatusConflict, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type scanResponse struct {
	Variables []string `json:"variables"`
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	if text, ok := r.URL.Query()["text"]; ok {
		names := variables.NewNameSet()
		for _, t := range text {
			for name := range variables.ExtractNames(t) {
				names[name] = struct{}{}
			}
		}
		writeJSON(w, http.StatusOK, scanResponse{Variables: names.Sorted()})
		return
	}
	writeJSON(w, http.StatusOK, s.dash.Dependencies())
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	var se *errors.SceneError
	if !stderrors.As(err, &se) {
		se = errors.FromError(err, "S003")
	}
	s.logger.Warn("request failed", "code", se.Code, "error", err)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	io.WriteString(w, se.FormatJSON())
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

package web

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"hearth/internal/auth"
	"hearth/internal/config"
	"hearth/internal/events"
	"hearth/internal/ics"
	appLog "hearth/internal/log"
	"hearth/internal/metrics"
	"hearth/internal/model"
	"hearth/internal/probe"
)

// embedded holds the landing page template plus placeholder images and CSS.
//
//go:embed static templates
var embedded embed.FS

const (
	realm = "Hearth"

	// timestampLayout matches what browsers produce for Date.toISOString.
	timestampLayout = "2006-01-02T15:04:05.000Z07:00"

	requestIDHeader = "X-Request-ID"
)

// debugEnvPrefixes selects which environment variable names /api/debug lists.
var debugEnvPrefixes = []string{"LUMA_", "HEARTH_"}

// Server serves the landing page, the events API and diagnostics.
type Server struct {
	cfg    *config.Config
	events *events.Service
	probe  *probe.Probe

	now     func() time.Time
	environ func() []string

	page   *template.Template
	router chi.Router
}

// Option customizes a Server.
type Option func(*Server)

// WithClock overrides the time source used for response timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// WithEnviron overrides the environment listing shown by /api/debug.
func WithEnviron(environ func() []string) Option {
	return func(s *Server) { s.environ = environ }
}

// NewServer constructs a Server. p may be nil when the connection probe is
// disabled.
func NewServer(cfg *config.Config, svc *events.Service, p *probe.Probe, opts ...Option) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("web: config is nil")
	}
	if svc == nil {
		return nil, errors.New("web: events service is nil")
	}

	page, err := template.ParseFS(embedded, "templates/index.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("web: parse template: %w", err)
	}

	s := &Server{
		cfg:     cfg,
		events:  svc,
		probe:   p,
		now:     time.Now,
		environ: os.Environ,
		page:    page,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s, nil
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on cfg.Listen until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen, "basic_auth", s.cfg.BasicAuth != nil)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		appLog.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("web: shutdown: %w", err)
		}
		return nil
	}
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(accessLog)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/", s.handleIndex)
	r.Get("/api/events", s.handleEvents)
	r.Get("/api/events.ics", s.handleEventsICS)

	r.Group(func(r chi.Router) {
		if ba := s.cfg.BasicAuth; ba != nil {
			r.Use(auth.Basic(realm, ba.Username, ba.PasswordHash))
		}
		r.Get("/api/debug", s.handleDebug)
		r.Handle("/metrics", promhttp.Handler())
		r.Get("/preview.png", s.handlePreview)
	})

	r.Handle("/*", s.staticFileServer())
	return r
}

type ctxKey struct{}

// requestID tags each request with a UUID, echoing a client-supplied one.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
	})
}

// RequestID returns the request ID stored by the middleware, if any.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
		appLog.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).String(),
			"request_id", RequestID(r.Context()),
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleIndex renders the landing page. The events section never fails:
// Load swaps in the fallback set on any error.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	res := s.events.Load(r.Context())
	data := s.newPageData(res)

	var buf bytes.Buffer
	if err := s.page.Execute(&buf, data); err != nil {
		appLog.Error("render landing page failed", err, "request_id", RequestID(r.Context()))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// eventsResponse is the JSON body of a successful /api/events call. Events
// keep the provider's shape; normalization happens when rendering.
type eventsResponse struct {
	Success   bool                `json:"success"`
	Events    []model.RemoteEvent `json:"events"`
	Count     int                 `json:"count"`
	Timestamp string              `json:"timestamp"`
}

type eventsFailure struct {
	Success bool                `json:"success"`
	Error   string              `json:"error"`
	Message string              `json:"message"`
	Events  []model.RemoteEvent `json:"events"`
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	remote, err := s.events.Remote(r.Context())
	if err != nil {
		appLog.Error("api events: fetch failed", err, "request_id", RequestID(r.Context()))
		writeJSON(w, http.StatusInternalServerError, eventsFailure{
			Success: false,
			Error:   "Failed to fetch events",
			Message: err.Error(),
			Events:  []model.RemoteEvent{},
		})
		return
	}
	if remote == nil {
		remote = []model.RemoteEvent{}
	}

	writeJSON(w, http.StatusOK, eventsResponse{
		Success:   true,
		Events:    remote,
		Count:     len(remote),
		Timestamp: s.now().UTC().Format(timestampLayout),
	})
}

func (s *Server) handleEventsICS(w http.ResponseWriter, r *http.Request) {
	remote, err := s.events.Remote(r.Context())
	if err != nil {
		appLog.Error("api events.ics: fetch failed", err, "request_id", RequestID(r.Context()))
		http.Error(w, "events unavailable", http.StatusServiceUnavailable)
		return
	}

	body := ics.Build(ics.Feed{Name: "Hearth events", Stamp: s.now()}, remote)
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `inline; filename="hearth.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

type debugEnvironment struct {
	HasLumaAPIKey  bool     `json:"hasLumaApiKey"`
	LumaCalendarID string   `json:"lumaCalendarId"`
	APIKeyLength   int      `json:"apiKeyLength"`
	AllEnvKeys     []string `json:"allEnvKeys"`
}

type debugResponse struct {
	Environment debugEnvironment `json:"environment"`
	Probe       *probe.Status    `json:"probe,omitempty"`
	Timestamp   string           `json:"timestamp"`
}

// handleDebug reports how the provider credentials resolved. The key itself
// is never included.
func (s *Server) handleDebug(w http.ResponseWriter, _ *http.Request) {
	creds := s.events.Credentials()
	resp := debugResponse{
		Environment: debugEnvironment{
			HasLumaAPIKey:  creds.APIKey != "",
			LumaCalendarID: creds.CalendarID,
			APIKeyLength:   len(creds.APIKey),
			AllEnvKeys:     filterEnvKeys(s.environ()),
		},
		Timestamp: s.now().UTC().Format(timestampLayout),
	}
	if s.probe != nil {
		st := s.probe.Last()
		resp.Probe = &st
	}
	writeJSON(w, http.StatusOK, resp)
}

func filterEnvKeys(environ []string) []string {
	keys := make([]string, 0)
	for _, kv := range environ {
		name, _, _ := strings.Cut(kv, "=")
		for _, prefix := range debugEnvPrefixes {
			if strings.HasPrefix(name, prefix) {
				keys = append(keys, name)
				break
			}
		}
	}
	sort.Strings(keys)
	return keys
}

// handlePreview serves the last captured landing page screenshot.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	http.ServeFile(w, r, s.cfg.PreviewPath)
}

// staticFileServer serves the embedded placeholder images and stylesheet.
func (s *Server) staticFileServer() http.Handler {
	sub, err := fs.Sub(embedded, "static")
	if err != nil {
		appLog.Error("failed to initialize embedded static filesystem", err)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "static assets not available", http.StatusServiceUnavailable)
		})
	}
	fileServer := http.FileServer(http.FS(sub))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Unknown API paths must not fall through to static content.
		if r.URL.Path == "/api" || strings.HasPrefix(r.URL.Path, "/api/") {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		fileServer.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}

package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/ynput/ayon-jira/internal/api"
	"github.com/ynput/ayon-jira/internal/reconciler"
	"github.com/ynput/ayon-jira/pkg/logging"
)

const (
	// DefaultReadHeaderTimeout is the default timeout for reading request headers.
	DefaultReadHeaderTimeout = 10 * time.Second
	// DefaultIdleTimeout is the default idle timeout for keepalive connections.
	DefaultIdleTimeout = 120 * time.Second

	// ActorHeader names the user a run is performed for.
	ActorHeader = "X-Ayon-User"

	defaultRunsLimit = 20
	maxBodyBytes     = 1 << 20
)

// HTTPConfig configures an HTTPServer.
type HTTPConfig struct {
	Host string
	Port int
	// Token, when set, must be sent as a bearer token on every /api and
	// /mcp request.
	Token string
	// Metrics is reported by /api/metrics. Defaults to the global instance.
	Metrics *reconciler.ReconcilerMetrics
	// MCP, when set, is mounted at /mcp over streamable HTTP.
	MCP *MCPServer
}

// HTTPServer serves the run_template endpoint and its companions.
type HTTPServer struct {
	cfg        HTTPConfig
	httpServer *http.Server
	listener   net.Listener
}

// NewHTTPServer creates a server. It does not listen until Start.
func NewHTTPServer(cfg HTTPConfig) *HTTPServer {
	if cfg.Metrics == nil {
		cfg.Metrics = reconciler.GetReconcilerMetrics()
	}
	s := &HTTPServer{cfg: cfg}
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: DefaultReadHeaderTimeout,
		IdleTimeout:       DefaultIdleTimeout,
	}
	return s
}

// Handler returns the routing handler of the server.
func (s *HTTPServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("POST /api/run_template", s.protect(http.HandlerFunc(s.handleRunTemplate)))
	mux.Handle("POST /api/validate_template", s.protect(http.HandlerFunc(s.handleValidateTemplate)))
	mux.Handle("GET /api/templates", s.protect(http.HandlerFunc(s.handleTemplates)))
	mux.Handle("GET /api/runs", s.protect(http.HandlerFunc(s.handleRuns)))
	mux.Handle("GET /api/metrics", s.protect(http.HandlerFunc(s.handleMetrics)))
	if s.cfg.MCP != nil {
		mux.Handle("/mcp", s.protect(server.NewStreamableHTTPServer(s.cfg.MCP.Server())))
	}
	return mux
}

// Addr returns the address the server listens on, once started.
func (s *HTTPServer) Addr() string {
	if s.listener == nil {
		return net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	}
	return s.listener.Addr().String()
}

// Start binds the listener. Serving happens in Serve so callers can report
// readiness in between.
func (s *HTTPServer) Start() error {
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.listener = listener
	logging.Info("Server", "Listening on http://%s", listener.Addr())
	return nil
}

// Serve serves requests until Shutdown. It returns nil after a graceful
// shutdown.
func (s *HTTPServer) Serve() error {
	if s.listener == nil {
		return errors.New("server not started")
	}
	if err := s.httpServer.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	logging.Info("Server", "Shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *HTTPServer) protect(next http.Handler) http.Handler {
	if s.cfg.Token == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(s.cfg.Token)) != 1 {
			writeError(w, http.StatusUnauthorized, errors.New("missing or invalid bearer token"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// runBody is the JSON body of run_template and validate_template.
type runBody struct {
	PlaceholderMap map[string]string `json:"placeholder_map"`
	FolderPaths    []string          `json:"folder_paths"`
}

func decodeRunRequest(w http.ResponseWriter, r *http.Request) (api.RunRequest, error) {
	q := r.URL.Query()
	req := api.RunRequest{
		Actor:             r.Header.Get(ActorHeader),
		TemplateName:      q.Get("template_name"),
		ProjectName:       q.Get("project_name"),
		RemoteProjectCode: q.Get("remote_project_code"),
	}
	if v := q.Get("dry_run"); v != "" {
		dryRun, err := strconv.ParseBool(v)
		if err != nil {
			return req, fmt.Errorf("invalid dry_run %q", v)
		}
		req.DryRun = dryRun
	}
	if req.TemplateName == "" {
		return req, errors.New("template_name query parameter is required")
	}
	if req.ProjectName == "" {
		return req, errors.New("project_name query parameter is required")
	}

	var body runBody
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		return req, fmt.Errorf("invalid request body: %w", err)
	}
	req.Placeholders = body.PlaceholderMap
	req.Locations = body.FolderPaths
	return req, nil
}

func (s *HTTPServer) handleRunTemplate(w http.ResponseWriter, r *http.Request) {
	handler := api.GetRunHandler()
	if handler == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("run handler not available"))
		return
	}

	req, err := decodeRunRequest(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	logging.Info("Server", "run_template %s on %s requested by %q (%d location(s))",
		req.TemplateName, req.ProjectName, req.Actor, len(req.Locations))

	report, err := handler.Run(r.Context(), req)
	if err != nil {
		status := statusFor(err)
		if report == nil {
			writeError(w, status, err)
			return
		}
		report.Error = err.Error()
		writeJSON(w, status, report)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *HTTPServer) handleValidateTemplate(w http.ResponseWriter, r *http.Request) {
	handler := api.GetRunHandler()
	if handler == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("run handler not available"))
		return
	}

	req, err := decodeRunRequest(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := handler.Validate(r.Context(), req); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"valid": true, "template_name": req.TemplateName})
}

func (s *HTTPServer) handleTemplates(w http.ResponseWriter, r *http.Request) {
	handler := api.GetRunHandler()
	if handler == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("run handler not available"))
		return
	}
	names, err := handler.ListTemplates()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, names)
}

func (s *HTTPServer) handleRuns(w http.ResponseWriter, r *http.Request) {
	handler := api.GetJournalHandler()
	if handler == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("run journal not available"))
		return
	}

	limit := defaultRunsLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid limit %q", v))
			return
		}
		limit = n
	}

	runs, err := handler.ListRuns(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if runs == nil {
		runs = []api.RunRecord{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *HTTPServer) handleMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.cfg.Metrics.GetSummary())
}

// statusFor maps a run error to an HTTP status. Pre-flight failures are the
// caller's to fix; locked scopes can be retried later; everything else is a
// server-side failure.
func statusFor(err error) int {
	switch {
	case api.IsLocked(err):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case api.IsPartial(err):
		return http.StatusBadGateway
	case api.IsPreflight(err):
		var runErr *api.RunError
		if errors.As(err, &runErr) && runErr.Stage != api.StagePreflight {
			return http.StatusBadGateway
		}
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("Server", err, "Failed to write response")
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

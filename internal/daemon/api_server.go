package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"minutes/internal/api"
	"minutes/internal/config"
	"minutes/internal/logging"
	"minutes/internal/services"
)

const (
	// longPollTimeout caps a follow request below the server write timeout.
	longPollTimeout = 25 * time.Second
	// maxBodyBytes bounds submission bodies.
	maxBodyBytes = 1 << 20
)

type apiServer struct {
	bind   string
	token  string
	logger *slog.Logger
	daemon *Daemon
	mux    *http.ServeMux

	mu       sync.Mutex
	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	srv := &apiServer{
		bind:   strings.TrimSpace(cfg.API.Bind),
		token:  strings.TrimSpace(cfg.API.Token),
		logger: logging.NewComponentLogger(logger, "api-server"),
		daemon: d,
		mux:    http.NewServeMux(),
	}

	srv.handle("POST /api/transcriptions", srv.handleSubmit)
	srv.handle("GET /api/transcriptions", srv.handleList)
	srv.handle("GET /api/transcriptions/{id}", srv.handleGet)
	srv.handle("GET /api/transcriptions/{id}/history", srv.handleHistory)
	srv.handle("GET /api/events", srv.handleEvents)
	srv.handle("GET /api/events/stream", srv.handleEventStream)
	srv.handle("GET /api/status", srv.handleStatus)
	srv.handle("GET /api/logs", srv.handleLogs)
	srv.handle("POST /api/notifications/test", srv.handleTestNotification)
	return srv
}

func (s *apiServer) handle(pattern string, handler http.HandlerFunc) {
	s.mux.HandleFunc(pattern, authMiddleware(s.token, withRequestID(handler)))
}

// ServeHTTP lets tests drive the routes without a listener.
func (s *apiServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil || s.bind == "" {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	server := &http.Server{
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		// Long polls and streams end when the daemon stops.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	s.mu.Lock()
	s.listener = listener
	s.server = server
	s.mu.Unlock()

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.ErrorWithContext(s.logger, "api server error", "api_server_error", logging.Error(err))
		}
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	s.mu.Lock()
	server := s.server
	s.server = nil
	s.listener = nil
	s.mu.Unlock()
	if server == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		_ = server.Close()
	}
}

func (s *apiServer) address() string {
	if s == nil {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.daemon.Status(r.Context())
	if err != nil {
		s.writeFault(w, r, err)
		return
	}
	deps := make([]api.DependencyStatus, len(status.Dependencies))
	for i, dep := range status.Dependencies {
		deps[i] = api.DependencyStatus{
			Name:        dep.Name,
			Command:     dep.Command,
			Description: dep.Description,
			Optional:    dep.Optional,
			Available:   dep.Available,
			Detail:      dep.Detail,
		}
	}
	payload := api.DaemonStatus{
		Running:       status.Running,
		PID:           status.PID,
		StoreDriver:   status.StoreDriver,
		StoreLocation: status.StoreLocation,
		LockFilePath:  status.LockFilePath,
		DefaultGroup:  status.DefaultGroup,
		Counts:        api.FromStatusCounts(status.Counts),
		Active:        status.ActiveTranscriptions + status.ActiveAnalyses,
		Recent:        api.FromRecords(status.Recent),
		Bus:           api.FromBusStats(status.Bus, status.JournalNext),
		Dependencies:  deps,
	}
	if !status.StartedAt.IsZero() {
		payload.StartedAt = status.StartedAt.UTC().Format(time.RFC3339)
		payload.UptimeSeconds = int64(time.Since(status.StartedAt).Seconds())
	}
	s.writeJSON(w, http.StatusOK, payload)
}

func (s *apiServer) handleTestNotification(w http.ResponseWriter, r *http.Request) {
	sent, message, err := s.daemon.TestNotification(r.Context())
	if err != nil {
		s.writeError(w, http.StatusBadGateway, message, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.NotificationResponse{Sent: sent, Message: message})
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message, details string) {
	s.writeJSON(w, status, api.ErrorResponse{Error: message, Details: details})
}

// writeFault reports an unexpected failure without leaking internals.
func (s *apiServer) writeFault(w http.ResponseWriter, r *http.Request, err error) {
	kind, message := services.Details(err)
	logging.ErrorWithContext(logging.WithContext(r.Context(), s.logger), "api request failed", "api_request_failed",
		logging.String("path", r.URL.Path),
		logging.String(logging.FieldErrorKind, kind),
		logging.Error(err),
	)
	s.writeError(w, http.StatusInternalServerError, message, kind)
}

func queryUint(r *http.Request, key string) uint64 {
	value, _ := strconv.ParseUint(strings.TrimSpace(r.URL.Query().Get(key)), 10, 64)
	return value
}

func queryInt(r *http.Request, key string) int {
	value, _ := strconv.Atoi(strings.TrimSpace(r.URL.Query().Get(key)))
	return value
}

func queryBool(r *http.Request, key string) bool {
	value := strings.TrimSpace(r.URL.Query().Get(key))
	return value == "1" || strings.EqualFold(value, "true")
}

//go:generate mockgen -source ./server.go -destination=./mocks/server.go -package=mock_server
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"gitlab.ozon.dev/pupkingeorgij/packagesync/internal/model"
)

type PackageService interface {
	GetAll(ctx context.Context) ([]model.Package, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Package, error)
	Add(ctx context.Context, p model.Package) (*model.Package, error)
	Update(ctx context.Context, id uuid.UUID, p model.Package) (*model.Package, error)
	Delete(ctx context.Context, id uuid.UUID) (*model.Package, error)
}

type AuthService interface {
	Register(ctx context.Context, c model.Credentials) error
	Login(ctx context.Context, c model.Credentials) (string, error)
	Authenticate(ctx context.Context, token string) (string, error)
}

type Server struct {
	packages     PackageService
	auth         AuthService
	logger       *zap.Logger
	AuditManager *AuditManager

	mu     sync.Mutex
	server *http.Server
	closed bool
}

// New builds the API server. auditManager may be nil, in which case requests are only logged.
func New(packages PackageService, auth AuthService, auditManager *AuditManager, logger *zap.Logger) *Server {
	return &Server{
		packages:     packages,
		auth:         auth,
		logger:       logger,
		AuditManager: auditManager,
	}
}

// Run serves the API until Shutdown is called. It returns at once if ctx is done
// or Shutdown already ran.
func (s *Server) Run(ctx context.Context, port string) error {
	s.mu.Lock()
	if s.closed || ctx.Err() != nil {
		s.mu.Unlock()
		s.logger.Info("server not started, shutdown already requested")
		return nil
	}
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
	s.server = srv

	// the audit manager outlives ctx so that Shutdown can flush in-flight requests
	if s.AuditManager != nil {
		s.AuditManager.Start(context.WithoutCancel(ctx))
	}
	s.mu.Unlock()

	s.logger.Info("server starting", zap.String("port", port))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")

	s.mu.Lock()
	s.closed = true
	srv := s.server
	s.mu.Unlock()

	if srv != nil {
		if err := srv.Shutdown(ctx); err != nil {
			return err
		}
		s.logger.Info("http server shutdown completed")
	}

	if s.AuditManager != nil {
		s.AuditManager.Shutdown(ctx)
	}
	s.logger.Info("server shutdown completed")
	return nil
}

// Handler returns the routed API wrapped in the request logging middleware.
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()
	router.Use(s.bodyLoggingMiddleware)

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/register", s.handleRegister).Methods(http.MethodPost)
	api.HandleFunc("/login", s.handleLogin).Methods(http.MethodPost)

	api.HandleFunc("/packages", s.handleListPackages).Methods(http.MethodGet)
	api.HandleFunc("/packages", s.handleAddPackage).Methods(http.MethodPost)
	api.HandleFunc("/packages/{id}", s.handleGetPackage).Methods(http.MethodGet)
	api.HandleFunc("/packages/{id}", s.handleUpdatePackage).Methods(http.MethodPut)
	api.Handle("/packages/{id}", s.bearerAuthMiddleware(http.HandlerFunc(s.handleDeletePackage))).
		Methods(http.MethodDelete)

	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusNotFound, titleNotFound, "No route matches "+r.URL.Path+".")
	})

	return s.loggingMiddleware(router)
}

type errorResponse struct {
	Title   string `json:"title"`
	Details any    `json:"details,omitempty"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			zap.L().Error("failed to encode response", zap.Error(err))
		}
	}
}

func respondError(w http.ResponseWriter, status int, title string, details any) {
	respondJSON(w, status, errorResponse{Title: title, Details: details})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

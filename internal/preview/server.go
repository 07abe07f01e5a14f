package preview

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/guided-traffic/cors-setup/internal/config"
	"github.com/guided-traffic/cors-setup/internal/cors"
	"github.com/guided-traffic/cors-setup/internal/monitoring"
	"github.com/sirupsen/logrus"
)

// ConfigPath is the route serving the generated CORS JSON
const ConfigPath = "/cors.json"

// Server serves the generated configuration behind the CORS rules it describes,
// so a front-end dev server can exercise the policy before it is applied to the bucket.
type Server struct {
	httpServer *http.Server
	config     *config.Config
	rules      cors.Configuration
	serialized []byte
	logger     *logrus.Entry
}

// NewServer creates a new preview server instance
func NewServer(cfg *config.Config, rules cors.Configuration, serialized []byte) *Server {
	logger := logrus.WithField("component", "preview-server")

	server := &Server{
		config:     cfg,
		rules:      rules,
		serialized: serialized,
		logger:     logger,
	}

	server.httpServer = &http.Server{
		Addr:         cfg.Preview.BindAddress,
		Handler:      server.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return server
}

// Handler returns the router wrapped in the CORS middleware.
// The middleware sits outside the router so preflight requests never reach
// method matching.
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()
	router.Use(monitoring.HTTPMiddleware)

	router.HandleFunc(ConfigPath, s.handleConfig).Methods(http.MethodGet, http.MethodHead)
	router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	router.Handle(s.config.Preview.MetricsPath, monitoring.Handler()).Methods(http.MethodGet)

	corsMiddleware := cors.NewMiddleware(s.rules, s.logger)
	corsMiddleware.SetObserver(func(preflight bool, d cors.Decision) {
		monitoring.RecordCORSDecision(preflight, string(d))
	})

	return corsMiddleware.Middleware(router)
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	if _, err := w.Write(s.serialized); err != nil {
		s.logger.WithError(err).Error("Failed to write CORS configuration response")
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	response := map[string]interface{}{
		"status": "healthy",
		"rules":  len(s.rules),
		"bucket": s.config.Bucket,
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		s.logger.WithError(err).Error("Failed to write health response")
	}
}

// Start runs the server until ctx is cancelled
func (s *Server) Start(ctx context.Context) error {
	serverErrChan := make(chan error, 1)
	go func() {
		s.logger.WithField("address", s.httpServer.Addr).Info("Starting CORS preview server")
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("preview server failed: %w", err)
		}
	}()

	select {
	case err := <-serverErrChan:
		return err
	case <-ctx.Done():
		s.logger.Info("Shutting down preview server")

		timeout := time.Duration(s.config.Preview.ShutdownTimeout) * time.Second
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("preview server shutdown failed: %w", err)
		}

		s.logger.Info("Preview server stopped")
		return nil
	}
}

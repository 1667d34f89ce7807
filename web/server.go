// ABOUTME: JSON HTTP API over the procurement services
// ABOUTME: Routes with gorilla/mux, identity from gateway headers, Prometheus metrics at /metrics
package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/victor-4502/naova-mvp-sub002/app"
)

// Headers set by the upstream auth gateway.
const (
	HeaderRole     = "X-Naova-Role"
	HeaderClientID = "X-Naova-Client-ID"
)

const maxBodyBytes = 1 << 20

type Server struct {
	app      *app.App
	router   *mux.Router
	validate *validator.Validate
	registry *prometheus.Registry
	metrics  *metrics
	log      *logrus.Entry
}

func NewServer(a *app.App) *Server {
	registry := prometheus.NewRegistry()
	s := &Server{
		app:      a,
		router:   mux.NewRouter(),
		validate: newValidator(),
		registry: registry,
		metrics:  newMetrics(registry),
		log:      a.Log.WithField("component", "web"),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Use(s.instrument)
	s.router.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	api := s.router.PathPrefix("/api").Subrouter()
	api.Use(s.identify)

	api.HandleFunc("/orders/{id}/tracking", s.handleTracking).Methods(http.MethodGet)
	api.HandleFunc("/orders/{id}/advance", s.handleAdvance).Methods(http.MethodPost)
	api.HandleFunc("/orders/{id}/cancel", s.handleCancel).Methods(http.MethodPost)

	api.HandleFunc("/pipeline", s.handlePipeline).Methods(http.MethodGet)
	api.HandleFunc("/requests", s.handleCreateRequest).Methods(http.MethodPost)
	api.HandleFunc("/requests/{id}/stage", s.handleMoveRequest).Methods(http.MethodPost)
	api.HandleFunc("/requests/{id}/process", s.handleProcessRequest).Methods(http.MethodPost)
	api.HandleFunc("/requests/{id}/rfqs", s.handleSendRFQ).Methods(http.MethodPost)
	api.HandleFunc("/requests/{id}/quotes", s.handleReceiveQuote).Methods(http.MethodPost)
	api.HandleFunc("/requests/{id}/quotes/compare", s.handleCompareQuotes).Methods(http.MethodGet)
	api.HandleFunc("/quotes/{id}/accept", s.handleAcceptQuote).Methods(http.MethodPost)

	api.HandleFunc("/automation/run", s.handleRunAutomation).Methods(http.MethodPost)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("http api listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.app.DB.PingContext(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tournevent/kargo/pkg/shipper"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Accounts resolves the configured account of a carrier. It is consulted
// when a request carries no account of its own.
type Accounts func(carrier string) (shipper.Account, error)

// Server is the HTTP gateway in front of the carrier registry.
type Server struct {
	port     int
	registry *shipper.Registry
	accounts Accounts
	logger   *otelzap.Logger
	gatherer prometheus.Gatherer
}

// Config holds server configuration.
type Config struct {
	Port int
	// Accounts is optional; without it every request must carry an account.
	Accounts Accounts
	// Gatherer backs /metrics. Nil uses the default gatherer.
	Gatherer prometheus.Gatherer
}

// New creates a new server instance.
func New(cfg Config, registry *shipper.Registry, logger *otelzap.Logger) *Server {
	if cfg.Gatherer == nil {
		cfg.Gatherer = prometheus.DefaultGatherer
	}
	return &Server{
		port:     cfg.Port,
		registry: registry,
		accounts: cfg.Accounts,
		logger:   logger,
		gatherer: cfg.Gatherer,
	}
}

// Handler returns the server's routes.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	r.HandleFunc("/carriers", s.handleCarriers).Methods(http.MethodGet)
	r.HandleFunc("/carriers/{carrier}/send", s.handleSend).Methods(http.MethodPost)
	r.HandleFunc("/carriers/{carrier}/track", s.handleTrack).Methods(http.MethodPost)
	r.HandleFunc("/carriers/{carrier}/cancel", s.handleCancel).Methods(http.MethodPost)

	return r
}

// Run starts the HTTP server and blocks until context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting server", zap.Int("port", s.port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

type response struct {
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
	Kind  string `json:"kind,omitempty"`
}

// request is the body of the carrier operation endpoints. Reference is the
// tracking number or barcode for track and cancel.
type request struct {
	Account   shipper.Account `json:"account,omitempty"`
	Payload   shipper.Payload `json:"payload,omitempty"`
	Reference string          `json:"reference,omitempty"`
	FileName  string          `json:"fileName,omitempty"`
	TestMode  bool            `json:"testMode,omitempty"`
	Return    bool            `json:"return,omitempty"`
}

func (s *Server) handleCarriers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, response{Data: s.registry.Names()})
}

func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	s.serve(w, r, shipper.OpSend, func(ctx context.Context, carrier string, req request) (shipper.Result, error) {
		return s.registry.Send(ctx, carrier, &shipper.SendRequest{
			Account:  req.Account,
			Payload:  req.Payload,
			TestMode: req.TestMode,
			Return:   req.Return,
		})
	})
}

func (s *Server) handleTrack(w http.ResponseWriter, r *http.Request) {
	s.serve(w, r, shipper.OpTrack, func(ctx context.Context, carrier string, req request) (shipper.Result, error) {
		return s.registry.Track(ctx, carrier, &shipper.TrackRequest{
			Account:   req.Account,
			Reference: req.Reference,
			TestMode:  req.TestMode,
		})
	})
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	s.serve(w, r, shipper.OpCancel, func(ctx context.Context, carrier string, req request) (shipper.Result, error) {
		return s.registry.Cancel(ctx, carrier, &shipper.CancelRequest{
			Account:   req.Account,
			Reference: req.Reference,
			FileName:  req.FileName,
			TestMode:  req.TestMode,
		})
	})
}

type operation func(ctx context.Context, carrier string, req request) (shipper.Result, error)

func (s *Server) serve(w http.ResponseWriter, r *http.Request, op string, call operation) {
	carrier := mux.Vars(r)["carrier"]

	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, response{Error: "Invalid JSON: " + err.Error()})
		return
	}
	if len(req.Account) == 0 && s.accounts != nil {
		account, err := s.accounts(carrier)
		if err != nil {
			s.fail(w, carrier, op, err)
			return
		}
		req.Account = account
	}

	res, err := call(r.Context(), carrier, req)
	if err != nil {
		s.fail(w, carrier, op, err)
		return
	}
	writeJSON(w, http.StatusOK, response{Data: res})
}

func (s *Server) fail(w http.ResponseWriter, carrier, op string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("Carrier operation failed",
			zap.String("carrier", carrier),
			zap.String("operation", op),
			zap.Error(err),
		)
	}
	writeJSON(w, status, response{Error: err.Error(), Kind: shipper.Kind(err)})
}

// statusFor maps the error taxonomy onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, shipper.ErrCarrierNotFound):
		return http.StatusNotFound
	case errors.Is(err, shipper.ErrConfiguration):
		return http.StatusBadRequest
	case errors.Is(err, shipper.ErrCapabilityUnsupported):
		return http.StatusNotImplemented
	case errors.Is(err, shipper.ErrAuthentication), errors.Is(err, shipper.ErrTransport):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

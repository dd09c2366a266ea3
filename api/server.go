package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"raffle/application"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

// CallerHeader carries the address an API request acts on behalf of
const CallerHeader = "X-Caller"

const shutdownTimeout = 5 * time.Second

// ConnectionChecker reports whether a backing connection is up
type ConnectionChecker interface {
	IsConnected() bool
}

// Server exposes the raffle ledger over HTTP
type Server struct {
	addr         string
	handler      *application.RaffleHandler
	enableFaucet bool
	nats         ConnectionChecker
	router       *mux.Router
	httpServer   *http.Server
}

// NewServer creates a server listening on addr
func NewServer(addr string, handler *application.RaffleHandler, enableFaucet bool) *Server {
	s := &Server{
		addr:         addr,
		handler:      handler,
		enableFaucet: enableFaucet,
	}
	s.router = s.routes()
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// SetNATS makes GET /health report the state of the event bus connection
func (s *Server) SetNATS(nats ConnectionChecker) {
	s.nats = nats
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(loggingMiddleware)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "route not found")
	})

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	r.HandleFunc("/raffles", s.handleDeploy).Methods(http.MethodPost)
	r.HandleFunc("/raffles/{id:[0-9]+}", s.handleGetRaffle).Methods(http.MethodGet)
	r.HandleFunc("/raffles/{id:[0-9]+}/enter", s.handleEnter).Methods(http.MethodPost)
	r.HandleFunc("/raffles/{id:[0-9]+}/pick-winner", s.handlePickWinner).Methods(http.MethodPost)
	r.HandleFunc("/raffles/{id:[0-9]+}/players", s.handleGetPlayers).Methods(http.MethodGet)
	r.HandleFunc("/raffles/{id:[0-9]+}/winners", s.handleGetWinners).Methods(http.MethodGet)

	if s.enableFaucet {
		r.HandleFunc("/accounts", s.handleFund).Methods(http.MethodPost)
	}
	r.HandleFunc("/accounts/{address}", s.handleGetAccount).Methods(http.MethodGet)

	r.HandleFunc("/chain/verify", s.handleVerifyChain).Methods(http.MethodGet)

	return r
}

// ListenAndServe runs the HTTP server until ctx ends
func (s *Server) ListenAndServe(ctx context.Context) error {
	serveErr := make(chan error, 1)
	log.WithFields(log.Fields{
		"addr":   s.addr,
		"faucet": s.enableFaucet,
	}).Info("API server listening")
	go func() {
		serveErr <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down API server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down API server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to serve API: %w", err)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		log.WithFields(log.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"caller":   r.Header.Get(CallerHeader),
			"duration": time.Since(start),
		}).Debug("API request")
	})
}

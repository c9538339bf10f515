package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"liquidityCore/internal/service"
)

// CommitFunc persists state after a successful mutating request.
type CommitFunc func(ctx context.Context) error

type Server struct {
	svc      *service.Service
	logger   *zap.Logger
	commit   CommitFunc
	gatherer prometheus.Gatherer

	// mutating requests run one at a time so each commit sees a settled state
	writeMu sync.Mutex

	router *mux.Router
	srv    *http.Server
}

type Option func(*Server)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithCommit sets the hook run after every successful mutation.
func WithCommit(commit CommitFunc) Option {
	return func(s *Server) { s.commit = commit }
}

// WithMetrics exposes gatherer on /metrics.
func WithMetrics(gatherer prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = gatherer }
}

func NewServer(svc *service.Service, opts ...Option) *Server {
	s := &Server{
		svc:    svc,
		logger: zap.NewNop(),
		commit: func(context.Context) error { return nil },
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

// Handler returns the routed handler, for embedding or tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/pools", s.listPools).Methods(http.MethodGet)
	r.HandleFunc("/pools/{a}/{b}", s.showPool).Methods(http.MethodGet)
	r.HandleFunc("/pools", s.mutation(s.createPool)).Methods(http.MethodPost)
	r.HandleFunc("/assets", s.mutation(s.registerAsset)).Methods(http.MethodPost)
	r.HandleFunc("/faucet", s.mutation(s.faucet)).Methods(http.MethodPost)
	r.HandleFunc("/supply", s.mutation(s.supply)).Methods(http.MethodPost)
	r.HandleFunc("/remove", s.mutation(s.remove)).Methods(http.MethodPost)
	r.HandleFunc("/swap", s.mutation(s.swap)).Methods(http.MethodPost)
	r.HandleFunc("/accounts/{account}/balance", s.balance).Methods(http.MethodGet)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, l)
}

func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	s.srv = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.logger.Info("api server started", zap.String("addr", l.Addr().String()))
	if err := s.srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Stop() {
	if s.srv == nil {
		return
	}
	s.logger.Info("stopping api server")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(ctx); err != nil {
		s.logger.Error("api server shutdown", zap.Error(err))
	}
}

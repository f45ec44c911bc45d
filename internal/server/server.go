package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"secretariat_import/internal/handlers"
	"secretariat_import/internal/logger"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Options struct {
	Port     string
	Auth     func(http.Handler) http.Handler
	Gatherer prometheus.Gatherer
	Logger   *zap.Logger
}

type Server struct {
	httpServer *http.Server
	log        *zap.Logger
}

// NewRouter wires the public and the token protected routes.
func NewRouter(h *handlers.Handlers, opts Options) chi.Router {
	log := logger.OrNop(opts.Logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(accessLog(log))
	r.Use(cors)

	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	if h == nil {
		return r
	}

	r.Get("/health", h.Health)
	r.Post("/national-number/check", h.CheckNationalNumber)
	r.Post("/identifiers/check", h.CheckIdentifiers)

	r.Group(func(r chi.Router) {
		if opts.Auth != nil {
			r.Use(opts.Auth)
		}
		r.Post("/upload", h.Upload)
		r.Post("/import", h.Import)
		r.Get("/imports", h.ListImports)
		r.Get("/imports/{id}", h.GetImport)
	})

	return r
}

func NewServer(h *handlers.Handlers, opts Options) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%s", opts.Port),
			Handler:      NewRouter(h, opts),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		log: logger.OrNop(opts.Logger),
	}
}

func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("[HTTP] listening", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		s.log.Info("[HTTP] shutting down")
		shCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shCtx)
	case err := <-errCh:
		return err
	}
}

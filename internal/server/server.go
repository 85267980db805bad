package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ChiFungHillmanChan/Nutritrack-sub000/internal/domain"
	apperrors "github.com/ChiFungHillmanChan/Nutritrack-sub000/internal/errors"
	"github.com/ChiFungHillmanChan/Nutritrack-sub000/internal/ratelimit"
	"github.com/ChiFungHillmanChan/Nutritrack-sub000/internal/services"
)

// Server is the gateway's HTTP surface: two authenticated AI endpoints
// plus an unauthenticated health check.
type Server struct {
	Router *chi.Mux
	port   string
	logger *slog.Logger

	limiter         *ratelimit.Limiter
	analysisService domain.FoodAnalysisService
	chatService     domain.ChatService
	usageService    *services.UsageService
	errorHandler    *apperrors.Handler
	provider        string
}

// Options carries the collaborators the server orchestrates.
type Options struct {
	Port            string
	RequestTimeout  time.Duration
	Logger          *slog.Logger
	Verifier        domain.TokenVerifier
	Limiter         *ratelimit.Limiter
	AnalysisService domain.FoodAnalysisService
	ChatService     domain.ChatService
	UsageService    *services.UsageService
	Provider        string
}

// New builds the router. Middleware order matters: CORS preflights are
// answered before authentication, and the request deadline is installed
// before any handler work so it bounds the outbound model call.
func New(opts Options) *Server {
	s := &Server{
		Router:          chi.NewRouter(),
		port:            opts.Port,
		logger:          opts.Logger,
		limiter:         opts.Limiter,
		analysisService: opts.AnalysisService,
		chatService:     opts.ChatService,
		usageService:    opts.UsageService,
		errorHandler:    apperrors.NewHandler(opts.Logger),
		provider:        opts.Provider,
	}

	r := s.Router
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(opts.Logger))
	r.Use(middleware.Recoverer)
	r.Use(CORSMiddleware)
	r.Use(TimeoutMiddleware(opts.RequestTimeout))

	r.Get("/healthz", s.handleHealthz)

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(opts.Verifier))
		r.Post("/analyze-food", s.handleAnalyzeFood)
		r.Post("/chat", s.handleChat)
		r.Get("/analyses", s.handleAnalyses)
	})

	return s
}

// Start serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", s.port),
		Handler: s.Router,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", slog.String("port", s.port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("shutting down server")
	return srv.Shutdown(shutdownCtx)
}

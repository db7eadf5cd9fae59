package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"taskboard/internal/auth"
	"taskboard/internal/config"
	"taskboard/internal/handlers"
	"taskboard/internal/service"
)

type Server struct {
	config config.Config
	mux    chi.Router
	server *http.Server
}

func NewServer(config config.Config, svc *service.Service, tokens *auth.Tokens) *Server {
	mux := chi.NewMux()

	s := &Server{
		config: config,
		mux:    mux,
		server: &http.Server{
			Addr:              config.ServerAddress,
			Handler:           mux,
			ReadTimeout:       10 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      10 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
	}
	s.setupRoutes(handlers.NewHandler(svc), tokens, svc)
	return s
}

// Handler нужен тестам, чтобы гонять запросы через полный роутер
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) Start() error {
	zap.L().Info("starting server", zap.String("address", s.config.ServerAddress))

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("error starting server: %w", err)
	}

	return nil
}

func (s *Server) Stop() error {
	zap.L().Info("stopping server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("error stopping server: %w", err)
	}

	return nil
}

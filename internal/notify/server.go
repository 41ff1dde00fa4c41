package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

const shutdownTimeout = 10 * time.Second

// Server exposes the notification hub at GET /events over a dedicated HTTP
// listener, separate from the game protocol port.
type Server struct {
	server *http.Server
	hub    *Hub
	logger *slog.Logger
}

func NewServer(port int, hub *Hub, logger *slog.Logger) *Server {
	router := mux.NewRouter()
	router.HandleFunc("/events", func(w http.ResponseWriter, r *http.Request) {
		ServeWS(w, r, hub)
	}).Methods(http.MethodGet)

	return &Server{
		server: &http.Server{
			Addr:        fmt.Sprintf(":%d", port),
			Handler:     router,
			ReadTimeout: 15 * time.Second,
		},
		hub:    hub,
		logger: logger.With(slog.String("component", "notify-server")),
	}
}

// Start runs the hub loop and listens for subscribers. It blocks until
// Shutdown is called.
func (s *Server) Start() error {
	go s.hub.Run()
	s.logger.Info("starting notification server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("notification server error: %w", err)
	}
	return nil
}

// Shutdown stops accepting subscribers and disconnects existing ones.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down notification server")

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("notification shutdown error: %w", err)
	}
	s.hub.Close()
	return nil
}

// Package server owns the HTTP listener lifecycle.
package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/RecordKit/lifemap-go/internal/application/container"
	"github.com/RecordKit/lifemap-go/internal/presentation/http/routes"
	"github.com/RecordKit/lifemap-go/pkg/config"
)

// Server wraps the net/http server around the wired route tree.
type Server struct {
	httpServer *http.Server
	container  *container.Container
}

// New builds the server for the given port. The state change stream and the
// sysop websocket hold their connections open indefinitely, so no absolute
// write timeout is set; reads and idle keepalives still time out.
func New(port string, appContainer *container.Container) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:        ":" + port,
			Handler:     routes.SetupRoutes(appContainer),
			ReadTimeout: config.ServerReadTimeout,
			IdleTimeout: config.ServerIdleTimeout,
		},
		container: appContainer,
	}
}

// Start listens until Stop is called. A closed-server return is not an error.
func (s *Server) Start() error {
	s.container.Logger.System().Info("HTTP server listening", "addr", s.httpServer.Addr)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop drains in-flight requests until the context expires.
func (s *Server) Stop(ctx context.Context) error {
	s.container.Logger.Shutdown().Info("HTTP server draining")
	return s.httpServer.Shutdown(ctx)
}

// Package health serves the liveness endpoint the deployment probes.
package health

import (
	"context"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type Server struct {
	port int
	e    *echo.Echo
}

func New(port int) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	return &Server{port: port, e: e}
}

// Start serves until the context is cancelled.
func (s *Server) Start(ctx context.Context, logger *logrus.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.e.Start(fmt.Sprintf(":%d", s.port))
	}()

	logger.Infof("health server listening on :%d", s.port)

	select {
	case <-ctx.Done():
		return s.e.Shutdown(context.Background())
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("health server failed: %w", err)
		}
		return nil
	}
}

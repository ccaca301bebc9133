package metrics

import (
	"context"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Server exposes the Prometheus scrape endpoint.
type Server struct {
	e *echo.Echo
}

// StartMetricsServer registers the metrics for the given services and
// serves /metrics on the given port. Returns nil when port is empty.
func StartMetricsServer(port string, services []string, logger *logrus.Logger) *Server {
	if port == "" {
		return nil
	}

	RegisterMetrics(services, logger)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	go func() {
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			logger.Errorf("metrics server failed: %v", err)
		}
	}()

	logger.Infof("metrics server listening on :%s", port)
	return &Server{e: e}
}

// Stop shuts the metrics server down.
func (s *Server) Stop(ctx context.Context) error {
	if err := s.e.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown metrics server: %w", err)
	}
	return nil
}

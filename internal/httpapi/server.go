package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"complaintrag/internal/domain"
	"complaintrag/internal/logging"
	"complaintrag/internal/service"
	"complaintrag/internal/vectorindex"
)

// Asker is the part of the RAG service the API exposes.
type Asker interface {
	Ask(ctx context.Context, question string) (*domain.PipelineResult, error)
	Manifest() (vectorindex.Manifest, bool)
}

type askRequest struct {
	Question string `json:"question"`
}

type handler struct {
	svc Asker
}

// New builds the Echo instance. Metrics are served from gatherer.
func New(svc Asker, gatherer prometheus.Gatherer, logger *slog.Logger) *echo.Echo {
	logger = logging.OrDefault(logger)
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		logger.Warn("request failed", slog.Int("status", code), slog.String("method", req.Method),
			slog.String("path", req.URL.Path), slog.String("remote", c.RealIP()), slog.Any("error", err))
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]any{"error": msg})
		}
	}

	h := &handler{svc: svc}
	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	api := e.Group("/api")
	api.POST("/ask", h.ask)
	api.GET("/index", h.index)
	return e
}

func (h *handler) ask(c echo.Context) error {
	var req askRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON body")
	}
	res, err := h.svc.Ask(c.Request().Context(), req.Question)
	if err != nil {
		return echo.NewHTTPError(statusFor(err), err.Error()).SetInternal(err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *handler) index(c echo.Context) error {
	m, ok := h.svc.Manifest()
	if !ok {
		return echo.NewHTTPError(http.StatusServiceUnavailable, service.ErrNotReady.Error())
	}
	return c.JSON(http.StatusOK, m)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotReady):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrEmbedding), errors.Is(err, domain.ErrGeneration):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Run serves e on addr until ctx is canceled, then shuts down gracefully.
func Run(ctx context.Context, e *echo.Echo, addr string, logger *slog.Logger) error {
	logger = logging.OrDefault(logger)
	errc := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", addr))
		errc <- e.Start(addr)
	}()
	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info("http server shutting down")
	return e.Shutdown(shutdownCtx)
}

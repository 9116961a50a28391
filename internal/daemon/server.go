package daemon

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"syncwatch/internal/model"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const defaultHistoryLimit = 20

type Snapshotter interface {
	Snapshot() model.MonitorSnapshot
}

type HistoryLister interface {
	GetRecent(limit int) ([]model.History, error)
}

type Server struct {
	echo     *echo.Echo
	stats    Snapshotter
	histRepo HistoryLister
	addr     string
	stopCh   chan struct{}
	log      *zap.Logger
}

// NewServer exposes the monitor's state over HTTP. histRepo and gatherer may
// be nil, in which case /history and /metrics are not registered.
func NewServer(addr string, stats Snapshotter, histRepo HistoryLister, gatherer prometheus.Gatherer, log *zap.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	s := &Server{
		echo:     e,
		stats:    stats,
		histRepo: histRepo,
		addr:     addr,
		stopCh:   make(chan struct{}, 1),
		log:      log,
	}
	s.registerRoutes(gatherer)
	return s
}

func (s *Server) registerRoutes(gatherer prometheus.Gatherer) {
	s.echo.GET("/status", s.handleStatus)
	s.echo.POST("/stop", s.handleStop)

	if s.histRepo != nil {
		s.echo.GET("/history", s.handleHistory)
	}

	if gatherer != nil {
		s.echo.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}
}

func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Start() {
	go func() {
		s.log.Info("status server started", zap.String("addr", s.addr))

		if err := s.echo.Start(s.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("status server error", zap.Error(err))
		}
	}()
}

func (s *Server) Stop(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// StopCh fires once per POST /stop. Requests arriving while a stop is
// already pending are coalesced.
func (s *Server) StopCh() <-chan struct{} {
	return s.stopCh
}

func (s *Server) handleStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, s.stats.Snapshot())
}

func (s *Server) handleStop(c echo.Context) error {
	select {
	case s.stopCh <- struct{}{}:
	default:
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "stopping"})
}

func (s *Server) handleHistory(c echo.Context) error {
	n := defaultHistoryLimit
	if nStr := c.QueryParam("n"); nStr != "" {
		parsed, err := strconv.Atoi(nStr)
		if err != nil || parsed <= 0 {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "n must be a positive integer"})
		}
		n = parsed
	}

	histories, err := s.histRepo.GetRecent(n)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, histories)
}

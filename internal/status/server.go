// Package status serves the current price over local HTTP so desktop
// panels (waybar, polybar, i3blocks) can show it without a tray icon.
package status

import (
	"context"
	"fmt"
	"time"

	"github.com/buaazp/fasthttprouter"
	fasthttpprometheus "github.com/flf2ko/fasthttp-prometheus"
	"github.com/mailru/easyjson"
	"github.com/sirupsen/logrus"
	"github.com/valyala/fasthttp"

	"github.com/temidaradev/coinwatch/internal/controller"
)

// SnapshotProvider is implemented by *controller.Controller.
type SnapshotProvider interface {
	Latest() controller.Snapshot
}

type Server struct {
	addr     string
	provider SnapshotProvider
	logger   *logrus.Entry
	srv      *fasthttp.Server
}

// New wires the routes behind the Prometheus request middleware, which
// also serves GET /metrics. It registers collectors globally, so call it
// once per process.
func New(addr, metricsSubsystem string, provider SnapshotProvider, logger *logrus.Logger) *Server {
	s := newServer(addr, provider, logger)
	p := fasthttpprometheus.NewPrometheus(metricsSubsystem)
	s.srv = &fasthttp.Server{
		Name:         "coinwatch",
		Handler:      p.WrapHandler(s.router()),
		ReadTimeout:  time.Second,
		WriteTimeout: 5 * time.Second,
	}
	return s
}

func newServer(addr string, provider SnapshotProvider, logger *logrus.Logger) *Server {
	return &Server{
		addr:     addr,
		provider: provider,
		logger:   logger.WithField("component", "status"),
	}
}

func (s *Server) router() *fasthttprouter.Router {
	r := fasthttprouter.New()
	r.GET("/status", s.handleStatus)
	r.GET("/label", s.handleLabel)
	return r
}

// Run serves until ctx is done, then shuts the server down.
func (s *Server) Run(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", s.addr).Info("Starting status server")
		errc <- s.srv.ListenAndServe(s.addr)
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("status server run failure: %w", err)
	case <-ctx.Done():
		if err := s.srv.Shutdown(); err != nil {
			s.logger.WithError(err).Error("Status server shutdown failure")
			return err
		}
		s.logger.Info("Status server stopped")
		return nil
	}
}

func (s *Server) handleStatus(ctx *fasthttp.RequestCtx) {
	view := newStatusView(s.provider.Latest())
	ctx.SetContentType("application/json")
	if _, err := easyjson.MarshalToWriter(view, ctx); err != nil {
		s.logger.WithError(err).Error("Failed to encode status")
		ctx.Error("failed to encode status", fasthttp.StatusInternalServerError)
	}
}

func (s *Server) handleLabel(ctx *fasthttp.RequestCtx) {
	ctx.SetContentType("text/plain; charset=utf-8")
	ctx.SetBodyString(s.provider.Latest().Label + "\n")
}

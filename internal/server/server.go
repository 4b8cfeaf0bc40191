// Package server exposes the dashboard over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"CoinDash/internal/market"
	"CoinDash/internal/observability"
	"CoinDash/internal/pipeline"
)

// Options configures the HTTP surface.
type Options struct {
	Addr           string
	AllowedOrigins []string
	// Mode is passed to gin.SetMode when non-empty.
	Mode string
	// Location is used for formatted timestamps; defaults to time.Local.
	Location *time.Location
}

type Server struct {
	Router     *gin.Engine
	Controller *pipeline.Controller
	Market     *market.Service
	Metrics    *observability.Metrics
	Logger     zerolog.Logger

	// ctx outlives individual requests; chart fetches started by a request
	// run under it.
	ctx        context.Context
	opts       Options
	httpServer *http.Server
}

// New builds the router and registers all routes.
func New(ctx context.Context, opts Options, ctrl *pipeline.Controller, svc *market.Service, metrics *observability.Metrics, logger zerolog.Logger) *Server {
	if opts.Mode != "" {
		gin.SetMode(opts.Mode)
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}

	s := &Server{
		Router:     gin.New(),
		Controller: ctrl,
		Market:     svc,
		Metrics:    metrics,
		Logger:     logger.With().Str("component", "server").Logger(),
		ctx:        ctx,
		opts:       opts,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	if len(s.opts.AllowedOrigins) > 0 {
		config := cors.DefaultConfig()
		config.AllowOrigins = s.opts.AllowedOrigins
		config.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
		config.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
		config.ExposeHeaders = []string{"Content-Length"}
		s.Router.Use(cors.New(config))
	}

	s.Router.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		s.Logger.Debug().
			Str("method", param.Method).
			Str("path", param.Path).
			Int("status", param.StatusCode).
			Dur("latency", param.Latency).
			Str("client_ip", param.ClientIP).
			Msg("HTTP Request")
		return ""
	}))

	s.Router.Use(gin.Recovery())
}

func (s *Server) setupRoutes() {
	s.Router.GET("/health", s.health)
	s.Router.GET("/about", s.about)
	s.Router.GET("/metrics", gin.WrapH(s.Metrics.Handler()))

	api := s.Router.Group("/api")
	{
		api.GET("/ranges", s.listRanges)
		api.GET("/coins", s.listCoins)
		api.GET("/coins/:id", s.getCoin)

		api.GET("/chart", s.getChart)
		api.POST("/chart/range", s.setRange)
		api.GET("/chart/hover", s.hover)
		api.DELETE("/chart/hover", s.leave)
		api.GET("/chart.png", s.chartPNG)
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:         s.opts.Addr,
		Handler:      s.Router,
		ReadTimeout:  20 * time.Second,
		WriteTimeout: 20 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.Logger.Info().Msgf("Starting server on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.Logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

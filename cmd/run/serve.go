package main

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/wippyai/edge-abi/config"
	"github.com/wippyai/edge-abi/metrics"
	"github.com/wippyai/edge-abi/runtime"
)

type serveCmd struct{}

func (serveCmd) Run(common *config.CLI) error {
	app := fx.New(
		fx.Supply(common),
		fx.Provide(
			config.Load,
			newLogger,
			newMetrics,
			newServedGuest,
			newEcho,
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx").WithOptions(zap.IncreaseLevel(zap.WarnLevel))}
		}),
		fx.Invoke(registerRoutes, startServer),
	)
	if err := app.Err(); err != nil {
		return err
	}
	app.Run()
	return nil
}

func newServedGuest(lc fx.Lifecycle, cfg *config.Config, m *metrics.Metrics, log *zap.Logger) (*runtime.Module, error) {
	g, err := loadGuest(context.Background(), cfg, m)
	if err != nil {
		return nil, err
	}
	log.Info("guest loaded", zap.String("wasm", cfg.Guest.Wasm), zap.Int("backends", len(cfg.Backends)))
	lc.Append(fx.Hook{
		OnStop: g.Close,
	})
	return g.mod, nil
}

func newEcho(log *zap.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Server.ReadHeaderTimeout = 10 * time.Second
	e.Server.IdleTimeout = 120 * time.Second

	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(requestLogger(log.Named("http")))
	return e
}

// requestLogger logs each downstream request once it completes.
func requestLogger(log *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			req := c.Request()
			res := c.Response()
			log.Info("request",
				zap.String("method", req.Method),
				zap.String("path", req.URL.Path),
				zap.Int("status", res.Status),
				zap.Duration("elapsed", time.Since(start)),
				zap.String("request_id", res.Header().Get(echo.HeaderXRequestID)),
				zap.String("remote_ip", c.RealIP()),
				zap.Int64("bytes_out", res.Size),
			)
			return err
		}
	}
}

func registerRoutes(e *echo.Echo, cfg *config.Config, mod *runtime.Module, m *metrics.Metrics) {
	if m != nil {
		e.GET(cfg.Metrics.Path, echo.WrapHandler(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})))
	}
	e.Any("/*", echo.WrapHandler(mod))
}

func startServer(lc fx.Lifecycle, e *echo.Echo, cfg *config.Config, log *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			addr := cfg.Server.Addr()
			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return err
			}
			log.Info("serving guest", zap.String("addr", "http://"+ln.Addr().String()))
			go func() {
				if err := e.Server.Serve(ln); err != nil && err != http.ErrServerClosed {
					log.Error("server error", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("shutting down")
			return e.Shutdown(ctx)
		},
	})
}

// Copyright 2025 The Ember Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command emberd runs the HTTP server with a small demo route set. It
// is a thin shell around the engine, config, and logging packages.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/emberhttp/ember/config"
	"github.com/emberhttp/ember/engine"
	"github.com/emberhttp/ember/http1"
	"github.com/emberhttp/ember/logging"
	"github.com/emberhttp/ember/router"
	"github.com/emberhttp/ember/router/middleware"
)

const version = "0.1.0"

type cli struct {
	Serve   serveCmd   `cmd:"" help:"Run the server."`
	Version versionCmd `cmd:"" help:"Print the version."`
}

type serveCmd struct {
	Config      string `help:"Path to the YAML config file." type:"path"`
	Engine      string `help:"Execution engine." enum:"threaded,reactor" default:"threaded"`
	MetricsAddr string `help:"Expose Prometheus metrics on this address (empty disables)."`
}

type versionCmd struct{}

func (versionCmd) Run() error {
	fmt.Println("emberd", version)
	return nil
}

func (cmd *serveCmd) Run() error {
	cfg, err := config.Load(cmd.Config)
	if err != nil {
		return err
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger := logging.New(
		logging.WithHandlerType(logging.JSONHandler),
		logging.WithLevel(level),
		logging.WithService(cfg.App.Name, cfg.App.Version, cfg.App.Environment),
	)

	r := router.MustNew(
		router.WithLogger(logger),
		router.WithMaxRoutes(cfg.MaxRoutes),
		router.WithMaxMiddlewares(cfg.MaxMiddlewares),
	)
	if err := r.Use(
		middleware.RequestID(),
		middleware.Logger(),
		middleware.Recovery(),
		middleware.RateLimit(),
	); err != nil {
		return err
	}
	registerDemoRoutes(r)

	metrics := engine.NewMetrics(prometheus.DefaultRegisterer)
	if cmd.MetricsAddr != "" {
		go func() {
			if err := http.ListenAndServe(cmd.MetricsAddr, promhttp.Handler()); err != nil {
				logger.Error("metrics listener failed", "error", err)
			}
		}()
	}

	eng, shutdown, err := buildEngine(cmd.Engine, cfg, r, logger, metrics)
	if err != nil {
		return err
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-stop
		logger.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := shutdown(ctx); err != nil {
			logger.Error("shutdown failed", "error", err)
		}
	}()

	if err := eng.ListenAndServe(); err != nil && !errors.Is(err, engine.ErrServerClosed) {
		return err
	}
	return nil
}

// buildEngine constructs the selected engine and its shutdown function.
func buildEngine(
	name string,
	cfg config.Config,
	r *router.Router,
	logger *slog.Logger,
	metrics *engine.Metrics,
) (engine.Engine, func(context.Context) error, error) {
	switch name {
	case "reactor":
		eng, err := engine.NewReactor(cfg, r,
			engine.WithLogger(logger), engine.WithMetrics(metrics))
		if err != nil {
			return nil, nil, err
		}
		return eng, eng.Shutdown, nil
	default:
		eng, err := engine.NewThreaded(cfg, r,
			engine.WithLogger(logger), engine.WithMetrics(metrics))
		if err != nil {
			return nil, nil, err
		}
		engine.RegisterPool(prometheus.DefaultRegisterer, eng.Pool())
		return eng, eng.Shutdown, nil
	}
}

// registerDemoRoutes installs the routes emberd answers out of the box.
func registerDemoRoutes(r *router.Router) {
	r.GET("/healthz", func(c *router.Context) {
		_ = c.JSON(http1.StatusOK, map[string]string{"status": "ok"})
	})
	r.GET("/version", func(c *router.Context) {
		_ = c.JSON(http1.StatusOK, map[string]string{"version": version})
	})

	api := r.Group("/api/v1")
	api.GET("/users/:id", func(c *router.Context) {
		_ = c.JSON(http1.StatusOK, map[string]string{"id": c.Param("id")})
	})
	api.POST("/echo", func(c *router.Context) {
		body := make([]byte, len(c.Request.Body))
		copy(body, c.Request.Body)
		c.Response.SetStatus(http1.StatusOK)
		c.Response.Text(body)
	})
}

func main() {
	ctx := kong.Parse(&cli{},
		kong.Name("emberd"),
		kong.Description("Embeddable HTTP/1.1 server."),
		kong.UsageOnError(),
	)
	ctx.FatalIfErrorf(ctx.Run())
}

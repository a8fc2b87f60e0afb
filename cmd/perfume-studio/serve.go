package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"perfume-studio/internal/app"
	"perfume-studio/internal/common/camunda"
	"perfume-studio/internal/common/config"
	"perfume-studio/internal/common/observability"
	"perfume-studio/internal/web"
)

func newServeCommand(flags *globalFlags) *cobra.Command {
	var (
		addr     string
		workflow bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web interface",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, flags, addr, workflow)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default server.address)")
	cmd.Flags().BoolVar(&workflow, "workflow", false, "accept POST /pipelines and start Zeebe process instances")
	return cmd
}

func runServe(ctx context.Context, flags *globalFlags, addr string, workflow bool) error {
	a, zapLog, err := bootstrap(ctx, flags)
	if err != nil {
		return err
	}
	defer zapLog.Sync()
	defer a.Close()

	cfg := a.Config
	log := a.Logger
	if addr == "" {
		addr = cfg.Server.Address
	}

	shutdownTracing, err := observability.InitTracing(cfg.Tracing, cfg.App.Name)
	if err != nil {
		return err
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := web.NewServer(a.Pipeline, a.Sessions, web.Options{
		CookieName:   cfg.Server.SessionCookie,
		SecureCookie: cfg.Server.SecureCookie,
		SessionTTL:   config.GetDuration(cfg.Session.TTL),
		DefaultModel: cfg.APIs.GenAI.DefaultModel,
		Models:       cfg.APIs.GenAI.Models,
	}, app.WebLogger(log))
	srv.WithReadiness(a.Ready)
	if a.Archive != nil {
		srv.WithHistory(a.Archive)
	}

	if workflow {
		zc, err := camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
		})
		if err != nil {
			return err
		}
		defer zc.Close()
		srv.WithProcessStarter(zc)
		log.Info("workflow mode enabled", map[string]interface{}{"broker": cfg.Camunda.BrokerAddress})
	}

	httpServer := srv.HTTPServer(addr)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("web server listening", map[string]interface{}{"addr": addr})
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down web server", nil)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

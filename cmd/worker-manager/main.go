// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"perfume-studio/internal/app"
	"perfume-studio/internal/common/camunda"
	"perfume-studio/internal/common/config"
	"perfume-studio/internal/common/logger"
	"perfume-studio/internal/common/observability"

	dd "perfume-studio/internal/workers/perfume/draft-description"
	ea "perfume-studio/internal/workers/perfume/extract-attributes"
	seo "perfume-studio/internal/workers/perfume/optimize-seo"
	spp "perfume-studio/internal/workers/perfume/scrape-product-page"
	sr "perfume-studio/internal/workers/perfume/search-product-page"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	configFile := flag.String("config", "", "config file (default is ./configs/config.yaml)")
	flag.Parse()

	var (
		cfg *config.Config
		err error
	)
	if *configFile != "" {
		cfg, err = config.LoadFromFile(*configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		logger.New("info", "console").Fatal("config load failed", zap.Error(err))
	}
	if err := config.ValidateWorkerManager(cfg); err != nil {
		logger.New("info", "console").Fatal("invalid worker manager config", zap.Error(err))
	}

	zapLog, err := logger.Build(cfg.Logging)
	if err != nil {
		logger.New("info", "console").Fatal("logger build failed", zap.Error(err))
	}
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog).With(map[string]interface{}{
		"service": "worker-manager",
		"version": cfg.App.Version,
	})

	zapLog.Info("Starting worker manager...")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitTracing(cfg.Tracing, "worker-manager")
	if err != nil {
		zapLog.Fatal("tracing init failed", zap.Error(err))
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	var a *app.App
	err = retryWithBackoff(func() error {
		var err error
		a, err = app.New(ctx, cfg, log)
		return err
	}, 10, 2*time.Second, zapLog, "Backing services")
	if err != nil {
		zapLog.Fatal("backing services failed after retries", zap.Error(err))
	}
	defer a.Close()

	// --- Init Zeebe Client with retry ---
	var zc *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		zc, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	defer zc.Close()
	zapLog.Info("Zeebe client connected successfully")

	if cfg.Camunda.DeployProcess {
		deployment, err := zc.DeployProcess(ctx)
		if err != nil {
			zapLog.Fatal("process deployment failed", zap.Error(err))
		}
		zapLog.Info("process deployed",
			zap.String("processId", deployment.ProcessID),
			zap.Int32("version", deployment.Version),
			zap.Int64("definitionKey", deployment.Definition),
		)
	}

	var workers []*camunda.CamundaWorker
	start := func(taskType string, handler camunda.JobHandler) {
		if w := startWorker(zc, cfg, taskType, handler, log, zapLog); w != nil {
			workers = append(workers, w)
		}
	}

	start(sr.TaskType, sr.NewHandler(sr.LoadConfig(), a.Resolver, &searchLoggerAdapter{log}))
	start(spp.TaskType, spp.NewHandler(spp.LoadConfig(), a.Extractor, &scrapeLoggerAdapter{log}))
	start(ea.TaskType, ea.NewHandler(ea.LoadConfig(cfg.APIs.GenAI), a.Generator, &extractLoggerAdapter{log}))
	start(dd.TaskType, dd.NewHandler(dd.LoadConfig(cfg.APIs.GenAI), a.Generator, &draftLoggerAdapter{log}))

	var archiver seo.Archiver
	if a.Archive != nil {
		archiver = a.Archive
	}
	start(seo.TaskType, seo.NewHandler(seo.LoadConfig(cfg.APIs.GenAI), a.Generator, archiver, &seoLoggerAdapter{log}))

	zapLog.Info("workers registered", zap.Int("count", len(workers)))

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		check := func(ctx context.Context) error {
			if err := a.Ready(ctx); err != nil {
				return err
			}
			return zc.HealthCheck(ctx)
		}
		if err := check(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "ready",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	mux.Handle("/metrics", promhttp.Handler())

	metricsServer := &http.Server{
		Addr:              cfg.Server.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("addr", cfg.Server.MetricsAddr))
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range workers {
		w.Stop(shutdownCtx)
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping metrics server", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

func startWorker(client *camunda.Client, cfg *config.Config, taskType string, handler camunda.JobHandler, log logger.Logger, zapLog *zap.Logger) *camunda.CamundaWorker {
	if !config.IsWorkerEnabled(cfg, taskType) {
		zapLog.Info("worker disabled", zap.String("taskType", taskType))
		return nil
	}

	wcfg := config.GetWorkerConfig(cfg, taskType)
	w := camunda.NewWorker(client.GetClient(), taskType, camunda.WorkerOptions{
		MaxJobsActive: wcfg.MaxJobsActive,
		Timeout:       time.Duration(wcfg.Timeout) * time.Millisecond,
		Name:          cfg.App.Name,
	}, handler, log)
	w.Start()

	zapLog.Info("worker started",
		zap.String("taskType", taskType),
		zap.Int("maxJobsActive", wcfg.MaxJobsActive),
		zap.Int("timeout_ms", wcfg.Timeout),
	)
	return w
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

type searchLoggerAdapter struct {
	logger.Logger
}

func (a *searchLoggerAdapter) With(fields map[string]interface{}) sr.Logger {
	return &searchLoggerAdapter{a.Logger.With(fields)}
}

type scrapeLoggerAdapter struct {
	logger.Logger
}

func (a *scrapeLoggerAdapter) With(fields map[string]interface{}) spp.Logger {
	return &scrapeLoggerAdapter{a.Logger.With(fields)}
}

type extractLoggerAdapter struct {
	logger.Logger
}

func (a *extractLoggerAdapter) With(fields map[string]interface{}) ea.Logger {
	return &extractLoggerAdapter{a.Logger.With(fields)}
}

type draftLoggerAdapter struct {
	logger.Logger
}

func (a *draftLoggerAdapter) With(fields map[string]interface{}) dd.Logger {
	return &draftLoggerAdapter{a.Logger.With(fields)}
}

type seoLoggerAdapter struct {
	logger.Logger
}

func (a *seoLoggerAdapter) With(fields map[string]interface{}) seo.Logger {
	return &seoLoggerAdapter{a.Logger.With(fields)}
}

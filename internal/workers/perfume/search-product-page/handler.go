// internal/workers/perfume/search-product-page/handler.go
package searchproductpage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "perfume-studio/internal/common/errors"
	"perfume-studio/internal/common/metrics"
	"perfume-studio/internal/models"
	"perfume-studio/pkg/registry"
)

const (
	TaskType = registry.TaskSearchProductPage
)

// Logger interface definition
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

type Resolver interface {
	Resolve(ctx context.Context, q models.SearchQuery) (models.SearchResult, error)
}

type Handler struct {
	config   *Config
	resolver Resolver
	errors   *apperrors.ErrorHandler
	logger   Logger
}

func NewHandler(config *Config, resolver Resolver, log Logger) *Handler {
	log = log.With(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:   config,
		resolver: resolver,
		errors:   apperrors.NewErrorHandler(log),
		logger:   log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	started := time.Now()
	defer func() {
		metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(started).Seconds())
	}()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, apperrors.NewInputValidationError(fmt.Sprintf("parse input: %v", err)))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.failJob(client, job, err)
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if strings.TrimSpace(input.Brand) == "" || strings.TrimSpace(input.Model) == "" {
		return nil, apperrors.NewInputValidationError("brand and model are required")
	}

	sites := models.NormalizeSites(input.Sites)
	if len(sites) == 0 {
		sites = models.DefaultSites
	}

	result, err := h.resolver.Resolve(ctx, models.SearchQuery{
		Brand:        input.Brand,
		Model:        input.Model,
		AllowedSites: sites,
		Debug:        input.Debug,
	})
	if err != nil {
		return nil, err
	}
	if !result.Found() {
		return nil, apperrors.NewResolutionFailedError(result.Snippet)
	}

	h.logger.Info("product page resolved", map[string]interface{}{
		"url":      result.URL,
		"strategy": result.Strategy,
	})

	return &Output{
		ProductURL:  result.URL,
		Title:       result.Title,
		Snippet:     result.Snippet,
		QueryUsed:   result.QueryUsed,
		Strategy:    result.Strategy,
		SearchTrace: result.Trace,
	}, nil
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("Failed to create complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}

	if _, err := cmd.Send(context.Background()); err != nil {
		h.logger.Error("Failed to send complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(apperrors.Normalize(err).Code)).Inc()
	h.errors.HandleJobError(context.Background(), client, job, err)
}

// Execute method for direct usage
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

// internal/workers/perfume/optimize-seo/handler.go
package optimizeseo

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "perfume-studio/internal/common/errors"
	"perfume-studio/internal/common/metrics"
	"perfume-studio/internal/models"
	"perfume-studio/internal/services/pipeline"
	"perfume-studio/internal/services/textgen"
	"perfume-studio/pkg/registry"
)

const (
	TaskType = registry.TaskOptimizeSEO
)

// Logger interface definition
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

type Generator interface {
	Generate(ctx context.Context, req textgen.Request) (*textgen.Result, error)
}

// Archiver receives the finished run. Optional.
type Archiver interface {
	Save(ctx context.Context, s *models.GenerationSession) error
}

type Handler struct {
	config    *Config
	generator Generator
	archiver  Archiver
	errors    *apperrors.ErrorHandler
	logger    Logger
}

func NewHandler(config *Config, generator Generator, archiver Archiver, log Logger) *Handler {
	log = log.With(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:    config,
		generator: generator,
		archiver:  archiver,
		errors:    apperrors.NewErrorHandler(log),
		logger:    log,
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

	h.archive(ctx, strconv.FormatInt(job.ProcessInstanceKey, 10), &input, output)
	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if strings.TrimSpace(input.Brand) == "" || strings.TrimSpace(input.Model) == "" {
		return nil, apperrors.NewInputValidationError("brand and model are required")
	}
	if strings.TrimSpace(input.Draft) == "" {
		return nil, apperrors.NewInputValidationError("draft is empty")
	}
	opts := input.Options.WithDefaults(h.config.DefaultModel)
	if err := opts.Validate(); err != nil {
		return nil, apperrors.NewInputValidationError(err.Error())
	}
	if !h.config.modelAllowed(opts.Model) {
		return nil, apperrors.NewInputValidationError(fmt.Sprintf("model %q is not offered", opts.Model))
	}

	q := models.SearchQuery{Brand: input.Brand, Model: input.Model}
	res, err := h.generator.Generate(ctx, textgen.Request{
		Prompt: pipeline.SEOPrompt(q, input.Draft, opts),
		Model:  opts.Model,
	})
	if err != nil {
		return nil, err
	}

	out := &Output{
		FinalText: res.Text,
		FinalCopy: pipeline.IsolateFinalVersion(res.Text),
	}
	h.logger.Info("seo pass finished", map[string]interface{}{
		"model":        res.Model,
		"attempts":     res.Attempts,
		"isolatedCopy": out.FinalCopy != "",
	})
	return out, nil
}

// archive stores the run keyed by its process instance. Failures are logged
// and do not fail the job.
func (h *Handler) archive(ctx context.Context, instance string, input *Input, output *Output) {
	if h.archiver == nil {
		return
	}
	opts := input.Options.WithDefaults(h.config.DefaultModel)
	s := models.NewGenerationSession(instance)
	s.State = models.StateDone
	s.Query = &models.SearchQuery{Brand: input.Brand, Model: input.Model, AllowedSites: input.Sites}
	s.Search = &models.SearchResult{URL: input.ProductURL}
	s.Options = &opts
	s.Attributes = input.Attributes
	s.Draft = input.Draft
	s.FinalText = output.FinalText
	s.FinalCopy = output.FinalCopy

	if err := h.archiver.Save(ctx, s); err != nil {
		h.logger.Warn("archive write failed", map[string]interface{}{
			"processInstance": instance,
			"error":           err.Error(),
		})
	}
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

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

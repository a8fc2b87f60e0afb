// internal/services/pipeline/orchestrator.go
package pipeline

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "perfume-studio/internal/common/errors"
	"perfume-studio/internal/common/metrics"
	"perfume-studio/internal/common/observability"
	"perfume-studio/internal/models"
	"perfume-studio/internal/services/textgen"
)

const (
	MissingInputMessage = "אנא מלא שם מותג ושם דגם."
	MissingSitesMessage = "אנא בחר לפחות אתר אחד."
	NothingToGenerate   = "יש לחפש ולגרד עמוד מוצר לפני יצירת תיאור."
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

type Extractor interface {
	Extract(ctx context.Context, url string) (*models.ScrapedPage, error)
}

type Generator interface {
	Generate(ctx context.Context, req textgen.Request) (*textgen.Result, error)
}

// Archiver stores runs that reached Done.
type Archiver interface {
	Save(ctx context.Context, s *models.GenerationSession) error
}

type Options struct {
	DefaultModel  string
	Models        []string
	Archiver      Archiver
	Observability *observability.Observability
}

// Orchestrator sequences the pipeline on a caller-owned session. It keeps no
// per-run state and is safe to share.
type Orchestrator struct {
	resolver  Resolver
	extractor Extractor
	generator Generator
	opts      Options
	logger    Logger
	tracer    trace.Tracer
}

func New(resolver Resolver, extractor Extractor, generator Generator, opts Options, log Logger) *Orchestrator {
	return &Orchestrator{
		resolver:  resolver,
		extractor: extractor,
		generator: generator,
		opts:      opts,
		logger:    log.With(map[string]interface{}{"component": "pipeline"}),
		tracer:    observability.Tracer("perfume-studio/pipeline"),
	}
}

// Search runs Idle → Searching → Scraping → Extracting. On success the
// session can generate; on failure it is left in Failed.
func (o *Orchestrator) Search(ctx context.Context, s *models.GenerationSession, q models.SearchQuery) error {
	started := time.Now()
	s.UpdateActivity()

	q.Brand = strings.TrimSpace(q.Brand)
	q.Model = strings.TrimSpace(q.Model)
	q.AllowedSites = models.NormalizeSites(q.AllowedSites)

	if q.Brand == "" || q.Model == "" {
		s.Validation = MissingInputMessage
		return apperrors.NewInputValidationError(MissingInputMessage)
	}
	if len(q.AllowedSites) == 0 {
		s.Validation = MissingSitesMessage
		return apperrors.NewInputValidationError(MissingSitesMessage)
	}

	resetForSearch(s, q)
	log := o.logger.With(map[string]interface{}{"sessionId": s.ID, "brand": q.Brand, "model": q.Model})

	err := o.runSearch(ctx, s, q, log)
	o.opts.Observability.RecordRun(ctx, "search", s.State.String(), time.Since(started))
	return err
}

func (o *Orchestrator) runSearch(ctx context.Context, s *models.GenerationSession, q models.SearchQuery, log Logger) error {
	s.State = models.StateSearching
	result, err := stage(ctx, o, models.StateSearching, func(ctx context.Context) (models.SearchResult, error) {
		res, err := o.resolver.Resolve(ctx, q)
		if err == nil && !res.Found() {
			err = apperrors.NewResolutionFailedError(res.Snippet)
		}
		return res, err
	})
	s.Search = &result
	if err != nil {
		return o.fail(s, models.StateSearching, err, "", log)
	}

	s.State = models.StateScraping
	page, err := stage(ctx, o, models.StateScraping, func(ctx context.Context) (*models.ScrapedPage, error) {
		return o.extractor.Extract(ctx, result.URL)
	})
	if err != nil {
		return o.fail(s, models.StateScraping, err, "", log)
	}
	s.Page = page
	s.State = models.StateExtracting

	log.Info("product page ready", map[string]interface{}{
		"url":      result.URL,
		"strategy": result.Strategy,
		"chars":    page.Length(),
	})
	return nil
}

// Generate runs Extracting → Drafting → Optimizing → Done. It requires a
// scraped page on the session and restarts from Extracting when called again.
func (o *Orchestrator) Generate(ctx context.Context, s *models.GenerationSession, opts models.WritingOptions) error {
	started := time.Now()
	s.UpdateActivity()

	if !s.CanGenerate() {
		s.Validation = NothingToGenerate
		return apperrors.NewInputValidationError(NothingToGenerate)
	}

	opts = opts.WithDefaults(o.opts.DefaultModel)
	if err := opts.Validate(); err != nil {
		s.Validation = err.Error()
		return apperrors.NewInputValidationError(err.Error())
	}
	if !o.modelAllowed(opts.Model) {
		s.Validation = "unknown model " + opts.Model
		return apperrors.NewInputValidationError(s.Validation)
	}

	resetForGenerate(s, opts)
	log := o.logger.With(map[string]interface{}{
		"sessionId": s.ID,
		"brand":     s.Query.Brand,
		"model":     s.Query.Model,
		"llm":       opts.Model,
	})

	err := o.runGenerate(ctx, s, opts, log)
	o.opts.Observability.RecordRun(ctx, "generate", s.State.String(), time.Since(started))
	if err != nil {
		return err
	}

	if o.opts.Archiver != nil {
		if err := o.opts.Archiver.Save(ctx, s); err != nil {
			log.Warn("archive write failed", map[string]interface{}{"error": err.Error()})
		}
	}
	return nil
}

func (o *Orchestrator) runGenerate(ctx context.Context, s *models.GenerationSession, opts models.WritingOptions, log Logger) error {
	q := *s.Query

	s.State = models.StateExtracting
	var raw string
	attrs, err := stage(ctx, o, models.StateExtracting, func(ctx context.Context) (*models.ExtractedAttributes, error) {
		res, err := o.generator.Generate(ctx, textgen.Request{
			Prompt:     ExtractionPrompt(s.Page.Text),
			Structured: true,
			Model:      opts.Model,
		})
		if err != nil {
			return nil, err
		}
		raw = res.Text
		return ParseAttributes(res.Text)
	})
	if err != nil {
		return o.fail(s, models.StateExtracting, err, raw, log)
	}
	s.Attributes = attrs

	s.State = models.StateDrafting
	draft, err := stage(ctx, o, models.StateDrafting, func(ctx context.Context) (string, error) {
		return o.text(ctx, DraftPrompt(q, attrs, opts), opts.Model)
	})
	if err != nil {
		return o.fail(s, models.StateDrafting, err, "", log)
	}
	s.Draft = draft

	s.State = models.StateOptimizing
	final, err := stage(ctx, o, models.StateOptimizing, func(ctx context.Context) (string, error) {
		return o.text(ctx, SEOPrompt(q, draft, opts), opts.Model)
	})
	if err != nil {
		return o.fail(s, models.StateOptimizing, err, "", log)
	}
	s.FinalText = final
	s.FinalCopy = IsolateFinalVersion(final)
	s.State = models.StateDone

	log.Info("description generated", map[string]interface{}{
		"draftChars":   len([]rune(draft)),
		"finalChars":   len([]rune(final)),
		"isolatedCopy": s.FinalCopy != "",
	})
	return nil
}

// Run performs search and generation back to back.
func (o *Orchestrator) Run(ctx context.Context, s *models.GenerationSession, q models.SearchQuery, opts models.WritingOptions) error {
	if err := o.Search(ctx, s, q); err != nil {
		return err
	}
	return o.Generate(ctx, s, opts)
}

func (o *Orchestrator) text(ctx context.Context, prompt, model string) (string, error) {
	res, err := o.generator.Generate(ctx, textgen.Request{Prompt: prompt, Model: model})
	if err != nil {
		return "", err
	}
	return res.Text, nil
}

func (o *Orchestrator) modelAllowed(model string) bool {
	if len(o.opts.Models) == 0 {
		return true
	}
	for _, m := range o.opts.Models {
		if m == model {
			return true
		}
	}
	return false
}

func (o *Orchestrator) fail(s *models.GenerationSession, at models.PipelineState, err error, raw string, log Logger) error {
	stdErr := apperrors.Normalize(err)
	s.State = models.StateFailed
	s.Failure = &models.StageFailure{
		Stage:     at,
		Code:      string(stdErr.Code),
		Message:   stdErr.UserMessage(),
		Details:   stdErr.Details,
		RawOutput: raw,
	}
	log.Warn("pipeline stage failed", map[string]interface{}{
		"stage":     at.String(),
		"errorCode": string(stdErr.Code),
		"error":     stdErr.Error(),
	})
	return stdErr
}

// stage wraps one step with a span and the stage metrics.
func stage[T any](ctx context.Context, o *Orchestrator, st models.PipelineState, fn func(context.Context) (T, error)) (T, error) {
	name := st.String()
	ctx, span := o.tracer.Start(ctx, "pipeline."+name, trace.WithAttributes(attribute.String("stage", name)))
	defer span.End()

	started := time.Now()
	out, err := fn(ctx)
	metrics.PipelineStageDuration.WithLabelValues(name).Observe(time.Since(started).Seconds())

	if err != nil {
		metrics.PipelineStageTransitions.WithLabelValues(name, "failed").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return out, err
	}
	metrics.PipelineStageTransitions.WithLabelValues(name, "ok").Inc()
	return out, nil
}

func resetForSearch(s *models.GenerationSession, q models.SearchQuery) {
	s.Query = &q
	s.Search = nil
	s.Page = nil
	s.Options = nil
	s.Attributes = nil
	s.Draft = ""
	s.FinalText = ""
	s.FinalCopy = ""
	s.Failure = nil
	s.Validation = ""
}

func resetForGenerate(s *models.GenerationSession, opts models.WritingOptions) {
	s.Options = &opts
	s.Attributes = nil
	s.Draft = ""
	s.FinalText = ""
	s.FinalCopy = ""
	s.Failure = nil
	s.Validation = ""
}

// internal/services/textgen/service.go
package textgen

import (
	"context"
	"fmt"
	"strings"
	"time"

	apperrors "perfume-studio/internal/common/errors"
	"perfume-studio/internal/common/metrics"
)

const (
	DefaultMaxAttempts   = 3
	DefaultTransientWait = 2 * time.Second
)

// Logger interface definition
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

// Backend performs one model call.
type Backend interface {
	Generate(ctx context.Context, model, prompt string, structured bool) (string, error)
}

type Request struct {
	Prompt     string
	Structured bool
	Model      string
}

type Result struct {
	Text     string
	Model    string
	Attempts int
}

type Options struct {
	DefaultModel  string
	MaxAttempts   int
	TransientWait time.Duration
	Downgrades    map[string]string
}

type SleepFunc func(ctx context.Context, d time.Duration) error

type Service struct {
	backend Backend
	opts    Options
	sleep   SleepFunc
	logger  Logger
}

func NewService(backend Backend, opts Options, log Logger) *Service {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.TransientWait <= 0 {
		opts.TransientWait = DefaultTransientWait
	}
	return &Service{
		backend: backend,
		opts:    opts,
		sleep:   sleepContext,
		logger:  log.With(map[string]interface{}{"component": "textgen"}),
	}
}

// WithSleep replaces the wait between attempts.
func (s *Service) WithSleep(fn SleepFunc) *Service {
	s.sleep = fn
	return s
}

// Generate calls the model until it answers, the attempt budget runs out or
// the error is fatal. Failures are QUOTA_EXHAUSTED or GENERATION_FAILED.
func (s *Service) Generate(ctx context.Context, req Request) (*Result, error) {
	model := req.Model
	if model == "" {
		model = s.opts.DefaultModel
	}

	var lastErr error
	for attempt := 1; attempt <= s.opts.MaxAttempts; attempt++ {
		text, err := s.backend.Generate(ctx, model, req.Prompt, req.Structured)
		if err == nil && strings.TrimSpace(text) == "" {
			err = ErrEmptyResponse
		}
		if err == nil {
			metrics.GenerationAttempts.WithLabelValues(model, "success").Inc()
			return &Result{Text: text, Model: model, Attempts: attempt}, nil
		}
		lastErr = err

		decision := Classify(err)
		metrics.GenerationAttempts.WithLabelValues(model, decision.Kind.String()).Inc()
		last := attempt == s.opts.MaxAttempts

		fields := map[string]interface{}{
			"model":    model,
			"attempt":  attempt,
			"decision": decision.Kind.String(),
			"error":    err.Error(),
		}

		switch decision.Kind {
		case Fatal:
			s.logger.Error("generation failed", fields)
			return nil, apperrors.NewGenerationFailedError(err)

		case RetryAfter:
			if last {
				s.logger.Error("quota exhausted", fields)
				return nil, apperrors.NewQuotaExhaustedError(model, attempt)
			}
			fields["wait"] = decision.Wait.String()
			s.logger.Warn("quota hit, waiting before retry", fields)
			if err := s.sleep(ctx, decision.Wait); err != nil {
				return nil, apperrors.NewGenerationFailedError(err)
			}

		case Downgrade:
			if last {
				s.logger.Error("quota exhausted", fields)
				return nil, apperrors.NewQuotaExhaustedError(model, attempt)
			}
			if next, ok := s.opts.Downgrades[model]; ok && next != model {
				fields["next"] = next
				s.logger.Warn("quota hit, downgrading model", fields)
				metrics.ModelDowngrades.WithLabelValues(model, next).Inc()
				model = next
				continue
			}
			s.logger.Warn("quota hit, retrying", fields)
			if err := s.sleep(ctx, s.opts.TransientWait); err != nil {
				return nil, apperrors.NewGenerationFailedError(err)
			}

		default:
			if last {
				s.logger.Error("generation failed", fields)
				return nil, apperrors.NewGenerationFailedError(err)
			}
			s.logger.Warn("generation error, retrying", fields)
			if err := s.sleep(ctx, s.opts.TransientWait); err != nil {
				return nil, apperrors.NewGenerationFailedError(err)
			}
		}
	}

	return nil, apperrors.NewGenerationFailedError(fmt.Errorf("no attempt succeeded: %w", lastErr))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// internal/workers/perfume/search-product-page/handler_test.go
package searchproductpage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "perfume-studio/internal/common/errors"
	"perfume-studio/internal/models"
)

// ==========================
// Test Logger Implementation
// ==========================

type TestLogger struct {
	t      *testing.T
	fields map[string]interface{}
}

func NewTestLogger(t *testing.T) *TestLogger {
	return &TestLogger{t: t, fields: make(map[string]interface{})}
}

func (l *TestLogger) Info(msg string, fields map[string]interface{}) {
	l.t.Logf("INFO: %s %v %v", msg, l.fields, fields)
}

func (l *TestLogger) Warn(msg string, fields map[string]interface{}) {
	l.t.Logf("WARN: %s %v %v", msg, l.fields, fields)
}

func (l *TestLogger) Error(msg string, fields map[string]interface{}) {
	l.t.Logf("ERROR: %s %v %v", msg, l.fields, fields)
}

func (l *TestLogger) With(fields map[string]interface{}) Logger {
	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &TestLogger{t: l.t, fields: merged}
}

// ==========================
// Test Helper Functions
// ==========================

type fakeResolver struct {
	result models.SearchResult
	err    error
	got    models.SearchQuery
}

func (f *fakeResolver) Resolve(_ context.Context, q models.SearchQuery) (models.SearchResult, error) {
	f.got = q
	return f.result, f.err
}

func newHandler(t *testing.T, r Resolver) *Handler {
	return NewHandler(&Config{Timeout: time.Second}, r, NewTestLogger(t))
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_Success(t *testing.T) {
	r := &fakeResolver{result: models.SearchResult{
		URL:       "https://www.luckyscent.com/product/naxos",
		Snippet:   "Naxos by Xerjoff, honey and tobacco",
		QueryUsed: "Xerjoff Naxos (site:luckyscent.com)",
		Strategy:  1,
	}}
	h := newHandler(t, r)

	out, err := h.Execute(context.Background(), &Input{
		Brand: "Xerjoff",
		Model: "Naxos",
		Sites: []string{"LuckyScent.com", "xfragrantica.com"},
	})

	require.NoError(t, err)
	assert.Equal(t, "https://www.luckyscent.com/product/naxos", out.ProductURL)
	assert.Equal(t, 1, out.Strategy)
	assert.Equal(t, []string{"luckyscent.com", "fragrantica.com"}, r.got.AllowedSites)
}

func TestHandler_Execute_DefaultSites(t *testing.T) {
	r := &fakeResolver{result: models.SearchResult{URL: "https://jovoyparis.com/naxos"}}
	h := newHandler(t, r)

	_, err := h.Execute(context.Background(), &Input{Brand: "Xerjoff", Model: "Naxos"})
	require.NoError(t, err)
	assert.Equal(t, models.DefaultSites, r.got.AllowedSites)
}

func TestHandler_Execute_Failures(t *testing.T) {
	tests := []struct {
		name     string
		input    *Input
		resolver *fakeResolver
		wantCode apperrors.ErrorCode
		wantBPMN string
	}{
		{
			name:     "missing model",
			input:    &Input{Brand: "Xerjoff", Model: "  "},
			resolver: &fakeResolver{},
			wantCode: apperrors.ErrCodeInputValidationFailed,
			wantBPMN: "INPUT_VALIDATION_FAILED",
		},
		{
			name:     "no matching page",
			input:    &Input{Brand: "Xerjoff", Model: "Unknown"},
			resolver: &fakeResolver{result: models.SearchResult{Snippet: "No results found"}},
			wantCode: apperrors.ErrCodeResolutionFailed,
			wantBPMN: "RESOLUTION_FAILED",
		},
		{
			name:  "search api error",
			input: &Input{Brand: "Xerjoff", Model: "Naxos"},
			resolver: &fakeResolver{
				result: models.SearchResult{Snippet: "Error during Google Search: quota"},
				err:    apperrors.NewSearchAPIFailedError(errors.New("quota")),
			},
			wantCode: apperrors.ErrCodeSearchAPIFailed,
			wantBPMN: "RESOLUTION_FAILED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHandler(t, tt.resolver)
			out, err := h.Execute(context.Background(), tt.input)

			require.Error(t, err)
			assert.Nil(t, out)
			stdErr, ok := apperrors.AsStandardError(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantCode, stdErr.Code)
			assert.Equal(t, tt.wantBPMN, apperrors.ConvertToBPMNError(stdErr).Code)
		})
	}
}

func TestLoadConfig_UsesRegistryTimeout(t *testing.T) {
	assert.Equal(t, 30*time.Second, LoadConfig().Timeout)
}

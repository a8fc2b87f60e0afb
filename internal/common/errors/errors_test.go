package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetErrorCategory(t *testing.T) {
	tests := []struct {
		code     ErrorCode
		expected string
	}{
		{ErrCodeConfigurationMissing, "CONFIGURATION"},
		{ErrCodeInputValidationFailed, "VALIDATION"},
		{ErrCodeResolutionFailed, "RESOLUTION"},
		{ErrCodeSearchAPIFailed, "RESOLUTION"},
		{ErrCodeExtractionFailed, "EXTRACTION"},
		{ErrCodeQuotaExhausted, "SERVICE"},
		{ErrCodeAttributesParseFailed, "SERVICE"},
		{ErrCodeGenerationFailed, "SERVICE"},
		{ErrCodeArchiveWriteFailed, "STORAGE"},
		{ErrCodeWorkflowUnavailable, "WORKFLOW"},
		{"SOMETHING_ELSE", "OTHER"},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.expected, GetErrorCategory(tt.code))
		})
	}
}

func TestConvertToBPMNError(t *testing.T) {
	t.Run("stage failure is thrown without retries", func(t *testing.T) {
		bpmn := ConvertToBPMNError(NewQuotaExhaustedError("gemini-1.5-flash", 3))

		assert.Equal(t, "GENERATION_FAILED", bpmn.Code)
		assert.Equal(t, 0, bpmn.Retries)
		assert.Equal(t, "QUOTA_EXHAUSTED", bpmn.ErrorVariables["originalErrorCode"])
		assert.NotEmpty(t, bpmn.ErrorVariables["userMessage"])
	})

	t.Run("storage failure keeps retries", func(t *testing.T) {
		bpmn := ConvertToBPMNError(NewArchiveWriteFailedError(fmt.Errorf("connection reset")))

		assert.Equal(t, "ARCHIVE_WRITE_FAILED", bpmn.Code)
		assert.Equal(t, 3, bpmn.Retries)
		assert.True(t, bpmn.Retryable)
	})

	t.Run("unknown code falls back to itself", func(t *testing.T) {
		bpmn := ConvertToBPMNError(&StandardError{Code: "INTERNAL_ERROR", Message: "boom"})
		assert.Equal(t, "INTERNAL_ERROR", bpmn.Code)
	})
}

func TestToErrorVariables(t *testing.T) {
	bpmn := &BPMNError{
		Code:           "RESOLUTION_FAILED",
		Message:        "No matching product page found",
		ErrorVariables: map[string]interface{}{"brand": "Xerjoff"},
	}

	vars := bpmn.ToErrorVariables()
	assert.Equal(t, "RESOLUTION_FAILED", vars["errorCode"])
	assert.Equal(t, "Xerjoff", vars["brand"])
	assert.Equal(t, false, vars["retryable"])
}

func TestStandardError_IsAndAs(t *testing.T) {
	wrapped := fmt.Errorf("stage draft: %w", NewQuotaExhaustedError("gemini-1.5-pro", 3))

	assert.True(t, errors.Is(wrapped, &StandardError{Code: ErrCodeQuotaExhausted}))
	assert.False(t, errors.Is(wrapped, &StandardError{Code: ErrCodeGenerationFailed}))

	stdErr, ok := AsStandardError(wrapped)
	require.True(t, ok)
	assert.Equal(t, "gemini-1.5-pro", stdErr.Metadata["model"])
}

func TestNormalize(t *testing.T) {
	plain := Normalize(errors.New("kaboom"))
	assert.Equal(t, ErrorCode("INTERNAL_ERROR"), plain.Code)
	assert.Equal(t, "kaboom", plain.Details)

	original := NewExtractionFailedError("https://luckyscent.com/x", errors.New("status 404"))
	assert.Same(t, original, Normalize(fmt.Errorf("wrap: %w", original)))
}

func TestConfigurationMissingError(t *testing.T) {
	err := NewConfigurationMissingError([]string{"GOOGLE_API_KEY", "GEMINI_API_KEY"})

	assert.Equal(t, "GOOGLE_API_KEY, GEMINI_API_KEY", err.Details)
	assert.Contains(t, err.Error(), "CONFIGURATION_MISSING")
	assert.Contains(t, err.UserMessage(), "GEMINI_API_KEY")
	assert.False(t, IsRetryableErrorCode(err.Code))
}

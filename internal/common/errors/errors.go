package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type ErrorCode string

const (
	ErrCodeConfigurationMissing ErrorCode = "CONFIGURATION_MISSING"

	ErrCodeInputValidationFailed ErrorCode = "INPUT_VALIDATION_FAILED"

	ErrCodeResolutionFailed ErrorCode = "RESOLUTION_FAILED"
	ErrCodeSearchAPIFailed  ErrorCode = "SEARCH_API_FAILED"

	ErrCodeExtractionFailed ErrorCode = "EXTRACTION_FAILED"

	ErrCodeGenerationFailed      ErrorCode = "GENERATION_FAILED"
	ErrCodeQuotaExhausted        ErrorCode = "QUOTA_EXHAUSTED"
	ErrCodeAttributesParseFailed ErrorCode = "ATTRIBUTES_PARSE_FAILED"

	ErrCodeArchiveWriteFailed ErrorCode = "ARCHIVE_WRITE_FAILED"
	ErrCodeSessionStoreFailed ErrorCode = "SESSION_STORE_FAILED"

	ErrCodeWorkflowUnavailable ErrorCode = "WORKFLOW_UNAVAILABLE"
	ErrCodeWorkflowRejected    ErrorCode = "WORKFLOW_REJECTED"
)

type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Is matches on code so callers can compare against a bare &StandardError{Code: ...}.
func (e *StandardError) Is(target error) bool {
	t, ok := target.(*StandardError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// UserMessage is the text shown on the display surface.
func (e *StandardError) UserMessage() string {
	switch e.Code {
	case ErrCodeConfigurationMissing:
		return "שגיאת תצורה: " + e.Details
	case ErrCodeInputValidationFailed:
		return e.Message
	case ErrCodeResolutionFailed:
		return "לא נמצאו תוצאות באתרים שצוינו. נסו לצמצם את רשימת האתרים או לבדוק את השמות."
	case ErrCodeSearchAPIFailed:
		return "החיפוש נכשל: " + e.Details
	case ErrCodeExtractionFailed:
		return "לא הצלחתי לגרד נתונים מהעמוד."
	case ErrCodeQuotaExhausted:
		return "מכסת השימוש במודל נוצלה. נסו שוב בעוד מספר דקות או בחרו מודל אחר."
	case ErrCodeAttributesParseFailed:
		return "לא הצלחתי לפענח את ה-JSON שהחזיר המודל."
	case ErrCodeGenerationFailed:
		return "המודל לא החזיר תשובה: " + e.Details
	default:
		return e.Message
	}
}

type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}

	for k, v := range e.ErrorVariables {
		vars[k] = v
	}

	return vars
}

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

func NewConfigurationMissingError(names []string) *StandardError {
	e := newError(ErrCodeConfigurationMissing, "Required credentials are not configured",
		strings.Join(names, ", "), false)
	e.Metadata = map[string]interface{}{"missing": names}
	return e
}

func NewInputValidationError(message string) *StandardError {
	return newError(ErrCodeInputValidationFailed, message, "", false)
}

func NewResolutionFailedError(details string) *StandardError {
	return newError(ErrCodeResolutionFailed, "No matching product page found", details, false)
}

func NewSearchAPIFailedError(err error) *StandardError {
	return newError(ErrCodeSearchAPIFailed, "Error during Google Search", err.Error(), false)
}

func NewExtractionFailedError(url string, err error) *StandardError {
	e := newError(ErrCodeExtractionFailed, "Page text extraction failed", err.Error(), true)
	e.Metadata = map[string]interface{}{"url": url}
	return e
}

func NewGenerationFailedError(err error) *StandardError {
	return newError(ErrCodeGenerationFailed, "Generative model call failed", err.Error(), false)
}

func NewQuotaExhaustedError(model string, attempts int) *StandardError {
	e := newError(ErrCodeQuotaExhausted, "Model quota exhausted",
		fmt.Sprintf("model: %s, attempts: %d", model, attempts), false)
	e.Metadata = map[string]interface{}{"model": model, "attempts": attempts}
	return e
}

func NewAttributesParseFailedError(err error) *StandardError {
	return newError(ErrCodeAttributesParseFailed, "Extracted attributes are not valid JSON", err.Error(), false)
}

func NewArchiveWriteFailedError(err error) *StandardError {
	return newError(ErrCodeArchiveWriteFailed, "Archive write failed", err.Error(), true)
}

func NewSessionStoreFailedError(err error) *StandardError {
	return newError(ErrCodeSessionStoreFailed, "Session store error", err.Error(), true)
}

// NewWorkflowUnavailableError reports a broker that could not be reached.
func NewWorkflowUnavailableError(operation string, err error) *StandardError {
	e := newError(ErrCodeWorkflowUnavailable, "Workflow broker unavailable", err.Error(), true)
	e.Metadata = map[string]interface{}{"operation": operation}
	return e
}

// NewWorkflowRejectedError reports a command the broker refused.
func NewWorkflowRejectedError(operation string, err error) *StandardError {
	e := newError(ErrCodeWorkflowRejected, "Workflow command rejected", err.Error(), false)
	e.Metadata = map[string]interface{}{"operation": operation}
	return e
}

// AsStandardError unwraps err to a StandardError when one is in the chain.
func AsStandardError(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeConfigurationMissing:  "CONFIGURATION_MISSING",
	ErrCodeInputValidationFailed: "INPUT_VALIDATION_FAILED",
	ErrCodeResolutionFailed:      "RESOLUTION_FAILED",
	ErrCodeSearchAPIFailed:       "RESOLUTION_FAILED",
	ErrCodeExtractionFailed:      "EXTRACTION_FAILED",
	ErrCodeGenerationFailed:      "GENERATION_FAILED",
	ErrCodeQuotaExhausted:        "GENERATION_FAILED",
	ErrCodeAttributesParseFailed: "GENERATION_FAILED",
	ErrCodeArchiveWriteFailed:    "ARCHIVE_WRITE_FAILED",
	ErrCodeSessionStoreFailed:    "SESSION_STORE_FAILED",
}

// GetRetryCount is the number of Zeebe-level retries granted to a code.
// Pipeline stage failures get none: the run ends and the user re-triggers it.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeArchiveWriteFailed,
		ErrCodeSessionStoreFailed:
		return 3

	default:
		return 0
	}
}

func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"userMessage":       stdErr.UserMessage(),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

func GetErrorCategory(code ErrorCode) string {
	switch code {
	case ErrCodeConfigurationMissing:
		return "CONFIGURATION"
	case ErrCodeInputValidationFailed:
		return "VALIDATION"
	case ErrCodeResolutionFailed, ErrCodeSearchAPIFailed:
		return "RESOLUTION"
	case ErrCodeExtractionFailed:
		return "EXTRACTION"
	case ErrCodeGenerationFailed, ErrCodeQuotaExhausted, ErrCodeAttributesParseFailed:
		return "SERVICE"
	case ErrCodeArchiveWriteFailed, ErrCodeSessionStoreFailed:
		return "STORAGE"
	case ErrCodeWorkflowUnavailable, ErrCodeWorkflowRejected:
		return "WORKFLOW"
	default:
		return "OTHER"
	}
}

package textgen

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"
)

type DecisionKind int

const (
	// Transient errors are retried with the same model after a short wait.
	Transient DecisionKind = iota
	// RetryAfter is a quota error carrying an upstream wait hint.
	RetryAfter
	// Downgrade is a quota error without a hint; a cheaper model may still have quota.
	Downgrade
	// Fatal errors end the call immediately.
	Fatal
)

func (k DecisionKind) String() string {
	switch k {
	case Transient:
		return "transient"
	case RetryAfter:
		return "retry_after"
	case Downgrade:
		return "downgrade"
	case Fatal:
		return "fatal"
	default:
		return "unknown"
	}
}

type Decision struct {
	Kind DecisionKind
	Wait time.Duration
}

var (
	ErrEmptyResponse = errors.New("model returned an empty response")

	waitHintPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)retry_?delay"?:?\s*"?(\d+(?:\.\d+)?)s`),
		regexp.MustCompile(`(?i)retry in (\d+(?:\.\d+)?)s`),
		regexp.MustCompile(`(?i)retry after (\d+(?:\.\d+)?) ?s`),
	}

	quotaMarkers = []string{"429", "resource_exhausted", "resource exhausted", "quota", "rate limit"}
	fatalMarkers = []string{
		"error 400", "error 401", "error 403", "error 404",
		"invalid_argument", "permission_denied", "unauthenticated",
		"api key not valid", "api_key_invalid",
	}
)

// Classify maps an upstream error to a retry decision.
func Classify(err error) Decision {
	if err == nil {
		return Decision{Kind: Fatal}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return Decision{Kind: Fatal}
	}

	msg := strings.ToLower(err.Error())

	if containsAny(msg, quotaMarkers) {
		if wait, ok := WaitHint(err.Error()); ok {
			return Decision{Kind: RetryAfter, Wait: wait}
		}
		return Decision{Kind: Downgrade}
	}

	if containsAny(msg, fatalMarkers) {
		return Decision{Kind: Fatal}
	}

	return Decision{Kind: Transient}
}

// WaitHint extracts a suggested wait such as `retryDelay: "31s"` or
// "Please retry in 31.5s" from an error message.
func WaitHint(msg string) (time.Duration, bool) {
	for _, re := range waitHintPatterns {
		m := re.FindStringSubmatch(msg)
		if m == nil {
			continue
		}
		secs, err := strconv.ParseFloat(m[1], 64)
		if err != nil || secs <= 0 {
			continue
		}
		return time.Duration(secs * float64(time.Second)), true
	}
	return 0, false
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

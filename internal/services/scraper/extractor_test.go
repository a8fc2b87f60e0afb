package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"perfume-studio/internal/common/cache"
	apperrors "perfume-studio/internal/common/errors"
	commonhttp "perfume-studio/internal/common/http"
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
// Helpers
// ==========================

const productPage = `<!DOCTYPE html>
<html>
<head><title>Xerjoff Naxos</title><style>body { color: red; }</style></head>
<body>
  <header>Free shipping</header>
  <nav><a href="/">Home</a></nav>
  <script>var tracking = "secret";</script>
  <main>
    <h1>Naxos</h1>
    <ul><li>Lavender</li><li>Honey</li></ul>
    <p>A   tribute
       to Sicily.</p>
  </main>
  <footer>Copyright</footer>
</body>
</html>`

func newTestExtractor(t *testing.T, c cache.Cache, maxChars int) *Extractor {
	client := commonhttp.NewClient(2*time.Second, "Mozilla/5.0 test")
	return NewExtractor(client, c, 10*time.Minute, maxChars, NewTestLogger(t))
}

// ==========================
// Extraction Tests
// ==========================

func TestExtract_StripsNonContentMarkup(t *testing.T) {
	var userAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, productPage)
	}))
	defer server.Close()

	page, err := newTestExtractor(t, nil, 0).Extract(context.Background(), server.URL)
	require.NoError(t, err)

	assert.Equal(t, "Xerjoff Naxos Naxos Lavender Honey A tribute to Sicily.", page.Text)
	assert.Equal(t, server.URL, page.URL)
	assert.False(t, page.Truncated)
	assert.Equal(t, "Mozilla/5.0 test", userAgent)
	for _, hidden := range []string{"Free shipping", "Home", "secret", "Copyright", "color"} {
		assert.NotContains(t, page.Text, hidden)
	}
}

func TestExtract_NeverExceedsMaxChars(t *testing.T) {
	tests := []struct {
		name     string
		words    int
		maxChars int
	}{
		{"large ascii page", 10000, 20000},
		{"small budget", 50, 15},
		{"exact fit", 2, 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := "<p>" + strings.Repeat("בושם ", tt.words) + "</p>"
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, body)
			}))
			defer server.Close()

			page, err := newTestExtractor(t, nil, tt.maxChars).Extract(context.Background(), server.URL)
			require.NoError(t, err)
			assert.LessOrEqual(t, page.Length(), tt.maxChars)
		})
	}
}

func TestExtract_EmptyPageIsValid(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><body><script>x()</script></body></html>")
	}))
	defer server.Close()

	page, err := newTestExtractor(t, nil, 0).Extract(context.Background(), server.URL)
	require.NoError(t, err)
	require.NotNil(t, page)
	assert.Equal(t, "", page.Text)
}

func TestExtract_Non2xxIsAbsent(t *testing.T) {
	for _, status := range []int{http.StatusNotFound, http.StatusForbidden, http.StatusInternalServerError} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(status)
				fmt.Fprint(w, "<p>blocked</p>")
			}))
			defer server.Close()

			page, err := newTestExtractor(t, nil, 0).Extract(context.Background(), server.URL)
			assert.Nil(t, page)
			require.Error(t, err)
			assert.True(t, errors.Is(err, &apperrors.StandardError{Code: apperrors.ErrCodeExtractionFailed}))

			var statusErr *commonhttp.StatusError
			assert.False(t, errors.As(err, &statusErr), "the status is reported in details, not wrapped")
			assert.Contains(t, err.Error(), fmt.Sprint(status))
		})
	}
}

func TestExtract_TimeoutIsAbsent(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client := commonhttp.NewClient(50*time.Millisecond, "ua")
	page, err := NewExtractor(client, nil, time.Minute, 0, NewTestLogger(t)).Extract(context.Background(), server.URL)
	assert.Nil(t, page)
	assert.Error(t, err)
}

func TestExtract_CachesByURL(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		fmt.Fprintf(w, "<p>visit %d</p>", hits)
	}))
	defer server.Close()

	e := newTestExtractor(t, cache.NewMemory(), 0)
	first, err := e.Extract(context.Background(), server.URL+"/naxos")
	require.NoError(t, err)
	second, err := e.Extract(context.Background(), server.URL+"/naxos")
	require.NoError(t, err)

	assert.Equal(t, "visit 1", first.Text)
	assert.Equal(t, first.Text, second.Text)
	assert.Equal(t, 1, hits)

	_, err = e.Extract(context.Background(), server.URL+"/other")
	require.NoError(t, err)
	assert.Equal(t, 2, hits)
}

func TestTruncate(t *testing.T) {
	s, cut := Truncate("אבגדה", 3)
	assert.Equal(t, "אבג", s)
	assert.True(t, cut)

	s, cut = Truncate("abc", 3)
	assert.Equal(t, "abc", s)
	assert.False(t, cut)
}

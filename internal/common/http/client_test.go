package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

func TestClient_Get(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, testUA, r.Header.Get("User-Agent"))
		switch r.URL.Path {
		case "/ok":
			w.Write([]byte("<html>ok</html>"))
		case "/slow":
			time.Sleep(200 * time.Millisecond)
			w.Write([]byte("late"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := NewClient(100*time.Millisecond, testUA)

	t.Run("success", func(t *testing.T) {
		resp, err := client.Get(context.Background(), server.URL+"/ok")
		require.NoError(t, err)
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, "<html>ok</html>", string(body))
	})

	t.Run("non-2xx", func(t *testing.T) {
		_, err := client.Get(context.Background(), server.URL+"/missing")
		var statusErr *StatusError
		require.True(t, errors.As(err, &statusErr))
		assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	})

	t.Run("timeout", func(t *testing.T) {
		_, err := client.Get(context.Background(), server.URL+"/slow")
		assert.Error(t, err)
	})

	t.Run("bad url", func(t *testing.T) {
		_, err := client.Get(context.Background(), "://nope")
		assert.Error(t, err)
	})
}

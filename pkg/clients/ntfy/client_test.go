package ntfy

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublish(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/portfolio-contact", r.URL.Path)
		assert.Equal(t, "New Partnership from Ada", r.Header.Get("Title"))
		assert.Equal(t, "3", r.Header.Get("Priority"))
		assert.Equal(t, "handshake", r.Header.Get("Tags"))
		assert.Equal(t, "mailto:ada@example.com", r.Header.Get("Click"))
		assert.Equal(t, "Bearer tk", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "hello", string(body))
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL+"/", "portfolio-contact", "tk", srv.Client())
	err := c.Publish(context.Background(), Message{
		Title:    "New Partnership from Ada",
		Body:     "hello",
		Tags:     "handshake",
		Priority: 3,
		Click:    "mailto:ada@example.com",
	})
	require.NoError(t, err)
}

func TestPublishError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"limit reached"}`, http.StatusTooManyRequests)
	}))
	t.Cleanup(srv.Close)

	err := NewClient(srv.URL, "t", "", srv.Client()).Publish(context.Background(), Message{Body: "x"})
	require.ErrorContains(t, err, "429")
}

package docapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feichai0017/document-client/internal/models"
	"github.com/feichai0017/document-client/pkg/logger"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL+"/", nil, logger.NewTestLogger())
	require.NoError(t, err)
	return c
}

func TestNewClient_InvalidBaseURL(t *testing.T) {
	_, err := NewClient("not a url", nil, nil)
	assert.Error(t, err)

	_, err = NewClient("", nil, nil)
	assert.Error(t, err)
}

func TestClient_GetDocument_Completed(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/v1/documents/doc-1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"doc-1","processing_status":"completed","title":"T","blocks":[]}`))
	})

	env, err := c.GetDocument(context.Background(), "doc-1")

	require.NoError(t, err)
	assert.Equal(t, "doc-1", env.ID)
	assert.Equal(t, models.StatusCompleted, env.ProcessingStatus)
}

func TestClient_GetDocument_Processing(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"processing_status":"processing","ws_url":"wss://x/doc-1"}`))
	})

	env, err := c.GetDocument(context.Background(), "doc-1")

	require.NoError(t, err)
	assert.Equal(t, models.StatusProcessing, env.ProcessingStatus)
	assert.Equal(t, "wss://x/doc-1", env.WsURL)
}

func TestClient_GetDocument_NotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"Document not found"}`, http.StatusNotFound)
	})

	_, err := c.GetDocument(context.Background(), "missing")

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	assert.Contains(t, statusErr.Body, "Document not found")
}

func TestClient_GetDocument_ServerError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.GetDocument(context.Background(), "doc-1")

	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusBadGateway, statusErr.StatusCode)
}

func TestClient_GetDocument_Malformed(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"processing_status":"processing"}`))
	})

	_, err := c.GetDocument(context.Background(), "doc-1")

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedResponse))
}

func TestClient_GetDocument_ContextCancelled(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.GetDocument(ctx, "doc-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestClient_ListBriefs(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/documents/", r.URL.Path)
		assert.Equal(t, "user-1", r.URL.Query().Get("user_id"))
		_, _ = w.Write([]byte(`{"total":1,"results":[{"id":"doc-1","title":"One","processing_status":"completed"}]}`))
	})

	briefs, err := c.ListBriefs(context.Background(), "user-1")

	require.NoError(t, err)
	assert.Equal(t, []models.DocumentBrief{
		{ID: "doc-1", Title: "One", ProcessingStatus: models.StatusCompleted},
	}, briefs)
}

func TestClient_ListBriefs_Malformed(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})

	_, err := c.ListBriefs(context.Background(), "user-1")

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedResponse))
}

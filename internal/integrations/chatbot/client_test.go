package chatbot

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"chat-forwarder/internal/domain"
)

// ---------------------------------------------------------------------------
// chatURL helper
// ---------------------------------------------------------------------------

func TestChatURL(t *testing.T) {
	cases := []struct {
		base string
		want string
	}{
		{"http://localhost:8000", "http://localhost:8000/api/chat"},
		{"http://localhost:8000/", "http://localhost:8000/api/chat"},
		{"https://bot.example.com/v2", "https://bot.example.com/v2/api/chat"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, chatURL(tc.base), "base=%q", tc.base)
	}
}

// ---------------------------------------------------------------------------
// NewClient
// ---------------------------------------------------------------------------

func TestNewClient_RejectsBadBaseURL(t *testing.T) {
	for _, base := range []string{"", "  ", "localhost:8000", "ftp://example.com", "/api"} {
		_, err := NewClient(base)
		require.Error(t, err, "base=%q", base)
	}
}

func TestNewClient_TrimsTrailingSlash(t *testing.T) {
	c, err := NewClient(" http://localhost:8000/ ")
	require.NoError(t, err)
	require.Equal(t, "http://localhost:8000", c.BaseURL())
	require.Equal(t, defaultTimeout, c.httpClient.Timeout)
}

func TestNewClient_WithTimeout(t *testing.T) {
	c, err := NewClient("http://localhost:8000", WithTimeout(5*time.Second))
	require.NoError(t, err)
	require.Equal(t, 5*time.Second, c.httpClient.Timeout)
}

// ---------------------------------------------------------------------------
// Client.Chat
// ---------------------------------------------------------------------------

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	c, err := NewClient(srv.URL, WithHTTPClient(&http.Client{Timeout: 2 * time.Second}))
	require.NoError(t, err)
	return c
}

func TestClient_Chat_HappyPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/chat", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		reqBody, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.JSONEq(t, `{"content":"hello"}`, string(reqBody))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"content":"hi there","sources":[]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	reply, err := c.Chat(context.Background(), domain.BackendPayload{Content: "hello"})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, reply.StatusCode)
	require.JSONEq(t, `{"content":"hi there","sources":[]}`, string(reply.Body))
}

func TestClient_Chat_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`engine warming up`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	_, err := c.Chat(context.Background(), domain.BackendPayload{Content: "hello"})
	require.Error(t, err)

	var statusErr *HTTPStatusError
	require.True(t, errors.As(err, &statusErr))
	require.Equal(t, http.StatusServiceUnavailable, statusErr.HTTPStatusCode())
	require.Equal(t, "engine warming up", statusErr.DiagnosticBody())
	require.Contains(t, err.Error(), "unexpected status 503")
}

func TestClient_Chat_ErrorBodyIsTruncated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(strings.Repeat("x", maxErrorBytes*2)))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	_, err := c.Chat(context.Background(), domain.BackendPayload{Content: "hello"})
	var statusErr *HTTPStatusError
	require.True(t, errors.As(err, &statusErr))
	require.Len(t, statusErr.Body, maxErrorBytes)
}

func TestClient_Chat_InvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not-a-json`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	_, err := c.Chat(context.Background(), domain.BackendPayload{Content: "hello"})
	require.ErrorIs(t, err, domain.ErrMalformedBackendResponse)
}

func TestClient_Chat_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	c := newTestClient(t, srv)
	srv.Close()

	_, err := c.Chat(context.Background(), domain.BackendPayload{Content: "hello"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "request failed")

	var statusErr *HTTPStatusError
	require.False(t, errors.As(err, &statusErr))
}

func TestClient_Chat_ContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := newTestClient(t, srv)
	_, err := c.Chat(ctx, domain.BackendPayload{Content: "hello"})
	require.ErrorIs(t, err, context.Canceled)
}

func TestClient_Chat_NilHTTPClientFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"content":"ok"}`))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, WithHTTPClient(nil))
	require.NoError(t, err)
	reply, err := c.Chat(context.Background(), domain.BackendPayload{Content: "hello"})
	require.NoError(t, err)
	require.JSONEq(t, `{"content":"ok"}`, string(reply.Body))
}

package httpfetch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetBytes_Success(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte{0x89, 'P', 'N', 'G'})
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{Timeout: time.Second}, nil)
	data, err := c.GetBytes(context.Background(), srv.URL+"/pic.png")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, data)
	assert.Contains(t, defaultUserAgents, gotUA)
}

func TestGetBytes_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{Timeout: time.Second}, nil)
	_, err := c.GetBytes(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestPostJSON_StatusErrorKeepsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"status_code":403,"status_message":"quota exceeded"}`))
	}))
	defer srv.Close()

	c := NewClient(DefaultConfig(), nil)
	var out map[string]any
	err := c.PostJSON(context.Background(), srv.URL, map[string]string{"url": "https://a"}, &out)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusForbidden, statusErr.Code)
	assert.JSONEq(t, `{"status_code":403,"status_message":"quota exceeded"}`, string(statusErr.Body))
}

func TestStatusError_BodyIsCapped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(strings.Repeat("x", 2*maxErrorBody)))
	}))
	defer srv.Close()

	c := NewClient(DefaultConfig(), nil)
	_, err := c.GetBytes(context.Background(), srv.URL)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Len(t, statusErr.Body, maxErrorBody)
}

func TestGetBytes_TooLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("a", 64)))
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{Timeout: time.Second, MaxBytes: 16}, nil)
	_, err := c.GetBytes(context.Background(), srv.URL)
	assert.Error(t, err)
}

func TestGetBytes_PerCallDeadline(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer srv.Close()
	defer close(release)

	c := NewClient(ClientConfig{Timeout: 50 * time.Millisecond}, nil)
	start := time.Now()
	_, err := c.GetBytes(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestGetBytes_CallerCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewClient(ClientConfig{Timeout: 5 * time.Second}, nil)
	_, err := c.GetBytes(ctx, srv.URL)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPostJSON_RoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_ = json.NewEncoder(w).Encode(map[string]string{"echo": body["url"]})
	}))
	defer srv.Close()

	c := NewClientWithHTTP(srv.Client(), DefaultConfig())
	var out map[string]string
	require.NoError(t, c.PostJSON(context.Background(), srv.URL, map[string]string{"url": "https://a"}, &out))
	assert.Equal(t, "https://a", out["echo"])
}

func TestGetJSON_InvalidBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>"))
	}))
	defer srv.Close()

	c := NewClient(DefaultConfig(), nil)
	var out map[string]any
	assert.Error(t, c.GetJSON(context.Background(), srv.URL, &out))
}

func TestAgentManager_RotatesProxies(t *testing.T) {
	m := NewAgentManager([]string{"http://p1:8000", "not a url", "http://p2:8000"})

	var hosts []string
	for i := 0; i < 3; i++ {
		u, err := m.Proxy(nil)
		require.NoError(t, err)
		hosts = append(hosts, u.Host)
	}
	assert.Equal(t, []string{"p1:8000", "p2:8000", "p1:8000"}, hosts)

	direct := NewAgentManager(nil)
	u, err := direct.Proxy(nil)
	require.NoError(t, err)
	assert.Nil(t, u)
}

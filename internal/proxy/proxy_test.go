package proxy

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sternrassler/breed-feed/pkg/breed"
	"github.com/Sternrassler/breed-feed/pkg/client"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const upstreamBody = `{"data":[{"id":"b1","type":"breed","attributes":{"name":"Akita"}}],"meta":{"pagination":{"current":2,"next":3}}}`

// fakeUpstream records the page[number] values it was asked for.
type fakeUpstream struct {
	*httptest.Server
	mu     sync.Mutex
	pages  []string
	status int
}

func newFakeUpstream(t *testing.T) *fakeUpstream {
	t.Helper()
	up := &fakeUpstream{status: http.StatusOK}
	up.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		up.mu.Lock()
		up.pages = append(up.pages, r.URL.Query().Get("page[number]"))
		status := up.status
		up.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status == http.StatusOK {
			io.WriteString(w, upstreamBody)
		}
	}))
	t.Cleanup(up.Close)
	return up
}

func (u *fakeUpstream) requested() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]string(nil), u.pages...)
}

func newTestServer(t *testing.T, cfg Config) *httptest.Server {
	t.Helper()
	s, err := New(cfg)
	require.NoError(t, err)
	srv := httptest.NewServer(s.Routes())
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func message(t *testing.T, body string) string {
	t.Helper()
	var payload struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &payload))
	return payload.Message
}

func TestProxy_Passthrough(t *testing.T) {
	up := newFakeUpstream(t)
	srv := newTestServer(t, Config{Upstream: up.URL})

	status, body := get(t, srv.URL+"/api/v2/breeds?page=2")

	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, upstreamBody, body)
	assert.Equal(t, []string{"2"}, up.requested())
}

func TestProxy_DefaultsToFirstPage(t *testing.T) {
	up := newFakeUpstream(t)
	srv := newTestServer(t, Config{Upstream: up.URL})

	get(t, srv.URL+"/api/v2/breeds")
	get(t, srv.URL+"/api/v2/breeds?page=abc")

	assert.Equal(t, []string{"1", "1"}, up.requested())
}

func TestProxy_SimulatedFailures(t *testing.T) {
	tests := []struct {
		mode       string
		wantStatus int
		wantMsg    string
	}{
		{ErrServiceUnavailable, http.StatusServiceUnavailable, "Service Unavailable"},
		{ErrInternalServer, http.StatusInternalServerError, "Internal Server Error"},
		{ErrTimeout, http.StatusRequestTimeout, "(Timeout) Server took a long time to respond. Please try again later"},
	}

	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			up := newFakeUpstream(t)
			srv := newTestServer(t, Config{Upstream: up.URL, Simulate: tt.mode, Hang: 10 * time.Millisecond})

			status, body := get(t, srv.URL+"/api/v2/breeds?page=1")

			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantMsg, message(t, body))
			assert.Empty(t, up.requested(), "simulated failures never reach upstream")
		})
	}
}

func TestProxy_RandomMode(t *testing.T) {
	up := newFakeUpstream(t)

	t.Run("last slot is success", func(t *testing.T) {
		srv := newTestServer(t, Config{
			Upstream: up.URL,
			Simulate: ModeRandom,
			Pick:     func(n int) int { return n - 1 },
		})
		status, _ := get(t, srv.URL+"/api/v2/breeds")
		assert.Equal(t, http.StatusOK, status)
	})

	t.Run("first slot is a sentinel", func(t *testing.T) {
		srv := newTestServer(t, Config{
			Upstream: up.URL,
			Simulate: ModeRandom,
			Pick:     func(int) int { return 1 },
		})
		// sorted: err_internal_server, err_service_unavailable, err_timeout
		status, _ := get(t, srv.URL+"/api/v2/breeds")
		assert.Equal(t, http.StatusServiceUnavailable, status)
	})
}

func TestProxy_UpstreamFailure(t *testing.T) {
	t.Run("upstream error status", func(t *testing.T) {
		up := newFakeUpstream(t)
		up.status = http.StatusBadGateway
		srv := newTestServer(t, Config{Upstream: up.URL})

		status, body := get(t, srv.URL+"/api/v2/breeds")

		assert.Equal(t, http.StatusInternalServerError, status)
		assert.Equal(t, UpstreamFailureMessage, message(t, body))
	})

	t.Run("upstream unreachable", func(t *testing.T) {
		up := httptest.NewServer(http.NotFoundHandler())
		upstreamURL := up.URL
		up.Close()
		srv := newTestServer(t, Config{Upstream: upstreamURL})

		status, body := get(t, srv.URL+"/api/v2/breeds")

		assert.Equal(t, http.StatusInternalServerError, status)
		assert.Equal(t, UpstreamFailureMessage, message(t, body))
	})
}

func TestProxy_DelayHonoursClientCancel(t *testing.T) {
	up := newFakeUpstream(t)
	srv := newTestServer(t, Config{Upstream: up.URL, Delay: time.Hour})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v2/breeds", nil)
	require.NoError(t, err)

	_, err = http.DefaultClient.Do(req)
	assert.Error(t, err)
	assert.Empty(t, up.requested())
}

func TestProxy_HealthAndMetrics(t *testing.T) {
	up := newFakeUpstream(t)
	srv := newTestServer(t, Config{Upstream: up.URL})

	status, body := get(t, srv.URL+"/health")
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"status":"ok"}`, body)

	get(t, srv.URL+"/api/v2/breeds")
	status, body = get(t, srv.URL+"/metrics")
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, strings.Contains(body, "breeds_proxy_responses_total"))
}

func TestProxy_FeedsPageClient(t *testing.T) {
	up := newFakeUpstream(t)
	srv := newTestServer(t, Config{Upstream: up.URL})

	c, err := client.New(client.DefaultConfig(srv.URL + "/api/v2/breeds"))
	require.NoError(t, err)

	page, err := c.FetchPage(context.Background(), breed.PageCursor(2))
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Akita", page.Items[0].Attributes.Name)
	assert.Equal(t, 3, page.Next.Page())
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"empty upstream", Config{}},
		{"relative upstream", Config{Upstream: "/api/v2/breeds"}},
		{"unknown mode", Config{Upstream: "http://upstream.test", Simulate: "err_teapot"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			assert.Error(t, err)
		})
	}
}

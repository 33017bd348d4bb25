// Package api_test provides behavior tests for the management API.
package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dnsproxy/internal/api"
	"dnsproxy/internal/api/models"
	"dnsproxy/internal/config"
	"dnsproxy/internal/engine"
)

func testConfig(port int) config.Config {
	cfg := config.Config{}
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = port
	cfg.Storage.CacheDriver = "memory"
	cfg.Storage.ListDriver = "memory"
	cfg.Storage.LogDriver = "memory"
	cfg.Filtering.BlockResponse.Type = "nxdomain"
	cfg.Upstream.Providers = []string{"system"}
	cfg.API.Host = "127.0.0.1"
	cfg.API.Port = 0
	return cfg
}

func performRequest(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func newTestServer(t *testing.T, port int) (*api.Server, *engine.Engine) {
	t.Helper()
	cfg := testConfig(port)
	eng := engine.New(cfg, nil)
	require.NoError(t, eng.Start(context.Background()))
	t.Cleanup(func() { _ = eng.Stop() })
	return api.New(eng, cfg, nil), eng
}

func TestHealthEndpointReturnsOK(t *testing.T) {
	srv, _ := newTestServer(t, 15400)
	w := performRequest(srv.Handler(), http.MethodGet, "/api/v1/health", "")
	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.StatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestStatsEndpointReportsRunningState(t *testing.T) {
	srv, _ := newTestServer(t, 15401)
	w := performRequest(srv.Handler(), http.MethodGet, "/api/v1/stats", "")
	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.ServerStatsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "running", resp.State)
}

func TestBlacklistAddAndList(t *testing.T) {
	srv, _ := newTestServer(t, 15402)
	h := srv.Handler()

	w := performRequest(h, http.MethodPost, "/api/v1/filtering/blacklist", `{"domain":"ads.example.com"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	w = performRequest(h, http.MethodGet, "/api/v1/filtering/blacklist", "")
	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.DomainListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.Domains, "ads.example.com")
}

func TestLifecycleStopThenStartRoundTrips(t *testing.T) {
	srv, eng := newTestServer(t, 15403)
	h := srv.Handler()

	w := performRequest(h, http.MethodPost, "/api/v1/lifecycle/stop", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, engine.Stopped, eng.State())

	w = performRequest(h, http.MethodPost, "/api/v1/lifecycle/start", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, engine.Running, eng.State())
}

func TestLifecycleStartWhileRunningReturnsConflict(t *testing.T) {
	srv, _ := newTestServer(t, 15404)
	h := srv.Handler()

	w := performRequest(h, http.MethodPost, "/api/v1/lifecycle/start", "")
	assert.Equal(t, http.StatusConflict, w.Code)
}

package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dnsproxy/internal/config"
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
	cfg.Upstream.Servers = []string{"127.0.0.1:15353"}
	return cfg
}

func TestEngineStartsAndStops(t *testing.T) {
	e := New(testConfig(15300), nil)
	assert.Equal(t, Stopped, e.State())

	require.NoError(t, e.Start(context.Background()))
	assert.Equal(t, Running, e.State())

	require.NoError(t, e.Stop())
	assert.Equal(t, Stopped, e.State())
}

func TestEngineRejectsDoubleStart(t *testing.T) {
	e := New(testConfig(15301), nil)
	require.NoError(t, e.Start(context.Background()))
	defer e.Stop()

	err := e.Start(context.Background())
	require.Error(t, err)
	var illegal IllegalState
	require.ErrorAs(t, err, &illegal)
	assert.Equal(t, Running, illegal.From)
}

func TestEngineRejectsStopWhenAlreadyStopped(t *testing.T) {
	e := New(testConfig(15302), nil)
	err := e.Stop()
	require.Error(t, err)
	var illegal IllegalState
	require.ErrorAs(t, err, &illegal)
}

func TestEngineToggleFlipsState(t *testing.T) {
	e := New(testConfig(15303), nil)
	require.NoError(t, e.Toggle(context.Background()))
	assert.Equal(t, Running, e.State())

	require.NoError(t, e.Toggle(context.Background()))
	assert.Equal(t, Stopped, e.State())
}

func TestUpdateResolverConfigAppliesWhileRunning(t *testing.T) {
	e := New(testConfig(15304), nil)
	require.NoError(t, e.Start(context.Background()))
	defer e.Stop()

	cfg := testConfig(15304)
	cfg.Filtering.Enabled = true
	cfg.Filtering.BlacklistDomains = []string{"blocked.example.com"}
	require.NoError(t, e.UpdateResolverConfig(cfg))

	assert.True(t, e.resolver.Policy != nil)
}

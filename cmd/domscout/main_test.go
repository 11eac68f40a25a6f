// cmd/domscout/main_test.go
package main

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"domscout/internal/core/domain"
	"domscout/internal/platform/config"
	"domscout/internal/platform/logx"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestExitCode(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, 0},
		{usageError(fmt.Errorf("bad flag")), 2},
		{fmt.Errorf("wrapped: %w", domain.ErrMissingResolvers), 2},
		{domain.ErrInvalidDomain, 2},
		{fmt.Errorf("scan x failed: %w", domain.ErrOrchestration), 1},
		{fmt.Errorf("boom"), 1},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, exitCode(tc.err), "%v", tc.err)
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "domscout dev")
}

func TestToolsCommand(t *testing.T) {
	out, err := execute(t, "tools", "--log-level", "error", "--disable", "gospider")
	require.NoError(t, err)
	assert.Contains(t, out, "subfinder")
	assert.Contains(t, out, "gowitness")
	assert.Contains(t, out, "disabled")
}

func TestScanCommand_MissingResolvers(t *testing.T) {
	t.Setenv("DOMSCOUT_STORAGE_DRIVER", "memory")
	t.Setenv("DOMSCOUT_CACHE_BACKEND", "memory")

	_, err := execute(t, "scan", "example.com", "--no-banner", "--log-level", "error",
		"--resolvers", filepath.Join(t.TempDir(), "missing.txt"),
		"--work-dir", t.TempDir())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMissingResolvers)
	assert.Equal(t, 2, exitCode(err))
}

func TestInvalidConfigIsUsageError(t *testing.T) {
	t.Setenv("DOMSCOUT_STORAGE_DRIVER", "postgres")
	_, err := execute(t, "scans", "--log-level", "error")
	require.Error(t, err)
	assert.Equal(t, 2, exitCode(err))
}

func TestOpenStorage(t *testing.T) {
	ctx := context.Background()
	log := logx.NewNop()

	t.Run("memory shares the store", func(t *testing.T) {
		c := config.DefaultConfig()
		c.Storage.Driver, c.Cache.Backend = "memory", "memory"
		repo, backend, err := openStorage(ctx, c, log)
		require.NoError(t, err)
		assert.True(t, sameStore(repo, backend))
	})

	t.Run("sqlite shares the store", func(t *testing.T) {
		c := config.DefaultConfig()
		c.Storage.Path = filepath.Join(t.TempDir(), "domscout.db")
		repo, backend, err := openStorage(ctx, c, log)
		require.NoError(t, err)
		defer repo.Close()
		assert.True(t, sameStore(repo, backend))
	})

	t.Run("sqlite with memory cache", func(t *testing.T) {
		c := config.DefaultConfig()
		c.Storage.Path = filepath.Join(t.TempDir(), "domscout.db")
		c.Cache.Backend = "memory"
		repo, backend, err := openStorage(ctx, c, log)
		require.NoError(t, err)
		defer repo.Close()
		assert.False(t, sameStore(repo, backend))
	})

	t.Run("unreachable redis falls back to memory", func(t *testing.T) {
		c := config.DefaultConfig()
		c.Storage.Driver, c.Cache.Backend = "memory", "redis"
		c.Cache.Redis.Addr = "127.0.0.1:1"
		repo, backend, err := openStorage(ctx, c, log)
		require.NoError(t, err)
		require.NotNil(t, backend)
		assert.False(t, sameStore(repo, backend))
	})
}

func TestNewAppWiring(t *testing.T) {
	c := config.DefaultConfig()
	c.Storage.Driver, c.Cache.Backend = "memory", "memory"
	c.WorkDir = t.TempDir()
	c.Output.EventsPath = filepath.Join(t.TempDir(), "events.jsonl")

	a, err := newApp(context.Background(), c, logx.NewNop(), nil)
	require.NoError(t, err)
	defer a.Close()

	assert.NotEmpty(t, a.tools)
	assert.NotNil(t, a.events)
	assert.FileExists(t, c.Output.EventsPath)

	checks := a.healthChecks()
	for name, check := range checks {
		assert.NoError(t, check(context.Background()), name)
	}

	scan, err := a.service.CreateTarget(context.Background(), "example.com", 0)
	require.NoError(t, err)
	scans, err := a.service.List(context.Background())
	require.NoError(t, err)
	require.Len(t, scans, 1)
	assert.Equal(t, scan.ID, scans[0].ID)
}

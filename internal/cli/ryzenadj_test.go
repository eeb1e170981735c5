package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/mutker/fwectl/internal/cache"
)

// failingTool writes a stub executable that records every invocation and
// exits non-zero, and returns its path together with the invocation log.
func failingTool(t *testing.T) (string, string) {
	t.Helper()

	dir := t.TempDir()
	countFile := filepath.Join(dir, "invocations")
	path := filepath.Join(dir, ryzenAdjName)
	script := "#!/bin/sh\necho run >> " + countFile + "\nexit 1\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))

	return path, countFile
}

func invocations(t *testing.T, countFile string) int {
	t.Helper()

	data, err := os.ReadFile(countFile)
	require.NoError(t, err)

	return strings.Count(string(data), "run")
}

func TestRyzenAdjProbeBypassesErrorCache(t *testing.T) {
	path, countFile := failingTool(t)
	a := &RyzenAdj{
		path: path,
		info: cache.New[PowerTableInfo](),
	}
	ctx := context.Background()

	// A failed liveness check must not be remembered: each check has to
	// reach the tool so a recovery is seen as soon as it happens.
	require.Error(t, a.Probe(ctx))
	require.Error(t, a.Probe(ctx))
	assert.Equal(t, 2, invocations(t, countFile))

	// Steady-state reads cache the failure for the TTL instead.
	_, err := a.Info(ctx)
	require.Error(t, err)
	_, err = a.Info(ctx)
	require.Error(t, err)
	assert.Equal(t, 3, invocations(t, countFile))
}

package cli

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/mutker/fwectl/internal/errors"
)

func TestRunCapturesStdout(t *testing.T) {
	out, err := run(context.Background(), "/bin/sh", "-c", "printf hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", out)
}

func TestRunNonZeroExitCarriesCodeAndStderr(t *testing.T) {
	_, err := run(context.Background(), "/bin/sh", "-c", "echo oops >&2; exit 3")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, ErrNonZeroExit))

	var e errors.Error
	require.True(t, errors.As(err, &e))
	failure, ok := e.GetData().(exitFailure)
	require.True(t, ok)
	assert.Equal(t, 3, failure.Code)
	assert.Equal(t, "oops", failure.Stderr)
}

func TestRunSpawnFailure(t *testing.T) {
	_, err := run(context.Background(), "/nonexistent/tool")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, ErrSpawnFailed))
}

func TestRunCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	_, err := run(ctx, "/bin/sh", "-c", "sleep 5")
	require.Error(t, err)

	// The kill makes the child exit non-zero; the cause is the caller
	// cancelling, and that is what must be reported.
	assert.True(t, errors.HasCode(err, ErrCancelled))
	assert.False(t, errors.HasCode(err, ErrNonZeroExit))
}

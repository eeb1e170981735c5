package cli

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"codeberg.org/mutker/fwectl/internal/errors"
	"codeberg.org/mutker/fwectl/internal/logger"
)

// runTimeout is the hard wall-clock bound on any tool invocation. Tools
// that hang on a wedged EC must not stall the callers indefinitely.
const runTimeout = 60 * time.Second

// run spawns the executable at path with args, captures both output
// streams and returns stdout. Spawn failure, timeout and a failing exit
// code are distinguished in the returned error.
func run(ctx context.Context, path string, args ...string) (string, error) {
	errFactory := errors.New()

	ctx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logger.Debug().Str("tool", filepath.Base(path)).Strs("args", args).Msg("Running external tool")

	err := cmd.Run()
	if err == nil {
		return stdout.String(), nil
	}

	// A context failure kills the child, so the resulting exit error is
	// an artifact of the kill, not a tool failure. Classify it first.
	switch {
	case ctx.Err() == context.DeadlineExceeded:
		return "", errFactory.WithData(ErrTimeout, path)
	case ctx.Err() != nil:
		return "", errFactory.Wrap(ErrCancelled, ctx.Err())
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return "", errFactory.WithData(ErrNonZeroExit, exitFailure{
			Code:   exitErr.ExitCode(),
			Stderr: strings.TrimSpace(stderr.String()),
		})
	}

	return "", errFactory.Wrap(ErrSpawnFailed, err)
}

// resolveExecutable locates a tool binary: first alongside the running
// binary (plain and in a tool-named subdirectory, covering the bundled
// layout), then on the executable search path.
func resolveExecutable(name string) (string, error) {
	if exe, err := os.Executable(); err == nil {
		dir := filepath.Dir(exe)
		for _, candidate := range []string{
			filepath.Join(dir, name),
			filepath.Join(dir, name, name),
		} {
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return candidate, nil
			}
		}
	}

	if path, err := exec.LookPath(name); err == nil {
		return path, nil
	}

	return "", errors.New().WithData(ErrToolNotFound, name)
}

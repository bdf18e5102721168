package llamacpp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/samcharles93/llamabricks/internal/logger"
	"github.com/samcharles93/llamabricks/internal/metrics"
)

// Fixed deadlines for the one-shot executables.
const (
	GenerateTimeout = 60 * time.Second
	TokenizeTimeout = 30 * time.Second
)

// Exec runs executable with args and returns its trimmed stdout.
//
// A non-zero exit yields *ExitError carrying stderr. Running past timeout
// yields an error wrapping ErrTimeout. The call blocks until the process is
// done or killed.
func Exec(ctx context.Context, timeout time.Duration, executable string, args ...string) (string, error) {
	log := logger.FromContext(ctx)
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, executable, args...)
	cmd.WaitDelay = time.Second
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	log.Debug("exec engine", "executable", executable, "args", len(args), "timeout", timeout)
	err := cmd.Run()
	switch {
	case err == nil:
		metrics.ObserveEngine("exec", "ok")
		return strings.TrimSpace(stdout.String()), nil
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		metrics.ObserveEngine("exec", "timeout")
		return "", fmt.Errorf("%w: %s after %s", ErrTimeout, executable, timeout)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		metrics.ObserveEngine("exec", "exit_error")
		return "", &ExitError{Executable: executable, Code: exitErr.ExitCode(), Stderr: stderr.String()}
	}
	metrics.ObserveEngine("exec", "start_error")
	return "", fmt.Errorf("run %s: %w", executable, err)
}

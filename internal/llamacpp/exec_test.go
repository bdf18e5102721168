package llamacpp

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/samcharles93/llamabricks/internal/llamacpp/llamacpptest"
)

func TestExecReturnsTrimmedStdout(t *testing.T) {
	t.Parallel()
	bin := llamacpptest.Script(t, "llama-main", `echo "  $1 $2  "`)

	out, err := Exec(context.Background(), time.Second*5, bin, "--model", "m.gguf")
	if err != nil {
		t.Fatalf("Exec() error = %v", err)
	}
	if out != "--model m.gguf" {
		t.Fatalf("Exec() = %q, want %q", out, "--model m.gguf")
	}
}

func TestExecNonZeroExitCarriesStderr(t *testing.T) {
	t.Parallel()
	bin := llamacpptest.Script(t, "llama-main", `echo "bad model" >&2; exit 2`)

	_, err := Exec(context.Background(), time.Second*5, bin)
	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("Exec() error = %v, want *ExitError", err)
	}
	if exitErr.Code != 2 {
		t.Fatalf("exit code = %d, want 2", exitErr.Code)
	}
	if !strings.Contains(err.Error(), "bad model") {
		t.Fatalf("error %q does not carry stderr", err)
	}
}

func TestExecTimeout(t *testing.T) {
	t.Parallel()
	bin := llamacpptest.Script(t, "llama-main", `exec sleep 5`)

	start := time.Now()
	_, err := Exec(context.Background(), 100*time.Millisecond, bin)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("Exec() error = %v, want ErrTimeout", err)
	}
	if time.Since(start) > 3*time.Second {
		t.Fatalf("Exec() did not stop at the deadline")
	}
}

func TestExecMissingExecutable(t *testing.T) {
	t.Parallel()
	_, err := Exec(context.Background(), time.Second, filepath.Join(t.TempDir(), "nope"))
	if err == nil {
		t.Fatal("expected error for missing executable")
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		t.Fatalf("missing executable reported as exit error: %v", err)
	}
}

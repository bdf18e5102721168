package llamacpp

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrTimeout means a one-shot executable ran past its deadline.
	ErrTimeout = errors.New("engine call timed out")

	// ErrNotReady means GET /health did not answer 200.
	ErrNotReady = errors.New("llama-server not ready")

	// ErrExited means the server process exited while it was expected to run.
	ErrExited = errors.New("llama-server exited")

	// ErrAlreadyStarted is returned by Start when a process is tracked.
	ErrAlreadyStarted = errors.New("llama-server already started")
)

// ExitError is a one-shot executable that exited non-zero.
type ExitError struct {
	Executable string
	Code       int
	Stderr     string
}

func (e *ExitError) Error() string {
	if msg := strings.TrimSpace(e.Stderr); msg != "" {
		return msg
	}
	return fmt.Sprintf("%s: exit status %d", e.Executable, e.Code)
}

// HTTPError is a non-2xx answer from llama-server.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("llama-server: HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("llama-server: HTTP %d: %s", e.StatusCode, body)
}

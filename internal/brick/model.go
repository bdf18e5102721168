package brick

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/samcharles93/llamabricks/internal/gguf"
	"github.com/samcharles93/llamabricks/internal/llamacpp"
	"github.com/samcharles93/llamabricks/internal/logger"
)

// ErrModelNotFound is the one fault a brick raises instead of reporting:
// Model.Execute on a missing artifact.
var ErrModelNotFound = errors.New("model file not found")

// ModelOptions configures the llama-server launch.
type ModelOptions struct {
	ServerBinary string
	Port         int
	ServerArgs   map[string]any
}

// Model wraps a GGUF artifact and the llama-server process serving it.
type Model struct {
	Base
	path   string
	server *llamacpp.Server

	mdOnce sync.Once
	md     *gguf.Metadata
	mdErr  error
}

// NewModel validates nothing; the artifact is checked on Execute.
func NewModel(path string, opts ModelOptions) *Model {
	return &Model{
		Base: NewBase("ModelBrick"),
		path: path,
		server: llamacpp.NewServer(llamacpp.ServerConfig{
			Binary:    opts.ServerBinary,
			ModelPath: path,
			Port:      opts.Port,
			Args:      opts.ServerArgs,
		}),
	}
}

// Path returns the artifact path.
func (m *Model) Path() string { return m.path }

// Port returns the llama-server port.
func (m *Model) Port() int { return m.server.Port() }

// Server exposes the process handle.
func (m *Model) Server() *llamacpp.Server { return m.server }

// Exists reports whether the artifact is on disk.
func (m *Model) Exists() bool {
	if m == nil || m.path == "" {
		return false
	}
	_, err := os.Stat(m.path)
	return err == nil
}

// HasProcess reports whether a llama-server process is tracked. Generation
// uses it to pick the HTTP path over the one-shot executable.
func (m *Model) HasProcess() bool {
	return m != nil && m.server.Tracked()
}

// StartServer spawns llama-server. A spawn failure is logged and reported
// as false.
func (m *Model) StartServer(ctx context.Context) bool {
	if err := m.server.Start(ctx); err != nil {
		logger.FromContext(ctx).Error("failed to start llama-server", "err", err)
		return false
	}
	return true
}

// Metadata parses the artifact's GGUF header once and caches the result.
func (m *Model) Metadata() (*gguf.Metadata, error) {
	m.mdOnce.Do(func() {
		m.md, m.mdErr = gguf.ReadFile(m.path)
	})
	return m.md, m.mdErr
}

// WaitReady blocks until llama-server answers /health with 200.
func (m *Model) WaitReady(ctx context.Context) error {
	return m.server.WaitReady(ctx)
}

// StopServer terminates llama-server if one is tracked.
func (m *Model) StopServer() error {
	return m.server.Stop()
}

// Execute reports the artifact and process state. It does not generate.
//
// Any "input" or "prompt" value is passed through as the "output" output so
// a Model placed first in a pipeline forwards the caller's prompt.
func (m *Model) Execute(ctx context.Context, in Values) (Result, error) {
	if _, err := os.Stat(m.path); err != nil {
		return Result{}, fmt.Errorf("%w: %s", ErrModelNotFound, m.path)
	}

	status := StatusLoaded
	if m.server.Running() {
		status = StatusRunning
	}
	res := Result{
		Status:  status,
		Payload: Values{"port": m.Port(), "model": m.path},
	}
	if md, err := m.Metadata(); err == nil {
		res.Payload["metadata"] = md.Summary()
	} else {
		logger.FromContext(ctx).Debug("model metadata unavailable", "model", m.path, "err", err)
	}
	out := Values{"model_info": res.Map()}
	if v, ok := in["input"]; ok {
		out[DefaultOutputKey] = v
	} else if v, ok := in["prompt"]; ok {
		out[DefaultOutputKey] = v
	}
	return res.WithOutputs(out), nil
}

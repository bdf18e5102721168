package pipedoc

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"

	"github.com/samcharles93/llamabricks/internal/brick"
	"github.com/samcharles93/llamabricks/internal/chain"
)

// Binaries supplies executable defaults that brick params may override.
type Binaries struct {
	Server   string
	Generate string
	Tokenize string
}

// Built is a pipeline together with the model bricks it created, so the
// caller can start and stop their servers.
type Built struct {
	Pipeline *chain.Pipeline
	Models   []*brick.Model
}

// Policy limits what a document may ask for. The zero value allows
// everything, which suits documents the local user wrote.
type Policy struct {
	// LockBinaries rejects executable and llama_cpp_path so only Binaries
	// are ever run.
	LockBinaries bool
	// DenyConfig rejects config bricks.
	DenyConfig bool
	// ConfigDir confines config_path to a relative path inside it.
	ConfigDir string
	// ServerArgs, when non-nil, lists the llama-server flags model params
	// may set.
	ServerArgs []string
}

// SafeServerArgs are llama-server flags that tune inference and never name
// a file.
var SafeServerArgs = []string{
	"ctx-size", "c", "n-gpu-layers", "ngl", "threads", "t", "threads-batch",
	"batch-size", "b", "ubatch-size", "ub", "parallel", "np", "n-predict",
	"flash-attn", "fa", "cont-batching", "mlock", "no-mmap", "seed",
	"rope-freq-base", "rope-freq-scale", "temp", "top-k", "top-p",
}

// Build turns doc into a pipeline with no restrictions.
func Build(doc *Document, bins Binaries) (*Built, error) {
	return BuildWith(doc, bins, Policy{})
}

// BuildWith turns doc into a pipeline, rejecting params p forbids.
// Generation and tokenization bricks bind to the most recent model brick
// above them.
func BuildWith(doc *Document, bins Binaries, p Policy) (*Built, error) {
	name := doc.Name
	if name == "" {
		name = DefaultName
	}
	out := &Built{Pipeline: chain.NewPipeline(name)}

	var model *brick.Model
	for i, spec := range doc.Bricks {
		params := normalizeParams(spec.Params)

		var b brick.Brick
		switch spec.Type {
		case TypeModel:
			m, err := buildModel(params, bins, p)
			if err != nil {
				return nil, fmt.Errorf("brick %d: %w", i, err)
			}
			model = m
			out.Models = append(out.Models, m)
			b = m
		case TypeGeneration:
			exe, err := p.executable(params)
			if err != nil {
				return nil, fmt.Errorf("brick %d: %w", i, err)
			}
			delete(params, "executable")
			g := brick.NewGeneration(model, params)
			g.SetExecutable(bins.Generate)
			g.SetExecutable(exe)
			b = g
		case TypeTokenization:
			exe, err := p.executable(params)
			if err != nil {
				return nil, fmt.Errorf("brick %d: %w", i, err)
			}
			t := brick.NewTokenization(model)
			t.SetExecutable(bins.Tokenize)
			t.SetExecutable(exe)
			b = t
		case TypeConfig:
			path, err := p.configPath(params)
			if err != nil {
				return nil, fmt.Errorf("brick %d: %w", i, err)
			}
			b = brick.NewConfig(path)
		default:
			return nil, fmt.Errorf("brick %d: %w: %q", i, ErrUnknownBrickType, spec.Type)
		}

		if spec.Name != "" {
			if r, ok := b.(interface{ Rename(string) }); ok {
				r.Rename(spec.Name)
			}
		}
		out.Pipeline.Add(b)
	}
	return out, nil
}

func (p Policy) executable(params map[string]any) (string, error) {
	exe, err := stringParam(params, "executable")
	if err == nil && exe != "" && p.LockBinaries {
		return "", fmt.Errorf("%w: executable", ErrNotAllowed)
	}
	return exe, err
}

func (p Policy) configPath(params map[string]any) (string, error) {
	if p.DenyConfig {
		return "", fmt.Errorf("%w: config bricks", ErrNotAllowed)
	}
	path, err := stringParam(params, "config_path")
	if err != nil || path == "" || p.ConfigDir == "" {
		return path, err
	}
	if !filepath.IsLocal(path) {
		return "", fmt.Errorf("%w: config_path %q leaves the store directory", ErrNotAllowed, path)
	}
	return filepath.Join(p.ConfigDir, path), nil
}

func buildModel(params map[string]any, bins Binaries, p Policy) (*brick.Model, error) {
	path, err := stringParam(params, "model_path")
	if err != nil {
		return nil, err
	}
	if path == "" {
		return nil, fmt.Errorf("%w: model_path is required", ErrInvalidParam)
	}
	server, err := stringParam(params, "llama_cpp_path")
	if err != nil {
		return nil, err
	}
	if server != "" && p.LockBinaries {
		return nil, fmt.Errorf("%w: llama_cpp_path", ErrNotAllowed)
	}
	if server == "" {
		server = bins.Server
	}
	port, err := intParam(params, "port")
	if err != nil {
		return nil, err
	}

	args := map[string]any{}
	for k, v := range params {
		switch k {
		case "model_path", "llama_cpp_path", "port":
		default:
			if p.ServerArgs != nil && !slices.Contains(p.ServerArgs, k) {
				return nil, fmt.Errorf("%w: server arg %q", ErrNotAllowed, k)
			}
			args[k] = v
		}
	}
	return brick.NewModel(path, brick.ModelOptions{ServerBinary: server, Port: port, ServerArgs: args}), nil
}

// StartServers launches llama-server for every model brick and waits until
// each reports ready on /health. On failure the servers already started are
// stopped.
func (b *Built) StartServers(ctx context.Context) error {
	for _, m := range b.Models {
		if !m.StartServer(ctx) {
			b.StopServers()
			return fmt.Errorf("start llama-server for %s", m.Path())
		}
		if err := m.WaitReady(ctx); err != nil {
			b.StopServers()
			return fmt.Errorf("llama-server for %s: %w", m.Path(), err)
		}
	}
	return nil
}

// StopServers terminates every started llama-server.
func (b *Built) StopServers() {
	for _, m := range b.Models {
		_ = m.StopServer()
	}
}

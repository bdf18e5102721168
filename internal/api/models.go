package api

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/samcharles93/llamabricks/internal/gguf"
)

const envModelsDir = "LLAMABRICKS_MODELS_DIR"

// ModelResolver maps request model IDs onto .gguf files.
type ModelResolver struct {
	DefaultModelPath string
	ModelsPath       string
}

// Resolve returns the artifact path for id. An empty id falls back to the
// default model, then to the only model in the models directory.
func (r ModelResolver) Resolve(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id != "" {
		if looksLikePath(id) {
			return filepath.Clean(id), nil
		}
		dir := r.modelsDir()
		if dir == "" {
			return "", newInvalidRequest(fmt.Sprintf("models-path is required to resolve model %q", id))
		}
		if resolved := resolveInDir(dir, id); resolved != "" {
			return resolved, nil
		}
		return "", fmt.Errorf("%w: model %q not found in %s", ErrNotFound, id, dir)
	}

	if r.DefaultModelPath != "" {
		return filepath.Clean(r.DefaultModelPath), nil
	}
	dir := r.modelsDir()
	if dir == "" {
		return "", newInvalidRequest("model is required")
	}
	models, err := discoverModels(dir)
	if err != nil {
		return "", err
	}
	switch len(models) {
	case 1:
		return models[0], nil
	case 0:
		return "", fmt.Errorf("%w: no .gguf models found in %s", ErrNotFound, dir)
	default:
		return "", newInvalidRequest(fmt.Sprintf("multiple models found in %s; specify model", dir))
	}
}

// List returns every resolvable model, the default one first.
func (r ModelResolver) List() ([]ModelInfo, error) {
	var out []ModelInfo
	seen := map[string]bool{}
	add := func(path string) {
		if seen[path] {
			return
		}
		seen[path] = true
		info := ModelInfo{ID: modelID(path), Object: "model", Path: path}
		if md, err := gguf.ReadFile(path); err == nil {
			info.Architecture = md.Architecture()
			info.ContextLength = md.ContextLength()
		}
		out = append(out, info)
	}
	if r.DefaultModelPath != "" {
		add(filepath.Clean(r.DefaultModelPath))
	}
	if dir := r.modelsDir(); dir != "" {
		models, err := discoverModels(dir)
		if err != nil {
			return nil, err
		}
		for _, m := range models {
			add(m)
		}
	}
	return out, nil
}

func (r ModelResolver) modelsDir() string {
	if dir := strings.TrimSpace(r.ModelsPath); dir != "" {
		return dir
	}
	return strings.TrimSpace(os.Getenv(envModelsDir))
}

func modelID(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func looksLikePath(v string) bool {
	if strings.Contains(v, string(filepath.Separator)) {
		return true
	}
	return strings.HasSuffix(strings.ToLower(v), ".gguf")
}

func resolveInDir(dir, name string) string {
	cand := filepath.Join(dir, name)
	if fileExists(cand) {
		return cand
	}
	if !strings.HasSuffix(strings.ToLower(name), ".gguf") {
		cand = filepath.Join(dir, name+".gguf")
		if fileExists(cand) {
			return cand
		}
	}
	return ""
}

func discoverModels(dir string) ([]string, error) {
	st, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !st.IsDir() {
		return nil, fmt.Errorf("models path is not a directory: %s", dir)
	}
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	models := make([]string, 0, len(ents))
	for _, e := range ents {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".gguf") {
			continue
		}
		models = append(models, filepath.Join(dir, e.Name()))
	}
	slices.Sort(models)
	return models, nil
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

package api

import "github.com/samcharles93/llamabricks/internal/pipedoc"

// RunRequest is the body of POST /v1/pipelines/run.
type RunRequest struct {
	Pipeline *pipedoc.Document `json:"pipeline"`
	Input    map[string]any    `json:"input,omitempty"`
	// Serve starts llama-server for each model brick for the duration of
	// the run.
	Serve bool `json:"serve,omitempty"`
}

// TokenizeRequest is the body of POST /v1/tokenize.
type TokenizeRequest struct {
	Model     string `json:"model"`
	Text      string `json:"text"`
	Operation string `json:"operation,omitempty"`
}

// ModelList is the body of GET /v1/models.
type ModelList struct {
	Object string      `json:"object"`
	Data   []ModelInfo `json:"data"`
}

// ModelInfo names one resolvable model.
type ModelInfo struct {
	ID            string `json:"id"`
	Object        string `json:"object"`
	Path          string `json:"path"`
	Architecture  string `json:"architecture,omitempty"`
	ContextLength uint64 `json:"context_length,omitempty"`
}

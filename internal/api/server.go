// Package api serves pipelines and single-brick operations over HTTP.
//
// Every execution holds one server-wide lock; the engine runs one request at
// a time.
package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/jellydator/ttlcache/v3"
	"github.com/labstack/echo/v5"

	"github.com/samcharles93/llamabricks/internal/brick"
	"github.com/samcharles93/llamabricks/internal/metrics"
	"github.com/samcharles93/llamabricks/internal/pipedoc"
)

// Config wires the server to the llama.cpp binaries and models.
type Config struct {
	Binaries pipedoc.Binaries
	Models   ModelResolver
	// StoreDir holds the files config bricks may use. Empty disables config
	// bricks.
	StoreDir string
}

// Tokenizer bricks are kept per model path so their token caches survive
// between requests.
const (
	tokenizerIdle = 30 * time.Minute
	maxTokenizers = 32
)

type Server struct {
	cfg  Config
	runs *RunStore

	mu         sync.Mutex
	tokenizers *ttlcache.Cache[string, *brick.Tokenization]
}

func NewServer(cfg Config, runs *RunStore) *Server {
	if runs == nil {
		runs = NewRunStore(DefaultRunRetention)
	}
	return &Server{
		cfg:  cfg,
		runs: runs,
		tokenizers: ttlcache.New[string, *brick.Tokenization](
			ttlcache.WithTTL[string, *brick.Tokenization](tokenizerIdle),
			ttlcache.WithCapacity[string, *brick.Tokenization](maxTokenizers),
		),
	}
}

// policy keeps request documents from choosing binaries or file paths.
func (s *Server) policy() pipedoc.Policy {
	return pipedoc.Policy{
		LockBinaries: true,
		DenyConfig:   s.cfg.StoreDir == "",
		ConfigDir:    s.cfg.StoreDir,
		ServerArgs:   pipedoc.SafeServerArgs,
	}
}

func (s *Server) Register(e *echo.Echo) {
	e.POST("/v1/pipelines/run", s.handleRunPipeline)
	e.POST("/v1/pipelines/validate", s.handleValidatePipeline)
	e.GET("/v1/runs/:id", s.handleGetRun)
	e.DELETE("/v1/runs/:id", s.handleDeleteRun)

	e.POST("/v1/generate", s.handleGenerate)
	e.POST("/v1/tokenize", s.handleTokenize)
	e.GET("/v1/models", s.handleListModels)

	e.GET("/healthz", s.handleHealth)
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))
}

func (s *Server) handleRunPipeline(c *echo.Context) error {
	req, err := decodeJSON[RunRequest](c)
	if err != nil {
		return writeFailure(c, err)
	}
	if req.Pipeline == nil {
		return writeBadRequest(c, "pipeline is required")
	}
	built, err := pipedoc.BuildWith(req.Pipeline, s.cfg.Binaries, s.policy())
	if err != nil {
		return writeBuildError(c, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx := c.Request().Context()
	if req.Serve {
		if err := built.StartServers(ctx); err != nil {
			return writeError(c, http.StatusBadGateway, "engine_error", err.Error())
		}
		defer built.StopServers()
	}

	var input brick.Values
	if req.Input != nil {
		input = normalizeValues(req.Input)
	}
	rep := built.Pipeline.Execute(ctx, input)
	s.runs.Save(rep)
	return c.JSON(http.StatusOK, rep)
}

func (s *Server) handleValidatePipeline(c *echo.Context) error {
	req, err := decodeJSON[RunRequest](c)
	if err != nil {
		return writeFailure(c, err)
	}
	if req.Pipeline == nil {
		return writeBadRequest(c, "pipeline is required")
	}
	built, err := pipedoc.BuildWith(req.Pipeline, s.cfg.Binaries, s.policy())
	if err != nil {
		return writeBuildError(c, err)
	}
	issues := []string{}
	if err := built.Pipeline.Validate(); err != nil {
		for _, e := range unjoin(err) {
			issues = append(issues, e.Error())
		}
	}
	return c.JSON(http.StatusOK, map[string]any{
		"valid":  len(issues) == 0,
		"issues": issues,
	})
}

func (s *Server) handleGetRun(c *echo.Context) error {
	rep, ok := s.runs.Get(c.Param("id"))
	if !ok {
		return writeNotFound(c, "run not found")
	}
	return c.JSON(http.StatusOK, rep)
}

func (s *Server) handleDeleteRun(c *echo.Context) error {
	id := c.Param("id")
	if !s.runs.Delete(id) {
		return writeNotFound(c, "run not found")
	}
	return c.JSON(http.StatusOK, map[string]any{"id": id, "deleted": true})
}

func (s *Server) handleGenerate(c *echo.Context) error {
	body, err := decodeJSON[map[string]any](c)
	if err != nil {
		return writeFailure(c, err)
	}
	model, _ := body["model"].(string)
	prompt, ok := body["prompt"].(string)
	if !ok {
		return writeBadRequest(c, "prompt is required")
	}
	path, err := s.cfg.Models.Resolve(model)
	if err != nil {
		return writeFailure(c, err)
	}

	params := normalizeValues(body)
	delete(params, "model")
	delete(params, "prompt")
	m := brick.NewModel(path, brick.ModelOptions{ServerBinary: s.cfg.Binaries.Server})
	g := brick.NewGeneration(m, params)
	g.SetExecutable(s.cfg.Binaries.Generate)

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runBrick(c, g, brick.Values{"prompt": prompt})
}

func (s *Server) handleTokenize(c *echo.Context) error {
	req, err := decodeJSON[TokenizeRequest](c)
	if err != nil {
		return writeFailure(c, err)
	}
	path, err := s.cfg.Models.Resolve(req.Model)
	if err != nil {
		return writeFailure(c, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	var tok *brick.Tokenization
	if item := s.tokenizers.Get(path); item != nil {
		tok = item.Value()
	} else {
		tok = brick.NewTokenization(brick.NewModel(path, brick.ModelOptions{}))
		tok.SetExecutable(s.cfg.Binaries.Tokenize)
		s.tokenizers.Set(path, tok, ttlcache.DefaultTTL)
	}
	in := brick.Values{"text": req.Text}
	if req.Operation != "" {
		in["operation"] = req.Operation
	}
	return s.runBrick(c, tok, in)
}

func (s *Server) runBrick(c *echo.Context, b brick.Brick, in brick.Values) error {
	res, err := brick.Run(c.Request().Context(), b, in)
	if err != nil {
		return writeError(c, http.StatusInternalServerError, "server_error", err.Error())
	}
	return c.JSON(http.StatusOK, res.Map())
}

func (s *Server) handleListModels(c *echo.Context) error {
	models, err := s.cfg.Models.List()
	if err != nil {
		return writeFailure(c, err)
	}
	if models == nil {
		models = []ModelInfo{}
	}
	return c.JSON(http.StatusOK, ModelList{Object: "list", Data: models})
}

func (s *Server) handleHealth(c *echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func unjoin(err error) []error {
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		return j.Unwrap()
	}
	return []error{err}
}

func normalizeValues(in map[string]any) brick.Values {
	out := make(brick.Values, len(in))
	for k, v := range in {
		out[k] = numberValue(v)
	}
	return out
}

func numberValue(v any) any {
	n, ok := v.(json.Number)
	if !ok {
		return v
	}
	if i, err := n.Int64(); err == nil {
		return i
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n.String()
}

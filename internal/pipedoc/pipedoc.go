// Package pipedoc reads pipeline documents and builds chain.Pipelines from
// them. A document names the pipeline and lists bricks by type with their
// constructor parameters:
//
//	{"name": "Writer", "bricks": [
//	  {"type": "model", "params": {"model_path": "/models/w.gguf", "port": 8080}},
//	  {"type": "generation", "params": {"max_tokens": 200}}
//	]}
//
// The same shape is accepted as YAML or TOML.
package pipedoc

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// DefaultName names pipelines whose document has none.
const DefaultName = "ConfigPipeline"

// Brick types.
const (
	TypeModel        = "model"
	TypeGeneration   = "generation"
	TypeTokenization = "tokenization"
	TypeConfig       = "config"
)

// Formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatTOML = "toml"
)

var (
	ErrUnknownBrickType = errors.New("unknown brick type")
	ErrUnknownFormat    = errors.New("unknown document format")
	ErrInvalidParam     = errors.New("invalid brick parameter")
	ErrNotAllowed       = errors.New("not allowed by policy")
)

// Document is a decoded pipeline document.
type Document struct {
	Name   string      `json:"name" yaml:"name" toml:"name"`
	Bricks []BrickSpec `json:"bricks" yaml:"bricks" toml:"bricks"`
}

// BrickSpec describes one brick. Name optionally renames the brick so two
// bricks of one type can sit in the same pipeline.
type BrickSpec struct {
	Type   string         `json:"type" yaml:"type" toml:"type"`
	Name   string         `json:"name,omitempty" yaml:"name,omitempty" toml:"name,omitempty"`
	Params map[string]any `json:"params,omitempty" yaml:"params,omitempty" toml:"params,omitempty"`
}

// FormatFor picks a format from a file extension. Anything unrecognised is
// treated as JSON.
func FormatFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".toml":
		return FormatTOML
	default:
		return FormatJSON
	}
}

// ReadFile decodes the document at path.
func ReadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc, err := Decode(data, FormatFor(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Decode parses data in the given format.
func Decode(data []byte, format string) (*Document, error) {
	var doc Document
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode json pipeline: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decode yaml pipeline: %w", err)
		}
	case FormatTOML:
		if _, err := toml.Decode(string(data), &doc); err != nil {
			return nil, fmt.Errorf("decode toml pipeline: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	for i := range doc.Bricks {
		doc.Bricks[i].Params = normalizeParams(doc.Bricks[i].Params)
	}
	return &doc, nil
}

// normalizeParams maps the numeric types of the three decoders onto int64
// for integers and float64 otherwise.
func normalizeParams(params map[string]any) map[string]any {
	if params == nil {
		return map[string]any{}
	}
	out := make(map[string]any, len(params))
	for k, v := range params {
		out[k] = normalizeNumber(v)
	}
	return out
}

func normalizeNumber(v any) any {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i
		}
		if f, err := n.Float64(); err == nil {
			return f
		}
		return n.String()
	case int:
		return int64(n)
	default:
		return v
	}
}

func intParam(params map[string]any, key string) (int, error) {
	v, ok := params[key]
	if !ok || v == nil {
		return 0, nil
	}
	switch n := v.(type) {
	case int64:
		return int(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("%w: %s=%v is not an integer", ErrInvalidParam, key, v)
		}
		return int(n), nil
	case string:
		i, err := strconv.Atoi(n)
		if err != nil {
			return 0, fmt.Errorf("%w: %s=%q is not an integer", ErrInvalidParam, key, n)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("%w: %s has type %T", ErrInvalidParam, key, v)
	}
}

func stringParam(params map[string]any, key string) (string, error) {
	v, ok := params[key]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s has type %T, want string", ErrInvalidParam, key, v)
	}
	return s, nil
}

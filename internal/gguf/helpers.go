package gguf

import "fmt"

// Architecture returns general.architecture, e.g. "llama".
func (m *Metadata) Architecture() string {
	s, _ := GetString(m.KV, "general.architecture")
	return s
}

// Name returns general.name.
func (m *Metadata) Name() string {
	s, _ := GetString(m.KV, "general.name")
	return s
}

// ContextLength returns <arch>.context_length, or 0 when absent.
func (m *Metadata) ContextLength() uint64 {
	arch := m.Architecture()
	if arch == "" {
		return 0
	}
	v, _ := GetUint64(m.KV, arch+".context_length")
	return v
}

// VocabSize returns the length of tokenizer.ggml.tokens.
func (m *Metadata) VocabSize() uint64 {
	v, ok := m.KV["tokenizer.ggml.tokens"]
	if !ok {
		return 0
	}
	arr, ok := v.Value.(ArrayValue)
	if !ok {
		return 0
	}
	return arr.Len
}

// Summary flattens the commonly reported fields into a map suitable for
// JSON output. Absent fields are omitted.
func (m *Metadata) Summary() map[string]any {
	out := map[string]any{
		"version":      m.Header.Version,
		"tensor_count": m.Header.TensorCount,
	}
	if s := m.Architecture(); s != "" {
		out["architecture"] = s
	}
	if s := m.Name(); s != "" {
		out["name"] = s
	}
	if n := m.ContextLength(); n > 0 {
		out["context_length"] = n
	}
	if n := m.VocabSize(); n > 0 {
		out["vocab_size"] = n
	}
	if ft, ok := GetUint64(m.KV, "general.file_type"); ok {
		out["file_type"] = ft
	}
	if m.Size > 0 {
		out["size_bytes"] = m.Size
	}
	return out
}

func GetString(kv map[string]Value, key string) (string, bool) {
	v, ok := kv[key]
	if !ok {
		return "", false
	}
	s, ok := v.Value.(string)
	return s, ok
}

func GetUint64(kv map[string]Value, key string) (uint64, bool) {
	v, ok := kv[key]
	if !ok {
		return 0, false
	}
	return asUint64(v.Value)
}

func GetFloat64(kv map[string]Value, key string) (float64, bool) {
	v, ok := kv[key]
	if !ok {
		return 0, false
	}
	switch t := v.Value.(type) {
	case float32:
		return float64(t), true
	case float64:
		return t, true
	default:
		return 0, false
	}
}

// GetArray returns the retained elements of an array value as []T. It fails
// if any element is not a T.
func GetArray[T any](kv map[string]Value, key string) ([]T, bool) {
	v, ok := kv[key]
	if !ok {
		return nil, false
	}
	arr, ok := v.Value.(ArrayValue)
	if !ok {
		return nil, false
	}
	out := make([]T, 0, len(arr.Values))
	for _, item := range arr.Values {
		t, ok := item.(T)
		if !ok {
			return nil, false
		}
		out = append(out, t)
	}
	return out, true
}

// FormatValue renders a value for terminal output. Arrays show their type
// and length only.
func FormatValue(v Value) string {
	if arr, ok := v.Value.(ArrayValue); ok {
		return fmt.Sprintf("[%s; %d]", arr.ElemType, arr.Len)
	}
	return fmt.Sprint(v.Value)
}

func asUint64(v any) (uint64, bool) {
	switch t := v.(type) {
	case uint8:
		return uint64(t), true
	case uint16:
		return uint64(t), true
	case uint32:
		return uint64(t), true
	case uint64:
		return t, true
	case int8:
		return uint64(t), t >= 0
	case int16:
		return uint64(t), t >= 0
	case int32:
		return uint64(t), t >= 0
	case int64:
		return uint64(t), t >= 0
	default:
		return 0, false
	}
}

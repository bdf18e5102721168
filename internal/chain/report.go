package chain

import (
	"bytes"

	"github.com/goccy/go-json"

	"github.com/samcharles93/llamabricks/internal/brick"
)

// Results maps brick names to flattened results in execution order.
type Results struct {
	names []string
	byKey map[string]map[string]any
}

func newResults() *Results {
	return &Results{byKey: map[string]map[string]any{}}
}

func (r *Results) put(name string, res brick.Result) {
	if _, ok := r.byKey[name]; !ok {
		r.names = append(r.names, name)
	}
	r.byKey[name] = res.Map()
}

// Has reports whether name executed in this run.
func (r *Results) Has(name string) bool {
	_, ok := r.byKey[name]
	return ok
}

// Get returns the flattened result recorded for name.
func (r *Results) Get(name string) (map[string]any, bool) {
	m, ok := r.byKey[name]
	return m, ok
}

// Names returns brick names in execution order.
func (r *Results) Names() []string {
	return append([]string(nil), r.names...)
}

// Len returns the number of recorded results.
func (r *Results) Len() int { return len(r.names) }

// MarshalJSON encodes the results as an object whose keys keep execution
// order.
func (r *Results) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range r.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(r.byKey[name])
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Report is the outcome of one chain run.
type Report struct {
	RunID     string       `json:"run_id,omitempty"`
	ChainName string       `json:"chain_name"`
	Status    brick.Status `json:"status"`
	Error     string       `json:"error,omitempty"`
	Results   *Results     `json:"results"`
}

// OK reports whether the run finished without a fault.
func (r *Report) OK() bool { return r.Status != brick.StatusError }

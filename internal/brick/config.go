package brick

import (
	"context"
	"errors"

	"github.com/samcharles93/llamabricks/internal/kvstore"
)

// Config actions.
const (
	ActionLoad = "load"
	ActionSave = "save"
	ActionGet  = "get"
	ActionSet  = "set"
)

// Config exposes a JSON key/value file as a brick.
type Config struct {
	Base
	store *kvstore.Store
}

// NewConfig returns a Config backed by path. An empty path gives an in-memory
// store that cannot be saved.
func NewConfig(path string) *Config {
	return &Config{Base: NewBase("ConfigBrick"), store: kvstore.New(path)}
}

// Store exposes the backing store.
func (c *Config) Store() *kvstore.Store { return c.store }

// Execute dispatches on "action", which defaults to load.
func (c *Config) Execute(ctx context.Context, in Values) (Result, error) {
	action, _ := in.String("action")
	if action == "" {
		action = ActionLoad
	}

	var res Result
	switch action {
	case ActionLoad:
		found, err := c.store.Load()
		switch {
		case err != nil:
			res = Failure(err.Error(), Values{})
		case !found:
			res = Result{Status: StatusNoFile, Payload: Values{"config": map[string]any{}}}
		default:
			res = Result{Status: StatusLoaded, Payload: Values{"config": c.store.Values()}}
		}
	case ActionSave:
		extra := map[string]any{}
		for k, v := range in {
			if k != "action" {
				extra[k] = v
			}
		}
		if err := c.store.Save(extra); err != nil {
			msg := err.Error()
			if errors.Is(err, kvstore.ErrNoPath) {
				msg = "No config path specified"
			}
			res = Failure(msg, Values{})
		} else {
			res = Result{Status: StatusSaved, Payload: Values{}}
		}
	case ActionGet:
		key, _ := in.String("key")
		res = Success(Values{"value": c.store.Get(key)})
	case ActionSet:
		key, _ := in.String("key")
		c.store.Set(key, in["value"])
		res = Result{Status: StatusSet, Payload: Values{"key": key, "value": in["value"]}}
	default:
		res = Failure("Unknown action: "+action, Values{})
	}

	return res.WithOutputs(Values{
		"config":         c.store.Values(),
		DefaultOutputKey: res.Map(),
	}), nil
}

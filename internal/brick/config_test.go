package brick

import (
	"context"
	"path/filepath"
	"testing"
)

func TestConfigRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "cfg.json")
	ctx := context.Background()
	c := NewConfig(path)

	res, _ := c.Execute(ctx, Values{})
	if res.Status != StatusNoFile {
		t.Fatalf("initial load status = %q, want no_file", res.Status)
	}

	res, _ = c.Execute(ctx, Values{"action": "set", "key": "temperature", "value": 0.5})
	if res.Status != StatusSet {
		t.Fatalf("set status = %q, want set", res.Status)
	}
	res, _ = c.Execute(ctx, Values{"action": "save", "model": "tiny"})
	if res.Status != StatusSaved {
		t.Fatalf("save status = %q (%s), want saved", res.Status, res.Error)
	}

	fresh := NewConfig(path)
	res, _ = fresh.Execute(ctx, Values{"action": "load"})
	if res.Status != StatusLoaded {
		t.Fatalf("reload status = %q, want loaded", res.Status)
	}
	cfg, _ := res.Payload["config"].(map[string]any)
	if cfg["temperature"] != 0.5 || cfg["model"] != "tiny" {
		t.Fatalf("config = %v", cfg)
	}

	res, _ = fresh.Execute(ctx, Values{"action": "get", "key": "model"})
	if res.Payload["value"] != "tiny" {
		t.Fatalf("get value = %v, want tiny", res.Payload["value"])
	}
	res, _ = fresh.Execute(ctx, Values{"action": "get", "key": "absent"})
	if res.Status != StatusSuccess || res.Payload["value"] != nil {
		t.Fatalf("get absent = %+v", res)
	}
}

func TestConfigSaveWithoutPath(t *testing.T) {
	t.Parallel()

	res, _ := NewConfig("").Execute(context.Background(), Values{"action": "save"})
	if res.Status != StatusError || res.Error != "No config path specified" {
		t.Fatalf("result = %+v", res)
	}
}

func TestConfigUnknownAction(t *testing.T) {
	t.Parallel()

	res, _ := NewConfig("").Execute(context.Background(), Values{"action": "drop"})
	if res.Error != "Unknown action: drop" {
		t.Fatalf("error = %q", res.Error)
	}
}

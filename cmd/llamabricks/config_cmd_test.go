package main

import (
	"bytes"
	"context"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/samcharles93/llamabricks/internal/brick"
)

func TestConfigSetGetList(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "store.json")

	var out bytes.Buffer
	if err := configSet(ctx, brick.NewConfig(path), "temperature", "0.5", &out); err != nil {
		t.Fatalf("configSet() error = %v", err)
	}
	if err := configSet(ctx, brick.NewConfig(path), "model", "tiny", &out); err != nil {
		t.Fatalf("configSet() error = %v", err)
	}
	if got := out.String(); !strings.Contains(got, "Set temperature = 0.5") || !strings.Contains(got, "Set model = tiny") {
		t.Fatalf("set output = %q", got)
	}

	out.Reset()
	if err := configGet(ctx, brick.NewConfig(path), "model", &out); err != nil {
		t.Fatalf("configGet() error = %v", err)
	}
	if got := out.String(); got != "model: tiny\n" {
		t.Fatalf("get output = %q", got)
	}

	out.Reset()
	if err := configList(ctx, brick.NewConfig(path), &out); err != nil {
		t.Fatalf("configList() error = %v", err)
	}
	if got := out.String(); !strings.Contains(got, `"temperature": 0.5`) {
		t.Fatalf("list output = %q", got)
	}
}

func TestConfigListEmpty(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	if err := configList(context.Background(), brick.NewConfig(filepath.Join(t.TempDir(), "none.json")), &out); err != nil {
		t.Fatalf("configList() error = %v", err)
	}
	if out.String() != "No configuration found\n" {
		t.Fatalf("output = %q", out.String())
	}
}

func TestParseValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		want any
	}{
		{"0.5", 0.5},
		{"true", true},
		{`"quoted"`, "quoted"},
		{"plain words", "plain words"},
		{`[1,2]`, []any{float64(1), float64(2)}},
	}
	for _, tt := range tests {
		if got := parseValue(tt.raw); !reflect.DeepEqual(got, tt.want) {
			t.Fatalf("parseValue(%q) = %#v, want %#v", tt.raw, got, tt.want)
		}
	}
}

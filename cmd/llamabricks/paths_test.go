package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestDiscoverModelsSorted(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.gguf", "a.GGUF", "ignore.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("write file %s: %v", name, err)
		}
	}

	got, err := discoverModels(dir)
	if err != nil {
		t.Fatalf("discoverModels returned error: %v", err)
	}
	want := []string{filepath.Join(dir, "a.GGUF"), filepath.Join(dir, "b.gguf")}
	if len(got) != len(want) {
		t.Fatalf("unexpected model count: got %d want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("unexpected ordering at %d: got %q want %q", i, got[i], want[i])
		}
	}
}

func TestResolveModelPath(t *testing.T) {
	t.Run("model flag bypasses env", func(t *testing.T) {
		t.Setenv(envModelsDir, "")
		got, err := resolveModelPath("/tmp/model.gguf", "", bytes.NewBuffer(nil), io.Discard)
		if err != nil {
			t.Fatalf("resolveModelPath returned error: %v", err)
		}
		if got != filepath.Clean("/tmp/model.gguf") {
			t.Fatalf("unexpected model path: got %q", got)
		}
	})

	t.Run("nothing configured", func(t *testing.T) {
		t.Setenv(envModelsDir, "")
		if _, err := resolveModelPath("", "", bytes.NewBuffer(nil), io.Discard); err == nil {
			t.Fatal("expected error without --model or models dir")
		}
	})

	t.Run("single model selects automatically", func(t *testing.T) {
		dir := t.TempDir()
		only := filepath.Join(dir, "only.gguf")
		if err := os.WriteFile(only, []byte("x"), 0o644); err != nil {
			t.Fatalf("write model: %v", err)
		}
		t.Setenv(envModelsDir, dir)

		prevTTY := stdinIsTTY
		stdinIsTTY = func() bool { return false }
		defer func() { stdinIsTTY = prevTTY }()

		got, err := resolveModelPath("", "", bytes.NewBuffer(nil), io.Discard)
		if err != nil {
			t.Fatalf("resolveModelPath returned error: %v", err)
		}
		if got != only {
			t.Fatalf("unexpected model path: got %q want %q", got, only)
		}
	})

	t.Run("multiple models requires tty", func(t *testing.T) {
		dir := t.TempDir()
		for _, name := range []string{"a.gguf", "b.gguf"} {
			if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
				t.Fatalf("write model %s: %v", name, err)
			}
		}

		prevTTY := stdinIsTTY
		stdinIsTTY = func() bool { return false }
		defer func() { stdinIsTTY = prevTTY }()

		if _, err := resolveModelPath("", dir, bytes.NewBuffer(nil), io.Discard); err == nil {
			t.Fatalf("expected error when multiple models and stdin is not a tty")
		}
	})

	t.Run("interactive selection chooses sorted index", func(t *testing.T) {
		dir := t.TempDir()
		a := filepath.Join(dir, "a.gguf")
		b := filepath.Join(dir, "b.gguf")
		for _, p := range []string{b, a} {
			if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
				t.Fatalf("write model %s: %v", p, err)
			}
		}

		prevTTY := stdinIsTTY
		stdinIsTTY = func() bool { return true }
		defer func() { stdinIsTTY = prevTTY }()

		got, err := resolveModelPath("", dir, bytes.NewBufferString("9\n2\n"), io.Discard)
		if err != nil {
			t.Fatalf("resolveModelPath returned error: %v", err)
		}
		if got != b {
			t.Fatalf("unexpected model selection: got %q want %q", got, b)
		}
	})
}

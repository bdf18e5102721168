package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/llamabricks/internal/chain"
)

func TestParseInput(t *testing.T) {
	t.Parallel()

	v, err := parseInput(`{"prompt": "hi"}`)
	if err != nil || v["prompt"] != "hi" {
		t.Fatalf("parseInput() = %v, %v", v, err)
	}
	if v, err := parseInput(""); err != nil || len(v) != 0 {
		t.Fatalf("parseInput(\"\") = %v, %v", v, err)
	}
	for _, bad := range []string{"null", "[1]", "{"} {
		if _, err := parseInput(bad); err == nil {
			t.Fatalf("parseInput(%q) error = nil", bad)
		}
	}
}

func TestReportValidation(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	if err := reportValidation(&out, nil); err != nil || !strings.Contains(out.String(), "valid") {
		t.Fatalf("reportValidation(nil) = %v, %q", err, out.String())
	}

	out.Reset()
	err := reportValidation(&out, errors.Join(chain.ErrCycle, chain.ErrUnreachable))
	var ec cli.ExitCoder
	if !errors.As(err, &ec) || ec.ExitCode() != 1 {
		t.Fatalf("reportValidation() error = %v, want exit 1", err)
	}
	if n := strings.Count(out.String(), "- "); n != 2 {
		t.Fatalf("listed %d issues, want 2:\n%s", n, out.String())
	}
}

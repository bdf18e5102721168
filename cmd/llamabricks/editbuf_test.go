package main

import (
	"bytes"
	"testing"
)

// typeKeys feeds input through a decoder into a fresh buffer and stops at
// the first result that ends the line.
func typeKeys(history []string, input string) (string, editResult) {
	buf := newEditBuffer(history)
	var keys keyDecoder
	for i := 0; i < len(input); i++ {
		b := input[i]
		switch r := buf.apply(keys.feed(b), b); r {
		case editSubmit, editAbort, editEnd:
			return buf.String(), r
		}
	}
	return buf.String(), editNone
}

func TestEditBufferKeys(t *testing.T) {
	t.Parallel()

	history := []string{"one", "two"}
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain", input: "hello\r", want: "hello"},
		{name: "newline submits", input: "hi\n", want: "hi"},
		{name: "insert mid line", input: "abc\x1b[D\x1b[DX\r", want: "aXbc"},
		{name: "backspace", input: "abcd\x7f\x08\r", want: "ab"},
		{name: "backspace at start", input: "\x7fab\r", want: "ab"},
		{name: "home and delete", input: "abc\x01\x1b[3~\r", want: "bc"},
		{name: "end after home", input: "ab\x01\x05c\r", want: "abc"},
		{name: "csi home end", input: "ab\x1b[HX\x1b[FY\r", want: "XabY"},
		{name: "kill word back", input: "foo bar\x17\r", want: "foo "},
		{name: "alt backspace", input: "foo bar  \x1b\x7f\r", want: "foo "},
		{name: "alt b", input: "foo bar\x1bbX\r", want: "foo Xbar"},
		{name: "alt f", input: "foo bar\x01\x1bfX\r", want: "fooX bar"},
		{name: "ctrl right", input: "a b\x01\x1b[1;5CX\r", want: "aX b"},
		{name: "ctrl left", input: "a bc\x1b[5DX\r", want: "a Xbc"},
		{name: "kill word forward", input: "foo bar\x01\x1b[3;5~\r", want: " bar"},
		{name: "unknown escape ignored", input: "a\x1b[9Zb\x1bqc\r", want: "abc"},
		{name: "control bytes ignored", input: "a\x02\x07b\r", want: "ab"},
		{name: "history newest", input: "\x1b[A\r", want: "two"},
		{name: "history oldest stops", input: "\x1b[A\x1b[A\x1b[A\r", want: "one"},
		{name: "history forward", input: "\x1b[A\x1b[A\x1b[B\r", want: "two"},
		{name: "history restores draft", input: "dra\x1b[A\x1b[Bft\r", want: "draft"},
		{name: "down without browsing", input: "x\x1b[B\r", want: "x"},
		{name: "edit recalled entry", input: "\x1b[A!\r", want: "two!"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, r := typeKeys(history, tt.input)
			if r != editSubmit || got != tt.want {
				t.Fatalf("typeKeys(%q) = %q, %d, want %q, submit", tt.input, got, r, tt.want)
			}
		})
	}
}

func TestEditBufferEndsInput(t *testing.T) {
	t.Parallel()

	if _, r := typeKeys(nil, "abc\x03"); r != editAbort {
		t.Fatalf("ctrl-c result = %d, want abort", r)
	}
	if _, r := typeKeys(nil, "\x04"); r != editEnd {
		t.Fatalf("ctrl-d on empty line result = %d, want end", r)
	}
	got, r := typeKeys(nil, "ab\x04c\r")
	if r != editSubmit || got != "abc" {
		t.Fatalf("ctrl-d with text = %q, %d, want ignored", got, r)
	}
	if _, r := typeKeys(nil, "\x1b[A\r"); r != editSubmit {
		t.Fatalf("up with empty history result = %d, want submit", r)
	}
}

func TestEditBufferRender(t *testing.T) {
	t.Parallel()

	buf := newEditBuffer(nil)
	var keys keyDecoder
	for _, b := range []byte("abc\x1b[D") {
		buf.apply(keys.feed(b), b)
	}
	var out bytes.Buffer
	buf.render(&out, "> ")
	if want := "\r> abc\x1b[K\r> ab"; out.String() != want {
		t.Fatalf("render() = %q, want %q", out.String(), want)
	}
}

package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const maxHistory = 500

// lineEditor reads prompts for the interactive command. History is shared
// between raw terminal editing and piped input and persisted to path.
type lineEditor struct {
	path    string
	history []string
	in      *bufio.Reader
	out     io.Writer
	raw     bool
}

func newLineEditor(path string, in io.Reader, out io.Writer, raw bool) *lineEditor {
	return &lineEditor{path: path, in: bufio.NewReader(in), out: out, raw: raw}
}

// readLine returns one line without its terminator. Piped input gets no
// prompt and is not recorded.
func (e *lineEditor) readLine(prompt string) (string, error) {
	if !e.raw {
		return e.readPiped()
	}
	return e.readTerminal(prompt)
}

// load seeds history from the editor's file. A missing file is not an error.
func (e *lineEditor) load() error {
	if e.path == "" {
		return nil
	}
	data, err := os.ReadFile(e.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) != "" {
			e.history = append(e.history, line)
		}
	}
	e.history = lastEntries(e.history)
	return nil
}

// save writes the most recent history entries back to the editor's file.
func (e *lineEditor) save() error {
	if e.path == "" || len(e.history) == 0 {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(e.path), 0o755); err != nil {
		return err
	}
	h := lastEntries(e.history)
	return os.WriteFile(e.path, []byte(strings.Join(h, "\n")+"\n"), 0o600)
}

// remember appends line unless it is blank or repeats the previous entry.
func (e *lineEditor) remember(line string) {
	if strings.TrimSpace(line) == "" {
		return
	}
	if n := len(e.history); n > 0 && e.history[n-1] == line {
		return
	}
	e.history = append(e.history, line)
}

// readPiped returns io.EOF only once no text is left.
func (e *lineEditor) readPiped() (string, error) {
	s, err := e.in.ReadString('\n')
	if err == io.EOF && s != "" {
		err = nil
	}
	if err != nil {
		return "", err
	}
	return trimTrailingNewline(s), nil
}

// readCooked is the terminal fallback when raw mode is unavailable.
func (e *lineEditor) readCooked(prompt string) (string, error) {
	_, _ = fmt.Fprint(e.out, prompt)
	line, err := e.readPiped()
	if err == nil {
		e.remember(line)
	}
	return line, err
}

func lastEntries(h []string) []string {
	if len(h) > maxHistory {
		return h[len(h)-maxHistory:]
	}
	return h
}

func trimTrailingNewline(s string) string {
	s = strings.TrimSuffix(s, "\n")
	return strings.TrimSuffix(s, "\r")
}

package main

import (
	"fmt"
	"io"
)

type key int

const (
	keyNone key = iota
	keyChar
	keyEnter
	keyInterrupt
	keyEndOfInput
	keyBackspace
	keyDelete
	keyLeft
	keyRight
	keyHome
	keyEnd
	keyUp
	keyDown
	keyWordLeft
	keyWordRight
	keyKillWordBack
	keyKillWordForward
)

// Control and Alt bindings are emacs style.
var controlKeys = map[byte]key{
	'\r': keyEnter,
	'\n': keyEnter,
	1:    keyHome,
	3:    keyInterrupt,
	4:    keyEndOfInput,
	5:    keyEnd,
	8:    keyBackspace,
	23:   keyKillWordBack,
	127:  keyBackspace,
}

var altKeys = map[byte]key{
	'b': keyWordLeft,
	'B': keyWordLeft,
	'f': keyWordRight,
	'F': keyWordRight,
	127: keyKillWordBack,
}

var csiKeys = map[string]key{
	"A":    keyUp,
	"B":    keyDown,
	"C":    keyRight,
	"D":    keyLeft,
	"H":    keyHome,
	"F":    keyEnd,
	"3~":   keyDelete,
	"1;5C": keyWordRight,
	"5C":   keyWordRight,
	"1;5D": keyWordLeft,
	"5D":   keyWordLeft,
	"3;5~": keyKillWordForward,
}

// keyDecoder turns terminal input bytes into keys, consuming escape
// sequences whole. Unknown sequences decode to keyNone.
type keyDecoder struct {
	state int
	seq   []byte
}

const (
	decodeText = iota
	decodeEscape
	decodeCSI
)

func (d *keyDecoder) feed(b byte) key {
	switch d.state {
	case decodeEscape:
		d.state = decodeText
		if b == '[' {
			d.state = decodeCSI
			d.seq = d.seq[:0]
			return keyNone
		}
		return altKeys[b]
	case decodeCSI:
		d.seq = append(d.seq, b)
		if (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z') || b == '~' {
			d.state = decodeText
			return csiKeys[string(d.seq)]
		}
		return keyNone
	}
	if b == 27 {
		d.state = decodeEscape
		return keyNone
	}
	if k, ok := controlKeys[b]; ok {
		return k
	}
	if b >= 32 {
		return keyChar
	}
	return keyNone
}

type editResult int

const (
	editNone editResult = iota
	editRedraw
	editSubmit
	editAbort
	editEnd
)

// editBuffer is the line being edited plus a cursor into history. Lines are
// edited as bytes.
type editBuffer struct {
	line     []byte
	cursor   int
	history  []string
	histPos  int
	browsing bool
	draft    string
}

func newEditBuffer(history []string) *editBuffer {
	return &editBuffer{line: make([]byte, 0, 256), history: history, histPos: len(history)}
}

func (e *editBuffer) String() string { return string(e.line) }

// apply performs k; b is the typed byte for keyChar.
func (e *editBuffer) apply(k key, b byte) editResult {
	switch k {
	case keyChar:
		e.line = append(e.line, 0)
		copy(e.line[e.cursor+1:], e.line[e.cursor:])
		e.line[e.cursor] = b
		e.cursor++
	case keyEnter:
		return editSubmit
	case keyInterrupt:
		return editAbort
	case keyEndOfInput:
		if len(e.line) == 0 {
			return editEnd
		}
		return editNone
	case keyBackspace:
		if e.cursor == 0 {
			return editNone
		}
		e.cut(e.cursor-1, e.cursor)
	case keyDelete:
		if e.cursor == len(e.line) {
			return editNone
		}
		e.cut(e.cursor, e.cursor+1)
	case keyLeft:
		if e.cursor == 0 {
			return editNone
		}
		e.cursor--
	case keyRight:
		if e.cursor == len(e.line) {
			return editNone
		}
		e.cursor++
	case keyHome:
		e.cursor = 0
	case keyEnd:
		e.cursor = len(e.line)
	case keyWordLeft:
		e.cursor = e.wordStart()
	case keyWordRight:
		e.cursor = e.wordEnd()
	case keyKillWordBack:
		e.cut(e.wordStart(), e.cursor)
	case keyKillWordForward:
		e.cut(e.cursor, e.wordEnd())
	case keyUp:
		return e.older()
	case keyDown:
		return e.newer()
	default:
		return editNone
	}
	return editRedraw
}

// cut removes line[from:to] and leaves the cursor at from.
func (e *editBuffer) cut(from, to int) {
	e.line = append(e.line[:from], e.line[to:]...)
	e.cursor = from
}

func isBlank(b byte) bool { return b == ' ' || b == '\t' }

// wordStart skips blanks then a word to the left of the cursor.
func (e *editBuffer) wordStart() int {
	i := e.cursor
	for i > 0 && isBlank(e.line[i-1]) {
		i--
	}
	for i > 0 && !isBlank(e.line[i-1]) {
		i--
	}
	return i
}

// wordEnd skips blanks then a word to the right of the cursor.
func (e *editBuffer) wordEnd() int {
	i := e.cursor
	for i < len(e.line) && isBlank(e.line[i]) {
		i++
	}
	for i < len(e.line) && !isBlank(e.line[i]) {
		i++
	}
	return i
}

// older steps back through history, stashing the typed line first.
func (e *editBuffer) older() editResult {
	if len(e.history) == 0 {
		return editNone
	}
	if !e.browsing {
		e.draft = string(e.line)
		e.browsing = true
		e.histPos = len(e.history)
	}
	if e.histPos == 0 {
		return editNone
	}
	e.histPos--
	e.replace(e.history[e.histPos])
	return editRedraw
}

// newer steps forward and restores the stashed line past the newest entry.
func (e *editBuffer) newer() editResult {
	if !e.browsing {
		return editNone
	}
	if e.histPos < len(e.history)-1 {
		e.histPos++
		e.replace(e.history[e.histPos])
		return editRedraw
	}
	e.histPos = len(e.history)
	e.browsing = false
	e.replace(e.draft)
	return editRedraw
}

func (e *editBuffer) replace(s string) {
	e.line = append(e.line[:0], s...)
	e.cursor = len(e.line)
}

// render rewrites the prompt line and parks the terminal cursor.
func (e *editBuffer) render(w io.Writer, prompt string) {
	_, _ = fmt.Fprintf(w, "\r%s%s\x1b[K", prompt, e.line)
	if e.cursor < len(e.line) {
		_, _ = fmt.Fprintf(w, "\r%s%s", prompt, e.line[:e.cursor])
	}
}

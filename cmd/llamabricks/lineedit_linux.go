//go:build linux

package main

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// readTerminal edits one line with stdin in raw mode. Ctrl-C, and Ctrl-D on
// an empty line, end input with io.EOF. Terminals that refuse raw mode fall
// back to cooked reads.
func (e *lineEditor) readTerminal(prompt string) (string, error) {
	restore, err := enterRawMode(int(os.Stdin.Fd()))
	if err != nil {
		return e.readCooked(prompt)
	}
	defer restore()

	_, _ = fmt.Fprint(e.out, prompt)
	buf := newEditBuffer(e.history)
	var keys keyDecoder
	for {
		b, err := e.in.ReadByte()
		if err != nil {
			return "", err
		}
		k := keys.feed(b)
		switch buf.apply(k, b) {
		case editRedraw:
			buf.render(e.out, prompt)
		case editSubmit:
			_, _ = fmt.Fprint(e.out, "\r\n")
			line := buf.String()
			e.remember(line)
			return line, nil
		case editAbort:
			_, _ = fmt.Fprint(e.out, "^C\r\n")
			return "", io.EOF
		case editEnd:
			_, _ = fmt.Fprint(e.out, "\r\n")
			return "", io.EOF
		}
	}
}

// enterRawMode disables canonical input, echo and signal keys on fd and
// returns a function that restores the previous state.
func enterRawMode(fd int) (func(), error) {
	old, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return nil, err
	}
	raw := *old
	raw.Lflag &^= unix.ICANON | unix.ECHO | unix.ISIG
	raw.Cc[unix.VMIN] = 1
	raw.Cc[unix.VTIME] = 0
	if err := unix.IoctlSetTermios(fd, unix.TCSETS, &raw); err != nil {
		return nil, err
	}
	return func() { _ = unix.IoctlSetTermios(fd, unix.TCSETS, old) }, nil
}

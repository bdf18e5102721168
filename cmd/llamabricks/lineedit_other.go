//go:build !linux

package main

func (e *lineEditor) readTerminal(prompt string) (string, error) {
	return e.readCooked(prompt)
}

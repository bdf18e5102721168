// Package reasoning separates <think> blocks from generated text.
package reasoning

import "strings"

const (
	openTag  = "<think>"
	closeTag = "</think>"
)

// Parts is generated text split into the visible answer and the model's
// reasoning.
type Parts struct {
	Content   string
	Reasoning string
}

// Split extracts every <think>...</think> block from raw, matching tags
// case-insensitively. An unclosed block runs to the end of the text. A close
// tag with no opening tag before it means the prompt template opened the
// block, so everything before it is reasoning.
func Split(raw string) Parts {
	lower := strings.ToLower(raw)

	var content, reasoning strings.Builder
	cursor := 0

	open := strings.Index(lower, openTag)
	if end := strings.Index(lower, closeTag); end >= 0 && (open < 0 || end < open) {
		reasoning.WriteString(raw[:end])
		cursor = end + len(closeTag)
	}

	for cursor < len(raw) {
		start := strings.Index(lower[cursor:], openTag)
		if start < 0 {
			content.WriteString(raw[cursor:])
			break
		}
		start += cursor
		content.WriteString(raw[cursor:start])

		body := start + len(openTag)
		end := strings.Index(lower[body:], closeTag)
		if end < 0 {
			reasoning.WriteString(raw[body:])
			break
		}
		reasoning.WriteString(raw[body : body+end])
		cursor = body + end + len(closeTag)
	}

	return Parts{
		Content:   strings.TrimSpace(content.String()),
		Reasoning: strings.TrimSpace(reasoning.String()),
	}
}

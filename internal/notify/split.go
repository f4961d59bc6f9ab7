package notify

import (
	"strings"
	"unicode/utf8"
)

// DefaultLimit is Telegram's maximum message length in characters.
const DefaultLimit = 4096

// Split cuts text into transport-sized parts without breaking a line across
// parts when avoidable.  Parts concatenated in order reproduce the input
// exactly, newlines included.  A single line longer than the limit is the
// one case where a hard cut happens.
func Split(text string, limit int) []string {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if len(text) <= limit {
		return []string{text}
	}

	var parts []string
	var chunk strings.Builder
	for _, line := range splitKeepEnds(text) {
		for len(line) > limit {
			// Oversized single line: flush what we have, then hard-cut at a
			// rune boundary so a multi-byte character is never severed.
			if chunk.Len() > 0 {
				parts = append(parts, chunk.String())
				chunk.Reset()
			}
			cut := limit
			for cut > 0 && !utf8.RuneStart(line[cut]) {
				cut--
			}
			if cut == 0 {
				cut = limit
			}
			parts = append(parts, line[:cut])
			line = line[cut:]
		}
		if chunk.Len()+len(line) > limit {
			parts = append(parts, chunk.String())
			chunk.Reset()
		}
		chunk.WriteString(line)
	}
	if chunk.Len() > 0 {
		parts = append(parts, chunk.String())
	}
	return parts
}

// splitKeepEnds splits text into lines preserving their trailing newline, so
// rejoining the pieces loses nothing.
func splitKeepEnds(text string) []string {
	var out []string
	for {
		i := strings.IndexByte(text, '\n')
		if i < 0 {
			if text != "" {
				out = append(out, text)
			}
			return out
		}
		out = append(out, text[:i+1])
		text = text[i+1:]
	}
}

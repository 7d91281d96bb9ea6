// Where: cli/internal/transform/synopsis.go
// What: Synopsis shortening for Debian-style one-line descriptions.
// Why: Source taglines routinely exceed the 80-character synopsis limit and
// need a readable truncation, not a hard cut.
package transform

import (
	"strings"
	"unicode/utf8"
)

const synopsisMaxLength = 80

// Synopsis shortens text to fit the one-line description limit. It prefers
// the first sentence, then a clause boundary past 60% of the limit, then the
// last complete word, and hard-truncates only as a last resort. Text already
// within the limit is returned unchanged. The limit counts characters, not
// bytes, so multibyte text is never cut mid-rune.
func Synopsis(text string) string {
	runes := []rune(text)
	if len(runes) <= synopsisMaxLength {
		return text
	}

	window := string(runes[:min(len(runes), synopsisMaxLength+20)])
	for _, delim := range []string{". ", "! ", "? "} {
		if idx := strings.Index(window, delim); idx >= 0 {
			sentence := window[:idx+1]
			if utf8.RuneCountInString(sentence) <= synopsisMaxLength {
				return sentence
			}
		}
	}

	head := string(runes[:synopsisMaxLength])
	for _, delim := range []string{", ", "; ", " - ", " – "} {
		if pos := strings.LastIndex(head, delim); pos >= 0 &&
			utf8.RuneCountInString(head[:pos]) > synopsisMaxLength*6/10 {
			return head[:pos]
		}
	}

	trimmed := string(runes[:synopsisMaxLength-3])
	if pos := strings.LastIndex(trimmed, " "); pos > 0 {
		return trimmed[:pos] + "..."
	}
	return trimmed + "..."
}

// ABOUTME: Content sanitization for outgoing messages
// ABOUTME: Collapses whitespace and escapes markup before persistence

package conversation

import (
	"html"
	"strings"
	"unicode"
)

// sanitizeContent normalizes raw message input: runs of whitespace collapse
// to a single space, edges are trimmed, and markup-significant characters
// (< > & " ') are escaped. Escaping happens exactly once, here at write
// time; stored content is returned verbatim on every read.
func sanitizeContent(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))

	inSpace := false
	for _, r := range raw {
		if unicode.IsSpace(r) {
			inSpace = true
			continue
		}
		if inSpace && b.Len() > 0 {
			b.WriteByte(' ')
		}
		inSpace = false
		b.WriteRune(r)
	}

	return html.EscapeString(b.String())
}

// Package strings holds text helpers shared by the command line output.
package strings

import (
	"strings"
)

// minWidth leaves room for one character and the ellipsis.
const minWidth = 4

// SingleLine collapses every run of whitespace in s, newlines included, into
// one space and shortens the result to width runes, ending it with "..." when
// something was cut. Widths under 4 are raised to 4.
func SingleLine(s string, width int) string {
	width = max(width, minWidth)
	s = strings.Join(strings.Fields(s), " ")

	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	return string(runes[:width-3]) + "..."
}

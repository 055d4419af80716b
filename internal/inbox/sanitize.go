package inbox

import (
	"strings"
	"unicode"

	"github.com/charmbracelet/x/ansi"
)

// Escaper neutralizes untrusted header and body text for one output
// medium. Every field that originates in a message goes through the
// sink's escaper: sender, subject, body and download link alike. The
// HTML export relies on html/template instead.
type Escaper func(string) string

// EscapeTerminal strips ANSI escape sequences and other control
// characters so a message cannot repaint or retitle the terminal.
// Newlines and tabs are kept.
func EscapeTerminal(s string) string {
	if s == "" {
		return ""
	}
	s = ansi.Strip(s)
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}

// EscapeTerminalLine is EscapeTerminal for single-line cells: line
// breaks and tabs collapse to spaces.
func EscapeTerminalLine(s string) string {
	s = EscapeTerminal(s)
	s = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return ' '
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}

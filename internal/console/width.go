package console

import (
	"github.com/mattn/go-isatty"
	"github.com/mattn/go-runewidth"
)

// redirectedWidth is the width PowerShell assumes when output is redirected.
const redirectedWidth = 80

// Width returns the column budget for listings written to fd. Unless
// keepDefault is set the configured width applies. With keepDefault a
// terminal gets no limit (it wraps by itself) and anything else gets 80
// columns.
func Width(configured int, keepDefault bool, fd uintptr) int {
	if !keepDefault {
		return configured
	}
	if isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) {
		return 0
	}
	return redirectedWidth
}

// Truncate shortens s to at most width display columns. Width 0 means no
// limit.
func Truncate(s string, width int) string {
	if width <= 0 || runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "...")
}

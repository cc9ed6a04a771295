package tui

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

const cellPadding = 1

// cellWidth is the display width every board cell is padded to.
func cellWidth(ws []string) int {
	w := 0
	for _, s := range ws {
		w = max(w, runewidth.StringWidth(s))
	}
	return w + 2*cellPadding
}

// bannerWidth is the width of a category banner: at least the board row, and
// wide enough that neither the upper-cased name nor the word line wraps.
func bannerWidth(name string, ws []string, row int) int {
	w := max(row, runewidth.StringWidth(strings.ToUpper(name)))
	return max(w, runewidth.StringWidth(strings.Join(ws, ", ")))
}

// padCell centres s in a cell of the given display width. Words wider than
// the cell are truncated with an ellipsis.
func padCell(s string, width int) string {
	inner := width - 2*cellPadding
	if inner < 1 {
		inner = 1
	}
	if runewidth.StringWidth(s) > inner {
		s = runewidth.Truncate(s, inner, "…")
	}
	gap := inner - runewidth.StringWidth(s)
	left := gap / 2
	return runewidth.FillRight(strings.Repeat(" ", cellPadding+left)+s, width)
}

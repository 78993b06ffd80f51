package console

import "github.com/mattn/go-runewidth"

// DefaultTabSize is the tab stop width assumed for echoed input.
const DefaultTabSize = 8

// RowsUsed reports how many terminal rows the echo of prompt followed by text
// occupied on a terminal that is cols cells wide. Wide runes take two cells,
// combining and non-printable runes take none, and tabs advance to the next
// tab stop.
func RowsUsed(prompt, text string, cols, tabSize int) int {
	if cols < 1 {
		cols = 1
	}
	rows, col := 1, 0
	for _, s := range []string{prompt, text} {
		for _, r := range s {
			next := advance(col, r, tabSize)
			if next >= cols {
				rows += next / cols
				col = next % cols
				continue
			}
			col = next
		}
	}
	return rows
}

func advance(col int, r rune, tabSize int) int {
	if r == '\t' {
		if tabSize <= 0 {
			return col
		}
		return col + (tabSize - col%tabSize)
	}
	w := runewidth.RuneWidth(r)
	if w < 0 {
		w = 0
	}
	return col + w
}

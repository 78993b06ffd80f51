package console_test

import (
	"testing"

	"github.com/brojonat/chatagent/console"
	"github.com/matryer/is"
)

func TestRowsUsed(t *testing.T) {
	cases := []struct {
		name   string
		prompt string
		text   string
		cols   int
		want   int
	}{
		{name: "short line", prompt: "> ", text: "hello", cols: 80, want: 1},
		{name: "empty", prompt: "", text: "", cols: 80, want: 1},
		{name: "exact fit wraps the cursor", prompt: "> ", text: "12345678", cols: 10, want: 2},
		{name: "two wraps", prompt: "~ ", text: "123456789012345678", cols: 10, want: 3},
		{name: "wide runes", prompt: "> ", text: "世界世界", cols: 10, want: 2},
		{name: "combining marks take no cells", prompt: "> ", text: "e\u0301e\u0301e\u0301", cols: 6, want: 1},
		{name: "tab advances to next stop", prompt: "> ", text: "\tx", cols: 10, want: 1},
		{name: "tab crossing the edge", prompt: "> ", text: "abcdefg\tx", cols: 10, want: 2},
		{name: "zero width terminal", prompt: "> ", text: "ab", cols: 0, want: 5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			is := is.New(t)
			is.Equal(console.RowsUsed(tc.prompt, tc.text, tc.cols, console.DefaultTabSize), tc.want)
		})
	}
}

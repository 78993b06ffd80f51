package agent

import "fmt"

// Mode selects how the chat agent composes outbound messages. It is chosen
// once at startup.
type Mode int

const (
	SingleLine Mode = iota
	MultiLine
)

// ParseMode maps the --multiline flag value to a Mode.
func ParseMode(v int) (Mode, error) {
	switch v {
	case 0:
		return SingleLine, nil
	case 1:
		return MultiLine, nil
	}
	return SingleLine, fmt.Errorf("invalid multiline value %d: must be 0 or 1", v)
}

func (m Mode) String() string {
	if m == MultiLine {
		return "multi-line"
	}
	return "single-line"
}

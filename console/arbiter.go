// Package console owns the shared terminal. Inbound messages can be displayed
// at any time while a compose loop is waiting on input, so every write to the
// terminal goes through a single Arbiter.
package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// ANSI helpers
const (
	cursorUpFmt   = "\x1b[%dA"
	cursorDownFmt = "\x1b[%dB"
	clearLine     = "\x1b[2K"
)

const defaultColumns = 80

// DefaultPrompt is the primary prompt shown before the first line of a message.
const DefaultPrompt = "> "

// Arbiter serializes writes to the terminal. Display and prompt writes are
// atomic with respect to each other; reads happen outside the lock so an
// inbound message can be displayed while the operator is typing.
type Arbiter struct {
	lock   *sync.Mutex
	out    io.Writer
	in     *bufio.Reader
	readMu *sync.Mutex

	// prompt is the prompt to redraw after a display. shown reports whether it
	// is the last thing written to the current line.
	prompt string
	shown  bool
	// pending is set between a line being read and the reader choosing the
	// next prompt; displays in that window leave the prompt to the next read.
	pending bool
	// writes counts displays and redraws; readMark is its value when the last
	// line was read.
	writes   uint64
	readMark uint64

	tty      bool
	columns  func() int
	fatal    func(error)
	renderer *lipgloss.Renderer
}

// Option configures an Arbiter.
type Option func(*Arbiter)

// WithFatalHandler sets the function called when the terminal cannot be
// written to or read from. The default logs the error and exits the process.
func WithFatalHandler(f func(error)) Option {
	return func(a *Arbiter) {
		a.fatal = f
	}
}

// WithTerminal forces terminal mode on or off. In terminal mode continuation
// echoes are rewritten.
func WithTerminal(tty bool) Option {
	return func(a *Arbiter) {
		a.tty = tty
	}
}

// WithColumns overrides the terminal width lookup.
func WithColumns(f func() int) Option {
	return func(a *Arbiter) {
		a.columns = f
	}
}

// WithPrompt sets the initial prompt redrawn after a display.
func WithPrompt(p string) Option {
	return func(a *Arbiter) {
		a.prompt = p
	}
}

// New returns an Arbiter reading lines from in and writing to out. Terminal
// mode is enabled when out is a TTY.
func New(in io.Reader, out io.Writer, opts ...Option) *Arbiter {
	a := &Arbiter{
		lock:     &sync.Mutex{},
		out:      out,
		in:       bufio.NewReader(in),
		readMu:   &sync.Mutex{},
		prompt:   DefaultPrompt,
		renderer: lipgloss.NewRenderer(out),
		fatal:    exitOnFailure,
	}
	a.columns = func() int { return terminalColumns(out) }
	if f, ok := out.(*os.File); ok {
		a.tty = term.IsTerminal(int(f.Fd()))
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func exitOnFailure(err error) {
	slog.Error("console failure", "error", err.Error())
	os.Exit(1)
}

func terminalColumns(out io.Writer) int {
	f, ok := out.(*os.File)
	if !ok {
		return defaultColumns
	}
	w, _, err := term.GetSize(int(f.Fd()))
	if err != nil || w < 1 {
		return defaultColumns
	}
	return w
}

// Renderer returns the lipgloss renderer bound to the arbiter's output, so
// styles degrade to plain text when the output is not a terminal.
func (a *Arbiter) Renderer() *lipgloss.Renderer {
	return a.renderer
}

// Prompt returns the prompt that would be redrawn after a display.
func (a *Arbiter) Prompt() string {
	a.lock.Lock()
	defer a.lock.Unlock()
	return a.prompt
}

// Display writes one message line followed by the current prompt. The line is
// not cleared first: a partially typed line is still in the terminal's input
// buffer and stays visible after the message. When a line has just been read
// and the next prompt is not known yet, the prompt is left to the next read.
func (a *Arbiter) Display(label, text string) {
	a.lock.Lock()
	defer a.lock.Unlock()

	var b strings.Builder
	b.WriteString("\r")
	if label != "" {
		b.WriteString(label)
		b.WriteString(" ")
	}
	b.WriteString(text)
	b.WriteString("\n")
	if !a.pending {
		b.WriteString(a.prompt)
	}
	a.writes++
	ok := a.write(b.String())
	a.shown = ok && !a.pending
}

// PromptRedraw re-emits the current prompt.
func (a *Arbiter) PromptRedraw() {
	a.lock.Lock()
	defer a.lock.Unlock()
	a.writes++
	if a.write(a.prompt) {
		a.shown = true
	}
}

// SetPrompt records the prompt to redraw after a display without writing it.
func (a *Arbiter) SetPrompt(p string) {
	a.lock.Lock()
	defer a.lock.Unlock()
	if p != a.prompt {
		a.shown = false
	}
	a.prompt = p
	a.pending = false
}

// ReadLine shows prompt and reads one line of input. The returned line has its
// terminator removed. io.EOF is returned once input is exhausted; a final line
// without a terminator is returned before that.
func (a *Arbiter) ReadLine(prompt string) (string, error) {
	a.lock.Lock()
	a.pending = false
	if !a.shown || a.prompt != prompt {
		a.prompt = prompt
		if !a.write(prompt) {
			a.lock.Unlock()
			return "", ErrConsole{Message: "could not write prompt"}
		}
	}
	a.shown = true
	a.lock.Unlock()

	a.readMu.Lock()
	line, err := a.in.ReadString('\n')
	a.readMu.Unlock()

	// the terminator moved the cursor off the prompt
	a.lock.Lock()
	a.shown = false
	a.pending = err == nil || line != ""
	a.readMark = a.writes
	a.lock.Unlock()

	if err != nil {
		if !errors.Is(err, io.EOF) {
			a.fatal(fmt.Errorf("read input: %w", err))
			return "", err
		}
		if line == "" {
			return "", io.EOF
		}
	}
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	return line, nil
}

// RewriteEcho replaces the echoed "<prompt><typed>" block with
// "<prompt><cleaned>" and makes next the prompt redrawn after a display. The
// rewrite only happens in terminal mode, where the terminal echoed the typed
// line itself, and only if nothing was written since the line was read;
// otherwise the echo is no longer directly above the cursor and is left as
// typed.
func (a *Arbiter) RewriteEcho(prompt, typed, cleaned, next string) {
	a.lock.Lock()
	defer a.lock.Unlock()
	a.prompt = next
	a.pending = false
	a.shown = false
	if !a.tty || a.writes != a.readMark {
		return
	}

	rows := RowsUsed(prompt, typed, a.columns(), DefaultTabSize)

	var b strings.Builder
	// move to the start of the echoed block and clear each row
	fmt.Fprintf(&b, cursorUpFmt, rows)
	for i := 0; i < rows; i++ {
		b.WriteString("\r" + clearLine)
		if i < rows-1 {
			fmt.Fprintf(&b, cursorDownFmt, 1)
		}
	}
	if rows > 1 {
		fmt.Fprintf(&b, cursorUpFmt, rows-1)
	}
	b.WriteString(prompt + cleaned + "\n")
	a.write(b.String())
}

// write must be called with the lock held. It reports whether the write
// succeeded; failures are handed to the fatal handler.
func (a *Arbiter) write(s string) bool {
	if _, err := io.WriteString(a.out, s); err != nil {
		a.fatal(fmt.Errorf("write terminal: %w", err))
		return false
	}
	return true
}

type ErrConsole struct {
	Message string `json:"message"`
}

func (e ErrConsole) Error() string {
	return e.Message
}

// Package compose acquires outbound messages. Interactive composers read from
// a Terminal one physical line at a time; each call to Compose produces exactly
// one outbound message.
package compose

import (
	"context"
	"errors"
	"io"
	"strings"
)

const (
	DefaultPrompt             = "> "
	DefaultContinuationPrompt = "~ "
	DefaultMarker             = `\`
)

// Terminal is the prompt-parameterized line source. ReadLine returns io.EOF
// once input is exhausted. SetPrompt records the prompt that should be redrawn
// if something else is written to the terminal before the next read.
type Terminal interface {
	ReadLine(prompt string) (string, error)
	SetPrompt(prompt string)
}

// EchoRewriter is implemented by terminals that can replace the echo of a
// line that was just entered. The rewrite and the switch to the next prompt
// happen as one step, so nothing displayed in between can be overwritten.
type EchoRewriter interface {
	RewriteEcho(prompt, typed, cleaned, next string)
}

// Composer produces the next outbound message.
type Composer interface {
	Compose(ctx context.Context) (Result, error)
}

// Result is one composed message. EOF reports that input ended during the
// call; Text then holds whatever was accumulated before that.
type Result struct {
	Text  string
	Lines int
	EOF   bool
}

// Empty reports whether input ended before any line was read.
func (r Result) Empty() bool {
	return r.EOF && r.Lines == 0
}

// Session is the state of one multi-line compose invocation.
type Session struct {
	Fragments          []string
	Continued          bool
	Prompt             string
	ContinuationPrompt string
	Marker             string
}

// CurrentPrompt is the primary prompt until a fragment has been recorded.
func (s *Session) CurrentPrompt() string {
	if len(s.Fragments) == 0 {
		return s.Prompt
	}
	return s.ContinuationPrompt
}

// Feed records one physical line and reports whether the logical message is
// complete. A line ending in the marker is recorded without it and continues
// the message.
func (s *Session) Feed(line string) bool {
	if s.Marker != "" && strings.HasSuffix(line, s.Marker) {
		s.Fragments = append(s.Fragments, strings.TrimSuffix(line, s.Marker))
		s.Continued = true
		return false
	}
	s.Fragments = append(s.Fragments, line)
	s.Continued = false
	return true
}

// Text joins the recorded fragments with newlines.
func (s *Session) Text() string {
	return strings.Join(s.Fragments, "\n")
}

func (s *Session) result(eof bool) Result {
	return Result{Text: s.Text(), Lines: len(s.Fragments), EOF: eof}
}

// SingleLine reads exactly one line per message.
type SingleLine struct {
	term   Terminal
	prompt string
}

func NewSingleLine(t Terminal) *SingleLine {
	return &SingleLine{term: t, prompt: DefaultPrompt}
}

// Compose returns the next line verbatim, including an empty line.
func (c *SingleLine) Compose(ctx context.Context) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	line, err := c.term.ReadLine(c.prompt)
	if errors.Is(err, io.EOF) {
		return Result{EOF: true}, nil
	}
	if err != nil {
		return Result{}, err
	}
	return Result{Text: line, Lines: 1}, nil
}

// MultiLine reads lines until one does not end in the continuation marker.
type MultiLine struct {
	term       Terminal
	prompt     string
	contPrompt string
	marker     string
}

type MultiLineOption func(*MultiLine)

// WithPrompts overrides the primary prompt, the continuation prompt and the
// continuation marker.
func WithPrompts(prompt, contPrompt, marker string) MultiLineOption {
	return func(c *MultiLine) {
		c.prompt = prompt
		c.contPrompt = contPrompt
		c.marker = marker
	}
}

func NewMultiLine(t Terminal, opts ...MultiLineOption) *MultiLine {
	c := &MultiLine{
		term:       t,
		prompt:     DefaultPrompt,
		contPrompt: DefaultContinuationPrompt,
		marker:     DefaultMarker,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *MultiLine) newSession() *Session {
	return &Session{
		Prompt:             c.prompt,
		ContinuationPrompt: c.contPrompt,
		Marker:             c.marker,
	}
}

// Compose reads one logical message. End of input returns the fragments
// accumulated so far.
func (c *MultiLine) Compose(ctx context.Context) (Result, error) {
	s := c.newSession()
	// the next message starts with the primary prompt
	defer c.term.SetPrompt(s.Prompt)

	for {
		if err := ctx.Err(); err != nil {
			return s.result(false), err
		}
		prompt := s.CurrentPrompt()
		line, err := c.term.ReadLine(prompt)
		if errors.Is(err, io.EOF) {
			return s.result(true), nil
		}
		if err != nil {
			return s.result(false), err
		}
		if s.Feed(line) {
			return s.result(false), nil
		}

		next := s.CurrentPrompt()
		if rw, ok := c.term.(EchoRewriter); ok {
			rw.RewriteEcho(prompt, line, s.Fragments[len(s.Fragments)-1], next)
			continue
		}
		c.term.SetPrompt(next)
	}
}

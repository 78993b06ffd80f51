package console_test

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/brojonat/chatagent/console"
	"github.com/matryer/is"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) {
	return 0, errors.New("terminal gone")
}

func TestDisplayRedrawsCurrentPrompt(t *testing.T) {
	is := is.New(t)
	var out bytes.Buffer
	a := console.New(strings.NewReader(""), &out)

	a.Display("[Received]", "hi")
	is.Equal(out.String(), "\r[Received] hi\n> ")

	out.Reset()
	a.SetPrompt("~ ")
	a.Display("[From server]", "Warning: disk full")
	is.Equal(out.String(), "\r[From server] Warning: disk full\n~ ")
	is.Equal(a.Prompt(), "~ ")
}

func TestDisplayKeepsTypedInputOnTerminal(t *testing.T) {
	is := is.New(t)
	var out bytes.Buffer
	a := console.New(strings.NewReader(""), &out, console.WithTerminal(true))

	// no clear-line: half-typed input stays visible after the message
	a.Display("[Received]", "hi")
	is.Equal(out.String(), "\r[Received] hi\n> ")
}

func TestDisplayAfterReadLeavesPromptToNextRead(t *testing.T) {
	is := is.New(t)
	var out bytes.Buffer
	a := console.New(strings.NewReader("one\ntwo\n"), &out)

	_, err := a.ReadLine("> ")
	is.NoErr(err)
	a.Display("[Received]", "hi")
	is.Equal(out.String(), "> \r[Received] hi\n")

	_, err = a.ReadLine("> ")
	is.NoErr(err)
	is.Equal(out.String(), "> \r[Received] hi\n> ")
}

func TestPromptRedraw(t *testing.T) {
	is := is.New(t)
	var out bytes.Buffer
	a := console.New(strings.NewReader(""), &out, console.WithPrompt(">> "))

	a.PromptRedraw()
	is.Equal(out.String(), ">> ")
}

func TestReadLine(t *testing.T) {
	is := is.New(t)
	var out bytes.Buffer
	a := console.New(strings.NewReader("hello\r\n\nlast"), &out)

	line, err := a.ReadLine("> ")
	is.NoErr(err)
	is.Equal(line, "hello")

	line, err = a.ReadLine("> ")
	is.NoErr(err)
	is.Equal(line, "")

	// a final line without a terminator is still a line
	line, err = a.ReadLine("~ ")
	is.NoErr(err)
	is.Equal(line, "last")

	_, err = a.ReadLine("> ")
	is.True(errors.Is(err, io.EOF))

	is.Equal(out.String(), "> > ~ > ")
}

func TestReadLineDoesNotRepeatRedrawnPrompt(t *testing.T) {
	is := is.New(t)
	var out bytes.Buffer
	a := console.New(strings.NewReader("x\n"), &out)

	a.Display("[Received]", "hi")
	_, err := a.ReadLine("> ")
	is.NoErr(err)
	is.Equal(out.String(), "\r[Received] hi\n> ")
}

func TestConcurrentDisplayIsAtomic(t *testing.T) {
	is := is.New(t)
	var out bytes.Buffer
	a := console.New(strings.NewReader(""), &out)

	n := 64
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			a.Display("[Received]", fmt.Sprintf("message %d", i))
		}(i)
	}
	wg.Wait()

	chunks := strings.Split(strings.TrimPrefix(out.String(), "\r"), "\r")
	is.Equal(len(chunks), n)
	seen := map[string]bool{}
	for _, c := range chunks {
		is.True(strings.HasPrefix(c, "[Received] message "))
		is.True(strings.HasSuffix(c, "\n> "))
		seen[c] = true
	}
	is.Equal(len(seen), n)
}

func TestWriteFailureIsFatal(t *testing.T) {
	is := is.New(t)
	var got error
	a := console.New(strings.NewReader("x\n"), failingWriter{},
		console.WithFatalHandler(func(err error) { got = err }))

	a.Display("[Received]", "hi")
	is.True(got != nil)

	got = nil
	_, err := a.ReadLine("> ")
	is.True(err != nil)
	is.True(got != nil)
}

func TestRewriteEcho(t *testing.T) {
	is := is.New(t)
	var out bytes.Buffer
	a := console.New(strings.NewReader(""), &out,
		console.WithTerminal(true),
		console.WithColumns(func() int { return 80 }))

	a.RewriteEcho("> ", `foo\`, "foo", "~ ")
	is.Equal(out.String(), "\x1b[1A\r\x1b[2K> foo\n")
	is.Equal(a.Prompt(), "~ ")

	// a 10 column terminal wraps "> " plus 12 cells onto two rows
	out.Reset()
	a = console.New(strings.NewReader(""), &out,
		console.WithTerminal(true),
		console.WithColumns(func() int { return 10 }))
	a.RewriteEcho("> ", `abcdefghijk\`, "abcdefghijk", "~ ")
	is.Equal(out.String(), "\x1b[2A\r\x1b[2K\x1b[1B\r\x1b[2K\x1b[1A> abcdefghijk\n")
}

func TestRewriteEchoWithoutTerminal(t *testing.T) {
	is := is.New(t)
	var out bytes.Buffer
	a := console.New(strings.NewReader(""), &out)

	a.RewriteEcho("> ", `foo\`, "foo", "~ ")
	is.Equal(out.Len(), 0)
	is.Equal(a.Prompt(), "~ ")
}

func TestRewriteEchoSkippedAfterDisplay(t *testing.T) {
	is := is.New(t)
	var out bytes.Buffer
	a := console.New(strings.NewReader("foo\\\n"), &out,
		console.WithTerminal(true),
		console.WithColumns(func() int { return 80 }))

	line, err := a.ReadLine("> ")
	is.NoErr(err)
	a.Display("[Received]", "INBOUND")
	a.RewriteEcho("> ", line, "foo", "~ ")

	// the message sits below the echo; moving up would erase it
	is.Equal(out.String(), "> \r[Received] INBOUND\n")
	is.Equal(a.Prompt(), "~ ")

	a.Display("[Received]", "again")
	is.Equal(out.String(), "> \r[Received] INBOUND\n\r[Received] again\n~ ")
}

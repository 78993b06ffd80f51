// Package agent binds the console and compose loops to the client runtime's
// receive and send roles.
package agent

import (
	"context"
	"time"

	"github.com/brojonat/chatagent/chatclient"
	"github.com/brojonat/chatagent/compose"
	"github.com/charmbracelet/lipgloss"
)

// Registrar is the part of the client runtime agents register handlers with.
type Registrar interface {
	OnReceive(route string, h chatclient.ReceiveHandler) error
	OnSend(route string, h chatclient.SendHandler) error
}

// Console is the shared terminal as seen by the chat agent.
type Console interface {
	compose.Terminal
	Display(label, text string)
	Renderer() *lipgloss.Renderer
}

// Chat is the interactive agent: inbound messages are printed with a display
// tag and outbound messages are typed at the prompt.
type Chat struct {
	console  Console
	composer compose.Composer
	mode     Mode
	styles   map[DisplayTag]lipgloss.Style
}

func NewChat(c Console, mode Mode) *Chat {
	var composer compose.Composer = compose.NewSingleLine(c)
	if mode == MultiLine {
		composer = compose.NewMultiLine(c)
	}
	r := c.Renderer()
	return &Chat{
		console:  c,
		composer: composer,
		mode:     mode,
		styles: map[DisplayTag]lipgloss.Style{
			TagReceived:   r.NewStyle().Foreground(lipgloss.Color("6")),
			TagFromServer: r.NewStyle().Foreground(lipgloss.Color("3")),
		},
	}
}

func (c *Chat) Mode() Mode {
	return c.mode
}

// Receive displays one inbound message and redraws the prompt.
func (c *Chat) Receive(ctx context.Context, m chatclient.InboundMessage) {
	tag := Classify(m.Content())
	c.console.Display(c.styles[tag].Render(tag.Label()), m.Text())
}

// Send composes the next outbound message. Once input is closed with nothing
// typed it reports chatclient.ErrSendClosed so the client stops asking.
func (c *Chat) Send(ctx context.Context) (string, error) {
	r, err := c.composer.Compose(ctx)
	if err != nil {
		return "", err
	}
	if r.Empty() {
		return "", chatclient.ErrSendClosed
	}
	return r.Text, nil
}

// Register binds both roles to route.
func (c *Chat) Register(r Registrar, route string) error {
	if err := r.OnReceive(route, c.Receive); err != nil {
		return err
	}
	return r.OnSend(route, c.Send)
}

// Greeting is the message sent by the non-interactive agent.
const Greeting = "Hello Server!"

// Sender is a non-interactive agent that sends a fixed message at a fixed
// interval.
type Sender struct {
	composer compose.Composer
}

func NewSender(delay time.Duration, text string) *Sender {
	return &Sender{composer: compose.Fixed{Delay: delay, Text: text}}
}

func (s *Sender) Send(ctx context.Context) (string, error) {
	r, err := s.composer.Compose(ctx)
	if err != nil {
		return "", err
	}
	return r.Text, nil
}

// Register binds the send role to route.
func (s *Sender) Register(r Registrar, route string) error {
	return r.OnSend(route, s.Send)
}

package chatclient

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Envelope field names
const (
	FIELD_CONTENT = "content"
	FIELD_ROUTE   = "route"
)

// InboundMessage is one message received from the server. It is either a raw
// value (text or structured JSON) or an envelope object carrying its display
// payload in the content field.
type InboundMessage struct {
	raw   []byte
	value any
	// content is the envelope's content field as received
	content json.RawMessage
}

var errTrailingData = errors.New("trailing data after JSON value")

// ParseInbound decodes a frame received from the server. Frames that are not
// valid JSON are kept as a raw string value. Numbers are kept as json.Number
// so they are displayed with the digits they were sent with.
func ParseInbound(b []byte) InboundMessage {
	m := InboundMessage{raw: b}
	v, err := decodeValue(b)
	if err != nil {
		m.value = string(b)
		return m
	}
	m.value = v
	if _, ok := v.(map[string]any); ok {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(b, &fields); err == nil {
			m.content = fields[FIELD_CONTENT]
		}
	}
	return m
}

func decodeValue(b []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errTrailingData
	}
	return v, nil
}

// NewInbound wraps an already decoded value.
func NewInbound(v any) InboundMessage {
	b, err := json.Marshal(v)
	if err != nil {
		return InboundMessage{value: v}
	}
	return ParseInbound(b)
}

// Raw returns the frame as received.
func (m InboundMessage) Raw() []byte {
	return m.raw
}

// Value returns the decoded frame.
func (m InboundMessage) Value() any {
	return m.value
}

// envelope returns the message as an object, if it is one.
func (m InboundMessage) envelope() (map[string]any, bool) {
	obj, ok := m.value.(map[string]any)
	return obj, ok
}

// Content returns the display payload: the content field of an envelope, or
// the whole value otherwise. Other envelope fields are ignored.
func (m InboundMessage) Content() any {
	if obj, ok := m.envelope(); ok {
		if c, ok := obj[FIELD_CONTENT]; ok {
			return c
		}
	}
	return m.value
}

// Route returns the route named by an envelope, or the empty route.
func (m InboundMessage) Route() string {
	if obj, ok := m.envelope(); ok {
		if r, ok := obj[FIELD_ROUTE].(string); ok {
			return r
		}
	}
	return ""
}

// Text renders the display payload. Strings are shown verbatim and anything
// else is shown as the JSON it was received as, compacted.
func (m InboundMessage) Text() string {
	c := m.Content()
	switch v := c.(type) {
	case string:
		return v
	case nil:
		return "null"
	}
	raw := []byte(m.content)
	if raw == nil {
		raw = m.raw
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return DisplayText(c)
	}
	return buf.String()
}

func DisplayText(v any) string {
	switch c := v.(type) {
	case string:
		return c
	case json.Number:
		return c.String()
	case nil:
		return "null"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

// OutboundMessage is the envelope written to the server for each message
// produced by a send handler.
type OutboundMessage struct {
	Route   string `json:"route,omitempty"`
	Content any    `json:"content"`
}

func (m OutboundMessage) JSON() ([]byte, error) {
	return json.Marshal(m)
}

package agent

import "strings"

// WarningMarker prefixes inbound text that originates from the server itself.
const WarningMarker = "Warning:"

// DisplayTag classifies an inbound message for display. It is cosmetic and
// never affects delivery.
type DisplayTag int

const (
	TagReceived DisplayTag = iota
	TagFromServer
)

// Classify tags textual content starting with WarningMarker as coming from
// the server and everything else as received.
func Classify(content any) DisplayTag {
	if s, ok := content.(string); ok && strings.HasPrefix(s, WarningMarker) {
		return TagFromServer
	}
	return TagReceived
}

func (t DisplayTag) String() string {
	if t == TagFromServer {
		return "from-server-warning"
	}
	return "generic-received"
}

// Label is the text shown in front of the message.
func (t DisplayTag) Label() string {
	if t == TagFromServer {
		return "[From server]"
	}
	return "[Received]"
}

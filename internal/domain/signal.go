package domain

import "encoding/json"

// Namespace separates negotiation flows sharing the relay.
type Namespace string

const (
	NamespaceVoice  Namespace = "voice"
	NamespaceScreen Namespace = "screen"
)

type SignalKind string

const (
	SignalOffer        SignalKind = "offer"
	SignalAnswer       SignalKind = "answer"
	SignalIceCandidate SignalKind = "ice-candidate"
)

func (k SignalKind) Valid() bool {
	switch k {
	case SignalOffer, SignalAnswer, SignalIceCandidate:
		return true
	default:
		return false
	}
}

// EventType returns the wire event name, e.g. "voice:offer".
func (n Namespace) EventType(kind SignalKind) string {
	return string(n) + ":" + string(kind)
}

// Signal is a negotiation message in transit. It is never stored.
type Signal struct {
	Namespace          Namespace
	Kind               SignalKind
	RoomId             string
	TargetConnectionId string
	Payload            json.RawMessage
}

// Package negotiation tracks WebRTC offer/answer exchanges between peers that
// signal through the hub. It never touches media: callers produce SDP and ICE
// candidates with their WebRTC stack and feed the results in.
package negotiation

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrInvalidTransition = errors.New("invalid transition")
	ErrPeerNotFound      = errors.New("peer not found")
	// ErrGlareIgnored is returned to the impolite side of an offer collision:
	// the remote offer is dropped and the local one stands.
	ErrGlareIgnored = errors.New("colliding offer ignored")
)

type State int

const (
	StateNew State = iota
	StateOfferSent
	StateOfferReceived
	StateAnswerExchanged
	StateConnected
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateOfferSent:
		return "offer-sent"
	case StateOfferReceived:
		return "offer-received"
	case StateAnswerExchanged:
		return "answer-exchanged"
	case StateConnected:
		return "connected"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

type Event int

const (
	EventSendOffer Event = iota
	EventReceiveOffer
	EventSendAnswer
	EventReceiveAnswer
	EventConnected
	EventClose
)

func (e Event) String() string {
	switch e {
	case EventSendOffer:
		return "send-offer"
	case EventReceiveOffer:
		return "receive-offer"
	case EventSendAnswer:
		return "send-answer"
	case EventReceiveAnswer:
		return "receive-answer"
	case EventConnected:
		return "connected"
	case EventClose:
		return "close"
	default:
		return fmt.Sprintf("event(%d)", int(e))
	}
}

// Peer is one side's view of a single peer connection.
type Peer struct {
	RemoteId string

	polite               bool
	state                State
	hasRemoteDescription bool
	pendingCandidates    []json.RawMessage
}

// NewPeer creates a peer in StateNew. On an offer collision the polite side
// rolls back its own offer and accepts the remote one.
func NewPeer(remoteId string, polite bool) *Peer {
	return &Peer{
		RemoteId: remoteId,
		polite:   polite,
	}
}

func (p *Peer) State() State {
	return p.state
}

func (p *Peer) Polite() bool {
	return p.polite
}

func (p *Peer) Apply(e Event) error {
	if p.state == StateClosed {
		return fmt.Errorf("%w: %s on %s", ErrInvalidTransition, e, p.state)
	}

	next, err := p.next(e)
	if err != nil {
		return err
	}

	switch e {
	case EventReceiveOffer, EventReceiveAnswer:
		p.hasRemoteDescription = true
	case EventSendOffer:
		if p.state == StateNew {
			p.hasRemoteDescription = false
		}
	case EventClose:
		p.pendingCandidates = nil
	}

	p.state = next
	return nil
}

func (p *Peer) next(e Event) (State, error) {
	switch e {
	case EventClose:
		return StateClosed, nil
	case EventSendOffer:
		switch p.state {
		case StateNew, StateConnected:
			return StateOfferSent, nil
		}
	case EventReceiveOffer:
		switch p.state {
		case StateNew, StateConnected:
			return StateOfferReceived, nil
		case StateOfferSent:
			if !p.polite {
				return p.state, ErrGlareIgnored
			}
			return StateOfferReceived, nil
		}
	case EventSendAnswer:
		if p.state == StateOfferReceived {
			return StateAnswerExchanged, nil
		}
	case EventReceiveAnswer:
		if p.state == StateOfferSent {
			return StateAnswerExchanged, nil
		}
	case EventConnected:
		switch p.state {
		case StateAnswerExchanged, StateConnected:
			return StateConnected, nil
		}
	}

	return p.state, fmt.Errorf("%w: %s on %s", ErrInvalidTransition, e, p.state)
}

// AddRemoteCandidate returns the candidates that can be applied now. Until a
// remote description is set candidates are queued and nil is returned.
func (p *Peer) AddRemoteCandidate(candidate json.RawMessage) []json.RawMessage {
	if p.state == StateClosed {
		return nil
	}

	p.pendingCandidates = append(p.pendingCandidates, candidate)
	if !p.hasRemoteDescription {
		return nil
	}

	return p.TakeCandidates()
}

// TakeCandidates drains the queue once a remote description is set.
func (p *Peer) TakeCandidates() []json.RawMessage {
	if !p.hasRemoteDescription {
		return nil
	}

	ready := p.pendingCandidates
	p.pendingCandidates = nil

	return ready
}

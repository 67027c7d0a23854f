package negotiation

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

// Outbound is a signaling message for the hub relay.
type Outbound struct {
	Type               string          `json:"-"`
	RoomId             string          `json:"roomId"`
	TargetConnectionId string          `json:"targetConnectionId"`
	Payload            json.RawMessage `json:"payload"`
}

// Session holds the peers of one feature (voice call or screen share) in one
// room, from the local member's point of view.
type Session struct {
	namespace string
	roomId    string
	topology  Topology
	self      Member

	mu    sync.Mutex
	peers map[string]*Peer
}

func NewSession(namespace, roomId string, topology Topology, self Member) *Session {
	return &Session{
		namespace: namespace,
		roomId:    roomId,
		topology:  topology,
		self:      self,
		peers:     make(map[string]*Peer),
	}
}

// polite breaks offer collisions deterministically: the side with the smaller
// connection id yields.
func (s *Session) polite(remoteId string) bool {
	return s.self.ConnectionId < remoteId
}

func (s *Session) peer(remoteId string) *Peer {
	p, ok := s.peers[remoteId]
	if !ok {
		p = NewPeer(remoteId, s.polite(remoteId))
		s.peers[remoteId] = p
	}

	return p
}

// MemberJoined registers a member announced after self and reports whether
// self should create and send an offer to it.
func (s *Session) MemberJoined(remote Member) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.topology.Connects(s.self, remote) {
		return false
	}

	if old, ok := s.peers[remote.ConnectionId]; ok {
		old.Apply(EventClose)
		delete(s.peers, remote.ConnectionId)
	}
	s.peer(remote.ConnectionId)

	return s.topology.InitiatesOnJoin(s.self, remote)
}

// MemberKnown registers a member that was present before self. Self waits for
// its offer.
func (s *Session) MemberKnown(remote Member) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.topology.Connects(s.self, remote) {
		return
	}

	s.peer(remote.ConnectionId)
}

func (s *Session) MemberLeft(remoteId string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.peers[remoteId]; ok {
		p.Apply(EventClose)
		delete(s.peers, remoteId)
	}
}

func (s *Session) outbound(kind, remoteId string, payload json.RawMessage) Outbound {
	return Outbound{
		Type:               s.namespace + ":" + kind,
		RoomId:             s.roomId,
		TargetConnectionId: remoteId,
		Payload:            payload,
	}
}

func (s *Session) apply(remoteId string, e Event, create bool) (*Peer, error) {
	p, ok := s.peers[remoteId]
	if !ok {
		if !create {
			return nil, fmt.Errorf("%w: %s", ErrPeerNotFound, remoteId)
		}
		p = s.peer(remoteId)
	}

	if err := p.Apply(e); err != nil {
		return p, err
	}

	return p, nil
}

func (s *Session) Offer(remoteId string, sdp json.RawMessage) (Outbound, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.apply(remoteId, EventSendOffer, false); err != nil {
		return Outbound{}, err
	}

	return s.outbound("offer", remoteId, sdp), nil
}

// HandleOffer records a received offer. Offers from unknown senders create the
// peer: a relay message can overtake the announcement of its sender. The
// returned candidates were queued before the offer and can be applied now.
func (s *Session) HandleOffer(remoteId string) ([]json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.apply(remoteId, EventReceiveOffer, true)
	if err != nil {
		return nil, err
	}

	return p.TakeCandidates(), nil
}

func (s *Session) Answer(remoteId string, sdp json.RawMessage) (Outbound, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.apply(remoteId, EventSendAnswer, false); err != nil {
		return Outbound{}, err
	}

	return s.outbound("answer", remoteId, sdp), nil
}

func (s *Session) HandleAnswer(remoteId string) ([]json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.apply(remoteId, EventReceiveAnswer, false)
	if err != nil {
		return nil, err
	}

	return p.TakeCandidates(), nil
}

func (s *Session) Candidate(remoteId string, candidate json.RawMessage) Outbound {
	return s.outbound("ice-candidate", remoteId, candidate)
}

// HandleCandidate queues or releases a remote candidate. Candidates can arrive
// before the offer that introduces their sender.
func (s *Session) HandleCandidate(remoteId string, candidate json.RawMessage) []json.RawMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.peer(remoteId).AddRemoteCandidate(candidate)
}

func (s *Session) Connected(remoteId string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.apply(remoteId, EventConnected, false)
	return err
}

func (s *Session) State(remoteId string) (State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.peers[remoteId]
	if !ok {
		return StateClosed, false
	}

	return p.State(), true
}

// Peers returns the remote connection ids, sorted.
func (s *Session) Peers() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.peers))
	for id := range s.peers {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	return ids
}

func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, p := range s.peers {
		p.Apply(EventClose)
		delete(s.peers, id)
	}
}

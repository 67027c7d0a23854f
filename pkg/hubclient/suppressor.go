package hubclient

import (
	"math"
	"sync"
)

type Origin struct {
	ConnectionId string `json:"connectionId"`
	Seq          uint64 `json:"seq"`
}

type ChangeKind string

const (
	ChangePlay  ChangeKind = "play"
	ChangePause ChangeKind = "pause"
	ChangeSeek  ChangeKind = "seek"
)

// DefaultTolerance is how close, in seconds, a local player event must be to
// an applied remote change to be treated as its echo.
const DefaultTolerance = 0.5

// Suppressor keeps a player from re-emitting changes it only applied because
// another member made them. It has no timers: remote messages are filtered by
// origin, and local events are matched against the changes applied from them.
type Suppressor struct {
	self      string
	tolerance float64

	mu      sync.Mutex
	lastSeq map[string]uint64
	pending map[ChangeKind][]float64
}

func NewSuppressor(self string) *Suppressor {
	return &Suppressor{
		self:      self,
		tolerance: DefaultTolerance,
		lastSeq:   make(map[string]uint64),
		pending:   make(map[ChangeKind][]float64),
	}
}

func (s *Suppressor) SetTolerance(seconds float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tolerance = seconds
}

// Accept reports whether a remote message should be applied. Messages from
// this connection and messages older than one already seen from the same
// origin are rejected.
func (s *Suppressor) Accept(origin Origin) bool {
	if origin.ConnectionId == "" {
		return true
	}
	if origin.ConnectionId == s.self {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if last, ok := s.lastSeq[origin.ConnectionId]; ok && origin.Seq <= last {
		return false
	}
	s.lastSeq[origin.ConnectionId] = origin.Seq

	return true
}

// Applied records that a remote change was pushed into the local player.
func (s *Suppressor) Applied(kind ChangeKind, currentTime float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending[kind] = append(s.pending[kind], currentTime)
}

// ShouldEmit reports whether a local player event is user-initiated. An event
// that matches a pending applied change consumes it and is not emitted.
func (s *Suppressor) ShouldEmit(kind ChangeKind, currentTime float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending := s.pending[kind]
	for i, t := range pending {
		if math.Abs(t-currentTime) <= s.tolerance {
			s.pending[kind] = append(pending[:i], pending[i+1:]...)
			return false
		}
	}

	return true
}

// Reset drops pending changes, e.g. when the video changes.
func (s *Suppressor) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	clear(s.pending)
}

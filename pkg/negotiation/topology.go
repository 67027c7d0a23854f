package negotiation

type Role int

const (
	RoleParticipant Role = iota
	RoleBroadcaster
	RoleViewer
)

type Member struct {
	ConnectionId string
	Role         Role
}

// Topology decides which members hold a peer connection and which side
// sends the first offer when a member is announced.
type Topology int

const (
	// FullMesh connects every pair of participants. Members already in the
	// call offer to the newcomer.
	FullMesh Topology = iota
	// Star connects the single broadcaster to each viewer. The broadcaster
	// always offers.
	Star
)

func (t Topology) Connects(a, b Member) bool {
	if a.ConnectionId == b.ConnectionId {
		return false
	}

	switch t {
	case FullMesh:
		return a.Role == RoleParticipant && b.Role == RoleParticipant
	case Star:
		return (a.Role == RoleBroadcaster && b.Role == RoleViewer) ||
			(a.Role == RoleViewer && b.Role == RoleBroadcaster)
	default:
		return false
	}
}

// InitiatesOnJoin reports whether self sends the offer when remote is
// announced as having joined after self.
func (t Topology) InitiatesOnJoin(self, remote Member) bool {
	if !t.Connects(self, remote) {
		return false
	}

	switch t {
	case FullMesh:
		return true
	case Star:
		return self.Role == RoleBroadcaster
	default:
		return false
	}
}

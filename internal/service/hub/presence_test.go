package hub

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/watchparty/synchub/internal/repository/connection"
)

func TestConnectionReady(t *testing.T) {
	s := newTestService(t, nil)

	a := connect(t, s, "a")

	ready := a.sender.ofType(EventConnectionReady)
	require.Len(t, ready, 1)
	assert.Equal(t, ConnectionReadyOutput{
		ConnectionId: a.id(),
		UserId:       "a",
		DisplayName:  "name-a",
	}, decode[ConnectionReadyOutput](t, ready[0]))
}

func TestJoinAndLeaveRoom(t *testing.T) {
	s := newTestService(t, nil)
	ctx := context.Background()

	a := connect(t, s, "a")
	b := connect(t, s, "b")
	join(t, s, a, "r1")
	join(t, s, b, "r1")

	joined := a.sender.ofType(EventUserJoined)
	require.Len(t, joined, 1)
	assert.Equal(t, PresenceOutput{UserId: "b", DisplayName: "name-b", ConnectionId: b.id()}, decode[PresenceOutput](t, joined[0]))
	assert.Empty(t, b.sender.ofType(EventUserJoined), "joiner is not told about itself")

	t.Log("joining again is a no-op for the room")
	join(t, s, b, "r1")
	assert.Len(t, a.sender.ofType(EventUserJoined), 1)

	require.NoError(t, s.LeaveRoom(ctx, &LeaveRoomParams{ConnectionId: b.id(), RoomId: "r1"}))
	left := a.sender.ofType(EventUserLeft)
	require.Len(t, left, 1)
	assert.Equal(t, b.id(), decode[PresenceOutput](t, left[0]).ConnectionId)

	t.Log("leaving a room that was not joined announces nothing")
	require.NoError(t, s.LeaveRoom(ctx, &LeaveRoomParams{ConnectionId: b.id(), RoomId: "r1"}))
	require.NoError(t, s.LeaveRoom(ctx, &LeaveRoomParams{ConnectionId: b.id(), RoomId: "other"}))
	assert.Len(t, a.sender.ofType(EventUserLeft), 1)

	t.Log("left connection no longer receives room broadcasts")
	require.NoError(t, s.Play(ctx, &PlaybackParams{ConnectionId: a.id(), RoomId: "r1", CurrentTime: 1}))
	assert.Empty(t, b.sender.ofType(EventVideoPlay))
}

func TestUnknownConnection(t *testing.T) {
	s := newTestService(t, nil)

	err := s.JoinRoom(context.Background(), &JoinRoomParams{ConnectionId: "ghost", RoomId: "r1"})
	assert.ErrorIs(t, err, connection.ErrNotFound)
}

func TestFullQueueDoesNotBlockOthers(t *testing.T) {
	s := newTestService(t, nil)

	slow := connect(t, s, "slow")
	fast := connect(t, s, "fast")
	host := connect(t, s, "host")
	for _, c := range []client{slow, fast, host} {
		join(t, s, c, "r1")
	}

	slow.sender.full = true
	require.NoError(t, s.Seek(context.Background(), &PlaybackParams{ConnectionId: host.id(), RoomId: "r1", CurrentTime: 9}))

	assert.Len(t, fast.sender.ofType(EventVideoSeek), 1)
	assert.Empty(t, slow.sender.ofType(EventVideoSeek))
}

func TestPing(t *testing.T) {
	s := newTestService(t, nil)

	a := connect(t, s, "a")
	require.NoError(t, s.Ping(context.Background(), a.id()))
	assert.Len(t, a.sender.ofType(EventPong), 1)
}

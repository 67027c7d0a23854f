package hub

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisconnectCleansVoiceRostersOnce(t *testing.T) {
	s := newTestService(t, nil)
	ctx := context.Background()

	leaver := connect(t, s, "leaver")
	inA := connect(t, s, "in-a")
	inB := connect(t, s, "in-b")
	join(t, s, leaver, "A")
	join(t, s, leaver, "B")
	join(t, s, inA, "A")
	join(t, s, inB, "B")

	require.NoError(t, s.JoinVoice(ctx, &JoinVoiceParams{ConnectionId: leaver.id(), RoomId: "A"}))
	require.NoError(t, s.JoinVoice(ctx, &JoinVoiceParams{ConnectionId: leaver.id(), RoomId: "B"}))

	require.NoError(t, s.Disconnect(ctx, leaver.id()))
	require.NoError(t, s.Disconnect(ctx, leaver.id()), "second disconnect is a no-op")

	for _, c := range []client{inA, inB} {
		left := c.sender.ofType(EventVoiceUserLeft)
		require.Len(t, left, 1)
		assert.Equal(t, VoiceLeftOutput{UserId: "leaver", ConnectionId: leaver.id()}, decode[VoiceLeftOutput](t, left[0]))
		assert.Len(t, c.sender.ofType(EventUserLeft), 1)
	}

	for _, roomId := range []string{"A", "B"} {
		assert.Empty(t, voiceMembers(t, s, roomId))
	}
	assert.Empty(t, s.roomRepo.VoiceRoomsOf("leaver"))
	assert.Equal(t, 0, s.roomRepo.Count())
}

func TestStatelessEventsKeepNoRooms(t *testing.T) {
	s := newTestService(t, nil)
	ctx := context.Background()

	a := connect(t, s, "a")
	for i := 0; i < 20; i++ {
		roomId := fmt.Sprintf("r%d", i)
		require.NoError(t, s.Typing(ctx, &TypingParams{ConnectionId: a.id(), RoomId: roomId, IsTyping: true}))
		require.NoError(t, s.Speaking(ctx, &SpeakingParams{ConnectionId: a.id(), RoomId: roomId, IsSpeaking: true}))
		require.NoError(t, s.StartScreen(ctx, &ScreenParams{ConnectionId: a.id(), RoomId: roomId}))
		require.NoError(t, s.SendChatMessage(ctx, &SendChatMessageParams{ConnectionId: a.id(), RoomId: roomId, Content: "hi"}))
		require.NoError(t, s.LeaveRoom(ctx, &LeaveRoomParams{ConnectionId: a.id(), RoomId: roomId}))
	}
	assert.Equal(t, 0, s.roomRepo.Count())

	t.Log("joining and leaving voice leaves nothing behind")
	join(t, s, a, "v")
	require.NoError(t, s.JoinVoice(ctx, &JoinVoiceParams{ConnectionId: a.id(), RoomId: "v"}))
	assert.Equal(t, 1, s.roomRepo.Count())
	require.NoError(t, s.LeaveVoice(ctx, &LeaveVoiceParams{ConnectionId: a.id(), RoomId: "v"}))
	assert.Equal(t, 0, s.roomRepo.Count())

	t.Log("rooms with playback state persist after everyone leaves")
	require.NoError(t, s.Play(ctx, &PlaybackParams{ConnectionId: a.id(), RoomId: "v", CurrentTime: 4}))
	require.NoError(t, s.Disconnect(ctx, a.id()))
	assert.Equal(t, 1, s.roomRepo.Count())
}

func TestDisconnectSynthesizesTypingStop(t *testing.T) {
	s := newTestService(t, nil)
	ctx := context.Background()

	x := connect(t, s, "x")
	y := connect(t, s, "y")
	join(t, s, x, "r1")
	join(t, s, y, "r1")

	require.NoError(t, s.Typing(ctx, &TypingParams{ConnectionId: x.id(), RoomId: "r1", IsTyping: true}))
	y.sender.reset()

	require.NoError(t, s.Disconnect(ctx, x.id()))

	assert.Equal(t, []string{EventUserLeft, EventChatTyping}, y.sender.types())
	typing := y.sender.ofType(EventChatTyping)
	assert.Equal(t, TypingOutput{UserId: "x", DisplayName: "name-x", IsTyping: false}, decode[TypingOutput](t, typing[0]))
}

func TestDisconnectOfVoiceOnlyRoom(t *testing.T) {
	s := newTestService(t, nil)
	ctx := context.Background()

	t.Log("voice roster is cleaned even for rooms the connection never joined")
	a := connect(t, s, "a")
	listener := connect(t, s, "listener")
	join(t, s, listener, "r1")

	require.NoError(t, s.JoinVoice(ctx, &JoinVoiceParams{ConnectionId: a.id(), RoomId: "r1"}))
	require.NoError(t, s.Disconnect(ctx, a.id()))

	assert.Len(t, listener.sender.ofType(EventVoiceUserLeft), 1)
	assert.Empty(t, listener.sender.ofType(EventUserLeft))
}

func TestShutdownClosesConnections(t *testing.T) {
	s := newTestService(t, nil)

	a := connect(t, s, "a")
	b := connect(t, s, "b")

	s.Shutdown(context.Background())

	assert.True(t, a.sender.closed)
	assert.True(t, b.sender.closed)
}

package hub

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/watchparty/synchub/internal/domain"
)

func TestRelayToTargetOnly(t *testing.T) {
	s := newTestService(t, nil)
	ctx := context.Background()

	a := connect(t, s, "a")
	b := connect(t, s, "b")
	c := connect(t, s, "c")
	for _, cl := range []client{a, b, c} {
		join(t, s, cl, "r1")
	}

	payload := json.RawMessage(`{"type":"offer","sdp":"v=0..."}`)
	require.NoError(t, s.Relay(ctx, &RelayParams{
		ConnectionId: a.id(),
		Signal: domain.Signal{
			Namespace:          domain.NamespaceVoice,
			Kind:               domain.SignalOffer,
			RoomId:             "r1",
			TargetConnectionId: b.id(),
			Payload:            payload,
		},
	}))

	offers := b.sender.ofType("voice:offer")
	require.Len(t, offers, 1)
	out := decode[SignalOutput](t, offers[0])
	assert.Equal(t, a.id(), out.SenderId)
	assert.Equal(t, "a", out.UserId)
	assert.Equal(t, "name-a", out.DisplayName)
	assert.Equal(t, "r1", out.RoomId)
	assert.JSONEq(t, string(payload), string(out.Payload))

	assert.Empty(t, c.sender.ofType("voice:offer"))
	assert.Empty(t, a.sender.ofType("voice:offer"))

	t.Log("screen namespace does not collide with voice")
	require.NoError(t, s.Relay(ctx, &RelayParams{
		ConnectionId: b.id(),
		Signal: domain.Signal{
			Namespace:          domain.NamespaceScreen,
			Kind:               domain.SignalAnswer,
			RoomId:             "r1",
			TargetConnectionId: a.id(),
			Payload:            json.RawMessage(`{}`),
		},
	}))
	assert.Len(t, a.sender.ofType("screen:answer"), 1)
	assert.Empty(t, a.sender.ofType("voice:answer"))
}

func TestRelayToUnknownTargetIsDropped(t *testing.T) {
	s := newTestService(t, nil)

	a := connect(t, s, "a")

	err := s.Relay(context.Background(), &RelayParams{
		ConnectionId: a.id(),
		Signal: domain.Signal{
			Namespace:          domain.NamespaceVoice,
			Kind:               domain.SignalIceCandidate,
			RoomId:             "r1",
			TargetConnectionId: "gone",
			Payload:            json.RawMessage(`{"candidate":"c"}`),
		},
	})
	assert.NoError(t, err)
	assert.Equal(t, []string{EventConnectionReady}, a.sender.types())
}

func TestRelayRejectsUnknownKind(t *testing.T) {
	s := newTestService(t, nil)

	a := connect(t, s, "a")
	err := s.Relay(context.Background(), &RelayParams{
		ConnectionId: a.id(),
		Signal:       domain.Signal{Namespace: domain.NamespaceVoice, Kind: "renegotiate"},
	})
	assert.ErrorIs(t, err, ErrInvalidSignalKind)
}

func TestScreenAnnouncements(t *testing.T) {
	s := newTestService(t, nil)
	ctx := context.Background()

	presenter := connect(t, s, "p")
	viewer := connect(t, s, "v")
	join(t, s, presenter, "r1")
	join(t, s, viewer, "r1")

	require.NoError(t, s.StartScreen(ctx, &ScreenParams{ConnectionId: presenter.id(), RoomId: "r1"}))
	require.NoError(t, s.RequestScreen(ctx, &ScreenParams{ConnectionId: viewer.id(), RoomId: "r1"}))
	require.NoError(t, s.StopScreen(ctx, &ScreenParams{ConnectionId: presenter.id(), RoomId: "r1"}))

	started := viewer.sender.ofType(EventScreenStarted)
	require.Len(t, started, 1)
	assert.Equal(t, presenter.id(), decode[PresenceOutput](t, started[0]).ConnectionId)
	assert.Len(t, viewer.sender.ofType(EventScreenStopped), 1)

	requests := presenter.sender.ofType(EventScreenViewerJoin)
	require.Len(t, requests, 1)
	assert.Equal(t, PresenceOutput{UserId: "v", DisplayName: "name-v", ConnectionId: viewer.id()}, decode[PresenceOutput](t, requests[0]))
	assert.Empty(t, presenter.sender.ofType(EventScreenStarted))
}

package hubclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSuppressorAccept(t *testing.T) {
	s := NewSuppressor("me")

	t.Log("own origin is ignored")
	assert.False(t, s.Accept(Origin{ConnectionId: "me", Seq: 1}))

	t.Log("remote origins are applied in order")
	assert.True(t, s.Accept(Origin{ConnectionId: "a", Seq: 1}))
	assert.True(t, s.Accept(Origin{ConnectionId: "a", Seq: 2}))
	assert.True(t, s.Accept(Origin{ConnectionId: "b", Seq: 1}))

	t.Log("stale and repeated seqs are ignored")
	assert.False(t, s.Accept(Origin{ConnectionId: "a", Seq: 2}))
	assert.False(t, s.Accept(Origin{ConnectionId: "a", Seq: 1}))

	t.Log("messages without origin are applied")
	assert.True(t, s.Accept(Origin{}))
}

func TestSuppressorShouldEmit(t *testing.T) {
	s := NewSuppressor("me")

	t.Log("user action with nothing applied is emitted")
	assert.True(t, s.ShouldEmit(ChangePlay, 10))

	t.Log("player event caused by an applied remote play is swallowed once")
	s.Applied(ChangePlay, 42)
	assert.True(t, s.ShouldEmit(ChangePause, 42))
	assert.False(t, s.ShouldEmit(ChangePlay, 42.2))
	assert.True(t, s.ShouldEmit(ChangePlay, 42.2))

	t.Log("events outside the tolerance are user actions")
	s.Applied(ChangeSeek, 100)
	assert.True(t, s.ShouldEmit(ChangeSeek, 30))
	assert.False(t, s.ShouldEmit(ChangeSeek, 100))

	t.Log("custom tolerance")
	s.SetTolerance(2)
	s.Applied(ChangeSeek, 50)
	assert.False(t, s.ShouldEmit(ChangeSeek, 51.5))

	t.Log("reset drops pending changes")
	s.Applied(ChangePause, 5)
	s.Reset()
	assert.True(t, s.ShouldEmit(ChangePause, 5))
}

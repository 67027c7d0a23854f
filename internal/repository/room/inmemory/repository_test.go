package inmemory

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/watchparty/synchub/internal/domain"
	"github.com/watchparty/synchub/internal/repository/room"
)

func TestRoomState(t *testing.T) {
	r := NewRepo(slog.Default())

	_, err := r.GetPlayer("r1")
	assert.ErrorIs(t, err, room.ErrRoomNotFound)

	t.Log("touching a room neither creates a player nor keeps the room")
	require.NoError(t, r.Update("r1", func(state *room.State) error {
		assert.Nil(t, state.Player)
		return nil
	}))
	_, err = r.GetPlayer("r1")
	assert.ErrorIs(t, err, room.ErrRoomNotFound)
	assert.Equal(t, 0, r.Count())

	url := "https://example.com/v.mp4"
	require.NoError(t, r.Update("r1", func(state *room.State) error {
		state.Player = &domain.Player{VideoUrl: &url, CurrentTime: 12.5, IsPlaying: true, LastUpdate: 1}
		return nil
	}))

	player, err := r.GetPlayer("r1")
	require.NoError(t, err)
	assert.Equal(t, 12.5, player.CurrentTime)
	require.NotNil(t, player.VideoUrl)
	*player.VideoUrl = "mutated"

	player, err = r.GetPlayer("r1")
	require.NoError(t, err)
	assert.Equal(t, url, *player.VideoUrl, "returned player must be a copy")

	assert.Equal(t, 1, r.Count())
}

func voiceMembers(t *testing.T, r *repo, roomId string) []domain.VoiceMember {
	t.Helper()

	var members []domain.VoiceMember
	require.NoError(t, r.Update(roomId, func(state *room.State) error {
		members = state.VoiceMembers()
		return nil
	}))

	return members
}

func TestVoiceRoster(t *testing.T) {
	r := NewRepo(slog.Default())

	require.NoError(t, r.Update("r1", func(state *room.State) error {
		assert.True(t, state.UpsertVoiceMember(domain.VoiceMember{UserId: "u2", DisplayName: "Bob"}))
		assert.True(t, state.UpsertVoiceMember(domain.VoiceMember{UserId: "u1", DisplayName: "Alice"}))
		assert.False(t, state.UpsertVoiceMember(domain.VoiceMember{UserId: "u1", DisplayName: "Alice B"}))
		return nil
	}))

	assert.Equal(t, []domain.VoiceMember{
		{UserId: "u1", DisplayName: "Alice B"},
		{UserId: "u2", DisplayName: "Bob"},
	}, voiceMembers(t, r, "r1"))
	assert.Equal(t, []string{"r1"}, r.VoiceRoomsOf("u1"))

	require.NoError(t, r.Update("r1", func(state *room.State) error {
		assert.True(t, state.RemoveVoiceMember("u1"))
		assert.False(t, state.RemoveVoiceMember("u1"))
		assert.False(t, state.RemoveVoiceMember("nobody"))
		return nil
	}))

	assert.Len(t, voiceMembers(t, r, "r1"), 1)
	assert.Empty(t, r.VoiceRoomsOf("u1"))
	assert.Equal(t, []string{"r1"}, r.VoiceRoomsOf("u2"))
}

func TestPruneEmptyRooms(t *testing.T) {
	r := NewRepo(slog.Default())

	t.Log("rooms touched without state are not retained")
	for i := 0; i < 50; i++ {
		require.NoError(t, r.Update(fmt.Sprintf("r%d", i), func(state *room.State) error { return nil }))
	}
	assert.Equal(t, 0, r.Count())

	t.Log("voice rooms are indexed per user and dropped when the roster empties")
	for _, roomId := range []string{"b", "a"} {
		require.NoError(t, r.Update(roomId, func(state *room.State) error {
			state.UpsertVoiceMember(domain.VoiceMember{UserId: "u1"})
			return nil
		}))
	}
	assert.Equal(t, 2, r.Count())
	assert.Equal(t, []string{"a", "b"}, r.VoiceRoomsOf("u1"))

	require.NoError(t, r.Update("a", func(state *room.State) error {
		state.RemoveVoiceMember("u1")
		return nil
	}))
	assert.Equal(t, 1, r.Count())
	assert.Equal(t, []string{"b"}, r.VoiceRoomsOf("u1"))

	t.Log("a room with a player survives its roster emptying")
	require.NoError(t, r.Update("b", func(state *room.State) error {
		state.Player = &domain.Player{CurrentTime: 3}
		state.RemoveVoiceMember("u1")
		return nil
	}))
	assert.Equal(t, 1, r.Count())
	assert.Empty(t, r.VoiceRoomsOf("u1"))

	player, err := r.GetPlayer("b")
	require.NoError(t, err)
	assert.Equal(t, float64(3), player.CurrentTime)

	t.Log("errors from fn still settle the entry")
	errBoom := errors.New("boom")
	assert.ErrorIs(t, r.Update("c", func(state *room.State) error { return errBoom }), errBoom)
	assert.Equal(t, 1, r.Count())
}

func TestUpdateDuringPrune(t *testing.T) {
	r := NewRepo(slog.Default())

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			assert.NoError(t, r.Update("r1", func(state *room.State) error {
				state.UpsertVoiceMember(domain.VoiceMember{UserId: "u1"})
				return nil
			}))
		}()
		go func() {
			defer wg.Done()
			assert.NoError(t, r.Update("r1", func(state *room.State) error {
				state.RemoveVoiceMember("u1")
				return nil
			}))
		}()
	}
	wg.Wait()

	members := voiceMembers(t, r, "r1")
	if len(members) == 0 {
		assert.Equal(t, 0, r.Count())
		assert.Empty(t, r.VoiceRoomsOf("u1"))
	} else {
		assert.Equal(t, 1, r.Count())
		assert.Equal(t, []string{"r1"}, r.VoiceRoomsOf("u1"))
	}
}

func TestUpdateSerializesPerRoom(t *testing.T) {
	r := NewRepo(slog.Default())

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, r.Update("r1", func(state *room.State) error {
				if state.Player == nil {
					state.Player = &domain.Player{}
				}
				state.Player.CurrentTime++
				return nil
			}))
		}()
	}
	wg.Wait()

	player, err := r.GetPlayer("r1")
	require.NoError(t, err)
	assert.Equal(t, float64(100), player.CurrentTime)
}

package inmemory

import (
	"fmt"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/watchparty/synchub/internal/domain"
	"github.com/watchparty/synchub/internal/repository/connection"
)

func newConn(id, userId string) *domain.Connection {
	return domain.NewConnection(id, domain.Identity{UserId: userId, DisplayName: "name-" + userId}, nil)
}

func TestRegistry(t *testing.T) {
	r := NewRepo(slog.Default())

	c1 := newConn("c1", "u1")
	c2 := newConn("c2", "u2")
	require.NoError(t, r.Register(c1))
	require.NoError(t, r.Register(c2))
	assert.ErrorIs(t, r.Register(c1), connection.ErrAlreadyExists)
	assert.Equal(t, 2, r.Count())

	joined, err := r.JoinRoom("c1", "movie-night")
	require.NoError(t, err)
	assert.True(t, joined)

	joined, err = r.JoinRoom("c1", "movie-night")
	require.NoError(t, err)
	assert.False(t, joined, "second join must have no effect")

	_, err = r.JoinRoom("c2", "movie-night")
	require.NoError(t, err)
	_, err = r.JoinRoom("c1", "another")
	require.NoError(t, err)

	conns := r.GetRoomConns("movie-night")
	require.Len(t, conns, 2)
	assert.Equal(t, "c1", conns[0].Id)
	assert.Equal(t, "c2", conns[1].Id)

	left, err := r.LeaveRoom("c2", "movie-night")
	require.NoError(t, err)
	assert.True(t, left)
	left, err = r.LeaveRoom("c2", "movie-night")
	require.NoError(t, err)
	assert.False(t, left)

	removed, rooms, err := r.Remove("c1")
	require.NoError(t, err)
	assert.Same(t, c1, removed)
	assert.Equal(t, []string{"another", "movie-night"}, rooms)
	assert.Empty(t, r.GetRoomConns("movie-night"))
	assert.Empty(t, r.GetRoomConns("another"))

	_, _, err = r.Remove("c1")
	assert.ErrorIs(t, err, connection.ErrNotFound)
	_, err = r.Get("c1")
	assert.ErrorIs(t, err, connection.ErrNotFound)
	_, err = r.JoinRoom("c1", "movie-night")
	assert.ErrorIs(t, err, connection.ErrNotFound)

	got, err := r.Get("c2")
	require.NoError(t, err)
	assert.Same(t, c2, got)
}

func TestRegistryConcurrentJoins(t *testing.T) {
	r := NewRepo(slog.Default())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("c%02d", i)
			assert.NoError(t, r.Register(newConn(id, id)))
			_, err := r.JoinRoom(id, "r1")
			assert.NoError(t, err)
			_, err = r.JoinRoom(id, "r1")
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Len(t, r.GetRoomConns("r1"), 50)
	assert.Len(t, r.All(), 50)
}

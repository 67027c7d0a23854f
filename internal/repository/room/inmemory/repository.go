package inmemory

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/watchparty/synchub/internal/domain"
	"github.com/watchparty/synchub/internal/repository/room"
)

type roomEntry struct {
	mu      sync.Mutex
	state   room.State
	removed bool
}

type repo struct {
	rooms map[string]*roomEntry
	// user id -> room ids where the user is in the voice roster
	voiceRooms map[string]map[string]struct{}
	mu         sync.RWMutex
	logger     *slog.Logger
}

func NewRepo(logger *slog.Logger) *repo {
	return &repo{
		rooms:      make(map[string]*roomEntry),
		voiceRooms: make(map[string]map[string]struct{}),
		logger:     logger,
	}
}

func (r *repo) getOrCreate(roomId string) *roomEntry {
	r.mu.RLock()
	e, ok := r.rooms[roomId]
	r.mu.RUnlock()
	if ok {
		return e
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok = r.rooms[roomId]; ok {
		return e
	}

	e = &roomEntry{}
	r.rooms[roomId] = e
	r.logger.Debug("room.inmemory.getOrCreate", "room_id", roomId, "rooms", len(r.rooms))

	return e
}

// lock returns the live entry for roomId with its mutex held. An entry pruned
// while the caller waited for it is skipped in favour of a fresh one.
func (r *repo) lock(roomId string) *roomEntry {
	for {
		e := r.getOrCreate(roomId)
		e.mu.Lock()
		if !e.removed {
			return e
		}
		e.mu.Unlock()
	}
}

// Update runs fn with exclusive access to the room's state. Calls for the same
// room are serialized; calls for different rooms run in parallel. A room left
// without a player and without voice members is dropped from the store.
func (r *repo) Update(roomId string, fn func(state *room.State) error) error {
	e := r.lock(roomId)
	defer e.mu.Unlock()

	before := e.state.VoiceUserIds()
	err := fn(&e.state)
	r.settle(roomId, e, before)

	return err
}

// settle refreshes the voice index and prunes the entry if it is empty. The
// caller holds e.mu.
func (r *repo) settle(roomId string, e *roomEntry, before map[string]struct{}) {
	after := e.state.VoiceUserIds()

	r.mu.Lock()
	defer r.mu.Unlock()

	for userId := range after {
		if _, ok := before[userId]; ok {
			continue
		}
		rooms, ok := r.voiceRooms[userId]
		if !ok {
			rooms = make(map[string]struct{})
			r.voiceRooms[userId] = rooms
		}
		rooms[roomId] = struct{}{}
	}
	for userId := range before {
		if _, ok := after[userId]; ok {
			continue
		}
		delete(r.voiceRooms[userId], roomId)
		if len(r.voiceRooms[userId]) == 0 {
			delete(r.voiceRooms, userId)
		}
	}

	if !e.state.Empty() {
		return
	}

	e.removed = true
	if r.rooms[roomId] == e {
		delete(r.rooms, roomId)
	}
	r.logger.Debug("room.inmemory.settle: pruned", "room_id", roomId, "rooms", len(r.rooms))
}

// GetPlayer returns a copy of the room's player.
func (r *repo) GetPlayer(roomId string) (domain.Player, error) {
	r.mu.RLock()
	e, ok := r.rooms[roomId]
	r.mu.RUnlock()
	if !ok {
		return domain.Player{}, room.ErrRoomNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.removed {
		return domain.Player{}, room.ErrRoomNotFound
	}
	if e.state.Player == nil {
		return domain.Player{}, room.ErrPlayerNotFound
	}

	return e.state.Player.Clone(), nil
}

// VoiceRoomsOf returns the rooms whose voice roster holds userId, sorted.
func (r *repo) VoiceRoomsOf(userId string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.voiceRooms[userId]))
	for id := range r.voiceRooms[userId] {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	return ids
}

// Count returns the number of rooms holding a player or a voice roster.
func (r *repo) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.rooms)
}

package inmemory

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/watchparty/synchub/internal/domain"
	"github.com/watchparty/synchub/internal/repository/connection"
)

type entry struct {
	conn  *domain.Connection
	rooms map[string]struct{}
}

type repo struct {
	conns  map[string]*entry
	rooms  map[string]map[string]*domain.Connection
	mu     sync.RWMutex
	logger *slog.Logger
}

func NewRepo(logger *slog.Logger) *repo {
	return &repo{
		conns:  make(map[string]*entry),
		rooms:  make(map[string]map[string]*domain.Connection),
		logger: logger,
	}
}

func (r *repo) Register(conn *domain.Connection) error {
	funcName := "connection.inmemory.Register"
	r.mu.Lock()
	defer r.mu.Unlock()

	r.logger.Debug(funcName, "connection_id", conn.Id, "user_id", conn.Identity.UserId)
	if _, ok := r.conns[conn.Id]; ok {
		r.logger.Info(funcName, "error", connection.ErrAlreadyExists)
		return connection.ErrAlreadyExists
	}

	r.conns[conn.Id] = &entry{
		conn:  conn,
		rooms: make(map[string]struct{}),
	}

	return nil
}

// JoinRoom adds the connection to the room and reports whether it was not a
// member already.
func (r *repo) JoinRoom(connectionId, roomId string) (bool, error) {
	funcName := "connection.inmemory.JoinRoom"
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.conns[connectionId]
	if !ok {
		r.logger.Info(funcName, "error", connection.ErrNotFound, "connection_id", connectionId)
		return false, connection.ErrNotFound
	}

	if _, joined := e.rooms[roomId]; joined {
		return false, nil
	}

	e.rooms[roomId] = struct{}{}
	members, ok := r.rooms[roomId]
	if !ok {
		members = make(map[string]*domain.Connection)
		r.rooms[roomId] = members
	}
	members[connectionId] = e.conn

	r.logger.Debug(funcName, "connection_id", connectionId, "room_id", roomId, "members", len(members))
	return true, nil
}

// LeaveRoom removes the connection from the room and reports whether it was a
// member.
func (r *repo) LeaveRoom(connectionId, roomId string) (bool, error) {
	funcName := "connection.inmemory.LeaveRoom"
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.conns[connectionId]
	if !ok {
		r.logger.Info(funcName, "error", connection.ErrNotFound, "connection_id", connectionId)
		return false, connection.ErrNotFound
	}

	if _, joined := e.rooms[roomId]; !joined {
		return false, nil
	}

	delete(e.rooms, roomId)
	r.removeFromRoom(roomId, connectionId)

	return true, nil
}

// Remove unregisters the connection and returns it together with the rooms it
// had joined.
func (r *repo) Remove(connectionId string) (*domain.Connection, []string, error) {
	funcName := "connection.inmemory.Remove"
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.conns[connectionId]
	if !ok {
		r.logger.Debug(funcName, "error", connection.ErrNotFound, "connection_id", connectionId)
		return nil, nil, connection.ErrNotFound
	}

	rooms := sortedKeys(e.rooms)
	for _, roomId := range rooms {
		r.removeFromRoom(roomId, connectionId)
	}
	delete(r.conns, connectionId)

	r.logger.Debug(funcName, "connection_id", connectionId, "rooms", rooms)
	return e.conn, rooms, nil
}

func (r *repo) Get(connectionId string) (*domain.Connection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.conns[connectionId]
	if !ok {
		return nil, connection.ErrNotFound
	}

	return e.conn, nil
}

// GetRoomConns returns the room's connections ordered by id.
func (r *repo) GetRoomConns(roomId string) []*domain.Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := r.rooms[roomId]
	conns := make([]*domain.Connection, 0, len(members))
	for _, conn := range members {
		conns = append(conns, conn)
	}
	sort.Slice(conns, func(i, j int) bool { return conns[i].Id < conns[j].Id })

	return conns
}

func (r *repo) All() []*domain.Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := make([]*domain.Connection, 0, len(r.conns))
	for _, e := range r.conns {
		conns = append(conns, e.conn)
	}

	return conns
}

func (r *repo) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.conns)
}

// must be called with r.mu held
func (r *repo) removeFromRoom(roomId, connectionId string) {
	members, ok := r.rooms[roomId]
	if !ok {
		return
	}

	delete(members, connectionId)
	if len(members) == 0 {
		delete(r.rooms, roomId)
	}
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return keys
}

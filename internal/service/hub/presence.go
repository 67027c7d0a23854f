package hub

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/watchparty/synchub/internal/domain"
	"github.com/watchparty/synchub/internal/metrics"
	"github.com/watchparty/synchub/internal/repository/room"
)

type ConnectParams struct {
	Identity domain.Identity
	Sender   domain.Sender
}

// Connect registers a new connection and greets it with its own id, which
// peers need to address it through the relay.
func (s service) Connect(ctx context.Context, params *ConnectParams) (*domain.Connection, error) {
	conn := domain.NewConnection(uuid.NewString(), params.Identity, params.Sender)

	if err := s.connRepo.Register(conn); err != nil {
		return nil, fmt.Errorf("failed to register connection: %w", err)
	}
	metrics.IncrementWSActiveConnections()

	if err := s.sendToConn(ctx, conn, EventConnectionReady, ConnectionReadyOutput{
		ConnectionId: conn.Id,
		UserId:       conn.Identity.UserId,
		DisplayName:  conn.Identity.DisplayName,
	}); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "connection registered",
		"connection_id", conn.Id,
		"user_id", conn.Identity.UserId,
		"connections", s.connRepo.Count(),
	)

	return conn, nil
}

type JoinRoomParams struct {
	ConnectionId string
	RoomId       string
}

// JoinRoom subscribes the connection to the room. The playback snapshot is
// sent privately when the room has one; a repeated join only resends it.
func (s service) JoinRoom(ctx context.Context, params *JoinRoomParams) error {
	conn, err := s.getConn(params.ConnectionId)
	if err != nil {
		return err
	}

	return s.updateRoom(params.RoomId, func(state *room.State) error {
		joined, err := s.connRepo.JoinRoom(conn.Id, params.RoomId)
		if err != nil {
			return fmt.Errorf("failed to join room: %w", err)
		}

		if state.Player != nil {
			if err := s.sendToConn(ctx, conn, EventVideoState, state.Player.Clone()); err != nil {
				return err
			}
		}

		if !joined {
			return nil
		}

		return s.broadcast(ctx, params.RoomId, conn.Id, EventUserJoined, presenceOf(conn))
	})
}

type LeaveRoomParams struct {
	ConnectionId string
	RoomId       string
}

func (s service) LeaveRoom(ctx context.Context, params *LeaveRoomParams) error {
	conn, err := s.getConn(params.ConnectionId)
	if err != nil {
		return err
	}

	left, err := s.connRepo.LeaveRoom(conn.Id, params.RoomId)
	if err != nil {
		return fmt.Errorf("failed to leave room: %w", err)
	}

	if !left {
		return nil
	}

	return s.broadcast(ctx, params.RoomId, conn.Id, EventUserLeft, presenceOf(conn))
}

type TypingParams struct {
	ConnectionId string
	RoomId       string
	IsTyping     bool
}

func (s service) Typing(ctx context.Context, params *TypingParams) error {
	conn, err := s.getConn(params.ConnectionId)
	if err != nil {
		return err
	}

	return s.broadcast(ctx, params.RoomId, conn.Id, EventChatTyping, TypingOutput{
		UserId:      conn.Identity.UserId,
		DisplayName: conn.Identity.DisplayName,
		IsTyping:    params.IsTyping,
	})
}

// Ping answers an application level keepalive.
func (s service) Ping(ctx context.Context, connectionId string) error {
	conn, err := s.getConn(connectionId)
	if err != nil {
		return err
	}

	return s.sendToConn(ctx, conn, EventPong, PongOutput{})
}

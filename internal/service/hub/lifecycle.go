package hub

import (
	"context"
	"errors"
	"fmt"

	"github.com/watchparty/synchub/internal/metrics"
	"github.com/watchparty/synchub/internal/repository/connection"
	"github.com/watchparty/synchub/internal/repository/room"
)

// Disconnect cleans up after a connection that is gone. Every room it joined
// hears room:user-left and a synthesized chat:typing false; every voice roster
// holding its user id loses the entry and hears voice:user-left. Calling it
// again for the same connection is a no-op.
func (s service) Disconnect(ctx context.Context, connectionId string) error {
	conn, rooms, err := s.connRepo.Remove(connectionId)
	if err != nil {
		if errors.Is(err, connection.ErrNotFound) {
			return nil
		}

		return fmt.Errorf("failed to remove connection: %w", err)
	}
	metrics.DecrementWSActiveConnections()

	var errs []error
	for _, roomId := range rooms {
		if err := s.broadcast(ctx, roomId, conn.Id, EventUserLeft, presenceOf(conn)); err != nil {
			errs = append(errs, err)
		}
		if err := s.broadcast(ctx, roomId, conn.Id, EventChatTyping, TypingOutput{
			UserId:      conn.Identity.UserId,
			DisplayName: conn.Identity.DisplayName,
			IsTyping:    false,
		}); err != nil {
			errs = append(errs, err)
		}
	}

	for _, roomId := range s.roomRepo.VoiceRoomsOf(conn.Identity.UserId) {
		err := s.updateRoom(roomId, func(state *room.State) error {
			if !state.RemoveVoiceMember(conn.Identity.UserId) {
				return nil
			}

			return s.broadcast(ctx, roomId, conn.Id, EventVoiceUserLeft, VoiceLeftOutput{
				UserId:       conn.Identity.UserId,
				ConnectionId: conn.Id,
			})
		})
		if err != nil {
			errs = append(errs, err)
		}
	}

	s.logger.InfoContext(ctx, "connection removed",
		"connection_id", conn.Id,
		"user_id", conn.Identity.UserId,
		"rooms", len(rooms),
		"connections", s.connRepo.Count(),
	)

	return errors.Join(errs...)
}

// Shutdown closes every live connection. Their read loops then run the usual
// disconnect cleanup.
func (s service) Shutdown(ctx context.Context) {
	conns := s.connRepo.All()
	for _, conn := range conns {
		if err := conn.Close(); err != nil {
			s.logger.DebugContext(ctx, "failed to close connection", "connection_id", conn.Id, "error", err)
		}
	}

	s.logger.InfoContext(ctx, "hub shut down", "closed_connections", len(conns))
}

package hub

import (
	"context"
	"errors"
	"fmt"

	"github.com/watchparty/synchub/internal/domain"
	"github.com/watchparty/synchub/internal/metrics"
	"github.com/watchparty/synchub/internal/repository/connection"
)

var ErrInvalidSignalKind = errors.New("invalid signal kind")

type RelayParams struct {
	ConnectionId string
	Signal       domain.Signal
}

// Relay forwards a negotiation message to its target connection only. The
// payload is opaque to the hub. An unknown target is not an error: the
// sender's negotiation times out and restarts on its own.
func (s service) Relay(ctx context.Context, params *RelayParams) error {
	sig := params.Signal
	if !sig.Kind.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidSignalKind, sig.Kind)
	}

	sender, err := s.getConn(params.ConnectionId)
	if err != nil {
		return err
	}

	event := sig.Namespace.EventType(sig.Kind)

	target, err := s.connRepo.Get(sig.TargetConnectionId)
	if err != nil {
		if errors.Is(err, connection.ErrNotFound) {
			metrics.RecordRelayDropped(string(sig.Namespace), string(sig.Kind))
			s.logger.DebugContext(ctx, "relay target not found, dropping",
				"type", event,
				"target_connection_id", sig.TargetConnectionId,
			)
			return nil
		}

		return fmt.Errorf("failed to get target connection: %w", err)
	}

	return s.sendToConn(ctx, target, event, SignalOutput{
		SenderId:    sender.Id,
		UserId:      sender.Identity.UserId,
		DisplayName: sender.Identity.DisplayName,
		RoomId:      sig.RoomId,
		Payload:     sig.Payload,
	})
}

type ScreenParams struct {
	ConnectionId string
	RoomId       string
}

// StartScreen, StopScreen and RequestScreen are stateless room-wide notices;
// the broadcaster and viewers negotiate through Relay afterwards.
func (s service) StartScreen(ctx context.Context, params *ScreenParams) error {
	return s.announce(ctx, params, EventScreenStarted)
}

func (s service) StopScreen(ctx context.Context, params *ScreenParams) error {
	return s.announce(ctx, params, EventScreenStopped)
}

func (s service) RequestScreen(ctx context.Context, params *ScreenParams) error {
	return s.announce(ctx, params, EventScreenViewerJoin)
}

func (s service) announce(ctx context.Context, params *ScreenParams, event string) error {
	conn, err := s.getConn(params.ConnectionId)
	if err != nil {
		return err
	}

	return s.broadcast(ctx, params.RoomId, conn.Id, event, presenceOf(conn))
}

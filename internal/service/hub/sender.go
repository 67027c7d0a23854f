package hub

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/watchparty/synchub/internal/domain"
	"github.com/watchparty/synchub/internal/metrics"
)

func marshalOutput(msgType string, payload any) ([]byte, error) {
	data, err := json.Marshal(Output{Type: msgType, Payload: payload})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", msgType, err)
	}

	return data, nil
}

func (s service) sendData(ctx context.Context, conn *domain.Connection, msgType string, data []byte) {
	if !conn.Send(data) {
		metrics.RecordSendDropped()
		s.logger.WarnContext(ctx, "send queue full, message dropped",
			"target_connection_id", conn.Id,
			"type", msgType,
		)
	}
}

func (s service) sendToConn(ctx context.Context, conn *domain.Connection, msgType string, payload any) error {
	data, err := marshalOutput(msgType, payload)
	if err != nil {
		return err
	}

	s.sendData(ctx, conn, msgType, data)
	return nil
}

// broadcast sends to every connection in the room except exceptId. Callers that
// announce a state change hold the room's lock so the recipient list matches it.
func (s service) broadcast(ctx context.Context, roomId, exceptId, msgType string, payload any) error {
	data, err := marshalOutput(msgType, payload)
	if err != nil {
		return err
	}

	for _, conn := range s.connRepo.GetRoomConns(roomId) {
		if conn.Id == exceptId {
			continue
		}
		s.sendData(ctx, conn, msgType, data)
	}

	return nil
}

func (s service) getConn(connectionId string) (*domain.Connection, error) {
	conn, err := s.connRepo.Get(connectionId)
	if err != nil {
		return nil, fmt.Errorf("failed to get connection: %w", err)
	}

	return conn, nil
}

package controller

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/watchparty/synchub/pkg/validator"
	"github.com/watchparty/synchub/pkg/wsrouter"
)

const eventError = "error"

type ErrorOutput struct {
	Type    string                      `json:"type"`
	Message string                      `json:"message"`
	Errors  []validator.ValidationError `json:"errors,omitempty"`
}

func errorOutput(messageType string, err error) ErrorOutput {
	out := ErrorOutput{Type: messageType}

	var validationErr *validator.Error
	switch {
	case errors.As(err, &validationErr):
		out.Message = "invalid payload"
		out.Errors = validationErr.Errors
	case errors.Is(err, wsrouter.ErrInvalidPayload):
		out.Message = "invalid payload"
	case errors.Is(err, wsrouter.ErrInvalidMessage):
		out.Message = "invalid message"
	case errors.Is(err, wsrouter.ErrUnknownType):
		out.Message = "unknown message type"
	default:
		out.Message = "internal error"
	}

	return out
}

// sendError answers a failed message privately. The connection stays open.
func (c controller) sendError(ctx context.Context, cl *client, data []byte, err error) {
	var panicErr *wsrouter.PanicError
	if errors.As(err, &panicErr) {
		c.logger.ErrorContext(ctx, "websocket handler panicked", "panic", panicErr.Value, "stack", string(panicErr.Stack))
	}

	var head struct {
		Type string `json:"type"`
	}
	_ = json.Unmarshal(data, &head)

	msg, marshalErr := json.Marshal(map[string]any{
		"type":    eventError,
		"payload": errorOutput(head.Type, err),
	})
	if marshalErr != nil {
		c.logger.WarnContext(ctx, "failed to marshal error", "error", marshalErr)
		return
	}

	if !cl.Send(msg) {
		c.logger.WarnContext(ctx, "send queue full, error dropped")
	}
}

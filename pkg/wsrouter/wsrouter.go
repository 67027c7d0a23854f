package wsrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
)

var (
	ErrInvalidMessage = errors.New("invalid message")
	ErrInvalidPayload = errors.New("invalid payload")
	ErrUnknownType    = errors.New("unknown message type")
)

// Message is the frame exchanged in both directions.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type HandlerFunc func(ctx context.Context, payload json.RawMessage) error

type Middleware func(next HandlerFunc) HandlerFunc

type Validator interface {
	Struct(i any) error
}

// PanicError is returned when a handler panics.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("handler panic: %v", e.Value)
}

type WSRouter struct {
	routes      map[string]HandlerFunc
	middlewares []Middleware
	validator   Validator
}

func New() *WSRouter {
	return &WSRouter{routes: make(map[string]HandlerFunc)}
}

// Use appends middlewares. The first one registered is the outermost.
func (r *WSRouter) Use(mws ...Middleware) {
	r.middlewares = append(r.middlewares, mws...)
}

// SetValidator makes Handle validate decoded payloads before calling the handler.
func (r *WSRouter) SetValidator(v Validator) {
	r.validator = v
}

func (r *WSRouter) HandleRaw(messageType string, handler HandlerFunc) {
	r.routes[messageType] = handler
}

// Handle registers a handler receiving the payload decoded into T.
func Handle[T any](r *WSRouter, messageType string, handler func(ctx context.Context, input T) error) {
	r.HandleRaw(messageType, func(ctx context.Context, payload json.RawMessage) error {
		var input T
		if len(bytes.TrimSpace(payload)) > 0 && !bytes.Equal(bytes.TrimSpace(payload), []byte("null")) {
			if err := json.Unmarshal(payload, &input); err != nil {
				return fmt.Errorf("%w: %w", ErrInvalidPayload, err)
			}
		}

		if r.validator != nil {
			if err := r.validator.Struct(input); err != nil {
				return fmt.Errorf("%w: %w", ErrInvalidPayload, err)
			}
		}

		return handler(ctx, input)
	})
}

// ServeMessage decodes one frame and dispatches it. Middlewares run for every
// frame with a known type.
func (r *WSRouter) ServeMessage(ctx context.Context, data []byte) error {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}

	if msg.Type == "" {
		return fmt.Errorf("%w: type is empty", ErrInvalidMessage)
	}

	handler, exists := r.routes[msg.Type]
	if !exists {
		return fmt.Errorf("%w: %s", ErrUnknownType, msg.Type)
	}

	for i := len(r.middlewares) - 1; i >= 0; i-- {
		handler = r.middlewares[i](handler)
	}

	return handler(withMessageType(ctx, msg.Type), msg.Payload)
}

// Recoverer turns a handler panic into a *PanicError.
func Recoverer() Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, payload json.RawMessage) (err error) {
			defer func() {
				if rec := recover(); rec != nil {
					err = &PanicError{Value: rec, Stack: debug.Stack()}
				}
			}()

			return next(ctx, payload)
		}
	}
}

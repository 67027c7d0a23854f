package chat

import (
	"context"
	"errors"

	"github.com/watchparty/synchub/internal/domain"
)

var (
	ErrRoomNotFound     = errors.New("room not found")
	ErrUnexpectedStatus = errors.New("unexpected status")
)

type AppendMessageParams struct {
	RoomId  string
	Content string
	Author  domain.ChatAuthor
}

// Store persists chat history for a room. Implementations assign the message
// id and creation time.
type Store interface {
	AppendMessage(ctx context.Context, params *AppendMessageParams) (domain.ChatMessage, error)
	GetRecentMessages(ctx context.Context, roomId string, limit int) ([]domain.ChatMessage, error)
}
